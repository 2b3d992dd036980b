package ledger_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/clubware/ledger"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/store/memory"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from README
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		// Initialize Ledger
		l := ledger.New(store,
			ledger.WithLogger(slog.Default()),
		)

		// Start the engine
		ctx := context.Background()
		if err := l.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer l.Stop()

		// Create a member; the category is assigned from their age
		dob := time.Date(1990, time.June, 12, 0, 0, 0, 0, time.UTC)
		m, err := l.CreateMember(ctx, member.Input{
			Name:        "Jo Bloggs",
			Email:       "jo@example.com",
			DateOfBirth: dob,
		})
		if err != nil {
			t.Fatal(err)
		}
		if m.CategoryID != "full" {
			t.Errorf("expected full membership, got %s", m.CategoryID)
		}

		// Record a payment; the receipt number is issued automatically
		staffID := id.NewUserID()
		p, err := l.RecordPayment(ctx, payment.Input{
			MemberID: m.ID,
			Amount:   ledger.GBP(4800), // £48.00
			Date:     time.Now(),
			Method:   payment.MethodBankTransfer,
		}, staffID)
		if err != nil {
			t.Fatal(err)
		}
		if p.ReceiptNumber == "" {
			t.Error("expected a receipt number")
		}

		// Balance reflects the payment
		m, err = l.GetMember(ctx, m.ID)
		if err != nil {
			t.Fatal(err)
		}
		if !m.AccountBalance.Equal(ledger.GBP(4800)) {
			t.Errorf("expected balance £48.00, got %s", m.AccountBalance)
		}

		// Apply the annual fees for the year
		result, err := l.ApplyAnnualFees(ctx, time.Now().Year(), nil, staffID)
		if err != nil {
			t.Fatal(err)
		}
		if result.Successful != 1 {
			t.Errorf("expected 1 fee applied, got %d", result.Successful)
		}
	})

	// Test joining quote example
	t.Run("JoiningQuoteExample", func(t *testing.T) {
		l := ledger.New(memory.New())

		// A full member joining in September pays a pro-rata subscription
		quote, ok := l.JoiningQuote("full", time.Date(2025, time.September, 5, 0, 0, 0, 0, time.UTC))
		if !ok {
			t.Fatal("expected a quote for the full category")
		}
		if !quote.Total.Equal(ledger.GBP(18500)) {
			t.Errorf("expected £185.00, got %s", quote.Total)
		}
	})
}
