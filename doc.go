// Package ledger provides a membership ledger engine for sports and social clubs.
//
// Ledger is designed as a library, not a service. Import it directly into your Go
// application and bring your own transport. It provides:
//
//   - An age-banded membership category table with automatic assignment
//   - Yearly sequential receipt numbering (R2025-001, R2025-002, ...)
//   - An atomic account balance: every payment and fee moves the balance
//     in the same transaction that records it
//   - Pro-rata joining fee quotes based on the month a member joins
//   - Bulk payment recording and annual fee runs with per-item isolation
//   - Pluggable hooks for audit trails and metrics
//
// # Quick Start
//
// Create a ledger instance with your preferred store:
//
//	import (
//	    "github.com/clubware/ledger"
//	    "github.com/clubware/ledger/store/postgres"
//	)
//
//	// Initialize store
//	store, err := postgres.Open(ctx, databaseURL)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create ledger
//	l := ledger.New(store)
//
//	// Start the ledger (runs migrations, notifies plugins)
//	if err := l.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer l.Stop()
//
// # Core Concepts
//
// Members are created with a date of birth and assigned a category by age:
//
//	m, err := l.CreateMember(ctx, member.Input{
//	    Name:        "Jo Bloggs",
//	    DateOfBirth: dob,
//	})
//
// Payments credit the member's account and carry a receipt number:
//
//	p, err := l.RecordPayment(ctx, payment.Input{
//	    MemberID: m.ID,
//	    Amount:   ledger.GBP(4800), // £48.00
//	    Date:     time.Now(),
//	    Method:   payment.MethodBankTransfer,
//	}, staffID)
//
// Annual fees debit every active member once per year:
//
//	result, err := l.ApplyAnnualFees(ctx, 2025, nil, staffID)
//
// All monetary calculations use integer arithmetic to avoid floating-point
// precision issues. The Money type represents amounts in the smallest currency
// unit (pence for GBP, cents for EUR, etc).
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	mem_01h2xcejqtf2nbrexx3vqjhp41  // Member ID
//	pay_01h2xcejqtf2nbrexx3vqjhp41  // Payment ID
//	fee_01h455vb4pex5vsknk084sn02q  // Fee ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package ledger
