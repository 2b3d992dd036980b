package ledger_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/clubware/ledger"
	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/store/memory"
)

var testClock = func() time.Time {
	return time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
}

func newTestLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l := ledger.New(memory.New(), ledger.WithClock(testClock))
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })
	return l
}

func createMember(t *testing.T, l *ledger.Ledger, name string, dob time.Time) *member.Member {
	t.Helper()
	m, err := l.CreateMember(context.Background(), member.Input{
		Name:        name,
		DateOfBirth: dob,
	})
	if err != nil {
		t.Fatalf("create member %s: %v", name, err)
	}
	return m
}

func recordPayment(t *testing.T, l *ledger.Ledger, memberID id.MemberID, pence int64) *payment.Payment {
	t.Helper()
	p, err := l.RecordPayment(context.Background(), payment.Input{
		MemberID: memberID,
		Amount:   ledger.GBP(pence),
		Date:     testClock(),
		Method:   payment.MethodBankTransfer,
	}, id.NewUserID())
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	return p
}

func balance(t *testing.T, l *ledger.Ledger, memberID id.MemberID) ledger.Money {
	t.Helper()
	m, err := l.GetMember(context.Background(), memberID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	return m.AccountBalance
}

// ==================== Members ====================

func TestCreateMemberAssignsCategory(t *testing.T) {
	l := newTestLedger(t)
	tests := []struct {
		name string
		dob  time.Time
		want string
	}{
		{"ten year old", time.Date(2015, time.March, 1, 0, 0, 0, 0, time.UTC), "junior"},
		{"seventeen year old", time.Date(2008, time.March, 1, 0, 0, 0, 0, time.UTC), "youth"},
		{"twenty one year old", time.Date(2004, time.March, 1, 0, 0, 0, 0, time.UTC), "colts"},
		{"forty year old", time.Date(1985, time.March, 1, 0, 0, 0, 0, time.UTC), "full"},
		{"no date of birth", time.Time{}, "full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := createMember(t, l, tt.name, tt.dob)
			if m.CategoryID != tt.want {
				t.Errorf("category = %s, want %s", m.CategoryID, tt.want)
			}
			if !m.AccountBalance.IsZero() {
				t.Errorf("opening balance = %s, want zero", m.AccountBalance)
			}
			if m.Status != member.StatusActive {
				t.Errorf("status = %s, want active", m.Status)
			}
		})
	}
}

func TestCreateMemberValidation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	if _, err := l.CreateMember(ctx, member.Input{Name: "   "}); !ledger.IsValidation(err) {
		t.Errorf("blank name: got %v, want validation error", err)
	}
	_, err := l.CreateMember(ctx, member.Input{Name: "A", CategoryID: "platinum"})
	if !ledger.IsValidation(err) {
		t.Errorf("unknown category: got %v, want validation error", err)
	}
}

func TestUpdateMemberNeverTouchesBalance(t *testing.T) {
	l := newTestLedger(t)
	m := createMember(t, l, "Pat", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	recordPayment(t, l, m.ID, 5000)

	updated, err := l.UpdateMember(context.Background(), m.ID, member.Input{Email: "pat@example.com"})
	if err != nil {
		t.Fatalf("update member: %v", err)
	}
	if !updated.AccountBalance.Equal(ledger.GBP(5000)) {
		t.Errorf("balance after update = %s, want £50.00", updated.AccountBalance)
	}
}

// ==================== Balance Ledger ====================

func TestBalanceConservation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	m := createMember(t, l, "Alex", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	p1 := recordPayment(t, l, m.ID, 10000) // +100.00
	p2 := recordPayment(t, l, m.ID, 4800)  // +48.00

	// Amend p1 from £100 to £75: delta −25.00.
	if _, err := l.UpdatePayment(ctx, p1.ID, payment.Update{
		Amount: ledger.GBP(7500),
		Date:   p1.Date,
		Method: p1.Method,
	}); err != nil {
		t.Fatalf("update payment: %v", err)
	}

	// Delete p2: −48.00.
	if err := l.DeletePayment(ctx, p2.ID); err != nil {
		t.Fatalf("delete payment: %v", err)
	}

	// Apply a £55 fee: −55.00.
	if _, err := l.ApplyFee(ctx, fee.Input{
		MemberID: m.ID,
		Amount:   ledger.GBP(5500),
	}, id.NewUserID()); err != nil {
		t.Fatalf("apply fee: %v", err)
	}

	// 0 + 100 + 48 − 25 − 48 − 55 = 20
	if got := balance(t, l, m.ID); !got.Equal(ledger.GBP(2000)) {
		t.Errorf("final balance = %s, want £20.00", got)
	}
}

func TestRecordPaymentUnknownMemberLeavesNoState(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	_, err := l.RecordPayment(ctx, payment.Input{
		MemberID: id.NewMemberID(),
		Amount:   ledger.GBP(1000),
		Date:     testClock(),
		Method:   payment.MethodCash,
	}, id.NewUserID())
	if !ledger.IsNotFound(err) {
		t.Fatalf("got %v, want not found", err)
	}

	payments, err := l.ListPayments(ctx, payment.ListOpts{})
	if err != nil {
		t.Fatalf("list payments: %v", err)
	}
	if len(payments) != 0 {
		t.Errorf("got %d payments, want none persisted", len(payments))
	}
}

func TestDeletePaymentReversesCredit(t *testing.T) {
	l := newTestLedger(t)
	m := createMember(t, l, "Sam", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	p := recordPayment(t, l, m.ID, 9900)

	if err := l.DeletePayment(context.Background(), p.ID); err != nil {
		t.Fatalf("delete payment: %v", err)
	}
	if got := balance(t, l, m.ID); !got.IsZero() {
		t.Errorf("balance after delete = %s, want zero", got)
	}
	if _, err := l.GetPayment(context.Background(), p.ID); !ledger.IsNotFound(err) {
		t.Errorf("get deleted payment: got %v, want not found", err)
	}
}

func TestPaymentValidation(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	m := createMember(t, l, "Val", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name string
		in   payment.Input
	}{
		{"nil member", payment.Input{Amount: ledger.GBP(100), Date: testClock(), Method: payment.MethodCash}},
		{"zero amount", payment.Input{MemberID: m.ID, Date: testClock(), Method: payment.MethodCash}},
		{"negative amount", payment.Input{MemberID: m.ID, Amount: ledger.GBP(-100), Date: testClock(), Method: payment.MethodCash}},
		{"no date", payment.Input{MemberID: m.ID, Amount: ledger.GBP(100), Method: payment.MethodCash}},
		{"bad method", payment.Input{MemberID: m.ID, Amount: ledger.GBP(100), Date: testClock(), Method: "iou"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := l.RecordPayment(ctx, tt.in, id.NewUserID()); !ledger.IsValidation(err) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

// ==================== Receipt Numbering ====================

func TestReceiptSequence(t *testing.T) {
	l := newTestLedger(t)
	m := createMember(t, l, "Rae", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	want := []string{"R2025-001", "R2025-002", "R2025-003"}
	for i, w := range want {
		p := recordPayment(t, l, m.ID, 1000)
		if p.ReceiptNumber != w {
			t.Errorf("payment %d receipt = %s, want %s", i+1, p.ReceiptNumber, w)
		}
	}
}

func TestReceiptNumberPreview(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	next, err := l.ReceiptNumber(ctx, 2025)
	if err != nil {
		t.Fatalf("receipt number: %v", err)
	}
	if next != "R2025-001" {
		t.Errorf("empty year preview = %s, want R2025-001", next)
	}

	m := createMember(t, l, "Rae", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	recordPayment(t, l, m.ID, 1000)

	next, err = l.ReceiptNumber(ctx, 2025)
	if err != nil {
		t.Fatalf("receipt number: %v", err)
	}
	if next != "R2025-002" {
		t.Errorf("preview after one payment = %s, want R2025-002", next)
	}
}

// failingReceiptStore simulates a store whose receipt sequence cannot be
// read while everything else keeps working.
type failingReceiptStore struct {
	*memory.Store
}

func (s *failingReceiptStore) LatestReceiptNumber(context.Context, int) (int, error) {
	return 0, errors.New("sequence scan failed")
}

func TestReceiptFallbackOnSequenceFailure(t *testing.T) {
	store := &failingReceiptStore{Store: memory.New()}
	l := ledger.New(store, ledger.WithClock(testClock))
	m := createMember(t, l, "Fay", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	p := recordPayment(t, l, m.ID, 1000)

	if !strings.HasPrefix(p.ReceiptNumber, "R2025-") {
		t.Fatalf("fallback receipt = %s, want R2025- prefix", p.ReceiptNumber)
	}
	// The fallback carries an epoch-milliseconds suffix, which must never
	// parse as a sequential receipt and so can never advance the sequence.
	if _, _, err := payment.ParseReceipt(p.ReceiptNumber); err == nil {
		t.Errorf("fallback receipt %s parsed as sequential", p.ReceiptNumber)
	}
	// The payment itself still lands.
	if got := balance(t, l, m.ID); !got.Equal(ledger.GBP(1000)) {
		t.Errorf("balance = %s, want £10.00", got)
	}
}

// ==================== Fees ====================

func TestApplyFeeDebitsAndDefaultsNote(t *testing.T) {
	l := newTestLedger(t)
	m := createMember(t, l, "Dee", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	recordPayment(t, l, m.ID, 50000)

	f, err := l.ApplyFee(context.Background(), fee.Input{
		MemberID: m.ID,
		Amount:   ledger.GBP(48000),
	}, id.NewUserID())
	if err != nil {
		t.Fatalf("apply fee: %v", err)
	}
	if f.Year != 2025 {
		t.Errorf("fee year = %d, want current year 2025", f.Year)
	}
	if f.CategoryID != "full" {
		t.Errorf("fee category = %s, want member's category", f.CategoryID)
	}
	if f.Notes != "Fee applied - £480.00" {
		t.Errorf("default note = %q", f.Notes)
	}
	if got := balance(t, l, m.ID); !got.Equal(ledger.GBP(2000)) {
		t.Errorf("balance = %s, want £20.00", got)
	}
}

func TestApplyFeeAllowsRepeatFeesInYear(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	m := createMember(t, l, "Locker", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	first := fee.Input{MemberID: m.ID, Year: 2025, Amount: ledger.GBP(48000)}
	if _, err := l.ApplyFee(ctx, first, id.NewUserID()); err != nil {
		t.Fatalf("first fee: %v", err)
	}
	second := fee.Input{MemberID: m.ID, Year: 2025, Amount: ledger.GBP(1500), Notes: "Locker rental"}
	if _, err := l.ApplyFee(ctx, second, id.NewUserID()); err != nil {
		t.Fatalf("second fee in the same year: %v", err)
	}

	if got := balance(t, l, m.ID); !got.Equal(ledger.GBP(-49500)) {
		t.Errorf("balance = %s, want -£495.00", got)
	}
	fees, err := l.ListFees(ctx, fee.ListOpts{MemberID: m.ID, Year: 2025})
	if err != nil {
		t.Fatalf("list fees: %v", err)
	}
	if len(fees) != 2 {
		t.Errorf("fees recorded = %d, want 2", len(fees))
	}
}

func TestManualFeeAfterAnnualRun(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	m := createMember(t, l, "Correction", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	if _, err := l.ApplyAnnualFees(ctx, 2025, nil, id.NewUserID()); err != nil {
		t.Fatalf("annual run: %v", err)
	}
	in := fee.Input{MemberID: m.ID, Year: 2025, Amount: ledger.GBP(1500), Notes: "Locker rental"}
	if _, err := l.ApplyFee(ctx, in, id.NewUserID()); err != nil {
		t.Fatalf("manual fee after annual run: %v", err)
	}
	if got := balance(t, l, m.ID); !got.Equal(ledger.GBP(-49500)) {
		t.Errorf("balance = %s, want -£495.00", got)
	}
}

// ==================== Annual Fee Run ====================

func TestAnnualFeeRun(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	staffID := id.NewUserID()

	full := createMember(t, l, "Full", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	junior := createMember(t, l, "Junior", time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC))
	lapsed := createMember(t, l, "Lapsed", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	if _, err := l.UpdateMember(ctx, lapsed.ID, member.Input{Status: member.StatusInactive}); err != nil {
		t.Fatalf("deactivate member: %v", err)
	}

	result, err := l.ApplyAnnualFees(ctx, 2025, nil, staffID)
	if err != nil {
		t.Fatalf("annual fees: %v", err)
	}
	if result.Successful != 2 || result.Skipped != 0 || result.Failed != 0 {
		t.Fatalf("result = %d/%d/%d, want 2/0/0", result.Successful, result.Skipped, result.Failed)
	}
	// full £480 + junior £85
	if !result.TotalAmount.Equal(ledger.GBP(56500)) {
		t.Errorf("total = %s, want £565.00", result.TotalAmount)
	}
	if got := balance(t, l, full.ID); !got.Equal(ledger.GBP(-48000)) {
		t.Errorf("full member balance = %s, want -£480.00", got)
	}
	if got := balance(t, l, junior.ID); !got.Equal(ledger.GBP(-8500)) {
		t.Errorf("junior balance = %s, want -£85.00", got)
	}
	// Inactive members are not touched.
	if got := balance(t, l, lapsed.ID); !got.IsZero() {
		t.Errorf("inactive member balance = %s, want zero", got)
	}
}

func TestAnnualFeeRunDuplicateYearGuard(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	m := createMember(t, l, "Once", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	first, err := l.ApplyAnnualFees(ctx, 2025, nil, id.NewUserID())
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Successful != 1 {
		t.Fatalf("first run successful = %d, want 1", first.Successful)
	}

	second, err := l.ApplyAnnualFees(ctx, 2025, nil, id.NewUserID())
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Successful != 0 || second.Skipped != 1 {
		t.Fatalf("second run = %d successful, %d skipped, want 0/1", second.Successful, second.Skipped)
	}
	if got := second.Details[0].Reason; !strings.Contains(got, "already applied") {
		t.Errorf("skip reason = %q, want it to name the duplicate", got)
	}
	// No double debit.
	if got := balance(t, l, m.ID); !got.Equal(ledger.GBP(-48000)) {
		t.Errorf("balance = %s, want -£480.00", got)
	}
}

func TestAnnualFeeRunOverrides(t *testing.T) {
	l := newTestLedger(t)
	createMember(t, l, "Disc", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	overrides := map[string]ledger.Money{"full": ledger.GBP(40000)}
	result, err := l.ApplyAnnualFees(context.Background(), 2025, overrides, id.NewUserID())
	if err != nil {
		t.Fatalf("annual fees: %v", err)
	}
	if !result.TotalAmount.Equal(ledger.GBP(40000)) {
		t.Errorf("total with override = %s, want £400.00", result.TotalAmount)
	}
}

func TestPreviewAnnualFeesIsIdempotent(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	createMember(t, l, "A", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	createMember(t, l, "B", time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC))

	first, err := l.PreviewAnnualFees(ctx, 2025, nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	second, err := l.PreviewAnnualFees(ctx, 2025, nil)
	if err != nil {
		t.Fatalf("second preview: %v", err)
	}

	if first.TotalMembers != 2 || second.TotalMembers != 2 {
		t.Errorf("total members = %d then %d, want 2 both times", first.TotalMembers, second.TotalMembers)
	}
	if !first.TotalAmount.Equal(second.TotalAmount) {
		t.Errorf("totals differ: %s vs %s", first.TotalAmount, second.TotalAmount)
	}
	if len(first.ByCategory) != 2 {
		t.Errorf("categories in breakdown = %d, want 2", len(first.ByCategory))
	}

	// Preview mutated nothing: a real run still applies everything.
	result, err := l.ApplyAnnualFees(ctx, 2025, nil, id.NewUserID())
	if err != nil {
		t.Fatalf("annual fees: %v", err)
	}
	if result.Successful != 2 {
		t.Errorf("run after preview applied %d, want 2", result.Successful)
	}
}

func TestPreviewCountsAlreadyApplied(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()
	m := createMember(t, l, "Done", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	createMember(t, l, "Todo", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	if _, err := l.ApplyFee(ctx, fee.Input{MemberID: m.ID, Year: 2025, Amount: ledger.GBP(48000)}, id.NewUserID()); err != nil {
		t.Fatalf("apply fee: %v", err)
	}

	preview, err := l.PreviewAnnualFees(ctx, 2025, nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.TotalMembers != 1 || preview.AlreadyAppliedCount != 1 {
		t.Errorf("preview = %d eligible, %d already applied, want 1/1",
			preview.TotalMembers, preview.AlreadyAppliedCount)
	}
}

func TestPreviewCountsUnknownCategories(t *testing.T) {
	st := memory.New()
	l := ledger.New(st, ledger.WithClock(testClock))
	if err := l.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() { _ = l.Stop() })
	ctx := context.Background()

	createMember(t, l, "Known", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
	odd := createMember(t, l, "Odd", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	// A category retired from the table while a member still holds it.
	rec, err := st.GetMember(ctx, odd.ID)
	if err != nil {
		t.Fatal(err)
	}
	rec.CategoryID = "founder"
	if err := st.UpdateMember(ctx, rec); err != nil {
		t.Fatal(err)
	}

	preview, err := l.PreviewAnnualFees(ctx, 2025, nil)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if preview.TotalMembers != 1 || preview.UnknownCategoryCount != 1 {
		t.Errorf("preview = %d eligible, %d unknown category, want 1/1",
			preview.TotalMembers, preview.UnknownCategoryCount)
	}

	// The run reports the same member as a skip, so the preview
	// reconciles with the run.
	result, err := l.ApplyAnnualFees(ctx, 2025, nil, id.NewUserID())
	if err != nil {
		t.Fatalf("annual fees: %v", err)
	}
	if result.Successful != 1 || result.Skipped != 1 {
		t.Errorf("run = %d successful, %d skipped, want 1/1", result.Successful, result.Skipped)
	}
}

// ==================== Bulk Payments ====================

func TestBulkPaymentsIsolateFailures(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	var inputs []payment.Input
	var members []*member.Member
	for i := 0; i < 5; i++ {
		memberID := id.NewMemberID() // item 3 stays unknown
		if i != 2 {
			m := createMember(t, l, "Bulk", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
			members = append(members, m)
			memberID = m.ID
		}
		inputs = append(inputs, payment.Input{
			MemberID: memberID,
			Amount:   ledger.GBP(1000),
			Date:     testClock(),
			Method:   payment.MethodCheque,
		})
	}

	result, err := l.RecordBulkPayments(ctx, inputs, id.NewUserID())
	if err != nil {
		t.Fatalf("bulk payments: %v", err)
	}
	if len(result.Successful) != 4 {
		t.Errorf("successful = %d, want 4", len(result.Successful))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("failed = %d, want 1", len(result.Failed))
	}
	if result.Failed[0].Index != 2 {
		t.Errorf("failed index = %d, want 2", result.Failed[0].Index)
	}
	if !ledger.IsNotFound(result.Failed[0].Err) {
		t.Errorf("failed error = %v, want not found", result.Failed[0].Err)
	}
	if !result.TotalAmount.Equal(ledger.GBP(4000)) {
		t.Errorf("total = %s, want £40.00", result.TotalAmount)
	}
	for _, m := range members {
		if got := balance(t, l, m.ID); !got.Equal(ledger.GBP(1000)) {
			t.Errorf("member %s balance = %s, want £10.00", m.ID, got)
		}
	}
}

func TestBulkPaymentsProgress(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	var inputs []payment.Input
	for i := 0; i < 4; i++ {
		m := createMember(t, l, "Prog", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))
		inputs = append(inputs, payment.Input{
			MemberID: m.ID,
			Amount:   ledger.GBP(500),
			Date:     testClock(),
			Method:   payment.MethodCard,
		})
	}

	// Buffered to hold every update so none are dropped.
	ch := make(chan ledger.Progress, len(inputs))
	if _, err := l.RecordBulkPayments(ctx, inputs, id.NewUserID(), ledger.WithProgress(ch)); err != nil {
		t.Fatalf("bulk payments: %v", err)
	}
	close(ch)

	last := ledger.Progress{}
	for p := range ch {
		if p.Percent < last.Percent {
			t.Errorf("progress went backwards: %d%% after %d%%", p.Percent, last.Percent)
		}
		last = p
	}
	if last.Percent != 100 || last.Completed != 4 {
		t.Errorf("final progress = %d%% (%d/%d), want 100%% (4/4)", last.Percent, last.Completed, last.Total)
	}
}

func TestBulkPaymentsEmptyBatch(t *testing.T) {
	l := newTestLedger(t)
	result, err := l.RecordBulkPayments(context.Background(), nil, id.NewUserID())
	if err != nil {
		t.Fatalf("empty batch: %v", err)
	}
	if len(result.Successful) != 0 || len(result.Failed) != 0 {
		t.Errorf("empty batch produced results: %+v", result)
	}
	if !result.TotalAmount.IsZero() {
		t.Errorf("empty batch total = %s, want zero", result.TotalAmount)
	}
}

func TestBulkPaymentsCanceledContextReturnsPartialResult(t *testing.T) {
	l := newTestLedger(t)
	m := createMember(t, l, "Cut", time.Date(1990, time.January, 1, 0, 0, 0, 0, time.UTC))

	inputs := make([]payment.Input, 3)
	for i := range inputs {
		inputs[i] = payment.Input{
			MemberID: m.ID,
			Amount:   ledger.GBP(1000),
			Date:     testClock(),
			Method:   payment.MethodCash,
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := l.RecordBulkPayments(ctx, inputs, id.NewUserID())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("canceled run: got %v, want context.Canceled", err)
	}
	// The item in flight when cancellation lands still completes.
	if len(result.Successful) != 1 {
		t.Errorf("successful = %d, want 1 completed item", len(result.Successful))
	}
	if got := balance(t, l, m.ID); !got.Equal(ledger.GBP(1000)) {
		t.Errorf("balance = %s, want £10.00", got)
	}
}
