package ledger

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/clubware/ledger/category"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/plugin"
	"github.com/clubware/ledger/store"
	"github.com/clubware/ledger/types"
)

// Ledger is the club membership financial engine. It is the only
// component permitted to move a member's account balance, and it always
// does so atomically with the payment or fee record justifying the move.
type Ledger struct {
	store      store.Store
	categories *category.Table
	plugins    *plugin.Registry
	logger     *slog.Logger

	clock func() time.Time
}

// New creates a new Ledger instance.
func New(s store.Store, opts ...Option) *Ledger {
	l := &Ledger{
		store:      s,
		categories: category.Default(),
		plugins:    plugin.NewRegistry(),
		logger:     slog.Default(),
		clock:      time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Option configures a Ledger instance.
type Option func(*Ledger)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
		l.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(l *Ledger) {
		_ = l.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithCategories replaces the default membership category table.
func WithCategories(table *category.Table) Option {
	return func(l *Ledger) {
		l.categories = table
	}
}

// WithClock overrides the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(l *Ledger) {
		l.clock = clock
	}
}

// Start migrates the store and initializes plugins.
func (l *Ledger) Start(ctx context.Context) error {
	if err := l.store.Migrate(ctx); err != nil {
		return err
	}

	l.plugins.EmitInit(ctx, l)

	l.logger.Info("ledger started",
		"categories", len(l.categories.All()),
		"currency", l.categories.Currency(),
	)

	return nil
}

// Stop shuts down the Ledger.
func (l *Ledger) Stop() error {
	ctx := context.Background()
	l.plugins.EmitShutdown(ctx)

	return l.store.Close()
}

// Categories returns the membership category table in use.
func (l *Ledger) Categories() *category.Table {
	return l.categories
}

// Plugins returns the plugin registry.
func (l *Ledger) Plugins() *plugin.Registry {
	return l.plugins
}

// ──────────────────────────────────────────────────
// Member Management
// ──────────────────────────────────────────────────

// CreateMember creates a member. When no category is given, one is
// assigned from the member's age; members with no date of birth get the
// default category. The account balance always opens at zero.
func (l *Ledger) CreateMember(ctx context.Context, in member.Input) (*member.Member, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, ValidationError{Field: "name", Message: "must not be empty"}
	}

	categoryID := in.CategoryID
	if categoryID == "" {
		categoryID = l.categories.ForDateOfBirth(in.DateOfBirth, l.clock()).ID
	} else if _, ok := l.categories.Get(categoryID); !ok {
		return nil, ValidationError{Field: "category_id", Message: "unknown category " + categoryID}
	}

	status := in.Status
	if status == "" {
		status = member.StatusActive
	}

	m := &member.Member{
		Entity:         types.NewEntity(),
		ID:             id.NewMemberID(),
		Name:           strings.TrimSpace(in.Name),
		Email:          in.Email,
		Phone:          in.Phone,
		DateOfBirth:    in.DateOfBirth,
		CategoryID:     categoryID,
		Status:         status,
		AccountBalance: types.Zero(l.categories.Currency()),
		Notes:          in.Notes,
	}

	if err := l.store.CreateMember(ctx, m); err != nil {
		return nil, err
	}

	l.logger.Info("member created",
		"member_id", m.ID,
		"category", m.CategoryID,
	)
	l.plugins.EmitMemberCreated(ctx, m)
	return m, nil
}

// GetMember retrieves a member by ID.
func (l *Ledger) GetMember(ctx context.Context, memberID id.MemberID) (*member.Member, error) {
	return l.store.GetMember(ctx, memberID)
}

// ListMembers lists members matching the options.
func (l *Ledger) ListMembers(ctx context.Context, opts member.ListOpts) ([]*member.Member, error) {
	return l.store.ListMembers(ctx, opts)
}

// UpdateMember updates a member's details. The account balance is never
// touched here; only payments and fees move it.
func (l *Ledger) UpdateMember(ctx context.Context, memberID id.MemberID, in member.Input) (*member.Member, error) {
	current, err := l.store.GetMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	old := *current

	if in.Name != "" {
		current.Name = strings.TrimSpace(in.Name)
	}
	if in.Email != "" {
		current.Email = in.Email
	}
	if in.Phone != "" {
		current.Phone = in.Phone
	}
	if !in.DateOfBirth.IsZero() {
		current.DateOfBirth = in.DateOfBirth
	}
	if in.CategoryID != "" {
		if _, ok := l.categories.Get(in.CategoryID); !ok {
			return nil, ValidationError{Field: "category_id", Message: "unknown category " + in.CategoryID}
		}
		current.CategoryID = in.CategoryID
	}
	if in.Status != "" {
		current.Status = in.Status
	}
	if in.Notes != "" {
		current.Notes = in.Notes
	}
	current.Touch()

	if err := l.store.UpdateMember(ctx, current); err != nil {
		return nil, err
	}

	l.plugins.EmitMemberUpdated(ctx, &old, current)
	return current, nil
}

// AssignCategory returns the category a member would be placed in today
// given their date of birth.
func (l *Ledger) AssignCategory(dob time.Time) category.Category {
	return l.categories.ForDateOfBirth(dob, l.clock())
}

// JoiningQuote returns the cost of joining a category this month:
// joining fee only in the new-season window, pro-rata subscription plus
// joining fee late in the year, a full year otherwise.
func (l *Ledger) JoiningQuote(categoryID string, joinDate time.Time) (category.Quote, bool) {
	return l.categories.QuoteJoin(categoryID, joinDate)
}

// ──────────────────────────────────────────────────
// Payment Management
// ──────────────────────────────────────────────────

// RecordPayment validates the input, issues a receipt number, and then
// creates the payment and credits the member's balance in one atomic
// store transaction.
//
// Receipt numbering reads the current sequence before that transaction
// opens, so two exactly concurrent payments can race for a number; the
// unique receipt index turns that race into a retryable conflict rather
// than a duplicate.
func (l *Ledger) RecordPayment(ctx context.Context, in payment.Input, recordedBy id.UserID) (*payment.Payment, error) {
	if in.MemberID.IsNil() {
		return nil, ValidationError{Field: "member_id", Message: "must not be empty"}
	}
	if !in.Amount.IsPositive() {
		return nil, ValidationError{Field: "amount", Message: "must be positive"}
	}
	if in.Date.IsZero() {
		return nil, ValidationError{Field: "date", Message: "must be set"}
	}
	if !in.Method.Valid() {
		return nil, ValidationError{Field: "method", Message: "unknown payment method"}
	}

	m, err := l.store.GetMember(ctx, in.MemberID)
	if err != nil {
		return nil, err
	}

	receipt := l.nextReceiptNumber(ctx, in.Date.Year())

	p := &payment.Payment{
		Entity:        types.NewEntity(),
		ID:            id.NewPaymentID(),
		MemberID:      m.ID,
		MemberName:    m.Name,
		Amount:        in.Amount,
		Date:          in.Date,
		Method:        in.Method,
		Reference:     in.Reference,
		Notes:         in.Notes,
		ReceiptNumber: receipt,
		RecordedBy:    recordedBy,
	}

	if err := l.store.CreatePayment(ctx, p); err != nil {
		return nil, err
	}

	l.logger.Info("payment recorded",
		"payment_id", p.ID,
		"member_id", p.MemberID,
		"amount", p.Amount,
		"receipt", p.ReceiptNumber,
	)
	l.plugins.EmitPaymentRecorded(ctx, p)
	return p, nil
}

// GetPayment retrieves a payment by ID.
func (l *Ledger) GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error) {
	return l.store.GetPayment(ctx, paymentID)
}

// ListPayments lists payments matching the options, newest first.
func (l *Ledger) ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error) {
	return l.store.ListPayments(ctx, opts)
}

// UpdatePayment amends a payment. If the amount changed, the member's
// balance is adjusted by the difference in the same transaction as the
// record change. The payment cannot be moved to another member.
func (l *Ledger) UpdatePayment(ctx context.Context, paymentID id.PaymentID, in payment.Update) (*payment.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, ValidationError{Field: "amount", Message: "must be positive"}
	}
	if in.Date.IsZero() {
		return nil, ValidationError{Field: "date", Message: "must be set"}
	}
	if !in.Method.Valid() {
		return nil, ValidationError{Field: "method", Message: "unknown payment method"}
	}

	current, err := l.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	old := *current

	delta := in.Amount.Subtract(current.Amount)

	current.Amount = in.Amount
	current.Date = in.Date
	current.Method = in.Method
	current.Reference = in.Reference
	current.Notes = in.Notes
	current.Touch()

	if err := l.store.UpdatePayment(ctx, current, delta); err != nil {
		return nil, err
	}

	l.logger.Info("payment updated",
		"payment_id", current.ID,
		"member_id", current.MemberID,
		"delta", delta,
	)
	l.plugins.EmitPaymentUpdated(ctx, &old, current)
	return current, nil
}

// DeletePayment removes a payment and reverses its balance credit in
// one atomic transaction. The reversal is mandatory, not optional.
func (l *Ledger) DeletePayment(ctx context.Context, paymentID id.PaymentID) error {
	p, err := l.store.GetPayment(ctx, paymentID)
	if err != nil {
		return err
	}

	if err := l.store.DeletePayment(ctx, paymentID); err != nil {
		return err
	}

	l.logger.Info("payment deleted",
		"payment_id", p.ID,
		"member_id", p.MemberID,
		"amount", p.Amount,
	)
	l.plugins.EmitPaymentDeleted(ctx, p)
	return nil
}
