// Package store defines the unified storage interface for the club ledger
// and the contract its drivers must honor.
package store

import (
	"context"

	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/payment"
	"github.com/clubware/ledger/types"
)

// Store is the unified storage interface for all club ledger entities.
// Instead of embedding per-entity sub-interfaces, all methods are declared
// explicitly to avoid naming conflicts.
//
// The compound methods (CreatePayment, UpdatePayment, DeletePayment,
// CreateFee) mutate a financial record and the owning member's account
// balance in a single atomic transaction: either both changes commit or
// neither does. Balance changes are expressed as relative deltas so that
// two concurrent transactions against the same member never lose an
// update.
type Store interface {
	// Member methods
	CreateMember(ctx context.Context, m *member.Member) error
	GetMember(ctx context.Context, memberID id.MemberID) (*member.Member, error)
	ListMembers(ctx context.Context, opts member.ListOpts) ([]*member.Member, error)
	UpdateMember(ctx context.Context, m *member.Member) error
	DeleteMember(ctx context.Context, memberID id.MemberID) error

	// Payment methods. CreatePayment credits the member by p.Amount;
	// UpdatePayment applies the given balance delta alongside the record
	// change; DeletePayment debits the member by the stored amount.
	CreatePayment(ctx context.Context, p *payment.Payment) error
	GetPayment(ctx context.Context, paymentID id.PaymentID) (*payment.Payment, error)
	ListPayments(ctx context.Context, opts payment.ListOpts) ([]*payment.Payment, error)
	UpdatePayment(ctx context.Context, p *payment.Payment, balanceDelta types.Money) error
	DeletePayment(ctx context.Context, paymentID id.PaymentID) error

	// Receipt methods. LatestReceiptNumber returns the highest sequential
	// receipt number issued in the given year, or ErrNoReceipts when the
	// year has none. Timestamp fallback receipts are never counted.
	LatestReceiptNumber(ctx context.Context, year int) (int, error)

	// Fee methods. CreateFee debits the member by f.Amount atomically
	// with inserting the fee record; a second annual-kind fee for the
	// same member and year fails with ErrAlreadyExists, while manual
	// fees are unrestricted. FeeYearMembers reports which members
	// already have any fee for the year, keyed by member ID string.
	CreateFee(ctx context.Context, f *fee.Fee) error
	GetFee(ctx context.Context, feeID id.FeeID) (*fee.Fee, error)
	ListFees(ctx context.Context, opts fee.ListOpts) ([]*fee.Fee, error)
	FeeYearMembers(ctx context.Context, year int) (map[string]bool, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
