package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/clubware/ledger/category"
	"github.com/clubware/ledger/fee"
	"github.com/clubware/ledger/id"
	"github.com/clubware/ledger/member"
	"github.com/clubware/ledger/types"
)

// ==================== Single Fees ====================

// ApplyFee debits a member's account by the fee amount and records the
// fee, both in one transaction. The fee year defaults to the current
// year and the category to the member's own; a default note naming the
// amount is written when none is supplied.
//
// Manual fees carry no per-year limit: a member may be charged any
// number of one-off fees in a year, before or after the annual run.
// Any fee counts toward FeesApplied, so the annual run treats the
// member as already charged for that year.
func (l *Ledger) ApplyFee(ctx context.Context, in fee.Input, appliedBy id.UserID) (*fee.Fee, error) {
	if in.MemberID.IsNil() {
		return nil, ValidationError{Field: "member_id", Message: "must not be empty"}
	}
	if !in.Amount.IsPositive() {
		return nil, ValidationError{Field: "amount", Message: "must be positive"}
	}

	m, err := l.store.GetMember(ctx, in.MemberID)
	if err != nil {
		return nil, err
	}

	year := in.Year
	if year == 0 {
		year = l.clock().Year()
	}
	categoryID := in.CategoryID
	if categoryID == "" {
		categoryID = m.CategoryID
	}
	categoryName := categoryID
	if c, ok := l.categories.Get(categoryID); ok {
		categoryName = c.Name
	}
	notes := in.Notes
	if notes == "" {
		notes = fmt.Sprintf("Fee applied - %s", in.Amount)
	}

	f := &fee.Fee{
		Entity:       types.NewEntity(),
		ID:           id.NewFeeID(),
		MemberID:     m.ID,
		MemberName:   m.Name,
		Year:         year,
		Kind:         fee.KindManual,
		CategoryID:   categoryID,
		CategoryName: categoryName,
		Amount:       in.Amount,
		AppliedBy:    appliedBy,
		Notes:        notes,
	}

	if err := l.store.CreateFee(ctx, f); err != nil {
		return nil, err
	}

	l.logger.Info("fee applied",
		"fee_id", f.ID,
		"member_id", f.MemberID,
		"year", f.Year,
		"amount", f.Amount,
	)
	l.plugins.EmitFeeApplied(ctx, f)
	return f, nil
}

// GetFee retrieves a fee by ID.
func (l *Ledger) GetFee(ctx context.Context, feeID id.FeeID) (*fee.Fee, error) {
	return l.store.GetFee(ctx, feeID)
}

// ListFees lists fees matching the options, newest year first.
func (l *Ledger) ListFees(ctx context.Context, opts fee.ListOpts) ([]*fee.Fee, error) {
	return l.store.ListFees(ctx, opts)
}

// FeesApplied returns the set of member IDs that already have a fee
// recorded for the year, keyed by the member ID string.
func (l *Ledger) FeesApplied(ctx context.Context, year int) (map[string]bool, error) {
	return l.store.FeeYearMembers(ctx, year)
}

// ==================== Annual Fee Run ====================

// FeePreview summarizes what an annual fee run for a year would do,
// without doing it. Members the run would not charge are counted
// separately: those with a fee already and those whose category is not
// in the table.
type FeePreview struct {
	Year                 int                   `json:"year"`
	TotalMembers         int                   `json:"total_members"`
	TotalAmount          types.Money           `json:"total_amount"`
	ByCategory           map[string]FeeSummary `json:"by_category"`
	AlreadyAppliedCount  int                   `json:"already_applied_count"`
	UnknownCategoryCount int                   `json:"unknown_category_count"`
}

// FeeSummary is the per-category slice of a FeePreview.
type FeeSummary struct {
	CategoryName string      `json:"category_name"`
	Members      int         `json:"members"`
	Amount       types.Money `json:"amount"`
}

// FeeStatus is the outcome for one member in an annual fee run.
type FeeStatus string

const (
	FeeStatusSuccess FeeStatus = "success"
	FeeStatusSkipped FeeStatus = "skipped"
	FeeStatusFailed  FeeStatus = "failed"
)

// FeeDetail records what happened to one member during an annual run.
type FeeDetail struct {
	MemberID   id.MemberID `json:"member_id"`
	MemberName string      `json:"member_name"`
	Status     FeeStatus   `json:"status"`
	Reason     string      `json:"reason,omitempty"`
}

// AnnualFeeResult is the outcome of an annual fee run. Details holds one
// entry per member considered, in processing order.
type AnnualFeeResult struct {
	Year        int         `json:"year"`
	Successful  int         `json:"successful"`
	Skipped     int         `json:"skipped"`
	Failed      int         `json:"failed"`
	TotalAmount types.Money `json:"total_amount"`
	Details     []FeeDetail `json:"details"`
}

// PreviewAnnualFees projects an annual fee run for the year: every
// active member without a fee for that year, grouped by category with
// per-category and overall totals. Overrides replace the annual fee for
// the named category IDs. Members the run would skip are tallied in
// AlreadyAppliedCount and UnknownCategoryCount so the preview reconciles
// with the run's skip counts. Preview never mutates state, so it can be
// called repeatedly before committing to ApplyAnnualFees.
func (l *Ledger) PreviewAnnualFees(ctx context.Context, year int, overrides map[string]types.Money) (*FeePreview, error) {
	if year == 0 {
		year = l.clock().Year()
	}

	applied, err := l.store.FeeYearMembers(ctx, year)
	if err != nil {
		return nil, err
	}
	members, err := l.store.ListMembers(ctx, member.ListOpts{Status: member.StatusActive})
	if err != nil {
		return nil, err
	}

	preview := &FeePreview{
		Year:        year,
		TotalAmount: types.Zero(l.categories.Currency()),
		ByCategory:  make(map[string]FeeSummary),
	}
	for _, m := range members {
		if applied[m.ID.String()] {
			preview.AlreadyAppliedCount++
			continue
		}
		c, ok := l.categories.Get(m.CategoryID)
		if !ok {
			preview.UnknownCategoryCount++
			continue
		}
		amount := l.feeAmount(c, overrides)
		summary := preview.ByCategory[c.ID]
		summary.CategoryName = c.Name
		summary.Members++
		if summary.Amount.IsZero() {
			summary.Amount = amount
		} else {
			summary.Amount = summary.Amount.Add(amount)
		}
		preview.ByCategory[c.ID] = summary
		preview.TotalMembers++
		preview.TotalAmount = preview.TotalAmount.Add(amount)
	}
	return preview, nil
}

// ApplyAnnualFees debits every eligible member (active, no fee yet for
// the year) by their category's annual fee, or the override for that
// category if one is given. Each member is a separate transaction: one
// failure is recorded in the result and the run continues. Members whose
// fee is already applied, or whose category is unknown, are skipped with
// a reason.
func (l *Ledger) ApplyAnnualFees(ctx context.Context, year int, overrides map[string]types.Money, appliedBy id.UserID, opts ...BulkOption) (*AnnualFeeResult, error) {
	if year == 0 {
		year = l.clock().Year()
	}
	var options bulkOptions
	for _, opt := range opts {
		opt(&options)
	}
	started := time.Now()

	applied, err := l.store.FeeYearMembers(ctx, year)
	if err != nil {
		return nil, err
	}
	members, err := l.store.ListMembers(ctx, member.ListOpts{Status: member.StatusActive})
	if err != nil {
		return nil, err
	}

	result := &AnnualFeeResult{
		Year:        year,
		TotalAmount: types.Zero(l.categories.Currency()),
		Details:     make([]FeeDetail, 0, len(members)),
	}
	for i, m := range members {
		detail := FeeDetail{MemberID: m.ID, MemberName: m.Name}

		c, known := l.categories.Get(m.CategoryID)
		switch {
		case applied[m.ID.String()]:
			detail.Status = FeeStatusSkipped
			detail.Reason = fmt.Sprintf("fees already applied for %d", year)
			result.Skipped++

		case !known:
			detail.Status = FeeStatusSkipped
			detail.Reason = "category not found"
			result.Skipped++

		default:
			amount := l.feeAmount(c, overrides)
			f := &fee.Fee{
				Entity:       types.NewEntity(),
				ID:           id.NewFeeID(),
				MemberID:     m.ID,
				MemberName:   m.Name,
				Year:         year,
				Kind:         fee.KindAnnual,
				CategoryID:   c.ID,
				CategoryName: c.Name,
				Amount:       amount,
				AppliedBy:    appliedBy,
				Notes:        fmt.Sprintf("Annual fee %d - %s", year, c.Name),
			}
			if err := l.store.CreateFee(ctx, f); errors.Is(err, ErrAlreadyExists) {
				// Lost the annual-fee index race to a concurrent run.
				detail.Status = FeeStatusSkipped
				detail.Reason = fmt.Sprintf("fees already applied for %d", year)
				result.Skipped++
			} else if err != nil {
				detail.Status = FeeStatusFailed
				detail.Reason = err.Error()
				result.Failed++
				l.logger.Warn("annual fee failed",
					"member_id", m.ID,
					"year", year,
					"error", err,
				)
			} else {
				detail.Status = FeeStatusSuccess
				result.Successful++
				result.TotalAmount = result.TotalAmount.Add(amount)
				l.plugins.EmitFeeApplied(ctx, f)
			}
		}

		result.Details = append(result.Details, detail)
		l.notifyProgress(options.progress, i+1, len(members))
		l.plugins.EmitBulkProgress(ctx, i+1, len(members))
	}

	l.logger.Info("annual fee run completed",
		"year", year,
		"successful", result.Successful,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"total", result.TotalAmount,
	)
	l.plugins.EmitAnnualFeeRunCompleted(ctx, result, time.Since(started))
	return result, nil
}

// feeAmount resolves the fee charged for a category, honoring any
// per-category override.
func (l *Ledger) feeAmount(c category.Category, overrides map[string]types.Money) types.Money {
	if amount, ok := overrides[c.ID]; ok {
		return amount
	}
	return c.AnnualFee
}
