package category

import (
	"time"

	"github.com/clubware/ledger/types"
)

// The membership year renews at the start of February. A join in January
// or February is inside the new-season grace window and pays no
// subscription; a join from August onwards pays a pro-rata subscription
// for the months left until the February cutoff; anything in between
// (March through July) pays a full year.

// Quote breaks down the cost of joining a category in a given month.
type Quote struct {
	Category     Category    `json:"category"`
	JoinMonth    time.Month  `json:"join_month"`
	Subscription types.Money `json:"subscription"`
	JoiningFee   types.Money `json:"joining_fee"`
	Total        types.Money `json:"total"`
}

// QuoteJoin calculates the joining cost for a category at the given date.
// The subscription component is rounded half-up to the nearest whole
// currency unit; the flat branches are never rounded.
func (t *Table) QuoteJoin(categoryID string, joinDate time.Time) (Quote, bool) {
	c, ok := t.Get(categoryID)
	if !ok {
		return Quote{}, false
	}

	month := joinDate.Month()
	zero := types.Zero(t.currency)

	q := Quote{Category: c, JoinMonth: month}

	switch {
	case month <= time.February:
		q.Subscription = zero
		q.JoiningFee = c.JoiningFee
	case month >= time.August:
		monthsRemaining := int64(13 - int(month))
		q.Subscription = roundedFraction(c.AnnualFee, monthsRemaining, 12)
		q.JoiningFee = c.JoiningFeeFor(month)
	default:
		q.Subscription = c.AnnualFee
		q.JoiningFee = c.JoiningFee
	}

	q.Total = q.Subscription.Add(q.JoiningFee)
	return q, true
}

// JoiningCost returns the total cost of joining a category at the given
// date. An unknown category costs zero.
func (t *Table) JoiningCost(categoryID string, joinDate time.Time) types.Money {
	q, ok := t.QuoteJoin(categoryID, joinDate)
	if !ok {
		return types.Zero(t.currency)
	}
	return q.Total
}

// roundedFraction computes round-half-up of amount × num ÷ den to the
// nearest whole currency unit, using only integer arithmetic.
func roundedFraction(amount types.Money, num, den int64) types.Money {
	return amount.Multiply(num).Divide(den).RoundToUnit()
}
