// Package category defines the membership category table: the age bands,
// annual fees, and joining fees a club charges, plus age-based assignment.
package category

import (
	"time"

	"github.com/clubware/ledger/types"
)

// Category is a single membership band. AgeMin and AgeMax are inclusive
// bounds on the member's age in whole years. Special categories (social,
// honorary) are never assigned by age and must be chosen explicitly.
type Category struct {
	ID                string       `json:"id"`
	Name              string       `json:"name"`
	AgeMin            int          `json:"age_min"`
	AgeMax            int          `json:"age_max"`
	AnnualFee         types.Money  `json:"annual_fee"`
	JoiningFee        types.Money  `json:"joining_fee"`
	LateJoiningFee    types.Money  `json:"late_joining_fee"`
	LateJoiningMonths []time.Month `json:"late_joining_months,omitempty"`
	Special           bool         `json:"special"`
	Order             int          `json:"order"`
}

// chargesLateFee reports whether the category charges its late joining fee
// in the given calendar month.
func (c Category) chargesLateFee(m time.Month) bool {
	for _, lm := range c.LateJoiningMonths {
		if lm == m {
			return true
		}
	}
	return false
}

// JoiningFeeFor returns the joining fee charged for a join in the given
// month, taking any late joining fee into account.
func (c Category) JoiningFeeFor(m time.Month) types.Money {
	if !c.LateJoiningFee.IsZero() && c.chargesLateFee(m) {
		return c.LateJoiningFee
	}
	return c.JoiningFee
}

// Table is an ordered, immutable set of categories with a designated
// default for ages no band covers.
type Table struct {
	categories []Category
	index      map[string]Category
	defaultID  string
	currency   string
}

// NewTable builds a Table from the given categories. The category with ID
// defaultID is used when no age band matches; it must be present.
func NewTable(defaultID string, categories ...Category) *Table {
	index := make(map[string]Category, len(categories))
	currency := "gbp"
	for _, c := range categories {
		index[c.ID] = c
		if c.AnnualFee.Currency != "" {
			currency = c.AnnualFee.Currency
		}
	}
	if _, ok := index[defaultID]; !ok {
		panic("category: default category " + defaultID + " not in table")
	}

	return &Table{
		categories: categories,
		index:      index,
		defaultID:  defaultID,
		currency:   currency,
	}
}

// Default returns the canonical club category table: junior, youth, colts,
// full and social bands priced in pounds.
func Default() *Table {
	return NewTable("full",
		Category{
			ID:        "junior",
			Name:      "Junior",
			AgeMin:    0,
			AgeMax:    15,
			AnnualFee: types.GBP(8500),
			Order:     1,
		},
		Category{
			ID:         "youth",
			Name:       "Youth (16-18)",
			AgeMin:     16,
			AgeMax:     18,
			AnnualFee:  types.GBP(14000),
			JoiningFee: types.GBP(1000),
			Order:      2,
		},
		Category{
			ID:             "colts",
			Name:           "Colts (19-23)",
			AgeMin:         19,
			AgeMax:         23,
			AnnualFee:      types.GBP(24000),
			JoiningFee:     types.GBP(2500),
			LateJoiningFee: types.GBP(5000),
			LateJoiningMonths: []time.Month{
				time.August, time.September, time.October,
				time.November, time.December,
			},
			Order: 3,
		},
		Category{
			ID:         "full",
			Name:       "Full",
			AgeMin:     24,
			AgeMax:     999,
			AnnualFee:  types.GBP(48000),
			JoiningFee: types.GBP(2500),
			Order:      4,
		},
		Category{
			ID:        "social",
			Name:      "Social",
			AnnualFee: types.GBP(5500),
			Special:   true,
			Order:     5,
		},
	)
}

// Currency returns the currency every fee in the table is priced in.
func (t *Table) Currency() string { return t.currency }

// DefaultID returns the ID of the fallback category.
func (t *Table) DefaultID() string { return t.defaultID }

// All returns the categories in display order.
func (t *Table) All() []Category {
	out := make([]Category, len(t.categories))
	copy(out, t.categories)
	return out
}

// Get looks up a category by ID.
func (t *Table) Get(categoryID string) (Category, bool) {
	c, ok := t.index[categoryID]
	return c, ok
}

// Age returns the age in whole years at asOf for someone born on dob.
// The birthday itself counts: a person born 2000-06-15 is 24 on 2024-06-15.
func Age(dob, asOf time.Time) int {
	years := asOf.Year() - dob.Year()
	if asOf.Month() < dob.Month() ||
		(asOf.Month() == dob.Month() && asOf.Day() < dob.Day()) {
		years--
	}
	return years
}

// ByAge returns the first non-special category whose age band contains
// age, or the default category when no band matches.
func (t *Table) ByAge(age int) Category {
	for _, c := range t.categories {
		if c.Special {
			continue
		}
		if age >= c.AgeMin && age <= c.AgeMax {
			return c
		}
	}
	return t.index[t.defaultID]
}

// ForDateOfBirth assigns a category from a date of birth as of the given
// date. A zero date of birth assigns the default category.
func (t *Table) ForDateOfBirth(dob, asOf time.Time) Category {
	if dob.IsZero() {
		return t.index[t.defaultID]
	}
	return t.ByAge(Age(dob, asOf))
}
