package category_test

import (
	"testing"
	"time"

	"github.com/clubware/ledger/category"
	"github.com/clubware/ledger/types"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestAge(t *testing.T) {
	tests := []struct {
		name string
		dob  time.Time
		asOf time.Time
		want int
	}{
		{"birthday today", date(2000, time.June, 15), date(2024, time.June, 15), 24},
		{"day before birthday", date(2000, time.June, 15), date(2024, time.June, 14), 23},
		{"day after birthday", date(2000, time.June, 15), date(2024, time.June, 16), 24},
		{"earlier month", date(2000, time.June, 15), date(2024, time.March, 1), 23},
		{"later month", date(2000, time.June, 15), date(2024, time.November, 1), 24},
		{"newborn", date(2024, time.January, 1), date(2024, time.June, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := category.Age(tt.dob, tt.asOf); got != tt.want {
				t.Errorf("Age = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestByAge(t *testing.T) {
	table := category.Default()

	tests := []struct {
		age  int
		want string
	}{
		{0, "junior"},
		{15, "junior"},
		{16, "youth"},
		{18, "youth"},
		{19, "colts"},
		{23, "colts"},
		{24, "full"},
		{65, "full"},
		{999, "full"},
	}

	for _, tt := range tests {
		if got := table.ByAge(tt.age); got.ID != tt.want {
			t.Errorf("ByAge(%d) = %s, want %s", tt.age, got.ID, tt.want)
		}
	}
}

func TestByAgeNeverSpecial(t *testing.T) {
	table := category.Default()
	for age := 0; age <= 120; age++ {
		if c := table.ByAge(age); c.Special {
			t.Fatalf("ByAge(%d) assigned special category %s", age, c.ID)
		}
	}
}

func TestForDateOfBirth(t *testing.T) {
	table := category.Default()
	asOf := date(2024, time.June, 1)

	// An 18-year-old lands in the youth band.
	if got := table.ForDateOfBirth(date(2006, time.January, 10), asOf); got.ID != "youth" {
		t.Errorf("18yo: got %s, want youth", got.ID)
	}

	// A 24-year-old lands in the full band.
	if got := table.ForDateOfBirth(date(2000, time.January, 10), asOf); got.ID != "full" {
		t.Errorf("24yo: got %s, want full", got.ID)
	}

	// No date of birth means the default category.
	if got := table.ForDateOfBirth(time.Time{}, asOf); got.ID != "full" {
		t.Errorf("zero dob: got %s, want full", got.ID)
	}
}

func TestJoiningCost(t *testing.T) {
	table := category.Default()

	tests := []struct {
		name       string
		categoryID string
		joinDate   time.Time
		want       types.Money
	}{
		{"full january grace", "full", date(2024, time.January, 10), types.GBP(2500)},
		{"full february grace", "full", date(2024, time.February, 10), types.GBP(2500)},
		{"full march full year", "full", date(2024, time.March, 10), types.GBP(50500)},
		{"full may full year", "full", date(2024, time.May, 10), types.GBP(50500)},
		{"full july full year", "full", date(2024, time.July, 31), types.GBP(50500)},
		{"full august prorata", "full", date(2024, time.August, 1), types.GBP(20000 + 2500)},
		{"full september prorata", "full", date(2024, time.September, 10), types.GBP(18500)},
		{"full december prorata", "full", date(2024, time.December, 25), types.GBP(4000 + 2500)},
		{"colts september late fee", "colts", date(2024, time.September, 10), types.GBP(8000 + 5000)},
		{"colts may normal fee", "colts", date(2024, time.May, 10), types.GBP(24000 + 2500)},
		{"youth january", "youth", date(2024, time.January, 10), types.GBP(1000)},
		{"junior no joining fee", "junior", date(2024, time.January, 10), types.GBP(0)},
		{"unknown category", "lapsed", date(2024, time.May, 10), types.GBP(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := table.JoiningCost(tt.categoryID, tt.joinDate)
			if !got.Equal(tt.want) {
				t.Errorf("JoiningCost = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuoteJoinBreakdown(t *testing.T) {
	table := category.Default()

	q, ok := table.QuoteJoin("full", date(2024, time.September, 10))
	if !ok {
		t.Fatal("expected quote for full category")
	}
	if !q.Subscription.Equal(types.GBP(16000)) {
		t.Errorf("Subscription = %v, want %v", q.Subscription, types.GBP(16000))
	}
	if !q.JoiningFee.Equal(types.GBP(2500)) {
		t.Errorf("JoiningFee = %v, want %v", q.JoiningFee, types.GBP(2500))
	}
	if !q.Total.Equal(types.GBP(18500)) {
		t.Errorf("Total = %v, want %v", q.Total, types.GBP(18500))
	}

	if _, ok := table.QuoteJoin("nope", date(2024, time.September, 10)); ok {
		t.Error("expected no quote for unknown category")
	}
}

func TestQuoteJoinIdempotent(t *testing.T) {
	table := category.Default()
	when := date(2024, time.October, 3)

	first := table.JoiningCost("colts", when)
	for i := 0; i < 5; i++ {
		if got := table.JoiningCost("colts", when); !got.Equal(first) {
			t.Fatalf("quote changed between calls: %v != %v", got, first)
		}
	}
}

func TestTableLookup(t *testing.T) {
	table := category.Default()

	c, ok := table.Get("youth")
	if !ok || c.Name != "Youth (16-18)" {
		t.Errorf("Get(youth) = %+v, %v", c, ok)
	}

	if _, ok := table.Get("missing"); ok {
		t.Error("Get(missing) should fail")
	}

	if table.DefaultID() != "full" {
		t.Errorf("DefaultID = %s, want full", table.DefaultID())
	}

	all := table.All()
	if len(all) != 5 {
		t.Fatalf("All returned %d categories, want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].Order < all[i-1].Order {
			t.Errorf("categories out of order at %d", i)
		}
	}
}

func TestCustomTable(t *testing.T) {
	table := category.NewTable("adult",
		category.Category{ID: "adult", Name: "Adult", AgeMin: 18, AgeMax: 999, AnnualFee: types.EUR(30000)},
		category.Category{ID: "cadet", Name: "Cadet", AgeMin: 0, AgeMax: 17, AnnualFee: types.EUR(10000)},
	)

	if table.Currency() != "eur" {
		t.Errorf("Currency = %s, want eur", table.Currency())
	}
	if got := table.ByAge(10); got.ID != "cadet" {
		t.Errorf("ByAge(10) = %s, want cadet", got.ID)
	}
	if got := table.ByAge(40); got.ID != "adult" {
		t.Errorf("ByAge(40) = %s, want adult", got.ID)
	}
}

func TestNewTableBadDefaultPanics(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for missing default category")
		}
	}()

	category.NewTable("ghost",
		category.Category{ID: "adult", AgeMin: 18, AgeMax: 999},
	)
}
