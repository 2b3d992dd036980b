package types

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"GBP", GBP(48000), 48000, "gbp", "£480.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"AUD", AUD(7550), 7550, "aud", "A$75.50"},
		{"Zero GBP", Zero("GBP"), 0, "gbp", "£0.00"},
		{"Zero EUR", Zero("EUR"), 0, "eur", "€0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return GBP(100).Add(GBP(200)) }, GBP(300)},
		{"Subtract", func() Money { return GBP(500).Subtract(GBP(200)) }, GBP(300)},
		{"Multiply", func() Money { return GBP(100).Multiply(3) }, GBP(300)},
		{"Divide", func() Money { return GBP(900).Divide(3) }, GBP(300)},
		{"Negate", func() Money { return GBP(100).Negate() }, GBP(-100)},
		{"Abs positive", func() Money { return GBP(100).Abs() }, GBP(100)},
		{"Abs negative", func() Money { return GBP(-100).Abs() }, GBP(100)},
		{"Complex", func() Money {
			return GBP(1000).Add(GBP(500)).Multiply(2).Subtract(GBP(1000))
		}, GBP(2000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyRoundToUnit(t *testing.T) {
	tests := []struct {
		name     string
		in       Money
		expected Money
	}{
		{"Already whole", GBP(48000), GBP(48000)},
		{"Round down", GBP(16049), GBP(16000)},
		{"Half rounds up", GBP(16050), GBP(16100)},
		{"Round up", GBP(16051), GBP(16100)},
		{"Pro-rata four twelfths", GBP(48000).Multiply(4).Divide(12), GBP(16000)},
		{"Negative rounds by magnitude", GBP(-16050), GBP(-16100)},
		{"Zero", GBP(0), GBP(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.in.RoundToUnit()
			if !result.Equal(tt.expected) {
				t.Errorf("Got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for currency mismatch")
		}
	}()

	// This should panic
	_ = GBP(100).Add(EUR(100))
}

func TestMoneyDivisionByZero(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for division by zero")
		}
	}()

	// This should panic
	_ = GBP(100).Divide(0)
}

func TestMoneyComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Money
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", GBP(100), GBP(100), false, false, true},
		{"Less", GBP(50), GBP(100), true, false, false},
		{"Greater", GBP(200), GBP(100), false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestMoneyMinMax(t *testing.T) {
	if got := Min(GBP(100), GBP(200)); !got.Equal(GBP(100)) {
		t.Errorf("Min: got %v, want %v", got, GBP(100))
	}
	if got := Max(GBP(100), GBP(200)); !got.Equal(GBP(200)) {
		t.Errorf("Max: got %v, want %v", got, GBP(200))
	}
}

func TestMoneySignChecks(t *testing.T) {
	if !GBP(0).IsZero() || GBP(1).IsZero() {
		t.Error("IsZero wrong")
	}
	if !GBP(1).IsPositive() || GBP(-1).IsPositive() {
		t.Error("IsPositive wrong")
	}
	if !GBP(-1).IsNegative() || GBP(1).IsNegative() {
		t.Error("IsNegative wrong")
	}
}

func TestMoneyFormatMajor(t *testing.T) {
	tests := []struct {
		money    Money
		expected string
	}{
		{GBP(48000), "480.00"},
		{GBP(8500), "85.00"},
		{GBP(16050), "160.50"},
		{GBP(-2500), "-25.00"},
		{GBP(5), "0.05"},
	}

	for _, tt := range tests {
		if got := tt.money.FormatMajor(); got != tt.expected {
			t.Errorf("FormatMajor(%d): got %s, want %s", tt.money.Amount, got, tt.expected)
		}
	}
}

func TestMoneySum(t *testing.T) {
	got := Sum(GBP(100), GBP(200), GBP(300))
	if !got.Equal(GBP(600)) {
		t.Errorf("Sum: got %v, want %v", got, GBP(600))
	}

	empty := Sum()
	if !empty.IsZero() {
		t.Errorf("Sum of nothing should be zero, got %v", empty)
	}
}

func TestMoneyJSON(t *testing.T) {
	data, err := json.Marshal(GBP(48000))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"amount":48000`) {
		t.Errorf("JSON missing amount: %s", data)
	}
	if !strings.Contains(string(data), `"display":"£480.00"`) {
		t.Errorf("JSON missing display: %s", data)
	}
}

func BenchmarkMoneyAdd(b *testing.B) {
	a, c := GBP(100), GBP(200)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = a.Add(c)
	}
}
