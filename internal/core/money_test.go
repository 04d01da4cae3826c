package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.0", "1", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1e3", "1000", true},
		{" 2.50 ", "2.5", true},
		{"-1", "", false},
		{"-5", "", false},
		{"0", "", false},
		{"0.00", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyArithmeticIsExact(t *testing.T) {
	var sum Money
	for i := 0; i < 10; i++ {
		sum = sum.Add(MoneyFromFloat(0.1))
	}
	if !sum.Equal(MoneyFromFloat(1)) {
		t.Fatalf("expected exactly 1, got %s", sum)
	}
	if got := MoneyFromFloat(100).Sub(MoneyFromFloat(150)); !got.IsNegative() || got.String() != "-50" {
		t.Fatalf("unexpected difference %s", got)
	}
}

func TestMoneyUSD(t *testing.T) {
	cases := []struct {
		in  float64
		out string
	}{
		{0, "$0.00"},
		{5, "$5.00"},
		{12.3, "$12.30"},
		{999.999, "$1,000.00"},
		{1234.5, "$1,234.50"},
		{1234567.89, "$1,234,567.89"},
		{-3, "-$3.00"},
		{-1000, "-$1,000.00"},
	}
	for _, tc := range cases {
		if got := MoneyFromFloat(tc.in).USD(); got != tc.out {
			t.Fatalf("%v expected %s, got %s", tc.in, tc.out, got)
		}
	}
}

func TestMoneyPercentOf(t *testing.T) {
	if got := MoneyFromFloat(25).PercentOf(MoneyFromFloat(200)); got != 12.5 {
		t.Fatalf("expected 12.5, got %v", got)
	}
	if got := MoneyFromFloat(25).PercentOf(Money{}); got != 0 {
		t.Fatalf("expected 0 for zero total, got %v", got)
	}
}

func TestMoneyJSONIsBareNumber(t *testing.T) {
	b, err := MoneyFromFloat(40.5).MarshalJSON()
	if err != nil || string(b) != "40.5" {
		t.Fatalf("got %s (err=%v)", b, err)
	}
	var m Money
	if err := m.UnmarshalJSON([]byte("12.75")); err != nil {
		t.Fatal(err)
	}
	if m.String() != "12.75" {
		t.Fatalf("got %s", m)
	}
}
