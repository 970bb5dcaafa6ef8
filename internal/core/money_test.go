package core

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0", 0, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"1.004", 100, true},
		{" 2.50 ", 250, true},
		{"-1", 0, false},
		{"+1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyFromFloat(t *testing.T) {
	cases := []struct {
		in  float64
		out int64
	}{
		{15.999, 1600},
		{3.5, 350},
		{0, 0},
		{0.005, 1}, // half-up
		{0.004, 0},
		{12.34, 1234},
		{19.99, 1999},
		{-2.505, -251},
	}
	for _, tc := range cases {
		if got := MoneyFromFloat(tc.in); got.Cents != tc.out {
			t.Fatalf("MoneyFromFloat(%v) = %d, want %d", tc.in, got.Cents, tc.out)
		}
	}
}

// Normalizing an already-normalized value must be a no-op: string -> cents ->
// string -> cents round-trips exactly.
func TestDecimalNormalizationIdempotent(t *testing.T) {
	for _, s := range []string{"0.00", "1.00", "16.00", "3.50", "1234.56"} {
		cents, err := ParseDecimalToCents(s)
		if err != nil {
			t.Fatalf("parse %q: %v", s, err)
		}
		m := Money{Cents: cents}
		if m.String() != s {
			t.Fatalf("Money{%d}.String() = %q, want %q", cents, m.String(), s)
		}
		again, err := ParseDecimalToCents(m.String())
		if err != nil || again != cents {
			t.Fatalf("round-trip %q: got %d (err=%v), want %d", s, again, err, cents)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{1600, "16.00"},
		{350, "3.50"},
		{0, "0.00"},
		{5, "0.05"},
		{-1234, "-12.34"},
	}
	for _, tc := range cases {
		if got := (Money{Cents: tc.cents}).String(); got != tc.want {
			t.Fatalf("Money{%d}.String() = %q, want %q", tc.cents, got, tc.want)
		}
	}
}
