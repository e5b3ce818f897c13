package core

import (
	"encoding/json"
	"testing"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{"12.345", 1235, true},
		{" 2.50 ", 250, true},
		{"0", 0, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyJSON(t *testing.T) {
	b, err := json.Marshal(struct {
		Amount Money `json:"amount"`
	}{Money{Cents: 30000}})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"amount":300.00}` {
		t.Fatalf("unexpected encoding %s", b)
	}

	for in, want := range map[string]int64{`12.5`: 1250, `"7.99"`: 799, `0.015`: 2, `null`: 0} {
		var m Money
		if err := json.Unmarshal([]byte(in), &m); err != nil {
			t.Fatalf("%s: %v", in, err)
		}
		if m.Cents != want {
			t.Fatalf("%s expected %d cents, got %d", in, want, m.Cents)
		}
	}

	var m Money
	if err := json.Unmarshal([]byte(`"ten"`), &m); err == nil {
		t.Fatalf("expected error for non numeric string")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a, b := Money{Cents: 1000}, Money{Cents: 250}
	if a.Add(b).Cents != 1250 || a.Sub(b).Cents != 750 {
		t.Fatalf("unexpected add/sub")
	}
	if got := (Money{Cents: 1000}).Average(3); got.Cents != 333 {
		t.Fatalf("expected 333, got %d", got.Cents)
	}
	if got := (Money{Cents: 1001}).Average(2); got.Cents != 501 {
		t.Fatalf("expected half-up 501, got %d", got.Cents)
	}
	if got := a.Average(0); got.Cents != 0 {
		t.Fatalf("expected zero for empty average")
	}
	if s := (Money{Cents: 5}).String(); s != "0.05" {
		t.Fatalf("unexpected string %q", s)
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		part, whole int64
		want        int
	}{
		{30000, 25000, 120},
		{1, 3, 33},
		{2, 3, 67},
		{0, 100, 0},
		{100, 0, 0},
		{100, -5, 0},
	}
	for _, tc := range cases {
		if got := Percent(Money{Cents: tc.part}, Money{Cents: tc.whole}); got != tc.want {
			t.Fatalf("Percent(%d, %d) = %d, want %d", tc.part, tc.whole, got, tc.want)
		}
	}
}
