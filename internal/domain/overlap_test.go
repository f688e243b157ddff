package domain_test

import (
	"testing"
	"time"

	"lobby_lobster/internal/domain"
)

func d(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestOverlaps(t *testing.T) {
	existing := [2]string{"2024-06-10", "2024-06-15"}
	cases := []struct {
		name     string
		from, to string
		want     bool
	}{
		{"disjoint before", "2024-06-01", "2024-06-05", false},
		{"disjoint after", "2024-06-20", "2024-06-22", false},
		{"touching end", "2024-06-15", "2024-06-18", false},
		{"touching start", "2024-06-07", "2024-06-10", false},
		{"starts during", "2024-06-12", "2024-06-18", true},
		{"ends during", "2024-06-08", "2024-06-11", true},
		{"encompasses", "2024-06-09", "2024-06-16", true},
		{"contained", "2024-06-11", "2024-06-13", true},
		{"identical", "2024-06-10", "2024-06-15", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			es, ee := d(existing[0]), d(existing[1])
			cs, ce := d(tc.from), d(tc.to)
			if got := domain.Overlaps(es, ee, cs, ce); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			if got := domain.Overlaps(cs, ce, es, ee); got != tc.want {
				t.Fatalf("swapped Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIntersectsWindow_InclusiveBounds(t *testing.T) {
	winStart, winEnd := d("2024-06-01"), d("2024-06-30")
	if !domain.IntersectsWindow(d("2024-05-25"), d("2024-06-01"), winStart, winEnd) {
		t.Fatal("check-out on window start should show on the calendar")
	}
	if !domain.IntersectsWindow(d("2024-06-30"), d("2024-07-02"), winStart, winEnd) {
		t.Fatal("check-in on window end should show on the calendar")
	}
	if domain.IntersectsWindow(d("2024-07-01"), d("2024-07-02"), winStart, winEnd) {
		t.Fatal("stay after the window should not show")
	}
	if !domain.IntersectsWindow(d("2024-05-01"), d("2024-07-31"), winStart, winEnd) {
		t.Fatal("stay spanning the window should show")
	}
}

func TestNights(t *testing.T) {
	if n := domain.Nights(d("2024-02-27"), d("2024-03-02")); n != 4 {
		t.Fatalf("nights across leap day = %d, want 4", n)
	}
	in := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	out := time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)
	if n := domain.Nights(in, out); n != 2 {
		t.Fatalf("nights ignores time of day: got %d", n)
	}
}
