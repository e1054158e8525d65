package domain

import (
	"testing"
	"time"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestLocaleMergeKeepsUnsetFields(t *testing.T) {
	base := Locale{Country: "MX", Language: "EN", Currency: "USD", ExchangeRate: 1, Symbol: "$", Port: "Manzanillo"}

	got := base.Merge(LocalePatch{Currency: strPtr("mxn"), ExchangeRate: f64Ptr(17.1), Symbol: strPtr("MX$")})
	if got.Currency != "MXN" || got.ExchangeRate != 17.1 || got.Symbol != "MX$" {
		t.Fatalf("merged: %+v", got)
	}
	if got.Country != "MX" || got.Language != "EN" || got.Port != "Manzanillo" {
		t.Fatalf("unset fields changed: %+v", got)
	}
}

func TestLocaleMergeIgnoresEmptyAndInvalid(t *testing.T) {
	base := Locale{Country: "MX", Currency: "USD", ExchangeRate: 1}
	got := base.Merge(LocalePatch{Country: strPtr(""), ExchangeRate: f64Ptr(-2)})
	if got != base {
		t.Fatalf("empty patch values should not apply: %+v", got)
	}
}

func TestLocalePatchIsZero(t *testing.T) {
	if !(LocalePatch{}).IsZero() {
		t.Fatal("empty patch should be zero")
	}
	if (LocalePatch{Country: strPtr("BR")}).IsZero() {
		t.Fatal("non-empty patch should not be zero")
	}
}

func TestBatchNormalizeClampsJoined(t *testing.T) {
	tests := []struct {
		name                  string
		seats, joined         int
		wantSeats, wantJoined int
	}{
		{"over capacity", 36, 40, 36, 36},
		{"negative joined", 36, -1, 36, 0},
		{"negative seats", -3, 5, 0, 0},
		{"in range", 36, 28, 36, 28},
	}
	for _, tt := range tests {
		b := Batch{Seats: tt.seats, Joined: tt.joined}
		b.Normalize()
		if b.Seats != tt.wantSeats || b.Joined != tt.wantJoined {
			t.Fatalf("%s: got %d/%d", tt.name, b.Joined, b.Seats)
		}
	}
}

func TestBatchDerived(t *testing.T) {
	b := Batch{Seats: 36, Joined: 28}
	if b.SeatsLeft() != 8 {
		t.Fatalf("seats left: %d", b.SeatsLeft())
	}
	if b.Progress() != 78 { // round(28/36*100)
		t.Fatalf("progress: %d", b.Progress())
	}
	if (Batch{}).Progress() != 0 {
		t.Fatal("empty batch progress should be 0")
	}
}

func TestBatchProgressNormalize(t *testing.T) {
	p := BatchProgress{Target: 78, Joined: 90}
	p.Normalize()
	if p.Joined != 78 || p.Need != 0 || p.Progress != 100 || p.EligibleForGroup {
		t.Fatalf("clamped: %+v", p)
	}

	p = BatchProgress{Target: 36, Joined: 12}
	p.Normalize()
	if p.Need != 24 || p.Progress != 33 || !p.EligibleForGroup {
		t.Fatalf("derived: %+v", p)
	}
	if p.Need+p.Joined != p.Target {
		t.Fatalf("need+joined != target: %+v", p)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"solo", ModeSolo},
		{" SOLO ", ModeSolo},
		{"group", ModeGroup},
		{"", ModeGroup},
		{"garbage", ModeGroup},
	}
	for _, tt := range tests {
		if got := ParseMode(tt.in); got != tt.want {
			t.Fatalf("ParseMode(%q) = %q", tt.in, got)
		}
	}
}

func TestCountdownTotal(t *testing.T) {
	c := Countdown{Days: 1, Hours: 2, Minutes: 3, Seconds: 4}
	if c.Total() != 86400+7200+180+4 {
		t.Fatalf("total: %d", c.Total())
	}
	if (Countdown{}).Total() != 0 {
		t.Fatal("zero countdown total should be 0")
	}
}

func TestBatchMilestoneOrderingHolds(t *testing.T) {
	now := time.Date(2026, time.August, 31, 0, 0, 0, 0, time.UTC)
	b := Batch{
		OpenAt:   now,
		LockAt:   now.Add(5 * 24 * time.Hour),
		ShipAt:   now.Add(8 * 24 * time.Hour),
		ArriveAt: now.Add(26 * 24 * time.Hour),
	}
	if !b.LockAt.After(b.OpenAt) || !b.ShipAt.After(b.LockAt) || !b.ArriveAt.After(b.ShipAt) {
		t.Fatalf("milestones out of order: %+v", b)
	}
}
