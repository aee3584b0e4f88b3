package app

import (
	"errors"
	"testing"
	"time"
)

func TestRoundUpToGrid(t *testing.T) {
	base := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{"aligned unchanged", base, base},
		{"rounds forward", base.Add(3 * time.Minute), base.Add(10 * time.Minute)},
		{"one past boundary", base.Add(11 * time.Minute), base.Add(20 * time.Minute)},
		{"seconds truncated", base.Add(3*time.Minute + 42*time.Second), base.Add(10 * time.Minute)},
		{
			"day rollover",
			time.Date(2026, 3, 4, 23, 55, 0, 0, time.UTC),
			time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC),
		},
		{
			"year rollover",
			time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC),
			time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		got := RoundUpToGrid(tc.in, DefaultGridMinutes)
		if !got.Equal(tc.want) {
			t.Fatalf("%s: RoundUpToGrid(%v) = %v, want %v", tc.name, tc.in, got, tc.want)
		}
	}
}

func TestRoundUpToGrid_Idempotent(t *testing.T) {
	in := time.Date(2026, 3, 4, 10, 3, 17, 0, time.UTC)
	once := RoundUpToGrid(in, DefaultGridMinutes)
	twice := RoundUpToGrid(once, DefaultGridMinutes)
	if !once.Equal(twice) {
		t.Fatalf("not idempotent: %v then %v", once, twice)
	}
	if once.Minute()%DefaultGridMinutes != 0 {
		t.Fatalf("result not on grid: %v", once)
	}
}

func TestComputeCheckpoints(t *testing.T) {
	// Ancre 10:03, intervalle 15: initial 10:10, puis 10:10+15=10:25 arrondi
	// à 10:30.
	anchor := time.Date(2026, 3, 4, 10, 3, 0, 0, time.UTC)
	cp, err := ComputeCheckpoints(anchor, 15)
	if err != nil {
		t.Fatalf("ComputeCheckpoints: %v", err)
	}
	if want := time.Date(2026, 3, 4, 10, 10, 0, 0, time.UTC); !cp.Initial.Equal(want) {
		t.Fatalf("Initial = %v, want %v", cp.Initial, want)
	}
	if want := time.Date(2026, 3, 4, 10, 30, 0, 0, time.UTC); !cp.Subsequent.Equal(want) {
		t.Fatalf("Subsequent = %v, want %v", cp.Subsequent, want)
	}
}

func TestComputeCheckpoints_AlignedAnchor(t *testing.T) {
	anchor := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	cp, err := ComputeCheckpoints(anchor, 30)
	if err != nil {
		t.Fatalf("ComputeCheckpoints: %v", err)
	}
	if !cp.Initial.Equal(anchor) {
		t.Fatalf("aligned anchor moved: %v", cp.Initial)
	}
	if want := anchor.Add(30 * time.Minute); !cp.Subsequent.Equal(want) {
		t.Fatalf("Subsequent = %v, want %v", cp.Subsequent, want)
	}
}

func TestComputeCheckpoints_Invalid(t *testing.T) {
	anchor := time.Date(2026, 3, 4, 10, 3, 0, 0, time.UTC)
	if _, err := ComputeCheckpoints(anchor, 0); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("interval=0: got %v, want ErrInvalidInterval", err)
	}
	if _, err := ComputeCheckpoints(anchor, -5); !errors.Is(err, ErrInvalidInterval) {
		t.Fatalf("interval=-5: got %v, want ErrInvalidInterval", err)
	}
	if _, err := ComputeCheckpoints(time.Time{}, 15); !errors.Is(err, ErrInvalidAnchor) {
		t.Fatalf("zero anchor: got %v, want ErrInvalidAnchor", err)
	}
}

func TestFormatCheckpoint_FixedZone(t *testing.T) {
	// 04:40 UTC == 10:10 en Asia/Kolkata (+05:30).
	ts := time.Date(2026, 3, 4, 4, 40, 0, 0, time.UTC)
	if got, want := FormatCheckpoint(ts), "04 March 2026 10:10"; got != want {
		t.Fatalf("FormatCheckpoint = %q, want %q", got, want)
	}
}

func TestComputeCheckpoints_LabelsMatchTimes(t *testing.T) {
	anchor := time.Date(2026, 3, 4, 10, 3, 0, 0, time.UTC)
	cp, err := ComputeCheckpoints(anchor, 60)
	if err != nil {
		t.Fatalf("ComputeCheckpoints: %v", err)
	}
	if cp.InitialLabel != FormatCheckpoint(cp.Initial) {
		t.Fatalf("InitialLabel = %q, want %q", cp.InitialLabel, FormatCheckpoint(cp.Initial))
	}
	if cp.SubsequentLabel != FormatCheckpoint(cp.Subsequent) {
		t.Fatalf("SubsequentLabel = %q, want %q", cp.SubsequentLabel, FormatCheckpoint(cp.Subsequent))
	}
}
