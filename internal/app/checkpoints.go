package app

import (
	"time"
)

const (
	// DefaultGridMinutes is the notification grid size: checkpoints are
	// aligned on 10-minute boundaries.
	DefaultGridMinutes = 10

	// checkpointZone is the fixed display zone for checkpoint labels. Not
	// user-selectable.
	checkpointZone = "Asia/Kolkata"

	// checkpointLayout renders "04 March 2024 10:30".
	checkpointLayout = "02 January 2006 15:04"
)

var checkpointLocation = mustLoadLocation(checkpointZone)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic("load location " + name + ": " + err.Error())
	}
	return loc
}

// RoundUpToGrid rounds t forward to the next gridMinutes boundary. An
// already-aligned timestamp is returned unchanged, which makes the function
// idempotent. When rounding occurs, seconds and sub-second components are
// truncated to zero. The arithmetic is calendar-correct: minute overflow
// rolls into hours, days, months and years.
func RoundUpToGrid(t time.Time, gridMinutes int) time.Time {
	if gridMinutes <= 0 {
		gridMinutes = DefaultGridMinutes
	}

	remainder := t.Minute() % gridMinutes
	if remainder == 0 {
		return t
	}

	diff := gridMinutes - remainder
	return t.Add(time.Duration(diff) * time.Minute).Truncate(time.Minute)
}

// Checkpoints carries the two computed notification checkpoints plus their
// display labels in the fixed target zone.
type Checkpoints struct {
	Initial    time.Time
	Subsequent time.Time

	InitialLabel    string
	SubsequentLabel string
}

// ComputeCheckpoints plans the first and subsequent notification checks for
// a subscriber anchored at anchor:
//
//	initial    = roundUpToGrid(anchor)
//	subsequent = roundUpToGrid(initial + interval)
//
// Callers must reject bad input before touching any store; this function is
// the authority on what "bad" means (ErrInvalidInterval, ErrInvalidAnchor).
func ComputeCheckpoints(anchor time.Time, intervalMinutes int) (Checkpoints, error) {
	if intervalMinutes <= 0 {
		return Checkpoints{}, ErrInvalidInterval
	}
	if anchor.IsZero() {
		return Checkpoints{}, ErrInvalidAnchor
	}

	initial := RoundUpToGrid(anchor, DefaultGridMinutes)
	subsequent := RoundUpToGrid(initial.Add(time.Duration(intervalMinutes)*time.Minute), DefaultGridMinutes)

	return Checkpoints{
		Initial:         initial,
		Subsequent:      subsequent,
		InitialLabel:    FormatCheckpoint(initial),
		SubsequentLabel: FormatCheckpoint(subsequent),
	}, nil
}

// FormatCheckpoint renders a checkpoint in the fixed display zone. The
// layout is deterministic and locale-independent.
func FormatCheckpoint(t time.Time) string {
	return t.In(checkpointLocation).Format(checkpointLayout)
}
