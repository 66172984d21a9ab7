package timewindow

import (
	"errors"
	"time"
)

var (
	ErrZeroBound        = errors.New("timewindow: start and end must be set")
	ErrEndNotAfterStart = errors.New("timewindow: end must be after start")
)

// Window represents a half-open interval [Start, End) of UTC instants.
// Back-to-back windows touching at a boundary do not overlap.
type Window struct {
	Start time.Time
	End   time.Time
}

func New(start, end time.Time) (Window, error) {
	w := Window{Start: start.UTC(), End: end.UTC()}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return ErrZeroBound
	}
	if !w.End.After(w.Start) {
		return ErrEndNotAfterStart
	}
	return nil
}

// Days returns the trip length in whole days, rounding partial days up.
// Always >= 1 for a valid window.
func (w Window) Days() int {
	d := w.End.Sub(w.Start)
	if d <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	return int((d + day - 1) / day)
}

func (w Window) Overlaps(other Window) bool {
	return w.Start.Before(other.End) && other.Start.Before(w.End)
}

func (w Window) Contains(other Window) bool {
	return !w.Start.After(other.Start) && !w.End.Before(other.End)
}

func (w Window) ContainsInstant(t time.Time) bool {
	t = t.UTC()
	return !t.Before(w.Start) && t.Before(w.End)
}

// Adjacent reports whether the windows touch at exactly one boundary.
func (w Window) Adjacent(other Window) bool {
	return w.End.Equal(other.Start) || w.Start.Equal(other.End)
}

// OverlapKind classifies how an existing window relates to a requested one.
type OverlapKind string

const (
	OverlapNone        OverlapKind = ""
	OverlapContains    OverlapKind = "EXISTING_FULLY_CONTAINS"
	OverlapInside      OverlapKind = "EXISTING_FULLY_INSIDE"
	OverlapStartsFirst OverlapKind = "EXISTING_STARTS_FIRST"
	OverlapEndsLast    OverlapKind = "EXISTING_ENDS_LAST"
)

// Classify describes the receiver (an existing window) relative to the
// requested window. The single overlap inequality already subsumes every
// shape; the classification exists for diagnostic reporting only.
func (w Window) Classify(requested Window) OverlapKind {
	if !w.Overlaps(requested) {
		return OverlapNone
	}
	switch {
	case w.Contains(requested):
		return OverlapContains
	case requested.Contains(w):
		return OverlapInside
	case w.Start.Before(requested.Start):
		return OverlapStartsFirst
	default:
		return OverlapEndsLast
	}
}

// Merge combines overlapping or adjacent windows into their union.
func (w Window) Merge(other Window) (Window, bool) {
	if !(w.Overlaps(other) || w.Adjacent(other)) {
		return Window{}, false
	}
	start := w.Start
	if other.Start.Before(start) {
		start = other.Start
	}
	end := w.End
	if other.End.After(end) {
		end = other.End
	}
	return Window{Start: start, End: end}, true
}
