package timewindow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, d)
}

func win(start, end int) Window {
	return Window{Start: day(start), End: day(end)}
}

func TestNew(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		w, err := New(day(0), day(3))
		require.NoError(t, err)
		assert.Equal(t, day(0), w.Start)
		assert.Equal(t, day(3), w.End)
	})
	t.Run("zero bound", func(t *testing.T) {
		_, err := New(time.Time{}, day(3))
		assert.ErrorIs(t, err, ErrZeroBound)
	})
	t.Run("end equals start", func(t *testing.T) {
		_, err := New(day(1), day(1))
		assert.ErrorIs(t, err, ErrEndNotAfterStart)
	})
	t.Run("end before start", func(t *testing.T) {
		_, err := New(day(3), day(1))
		assert.ErrorIs(t, err, ErrEndNotAfterStart)
	})
}

func TestOverlaps(t *testing.T) {
	cases := []struct {
		name string
		a, b Window
		want bool
	}{
		{"disjoint before", win(0, 2), win(3, 5), false},
		{"disjoint after", win(3, 5), win(0, 2), false},
		{"identical", win(0, 3), win(0, 3), true},
		{"partial overlap left", win(0, 3), win(2, 5), true},
		{"partial overlap right", win(2, 5), win(0, 3), true},
		{"contained", win(0, 10), win(3, 5), true},
		{"contains", win(3, 5), win(0, 10), true},
		{"boundary adjacent", win(0, 3), win(3, 6), false},
		{"boundary adjacent reversed", win(3, 6), win(0, 3), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			// Overlap is symmetric.
			assert.Equal(t, tc.a.Overlaps(tc.b), tc.b.Overlaps(tc.a))
		})
	}
}

func TestOverlapsMatchesInequality(t *testing.T) {
	// overlaps(w1,w2) == (s1 < e2 && s2 < e1) over a grid of windows.
	for s1 := 0; s1 < 5; s1++ {
		for e1 := s1 + 1; e1 <= 6; e1++ {
			for s2 := 0; s2 < 5; s2++ {
				for e2 := s2 + 1; e2 <= 6; e2++ {
					a, b := win(s1, e1), win(s2, e2)
					want := a.Start.Before(b.End) && b.Start.Before(a.End)
					assert.Equal(t, want, a.Overlaps(b), "[%d,%d) vs [%d,%d)", s1, e1, s2, e2)
				}
			}
		}
	}
}

func TestDays(t *testing.T) {
	t.Run("whole days", func(t *testing.T) {
		assert.Equal(t, 3, win(0, 3).Days())
	})
	t.Run("partial day rounds up", func(t *testing.T) {
		w := Window{Start: day(0), End: day(0).Add(25 * time.Hour)}
		assert.Equal(t, 2, w.Days())
	})
	t.Run("single hour counts as one day", func(t *testing.T) {
		w := Window{Start: day(0), End: day(0).Add(time.Hour)}
		assert.Equal(t, 1, w.Days())
	})
	t.Run("empty window", func(t *testing.T) {
		assert.Equal(t, 0, win(2, 2).Days())
	})
}

func TestClassify(t *testing.T) {
	requested := win(2, 6)
	cases := []struct {
		name     string
		existing Window
		want     OverlapKind
	}{
		{"no overlap", win(6, 8), OverlapNone},
		{"existing contains requested", win(0, 10), OverlapContains},
		{"existing inside requested", win(3, 5), OverlapInside},
		{"existing starts first", win(0, 4), OverlapStartsFirst},
		{"existing ends last", win(4, 8), OverlapEndsLast},
		{"identical windows", win(2, 6), OverlapContains},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.existing.Classify(requested))
		})
	}
}

func TestAdjacentAndMerge(t *testing.T) {
	t.Run("adjacent windows merge", func(t *testing.T) {
		merged, ok := win(0, 3).Merge(win(3, 5))
		require.True(t, ok)
		assert.Equal(t, win(0, 5), merged)
	})
	t.Run("overlapping windows merge", func(t *testing.T) {
		merged, ok := win(0, 4).Merge(win(2, 7))
		require.True(t, ok)
		assert.Equal(t, win(0, 7), merged)
	})
	t.Run("disjoint windows do not merge", func(t *testing.T) {
		_, ok := win(0, 2).Merge(win(4, 6))
		assert.False(t, ok)
	})
	t.Run("adjacency is not overlap", func(t *testing.T) {
		assert.True(t, win(0, 3).Adjacent(win(3, 5)))
		assert.False(t, win(0, 3).Overlaps(win(3, 5)))
	})
}

func TestContainsInstant(t *testing.T) {
	w := win(1, 4)
	assert.True(t, w.ContainsInstant(day(1)))
	assert.True(t, w.ContainsInstant(day(3)))
	// End is excluded.
	assert.False(t, w.ContainsInstant(day(4)))
	assert.False(t, w.ContainsInstant(day(0)))
}
