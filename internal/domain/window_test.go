package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCancellationHours(t *testing.T) {
	cases := []struct {
		policy string
		want   float64
	}{
		{"24 Hours", 24},
		{"48h", 48},
		{"1.5 hours", 1.5},
		{"", DefaultCancellationHours},
		{"no refunds", DefaultCancellationHours},
		{"0 hours", DefaultCancellationHours},
		{"1.2.3", DefaultCancellationHours},
		{"12", 12},
	}

	for _, tc := range cases {
		t.Run(tc.policy, func(t *testing.T) {
			assert.Equal(t, tc.want, CancellationHours(tc.policy))
		})
	}
}

func TestEventStartKeepsLocation(t *testing.T) {
	loc := time.FixedZone("BST", 3600)
	date := time.Date(2026, 11, 2, 23, 59, 0, 0, loc)

	got := EventStart(date, NewTimeOfDay(18, 30, 15, 250))

	assert.Equal(t, time.Date(2026, 11, 2, 18, 30, 15, 250000, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestWindowDeadlines(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	game := &Game{
		Date:         time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
		StartTime:    NewTimeOfDay(12, 0, 0, 0),
		Cancellation: "24 Hours",
	}

	w := NewWindow(game, DefaultJoinBuffer)

	assert.Equal(t, now.Add(48*time.Hour), w.EventStart)
	assert.Equal(t, now.Add(24*time.Hour), w.CancelDeadline)
	assert.Equal(t, now.Add(23*time.Hour+30*time.Minute), w.JoinCutoff)
	assert.False(t, w.HasStarted(now))
	assert.True(t, w.CanJoin(now))
	assert.True(t, w.CanCancel(now))
}

func TestWindowJoinCutoffBoundary(t *testing.T) {
	start := time.Date(2026, 10, 3, 12, 0, 0, 0, time.UTC)
	game := &Game{Date: start, StartTime: NewTimeOfDay(12, 0, 0, 0), Cancellation: "24 Hours"}
	w := NewWindow(game, DefaultJoinBuffer)

	cutoff := start.Add(-24*time.Hour - 30*time.Minute)
	assert.True(t, w.CanJoin(cutoff.Add(-time.Nanosecond)))
	assert.False(t, w.CanJoin(cutoff))
	assert.False(t, w.CanJoin(start.Add(-10*time.Hour)))
}

func TestWindowCancelBoundary(t *testing.T) {
	start := time.Date(2026, 10, 3, 12, 0, 0, 0, time.UTC)
	game := &Game{Date: start, StartTime: NewTimeOfDay(12, 0, 0, 0), Cancellation: "24 Hours"}
	w := NewWindow(game, DefaultJoinBuffer)

	assert.True(t, w.CanCancel(start.Add(-24*time.Hour)))
	assert.False(t, w.CanCancel(start.Add(-24*time.Hour+time.Second)))
	assert.False(t, w.CanCancel(start.Add(-20*time.Hour)))
}

func TestWindowHasStarted(t *testing.T) {
	start := time.Date(2026, 10, 3, 12, 0, 0, 0, time.UTC)
	w := NewWindow(&Game{Date: start, StartTime: NewTimeOfDay(12, 0, 0, 0)}, DefaultJoinBuffer)

	assert.False(t, w.HasStarted(start))
	assert.True(t, w.HasStarted(start.Add(time.Second)))
}

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"18:30":                     NewTimeOfDay(18, 30, 0, 0),
		"18:30:05":                  NewTimeOfDay(18, 30, 5, 0),
		"18:30:05.12":               NewTimeOfDay(18, 30, 5, 120000),
		"18:30:05.1234567":          NewTimeOfDay(18, 30, 5, 123456),
		"18:30:05Z":                 NewTimeOfDay(18, 30, 5, 0),
		"18:30:05+01:00":            NewTimeOfDay(18, 30, 5, 0),
		"2026-10-03T07:15:00+02:00": NewTimeOfDay(7, 15, 0, 0),
	}
	for in, want := range cases {
		got, err := ParseTimeOfDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"", "7", "25:00", "12:61", "aa:bb"} {
		_, err := ParseTimeOfDay(bad)
		assert.ErrorIs(t, err, ErrInvalidTimeOfDay, bad)
	}
}

func TestTimeOfDayString(t *testing.T) {
	assert.Equal(t, "09:05:00", NewTimeOfDay(9, 5, 0, 0).String())
	assert.Equal(t, "09:05:00.000042", NewTimeOfDay(9, 5, 0, 42).String())
}
