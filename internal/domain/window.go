package domain

import (
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCancellationHours = 24.0
	DefaultJoinBuffer        = 30 * time.Minute
)

// EventStart places startTime on date's calendar day, in date's location.
func EventStart(date time.Time, startTime TimeOfDay) time.Time {
	y, mo, d := date.Date()
	h, mi, s, us := startTime.Clock()
	return time.Date(y, mo, d, h, mi, s, us*int(time.Microsecond), date.Location())
}

// CancellationHours extracts the numeric part of a free-text policy such as
// "24 Hours" or "1.5h". Anything unusable falls back to the default so that
// organiser input can never block bookings.
func CancellationHours(policy string) float64 {
	if policy == "" {
		return DefaultCancellationHours
	}

	var b strings.Builder
	for _, r := range policy {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}

	hours, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || hours <= 0 {
		return DefaultCancellationHours
	}
	return hours
}

// Window holds the deadlines that gate joining and cancelling a game.
type Window struct {
	EventStart        time.Time
	CancellationHours float64
	CancelDeadline    time.Time
	JoinCutoff        time.Time
}

func NewWindow(game *Game, joinBuffer time.Duration) Window {
	start := game.EventStart()
	hours := CancellationHours(game.Cancellation)
	deadline := start.Add(-hoursToDuration(hours))
	return Window{
		EventStart:        start,
		CancellationHours: hours,
		CancelDeadline:    deadline,
		JoinCutoff:        deadline.Add(-joinBuffer),
	}
}

func (w Window) HasStarted(now time.Time) bool {
	return w.EventStart.Before(now)
}

func (w Window) CanJoin(now time.Time) bool {
	return now.Before(w.JoinCutoff)
}

func (w Window) HoursUntilStart(now time.Time) float64 {
	return w.EventStart.Sub(now).Hours()
}

func (w Window) CanCancel(now time.Time) bool {
	return w.HoursUntilStart(now) >= w.CancellationHours
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
