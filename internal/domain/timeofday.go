package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock offset from midnight with microsecond precision.
type TimeOfDay time.Duration

var ErrInvalidTimeOfDay = errors.New("invalid time of day")

func NewTimeOfDay(hour, minute, second, microsecond int) TimeOfDay {
	return TimeOfDay(time.Duration(hour)*time.Hour +
		time.Duration(minute)*time.Minute +
		time.Duration(second)*time.Second +
		time.Duration(microsecond)*time.Microsecond)
}

// ParseTimeOfDay accepts "HH:MM", "HH:MM:SS[.ffffff]", an optional trailing
// zone ("Z" or "+hh:mm", ignored) and full RFC 3339 timestamps, from which
// only the clock part is kept.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	s := strings.TrimSpace(value)
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(s, "Z")
	if i := strings.LastIndexAny(s, "+-"); i > 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}

	second, micro := 0, 0
	if len(parts) == 3 {
		secPart, fracPart, hasFrac := strings.Cut(parts[2], ".")
		second, err = strconv.Atoi(secPart)
		if err != nil || second < 0 || second > 59 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
		}
		if hasFrac {
			fracPart = (fracPart + "000000")[:6]
			micro, err = strconv.Atoi(fracPart)
			if err != nil {
				return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
			}
		}
	}

	return NewTimeOfDay(hour, minute, second, micro), nil
}

func (t TimeOfDay) Clock() (hour, minute, second, microsecond int) {
	d := time.Duration(t)
	hour = int(d / time.Hour)
	d -= time.Duration(hour) * time.Hour
	minute = int(d / time.Minute)
	d -= time.Duration(minute) * time.Minute
	second = int(d / time.Second)
	d -= time.Duration(second) * time.Second
	microsecond = int(d / time.Microsecond)
	return hour, minute, second, microsecond
}

func (t TimeOfDay) String() string {
	h, m, s, us := t.Clock()
	if us == 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d:%02d.%06d", h, m, s, us)
}
