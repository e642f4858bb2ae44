// Package slot aligns booking boundaries to the fixed slot grid.
//
// Times of day are kept as minutes since midnight. Start times are floored
// and end times are ceiled to the grid; a ceiling that would reach midnight
// is clamped to 23:59 so an interval never spills into the next day.
package slot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	SlotMinutes = 30

	MinutesPerDay = 24 * 60

	// LastInstant is the last representable minute of a day (23:59).
	LastInstant TimeOfDay = MinutesPerDay - 1

	Layout = "15:04"
)

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

func New(hour, minute int) (TimeOfDay, error) {
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("invalid time of day %02d:%02d", hour, minute)
	}
	return TimeOfDay(hour*60 + minute), nil
}

// MustNew is New for constants in tests and fixtures.
func MustNew(hour, minute int) TimeOfDay {
	t, err := New(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Parse reads an "HH:MM" string. "24:00" is not accepted.
func Parse(s string) (TimeOfDay, error) {
	hh, mm, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found || len(hh) == 0 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	hour, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	minute, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	return New(hour, minute)
}

func MustParse(s string) TimeOfDay {
	t, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) Hour() int   { return int(t) / 60 }
func (t TimeOfDay) Minute() int { return int(t) % 60 }

func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= LastInstant
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// FloorToSlot rounds t down to the nearest slot boundary.
func FloorToSlot(t TimeOfDay) TimeOfDay {
	return (t / SlotMinutes) * SlotMinutes
}

// CeilToSlot rounds t up to the nearest slot boundary, clamping to
// LastInstant when the boundary would be midnight of the next day.
func CeilToSlot(t TimeOfDay) TimeOfDay {
	if t == LastInstant {
		return LastInstant
	}
	ceiled := ((t + SlotMinutes - 1) / SlotMinutes) * SlotMinutes
	if ceiled >= MinutesPerDay {
		return LastInstant
	}
	return ceiled
}

// Normalize floors the start and ceils the end of an interval.
func Normalize(start, end TimeOfDay) (TimeOfDay, TimeOfDay) {
	return FloorToSlot(start), CeilToSlot(end)
}

// IsAligned reports whether t sits on the grid. LastInstant counts as
// aligned because it is the clamped end of the last slot.
func IsAligned(t TimeOfDay) bool {
	return t == LastInstant || t%SlotMinutes == 0
}

// Overlaps is the half-open interval test [aStart,aEnd) vs [bStart,bEnd).
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return aStart < bEnd && bStart < aEnd
}
