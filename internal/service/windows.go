package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// timeWindow is one bookable interval on a calendar date.
type timeWindow struct {
	start time.Time
	end   time.Time
}

// defaultWindowSpecs are the seven two-hour windows generated when an
// administrator opens a date without naming explicit windows.
var defaultWindowSpecs = []string{
	"08:00-10:00", "10:00-12:00", "12:00-14:00", "14:00-16:00",
	"16:00-18:00", "18:00-20:00", "20:00-22:00",
}

// slotWindows is the windowing strategy shared by default and custom
// slot generation: it returns one (start, end) pair per requested
// "HH:MM-HH:MM" spec anchored on the given date, falling back to the
// seven default windows when no specs are supplied.
func slotWindows(date time.Time, specs []string) ([]timeWindow, error) {
	if len(specs) == 0 {
		specs = defaultWindowSpecs
	}
	windows := make([]timeWindow, 0, len(specs))
	for _, spec := range specs {
		start, end, err := parseWindowSpec(spec)
		if err != nil {
			return nil, err
		}
		windows = append(windows, timeWindow{
			start: anchorOnDate(date, start),
			end:   anchorOnDate(date, end),
		})
	}
	return windows, nil
}

// parseWindowSpec splits a "HH:MM-HH:MM" string into minute-of-day
// offsets for the window's start and end.
func parseWindowSpec(spec string) (startMin, endMin int, err error) {
	parts := strings.Split(spec, "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time window %q", spec)
	}
	startMin, err = parseClock(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time window %q: %w", spec, err)
	}
	endMin, err = parseClock(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time window %q: %w", spec, err)
	}
	if endMin <= startMin {
		return 0, 0, fmt.Errorf("invalid time window %q: end not after start", spec)
	}
	return startMin, endMin, nil
}

func parseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, fmt.Errorf("malformed clock %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("malformed clock %q", s)
	}
	return hour*60 + minute, nil
}

func anchorOnDate(date time.Time, minuteOfDay int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(),
		minuteOfDay/60, minuteOfDay%60, 0, 0, time.UTC)
}
