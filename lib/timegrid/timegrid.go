// Package timegrid holds the fixed half-hour time grid the booking system
// operates on, plus the date/time conversions every other package shares.
package timegrid

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SlotMinutes is the atomic booking granularity of the target system.
const SlotMinutes = 30

var (
	ErrInvalidDateFormat = errors.New("invalid date format")
	ErrPastDate          = errors.New("date is in the past")
	ErrInvalidTime       = errors.New("invalid HH:MM time")
)

// Grid is the ordered list of valid slot start times ("00:00" through
// "23:30"). It is reference data, passed in rather than read from a global,
// so tests can run against a reduced grid.
type Grid struct {
	times []string
}

// New builds the full 48-entry production grid.
func New() Grid {
	times := make([]string, 0, 24*60/SlotMinutes)
	for m := 0; m < 24*60; m += SlotMinutes {
		times = append(times, minutesToClock(m))
	}
	return Grid{times: times}
}

// FromTimes builds a grid from an explicit list of "HH:MM" values.
// Intended for tests with reduced vocabularies.
func FromTimes(times []string) Grid {
	return Grid{times: append([]string(nil), times...)}
}

// Times returns the valid slot start times in grid order.
func (g Grid) Times() []string {
	return append([]string(nil), g.times...)
}

// Slots returns the "HH:MM-HH:MM" labels covering the whole day, one per
// grid entry. The last label wraps to "00:00", matching the labels the
// booking system renders.
func (g Grid) Slots() []string {
	labels := make([]string, len(g.times))
	for i, t := range g.times {
		start, _ := ParseClock(t)
		labels[i] = fmt.Sprintf("%s-%s", t, minutesToClock((start+SlotMinutes)%(24*60)))
	}
	return labels
}

// NearestHalfHour snaps a raw "HH:MM" value to the closest grid entry.
// Ties resolve to the first minimal-distance entry in grid order, so the
// earlier time wins.
func (g Grid) NearestHalfHour(clock string) (string, error) {
	target, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	best := ""
	bestDist := -1
	for _, t := range g.times {
		m, err := ParseClock(t)
		if err != nil {
			return "", err
		}
		dist := target - m
		if dist < 0 {
			dist = -dist
		}
		if bestDist < 0 || dist < bestDist {
			best = t
			bestDist = dist
		}
	}
	if best == "" {
		return "", fmt.Errorf("empty time grid")
	}
	return best, nil
}

// ComputeEndTime adds a fractional-hour duration to a start time, wrapping
// at midnight. It returns both the grid-snapped end and the raw computed
// end, since the site's end-time select only accepts grid values.
func (g Grid) ComputeEndTime(start string, durationHours float64) (snapped, raw string, err error) {
	startMin, err := ParseClock(start)
	if err != nil {
		return "", "", err
	}
	if durationHours <= 0 {
		return "", "", fmt.Errorf("duration must be positive, got %v", durationHours)
	}
	total := (startMin + int(durationHours*60)) % (24 * 60)
	raw = minutesToClock(total)
	snapped, err = g.NearestHalfHour(raw)
	if err != nil {
		return "", "", err
	}
	return snapped, raw, nil
}

// ParseClock converts "HH:MM" to minutes since midnight.
func ParseClock(clock string) (int, error) {
	parts := strings.SplitN(clock, ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, clock)
	}
	return h*60 + m, nil
}

func minutesToClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// dateLayouts covers every input shape users have actually typed at the
// system: ISO, day-first, US slash, and spelled-out month forms.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"2-1-2006",
	"01/02/2006",
	"1/02/2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"02-Jan-2006",
	"2-Jan-2006",
}

// FormatDate normalizes free-form date text to the "DD-Mon-YYYY" form the
// booking system displays in its date control. Dates before the current
// day are rejected: the site cannot navigate backwards from today, so a
// past date would only fail later inside date navigation.
func FormatDate(raw string, now time.Time) (string, error) {
	cleaned := titleCaseWords(strings.TrimSpace(raw))
	var parsed time.Time
	ok := false
	for _, layout := range dateLayouts {
		t, err := time.ParseInLocation(layout, cleaned, now.Location())
		if err == nil {
			parsed = t
			ok = true
			break
		}
	}
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidDateFormat, raw)
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if parsed.Before(today) {
		return "", fmt.Errorf("%w: %s", ErrPastDate, parsed.Format("02-Jan-2006"))
	}
	return parsed.Format("02-Jan-2006"), nil
}

// time.Parse month names are case sensitive, users are not.
func titleCaseWords(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
