package fbs

import (
	"fmt"
	"sort"
	"strings"

	"fbs-backend/lib/timegrid"
)

// SlotStatus classifies one half-hour (or wider) range of a room's day.
type SlotStatus string

const (
	StatusBooked       SlotStatus = "Booked"
	StatusNotAvailable SlotStatus = "Not available"
	StatusUnbooked     SlotStatus = "Unbooked"
	StatusAvailable    SlotStatus = "Available for booking"
)

// TimeSlot is one contiguous range of a room schedule. Details is non-nil
// only for Booked slots.
type TimeSlot struct {
	Timeslot  string            `json:"timeslot"`
	Available bool              `json:"available"`
	Status    SlotStatus        `json:"status"`
	Details   map[string]string `json:"details"`
}

// RoomSchedule is a room's full-day, gap-free ordered slot sequence.
type RoomSchedule []TimeSlot

const (
	bookingPrefix      = "Booking Time: "
	notAvailableSuffix = "(not available)"
)

// Normalizer turns raw scraped booking-event strings into complete
// schedules over the injected grid.
type Normalizer struct {
	Grid timegrid.Grid

	// StrictRunGrouping preserves the observed day-splitting rule exactly:
	// a "(not available)" marker opens a run when none is open and closes
	// it otherwise, and non-marker events outside an open run are dropped.
	// The asymmetry looks like a latent defect upstream; the flag exists so
	// an intentional fix has to be explicit.
	StrictRunGrouping bool
}

func NewNormalizer(grid timegrid.Grid) Normalizer {
	return Normalizer{Grid: grid, StrictRunGrouping: true}
}

// SplitBookingsByDay groups the flat event stream the scheduler emits into
// per-day runs. The site renders one "(not available)" marker at each day
// boundary; see StrictRunGrouping for the exact rule reproduced here.
func (n Normalizer) SplitBookingsByDay(events []string) [][]string {
	var days [][]string
	var current []string
	for _, event := range events {
		if strings.Contains(event, notAvailableSuffix) {
			if len(current) == 0 {
				current = append(current, event)
				continue
			}
			current = append(current, event)
			days = append(days, current)
			current = nil
			continue
		}
		if len(current) > 0 || !n.StrictRunGrouping {
			current = append(current, event)
		}
	}
	return days
}

// ClassifyEvent parses one raw event string into a sparse TimeSlot.
// Returns an UnrecognizedEventError for anything matching neither shape.
func ClassifyEvent(room, event string) (TimeSlot, error) {
	switch {
	case strings.HasPrefix(event, bookingPrefix):
		lines := strings.Split(event, "\n")
		details := map[string]string{}
		for _, line := range lines[1:] {
			key, value, found := strings.Cut(line, ": ")
			if !found {
				continue
			}
			details[key] = value
		}
		return TimeSlot{
			Timeslot:  strings.TrimPrefix(lines[0], bookingPrefix),
			Available: false,
			Status:    StatusBooked,
			Details:   details,
		}, nil

	case strings.HasSuffix(event, notAvailableSuffix):
		// shape: "(HH:MM-HH:MM) (not available)"
		timeRange, _, _ := strings.Cut(event, ") (")
		return TimeSlot{
			Timeslot:  strings.TrimPrefix(timeRange, "("),
			Available: false,
			Status:    StatusNotAvailable,
			Details:   nil,
		}, nil

	default:
		return TimeSlot{}, &UnrecognizedEventError{Room: room, Event: event}
	}
}

// Normalize converts one room's raw events for one day into a complete
// schedule. Unparseable events are reported and skipped, never dropped
// silently. A room with no recognizable events yields an all-Unbooked full
// grid.
func (n Normalizer) Normalize(room string, events []string) (RoomSchedule, []error) {
	var errs []error
	var observed []TimeSlot
	for _, event := range events {
		slot, err := ClassifyEvent(room, event)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		observed = append(observed, slot)
	}

	if len(observed) == 0 {
		return n.emptySchedule(), errs
	}
	return n.FillMissingSlots(observed), errs
}

func (n Normalizer) emptySchedule() RoomSchedule {
	labels := n.Grid.Slots()
	schedule := make(RoomSchedule, len(labels))
	for i, label := range labels {
		schedule[i] = TimeSlot{
			Timeslot:  label,
			Available: true,
			Status:    StatusUnbooked,
			Details:   nil,
		}
	}
	return schedule
}

// boundary is a slot edge in minutes since midnight; an end of "00:00"
// means end-of-day and sorts as 1440.
type span struct {
	start, end int
}

func parseLabel(label string) (span, error) {
	startStr, endStr, found := strings.Cut(label, "-")
	if !found {
		return span{}, fmt.Errorf("malformed timeslot label %q", label)
	}
	start, err := timegrid.ParseClock(strings.TrimSpace(startStr))
	if err != nil {
		return span{}, err
	}
	end, err := timegrid.ParseClock(strings.TrimSpace(endStr))
	if err != nil {
		return span{}, err
	}
	if end <= start {
		end += 24 * 60
	}
	return span{start: start, end: end}, nil
}

// FillMissingSlots expands a sparse set of observed slots into a complete
// ordered schedule. The boundary timeline is seeded with the full grid, so
// the result always covers the whole day regardless of what was observed;
// unobserved ranges are synthesized as available for booking.
func (n Normalizer) FillMissingSlots(observed []TimeSlot) RoomSchedule {
	type parsedSlot struct {
		span span
		slot TimeSlot
	}

	// boundary timeline: the full grid plus every edge an observed slot
	// references, deduplicated
	boundarySet := map[int]bool{}
	for _, t := range n.Grid.Times() {
		m, err := timegrid.ParseClock(t)
		if err != nil {
			continue
		}
		boundarySet[m] = true
	}
	boundarySet[24*60] = true

	var slots []parsedSlot
	for _, s := range observed {
		sp, err := parseLabel(s.Timeslot)
		if err != nil {
			// an unparsable label cannot be placed on the timeline; the
			// classifier has already surfaced anything malformed
			continue
		}
		boundarySet[sp.start] = true
		boundarySet[sp.end] = true
		slots = append(slots, parsedSlot{span: sp, slot: s})
	}

	boundaries := make([]int, 0, len(boundarySet))
	for b := range boundarySet {
		boundaries = append(boundaries, b)
	}
	sort.Ints(boundaries)

	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].span.start < slots[j].span.start
	})

	var schedule RoomSchedule
	cursor := 0 // index into boundaries, next unfilled edge
	next := 0   // index into slots
	for cursor < len(boundaries)-1 {
		at := boundaries[cursor]

		// an observed slot starting inside a span an earlier slot already
		// covered (overlapping bookings) can never be placed, skip it
		for next < len(slots) && slots[next].span.start < at {
			next++
		}

		if next < len(slots) && slots[next].span.start == at {
			s := slots[next]
			schedule = append(schedule, s.slot)
			next++
			// skip every boundary the observed slot spans
			for cursor < len(boundaries)-1 && boundaries[cursor] < s.span.end {
				cursor++
			}
			continue
		}

		schedule = append(schedule, TimeSlot{
			Timeslot:  labelFor(at, boundaries[cursor+1]),
			Available: true,
			Status:    StatusAvailable,
			Details:   nil,
		})
		cursor++
	}
	return schedule
}

func labelFor(start, end int) string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", start/60, start%60, (end/60)%24, end%60)
}
