package fbs

import (
	"errors"
	"fmt"
)

var (
	// ErrTimeout marks a bounded wait that expired. Adapters wrap their
	// engine's timeout failures with this so stages can classify them.
	ErrTimeout = errors.New("wait timed out")

	// ErrDateUnreachable means the day-advance loop hit its iteration cap
	// without the date control ever showing the target date.
	ErrDateUnreachable = errors.New("target date unreachable")
)

// ControlNotFoundError reports a required DOM control that never appeared.
// Fatal to the stage that needed it.
type ControlNotFoundError struct {
	Selector string
	Err      error
}

func (e *ControlNotFoundError) Error() string {
	return fmt.Sprintf("control not found: %s: %v", e.Selector, e.Err)
}

func (e *ControlNotFoundError) Unwrap() error { return e.Err }

// FrameNotFoundError reports a nested frame that could not be resolved.
// Fatal, aborts the remaining stages.
type FrameNotFoundError struct {
	Name string
}

func (e *FrameNotFoundError) Error() string {
	return fmt.Sprintf("frame not found: %s", e.Name)
}

// FilterOptionNotFoundError reports a requested filter label with no
// matching option in the open dropdown. Non-fatal, the scrape continues.
type FilterOptionNotFoundError struct {
	Category string
	Option   string
}

func (e *FilterOptionNotFoundError) Error() string {
	return fmt.Sprintf("filter option not found: %s: %q", e.Category, e.Option)
}

// UnrecognizedEventError reports a scraped booking-event string matching
// neither known shape. Non-fatal, surfaced per event.
type UnrecognizedEventError struct {
	Room  string
	Event string
}

func (e *UnrecognizedEventError) Error() string {
	return fmt.Sprintf("unrecognized booking event for %q: %q", e.Room, e.Event)
}

// StageError tags an error with the session stage it occurred in so callers
// can tell where a partial scrape stopped.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
