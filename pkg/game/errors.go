package game

import (
	"errors"
	"fmt"
)

var (
	ErrNoProfile       = errors.New("no player profile stored")
	ErrNotStarted      = errors.New("game not started")
	ErrUnknownLocation = errors.New("unknown location")
	ErrLocked          = errors.New("location is not accessible")
	ErrBusy            = errors.New("another action is in progress")
	ErrAbandoned       = errors.New("action abandoned")
	ErrNotAbandonable  = errors.New("no puzzle is waiting for an answer")
)

// LoadError wraps anything that stops the location data from loading:
// an unreadable source, a *location.ParseError or an *UnknownActionError.
type LoadError struct {
	Err error
}

func (e *LoadError) Error() string {
	return "failed to load game data: " + e.Err.Error()
}

func (e *LoadError) Unwrap() error { return e.Err }

// UnknownActionError reports a location bound to an action with no handler.
type UnknownActionError struct {
	Location string
	Action   string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("location %q references unknown action %q", e.Location, e.Action)
}

// PreconditionError means the player lacks the item an action needs.
type PreconditionError struct {
	Item    string
	Message string // Shown to the player
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("missing required item %q", e.Item)
}

// HandlerError wraps an unexpected failure inside an action handler.
type HandlerError struct {
	Location string
	Err      error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("action at %s failed: %v", e.Location, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }
