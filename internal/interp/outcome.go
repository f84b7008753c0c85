package interp

import (
	"errors"
	"fmt"

	"turtleblocks/internal/turtle"
)

// Status is how a run ended.
type Status int

const (
	Completed Status = iota
	Failed
	Cancelled
)

func (s Status) String() string {
	switch s {
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Outcome reports a finished run. Err is set only when Status is Failed.
// Executed counts the primitive statements dispatched.
type Outcome struct {
	Status   Status
	Err      error
	Executed int
}

// Message is the status line shown to the user.
func (o Outcome) Message() string {
	switch o.Status {
	case Completed:
		return "Run complete!"
	case Cancelled:
		return "Run stopped by reset."
	}
	if errors.Is(o.Err, turtle.ErrOutOfBounds) {
		return "Error: the turtle can't leave the canvas!"
	}
	if o.Err != nil {
		return "Error: " + o.Err.Error()
	}
	return "Error: run failed"
}
