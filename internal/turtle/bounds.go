package turtle

import (
	"errors"
	"fmt"
)

// Bounds is the working area a turtle may move in: the canvas minus a
// fixed margin on every side.
type Bounds struct {
	Width, Height float64
	Margin        float64
}

// Contains reports whether p lies inside the working area, edges included.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.Margin && p.X <= b.Width-b.Margin &&
		p.Y >= b.Margin && p.Y <= b.Height-b.Margin
}

// Center is the default turtle position.
func (b Bounds) Center() Point {
	return Point{X: b.Width / 2, Y: b.Height / 2}
}

// ErrOutOfBounds matches any *OutOfBoundsError via errors.Is.
var ErrOutOfBounds = errors.New("turtle cannot leave the canvas")

// OutOfBoundsError is returned when a move would end outside the working
// area. The move is not performed.
type OutOfBoundsError struct {
	From, To Point
	Bounds   Bounds
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("%v: move from %v to %v leaves [%g,%g]x[%g,%g]",
		ErrOutOfBounds, e.From, e.To,
		e.Bounds.Margin, e.Bounds.Width-e.Bounds.Margin,
		e.Bounds.Margin, e.Bounds.Height-e.Bounds.Margin)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }
