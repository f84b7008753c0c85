package turtle

import (
	"fmt"
	"math"
	"time"

	"turtleblocks/internal/palette"
)

// Point is a canvas position; y grows downward.
type Point struct {
	X, Y float64
}

func (p Point) String() string {
	return fmt.Sprintf("(%.1f,%.1f)", p.X, p.Y)
}

// Dist is the euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Grid is the optional background grid.
type Grid struct {
	Enabled  bool
	CellSize float64
}

// State is a snapshot of the turtle.
type State struct {
	Position Point
	Heading  float64 // degrees in [0,360), clockwise on screen, 0 = right
	PenDown  bool
	Color    palette.Color
	Speed    int
	Steps    int
	Delay    time.Duration
	Failed   bool
	Running  bool
	Grid     Grid
}

// Segment is one completed pen-down move.
type Segment struct {
	From, To Point
	Color    palette.Color
}

func (s Segment) Len() float64 { return s.From.Dist(s.To) }

// EventKind says what changed.
type EventKind int

const (
	EventReset EventKind = iota
	EventStep
	EventTurn
	EventPen
	EventColor
	EventGrid
	EventFail
)

var eventNames = [...]string{"reset", "step", "turn", "pen", "color", "grid", "fail"}

func (k EventKind) String() string {
	if k < 0 || int(k) >= len(eventNames) {
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
	return eventNames[k]
}

// Event is published after every state change. For EventStep, From and To
// are the endpoints of one animation step and Step/Of count the steps of the
// enclosing move.
type Event struct {
	Kind     EventKind
	From, To Point
	Step, Of int
	State    State
}

// Drawn reports whether this step leaves ink on the canvas.
func (e Event) Drawn() bool {
	return e.Kind == EventStep && e.State.PenDown && e.From != e.To
}

// Observer receives events while the machine holds its lock, so it sees
// every state exactly once and in order. Observers must not call back into
// the machine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }
