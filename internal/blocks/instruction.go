// Package blocks models the user's arrangement of command blocks: a flat,
// ordered sequence of typed instructions in which loops are delimited by
// LoopStart/LoopEnd markers.
package blocks

import (
	"fmt"
	"math"

	"turtleblocks/internal/palette"
)

// Kind tags an instruction. The string forms are the block type names used
// by the editor.
type Kind int

const (
	KindStart Kind = iota
	KindForward
	KindBackward
	KindTurnRight
	KindTurnLeft
	KindPenUp
	KindPenDown
	KindSetColor
	KindLoopStart
	KindLoopEnd
)

var kindNames = [...]string{
	KindStart:     "start",
	KindForward:   "forward",
	KindBackward:  "backward",
	KindTurnRight: "right",
	KindTurnLeft:  "left",
	KindPenUp:     "penup",
	KindPenDown:   "pendown",
	KindSetColor:  "color",
	KindLoopStart: "loop_start",
	KindLoopEnd:   "loop_end",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind maps an editor block type name to its Kind.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// Instruction is one block. The set of implementations is closed.
type Instruction interface {
	Kind() Kind
	instruction()
}

type (
	Start     struct{}
	Forward   struct{ Distance float64 }
	Backward  struct{ Distance float64 }
	TurnRight struct{ Angle float64 }
	TurnLeft  struct{ Angle float64 }
	PenUp     struct{}
	PenDown   struct{}
	SetColor  struct{ Color palette.Color }
	LoopStart struct{ Count int }
	LoopEnd   struct{}
)

func (Start) Kind() Kind     { return KindStart }
func (Forward) Kind() Kind   { return KindForward }
func (Backward) Kind() Kind  { return KindBackward }
func (TurnRight) Kind() Kind { return KindTurnRight }
func (TurnLeft) Kind() Kind  { return KindTurnLeft }
func (PenUp) Kind() Kind     { return KindPenUp }
func (PenDown) Kind() Kind   { return KindPenDown }
func (SetColor) Kind() Kind  { return KindSetColor }
func (LoopStart) Kind() Kind { return KindLoopStart }
func (LoopEnd) Kind() Kind   { return KindLoopEnd }

func (Start) instruction()     {}
func (Forward) instruction()   {}
func (Backward) instruction()  {}
func (TurnRight) instruction() {}
func (TurnLeft) instruction()  {}
func (PenUp) instruction()     {}
func (PenDown) instruction()   {}
func (SetColor) instruction()  {}
func (LoopStart) instruction() {}
func (LoopEnd) instruction()   {}

// Options lists the parameter values the block palette offers. Any valid
// value is accepted by the core, not just these.
var Options = struct {
	Distances  []float64
	Angles     []float64
	LoopCounts []int
}{
	Distances:  []float64{10, 50, 100, 200},
	Angles:     []float64{15, 30, 45, 90, 180},
	LoopCounts: []int{2, 3, 4, 5, 6, 8, 10, 12},
}

// Validate checks the parameters of a single instruction.
func Validate(in Instruction) error {
	switch in := in.(type) {
	case Forward:
		return checkAmount("distance", in.Distance)
	case Backward:
		return checkAmount("distance", in.Distance)
	case TurnRight:
		return checkAmount("angle", in.Angle)
	case TurnLeft:
		return checkAmount("angle", in.Angle)
	case SetColor:
		if _, err := palette.Parse(string(in.Color)); err != nil {
			return err
		}
	case LoopStart:
		if in.Count < 1 {
			return fmt.Errorf("loop count must be at least 1, got %d", in.Count)
		}
	case nil:
		return fmt.Errorf("nil instruction")
	}
	return nil
}

func checkAmount(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be a finite number", name)
	}
	if v < 0 {
		return fmt.Errorf("%s must not be negative, got %g", name, v)
	}
	return nil
}

// Sequence is the ordered block arrangement. Order is execution order.
type Sequence []Instruction

// Clone returns a snapshot that later edits to s cannot affect.
func (s Sequence) Clone() Sequence {
	if s == nil {
		return nil
	}
	out := make(Sequence, len(s))
	copy(out, s)
	return out
}

// HasStart reports whether the start marker block is present. Nil entries
// are skipped; Validate reports them.
func (s Sequence) HasStart() bool {
	for _, in := range s {
		if in != nil && in.Kind() == KindStart {
			return true
		}
	}
	return false
}
