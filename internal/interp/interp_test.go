package interp

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"turtleblocks/internal/blocks"
	"turtleblocks/internal/palette"
	"turtleblocks/internal/program"
	"turtleblocks/internal/turtle"
)

const eps = 1e-9

func noSleep(ctx context.Context, d time.Duration) error { return ctx.Err() }

func newMachine() *turtle.Machine {
	return turtle.New(turtle.Config{Width: 600, Height: 400, Margin: 10, Sleep: noSleep})
}

func compile(t *testing.T, seq blocks.Sequence) *program.Program {
	t.Helper()
	p, err := program.Compile(seq)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return p
}

// recorder is a Turtle that only logs the calls it receives.
type recorder struct {
	calls  []string
	failAt int
	cancel func()
}

func (r *recorder) record(ctx context.Context, name string) error {
	r.calls = append(r.calls, name)
	if r.cancel != nil && len(r.calls) == r.failAt {
		r.cancel()
		return ctx.Err()
	}
	if r.failAt > 0 && len(r.calls) == r.failAt {
		return &turtle.OutOfBoundsError{}
	}
	return nil
}

func (r *recorder) Forward(ctx context.Context, d float64) error  { return r.record(ctx, "fd") }
func (r *recorder) Backward(ctx context.Context, d float64) error { return r.record(ctx, "bk") }
func (r *recorder) TurnRight(a float64)                           { r.calls = append(r.calls, "rt") }
func (r *recorder) TurnLeft(a float64)                            { r.calls = append(r.calls, "lt") }
func (r *recorder) PenUp()                                        { r.calls = append(r.calls, "pu") }
func (r *recorder) PenDown()                                      { r.calls = append(r.calls, "pd") }
func (r *recorder) SetColor(c palette.Color)                      { r.calls = append(r.calls, "color") }

func TestTwoPerpendicularSegments(t *testing.T) {
	m := newMachine()
	p := compile(t, blocks.Sequence{
		blocks.Start{},
		blocks.Forward{Distance: 100},
		blocks.TurnRight{Angle: 90},
		blocks.Forward{Distance: 100},
	})

	out := New(m, nil).Run(context.Background(), p)
	if out.Status != Completed {
		t.Fatalf("Expected completed, got %s (%v)", out.Status, out.Err)
	}
	if out.Executed != 4 {
		t.Errorf("Expected 4 statements executed, got %d", out.Executed)
	}

	trail := m.Trail()
	if len(trail) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(trail))
	}
	for i, seg := range trail {
		if math.Abs(seg.Len()-100) > eps {
			t.Errorf("segment %d: length %v, want 100", i, seg.Len())
		}
	}
	ax, ay := trail[0].To.X-trail[0].From.X, trail[0].To.Y-trail[0].From.Y
	bx, by := trail[1].To.X-trail[1].From.X, trail[1].To.Y-trail[1].From.Y
	if dot := ax*bx + ay*by; math.Abs(dot) > 1e-6 {
		t.Errorf("Segments not perpendicular, dot product %v", dot)
	}
	if h := m.State().Heading; math.Abs(h-90) > eps {
		t.Errorf("Expected final heading 90, got %v", h)
	}
}

func TestTriangle(t *testing.T) {
	m := newMachine()
	p := compile(t, blocks.Sequence{
		blocks.Start{},
		blocks.LoopStart{Count: 3},
		blocks.Forward{Distance: 50},
		blocks.TurnRight{Angle: 120},
		blocks.LoopEnd{},
	})

	out := New(m, nil).Run(context.Background(), p)
	if out.Status != Completed {
		t.Fatalf("Expected completed, got %s (%v)", out.Status, out.Err)
	}

	trail := m.Trail()
	if len(trail) != 3 {
		t.Fatalf("Expected 3 sides, got %d", len(trail))
	}
	for i, seg := range trail {
		if math.Abs(seg.Len()-50) > eps {
			t.Errorf("side %d: length %v, want 50", i, seg.Len())
		}
	}
	if d := trail[2].To.Dist(trail[0].From); d > 1e-6 {
		t.Errorf("Triangle not closed, gap %v", d)
	}
	h := m.State().Heading
	if math.Min(h, 360-h) > eps {
		t.Errorf("Expected heading back at 0 mod 360, got %v", h)
	}
}

func TestLoopTurnsReturnHeading(t *testing.T) {
	m := newMachine()
	p := &program.Program{Body: program.Block{
		program.Loop{Count: 4, Body: program.Block{
			program.Op{Instruction: blocks.Forward{Distance: 80}},
			program.Op{Instruction: blocks.TurnRight{Angle: 90}},
		}},
	}}

	if out := New(m, nil).Run(context.Background(), p); out.Status != Completed {
		t.Fatalf("Expected completed, got %s", out.Status)
	}
	s := m.State()
	if math.Abs(s.Heading) > eps {
		t.Errorf("Expected heading 0, got %v", s.Heading)
	}
	if d := s.Position.Dist(turtle.Point{X: 300, Y: 200}); d > 1e-6 {
		t.Errorf("Square did not close, ended %v away", d)
	}
	if n := len(m.Trail()); n != 4 {
		t.Errorf("Expected 4 sides, got %d", n)
	}
}

func TestEmptyLoopBodyIterates(t *testing.T) {
	r := &recorder{}
	p := compile(t, blocks.Sequence{
		blocks.LoopStart{Count: 1000},
		blocks.LoopEnd{},
		blocks.PenUp{},
	})
	out := New(r, nil).Run(context.Background(), p)
	if out.Status != Completed || out.Executed != 1 {
		t.Errorf("Expected completed with 1 statement, got %+v", out)
	}
}

func TestDispatchOrder(t *testing.T) {
	r := &recorder{}
	p := compile(t, blocks.Sequence{
		blocks.Start{},
		blocks.PenUp{},
		blocks.LoopStart{Count: 2},
		blocks.Forward{Distance: 1},
		blocks.LoopStart{Count: 2},
		blocks.TurnLeft{Angle: 1},
		blocks.LoopEnd{},
		blocks.Backward{Distance: 1},
		blocks.LoopEnd{},
		blocks.SetColor{Color: "red"},
		blocks.PenDown{},
	})

	out := New(r, nil).Run(context.Background(), p)
	if out.Status != Completed {
		t.Fatalf("Expected completed, got %s", out.Status)
	}
	want := []string{"pu", "fd", "lt", "lt", "bk", "fd", "lt", "lt", "bk", "color", "pd"}
	if len(r.calls) != len(want) {
		t.Fatalf("Expected calls %v, got %v", want, r.calls)
	}
	for i := range want {
		if r.calls[i] != want[i] {
			t.Fatalf("Expected calls %v, got %v", want, r.calls)
		}
	}
	if out.Executed != p.Unrolled() {
		t.Errorf("Executed %d, Unrolled %d", out.Executed, p.Unrolled())
	}
}

func TestFailureHaltsEnclosingLoop(t *testing.T) {
	r := &recorder{failAt: 3}
	p := compile(t, blocks.Sequence{
		blocks.LoopStart{Count: 5},
		blocks.Forward{Distance: 100},
		blocks.TurnRight{Angle: 10},
		blocks.LoopEnd{},
		blocks.PenUp{},
	})

	out := New(r, nil).Run(context.Background(), p)
	if out.Status != Failed {
		t.Fatalf("Expected failed, got %s", out.Status)
	}
	if !errors.Is(out.Err, turtle.ErrOutOfBounds) {
		t.Errorf("Expected out of bounds reason, got %v", out.Err)
	}
	// fd rt fd(fail): nothing after the failing forward.
	if len(r.calls) != 3 {
		t.Errorf("Expected dispatch to stop at the failure, got %v", r.calls)
	}
	if out.Message() != "Error: the turtle can't leave the canvas!" {
		t.Errorf("Unexpected message %q", out.Message())
	}
}

func TestBoundaryFailureKeepsDrawnTrail(t *testing.T) {
	m := newMachine()
	p := compile(t, blocks.Sequence{
		blocks.Start{},
		blocks.Forward{Distance: 100},
		blocks.Forward{Distance: 250},
		blocks.TurnRight{Angle: 90},
	})

	out := New(m, nil).Run(context.Background(), p)
	if out.Status != Failed {
		t.Fatalf("Expected failed, got %s", out.Status)
	}
	s := m.State()
	if !s.Failed || s.Heading != 0 {
		t.Errorf("Expected failed machine with untouched heading, got %+v", s)
	}
	if len(m.Trail()) != 1 {
		t.Errorf("Expected the first segment to survive, got %d", len(m.Trail()))
	}
}

func TestCancellationMidAnimation(t *testing.T) {
	m := newMachine()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	steps := 0
	var dispatchedAfter []turtle.EventKind
	m.Observe(turtle.ObserverFunc(func(e turtle.Event) {
		if steps >= 7 && e.Kind != turtle.EventStep {
			dispatchedAfter = append(dispatchedAfter, e.Kind)
		}
		if e.Kind == turtle.EventStep {
			steps++
			if steps == 7 {
				cancel()
			}
		}
	}))

	p := compile(t, blocks.Sequence{
		blocks.Start{},
		blocks.LoopStart{Count: 4},
		blocks.Forward{Distance: 100},
		blocks.TurnRight{Angle: 90},
		blocks.LoopEnd{},
	})
	out := New(m, nil).Run(ctx, p)

	if out.Status != Cancelled {
		t.Fatalf("Expected cancelled, got %s (%v)", out.Status, out.Err)
	}
	if out.Err != nil {
		t.Errorf("Cancelled outcome should not carry an error, got %v", out.Err)
	}
	if steps != 7 {
		t.Errorf("Animation kept advancing after cancel: %d steps", steps)
	}
	if len(dispatchedAfter) != 0 {
		t.Errorf("Statements dispatched after cancel: %v", dispatchedAfter)
	}
}

func TestCancelledBeforeStart(t *testing.T) {
	r := &recorder{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := New(r, nil).Run(ctx, compile(t, blocks.Sequence{blocks.PenUp{}}))
	if out.Status != Cancelled || len(r.calls) != 0 {
		t.Errorf("Expected nothing dispatched, got %+v %v", out, r.calls)
	}
}

func TestStatusStrings(t *testing.T) {
	if Completed.String() != "completed" || Failed.String() != "failed" || Cancelled.String() != "cancelled" {
		t.Error("Unexpected status names")
	}
	if (Outcome{Status: Cancelled}).Message() != "Run stopped by reset." {
		t.Error("Unexpected cancel message")
	}
}
