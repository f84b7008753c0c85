// Package interp executes compiled programs against a turtle.
package interp

import (
	"context"
	"errors"
	"fmt"

	"turtleblocks/internal/blocks"
	"turtleblocks/internal/logger"
	"turtleblocks/internal/palette"
	"turtleblocks/internal/program"
)

// Turtle is what the interpreter drives. *turtle.Machine implements it.
type Turtle interface {
	Forward(ctx context.Context, distance float64) error
	Backward(ctx context.Context, distance float64) error
	TurnRight(angle float64)
	TurnLeft(angle float64)
	PenUp()
	PenDown()
	SetColor(c palette.Color)
}

// Interpreter walks a program in order, one statement at a time.
type Interpreter struct {
	turtle Turtle
	log    *logger.Logger
}

func New(t Turtle, log *logger.Logger) *Interpreter {
	if log == nil {
		log = logger.Discard()
	}
	return &Interpreter{turtle: t, log: log.WithPrefix("interp")}
}

// Run executes p until it completes, a statement fails, or ctx is
// cancelled. Nothing is dispatched after the first failure or after
// cancellation is observed.
func (in *Interpreter) Run(ctx context.Context, p *program.Program) Outcome {
	var out Outcome
	err := in.execBlock(ctx, p.Body, &out.Executed)
	switch {
	case err == nil:
		out.Status = Completed
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out.Status = Cancelled
	default:
		out.Status = Failed
		out.Err = err
	}
	in.log.Debug("run finished: %s after %d statements", out.Status, out.Executed)
	return out
}

func (in *Interpreter) execBlock(ctx context.Context, body program.Block, executed *int) error {
	for _, st := range body {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch st := st.(type) {
		case program.Op:
			*executed++
			if err := in.dispatch(ctx, st.Instruction); err != nil {
				return err
			}
		case program.Loop:
			for i := 0; i < st.Count; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := in.execBlock(ctx, st.Body, executed); err != nil {
					return err
				}
			}
		default:
			return fmt.Errorf("unknown statement %T", st)
		}
	}
	return nil
}

func (in *Interpreter) dispatch(ctx context.Context, ins blocks.Instruction) error {
	in.log.Debug("%s", blocks.FormatInstruction(ins))
	switch ins := ins.(type) {
	case blocks.Start:
		// The turtle is reset before every run; nothing else to set up.
		return nil
	case blocks.Forward:
		return in.turtle.Forward(ctx, ins.Distance)
	case blocks.Backward:
		return in.turtle.Backward(ctx, ins.Distance)
	case blocks.TurnRight:
		in.turtle.TurnRight(ins.Angle)
	case blocks.TurnLeft:
		in.turtle.TurnLeft(ins.Angle)
	case blocks.PenUp:
		in.turtle.PenUp()
	case blocks.PenDown:
		in.turtle.PenDown()
	case blocks.SetColor:
		in.turtle.SetColor(ins.Color)
	case blocks.LoopStart, blocks.LoopEnd:
		return fmt.Errorf("loop marker %s outside the compiler", ins.Kind())
	default:
		return fmt.Errorf("unknown instruction %T", ins)
	}
	return nil
}
