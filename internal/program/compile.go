package program

import (
	"errors"
	"fmt"

	"turtleblocks/internal/blocks"
)

var (
	ErrEmptyProgram     = errors.New("program is empty")
	ErrUnmatchedLoopEnd = errors.New("loop end without a matching loop start")
	ErrUnclosedLoop     = errors.New("loop start is never closed")
	ErrInvalidParameter = errors.New("invalid block parameter")
)

// StructuralError reports a compile-time defect. Index is the 0-based
// position of the offending block, or -1 for the program as a whole.
type StructuralError struct {
	Index  int
	Err    error
	Detail string
}

func (e *StructuralError) Error() string {
	msg := e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Index < 0 {
		return msg
	}
	return fmt.Sprintf("block %d: %s", e.Index+1, msg)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// frame is an open loop body waiting for its LoopEnd.
type frame struct {
	start int
	count int
	body  Block
}

// Compile matches loop markers in one pass and returns the nested program.
// Parameters are checked here so the interpreter only sees concrete, valid
// values.
func Compile(seq blocks.Sequence) (*Program, error) {
	if len(seq) == 0 {
		return nil, &StructuralError{Index: -1, Err: ErrEmptyProgram}
	}

	root := Block{}
	var stack []*frame

	emit := func(st Statement) {
		if len(stack) == 0 {
			root = append(root, st)
			return
		}
		top := stack[len(stack)-1]
		top.body = append(top.body, st)
	}

	for i, in := range seq {
		if err := blocks.Validate(in); err != nil {
			return nil, &StructuralError{Index: i, Err: ErrInvalidParameter, Detail: err.Error()}
		}
		switch in := in.(type) {
		case blocks.LoopStart:
			stack = append(stack, &frame{start: i, count: in.Count, body: Block{}})
		case blocks.LoopEnd:
			if len(stack) == 0 {
				return nil, &StructuralError{Index: i, Err: ErrUnmatchedLoopEnd}
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			emit(Loop{Count: top.count, Body: top.body})
		default:
			emit(Op{Instruction: in})
		}
	}

	if len(stack) > 0 {
		open := stack[len(stack)-1]
		return nil, &StructuralError{Index: open.start, Err: ErrUnclosedLoop}
	}
	return &Program{Body: root}, nil
}
