// Package program holds the nested form of a block arrangement that the
// interpreter executes, and the compiler that builds it.
package program

import (
	"math"

	"turtleblocks/internal/blocks"
)

// Statement is either an Op or a Loop.
type Statement interface {
	statement()
}

// Op is a primitive instruction. It never holds a LoopStart or LoopEnd.
type Op struct {
	Instruction blocks.Instruction
}

// Loop repeats Body Count times. An empty Body is valid.
type Loop struct {
	Count int
	Body  Block
}

func (Op) statement()   {}
func (Loop) statement() {}

// Block is a statement list in execution order.
type Block []Statement

// Program is the root of a compiled arrangement.
type Program struct {
	Body Block
}

// Size counts primitive statements, each loop body once.
func (p *Program) Size() int { return p.Body.Size() }

// Unrolled counts the primitives a run dispatches: a loop contributes
// Count times its body. The count saturates at math.MaxInt.
func (p *Program) Unrolled() int { return p.Body.Unrolled() }

func (b Block) Size() int {
	n := 0
	for _, st := range b {
		switch st := st.(type) {
		case Op:
			n++
		case Loop:
			n += st.Body.Size()
		}
	}
	return n
}

func (b Block) Unrolled() int {
	n := 0
	for _, st := range b {
		switch st := st.(type) {
		case Op:
			n = addSat(n, 1)
		case Loop:
			n = addSat(n, mulSat(st.Count, st.Body.Unrolled()))
		}
	}
	return n
}

func addSat(a, b int) int {
	if a > math.MaxInt-b {
		return math.MaxInt
	}
	return a + b
}

// mulSat multiplies non-negative counts.
func mulSat(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt/b {
		return math.MaxInt
	}
	return a * b
}

// Depth is the deepest loop nesting in b.
func (b Block) Depth() int {
	max := 0
	for _, st := range b {
		if l, ok := st.(Loop); ok {
			if d := 1 + l.Body.Depth(); d > max {
				max = d
			}
		}
	}
	return max
}
