package program

import (
	"errors"
	"math"
	"testing"

	"turtleblocks/internal/blocks"
)

func mustCompile(t *testing.T, seq blocks.Sequence) *Program {
	t.Helper()
	p, err := Compile(seq)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return p
}

func TestCompileFlat(t *testing.T) {
	p := mustCompile(t, blocks.Sequence{
		blocks.Start{},
		blocks.Forward{Distance: 100},
		blocks.TurnRight{Angle: 90},
		blocks.Forward{Distance: 100},
	})
	if len(p.Body) != 4 {
		t.Fatalf("Expected 4 statements, got %d", len(p.Body))
	}
	if op, ok := p.Body[1].(Op); !ok || op.Instruction != (blocks.Forward{Distance: 100}) {
		t.Errorf("Expected forward op, got %#v", p.Body[1])
	}
}

func TestCompileNested(t *testing.T) {
	p := mustCompile(t, blocks.Sequence{
		blocks.Start{},
		blocks.LoopStart{Count: 3},
		blocks.Forward{Distance: 10},
		blocks.LoopStart{Count: 2},
		blocks.TurnLeft{Angle: 30},
		blocks.LoopEnd{},
		blocks.LoopEnd{},
		blocks.PenUp{},
	})

	if len(p.Body) != 3 {
		t.Fatalf("Expected 3 top-level statements, got %d", len(p.Body))
	}
	outer, ok := p.Body[1].(Loop)
	if !ok || outer.Count != 3 || len(outer.Body) != 2 {
		t.Fatalf("Unexpected outer loop: %#v", p.Body[1])
	}
	inner, ok := outer.Body[1].(Loop)
	if !ok || inner.Count != 2 || len(inner.Body) != 1 {
		t.Fatalf("Unexpected inner loop: %#v", outer.Body[1])
	}
	if p.Body.Depth() != 2 {
		t.Errorf("Expected depth 2, got %d", p.Body.Depth())
	}
	if got := p.Size(); got != 4 {
		t.Errorf("Size() = %d, want 4", got)
	}
	// start + 3*(forward + 2*left) + penup
	if got := p.Unrolled(); got != 1+3*(1+2)+1 {
		t.Errorf("Unrolled() = %d, want 11", got)
	}
}

func TestCompileEmptyLoopBody(t *testing.T) {
	p := mustCompile(t, blocks.Sequence{blocks.LoopStart{Count: 5}, blocks.LoopEnd{}})
	loop, ok := p.Body[0].(Loop)
	if !ok || loop.Count != 5 || loop.Body == nil || len(loop.Body) != 0 {
		t.Fatalf("Expected empty loop with non-nil body, got %#v", p.Body[0])
	}
	if p.Unrolled() != 0 {
		t.Errorf("Expected empty loop to unroll to nothing")
	}
}

func TestCompileToleratesMissingStart(t *testing.T) {
	p := mustCompile(t, blocks.Sequence{blocks.Forward{Distance: 10}})
	if p.Size() != 1 {
		t.Errorf("Expected 1 statement, got %d", p.Size())
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name  string
		seq   blocks.Sequence
		want  error
		index int
	}{
		{"empty", nil, ErrEmptyProgram, -1},
		{"leading end", blocks.Sequence{blocks.LoopEnd{}, blocks.Start{}}, ErrUnmatchedLoopEnd, 0},
		{"extra end", blocks.Sequence{
			blocks.LoopStart{Count: 2}, blocks.LoopEnd{}, blocks.LoopEnd{},
		}, ErrUnmatchedLoopEnd, 2},
		{"unclosed", blocks.Sequence{
			blocks.Start{}, blocks.LoopStart{Count: 2}, blocks.Forward{Distance: 1},
		}, ErrUnclosedLoop, 1},
		{"unclosed inner", blocks.Sequence{
			blocks.LoopStart{Count: 2}, blocks.LoopStart{Count: 3}, blocks.LoopEnd{},
		}, ErrUnclosedLoop, 0},
		{"zero count", blocks.Sequence{blocks.LoopStart{Count: 0}, blocks.LoopEnd{}}, ErrInvalidParameter, 0},
		{"negative distance", blocks.Sequence{blocks.Forward{Distance: -5}}, ErrInvalidParameter, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.seq)
			if p != nil {
				t.Errorf("Expected no program, got %#v", p)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			var se *StructuralError
			if !errors.As(err, &se) {
				t.Fatalf("Expected *StructuralError, got %T", err)
			}
			if se.Index != tt.index {
				t.Errorf("Expected index %d, got %d", tt.index, se.Index)
			}
		})
	}
}

// For well-nested input the unrolled size equals the sum over statements of
// 1 for primitives and count*size(body) for loops.
func TestUnrolledMatchesDispatchCount(t *testing.T) {
	seqs := []blocks.Sequence{
		{blocks.Start{}, blocks.LoopStart{Count: 4}, blocks.Forward{Distance: 1}, blocks.TurnRight{Angle: 90}, blocks.LoopEnd{}},
		{blocks.LoopStart{Count: 2}, blocks.LoopStart{Count: 2}, blocks.LoopStart{Count: 2}, blocks.PenUp{}, blocks.LoopEnd{}, blocks.LoopEnd{}, blocks.LoopEnd{}},
		{blocks.PenDown{}, blocks.LoopStart{Count: 3}, blocks.LoopEnd{}, blocks.PenUp{}},
	}
	want := []int{9, 8, 2}

	for i, seq := range seqs {
		p := mustCompile(t, seq)
		if got := p.Unrolled(); got != want[i] {
			t.Errorf("case %d: Unrolled() = %d, want %d", i, got, want[i])
		}
		if got := walk(p.Body); got != want[i] {
			t.Errorf("case %d: walked %d primitives, want %d", i, got, want[i])
		}
	}
}

func TestUnrolledSaturates(t *testing.T) {
	huge := Loop{Count: 1 << 40, Body: Block{Loop{Count: 1 << 40, Body: Block{Op{Instruction: blocks.PenUp{}}}}}}
	tests := []struct {
		name string
		body Block
		want int
	}{
		{"nested product", Block{huge}, math.MaxInt},
		{"sum after saturation", Block{Op{Instruction: blocks.Start{}}, huge, Op{Instruction: blocks.PenDown{}}}, math.MaxInt},
		{"count times two", Block{Loop{Count: math.MaxInt, Body: Block{Op{Instruction: blocks.PenUp{}}, Op{Instruction: blocks.PenDown{}}}}}, math.MaxInt},
		{"empty body", Block{Loop{Count: math.MaxInt}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Program{Body: tt.body}
			if got := p.Unrolled(); got != tt.want {
				t.Errorf("Unrolled() = %d, want %d", got, tt.want)
			}
		})
	}
}

func walk(b Block) int {
	n := 0
	for _, st := range b {
		switch st := st.(type) {
		case Op:
			n++
		case Loop:
			for i := 0; i < st.Count; i++ {
				n += walk(st.Body)
			}
		}
	}
	return n
}
