package blocks

import (
	"fmt"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"turtleblocks/internal/palette"
)

// Block scripts are the textual form of a block arrangement:
//
//	start
//	loop 4
//	    forward 100
//	    right 90
//	end
//
// The grammar stays flat: loop/end are markers, exactly like the blocks the
// editor places, and nesting is resolved later by the compiler.

type script struct {
	Blocks []*scriptBlock `parser:"@@*"`
}

type scriptBlock struct {
	Pos lexer.Position

	Start    bool     `parser:"  @'start'"`
	Forward  *float64 `parser:"| ('forward' | 'fd') @Number"`
	Backward *float64 `parser:"| ('backward' | 'back' | 'bk') @Number"`
	Right    *float64 `parser:"| ('right' | 'rt') @Number"`
	Left     *float64 `parser:"| ('left' | 'lt') @Number"`
	PenUp    bool     `parser:"| @('penup' | 'pu')"`
	PenDown  bool     `parser:"| @('pendown' | 'pd')"`
	Color    *string  `parser:"| 'color' @(Hex | Ident)"`
	Loop     *int     `parser:"| ('loop' | 'repeat') @Number"`
	End      bool     `parser:"| @'end'"`
}

var scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "Hex", Pattern: `#[0-9a-fA-F]{6}|#[0-9a-fA-F]{3}`},
	{Name: "Number", Pattern: `[0-9]+(?:\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
})

var scriptParser = participle.MustBuild[script](
	participle.Lexer(scriptLexer),
	participle.Elide("Whitespace", "Comment"),
)

// Parse reads a block script. name is only used in error positions.
func Parse(name, src string) (Sequence, error) {
	ast, err := scriptParser.ParseString(name, src)
	if err != nil {
		return nil, err
	}
	seq := make(Sequence, 0, len(ast.Blocks))
	for _, b := range ast.Blocks {
		in, err := b.instruction()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", b.Pos, err)
		}
		if err := Validate(in); err != nil {
			return nil, fmt.Errorf("%s: %w", b.Pos, err)
		}
		seq = append(seq, in)
	}
	return seq, nil
}

func (b *scriptBlock) instruction() (Instruction, error) {
	switch {
	case b.Start:
		return Start{}, nil
	case b.Forward != nil:
		return Forward{Distance: *b.Forward}, nil
	case b.Backward != nil:
		return Backward{Distance: *b.Backward}, nil
	case b.Right != nil:
		return TurnRight{Angle: *b.Right}, nil
	case b.Left != nil:
		return TurnLeft{Angle: *b.Left}, nil
	case b.PenUp:
		return PenUp{}, nil
	case b.PenDown:
		return PenDown{}, nil
	case b.Color != nil:
		c, err := palette.Parse(*b.Color)
		if err != nil {
			return nil, err
		}
		return SetColor{Color: c}, nil
	case b.Loop != nil:
		return LoopStart{Count: *b.Loop}, nil
	case b.End:
		return LoopEnd{}, nil
	}
	return nil, fmt.Errorf("empty block")
}
