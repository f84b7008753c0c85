package program

import (
	"fmt"
	"strconv"
	"strings"

	"turtleblocks/internal/blocks"
)

const indent = "    "

// Format renders p as Python turtle code for the editor's code preview.
// The text is for display only.
func Format(p *Program) string {
	var b strings.Builder
	formatBlock(&b, p.Body, 0)
	return b.String()
}

func formatBlock(b *strings.Builder, body Block, depth int) {
	if len(body) == 0 && depth > 0 {
		writeLine(b, depth, "pass")
		return
	}
	for _, st := range body {
		switch st := st.(type) {
		case Op:
			for _, line := range opLines(st.Instruction) {
				writeLine(b, depth, line)
			}
		case Loop:
			writeLine(b, depth, fmt.Sprintf("for i in range(%d):", st.Count))
			formatBlock(b, st.Body, depth+1)
		}
	}
}

func writeLine(b *strings.Builder, depth int, line string) {
	b.WriteString(strings.Repeat(indent, depth))
	b.WriteString(line)
	b.WriteByte('\n')
}

func opLines(in blocks.Instruction) []string {
	switch in := in.(type) {
	case blocks.Start:
		return []string{"import turtle", "t = turtle.Turtle()", "t.speed(0)"}
	case blocks.Forward:
		return []string{"t.forward(" + num(in.Distance) + ")"}
	case blocks.Backward:
		return []string{"t.backward(" + num(in.Distance) + ")"}
	case blocks.TurnRight:
		return []string{"t.right(" + num(in.Angle) + ")"}
	case blocks.TurnLeft:
		return []string{"t.left(" + num(in.Angle) + ")"}
	case blocks.PenUp:
		return []string{"t.penup()"}
	case blocks.PenDown:
		return []string{"t.pendown()"}
	case blocks.SetColor:
		return []string{"t.color('" + in.Color.String() + "')"}
	}
	return []string{fmt.Sprintf("# unsupported %T", in)}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
