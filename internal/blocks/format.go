package blocks

import (
	"fmt"
	"strings"
)

// Format prints a sequence as a block script that Parse reads back. Loop
// bodies are indented by four spaces; a stray end is printed at the current
// depth rather than rejected.
func Format(seq Sequence) string {
	var b strings.Builder
	depth := 0
	for _, in := range seq {
		if in.Kind() == KindLoopEnd && depth > 0 {
			depth--
		}
		b.WriteString(strings.Repeat("    ", depth))
		b.WriteString(FormatInstruction(in))
		b.WriteByte('\n')
		if in.Kind() == KindLoopStart {
			depth++
		}
	}
	return b.String()
}

// FormatInstruction prints a single block in script syntax.
func FormatInstruction(in Instruction) string {
	switch in := in.(type) {
	case Start:
		return "start"
	case Forward:
		return "forward " + formatNumber(in.Distance)
	case Backward:
		return "backward " + formatNumber(in.Distance)
	case TurnRight:
		return "right " + formatNumber(in.Angle)
	case TurnLeft:
		return "left " + formatNumber(in.Angle)
	case PenUp:
		return "penup"
	case PenDown:
		return "pendown"
	case SetColor:
		return "color " + in.Color.String()
	case LoopStart:
		return fmt.Sprintf("loop %d", in.Count)
	case LoopEnd:
		return "end"
	}
	return fmt.Sprintf("// unknown %T", in)
}
