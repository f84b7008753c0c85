package blocks

import (
	"fmt"
	"strconv"

	"turtleblocks/internal/palette"
)

// Block is the editor's record of a placed block: its type name and the
// values currently selected in its parameter fields.
type Block struct {
	Type   string            `json:"type"`
	Params map[string]string `json:"params,omitempty"`
}

// Parameter field names.
const (
	ParamDistance = "distance"
	ParamAngle    = "angle"
	ParamColor    = "color"
	ParamCount    = "count"
)

// Decode resolves an editor block into a validated instruction.
func Decode(b Block) (Instruction, error) {
	kind, ok := ParseKind(b.Type)
	if !ok {
		return nil, fmt.Errorf("unknown block type %q", b.Type)
	}

	var in Instruction
	switch kind {
	case KindStart:
		in = Start{}
	case KindForward:
		d, err := floatParam(b, ParamDistance)
		if err != nil {
			return nil, err
		}
		in = Forward{Distance: d}
	case KindBackward:
		d, err := floatParam(b, ParamDistance)
		if err != nil {
			return nil, err
		}
		in = Backward{Distance: d}
	case KindTurnRight:
		a, err := floatParam(b, ParamAngle)
		if err != nil {
			return nil, err
		}
		in = TurnRight{Angle: a}
	case KindTurnLeft:
		a, err := floatParam(b, ParamAngle)
		if err != nil {
			return nil, err
		}
		in = TurnLeft{Angle: a}
	case KindPenUp:
		in = PenUp{}
	case KindPenDown:
		in = PenDown{}
	case KindSetColor:
		c, err := palette.Parse(b.Params[ParamColor])
		if err != nil {
			return nil, fmt.Errorf("block %s: %w", b.Type, err)
		}
		in = SetColor{Color: c}
	case KindLoopStart:
		raw, ok := b.Params[ParamCount]
		if !ok {
			return nil, fmt.Errorf("block %s: missing %s", b.Type, ParamCount)
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("block %s: bad %s %q", b.Type, ParamCount, raw)
		}
		in = LoopStart{Count: n}
	case KindLoopEnd:
		in = LoopEnd{}
	}

	if err := Validate(in); err != nil {
		return nil, fmt.Errorf("block %s: %w", b.Type, err)
	}
	return in, nil
}

// DecodeAll decodes a whole arrangement, reporting the first bad block.
func DecodeAll(bs []Block) (Sequence, error) {
	seq := make(Sequence, 0, len(bs))
	for i, b := range bs {
		in, err := Decode(b)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i+1, err)
		}
		seq = append(seq, in)
	}
	return seq, nil
}

// Encode is the inverse of Decode.
func Encode(in Instruction) Block {
	b := Block{Type: in.Kind().String()}
	switch in := in.(type) {
	case Forward:
		b.Params = map[string]string{ParamDistance: formatNumber(in.Distance)}
	case Backward:
		b.Params = map[string]string{ParamDistance: formatNumber(in.Distance)}
	case TurnRight:
		b.Params = map[string]string{ParamAngle: formatNumber(in.Angle)}
	case TurnLeft:
		b.Params = map[string]string{ParamAngle: formatNumber(in.Angle)}
	case SetColor:
		b.Params = map[string]string{ParamColor: in.Color.String()}
	case LoopStart:
		b.Params = map[string]string{ParamCount: strconv.Itoa(in.Count)}
	}
	return b
}

func floatParam(b Block, name string) (float64, error) {
	raw, ok := b.Params[name]
	if !ok {
		return 0, fmt.Errorf("block %s: missing %s", b.Type, name)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("block %s: bad %s %q", b.Type, name, raw)
	}
	return v, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
