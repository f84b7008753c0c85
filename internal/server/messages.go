package server

import (
	"turtleblocks/internal/blocks"
	"turtleblocks/internal/session"
	"turtleblocks/internal/turtle"
)

// Client -> server message types.
const (
	msgBlocks  = "blocks"
	msgRun     = "run"
	msgReset   = "reset"
	msgSpeed   = "speed"
	msgGrid    = "grid"
	msgPreview = "preview"
)

// Server -> client message types.
const (
	msgSession = "session"
	msgEvent   = "event"
	msgStatus  = "status"
	msgError   = "error"
)

type request struct {
	Type   string         `json:"type"`
	Blocks []blocks.Block `json:"blocks,omitempty"`
	Speed  *int           `json:"speed,omitempty"`
	Grid   *gridParams    `json:"grid,omitempty"`
}

type gridParams struct {
	Enabled bool    `json:"enabled"`
	Cell    float64 `json:"cell"`
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func toPoint(p turtle.Point) point { return point{X: p.X, Y: p.Y} }

type eventPayload struct {
	Kind    string  `json:"kind"`
	From    point   `json:"from"`
	To      point   `json:"to"`
	Step    int     `json:"step,omitempty"`
	Of      int     `json:"of,omitempty"`
	Drawn   bool    `json:"drawn"`
	Heading float64 `json:"heading"`
	PenDown bool    `json:"penDown"`
	Color   string  `json:"color"`
	Failed  bool    `json:"failed"`
	Speed   int     `json:"speed"`
	Grid    float64 `json:"grid,omitempty"`
}

func toEventPayload(e turtle.Event) *eventPayload {
	p := &eventPayload{
		Kind:    e.Kind.String(),
		From:    toPoint(e.From),
		To:      toPoint(e.To),
		Step:    e.Step,
		Of:      e.Of,
		Drawn:   e.Drawn(),
		Heading: e.State.Heading,
		PenDown: e.State.PenDown,
		Color:   e.State.Color.String(),
		Failed:  e.State.Failed,
		Speed:   e.State.Speed,
	}
	if e.State.Grid.Enabled {
		p.Grid = e.State.Grid.CellSize
	}
	return p
}

type response struct {
	Type string `json:"type"`

	// session
	ID     string  `json:"id,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
	Margin float64 `json:"margin,omitempty"`

	Event *eventPayload `json:"event,omitempty"`

	// preview
	Code string `json:"code,omitempty"`

	Status   *session.Status `json:"status,omitempty"`
	Outcome  string          `json:"outcome,omitempty"`
	Executed int             `json:"executed,omitempty"`

	Error string `json:"error,omitempty"`
}
