// Package turtle owns the simulated turtle: its pose, pen and color, the
// boundary policy, and the step-by-step animation of moves.
package turtle

import (
	"context"
	"math"
	"sync"

	"turtleblocks/internal/palette"
)

// Config sizes the canvas and paces the animation. Zero fields take the
// defaults.
type Config struct {
	Width, Height float64
	Margin        float64
	Steps         int
	Speed         *int
	Sleep         SleepFunc
}

const (
	DefaultWidth  = 600
	DefaultHeight = 400
	DefaultMargin = 10
)

// Machine is the only writer of turtle state. Motion yields between
// animation steps; every other operation completes without yielding.
type Machine struct {
	mu        sync.Mutex
	bounds    Bounds
	steps     int
	sleep     SleepFunc
	state     State
	trail     []Segment
	observers []Observer
}

// New builds a machine in its reset state.
func New(cfg Config) *Machine {
	if cfg.Width <= 0 {
		cfg.Width = DefaultWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultHeight
	}
	if cfg.Margin <= 0 {
		cfg.Margin = DefaultMargin
	}
	if cfg.Steps <= 0 {
		cfg.Steps = DefaultSteps
	}
	if cfg.Sleep == nil {
		cfg.Sleep = Sleep
	}
	speed := DefaultSpeed
	if cfg.Speed != nil {
		speed = clampSpeed(*cfg.Speed)
	}

	m := &Machine{
		bounds: Bounds{Width: cfg.Width, Height: cfg.Height, Margin: cfg.Margin},
		steps:  cfg.Steps,
		sleep:  cfg.Sleep,
	}
	m.state.Speed = speed
	m.state.Steps, m.state.Delay = pacing(speed, m.steps)
	m.resetLocked()
	return m
}

func (m *Machine) Bounds() Bounds { return m.bounds }

// State returns a snapshot.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Trail returns the completed pen-down moves since the last reset.
func (m *Machine) Trail() []Segment {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Segment, len(m.trail))
	copy(out, m.trail)
	return out
}

// Observe registers o and immediately sends it the current state as a
// reset event so it can paint from scratch.
func (m *Machine) Observe(o Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, o)
	o.Observe(Event{Kind: EventReset, From: m.state.Position, To: m.state.Position, State: m.state})
}

func (m *Machine) publish(e Event) {
	e.State = m.state
	for _, o := range m.observers {
		o.Observe(e)
	}
}

// Reset restores the default pose, pen and color, clears the trail and the
// failed flag. Speed and grid settings are kept.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	m.publish(Event{Kind: EventReset, From: m.state.Position, To: m.state.Position})
}

func (m *Machine) resetLocked() {
	m.state.Position = m.bounds.Center()
	m.state.Heading = 0
	m.state.PenDown = true
	m.state.Color = palette.Default
	m.state.Failed = false
	m.state.Running = false
	m.trail = nil
}

// SetRunning flags whether a program is executing.
func (m *Machine) SetRunning(running bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Running = running
}

// Forward moves distance units along the heading, animating Steps
// intermediate positions. A destination outside the working area fails the
// machine and leaves the position untouched. Cancelling ctx stops the
// animation at the next step boundary.
func (m *Machine) Forward(ctx context.Context, distance float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.state.Failed {
		m.mu.Unlock()
		return nil
	}
	from := m.state.Position
	rad := m.state.Heading * math.Pi / 180
	to := Point{
		X: from.X + distance*math.Cos(rad),
		Y: from.Y + distance*math.Sin(rad),
	}
	if !m.bounds.Contains(to) {
		m.state.Failed = true
		m.publish(Event{Kind: EventFail, From: from, To: to})
		m.mu.Unlock()
		return &OutOfBoundsError{From: from, To: to, Bounds: m.bounds}
	}
	steps, delay := m.state.Steps, m.state.Delay
	m.mu.Unlock()

	for i := 1; i <= steps; i++ {
		m.mu.Lock()
		prev := m.state.Position
		next := to
		if i < steps {
			f := float64(i) / float64(steps)
			next = Point{X: from.X + (to.X-from.X)*f, Y: from.Y + (to.Y-from.Y)*f}
		}
		m.state.Position = next
		if i == steps && m.state.PenDown && from != to {
			m.trail = append(m.trail, Segment{From: from, To: to, Color: m.state.Color})
		}
		m.publish(Event{Kind: EventStep, From: prev, To: next, Step: i, Of: steps})
		m.mu.Unlock()

		if err := m.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return nil
}

// Backward is Forward with the distance negated.
func (m *Machine) Backward(ctx context.Context, distance float64) error {
	return m.Forward(ctx, -distance)
}

// TurnRight rotates clockwise on screen.
func (m *Machine) TurnRight(angle float64) { m.turn(angle) }

// TurnLeft rotates counter-clockwise on screen.
func (m *Machine) TurnLeft(angle float64) { m.turn(-angle) }

func (m *Machine) turn(delta float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Failed {
		return
	}
	m.state.Heading = normalizeHeading(m.state.Heading + delta)
	m.publish(Event{Kind: EventTurn, From: m.state.Position, To: m.state.Position})
}

func normalizeHeading(h float64) float64 {
	if math.IsNaN(h) || math.IsInf(h, 0) {
		return 0
	}
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	if h >= 360 {
		h -= 360
	}
	return h
}

func (m *Machine) PenUp()   { m.setPen(false) }
func (m *Machine) PenDown() { m.setPen(true) }

func (m *Machine) setPen(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.PenDown = down
	m.publish(Event{Kind: EventPen, From: m.state.Position, To: m.state.Position})
}

func (m *Machine) SetColor(c palette.Color) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Color = c
	m.publish(Event{Kind: EventColor, From: m.state.Position, To: m.state.Position})
}

// SetSpeed picks an animation level, clamped to [SpeedInstant, SpeedFastest].
// A move already in progress keeps its pacing.
func (m *Machine) SetSpeed(level int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Speed = clampSpeed(level)
	m.state.Steps, m.state.Delay = pacing(m.state.Speed, m.steps)
}

// SetGridMode toggles the background grid. A non-positive cell size turns
// the grid off.
func (m *Machine) SetGridMode(enabled bool, cellSize float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cellSize <= 0 {
		enabled = false
		cellSize = 0
	}
	m.state.Grid = Grid{Enabled: enabled, CellSize: cellSize}
	m.publish(Event{Kind: EventGrid, From: m.state.Position, To: m.state.Position})
}
