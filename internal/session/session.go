// Package session ties one editor's blocks to one turtle, one canvas and at
// most one running program. Everything the browser or the REPL can do goes
// through a Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"turtleblocks/internal/blocks"
	"turtleblocks/internal/interp"
	"turtleblocks/internal/logger"
	"turtleblocks/internal/program"
	"turtleblocks/internal/render"
	"turtleblocks/internal/turtle"
)

var (
	ErrBusy         = errors.New("a program is already running")
	ErrMissingStart = errors.New("program has no start block")
)

// MissingStartError is returned by Run when the sequence has blocks but no
// Start among them. It matches ErrMissingStart.
type MissingStartError struct {
	Blocks int
}

func (e *MissingStartError) Error() string {
	return fmt.Sprintf("%v (%d blocks)", ErrMissingStart, e.Blocks)
}

func (e *MissingStartError) Is(target error) bool { return target == ErrMissingStart }

// Source supplies the block sequence to run. *blocks.Editor implements it.
type Source interface {
	CurrentBlocks() blocks.Sequence
}

// Options configures New. Source is required.
type Options struct {
	ID     string
	Source Source
	Turtle turtle.Config
	Style  *render.Style
	Log    *logger.Logger
}

// Level tags a status line for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Status is the single message line shown next to the canvas.
type Status struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

type Session struct {
	ID string

	source  Source
	machine *turtle.Machine
	canvas  *render.Canvas
	interp  *interp.Interpreter
	log     *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	status Status
}

func New(opts Options) *Session {
	if opts.ID == "" {
		opts.ID = uuid.NewString()
	}
	if opts.Log == nil {
		opts.Log = logger.Discard()
	}
	style := render.DefaultStyle()
	if opts.Style != nil {
		style = *opts.Style
	}

	log := opts.Log.WithPrefix("session " + shortID(opts.ID))
	m := turtle.New(opts.Turtle)
	b := m.Bounds()
	c := render.NewCanvas(int(b.Width), int(b.Height), style)
	m.Observe(c)

	return &Session{
		ID:      opts.ID,
		source:  opts.Source,
		machine: m,
		canvas:  c,
		interp:  interp.New(m, log),
		log:     log,
		status:  Status{Level: LevelInfo, Text: "Drag blocks in and press RUN!"},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (s *Session) Canvas() *render.Canvas  { return s.canvas }
func (s *Session) State() turtle.State     { return s.machine.State() }
func (s *Session) Trail() []turtle.Segment { return s.machine.Trail() }
func (s *Session) Bounds() turtle.Bounds   { return s.machine.Bounds() }

// Observe forwards turtle events to o, starting with the current state.
func (s *Session) Observe(o turtle.Observer) { s.machine.Observe(o) }

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) setStatus(level Level, text string) {
	s.mu.Lock()
	s.status = Status{Level: level, Text: text}
	s.mu.Unlock()
}

// Busy reports whether a run is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done != nil
}

// Preview compiles the current blocks and returns the equivalent Python
// turtle script.
func (s *Session) Preview() (string, error) {
	p, err := program.Compile(s.source.CurrentBlocks())
	if err != nil {
		return "", err
	}
	return program.Format(p), nil
}

// check runs every pre-execution test. Nothing touches the turtle until it
// passes.
func check(seq blocks.Sequence) (*program.Program, error) {
	if len(seq) > 0 && !seq.HasStart() {
		return nil, &MissingStartError{Blocks: len(seq)}
	}
	return program.Compile(seq)
}

func checkMessage(err error) string {
	switch {
	case errors.Is(err, program.ErrEmptyProgram):
		return "Place some blocks before pressing RUN!"
	case errors.Is(err, ErrMissingStart):
		return "Put the start block first!"
	}
	return "Error: " + err.Error()
}

// Run compiles the current blocks, resets the turtle and executes the
// program. It blocks until the run ends; Reset or cancelling ctx stops it
// early with a Cancelled outcome. The returned error is non-nil only when
// the program never started.
func (s *Session) Run(ctx context.Context) (interp.Outcome, error) {
	exec, err := s.Start(ctx)
	if err != nil {
		return interp.Outcome{}, err
	}
	return exec(), nil
}

// Start checks and compiles the current blocks and claims the session for
// one run. From the moment it returns, the run is in flight: Busy reports
// true and Reset cancels it. The returned function executes the program
// and must be called; further calls return the same outcome.
func (s *Session) Start(ctx context.Context) (func() interp.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done != nil {
		return nil, ErrBusy
	}

	seq := s.source.CurrentBlocks()
	p, err := check(seq)
	if err != nil {
		s.status = Status{Level: LevelError, Text: checkMessage(err)}
		s.log.Info("run rejected: %v", err)
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.cancel, s.done = cancel, done
	s.status = Status{Level: LevelInfo, Text: "Running program..."}

	return sync.OnceValue(func() interp.Outcome {
		defer func() {
			cancel()
			s.mu.Lock()
			s.cancel, s.done = nil, nil
			s.mu.Unlock()
			close(done)
		}()
		return s.execute(runCtx, p, len(seq))
	}), nil
}

func (s *Session) execute(ctx context.Context, p *program.Program, n int) interp.Outcome {
	stop := s.log.Step(fmt.Sprintf("run %d blocks", n))
	s.machine.Reset()
	s.machine.SetRunning(true)
	out := s.interp.Run(ctx, p)
	s.machine.SetRunning(false)
	if out.Status == interp.Cancelled {
		// A cancelled run ends in the reset pose, not mid-move.
		s.machine.Reset()
	}
	stop()

	s.log.Outcome(out.Status.String(), out.Executed, out.Err)
	level := LevelSuccess
	switch out.Status {
	case interp.Failed:
		level = LevelError
	case interp.Cancelled:
		level = LevelInfo
	}
	s.setStatus(level, out.Message())
	return out
}

// Reset stops any run in flight, waits for it to return, then puts the
// turtle back at the center with a clean canvas. Calling it again is
// harmless.
func (s *Session) Reset() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.machine.Reset()
	s.setStatus(LevelSuccess, "Reset complete! Build a new program.")
	s.log.Debug("reset")
}

// SetSpeed applies to the next move; a move in progress keeps its pacing.
func (s *Session) SetSpeed(level int) {
	s.machine.SetSpeed(level)
	s.log.Debug("speed %d", s.machine.State().Speed)
}

func (s *Session) SetGridMode(enabled bool, cellSize float64) {
	s.machine.SetGridMode(enabled, cellSize)
}
