package render

import (
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	"turtleblocks/internal/turtle"
)

// Terminal draws a coarse character view of the canvas, redrawn at the end
// of every move and after turns.
type Terminal struct {
	mu         sync.Mutex
	out        io.Writer
	cols, rows int
	cellW      float64
	cellH      float64
	cells      [][]bool
	state      turtle.State
}

// NewTerminal maps a width x height canvas onto cols x rows characters.
func NewTerminal(out io.Writer, width, height float64, cols, rows int) *Terminal {
	if cols < 1 {
		cols = 60
	}
	if rows < 1 {
		rows = 20
	}
	t := &Terminal{
		out:   out,
		cols:  cols,
		rows:  rows,
		cellW: width / float64(cols),
		cellH: height / float64(rows),
	}
	t.clearCells()
	return t
}

func (t *Terminal) clearCells() {
	t.cells = make([][]bool, t.rows)
	for y := range t.cells {
		t.cells[y] = make([]bool, t.cols)
	}
}

// Observe implements turtle.Observer.
func (t *Terminal) Observe(e turtle.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.state = e.State
	switch e.Kind {
	case turtle.EventReset:
		t.clearCells()
		t.display()
	case turtle.EventStep:
		if e.Drawn() {
			t.mark(e.From, e.To)
		}
		if e.Step == e.Of {
			t.display()
		}
	case turtle.EventTurn, turtle.EventFail:
		t.display()
	}
}

func (t *Terminal) mark(from, to turtle.Point) {
	n := int(math.Ceil(from.Dist(to)/math.Min(t.cellW, t.cellH)))*2 + 1
	for i := 0; i <= n; i++ {
		f := float64(i) / float64(n)
		if x, y, ok := t.cell(turtle.Point{X: from.X + (to.X-from.X)*f, Y: from.Y + (to.Y-from.Y)*f}); ok {
			t.cells[y][x] = true
		}
	}
}

func (t *Terminal) cell(p turtle.Point) (int, int, bool) {
	x := int(p.X / t.cellW)
	y := int(p.Y / t.cellH)
	return x, y, x >= 0 && x < t.cols && y >= 0 && y < t.rows
}

// display shows the current canvas with the turtle position.
func (t *Terminal) display() {
	fmt.Fprint(t.out, "\033[H\033[2J")
	fmt.Fprint(t.out, t.render())
}

// String returns the view without terminal control codes.
func (t *Terminal) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.render()
}

func (t *Terminal) render() string {
	var b strings.Builder
	pen := "up"
	if t.state.PenDown {
		pen = "down"
	}
	fmt.Fprintf(&b, "Heading %g° Pen %s Color %s\n", t.state.Heading, pen, t.state.Color)
	tx, ty, on := t.cell(t.state.Position)
	for y := 0; y < t.rows; y++ {
		for x := 0; x < t.cols; x++ {
			switch {
			case on && x == tx && y == ty:
				b.WriteRune(arrow(t.state.Heading))
			case t.cells[y][x]:
				b.WriteByte('#')
			default:
				b.WriteByte('.')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// arrow picks the glyph for the nearest quarter turn.
func arrow(heading float64) rune {
	switch int(math.Round(heading/90)) % 4 {
	case 1:
		return 'v'
	case 2:
		return '<'
	case 3:
		return '^'
	}
	return '>'
}
