// Package render paints turtle events. It never moves the turtle; it only
// draws what the machine reports.
package render

import (
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"sync"

	"turtleblocks/internal/palette"
	"turtleblocks/internal/turtle"
)

// Style holds the drawing constants.
type Style struct {
	Background   color.RGBA
	GridLine     color.RGBA
	StrokeWidth  float64
	GlyphSize    float64
	GlyphFill    color.RGBA
	GlyphOutline color.RGBA
	EraseRadius  float64
}

func DefaultStyle() Style {
	return Style{
		Background:   color.RGBA{0xff, 0xff, 0xff, 0xff},
		GridLine:     color.RGBA{0xe0, 0xe0, 0xe0, 0xff},
		StrokeWidth:  2,
		GlyphSize:    15,
		GlyphFill:    color.RGBA{0x4c, 0xaf, 0x50, 0xff},
		GlyphOutline: color.RGBA{0x2e, 0x7d, 0x32, 0xff},
		EraseRadius:  30,
	}
}

type ink struct {
	from, to turtle.Point
	color    palette.Color
}

type pose struct {
	at      turtle.Point
	heading float64
	shown   bool
}

// Canvas is a raster turtle.Observer. The trail layer holds background,
// grid and ink; the frame layer is the trail plus the turtle glyph. Moving
// the glyph restores only the pixels inside its erase circle from the trail
// layer, so ink underneath is never lost.
type Canvas struct {
	mu    sync.Mutex
	style Style
	trail *image.RGBA
	frame *image.RGBA
	inks  []ink
	grid  turtle.Grid
	glyph pose
}

func NewCanvas(width, height int, style Style) *Canvas {
	r := image.Rect(0, 0, width, height)
	c := &Canvas{
		style: style,
		trail: image.NewRGBA(r),
		frame: image.NewRGBA(r),
	}
	c.paintBackground()
	draw.Draw(c.frame, r, c.trail, image.Point{}, draw.Src)
	return c
}

// Observe implements turtle.Observer.
func (c *Canvas) Observe(e turtle.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e.Kind {
	case turtle.EventReset:
		c.inks = nil
		c.grid = e.State.Grid
		c.repaint()
		c.drawGlyph(e.State.Position, e.State.Heading)
	case turtle.EventGrid:
		c.grid = e.State.Grid
		c.repaint()
		c.drawGlyph(e.State.Position, e.State.Heading)
	case turtle.EventStep:
		c.eraseGlyph()
		if e.Drawn() {
			in := ink{from: e.From, to: e.To, color: e.State.Color}
			c.inks = append(c.inks, in)
			c.stroke(c.trail, in)
			c.stroke(c.frame, in)
		}
		c.drawGlyph(e.To, e.State.Heading)
	case turtle.EventTurn, turtle.EventPen, turtle.EventColor:
		c.eraseGlyph()
		c.drawGlyph(e.State.Position, e.State.Heading)
	}
}

// Image returns a copy of the current frame.
func (c *Canvas) Image() *image.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := image.NewRGBA(c.frame.Bounds())
	draw.Draw(out, out.Bounds(), c.frame, image.Point{}, draw.Src)
	return out
}

// At reads one pixel of the current frame.
func (c *Canvas) At(x, y int) color.RGBA {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame.RGBAAt(x, y)
}

// WritePNG encodes the current frame.
func (c *Canvas) WritePNG(w io.Writer) error {
	return png.Encode(w, c.Image())
}

func (c *Canvas) paintBackground() {
	b := c.trail.Bounds()
	draw.Draw(c.trail, b, &image.Uniform{C: c.style.Background}, image.Point{}, draw.Src)
	if !c.grid.Enabled || c.grid.CellSize < 1 {
		return
	}
	for x := 0.0; x < float64(b.Dx()); x += c.grid.CellSize {
		for y := 0; y < b.Dy(); y++ {
			c.trail.SetRGBA(int(x), y, c.style.GridLine)
		}
	}
	for y := 0.0; y < float64(b.Dy()); y += c.grid.CellSize {
		for x := 0; x < b.Dx(); x++ {
			c.trail.SetRGBA(x, int(y), c.style.GridLine)
		}
	}
}

// repaint rebuilds the trail layer from recorded ink and copies it to the
// frame. The glyph is not drawn.
func (c *Canvas) repaint() {
	c.paintBackground()
	for _, in := range c.inks {
		c.stroke(c.trail, in)
	}
	draw.Draw(c.frame, c.frame.Bounds(), c.trail, image.Point{}, draw.Src)
	c.glyph.shown = false
}

func (c *Canvas) stroke(img *image.RGBA, in ink) {
	col := in.color.RGBA()
	r := c.style.StrokeWidth / 2
	minX, maxX := math.Min(in.from.X, in.to.X)-r, math.Max(in.from.X, in.to.X)+r
	minY, maxY := math.Min(in.from.Y, in.to.Y)-r, math.Max(in.from.Y, in.to.Y)+r
	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		for x := int(math.Floor(minX)); x <= int(math.Ceil(maxX)); x++ {
			p := turtle.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if segmentDist(p, in.from, in.to) <= r {
				setPixel(img, x, y, col)
			}
		}
	}
}

func (c *Canvas) eraseGlyph() {
	if !c.glyph.shown {
		return
	}
	rad := c.style.EraseRadius
	at := c.glyph.at
	for y := int(math.Floor(at.Y - rad)); y <= int(math.Ceil(at.Y+rad)); y++ {
		for x := int(math.Floor(at.X - rad)); x <= int(math.Ceil(at.X+rad)); x++ {
			p := turtle.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			if p.Dist(at) > rad || !(image.Point{X: x, Y: y}).In(c.frame.Bounds()) {
				continue
			}
			c.frame.SetRGBA(x, y, c.trail.RGBAAt(x, y))
		}
	}
	c.glyph.shown = false
}

// drawGlyph paints the turtle as a triangle pointing along heading.
func (c *Canvas) drawGlyph(at turtle.Point, heading float64) {
	tri := glyphTriangle(at, heading, c.style.GlyphSize)
	minX := math.Min(tri[0].X, math.Min(tri[1].X, tri[2].X)) - 1
	maxX := math.Max(tri[0].X, math.Max(tri[1].X, tri[2].X)) + 1
	minY := math.Min(tri[0].Y, math.Min(tri[1].Y, tri[2].Y)) - 1
	maxY := math.Max(tri[0].Y, math.Max(tri[1].Y, tri[2].Y)) + 1

	for y := int(math.Floor(minY)); y <= int(math.Ceil(maxY)); y++ {
		for x := int(math.Floor(minX)); x <= int(math.Ceil(maxX)); x++ {
			p := turtle.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}
			edge := math.Min(segmentDist(p, tri[0], tri[1]),
				math.Min(segmentDist(p, tri[1], tri[2]), segmentDist(p, tri[2], tri[0])))
			switch {
			case edge <= 1:
				setPixel(c.frame, x, y, c.style.GlyphOutline)
			case inTriangle(p, tri):
				setPixel(c.frame, x, y, c.style.GlyphFill)
			}
		}
	}
	c.glyph = pose{at: at, heading: heading, shown: true}
}

func glyphTriangle(at turtle.Point, heading, size float64) [3]turtle.Point {
	local := [3]turtle.Point{
		{X: size, Y: 0},
		{X: -size * 0.7, Y: -size * 0.7},
		{X: -size * 0.7, Y: size * 0.7},
	}
	rad := heading * math.Pi / 180
	sin, cos := math.Sincos(rad)
	var out [3]turtle.Point
	for i, p := range local {
		out[i] = turtle.Point{
			X: at.X + p.X*cos - p.Y*sin,
			Y: at.Y + p.X*sin + p.Y*cos,
		}
	}
	return out
}

func inTriangle(p turtle.Point, t [3]turtle.Point) bool {
	d1 := cross(p, t[0], t[1])
	d2 := cross(p, t[1], t[2])
	d3 := cross(p, t[2], t[0])
	neg := d1 < 0 || d2 < 0 || d3 < 0
	pos := d1 > 0 || d2 > 0 || d3 > 0
	return !(neg && pos)
}

func cross(p, a, b turtle.Point) float64 {
	return (p.X-b.X)*(a.Y-b.Y) - (a.X-b.X)*(p.Y-b.Y)
}

// segmentDist is the distance from p to the segment ab.
func segmentDist(p, a, b turtle.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return p.Dist(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return p.Dist(turtle.Point{X: a.X + t*dx, Y: a.Y + t*dy})
}

func setPixel(img *image.RGBA, x, y int, c color.RGBA) {
	if (image.Point{X: x, Y: y}).In(img.Bounds()) {
		img.SetRGBA(x, y, c)
	}
}
