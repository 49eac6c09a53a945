package viz

import (
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Viewport is the rectangle of the ground plane, in metres, shown on a canvas.
type Viewport struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

func (v Viewport) Width() float64  { return v.MaxX - v.MinX }
func (v Viewport) Height() float64 { return v.MaxY - v.MinY }

// Canvas is a braille pixel grid of Width x Height cells, each holding 2x4 dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	view          Viewport
}

func NewCanvas(w, h int, view Viewport) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		view:   view,
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set sets a dot in sub-pixel coordinates, (Width*2) x (Height*4) with y down.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// IsSet reports whether the dot at sub-pixel (x, y) is set.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Project maps a ground point to sub-pixel coordinates. Forward (x) runs
// left to right and the left side (+y) is up.
func (c *Canvas) Project(p r2.Vec) (int, int) {
	w, h := float64(c.Width*2-1), float64(c.Height*4-1)
	px := (p.X - c.view.MinX) / c.view.Width() * w
	py := (c.view.MaxY - p.Y) / c.view.Height() * h
	return int(px + 0.5), int(py + 0.5)
}

func (c *Canvas) Plot(p r2.Vec) {
	c.Set(c.Project(p))
}

func (c *Canvas) Line(a, b r2.Vec) {
	x0, y0 := c.Project(a)
	x1, y1 := c.Project(b)
	c.DrawLine(x0, y0, x1, y1)
}

// Polygon draws the closed outline through vertices.
func (c *Canvas) Polygon(vertices []r2.Vec) {
	for i := range vertices {
		c.Line(vertices[i], vertices[(i+1)%len(vertices)])
	}
}

// Cross marks p with a small plus sign.
func (c *Canvas) Cross(p r2.Vec) {
	x, y := c.Project(p)
	c.DrawLine(x-2, y, x+2, y)
	c.DrawLine(x, y-2, x, y+2)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
