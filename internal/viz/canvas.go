package viz

import (
	"math"
	"strings"
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

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = 0x2800
		}
	}
	return c
}

// Set sets a pixel at (x, y) in sub-pixel coordinates.
// The canvas size in sub-pixels is (Width*2) x (Height*4).
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

// IsSet reports whether the sub-pixel (x, y) is lit.
func (c *Canvas) IsSet(x, y int) bool {
	if x < 0 || y < 0 || x/2 >= c.Width || y/4 >= c.Height {
		return false
	}
	return c.Grid[y/4][x/2]&rune(pixelMap[y%4][x%2]) != 0
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Quiver draws one stroke per grid sample along its in-plane field
// direction. u[i][j] and v[i][j] are the components along the grid axes at
// column i and row j; row 0 is drawn at the bottom. Each sample owns a
// cell by cell block of sub-pixels. Vanishing vectors leave a single dot.
func Quiver(u, v [][]float64, cell int) *Canvas {
	nx := len(u)
	if nx == 0 {
		return NewCanvas(0, 0)
	}
	ny := len(u[0])
	cell = max(cell, 4)
	c := NewCanvas((nx*cell+1)/2, (ny*cell+3)/4)

	half := float64(cell)/2 - 1
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			cx := i*cell + cell/2
			cy := (ny-1-j)*cell + cell/2
			n := math.Hypot(u[i][j], v[i][j])
			if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
				c.Set(cx, cy)
				continue
			}
			dx := int(math.Round(u[i][j] / n * half))
			dy := int(math.Round(v[i][j] / n * half))
			c.DrawLine(cx-dx, cy+dy, cx+dx, cy-dy)
		}
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
