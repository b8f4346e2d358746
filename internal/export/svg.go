package export

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/san-kum/magfield/internal/viz"
)

const background = "#0a0a0a"

// CanvasToSVG draws every lit Braille dot of the canvas as a circle. scale is
// the dot pitch in SVG units.
func CanvasToSVG(canvas *viz.Canvas, scale float64, color string) string {
	if canvas == nil {
		return ""
	}

	width := float64(canvas.Width) * scale * 2
	height := float64(canvas.Height) * scale * 4

	var sb strings.Builder
	header(&sb, width, height)
	fmt.Fprintf(&sb, "<g fill=%q>\n", color)

	r := scale * 0.4
	for y := 0; y < canvas.Height*4; y++ {
		for x := 0; x < canvas.Width*2; x++ {
			if !canvas.IsSet(x, y) {
				continue
			}
			cx := float64(x)*scale + scale/2
			cy := float64(y)*scale + scale/2
			fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, r)
		}
	}

	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

// Series is one curve of a field profile.
type Series struct {
	Label  string
	Color  string
	Values []float64
}

// ProfileToSVG plots the series against xs on shared axes. Non-finite values
// break the curve.
func ProfileToSVG(xs []float64, series []Series, width, height int) string {
	if len(xs) < 2 || len(series) == 0 {
		return ""
	}

	minX, maxX := bounds(xs)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, s := range series {
		lo, hi := bounds(s.Values)
		minY, maxY = math.Min(minY, lo), math.Max(maxY, hi)
	}
	if math.IsInf(minY, 0) {
		return ""
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2

	w, h := float64(width), float64(height)
	px := func(x float64) float64 { return (x - minX) / rangeX * w }
	py := func(y float64) float64 { return h - (y-minY)/rangeY*h }

	var sb strings.Builder
	header(&sb, w, h)
	if minY < 0 && minY+rangeY > 0 {
		fmt.Fprintf(&sb, "<line x1=\"0\" y1=\"%.1f\" x2=\"%.1f\" y2=\"%.1f\" stroke=\"#444\" stroke-width=\"1\"/>\n", py(0), w, py(0))
	}

	for k, s := range series {
		var d strings.Builder
		pen := false
		for i, y := range s.Values {
			if i >= len(xs) {
				break
			}
			if math.IsNaN(y) || math.IsInf(y, 0) {
				pen = false
				continue
			}
			cmd := " L"
			if !pen {
				cmd = " M"
			}
			fmt.Fprintf(&d, "%s%.1f,%.1f", cmd, px(xs[i]), py(y))
			pen = true
		}
		if d.Len() == 0 {
			continue
		}
		fmt.Fprintf(&sb, "<path fill=\"none\" stroke=%q stroke-width=\"1.5\" d=%q/>\n", s.Color, strings.TrimSpace(d.String()))
		if s.Label != "" {
			fmt.Fprintf(&sb, "<text x=\"8\" y=\"%d\" fill=%q font-family=\"monospace\" font-size=\"12\">%s</text>\n", 16*(k+1), s.Color, escape(s.Label))
		}
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// WriteFile stores an SVG document.
func WriteFile(path, svg string) error {
	if svg == "" {
		return fmt.Errorf("nothing to draw for %s", path)
	}
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func header(sb *strings.Builder, w, h float64) {
	fmt.Fprintf(sb, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"+
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%.0f\" height=\"%.0f\" viewBox=\"0 0 %.0f %.0f\">\n"+
		"<rect width=\"100%%\" height=\"100%%\" fill=%q/>\n", w, h, w, h, background)
}

func bounds(values []float64) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string { return escaper.Replace(s) }
