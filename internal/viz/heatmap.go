package viz

import (
	"math"
	"strings"
)

var ramp = []rune(" ░▒▓█")

// Heatmap renders values[i][j] (column i, row j) as shaded blocks, row 0 at
// the bottom, scaled between the smallest and largest finite value.
// Non-finite values are left blank.
func Heatmap(values [][]float64) string {
	if len(values) == 0 || len(values[0]) == 0 {
		return ""
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, col := range values {
		for _, v := range col {
			if !math.IsNaN(v) && !math.IsInf(v, 0) {
				lo = math.Min(lo, v)
				hi = math.Max(hi, v)
			}
		}
	}
	rng := hi - lo
	if rng <= 0 {
		rng = 1
	}

	var b strings.Builder
	for j := len(values[0]) - 1; j >= 0; j-- {
		for i := range values {
			v := values[i][j]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				b.WriteString("  ")
				continue
			}
			norm := (v - lo) / rng
			idx := max(0, min(int(norm*float64(len(ramp)-1)+0.5), len(ramp)-1))
			cell := shade(ramp[idx], norm)
			b.WriteString(cell + cell)
		}
		b.WriteString("\n")
	}
	return b.String()
}
