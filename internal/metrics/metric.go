package metrics

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// Metric summarizes a field sampled at observer positions.
type Metric interface {
	Name() string
	Observe(pos, v coords.Vec3)
	Value() float64
	Reset()
}

// Defaults returns the metrics reported for a field kind.
func Defaults(kind field.Kind) []Metric {
	ms := []Metric{NewPeak(), NewMean(), NewHomogeneity()}
	if kind == field.B {
		ms = append(ms, NewEnergyDensity())
	}
	return ms
}

// Collect feeds every finite sample to the metrics and returns their values
// by name.
func Collect(ms []Metric, pos, values []coords.Vec3) map[string]float64 {
	for _, m := range ms {
		m.Reset()
	}
	for i, v := range values {
		if !finite(v) {
			continue
		}
		for _, m := range ms {
			m.Observe(pos[i], v)
		}
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		out[m.Name()] = m.Value()
	}
	return out
}

func finite(v coords.Vec3) bool {
	for _, c := range v {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return false
		}
	}
	return true
}
