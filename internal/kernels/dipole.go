package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// Dipole returns the field of point dipoles with moment (A·m²) at the origin.
// An observer exactly at the dipole gets the zero vector instead of the
// divergent value.
func Dipole(kind field.Kind, obs, moment []coords.Vec3) ([]coords.Vec3, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := checkRows("dipole", len(obs), len(moment)); err != nil {
		return nil, err
	}
	out := make([]coords.Vec3, len(obs))
	if kind == field.M || kind == field.J {
		return out, nil
	}

	for i, p := range obs {
		r2 := p.Norm2()
		if r2 == 0 || moment[i].IsZero() {
			continue
		}
		r := math.Sqrt(r2)
		m := moment[i]
		h := p.Scale(3 * m.Dot(p) / (r2 * r2 * r)).Sub(m.Scale(1 / (r2 * r))).Scale(1 / (4 * math.Pi))
		if kind == field.B {
			h = h.Scale(field.MU0)
		}
		out[i] = h
	}
	return out, nil
}
