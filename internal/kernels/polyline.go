package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// LineSegment returns the field of straight current segments flowing from
// start to end. Zero-length segments and observers on the segment's line
// give zero.
func LineSegment(kind field.Kind, obs, start, end []coords.Vec3, current []float64, opts Options) ([]coords.Vec3, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := checkRows("polyline", len(obs), len(start), len(end), len(current)); err != nil {
		return nil, err
	}
	out := make([]coords.Vec3, len(obs))
	if kind == field.M || kind == field.J {
		return out, nil
	}
	rtol := opts.rtol()

	for i, p := range obs {
		l := end[i].Sub(start[i]).Norm()
		if l == 0 || current[i] == 0 {
			continue
		}
		a := start[i].Sub(p)
		b := end[i].Sub(p)
		axb := a.Cross(b)
		if axb.Norm() < rtol*l*l {
			continue
		}
		na, nb := a.Norm(), b.Norm()
		f := current[i] / (4 * math.Pi) * (na + nb) / (na * nb * (na*nb + a.Dot(b)))
		h := axb.Scale(f)
		if kind == field.B {
			h = h.Scale(field.MU0)
		}
		out[i] = h
	}
	return out, nil
}
