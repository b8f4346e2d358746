package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// Sphere returns the field of homogeneously polarized spheres centered at the
// origin. Inside, B is two thirds of the polarization; outside it equals the
// field of a dipole carrying the sphere's total moment.
func Sphere(kind field.Kind, obs []coords.Vec3, diameter []float64, pol []coords.Vec3) ([]coords.Vec3, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := checkRows("sphere", len(obs), len(diameter), len(pol)); err != nil {
		return nil, err
	}
	out := make([]coords.Vec3, len(obs))

	for i, p := range obs {
		rs := math.Abs(diameter[i]) / 2
		if rs == 0 {
			continue
		}
		r2 := p.Norm2()
		r := math.Sqrt(r2)
		inside := r <= rs

		var bf coords.Vec3
		switch {
		case kind == field.J || kind == field.M:
		case inside:
			bf = pol[i].Scale(2.0 / 3)
		default:
			j := pol[i]
			r5 := r2 * r2 * r
			bf = p.Scale(3 * j.Dot(p)).Sub(j.Scale(r2)).Scale(rs * rs * rs / 3 / r5)
		}
		out[i] = magnetKind(kind, bf, pol[i], inside)
	}
	return out, nil
}
