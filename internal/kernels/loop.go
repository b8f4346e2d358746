package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// Loop returns the field of circular current loops in the z=0 plane, centered
// at the origin. Positive current circulates counterclockwise seen from +z.
//
// Special branches, checked in this order:
//   - zero radius: zero field
//   - observer on the wire (radius-scaled tolerance): zero field
//   - observer on the axis: closed-form axial field
//
// The general case is evaluated in coordinates divided by the loop radius.
func Loop(kind field.Kind, obs []coords.Vec3, diameter, current []float64, opts Options) ([]coords.Vec3, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := checkRows("loop", len(obs), len(diameter), len(current)); err != nil {
		return nil, err
	}
	out := make([]coords.Vec3, len(obs))
	if kind == field.M || kind == field.J {
		return out, nil
	}
	rtol := opts.rtol()

	for i, p := range obs {
		r, phi, z := coords.CartToCyl(p)
		r0 := math.Abs(diameter[i]) / 2
		cur := current[i]

		var hr, hz float64
		switch {
		case r0 == 0 || cur == 0:
		case math.Abs(r-r0) < rtol*r0 && math.Abs(z) < rtol*r0:
		case r == 0:
			hz = r0 * r0 / math.Pow(z*z+r0*r0, 1.5) * cur / 2
		default:
			hr, hz = loopH(r/r0, z/r0, r0, cur, opts)
		}

		hx, hy := coords.CylToCart(phi, hr, 0)
		h := coords.Vec3{hx, hy, hz}
		if kind == field.B {
			h = h.Scale(field.MU0)
		}
		out[i] = h
	}
	return out, nil
}

// loopH is the general loop field for dimensionless radius r and height z.
// Both components are combinations of cel in which the 1/r of the textbook
// K/E form cancels analytically.
func loopH(r, z, r0, cur float64, opts Options) (hr, hz float64) {
	dp := (1+r)*(1+r) + z*z
	dm := (1-r)*(1-r) + z*z
	kc := math.Sqrt(dm / dp)
	if kc == 0 {
		return 0, 0
	}
	sq := math.Sqrt(dp)
	pf := cur / (math.Pi * r0 * sq)
	hr = pf * z * opts.Elliptic.Cel(kc, 1, 1/dm, -1/dp)
	hz = pf * opts.Elliptic.Cel(kc, 1, (1-r)/dm, (1+r)/dp)
	return hr, hz
}
