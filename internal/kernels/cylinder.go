package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// Cylinder returns the field of homogeneously polarized solid cylinders with
// dim = (diameter, height), axis along z, centered at the origin.
//
// The axial polarization uses the closed form of Derby & Olbert (Am. J. Phys.
// 78, 2010) through cel. The transverse polarization is carried by the
// surface charge on the mantle: its field is exact along the axis and
// integrated adaptively in azimuth to opts.QuadRTol, folded around the
// observer's azimuth where the integrand peaks. On the mantle the principal
// value is shifted to the inside limit.
//
// Observers on the rim edges, zero-size cylinders and null polarization give
// zero B and H.
func Cylinder(kind field.Kind, obs []coords.Vec3, dim [][2]float64, pol []coords.Vec3, opts Options) ([]coords.Vec3, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := checkRows("cylinder", len(obs), len(dim), len(pol)); err != nil {
		return nil, err
	}
	rtol := opts.rtol()
	q := opts.quad()
	out := make([]coords.Vec3, len(obs))

	for i, p := range obs {
		rc := math.Abs(dim[i][0]) / 2
		hh := math.Abs(dim[i][1]) / 2
		r, phi, z := coords.CartToCyl(p)

		rd := r - rc
		zd := math.Abs(z) - hh
		inside := rd < rtol*rc && zd < rtol*hh

		if kind == field.J || kind == field.M {
			out[i] = magnetKind(kind, coords.Vec3{}, pol[i], inside)
			continue
		}

		edge := math.Abs(rd) < rtol*rc && math.Abs(zd) < rtol*hh
		j := pol[i]
		var bf coords.Vec3
		if !j.IsZero() && rc*hh != 0 && !edge {
			if j[2] != 0 {
				br, bz := cylinderAxial(r/rc, z/rc, hh/rc, opts)
				bx, by := coords.CylToCart(phi, br*j[2], 0)
				bf = coords.Vec3{bx, by, bz * j[2]}
			}
			if j[0] != 0 || j[1] != 0 {
				bf = bf.Add(cylinderTransverse(r, phi, z, rc, hh, j, inside, rtol, q))
			}
		}
		out[i] = magnetKind(kind, bf, pol[i], inside)
	}
	return out, nil
}

// cylinderAxial is the unit-polarization field of an axially polarized
// cylinder of radius 1 and half height z0 at radius r and height z.
func cylinderAxial(r, z, z0 float64, opts Options) (br, bz float64) {
	ell := opts.Elliptic
	zph, zmh := z+z0, z-z0
	dpr, dmr := 1+r, 1-r

	sq0 := math.Sqrt(zmh*zmh + dpr*dpr)
	sq1 := math.Sqrt(zph*zph + dpr*dpr)

	k1 := math.Sqrt((zph*zph + dmr*dmr) / (zph*zph + dpr*dpr))
	k0 := math.Sqrt((zmh*zmh + dmr*dmr) / (zmh*zmh + dpr*dpr))
	gamma := dmr / dpr
	g2 := gamma * gamma

	br = (ell.Cel(k1, 1, 1, -1)/sq1 - ell.Cel(k0, 1, 1, -1)/sq0) / math.Pi
	bz = (zph*ell.Cel(k1, g2, 1, gamma)/sq1 - zmh*ell.Cel(k0, g2, 1, gamma)/sq0) / (math.Pi * dpr)
	return br, bz
}

// cylinderTransverse is B of the mantle charge of a cylinder polarized in the
// xy plane, plus J itself inside. The integral runs in the frame turned so
// that the observer has azimuth zero.
func cylinderTransverse(r, phi, z, rc, hh float64, j coords.Vec3, inside bool, rtol float64, q adaptive) coords.Vec3 {
	sn, cs := math.Sincos(phi)
	jl := turnZ(j, -sn, cs)

	dr := r - rc
	onMantle := math.Abs(dr) < rtol*rc && math.Abs(z) < hh
	if onMantle {
		dr = 0
	}
	f := q.around(mantleLines(dr, z, rc, hh, jl[0], jl[1]), -math.Pi, math.Pi).Scale(1 / (4 * math.Pi))
	if onMantle {
		f[0] -= jl[0] / 2
	}
	if inside {
		f[0] += jl[0]
		f[1] += jl[1]
	}
	return turnZ(f, sn, cs)
}

// mantleLines returns the field of the vertical charged line at relative
// azimuth t on the mantle of radius rho, height 2·hh, for an observer at
// (rho+dr, 0, z). The line density is rho·J·r̂ with J = (jx, jy) in the same
// frame.
func mantleLines(dr, z, rho, hh, jx, jy float64) func(float64) coords.Vec3 {
	ez := coords.Vec3{0, 0, 1}
	return func(t float64) coords.Vec3 {
		s, c := math.Sincos(t)
		sigma := jx*c + jy*s
		if sigma == 0 {
			return coords.Vec3{}
		}
		// r - rho·cos t without cancellation at small t
		h := math.Sin(t / 2)
		perp := coords.Vec3{dr + 2*rho*h*h, -rho * s, 0}
		f, _ := lineField(z+hh, perp, ez, 2*hh, sigma*rho, 0)
		return f
	}
}

// turnZ rotates v about the z axis by the angle with sine s and cosine c.
func turnZ(v coords.Vec3, s, c float64) coords.Vec3 {
	return coords.Vec3{c*v[0] - s*v[1], s*v[0] + c*v[1], v[2]}
}
