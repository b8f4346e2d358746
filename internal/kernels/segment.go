package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// CylinderSegment returns the field of homogeneously polarized ring sections
// dim = (r1, r2, h, phi1, phi2): inner and outer radius, height, and the
// section angles in degrees, axis along z, centered at the origin.
//
// The field is that of the surface charge J·n on the six faces. Every face
// is swept by straight charged lines whose field is exact; the sweep
// direction is integrated adaptively to opts.QuadRTol, folded around the
// observer where it lies within the swept range. Observers on an edge (two
// faces at once, within the relative surface tolerance) get zero B and H;
// on a single face the principal value is shifted to the inside limit.
func CylinderSegment(kind field.Kind, obs []coords.Vec3, dim [][5]float64, pol []coords.Vec3, opts Options) ([]coords.Vec3, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := checkRows("cylinder segment", len(obs), len(dim), len(pol)); err != nil {
		return nil, err
	}
	rtol := opts.rtol()
	q := opts.quad()
	out := make([]coords.Vec3, len(obs))

	for i, p := range obs {
		s := newSegmentShape(dim[i])
		inside := s.contains(p, rtol)

		if kind == field.J || kind == field.M {
			if s.empty() {
				inside = false
			}
			out[i] = magnetKind(kind, coords.Vec3{}, pol[i], inside)
			continue
		}
		if s.empty() || pol[i].IsZero() {
			out[i] = magnetKind(kind, coords.Vec3{}, pol[i], false)
			continue
		}

		out[i] = magnetKind(kind, s.field(p, pol[i], inside, rtol, q), pol[i], inside)
	}
	return out, nil
}

type segmentShape struct {
	r1, r2, hh float64
	phi1, phi2 float64 // radians, phi2 > phi1
	full       bool
}

func newSegmentShape(d [5]float64) segmentShape {
	s := segmentShape{
		r1:   math.Abs(d[0]),
		r2:   math.Abs(d[1]),
		hh:   math.Abs(d[2]) / 2,
		phi1: d[3] * math.Pi / 180,
		phi2: d[4] * math.Pi / 180,
	}
	if s.r1 > s.r2 {
		s.r1, s.r2 = s.r2, s.r1
	}
	if s.phi1 > s.phi2 {
		s.phi1, s.phi2 = s.phi2, s.phi1
	}
	if s.phi2-s.phi1 >= 2*math.Pi {
		s.phi2 = s.phi1 + 2*math.Pi
		s.full = true
	}
	return s
}

func (s segmentShape) empty() bool {
	return s.r2 == s.r1 || s.hh == 0 || s.phi2 == s.phi1
}

func (s segmentShape) contains(p coords.Vec3, rtol float64) bool {
	r, phi, z := coords.CartToCyl(p)
	if r-s.r2 >= rtol*s.r2 || s.r1-r >= rtol*s.r2 || math.Abs(z)-s.hh >= rtol*s.hh {
		return false
	}
	if s.full || r == 0 {
		return true
	}
	span := s.phi2 - s.phi1
	d := math.Mod(phi-s.phi1, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	tol := rtol * 2 * math.Pi
	return d <= span+tol || d >= 2*math.Pi-tol
}

type segmentSide struct {
	t, sigma float64
	// observer position along the side and its distance off the side plane
	along, off float64
}

// field is B of the charged faces at p, plus J inside. The integrals run in
// the frame turned so that the observer has azimuth zero; the section then
// spans the relative angles [t1, t2].
func (s segmentShape) field(p, j coords.Vec3, inside bool, rtol float64, q adaptive) coords.Vec3 {
	r, phi, z := coords.CartToCyl(p)
	span := s.phi2 - s.phi1
	d := math.Mod(phi-s.phi1, 2*math.Pi)
	if d < 0 {
		d += 2 * math.Pi
	}
	if !s.full && d > math.Pi+span/2 {
		d -= 2 * math.Pi
	}
	c := s.phi1 + d
	t1, t2 := -d, span-d
	sn, cs := math.Sincos(c)
	jl := turnZ(j, -sn, cs)

	tr, tz := rtol*s.r2, rtol*s.hh
	inZ := math.Abs(z) <= s.hh+tz
	inR := r >= s.r1-tr && r <= s.r2+tr
	inPhi := s.full || r == 0 || (d >= -rtol*2*math.Pi && d <= span+rtol*2*math.Pi)

	// faces through p; their distance to p is zeroed so that the integrals
	// below are principal values
	faces := make([]coords.Vec3, 0, 6)
	dOut, dIn := r-s.r2, r-s.r1
	if math.Abs(dOut) < tr && inZ && inPhi {
		faces = append(faces, coords.Vec3{1, 0, 0})
		dOut = 0
	}
	if s.r1 > 0 && math.Abs(dIn) < tr && inZ && inPhi {
		faces = append(faces, coords.Vec3{-1, 0, 0})
		dIn = 0
	}
	dTop, dBottom := z-s.hh, z+s.hh
	if math.Abs(dTop) < tz && inR && inPhi {
		faces = append(faces, coords.Vec3{0, 0, 1})
		dTop = 0
	}
	if math.Abs(dBottom) < tz && inR && inPhi {
		faces = append(faces, coords.Vec3{0, 0, -1})
		dBottom = 0
	}

	var sides []segmentSide
	if !s.full {
		for k, t := range [2]float64{t1, t2} {
			st, ct := math.Sincos(t)
			sign := 1.0
			if k == 1 {
				sign = -1
			}
			n := coords.Vec3{sign * st, -sign * ct, 0}
			sd := segmentSide{t: t, sigma: jl.Dot(n), along: r * ct, off: -r * st}
			if math.Abs(sd.off) < tr && sd.along >= s.r1-tr && sd.along <= s.r2+tr && inZ {
				faces = append(faces, n)
				sd.off = 0
			}
			sides = append(sides, sd)
		}
	}
	if len(faces) >= 2 {
		return coords.Vec3{}
	}

	sweep := func(f func(float64) coords.Vec3) coords.Vec3 {
		if s.full {
			return q.around(f, -math.Pi, math.Pi)
		}
		return q.around(f, t1, t2)
	}

	// outer and inner mantle, normals ±r̂
	f := sweep(mantleLines(dOut, z, s.r2, s.hh, jl[0], jl[1]))
	if s.r1 > 0 {
		f = f.Add(sweep(mantleLines(dIn, z, s.r1, s.hh, -jl[0], -jl[1])))
	}

	// top and bottom annular sectors, swept by radial lines
	if jl[2] != 0 {
		top := capLines(r, dTop, s.r1, s.r2, jl[2])
		bottom := capLines(r, dBottom, s.r1, s.r2, -jl[2])
		f = f.Add(sweep(func(t float64) coords.Vec3 { return top(t).Add(bottom(t)) }))
	}

	// the two radial side faces, swept by vertical lines
	ez := coords.Vec3{0, 0, 1}
	for _, sd := range sides {
		if sd.sigma == 0 {
			continue
		}
		st, ct := math.Sincos(sd.t)
		e := coords.Vec3{ct, st, 0}
		off := coords.Vec3{-st, ct, 0}.Scale(sd.off)
		sigma := sd.sigma
		line := func(v float64) coords.Vec3 {
			g, _ := lineField(z+s.hh, off.Sub(e.Scale(v)), ez, 2*s.hh, sigma, 0)
			return g
		}
		f = f.Add(q.around(line, s.r1-sd.along, s.r2-sd.along))
	}

	f = f.Scale(1 / (4 * math.Pi))
	if len(faces) == 1 {
		n := faces[0]
		f = f.Sub(n.Scale(jl.Dot(n) / 2))
	}
	if inside {
		f = f.Add(jl)
	}
	return turnZ(f, sn, cs)
}

// capLines returns the field of the radial charged line at relative azimuth t
// on an annular face lying dz below an observer at (r, 0, .). The line
// density grows with the radius as sigma·rho.
func capLines(r, dz, r1, r2, sigma float64) func(float64) coords.Vec3 {
	return func(t float64) coords.Vec3 {
		st, ct := math.Sincos(t)
		e := coords.Vec3{ct, st, 0}
		perp := coords.Vec3{r * st * st, -r * st * ct, dz}
		f, _ := lineField(r*ct-r1, perp, e, r2-r1, sigma*r1, sigma)
		return f
	}
}
