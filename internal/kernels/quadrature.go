package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
)

// Gauss-Kronrod (7, 15) rule on [-1, 1]: the positive Kronrod abscissae and
// weights, center last. Every second abscissa and the center are the Gauss
// nodes weighted by gaussW.
var (
	kronrodX = [8]float64{
		0.991455371120812639206854697526329,
		0.949107912342758524526189684047851,
		0.864864423359769072789712788640926,
		0.741531185599394439863864773280788,
		0.586087235467691130294144845693013,
		0.405845151377397166906606412076961,
		0.207784955007898467600689403773245,
		0,
	}
	kronrodW = [8]float64{
		0.022935322010529224963732008058970,
		0.063092092629978553290700663189204,
		0.104790010322250183839876322541518,
		0.140653259715525918745189590510238,
		0.169004726639267902826583426598550,
		0.190350578064785409913256402421014,
		0.204432940075298892414161999234649,
		0.209482141084727828012999174891714,
	}
	gaussW = [4]float64{
		0.129484966168869693270611432679082,
		0.279705391489276667901467771423780,
		0.381830050505118944950369775488975,
		0.417959183673469387755102040816327,
	}
)

// panel is one subinterval of an adaptive integral with its Kronrod value,
// the Gauss-Kronrod difference as error estimate and the integral of |f|.
type panel struct {
	lo, hi float64
	val    coords.Vec3
	err    float64
	abs    float64
}

func kronrod(f func(float64) coords.Vec3, lo, hi float64) panel {
	c, h := (lo+hi)/2, (hi-lo)/2
	fc := f(c)
	k := fc.Scale(kronrodW[7])
	g := fc.Scale(gaussW[3])
	abs := fc.Norm() * kronrodW[7]
	for i := 0; i < 7; i++ {
		x := h * kronrodX[i]
		f1, f2 := f(c-x), f(c+x)
		s := f1.Add(f2)
		k = k.Add(s.Scale(kronrodW[i]))
		abs += (f1.Norm() + f2.Norm()) * kronrodW[i]
		if i%2 == 1 {
			g = g.Add(s.Scale(gaussW[i/2]))
		}
	}
	k, g = k.Scale(h), g.Scale(h)
	return panel{lo: lo, hi: hi, val: k, err: k.Sub(g).Norm(), abs: abs * math.Abs(h)}
}

// adaptive integrates vector valued functions by repeatedly bisecting the
// panel with the largest error estimate, until the summed estimate drops
// under rtol relative to the result or maxPanels panels are in use.
type adaptive struct {
	rtol      float64
	maxPanels int
}

// integrate returns the integral of f over [breaks[0], breaks[len-1]],
// starting with one panel per pair of consecutive break points.
func (q adaptive) integrate(f func(float64) coords.Vec3, breaks ...float64) coords.Vec3 {
	ps := make([]panel, 0, 16)
	for i := 1; i < len(breaks); i++ {
		if breaks[i] > breaks[i-1] {
			ps = append(ps, kronrod(f, breaks[i-1], breaks[i]))
		}
	}
	for {
		var total coords.Vec3
		var err, abs float64
		worst := 0
		for i, p := range ps {
			total = total.Add(p.val)
			err += p.err
			abs += p.abs
			if p.err > ps[worst].err {
				worst = i
			}
		}
		if len(ps) == 0 || err <= math.Max(q.rtol*total.Norm(), 1e-14*abs) || len(ps) >= q.maxPanels {
			return total
		}

		p := ps[worst]
		mid := (p.lo + p.hi) / 2
		if mid <= p.lo || mid >= p.hi {
			// panel at the resolution limit, keep it as it is
			ps[worst].err = 0
			continue
		}
		ps[worst] = kronrod(f, p.lo, mid)
		ps = append(ps, kronrod(f, mid, p.hi))
	}
}

// around integrates f over the offsets [lo, hi] around a peak at offset 0.
// Where the interval straddles the peak, f(u) and f(-u) are summed before
// integration so that parts odd about the peak cancel pointwise.
func (q adaptive) around(f func(float64) coords.Vec3, lo, hi float64) coords.Vec3 {
	if !(lo < 0 && 0 < hi) {
		return q.integrate(f, lo, (lo+hi)/2, hi)
	}
	a := math.Min(-lo, hi)
	pair := func(u float64) coords.Vec3 { return f(u).Add(f(-u)) }
	total := q.integrate(pair, 0, a/4, a/2, a)
	if -lo > a {
		total = total.Add(q.integrate(f, lo, (lo-a)/2, -a))
	}
	if hi > a {
		total = total.Add(q.integrate(f, a, (a+hi)/2, hi))
	}
	return total
}

// lineField integrates (lam0 + lam1·t)·(q - t·e)/|q - t·e|³ for t in
// [0, length], e a unit vector and q the observer relative to the line start,
// given as its component b along e and the remainder perp. This is the field
// (up to 1/4π) of a straight line charge whose density varies linearly along
// the line. Callers pass perp directly so that it keeps full relative
// precision close to the line. ok is false when the observer lies on the line
// segment itself (to rounding), where the integral diverges.
func lineField(b float64, perp, e coords.Vec3, length, lam0, lam1 float64) (coords.Vec3, bool) {
	d2 := perp.Norm2()

	s0, s1 := -b, length-b
	r0 := math.Sqrt(s0*s0 + d2)
	r1 := math.Sqrt(s1*s1 + d2)
	if r0 == 0 || r1 == 0 {
		return coords.Vec3{}, false
	}

	var k0, k2 float64
	k1 := 1/r0 - 1/r1
	if s0*s1 > 0 {
		// both ends on the same side of the foot point: cancellation-free forms
		// that stay finite on the line's extension
		k0 = (s1*s1 - s0*s0) / (r0 * r1 * (s1*r0 + s0*r1))
		ash := math.Log((math.Abs(s1) + r1) / (math.Abs(s0) + r0))
		if s1 < 0 {
			ash = -ash
		}
		k2 = ash - d2*k0
	} else {
		if d2 <= 1e-30*length*length {
			return coords.Vec3{}, false
		}
		t := s1/r1 - s0/r0
		d := math.Sqrt(d2)
		k0 = t / d2
		k2 = math.Asinh(s1/d) - math.Asinh(s0/d) - t
	}

	c0 := lam0 + lam1*b
	return perp.Scale(c0*k0 + lam1*k1).Sub(e.Scale(c0*k1 + lam1*k2)), true
}
