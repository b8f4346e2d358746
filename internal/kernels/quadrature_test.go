package kernels

import (
	"math"
	"testing"

	"github.com/san-kum/magfield/internal/coords"
)

func TestKronrodPolynomials(t *testing.T) {
	const lo, hi = -1.0, 2.0
	for k := 0; k <= 20; k++ {
		f := func(x float64) coords.Vec3 { return coords.Vec3{math.Pow(x, float64(k)), 1, 0} }
		got := kronrod(f, lo, hi)
		want := (math.Pow(hi, float64(k+1)) - math.Pow(lo, float64(k+1))) / float64(k+1)
		if math.Abs(got.val[0]-want) > 1e-13*math.Max(1, math.Abs(want)) {
			t.Errorf("x^%d: got %v, want %v", k, got.val[0], want)
		}
		if math.Abs(got.val[1]-(hi-lo)) > 1e-14 {
			t.Errorf("x^%d: constant integrates to %v", k, got.val[1])
		}
	}
}

func TestAdaptivePeak(t *testing.T) {
	q := DefaultOptions().quad()
	for _, eps := range []float64{1e-2, 1e-4, 1e-6, 1e-9} {
		f := func(x float64) coords.Vec3 { return coords.Vec3{eps / (x*x + eps*eps), 0, 0} }
		want := 2 * math.Atan(1/eps)

		if got := q.around(f, -1, 1)[0]; math.Abs(got-want) > 1e-9*want {
			t.Errorf("around eps=%g: got %v, want %v", eps, got, want)
		}
		if got := q.integrate(f, -1, 0, 1)[0]; math.Abs(got-want) > 1e-9*want {
			t.Errorf("break at peak eps=%g: got %v, want %v", eps, got, want)
		}
	}
}

func TestAroundPrincipalValue(t *testing.T) {
	q := DefaultOptions().quad()
	f := func(x float64) coords.Vec3 { return coords.Vec3{1 / x, 1, x * x} }

	got := q.around(f, -1, 2)
	vecClose(t, "straddling", got, coords.Vec3{math.Ln2, 3, 3}, 1e-12)

	got = q.around(f, 0.5, 1.5)
	vecClose(t, "one sided", got, coords.Vec3{math.Log(3), 1, (1.5*1.5*1.5 - 0.5*0.5*0.5) / 3}, 1e-12)
}

func TestAdaptivePanelCap(t *testing.T) {
	q := adaptive{rtol: 1e-15, maxPanels: 3}
	calls := 0
	f := func(x float64) coords.Vec3 {
		calls++
		return coords.Vec3{math.Sqrt(math.Abs(x)), 0, 0}
	}
	got := q.integrate(f, -1, 1)
	if math.Abs(got[0]-4.0/3) > 1e-3 {
		t.Errorf("got %v, want about 4/3", got[0])
	}
	// one initial panel and two bisections
	if calls != 5*15 {
		t.Errorf("%d evaluations, want %d", calls, 5*15)
	}
}

func TestLineField(t *testing.T) {
	e := coords.Vec3{1, 2, -1}.Unit()
	const length, lam0, lam1 = 1.5, 0.7, -0.3

	ref := adaptive{rtol: 1e-13, maxPanels: 1000}
	numeric := func(p coords.Vec3) coords.Vec3 {
		return ref.integrate(func(s float64) coords.Vec3 {
			q := p.Sub(e.Scale(s))
			d := q.Norm()
			return q.Scale((lam0 + lam1*s) / (d * d * d))
		}, 0, length/2, length)
	}
	split := func(p coords.Vec3) (float64, coords.Vec3) {
		b := p.Dot(e)
		return b, p.Sub(e.Scale(b))
	}

	tests := []struct {
		name string
		p    coords.Vec3
	}{
		{"beside", coords.Vec3{0.3, 0.4, 1.2}},
		{"far", coords.Vec3{3, 4, -2}},
		{"behind", coords.Vec3{-2, -4, 2}},
		{"extension after end", e.Scale(2.5)},
		{"extension before start", e.Scale(-0.5)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, perp := split(tt.p)
			got, ok := lineField(b, perp, e, length, lam0, lam1)
			if !ok {
				t.Fatal("unexpected singular line")
			}
			vecClose(t, "field", got, numeric(tt.p), 1e-10)
		})
	}

	if _, ok := lineField(0.5, coords.Vec3{}, e, length, 1, 0); ok {
		t.Error("point on the line must be singular")
	}
}

func TestLineFieldCloseToLine(t *testing.T) {
	// uniform line of length 2 seen from its midpoint at distance d:
	// |F| = 2 / (d·sqrt(1 + d²))
	e := coords.Vec3{0, 0, 1}
	for _, d := range []float64{1e-3, 1e-8, 1e-12} {
		got, ok := lineField(1, coords.Vec3{d, 0, 0}, e, 2, 1, 0)
		if !ok {
			t.Fatalf("d=%g: unexpected singular line", d)
		}
		want := coords.Vec3{2 / (d * math.Sqrt(1+d*d)), 0, 0}
		vecClose(t, "midpoint", got, want, 1e-12)
	}
}
