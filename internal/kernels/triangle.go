package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// Triangle returns the field of triangular sheets carrying the magnetic
// surface charge J·n, n being the normal of the vertex order (right hand).
// A triangle has no volume, so B = μ0·H everywhere and M = J = 0.
//
// Observers on an edge and triangles of zero area give zero.
func Triangle(kind field.Kind, obs []coords.Vec3, vert [][3]coords.Vec3, pol []coords.Vec3, opts Options) ([]coords.Vec3, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := checkRows("triangle", len(obs), len(vert), len(pol)); err != nil {
		return nil, err
	}
	out := make([]coords.Vec3, len(obs))
	if kind == field.M || kind == field.J {
		return out, nil
	}
	rtol := opts.rtol()

	for i, p := range obs {
		v := vert[i]
		nrm := v[1].Sub(v[0]).Cross(v[2].Sub(v[0]))
		if nrm.IsZero() || pol[i].IsZero() {
			continue
		}
		n := nrm.Unit()
		f, ok := triangleCharge(p, v[0], v[1], v[2], n, rtol)
		if !ok {
			continue
		}
		out[i] = magnetKind(kind, f.Scale(pol[i].Dot(n)/(4*math.Pi)), pol[i], false)
	}
	return out, nil
}

// triangleCharge integrates (p - r')/|p - r'|³ over the triangle v0 v1 v2 with
// unit normal n: the signed solid angle along n plus one logarithmic term per
// edge along the edge's outward in-plane normal. ok is false on an edge.
func triangleCharge(p, v0, v1, v2, n coords.Vec3, rtol float64) (coords.Vec3, bool) {
	a, b, c := v0.Sub(p), v1.Sub(p), v2.Sub(p)
	na, nb, nc := a.Norm(), b.Norm(), c.Norm()

	var f coords.Vec3
	edges := [3][2]int{{0, 1}, {1, 2}, {2, 0}}
	vs := [3]coords.Vec3{v0, v1, v2}
	ds := [3]float64{na, nb, nc}
	for _, e := range edges {
		ev := vs[e[1]].Sub(vs[e[0]])
		l := ev.Norm()
		sum := ds[e[0]] + ds[e[1]]
		if sum-l <= rtol*l {
			return coords.Vec3{}, false
		}
		m := ev.Cross(n).Scale(1 / l)
		f = f.Add(m.Scale(math.Log((sum + l) / (sum - l))))
	}

	num := -a.Dot(b.Cross(c))
	den := na*nb*nc + a.Dot(b)*nc + a.Dot(c)*nb + b.Dot(c)*na
	scale := math.Max(na, math.Max(nb, nc))
	var omega float64
	if math.Abs(num) > rtol*scale*scale*scale {
		omega = 2 * math.Atan2(num, den)
	}
	return f.Add(n.Scale(omega)), true
}
