package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// tetraFaces lists each face with the opposite vertex last.
var tetraFaces = [4][4]int{{0, 1, 2, 3}, {0, 1, 3, 2}, {0, 2, 3, 1}, {1, 2, 3, 0}}

// Tetrahedron returns the field of homogeneously polarized tetrahedra given by
// four vertices. The charge field is the sum over the four outward oriented
// faces; the polarization is added inside.
func Tetrahedron(kind field.Kind, obs []coords.Vec3, vert [][4]coords.Vec3, pol []coords.Vec3, opts Options) ([]coords.Vec3, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := checkRows("tetrahedron", len(obs), len(vert), len(pol)); err != nil {
		return nil, err
	}
	rtol := opts.rtol()
	out := make([]coords.Vec3, len(obs))

	for i, p := range obs {
		t := newTetra(vert[i])
		inside := t.vol6 != 0 && t.contains(p, rtol)

		if kind == field.J || kind == field.M {
			out[i] = magnetKind(kind, coords.Vec3{}, pol[i], inside)
			continue
		}
		if t.vol6 == 0 || pol[i].IsZero() {
			out[i] = magnetKind(kind, coords.Vec3{}, pol[i], inside)
			continue
		}

		var f coords.Vec3
		edge := false
		for _, fc := range t.faces {
			g, ok := triangleCharge(p, fc.v[0], fc.v[1], fc.v[2], fc.n, rtol)
			if !ok {
				edge = true
				break
			}
			f = f.Add(g.Scale(pol[i].Dot(fc.n)))
		}
		if edge {
			out[i] = magnetKind(kind, coords.Vec3{}, pol[i], inside)
			continue
		}
		bf := f.Scale(1 / (4 * math.Pi))
		if inside {
			bf = bf.Add(pol[i])
		}
		out[i] = magnetKind(kind, bf, pol[i], inside)
	}
	return out, nil
}

type tetraFace struct {
	v [3]coords.Vec3
	n coords.Vec3 // outward unit normal
}

type tetra struct {
	faces [4]tetraFace
	vol6  float64
	size  float64
}

func newTetra(v [4]coords.Vec3) tetra {
	var t tetra
	t.vol6 = math.Abs(v[1].Sub(v[0]).Dot(v[2].Sub(v[0]).Cross(v[3].Sub(v[0]))))
	for i := 1; i < 4; i++ {
		t.size = math.Max(t.size, v[i].Sub(v[0]).Norm())
	}
	for k, idx := range tetraFaces {
		a, b, c, opp := v[idx[0]], v[idx[1]], v[idx[2]], v[idx[3]]
		n := b.Sub(a).Cross(c.Sub(a))
		if n.Dot(opp.Sub(a)) > 0 {
			b, c = c, b
			n = n.Scale(-1)
		}
		t.faces[k] = tetraFace{v: [3]coords.Vec3{a, b, c}, n: n.Unit()}
	}
	return t
}

// contains treats points within rtol·size of a face as inside.
func (t tetra) contains(p coords.Vec3, rtol float64) bool {
	for _, fc := range t.faces {
		if p.Sub(fc.v[0]).Dot(fc.n) > rtol*t.size {
			return false
		}
	}
	return true
}
