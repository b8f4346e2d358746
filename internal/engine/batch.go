package engine

import (
	"github.com/san-kum/magfield/internal/compute"
	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
	"github.com/san-kum/magfield/internal/kernels"
	"github.com/san-kum/magfield/internal/source"
)

// batch is the columnar input of one geometry group: one row per
// (source, step, pixel), and for polylines per segment as well.
type batch struct {
	geom    source.Geometry
	sources int

	obs  []coords.Vec3     // observer in the source frame
	rot  []coords.Rotation // source orientation, maps results back
	dest []int             // flat index into the (leaf, step, pixel) buffer

	eval func(lo, hi int) ([]coords.Vec3, error)
	res  []coords.Vec3
}

// tile appends the rows of one leaf at one path step against every merged
// observer pixel. param appends the leaf's parameter columns once per row.
func (b *batch) tile(slot, step, m int, pos coords.Vec3, rot coords.Rotation, pixels []coords.Vec3, param func()) {
	inv := rot.Inv()
	n := len(pixels)
	base := (slot*m + step) * n
	for k, p := range pixels {
		b.obs = append(b.obs, inv.Apply(p.Sub(pos)))
		b.rot = append(b.rot, rot)
		b.dest = append(b.dest, base+k)
		param()
	}
}

// newBatch builds the group of the given geometry from the leaves at slots.
func newBatch(kind field.Kind, g source.Geometry, leaves []*source.Source, slots []int, steps [][]coords.Vec3, opts kernels.Options) (*batch, error) {
	b := &batch{geom: g, sources: len(slots)}
	m := len(steps)

	each := func(param func(s *source.Source) func()) {
		for _, i := range slots {
			s := leaves[i]
			add := param(s)
			for step := 0; step < m; step++ {
				pos, rot := s.Path.At(step)
				b.tile(i, step, m, pos, rot, steps[step], add)
			}
		}
	}

	switch g {
	case source.Loop:
		var dia, cur []float64
		each(func(s *source.Source) func() {
			return func() {
				dia = append(dia, s.Dimension[0])
				cur = append(cur, s.Current)
			}
		})
		b.eval = func(lo, hi int) ([]coords.Vec3, error) {
			return kernels.Loop(kind, b.obs[lo:hi], dia[lo:hi], cur[lo:hi], opts)
		}

	case source.Polyline:
		var start, end []coords.Vec3
		var cur []float64
		for _, i := range slots {
			s := leaves[i]
			for j := 0; j+1 < len(s.Vertices); j++ {
				a, e := s.Vertices[j], s.Vertices[j+1]
				add := func() {
					start = append(start, a)
					end = append(end, e)
					cur = append(cur, s.Current)
				}
				for step := 0; step < m; step++ {
					pos, rot := s.Path.At(step)
					b.tile(i, step, m, pos, rot, steps[step], add)
				}
			}
		}
		b.eval = func(lo, hi int) ([]coords.Vec3, error) {
			return kernels.LineSegment(kind, b.obs[lo:hi], start[lo:hi], end[lo:hi], cur[lo:hi], opts)
		}

	case source.Cuboid:
		var dim, pol []coords.Vec3
		each(func(s *source.Source) func() {
			d := coords.Vec3{s.Dimension[0], s.Dimension[1], s.Dimension[2]}
			return func() {
				dim = append(dim, d)
				pol = append(pol, s.Polarization)
			}
		})
		b.eval = func(lo, hi int) ([]coords.Vec3, error) {
			return kernels.Cuboid(kind, b.obs[lo:hi], dim[lo:hi], pol[lo:hi], opts)
		}

	case source.Sphere:
		var dia []float64
		var pol []coords.Vec3
		each(func(s *source.Source) func() {
			return func() {
				dia = append(dia, s.Dimension[0])
				pol = append(pol, s.Polarization)
			}
		})
		b.eval = func(lo, hi int) ([]coords.Vec3, error) {
			return kernels.Sphere(kind, b.obs[lo:hi], dia[lo:hi], pol[lo:hi])
		}

	case source.Cylinder:
		var dim [][2]float64
		var pol []coords.Vec3
		each(func(s *source.Source) func() {
			d := [2]float64{s.Dimension[0], s.Dimension[1]}
			return func() {
				dim = append(dim, d)
				pol = append(pol, s.Polarization)
			}
		})
		b.eval = func(lo, hi int) ([]coords.Vec3, error) {
			return kernels.Cylinder(kind, b.obs[lo:hi], dim[lo:hi], pol[lo:hi], opts)
		}

	case source.CylinderSegment:
		var dim [][5]float64
		var pol []coords.Vec3
		each(func(s *source.Source) func() {
			var d [5]float64
			copy(d[:], s.Dimension)
			return func() {
				dim = append(dim, d)
				pol = append(pol, s.Polarization)
			}
		})
		b.eval = func(lo, hi int) ([]coords.Vec3, error) {
			return kernels.CylinderSegment(kind, b.obs[lo:hi], dim[lo:hi], pol[lo:hi], opts)
		}

	case source.Triangle:
		var vert [][3]coords.Vec3
		var pol []coords.Vec3
		each(func(s *source.Source) func() {
			v := [3]coords.Vec3{s.Vertices[0], s.Vertices[1], s.Vertices[2]}
			return func() {
				vert = append(vert, v)
				pol = append(pol, s.Polarization)
			}
		})
		b.eval = func(lo, hi int) ([]coords.Vec3, error) {
			return kernels.Triangle(kind, b.obs[lo:hi], vert[lo:hi], pol[lo:hi], opts)
		}

	case source.Tetrahedron:
		var vert [][4]coords.Vec3
		var pol []coords.Vec3
		each(func(s *source.Source) func() {
			var v [4]coords.Vec3
			copy(v[:], s.Vertices)
			return func() {
				vert = append(vert, v)
				pol = append(pol, s.Polarization)
			}
		})
		b.eval = func(lo, hi int) ([]coords.Vec3, error) {
			return kernels.Tetrahedron(kind, b.obs[lo:hi], vert[lo:hi], pol[lo:hi], opts)
		}

	case source.Dipole:
		var mom []coords.Vec3
		each(func(s *source.Source) func() {
			return func() { mom = append(mom, s.Moment) }
		})
		b.eval = func(lo, hi int) ([]coords.Vec3, error) {
			return kernels.Dipole(kind, b.obs[lo:hi], mom[lo:hi])
		}

	default:
		return nil, &field.UnsupportedGeometryError{Geometry: g.String(), Index: slots[0]}
	}
	return b, nil
}

func (b *batch) rows() int { return len(b.obs) }

// run evaluates all rows, chunked by the backend, and rotates the results
// into the global frame. Chunks write disjoint parts of res.
func (b *batch) run(backend compute.Backend) error {
	b.res = make([]coords.Vec3, len(b.obs))
	return backend.Rows(len(b.obs), func(lo, hi int) error {
		v, err := b.eval(lo, hi)
		if err != nil {
			return err
		}
		for i, f := range v {
			b.res[lo+i] = coords.ToGlobal(f, b.rot[lo+i])
		}
		return nil
	})
}

// scatter adds the rows into the (leaf, step, pixel) buffer. Polyline
// segments of one source land on the same slot and are summed here.
func (b *batch) scatter(out []coords.Vec3) {
	for i, d := range b.dest {
		out[d] = out[d].Add(b.res[i])
	}
}
