package engine_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/magfield/internal/compute"
	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/engine"
	"github.com/san-kum/magfield/internal/field"
	"github.com/san-kum/magfield/internal/kernels"
	"github.com/san-kum/magfield/internal/source"
)

func expectVec(got, want coords.Vec3, rtol float64) {
	GinkgoHelper()
	scale := math.Max(got.Norm(), want.Norm())
	Expect(got.Sub(want).Norm()).To(BeNumerically("<=", rtol*scale), "got %v, want %v", got, want)
}

func single(kind field.Kind, s *source.Source, p coords.Vec3) coords.Vec3 {
	GinkgoHelper()
	res, err := engine.Evaluate(kind, []*source.Source{s}, []*source.Observer{source.Points(p)}, false, engine.DefaultOptions())
	Expect(err).NotTo(HaveOccurred())
	Expect(res.Field.Shape).To(Equal([]int{3}))
	return res.Field.Vec()
}

func mixedSources() []*source.Source {
	return []*source.Source{
		source.NewCuboid(coords.Vec3{1, 2, 3}, coords.Vec3{0.3, -0.5, 0.8}).Move(coords.Vec3{0.5, 0, -1}),
		source.NewLoop(2, 100).Rotate(coords.FromAxisAngle(coords.Vec3{1, 0, 0}, 40)),
		source.NewDipole(coords.Vec3{1, 2, 3}).Move(coords.Vec3{-2, 1, 0}),
		source.NewPolyline(5, coords.Vec3{0, 0, 0}, coords.Vec3{1, 0, 0}, coords.Vec3{1, 1, 0}).Move(coords.Vec3{0, 0, 2}),
		source.NewCylinder(1, 2, coords.Vec3{0.2, 0, 1}).Move(coords.Vec3{2, 2, 0}),
		source.NewSphere(1, coords.Vec3{0, 1, 0}).Move(coords.Vec3{-1, -1, -1}),
		source.NewCylinderSegment(0.5, 1, 1, 0, 120, coords.Vec3{1, 0, 0}).Move(coords.Vec3{0, -3, 0}),
		source.NewTriangle(coords.Vec3{}, coords.Vec3{1, 0, 0}, coords.Vec3{0, 1, 0}, coords.Vec3{0, 0, 1}).Move(coords.Vec3{3, 0, 0}),
		source.NewTetrahedron([4]coords.Vec3{{}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}, coords.Vec3{0, 0, 1}).Move(coords.Vec3{0, 3, 0}),
	}
}

var _ = Describe("Evaluate", func() {
	opts := engine.DefaultOptions()
	p := coords.Vec3{2.5, 1, 4.2}

	It("evaluates a posed source in its own frame and rotates the field back", func() {
		pos := coords.Vec3{1, 2, 3}
		rot := coords.FromAxisAngle(coords.Vec3{1, 1, 0}, 30)
		dim := coords.Vec3{1, 2, 3}
		pol := coords.Vec3{0.3, -0.5, 0.8}
		s := source.NewCuboid(dim, pol).Move(pos).Rotate(rot)

		local, err := kernels.Cuboid(field.B, []coords.Vec3{coords.ToLocal(p, pos, rot)}, []coords.Vec3{dim}, []coords.Vec3{pol}, kernels.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		expectVec(single(field.B, s, p), rot.Apply(local[0]), 1e-14)
	})

	DescribeTable("squeezes size-1 axes",
		func(sources []*source.Source, observers []*source.Observer, sum bool, shape, full []int) {
			res, err := engine.Evaluate(field.B, sources, observers, sum, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Field.Shape).To(Equal(shape))
			Expect(res.Shape).To(Equal(full))
		},
		Entry("one source, one point",
			[]*source.Source{source.NewDipole(coords.Vec3{0, 0, 1})},
			[]*source.Observer{source.Points(coords.Vec3{1, 1, 1})}, false,
			[]int{3}, []int{1, 1, 1, 3}),
		Entry("two sources",
			[]*source.Source{source.NewDipole(coords.Vec3{0, 0, 1}), source.NewLoop(1, 1)},
			[]*source.Observer{source.Points(coords.Vec3{1, 1, 1})}, false,
			[]int{2, 3}, []int{2, 1, 1, 3}),
		Entry("two sources summed",
			[]*source.Source{source.NewDipole(coords.Vec3{0, 0, 1}), source.NewLoop(1, 1)},
			[]*source.Observer{source.Points(coords.Vec3{1, 1, 1})}, true,
			[]int{3}, []int{1, 1, 1, 3}),
		Entry("moving source",
			[]*source.Source{source.NewDipole(coords.Vec3{0, 0, 1}).SetPath(source.Linear(coords.Vec3{}, coords.Vec3{0, 0, 3}, 4, coords.Identity()))},
			[]*source.Observer{source.Points(coords.Vec3{1, 1, 1})}, false,
			[]int{4, 3}, []int{1, 4, 1, 3}),
		Entry("pixel grid",
			[]*source.Source{source.NewDipole(coords.Vec3{0, 0, 1})},
			[]*source.Observer{source.Grid(coords.Vec3{0, 0, 2}, coords.Vec3{1, 0, 0}, coords.Vec3{0, 1, 0}, 3, 2)}, false,
			[]int{3, 2, 3}, []int{1, 1, 1, 3, 2, 3}),
		Entry("everything",
			[]*source.Source{
				source.NewDipole(coords.Vec3{0, 0, 1}).SetPath(source.Linear(coords.Vec3{}, coords.Vec3{0, 0, 3}, 4, coords.Identity())),
				source.NewSphere(1, coords.Vec3{0, 0, 1}),
			},
			[]*source.Observer{
				source.Line(coords.Vec3{2, 0, 0}, coords.Vec3{2, 0, 4}, 5),
				source.Line(coords.Vec3{-2, 0, 0}, coords.Vec3{-2, 0, 4}, 5),
			}, false,
			[]int{2, 4, 2, 5, 3}, []int{2, 4, 2, 5, 3}),
	)

	It("does not depend on source order", func() {
		src := mixedSources()
		obs := []*source.Observer{source.Points(p, coords.Vec3{-1, 0.5, 0.3})}
		fwd, err := engine.Evaluate(field.B, src, obs, true, opts)
		Expect(err).NotTo(HaveOccurred())

		rev := make([]*source.Source, len(src))
		for i, s := range src {
			rev[len(src)-1-i] = s
		}
		back, err := engine.Evaluate(field.B, rev, obs, true, opts)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 2; i++ {
			expectVec(back.Field.Vec(i), fwd.Field.Vec(i), 1e-12)
		}
	})

	It("keeps the per-source slots in request order", func() {
		src := mixedSources()
		res, err := engine.Evaluate(field.H, src, []*source.Observer{source.Points(p)}, false, opts)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Field.Shape).To(Equal([]int{len(src), 3}))
		for i, s := range src {
			expectVec(res.Field.Vec(i), single(field.H, s, p), 1e-15)
		}
	})

	Context("collections", func() {
		a := source.NewCuboid(coords.Vec3{1, 1, 1}, coords.Vec3{0, 0, 1})
		b := source.NewLoop(2, 10).Move(coords.Vec3{0, 0, 1})
		c := source.NewDipole(coords.Vec3{1, 0, 0}).Move(coords.Vec3{1, 1, 1})

		It("reports one slot holding the sum of the members", func() {
			res, err := engine.Evaluate(field.B, []*source.Source{source.NewCollection("ab", a, b), c}, []*source.Observer{source.Points(p)}, false, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Field.Shape).To(Equal([]int{2, 3}))
			Expect(res.Leaves).To(Equal(3))
			expectVec(res.Field.Vec(0), single(field.B, a, p).Add(single(field.B, b, p)), 1e-14)
			expectVec(res.Field.Vec(1), single(field.B, c, p), 1e-15)
		})

		It("flattens nested collections", func() {
			nested := source.NewCollection("outer", source.NewCollection("a", a), source.NewCollection("bc", b, c))
			got := single(field.B, nested, p)
			want := single(field.B, a, p).Add(single(field.B, b, p)).Add(single(field.B, c, p))
			expectVec(got, want, 1e-14)
		})

		It("gives an empty collection a zero slot", func() {
			res, err := engine.Evaluate(field.B, []*source.Source{source.NewCollection("empty"), a}, []*source.Observer{source.Points(p)}, false, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Field.Vec(0).IsZero()).To(BeTrue())
		})

		It("rejects a collection that contains itself", func() {
			loop := source.NewCollection("loop")
			loop.Children = []*source.Source{a, loop}
			_, err := engine.Evaluate(field.B, []*source.Source{loop}, []*source.Observer{source.Points(p)}, false, opts)
			Expect(err).To(MatchError(field.ErrInvalidParameter))
		})
	})

	Context("paths", func() {
		It("evaluates every step of a moving source", func() {
			path := source.Linear(coords.Vec3{0, 0, -1}, coords.Vec3{0, 0, 1}, 3, coords.Identity())
			s := source.NewDipole(coords.Vec3{0, 0, 1}).SetPath(path)
			res, err := engine.Evaluate(field.B, []*source.Source{s}, []*source.Observer{source.Points(p)}, false, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Field.Shape).To(Equal([]int{3, 3}))
			for i, pos := range path.Positions {
				static := source.NewDipole(coords.Vec3{0, 0, 1}).Move(pos)
				expectVec(res.Field.Vec(i), single(field.B, static, p), 1e-15)
			}
		})

		It("places rotated sensor pixels in the global frame", func() {
			sensor, err := source.NewSensor("s", nil, []coords.Vec3{{1, 0, 0}})
			Expect(err).NotTo(HaveOccurred())
			sensor.Move(coords.Vec3{0, 0, 0.7}).Rotate(coords.FromAxisAngle(coords.Vec3{0, 0, 1}, 90))

			s := source.NewCuboid(coords.Vec3{1, 1, 1}, coords.Vec3{0.4, 0, 1})
			res, err := engine.Evaluate(field.B, []*source.Source{s}, []*source.Observer{sensor}, false, opts)
			Expect(err).NotTo(HaveOccurred())
			expectVec(res.Field.Vec(), single(field.B, s, coords.Vec3{0, 1, 0.7}), 1e-12)
		})

		It("fails on incompatible path lengths without touching the inputs", func() {
			s := source.NewDipole(coords.Vec3{0, 0, 1}).SetPath(source.Linear(coords.Vec3{}, coords.Vec3{1, 0, 0}, 3, coords.Identity()))
			o := source.Points(p).SetPath(source.Linear(coords.Vec3{}, coords.Vec3{0, 1, 0}, 2, coords.Identity()))
			_, err := engine.Evaluate(field.B, []*source.Source{s}, []*source.Observer{o}, false, opts)
			Expect(err).To(MatchError(field.ErrPathMismatch))

			var pm *field.PathMismatchError
			Expect(errors.As(err, &pm)).To(BeTrue())
			Expect(pm.Want).To(Equal(3))
			Expect(pm.Length).To(Equal(2))
			Expect(o.Path.Positions).To(HaveLen(2))
		})

		It("broadcasts static records without modifying them", func() {
			s := source.NewCuboid(coords.Vec3{1, 1, 1}, coords.Vec3{0, 0, 1})
			o := source.Points(p).SetPath(source.Linear(coords.Vec3{}, coords.Vec3{0, 1, 0}, 5, coords.Identity()))
			res, err := engine.Evaluate(field.B, []*source.Source{s}, []*source.Observer{o}, false, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Steps).To(Equal(5))
			Expect(s.Path.Positions).To(HaveLen(1))
			Expect(s.Path.Orientations).To(HaveLen(1))
		})
	})

	Context("errors", func() {
		obs := []*source.Observer{source.Points(p)}

		It("rejects empty input", func() {
			_, err := engine.Evaluate(field.B, nil, obs, false, opts)
			Expect(err).To(MatchError(field.ErrEmptyInput))
			_, err = engine.Evaluate(field.B, []*source.Source{source.NewLoop(1, 1)}, nil, false, opts)
			Expect(err).To(MatchError(field.ErrEmptyInput))
		})

		It("rejects unknown geometries with their flat index", func() {
			bad := &source.Source{Geometry: source.Geometry(99)}
			_, err := engine.Evaluate(field.B, []*source.Source{source.NewLoop(1, 1), bad}, obs, false, opts)
			Expect(err).To(MatchError(field.ErrUnsupportedGeometry))
			var ug *field.UnsupportedGeometryError
			Expect(errors.As(err, &ug)).To(BeTrue())
			Expect(ug.Index).To(Equal(1))
		})

		It("rejects unknown field kinds", func() {
			_, err := engine.Evaluate(field.Kind('Q'), []*source.Source{source.NewLoop(1, 1)}, obs, false, opts)
			Expect(err).To(MatchError(field.ErrInvalidFieldKind))
		})

		It("rejects malformed sources and observers", func() {
			_, err := engine.Evaluate(field.B, []*source.Source{{Geometry: source.Cuboid, Dimension: []float64{1}}}, obs, false, opts)
			Expect(err).To(MatchError(field.ErrInvalidParameter))
			_, err = engine.Evaluate(field.B, []*source.Source{nil}, obs, false, opts)
			Expect(err).To(MatchError(field.ErrInvalidParameter))
			_, err = engine.Evaluate(field.B, []*source.Source{source.NewLoop(1, 1)}, []*source.Observer{{Shape: []int{1}}}, false, opts)
			Expect(err).To(MatchError(field.ErrInvalidParameter))
		})
	})

	Context("observers with differing shapes", func() {
		src := []*source.Source{source.NewDipole(coords.Vec3{0, 0, 1})}
		pts := []coords.Vec3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 1, 0}, {1, 1, 1}}
		obs := []*source.Observer{source.Points(pts[:2]...), source.Points(pts[2:]...)}

		It("merges into one flat axis and warns by default", func() {
			res, err := engine.Evaluate(field.B, src, obs, false, opts)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Field.Shape).To(Equal([]int{5, 3}))
			Expect(res.Warnings).To(HaveLen(1))
			Expect(res.Warnings[0]).To(MatchError(field.ErrHeterogeneousShape))
			for i, q := range pts {
				expectVec(res.Field.Vec(i), single(field.B, src[0], q), 1e-15)
			}
		})

		It("pads with NaN", func() {
			o := opts
			o.ShapePolicy = engine.ShapePad
			res, err := engine.Evaluate(field.B, src, obs, false, o)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Field.Shape).To(Equal([]int{2, 3, 3}))
			Expect(res.Warnings).To(HaveLen(1))
			Expect(math.IsNaN(res.Field.Vec(0, 2)[0])).To(BeTrue())
			expectVec(res.Field.Vec(0, 1), single(field.B, src[0], pts[1]), 1e-15)
			expectVec(res.Field.Vec(1, 2), single(field.B, src[0], pts[4]), 1e-15)
		})

		It("fails under the strict policy", func() {
			o := opts
			o.ShapePolicy = engine.ShapeStrict
			_, err := engine.Evaluate(field.B, src, obs, false, o)
			Expect(err).To(MatchError(field.ErrHeterogeneousShape))
		})
	})

	It("sums polyline segments into their source", func() {
		v := []coords.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 1}}
		s := source.NewPolyline(3, v...)
		local, err := kernels.LineSegment(field.H, []coords.Vec3{p, p, p}, v[:3], v[1:], []float64{3, 3, 3}, kernels.DefaultOptions())
		Expect(err).NotTo(HaveOccurred())
		expectVec(single(field.H, s, p), local[0].Add(local[1]).Add(local[2]), 1e-14)
	})

	It("gives the same numbers in parallel", func() {
		src := mixedSources()
		src[0].SetPath(source.Linear(coords.Vec3{}, coords.Vec3{0, 0, 1}, 4, coords.Identity()))
		obs := []*source.Observer{
			source.Grid(coords.Vec3{0, 0, 3}, coords.Vec3{4, 0, 0}, coords.Vec3{0, 4, 0}, 9, 7),
			source.Grid(coords.Vec3{0, 0, -3}, coords.Vec3{4, 0, 0}, coords.Vec3{0, 4, 0}, 9, 7),
		}
		serial, err := engine.Evaluate(field.B, src, obs, false, opts)
		Expect(err).NotTo(HaveOccurred())

		par := opts
		par.Parallel = true
		par.Workers = 3
		par.Backend = compute.NewCPUBackend(4).WithMinChunk(7)
		got, err := engine.Evaluate(field.B, src, obs, false, par)
		Expect(err).NotTo(HaveOccurred())
		Expect(got.Field.Shape).To(Equal(serial.Field.Shape))
		Expect(got.Field.Data).To(Equal(serial.Field.Data))
	})

	Context("field kinds", func() {
		s := source.NewCuboid(coords.Vec3{1, 1, 1}, coords.Vec3{0.1, 0.2, 1})
		srcs := []*source.Source{s}
		obs := []*source.Observer{source.Points(coords.Vec3{0.1, 0.1, 0.1}, coords.Vec3{2, 0, 1})}

		It("satisfies H + M = B/μ0 inside and outside", func() {
			b, err := engine.GetB(srcs, obs, opts)
			Expect(err).NotTo(HaveOccurred())
			h, _ := engine.GetH(srcs, obs, opts)
			m, _ := engine.GetM(srcs, obs, opts)
			j, _ := engine.GetJ(srcs, obs, opts)
			for i := 0; i < 2; i++ {
				expectVec(h.Vec(i).Add(m.Vec(i)), b.Vec(i).Scale(1/field.MU0), 1e-12)
			}
			Expect(j.Vec(0)).To(Equal(s.Polarization))
			Expect(j.Vec(1).IsZero()).To(BeTrue())
		})
	})
})

var _ = Describe("reference scenarios", func() {
	opts := engine.DefaultOptions()

	It("reproduces the on-axis H of a loop", func() {
		loop := source.NewLoop(2, 1000)
		obs := source.Points(coords.Vec3{0, 0, 0}, coords.Vec3{0, 0, 1}, coords.Vec3{0, 0, 2}, coords.Vec3{0, 0, 3})
		h, err := engine.GetH([]*source.Source{loop}, []*source.Observer{obs}, opts)
		Expect(err).NotTo(HaveOccurred())
		for i, want := range []float64{500, 176.8, 44.72, 15.81} {
			Expect(h.Vec(i).Norm()).To(BeNumerically("~", want, 1e-3*want))
		}
	})

	It("matches a sphere with the equivalent dipole outside", func() {
		pol := coords.Vec3{0.3, -0.2, 1.1}
		d := 1.2
		moment := pol.Scale(math.Pi * d * d * d / 6 / field.MU0)
		pos := coords.Vec3{0.5, 0.5, -0.2}
		sphere := source.NewSphere(d, pol).Move(pos)
		dip := source.NewDipole(moment).Move(pos)

		obs := []*source.Observer{source.Points(coords.Vec3{2, 0, 0}, coords.Vec3{-1, 1.5, 2}, coords.Vec3{0.5, 0.5, 0.5})}
		res, err := engine.Evaluate(field.B, []*source.Source{sphere, dip}, obs, false, opts)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 3; i++ {
			expectVec(res.Field.Vec(0, i), res.Field.Vec(1, i), 1e-12)
		}
	})

	It("approaches μ0·I·N/L inside a long solenoid", func() {
		const n, length, current = 1000, 100.0, 1.0
		loops := make([]*source.Source, n)
		for i := range loops {
			z := -length/2 + (float64(i)+0.5)*length/n
			loops[i] = source.NewLoop(2, current).Move(coords.Vec3{0, 0, z})
		}
		res, err := engine.Evaluate(field.B, loops, []*source.Observer{source.Points(coords.Vec3{})}, true, opts)
		Expect(err).NotTo(HaveOccurred())
		want := field.MU0 * current * n / length
		Expect(res.Field.Vec()[2]).To(BeNumerically("~", want, 1e-3*want))
	})
})
