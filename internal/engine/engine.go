package engine

import (
	"fmt"
	"math"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
	"github.com/san-kum/magfield/internal/source"
)

// Result is the outcome of one evaluation.
type Result struct {
	Kind field.Kind
	// Field is the squeezed result tensor.
	Field *field.Tensor
	// Shape is the layout before squeezing: (L, M, K, N1, ..., 3), with L = 1
	// when summed.
	Shape []int

	Sources   int // requested slots
	Leaves    int // sources after flattening collections
	Steps     int
	Observers int
	Pixels    int

	// Warnings holds recoverable degradations, currently the
	// HeterogeneousShapeError of the merge and pad policies.
	Warnings []error
}

// Evaluate computes the field kind of every source at every observer pixel
// and path step. Collections contribute one slot holding the sum of their
// leaves. With sum set the source axis is summed away. Every size-1 axis
// except the component axis is squeezed from Result.Field.
//
// Sources and observers are only read.
func Evaluate(kind field.Kind, sources []*source.Source, observers []*source.Observer, sum bool, opts Options) (*Result, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, &field.EmptyInputError{What: "no sources"}
	}
	if len(observers) == 0 {
		return nil, &field.EmptyInputError{What: "no observers"}
	}
	log := opts.logger()

	flat, err := flatten(sources)
	if err != nil {
		return nil, err
	}
	for i, o := range observers {
		if o == nil {
			return nil, &field.ParameterError{Source: fmt.Sprintf("observer %d", i), Message: "nil observer"}
		}
		if err := o.Validate(); err != nil {
			return nil, err
		}
	}
	m, err := reconcile(flat.leaves, observers)
	if err != nil {
		return nil, err
	}

	steps := mergeObservers(observers, m)
	n := len(steps[0])
	nleaves := len(flat.leaves)
	log.Debug("evaluate",
		zap.Stringer("kind", kind),
		zap.Int("sources", len(sources)),
		zap.Int("leaves", nleaves),
		zap.Int("steps", m),
		zap.Int("pixels", n),
	)

	buf := make([]coords.Vec3, nleaves*m*n)
	if err := evaluateGroups(kind, flat.leaves, steps, buf, opts); err != nil {
		return nil, err
	}
	slots := aggregate(buf, flat.spans, m*n)

	res := &Result{
		Kind:      kind,
		Sources:   len(sources),
		Leaves:    nleaves,
		Steps:     m,
		Observers: len(observers),
		Pixels:    n,
	}
	t, warn, err := layout(slots, len(sources), m, n, observers, opts.ShapePolicy)
	if err != nil {
		return nil, err
	}
	if warn != nil {
		log.Warn("observer shapes differ", zap.Error(warn), zap.Stringer("policy", opts.ShapePolicy))
		res.Warnings = append(res.Warnings, warn)
	}

	if sum {
		summed := t.SumLeading()
		t = &field.Tensor{Shape: append([]int{1}, summed.Shape...), Data: summed.Data}
	}
	res.Shape = slices.Clone(t.Shape)
	res.Field = t.Squeeze()
	return res, nil
}

// GetB computes the flux density B in T of sources at observers as a squeezed tensor.
func GetB(sources []*source.Source, observers []*source.Observer, opts Options) (*field.Tensor, error) {
	return get(field.B, sources, observers, opts)
}

// GetH computes the field intensity H in A/m of sources at observers as a squeezed tensor.
func GetH(sources []*source.Source, observers []*source.Observer, opts Options) (*field.Tensor, error) {
	return get(field.H, sources, observers, opts)
}

// GetM computes the magnetization M in A/m of sources at observers as a squeezed tensor.
func GetM(sources []*source.Source, observers []*source.Observer, opts Options) (*field.Tensor, error) {
	return get(field.M, sources, observers, opts)
}

// GetJ computes the polarization J in T of sources at observers as a squeezed tensor.
func GetJ(sources []*source.Source, observers []*source.Observer, opts Options) (*field.Tensor, error) {
	return get(field.J, sources, observers, opts)
}

func get(kind field.Kind, sources []*source.Source, observers []*source.Observer, opts Options) (*field.Tensor, error) {
	res, err := Evaluate(kind, sources, observers, false, opts)
	if err != nil {
		return nil, err
	}
	return res.Field, nil
}

// evaluateGroups partitions the leaves by geometry, runs one batch per
// group and scatters the results into buf in a fixed geometry order.
func evaluateGroups(kind field.Kind, leaves []*source.Source, steps [][]coords.Vec3, buf []coords.Vec3, opts Options) error {
	log := opts.logger()
	groups := make(map[source.Geometry][]int)
	for i, s := range leaves {
		groups[s.Geometry] = append(groups[s.Geometry], i)
	}

	var batches []*batch
	for _, g := range source.Leaves {
		slots := groups[g]
		if len(slots) == 0 {
			continue
		}
		b, err := newBatch(kind, g, leaves, slots, steps, opts.Kernel)
		if err != nil {
			return err
		}
		log.Debug("group", zap.Stringer("geometry", g), zap.Int("sources", b.sources), zap.Int("rows", b.rows()))
		batches = append(batches, b)
	}

	backend := opts.backend()
	if !opts.Parallel || len(batches) == 1 {
		for _, b := range batches {
			if err := b.run(backend); err != nil {
				return err
			}
		}
	} else {
		var g errgroup.Group
		if opts.Workers > 0 {
			g.SetLimit(opts.Workers)
		}
		for _, b := range batches {
			b := b
			g.Go(func() error { return b.run(backend) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}

	for _, b := range batches {
		b.scatter(buf)
	}
	return nil
}

// aggregate sums the leaves of every requested slot. block is the number of
// vectors per leaf (steps × pixels).
func aggregate(buf []coords.Vec3, spans [][2]int, block int) []coords.Vec3 {
	out := make([]coords.Vec3, len(spans)*block)
	for r, sp := range spans {
		dst := out[r*block : (r+1)*block]
		for leaf := sp[0]; leaf < sp[1]; leaf++ {
			src := buf[leaf*block : (leaf+1)*block]
			for i, v := range src {
				dst[i] = dst[i].Add(v)
			}
		}
	}
	return out
}

// layout writes the (slot, step, pixel) vectors into a tensor whose
// observer axes follow the observer shapes.
func layout(vecs []coords.Vec3, l, m, n int, observers []*source.Observer, policy ShapePolicy) (*field.Tensor, *field.HeterogeneousShapeError, error) {
	k := len(observers)

	uniform := true
	for _, o := range observers[1:] {
		if !slices.Equal(o.Shape, observers[0].Shape) {
			uniform = false
			break
		}
	}
	if uniform {
		shape := append([]int{l, m, k}, observers[0].Shape...)
		return fill(vecs, append(shape, 3)), nil, nil
	}

	shapes := make([][]int, k)
	for i, o := range observers {
		shapes[i] = slices.Clone(o.Shape)
	}
	het := &field.HeterogeneousShapeError{Shapes: shapes, Policy: policy.String()}

	switch policy {
	case ShapeStrict:
		return nil, nil, het
	case ShapePad:
		nmax := 0
		for _, o := range observers {
			nmax = max(nmax, len(o.Pixels))
		}
		t := field.NewTensor(l, m, k, nmax, 3)
		for i := range t.Data {
			t.Data[i] = math.NaN()
		}
		for lm := 0; lm < l*m; lm++ {
			off := 0
			for o, obs := range observers {
				for p := range obs.Pixels {
					v := vecs[lm*n+off+p]
					copy(t.Data[((lm*k+o)*nmax+p)*3:], v[:])
				}
				off += len(obs.Pixels)
			}
		}
		return t, het, nil
	case ShapeMerge:
		return fill(vecs, []int{l, m, 1, n, 3}), het, nil
	}
	return nil, nil, fmt.Errorf("unknown shape policy %v", policy)
}

func fill(vecs []coords.Vec3, shape []int) *field.Tensor {
	t := field.NewTensor(shape...)
	for i, v := range vecs {
		copy(t.Data[3*i:], v[:])
	}
	return t
}
