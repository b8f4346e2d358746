package engine

import (
	"fmt"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
	"github.com/san-kum/magfield/internal/source"
)

// flatSources holds the leaves of a request in depth-first order and, for
// every requested slot, the half-open range of leaves it aggregates.
type flatSources struct {
	leaves []*source.Source
	spans  [][2]int
	open   map[*source.Source]bool
}

func flatten(sources []*source.Source) (*flatSources, error) {
	f := &flatSources{open: make(map[*source.Source]bool)}
	for i, s := range sources {
		if s == nil {
			return nil, &field.ParameterError{Source: fmt.Sprintf("source %d", i), Message: "nil source"}
		}
		start := len(f.leaves)
		if err := f.add(s); err != nil {
			return nil, err
		}
		f.spans = append(f.spans, [2]int{start, len(f.leaves)})
	}
	return f, nil
}

func (f *flatSources) add(s *source.Source) error {
	if s.Geometry != source.Collection {
		if !s.Geometry.Known() {
			return &field.UnsupportedGeometryError{Geometry: s.Geometry.String(), Index: len(f.leaves)}
		}
		if err := s.Validate(); err != nil {
			return err
		}
		f.leaves = append(f.leaves, s)
		return nil
	}

	if f.open[s] {
		return &field.ParameterError{Source: s.Label(), Message: "collection contains itself"}
	}
	if err := s.Validate(); err != nil {
		return err
	}
	f.open[s] = true
	defer delete(f.open, s)
	for _, c := range s.Children {
		if err := f.add(c); err != nil {
			return err
		}
	}
	return nil
}

// reconcile returns the common path length m. Every path must have length
// 1 or m; length-1 paths broadcast through Path.At.
func reconcile(leaves []*source.Source, observers []*source.Observer) (int, error) {
	m := 1
	for _, s := range leaves {
		m = max(m, s.Path.Len())
	}
	for _, o := range observers {
		m = max(m, o.Path.Len())
	}
	for _, s := range leaves {
		if l := s.Path.Len(); l != 1 && l != m {
			return 0, &field.PathMismatchError{Object: s.Label(), Length: l, Want: m}
		}
	}
	for _, o := range observers {
		if l := o.Path.Len(); l != 1 && l != m {
			return 0, &field.PathMismatchError{Object: o.Label(), Length: l, Want: m}
		}
	}
	return m, nil
}

// mergeObservers places every observer's pixels in the global frame at each
// step and concatenates them in observer order.
func mergeObservers(observers []*source.Observer, m int) [][]coords.Vec3 {
	steps := make([][]coords.Vec3, m)
	for s := range steps {
		for _, o := range observers {
			steps[s] = append(steps[s], o.Global(s)...)
		}
	}
	return steps
}
