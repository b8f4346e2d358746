package engine

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/san-kum/magfield/internal/compute"
	"github.com/san-kum/magfield/internal/kernels"
)

// ShapePolicy decides the layout when observers have differing pixel shapes.
type ShapePolicy int

const (
	// ShapeMerge flattens all pixels into one observer axis and warns.
	ShapeMerge ShapePolicy = iota
	// ShapePad pads every observer to the largest pixel count with NaN,
	// giving the observer axes (K, Nmax), and warns.
	ShapePad
	// ShapeStrict fails with a HeterogeneousShapeError.
	ShapeStrict
)

func (p ShapePolicy) String() string {
	switch p {
	case ShapeMerge:
		return "merge"
	case ShapePad:
		return "pad"
	case ShapeStrict:
		return "strict"
	}
	return fmt.Sprintf("ShapePolicy(%d)", int(p))
}

func ParseShapePolicy(s string) (ShapePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "merge":
		return ShapeMerge, nil
	case "pad":
		return ShapePad, nil
	case "strict":
		return ShapeStrict, nil
	}
	return 0, fmt.Errorf("unknown shape policy: %s", s)
}

type Options struct {
	Kernel      kernels.Options
	ShapePolicy ShapePolicy

	// Parallel evaluates geometry groups concurrently and lets Backend split
	// large groups into row chunks.
	Parallel bool
	// Workers bounds concurrent groups; <= 0 means one per group.
	Workers int
	// Backend chunks rows within a group when Parallel is set. nil selects
	// the CPU backend with Workers goroutines.
	Backend compute.Backend

	Logger *zap.Logger
}

func DefaultOptions() Options {
	return Options{Kernel: kernels.DefaultOptions()}
}

func (o Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o Options) backend() compute.Backend {
	if !o.Parallel {
		return compute.Serial{}
	}
	if o.Backend != nil {
		return o.Backend
	}
	return compute.NewCPUBackend(o.Workers)
}
