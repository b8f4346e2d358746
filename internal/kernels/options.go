package kernels

import (
	"fmt"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/elliptic"
	"github.com/san-kum/magfield/internal/field"
)

// Options carries the numeric knobs of the kernels.
type Options struct {
	// SurfaceRTol is the distance, relative to the source size, under which an
	// observer counts as lying on a surface, edge or singular ring.
	SurfaceRTol float64
	Elliptic    elliptic.Config
	// QuadRTol is the relative error target of the adaptive surface-charge
	// integrals of cylinders and cylinder segments.
	QuadRTol float64
	// QuadMaxPanels caps the panels a single adaptive integral may use.
	QuadMaxPanels int
}

func DefaultOptions() Options {
	return Options{
		SurfaceRTol:   1e-15,
		Elliptic:      elliptic.DefaultConfig(),
		QuadRTol:      1e-10,
		QuadMaxPanels: 1000,
	}
}

func (o Options) rtol() float64 {
	if o.SurfaceRTol <= 0 {
		return DefaultOptions().SurfaceRTol
	}
	return o.SurfaceRTol
}

func (o Options) quad() adaptive {
	q := adaptive{rtol: o.QuadRTol, maxPanels: o.QuadMaxPanels}
	if q.rtol <= 0 {
		q.rtol = DefaultOptions().QuadRTol
	}
	if q.maxPanels <= 0 {
		q.maxPanels = DefaultOptions().QuadMaxPanels
	}
	return q
}

func checkRows(name string, n int, lens ...int) error {
	for _, l := range lens {
		if l != n {
			return &field.ParameterError{Source: name, Message: fmt.Sprintf("column length %d, want %d", l, n)}
		}
	}
	return nil
}

// magnetKind converts the flux density b of a magnet with polarization pol into
// the requested kind. inside selects the demagnetizing relation for H.
func magnetKind(kind field.Kind, b, pol coords.Vec3, inside bool) coords.Vec3 {
	switch kind {
	case field.J:
		if inside {
			return pol
		}
		return coords.Vec3{}
	case field.M:
		if inside {
			return pol.Scale(1 / field.MU0)
		}
		return coords.Vec3{}
	case field.H:
		if inside {
			b = b.Sub(pol)
		}
		return b.Scale(1 / field.MU0)
	}
	return b
}
