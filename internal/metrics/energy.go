package metrics

import (
	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// EnergyDensity is the mean magnetic energy density B²/2μ0 in J/m³ over the
// samples. It expects flux density values.
type EnergyDensity struct {
	name    string
	total   float64
	samples int
}

func NewEnergyDensity() *EnergyDensity {
	return &EnergyDensity{name: "energy_density"}
}

func (e *EnergyDensity) Name() string { return e.name }

func (e *EnergyDensity) Observe(_, b coords.Vec3) {
	e.total += b.Norm2() / (2 * field.MU0)
	e.samples++
}

func (e *EnergyDensity) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.total / float64(e.samples)
}

func (e *EnergyDensity) Reset() {
	e.total = 0
	e.samples = 0
}
