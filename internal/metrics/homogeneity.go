package metrics

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
)

// Homogeneity is the largest deviation of any sample from the mean field
// vector, relative to the mean magnitude. Zero means a uniform field.
type Homogeneity struct {
	name    string
	samples []coords.Vec3
}

func NewHomogeneity() *Homogeneity {
	return &Homogeneity{name: "homogeneity"}
}

func (h *Homogeneity) Name() string { return h.name }

func (h *Homogeneity) Observe(_, v coords.Vec3) {
	h.samples = append(h.samples, v)
}

func (h *Homogeneity) Value() float64 {
	if len(h.samples) == 0 {
		return 0
	}
	var mean coords.Vec3
	for _, v := range h.samples {
		mean = mean.Add(v)
	}
	mean = mean.Scale(1 / float64(len(h.samples)))
	ref := mean.Norm()
	if ref == 0 {
		return math.Inf(1)
	}
	dev := 0.0
	for _, v := range h.samples {
		dev = math.Max(dev, v.Sub(mean).Norm())
	}
	return dev / ref
}

func (h *Homogeneity) Reset() {
	h.samples = h.samples[:0]
}
