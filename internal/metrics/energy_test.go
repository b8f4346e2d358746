package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

func TestEnergyDensity(t *testing.T) {
	m := NewEnergyDensity()

	b := coords.Vec3{0, 0.6, 0.8}
	m.Observe(coords.Vec3{}, b)
	e1 := m.Value()

	m.Reset()
	m.Observe(coords.Vec3{}, b)
	m.Observe(coords.Vec3{1, 0, 0}, coords.Vec3{})
	e2 := m.Value()

	expected := 1 / (2 * field.MU0)
	if math.Abs(e1-expected) > 1e-6*expected {
		t.Errorf("expected energy density %f, got %f", expected, e1)
	}
	if math.Abs(e2-expected/2) > 1e-6*expected {
		t.Errorf("expected energy density %f after reset, got %f", expected/2, e2)
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergyDensity()

	m.Observe(coords.Vec3{}, coords.Vec3{1, 1, 1})
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestCollect(t *testing.T) {
	pos := []coords.Vec3{{0, 0, 0}, {0, 0, 1}, {0, 0, 2}, {0, 0, 3}}
	values := []coords.Vec3{{0, 0, 1}, {0, 0, 3}, {math.NaN(), 0, 0}, {0, 0, 2}}

	got := Collect(Defaults(field.H), pos, values)

	tests := []struct {
		name string
		want float64
	}{
		{"peak", 3},
		{"mean", 2},
		{"homogeneity", 0.5},
	}
	for _, tt := range tests {
		if math.Abs(got[tt.name]-tt.want) > 1e-12 {
			t.Errorf("%s: expected %f, got %f", tt.name, tt.want, got[tt.name])
		}
	}
	if _, ok := got["energy_density"]; ok {
		t.Error("energy density reported for H")
	}
	if _, ok := Collect(Defaults(field.B), pos, values)["energy_density"]; !ok {
		t.Error("energy density missing for B")
	}
}

func TestHomogeneityUniform(t *testing.T) {
	h := NewHomogeneity()
	for i := 0; i < 4; i++ {
		h.Observe(coords.Vec3{float64(i), 0, 0}, coords.Vec3{0.1, 0.2, 0.3})
	}
	if v := h.Value(); v > 1e-15 {
		t.Errorf("expected uniform field, got %g", v)
	}

	h.Reset()
	h.Observe(coords.Vec3{}, coords.Vec3{1, 0, 0})
	h.Observe(coords.Vec3{}, coords.Vec3{-1, 0, 0})
	if !math.IsInf(h.Value(), 1) {
		t.Errorf("expected +Inf for a zero mean field, got %g", h.Value())
	}
}
