package coords

import (
	"math"
	"testing"
)

func vecClose(a, b Vec3, tol float64) bool {
	return a.Sub(b).Norm() <= tol
}

func TestVecArithmetic(t *testing.T) {
	a := Vec3{1, 2, 3}
	b := Vec3{4, 5, 6}

	if got := a.Add(b); got != (Vec3{5, 7, 9}) {
		t.Errorf("Add failed: got %v", got)
	}
	if got := b.Sub(a); got != (Vec3{3, 3, 3}) {
		t.Errorf("Sub failed: got %v", got)
	}
	if got := a.Dot(b); got != 32 {
		t.Errorf("Dot failed: got %v", got)
	}
	if got := (Vec3{1, 0, 0}).Cross(Vec3{0, 1, 0}); got != (Vec3{0, 0, 1}) {
		t.Errorf("Cross failed: got %v", got)
	}
	if got := (Vec3{3, 4, 0}).Norm(); got != 5 {
		t.Errorf("Norm failed: got %v", got)
	}
	if got := (Vec3{}).Unit(); !got.IsZero() {
		t.Errorf("Unit of zero vector should be zero, got %v", got)
	}
}

func TestFromAxisAngle(t *testing.T) {
	tests := []struct {
		name  string
		axis  Vec3
		angle float64
		in    Vec3
		want  Vec3
	}{
		{"z 90", Vec3{0, 0, 1}, 90, Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{"x 90", Vec3{1, 0, 0}, 90, Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"y 180", Vec3{0, 1, 0}, 180, Vec3{1, 0, 0}, Vec3{-1, 0, 0}},
		{"zero angle", Vec3{1, 1, 1}, 0, Vec3{1, 2, 3}, Vec3{1, 2, 3}},
		{"zero axis", Vec3{}, 45, Vec3{1, 2, 3}, Vec3{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromAxisAngle(tt.axis, tt.angle).Apply(tt.in)
			if !vecClose(got, tt.want, 1e-12) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestQuatMatchesAxisAngle(t *testing.T) {
	axis := Vec3{1, -2, 0.5}.Unit()
	angle := 37.0
	half := angle * math.Pi / 360
	s := math.Sin(half)
	q := FromQuat(axis[0]*s, axis[1]*s, axis[2]*s, math.Cos(half))
	r := FromAxisAngle(axis, angle)

	v := Vec3{0.3, -1.2, 2.2}
	if !vecClose(q.Apply(v), r.Apply(v), 1e-12) {
		t.Errorf("quaternion %v and axis-angle %v disagree", q.Apply(v), r.Apply(v))
	}
}

func TestRotationInverseAndCompose(t *testing.T) {
	r1 := FromAxisAngle(Vec3{0, 0, 1}, 30)
	r2 := FromAxisAngle(Vec3{1, 0, 0}, -70)
	v := Vec3{1, 2, 3}

	if got := r1.Inv().Apply(r1.Apply(v)); !vecClose(got, v, 1e-12) {
		t.Errorf("Inv did not undo rotation: %v", got)
	}
	if got, want := r2.Mul(r1).Apply(v), r2.Apply(r1.Apply(v)); !vecClose(got, want, 1e-12) {
		t.Errorf("Mul order wrong: got %v, want %v", got, want)
	}
	if !Identity().IsIdentity() {
		t.Error("identity not recognised")
	}
}

func TestCylindrical(t *testing.T) {
	r, phi, z := CartToCyl(Vec3{0, 2, 5})
	if math.Abs(r-2) > 1e-15 || math.Abs(phi-math.Pi/2) > 1e-15 || z != 5 {
		t.Errorf("CartToCyl = (%v, %v, %v)", r, phi, z)
	}

	fx, fy := CylToCart(math.Pi/2, 3, 0)
	if math.Abs(fx) > 1e-15 || math.Abs(fy-3) > 1e-15 {
		t.Errorf("CylToCart radial = (%v, %v)", fx, fy)
	}

	fx, fy = CylToCart(0, 0, 1)
	if fx != 0 || fy != 1 {
		t.Errorf("CylToCart azimuthal = (%v, %v)", fx, fy)
	}
}

func TestFrameRoundTrip(t *testing.T) {
	pos := Vec3{1, -2, 3}
	rot := FromAxisAngle(Vec3{1, 1, 0}, 63)
	p := Vec3{0.5, 0.25, -4}

	local := ToLocal(p, pos, rot)
	if got := PlaceInGlobal(local, pos, rot); !vecClose(got, p, 1e-12) {
		t.Errorf("round trip failed: got %v, want %v", got, p)
	}

	v := Vec3{0, 0, 1}
	if got := ToGlobal(v, rot); math.Abs(got.Norm()-1) > 1e-12 {
		t.Errorf("ToGlobal changed length: %v", got)
	}
}
