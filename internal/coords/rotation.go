package coords

import "math"

// Rotation is a proper rotation stored as a row-major 3x3 matrix.
type Rotation [3][3]float64

func Identity() Rotation {
	return Rotation{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}

// FromAxisAngle builds the rotation about axis by angle degrees (right hand).
// A zero axis yields the identity.
func FromAxisAngle(axis Vec3, degrees float64) Rotation {
	u := axis.Unit()
	if u.IsZero() || degrees == 0 {
		return Identity()
	}
	s, c := math.Sincos(degrees * math.Pi / 180)
	t := 1 - c
	x, y, z := u[0], u[1], u[2]
	return Rotation{
		{t*x*x + c, t*x*y - s*z, t*x*z + s*y},
		{t*x*y + s*z, t*y*y + c, t*y*z - s*x},
		{t*x*z - s*y, t*y*z + s*x, t*z*z + c},
	}
}

// FromQuat builds the rotation of the quaternion (x, y, z, w), scalar last.
// The quaternion is normalized first; a zero quaternion yields the identity.
func FromQuat(x, y, z, w float64) Rotation {
	n := math.Sqrt(x*x + y*y + z*z + w*w)
	if n == 0 {
		return Identity()
	}
	x, y, z, w = x/n, y/n, z/n, w/n
	return Rotation{
		{1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w)},
		{2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w)},
		{2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y)},
	}
}

func (r Rotation) Apply(v Vec3) Vec3 {
	return Vec3{
		r[0][0]*v[0] + r[0][1]*v[1] + r[0][2]*v[2],
		r[1][0]*v[0] + r[1][1]*v[1] + r[1][2]*v[2],
		r[2][0]*v[0] + r[2][1]*v[1] + r[2][2]*v[2],
	}
}

// Inv is the transpose, which is the inverse for orthonormal matrices.
func (r Rotation) Inv() Rotation {
	var t Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = r[j][i]
		}
	}
	return t
}

// Mul returns r∘o: o is applied first.
func (r Rotation) Mul(o Rotation) Rotation {
	var out Rotation
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i][j] = r[i][0]*o[0][j] + r[i][1]*o[1][j] + r[i][2]*o[2][j]
		}
	}
	return out
}

func (r Rotation) IsIdentity() bool { return r == Identity() }
