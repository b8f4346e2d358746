package coords

import "math"

// CartToCyl returns radius, azimuth and axial coordinate of p.
func CartToCyl(p Vec3) (r, phi, z float64) {
	return math.Hypot(p[0], p[1]), math.Atan2(p[1], p[0]), p[2]
}

// CylToCart rotates a radial/azimuthal pair at azimuth phi into x/y components.
func CylToCart(phi, fr, fphi float64) (fx, fy float64) {
	s, c := math.Sincos(phi)
	return c*fr - s*fphi, s*fr + c*fphi
}

// ToLocal moves a global point into the frame of an object at pos with
// orientation rot.
func ToLocal(p, pos Vec3, rot Rotation) Vec3 {
	return rot.Inv().Apply(p.Sub(pos))
}

// ToGlobal rotates a vector from the object frame back to the global frame.
// Field vectors are free vectors, so no translation applies.
func ToGlobal(v Vec3, rot Rotation) Vec3 {
	return rot.Apply(v)
}

// PlaceInGlobal maps a point given in the object frame to global coordinates.
func PlaceInGlobal(p, pos Vec3, rot Rotation) Vec3 {
	return rot.Apply(p).Add(pos)
}
