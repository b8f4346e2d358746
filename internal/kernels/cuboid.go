package kernels

import (
	"math"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// sign flips applied to the [polarization][component] table when an observer
// is mirrored into the bottQ4 octant (x >= 0, y <= 0, z <= 0).
var (
	cuboidFlipX = [3][3]float64{{1, -1, -1}, {-1, 1, 1}, {-1, 1, 1}}
	cuboidFlipY = [3][3]float64{{1, -1, 1}, {-1, 1, -1}, {1, -1, 1}}
	cuboidFlipZ = [3][3]float64{{1, 1, -1}, {1, 1, -1}, {-1, -1, 1}}
)

// Cuboid returns the field of homogeneously polarized cuboids with side
// lengths dim, centered at the origin with sides parallel to the axes.
//
// Observers on an edge (two bounding surfaces at once, within the relative
// surface tolerance), cuboids with a zero side and null polarization produce
// zero B and H.
func Cuboid(kind field.Kind, obs, dim, pol []coords.Vec3, opts Options) ([]coords.Vec3, error) {
	if err := kind.Validate(); err != nil {
		return nil, err
	}
	if err := checkRows("cuboid", len(obs), len(dim), len(pol)); err != nil {
		return nil, err
	}
	rtol := opts.rtol()
	out := make([]coords.Vec3, len(obs))

	for i, p := range obs {
		a := math.Abs(dim[i][0]) / 2
		b := math.Abs(dim[i][1]) / 2
		c := math.Abs(dim[i][2]) / 2

		xd := math.Abs(p[0]) - a
		yd := math.Abs(p[1]) - b
		zd := math.Abs(p[2]) - c

		surfX := math.Abs(xd) < rtol*a
		surfY := math.Abs(yd) < rtol*b
		surfZ := math.Abs(zd) < rtol*c

		inX := xd < rtol*a
		inY := yd < rtol*b
		inZ := zd < rtol*c
		inside := inX && inY && inZ

		if kind == field.J || kind == field.M {
			out[i] = magnetKind(kind, coords.Vec3{}, pol[i], inside)
			continue
		}

		edge := (surfY && surfZ && inX) || (surfX && surfZ && inY) || (surfX && surfY && inZ)

		var bf coords.Vec3
		if !pol[i].IsZero() && a*b*c != 0 && !edge {
			bf = cuboidB(p, a, b, c, pol[i])
		}
		out[i] = magnetKind(kind, bf, pol[i], inside)
	}
	return out, nil
}

// cuboidB evaluates the surface-charge expression of a cuboid with half sides
// a, b, c. The observer is mirrored into bottQ4 first because every other
// octant contains indeterminate log/arctan forms along edge extensions.
func cuboidB(p coords.Vec3, a, b, c float64, pol coords.Vec3) coords.Vec3 {
	x, y, z := p[0], p[1], p[2]

	qs := [3][3]float64{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}
	flip := func(f [3][3]float64) {
		for i := range qs {
			for j := range qs[i] {
				qs[i][j] *= f[i][j]
			}
		}
	}
	if x < 0 {
		x = -x
		flip(cuboidFlipX)
	}
	if y > 0 {
		y = -y
		flip(cuboidFlipY)
	}
	if z > 0 {
		z = -z
		flip(cuboidFlipZ)
	}

	xma, xpa := x-a, x+a
	ymb, ypb := y-b, y+b
	zmc, zpc := z-c, z+c

	xma2, xpa2 := xma*xma, xpa*xpa
	ymb2, ypb2 := ymb*ymb, ypb*ypb
	zmc2, zpc2 := zmc*zmc, zpc*zpc

	mmm := math.Sqrt(xma2 + ymb2 + zmc2)
	pmp := math.Sqrt(xpa2 + ymb2 + zpc2)
	pmm := math.Sqrt(xpa2 + ymb2 + zmc2)
	mmp := math.Sqrt(xma2 + ymb2 + zpc2)
	mpm := math.Sqrt(xma2 + ypb2 + zmc2)
	ppp := math.Sqrt(xpa2 + ypb2 + zpc2)
	ppm := math.Sqrt(xpa2 + ypb2 + zmc2)
	mpp := math.Sqrt(xma2 + ypb2 + zpc2)

	ff2x := math.Log((xma+mmm)*(xpa+ppm)*(xpa+pmp)*(xma+mpp)) -
		math.Log((xpa+pmm)*(xma+mpm)*(xma+mmp)*(xpa+ppp))

	ff2y := math.Log((-ymb+mmm)*(-ypb+ppm)*(-ymb+pmp)*(-ypb+mpp)) -
		math.Log((-ymb+pmm)*(-ypb+mpm)*(ymb-mmp)*(ypb-ppp))

	ff2z := math.Log((-zmc+mmm)*(-zmc+ppm)*(-zpc+pmp)*(-zpc+mpp)) -
		math.Log((-zmc+pmm)*(zmc-mpm)*(-zpc+mmp)*(zpc-ppp))

	ff1x := math.Atan2(ymb*zmc, xma*mmm) -
		math.Atan2(ymb*zmc, xpa*pmm) -
		math.Atan2(ypb*zmc, xma*mpm) +
		math.Atan2(ypb*zmc, xpa*ppm) -
		math.Atan2(ymb*zpc, xma*mmp) +
		math.Atan2(ymb*zpc, xpa*pmp) +
		math.Atan2(ypb*zpc, xma*mpp) -
		math.Atan2(ypb*zpc, xpa*ppp)

	ff1y := math.Atan2(xma*zmc, ymb*mmm) -
		math.Atan2(xpa*zmc, ymb*pmm) -
		math.Atan2(xma*zmc, ypb*mpm) +
		math.Atan2(xpa*zmc, ypb*ppm) -
		math.Atan2(xma*zpc, ymb*mmp) +
		math.Atan2(xpa*zpc, ymb*pmp) +
		math.Atan2(xma*zpc, ypb*mpp) -
		math.Atan2(xpa*zpc, ypb*ppp)

	ff1z := math.Atan2(xma*ymb, zmc*mmm) -
		math.Atan2(xpa*ymb, zmc*pmm) -
		math.Atan2(xma*ypb, zmc*mpm) +
		math.Atan2(xpa*ypb, zmc*ppm) -
		math.Atan2(xma*ymb, zpc*mmp) +
		math.Atan2(xpa*ymb, zpc*pmp) +
		math.Atan2(xma*ypb, zpc*mpp) -
		math.Atan2(xpa*ypb, zpc*ppp)

	jx, jy, jz := pol[0], pol[1], pol[2]

	// the third sign of the x-polarization diagonal is folded into ff1x
	bx := jx*ff1x*qs[0][0] + jy*ff2z*qs[1][0] + jz*ff2y*qs[2][0]
	by := jx*ff2z*qs[0][1] + jy*ff1y*qs[1][1] - jz*ff2x*qs[2][1]
	bz := jx*ff2y*qs[0][2] - jy*ff2x*qs[1][2] + jz*ff1z*qs[2][2]

	return coords.Vec3{bx, by, bz}.Scale(1 / (4 * math.Pi))
}
