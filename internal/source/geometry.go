package source

import (
	"strconv"
	"strings"

	"github.com/san-kum/magfield/internal/field"
)

// Geometry is the closed set of source variants. Every leaf variant has
// exactly one kernel; Collection only groups other sources.
type Geometry int

const (
	Loop Geometry = iota + 1
	Polyline
	Cuboid
	Sphere
	Cylinder
	CylinderSegment
	Triangle
	Tetrahedron
	Dipole
	Collection
)

var geometryNames = map[Geometry]string{
	Loop:            "loop",
	Polyline:        "polyline",
	Cuboid:          "cuboid",
	Sphere:          "sphere",
	Cylinder:        "cylinder",
	CylinderSegment: "cylinder_segment",
	Triangle:        "triangle",
	Tetrahedron:     "tetrahedron",
	Dipole:          "dipole",
	Collection:      "collection",
}

// Leaves lists the leaf geometries in evaluation order.
var Leaves = []Geometry{Loop, Polyline, Cuboid, Sphere, Cylinder, CylinderSegment, Triangle, Tetrahedron, Dipole}

func (g Geometry) String() string {
	if n, ok := geometryNames[g]; ok {
		return n
	}
	return "geometry(" + strconv.Itoa(int(g)) + ")"
}

// Known reports whether g is one of the defined variants.
func (g Geometry) Known() bool {
	_, ok := geometryNames[g]
	return ok
}

func ParseGeometry(s string) (Geometry, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for g, n := range geometryNames {
		if n == key {
			return g, nil
		}
	}
	return 0, &field.UnsupportedGeometryError{Geometry: s, Index: -1}
}
