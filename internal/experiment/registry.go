package experiment

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/source"
)

// Builder assembles the sources of a named scene from numeric parameters.
// Missing parameters take the builder's defaults.
type Builder func(params map[string]float64) ([]*source.Source, error)

type Registry struct {
	scenes map[string]Builder
	about  map[string]string
}

func NewRegistry() *Registry {
	r := &Registry{
		scenes: make(map[string]Builder),
		about:  make(map[string]string),
	}

	r.Register("loop", "circular current loop in the xy plane", buildLoop)
	r.Register("solenoid", "coaxial loops stacked along z", buildSolenoid)
	r.Register("wire", "straight wire along z", buildWire)
	r.Register("square-coil", "square polyline loop in the xy plane", buildSquareCoil)
	r.Register("dipole", "magnetic dipole along z", buildDipole)
	r.Register("sphere", "axially magnetized sphere", buildSphere)
	r.Register("cuboid", "axially magnetized block", buildCuboid)
	r.Register("magnet-array", "checkerboard of block magnets below z=0", buildMagnetArray)
	r.Register("halbach", "dipolar Halbach ring of cubes", buildHalbach)
	r.Register("sensor-sweep", "axially magnetized disc for a moving probe", buildSensorSweep)

	return r
}

func (r *Registry) Register(name, about string, b Builder) {
	r.scenes[name] = b
	r.about[name] = about
}

func (r *Registry) Build(name string, params map[string]float64) ([]*source.Source, error) {
	fn, ok := r.scenes[name]
	if !ok {
		return nil, fmt.Errorf("unknown scene: %s", name)
	}
	return fn(params)
}

func (r *Registry) About(name string) string {
	return r.about[name]
}

func (r *Registry) ListScenes() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func param(params map[string]float64, name string, def float64) float64 {
	if v, ok := params[name]; ok {
		return v
	}
	return def
}

func count(params map[string]float64, name string, def int) (int, error) {
	v := param(params, name, float64(def))
	if v < 1 || v != math.Trunc(v) {
		return 0, fmt.Errorf("%s must be a positive integer, got %g", name, v)
	}
	return int(v), nil
}

func buildLoop(p map[string]float64) ([]*source.Source, error) {
	return []*source.Source{source.NewLoop(param(p, "diameter", 0.01), param(p, "current", 1)).Named("loop")}, nil
}

func buildSolenoid(p map[string]float64) ([]*source.Source, error) {
	n, err := count(p, "turns", 100)
	if err != nil {
		return nil, err
	}
	length := param(p, "length", 0.05)
	d, i := param(p, "diameter", 0.02), param(p, "current", 1)

	loops := make([]*source.Source, n)
	for k := range loops {
		z := -length/2 + (float64(k)+0.5)*length/float64(n)
		loops[k] = source.NewLoop(d, i).Move(coords.Vec3{0, 0, z})
	}
	return []*source.Source{source.NewCollection("solenoid", loops...)}, nil
}

func buildWire(p map[string]float64) ([]*source.Source, error) {
	h := param(p, "length", 1) / 2
	return []*source.Source{source.NewPolyline(param(p, "current", 1), coords.Vec3{0, 0, -h}, coords.Vec3{0, 0, h}).Named("wire")}, nil
}

func buildSquareCoil(p map[string]float64) ([]*source.Source, error) {
	a := param(p, "side", 0.02) / 2
	v := []coords.Vec3{{a, a, 0}, {-a, a, 0}, {-a, -a, 0}, {a, -a, 0}, {a, a, 0}}
	return []*source.Source{source.NewPolyline(param(p, "current", 1), v...).Named("square-coil")}, nil
}

func buildDipole(p map[string]float64) ([]*source.Source, error) {
	return []*source.Source{source.NewDipole(coords.Vec3{0, 0, param(p, "moment", 1)}).Named("dipole")}, nil
}

func buildSphere(p map[string]float64) ([]*source.Source, error) {
	pol := coords.Vec3{0, 0, param(p, "polarization", 1)}
	return []*source.Source{source.NewSphere(param(p, "diameter", 0.01), pol).Named("sphere")}, nil
}

func buildCuboid(p map[string]float64) ([]*source.Source, error) {
	s := param(p, "size", 0.01)
	pol := coords.Vec3{0, 0, param(p, "polarization", 1)}
	return []*source.Source{source.NewCuboid(coords.Vec3{s, s, param(p, "height", s)}, pol).Named("cuboid")}, nil
}

func buildMagnetArray(p map[string]float64) ([]*source.Source, error) {
	nx, err := count(p, "nx", 2)
	if err != nil {
		return nil, err
	}
	ny, err := count(p, "ny", 2)
	if err != nil {
		return nil, err
	}
	pitch, size, pol := param(p, "pitch", 0.01), param(p, "size", 0.008), param(p, "polarization", 1.2)

	var blocks []*source.Source
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			sign := 1.0
			if (i+j)%2 == 1 {
				sign = -1
			}
			pos := coords.Vec3{
				(float64(i) - float64(nx-1)/2) * pitch,
				(float64(j) - float64(ny-1)/2) * pitch,
				-size / 2,
			}
			blocks = append(blocks, source.NewCuboid(coords.Vec3{size, size, size}, coords.Vec3{0, 0, sign * pol}).Move(pos))
		}
	}
	return []*source.Source{source.NewCollection("array", blocks...)}, nil
}

// buildHalbach places cubes on a ring; the cube at azimuth θ is magnetized
// at 2θ, which focuses a uniform field along x inside the ring.
func buildHalbach(p map[string]float64) ([]*source.Source, error) {
	n, err := count(p, "magnets", 8)
	if err != nil {
		return nil, err
	}
	radius, size, pol := param(p, "radius", 0.03), param(p, "size", 0.01), param(p, "polarization", 1.3)

	cubes := make([]*source.Source, n)
	for k := range cubes {
		theta := 360 * float64(k) / float64(n)
		s, c := math.Sincos(theta * math.Pi / 180)
		cubes[k] = source.NewCuboid(coords.Vec3{size, size, size}, coords.Vec3{pol, 0, 0}).
			Move(coords.Vec3{radius * c, radius * s, 0}).
			Rotate(coords.FromAxisAngle(coords.Vec3{0, 0, 1}, 2*theta))
	}
	return []*source.Source{source.NewCollection("halbach", cubes...)}, nil
}

func buildSensorSweep(p map[string]float64) ([]*source.Source, error) {
	pol := coords.Vec3{0, 0, param(p, "polarization", 1.1)}
	return []*source.Source{source.NewCylinder(param(p, "diameter", 0.01), param(p, "height", 0.005), pol).Named("disc")}, nil
}
