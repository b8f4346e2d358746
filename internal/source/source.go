package source

import (
	"fmt"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// Source is one field source. Which parameter fields are read depends on
// Geometry:
//
//	Loop             Dimension = [diameter], Current
//	Polyline         Vertices (>= 2), Current
//	Cuboid           Dimension = [a, b, c], Polarization
//	Sphere           Dimension = [diameter], Polarization
//	Cylinder         Dimension = [diameter, height], Polarization
//	CylinderSegment  Dimension = [r1, r2, height, phi1, phi2], Polarization
//	Triangle         Vertices (3), Polarization
//	Tetrahedron      Vertices (4), Polarization
//	Dipole           Moment
//	Collection       Children
//
// A collection's own path is not used for evaluation.
type Source struct {
	Name         string
	Geometry     Geometry
	Dimension    []float64
	Vertices     []coords.Vec3
	Polarization coords.Vec3
	Current      float64
	Moment       coords.Vec3
	Path         Path
	Children     []*Source
}

func newSource(g Geometry) *Source {
	return &Source{Geometry: g, Path: Static(coords.Vec3{}, coords.Identity())}
}

func NewLoop(diameter, current float64) *Source {
	s := newSource(Loop)
	s.Dimension = []float64{diameter}
	s.Current = current
	return s
}

func NewPolyline(current float64, vertices ...coords.Vec3) *Source {
	s := newSource(Polyline)
	s.Vertices = append([]coords.Vec3(nil), vertices...)
	s.Current = current
	return s
}

func NewCuboid(dim, pol coords.Vec3) *Source {
	s := newSource(Cuboid)
	s.Dimension = []float64{dim[0], dim[1], dim[2]}
	s.Polarization = pol
	return s
}

func NewSphere(diameter float64, pol coords.Vec3) *Source {
	s := newSource(Sphere)
	s.Dimension = []float64{diameter}
	s.Polarization = pol
	return s
}

func NewCylinder(diameter, height float64, pol coords.Vec3) *Source {
	s := newSource(Cylinder)
	s.Dimension = []float64{diameter, height}
	s.Polarization = pol
	return s
}

// NewCylinderSegment takes radii, height and the section angles in degrees.
func NewCylinderSegment(r1, r2, height, phi1, phi2 float64, pol coords.Vec3) *Source {
	s := newSource(CylinderSegment)
	s.Dimension = []float64{r1, r2, height, phi1, phi2}
	s.Polarization = pol
	return s
}

func NewTriangle(v0, v1, v2, pol coords.Vec3) *Source {
	s := newSource(Triangle)
	s.Vertices = []coords.Vec3{v0, v1, v2}
	s.Polarization = pol
	return s
}

func NewTetrahedron(v [4]coords.Vec3, pol coords.Vec3) *Source {
	s := newSource(Tetrahedron)
	s.Vertices = v[:]
	s.Polarization = pol
	return s
}

func NewDipole(moment coords.Vec3) *Source {
	s := newSource(Dipole)
	s.Moment = moment
	return s
}

func NewCollection(name string, children ...*Source) *Source {
	s := newSource(Collection)
	s.Name = name
	s.Children = children
	return s
}

// Named sets the display name.
func (s *Source) Named(name string) *Source {
	s.Name = name
	return s
}

// Label is the name, or the geometry when the source is unnamed.
func (s *Source) Label() string {
	if s.Name != "" {
		return s.Name
	}
	return s.Geometry.String()
}

// Move translates every path step. Collections move their children.
func (s *Source) Move(d coords.Vec3) *Source {
	if s.Geometry == Collection {
		for _, c := range s.Children {
			c.Move(d)
		}
		return s
	}
	s.Path.move(d)
	return s
}

// Rotate turns the source about its own position at every step.
// Collections rotate their children about the origin.
func (s *Source) Rotate(r coords.Rotation) *Source {
	if s.Geometry == Collection {
		origin := coords.Vec3{}
		for _, c := range s.Children {
			c.rotateAbout(r, origin)
		}
		return s
	}
	s.Path.rotate(r, nil)
	return s
}

func (s *Source) rotateAbout(r coords.Rotation, anchor coords.Vec3) {
	if s.Geometry == Collection {
		for _, c := range s.Children {
			c.rotateAbout(r, anchor)
		}
		return
	}
	s.Path.rotate(r, &anchor)
}

// SetPath replaces the path.
func (s *Source) SetPath(p Path) *Source {
	s.Path = p
	return s
}

// Clone deep-copies the source and its children.
func (s *Source) Clone() *Source {
	c := *s
	c.Dimension = append([]float64(nil), s.Dimension...)
	c.Vertices = append([]coords.Vec3(nil), s.Vertices...)
	c.Path = s.Path.clone()
	if s.Children != nil {
		c.Children = make([]*Source, len(s.Children))
		for i, ch := range s.Children {
			c.Children[i] = ch.Clone()
		}
	}
	return &c
}

// Flatten returns the leaf sources below s in depth-first order.
func (s *Source) Flatten() []*Source {
	if s.Geometry != Collection {
		return []*Source{s}
	}
	var out []*Source
	for _, c := range s.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}

var dimensionCount = map[Geometry]int{
	Loop:            1,
	Cuboid:          3,
	Sphere:          1,
	Cylinder:        2,
	CylinderSegment: 5,
}

var vertexCount = map[Geometry]int{
	Triangle:    3,
	Tetrahedron: 4,
}

// Validate checks the parameter layout of a leaf source. It does not judge
// values: zero sizes and null excitations are legal and give zero fields.
func (s *Source) Validate() error {
	if !s.Geometry.Known() {
		return &field.UnsupportedGeometryError{Geometry: s.Geometry.String(), Index: -1}
	}
	if want, ok := dimensionCount[s.Geometry]; ok && len(s.Dimension) != want {
		return s.paramError("dimension has %d values, want %d", len(s.Dimension), want)
	}
	if want, ok := vertexCount[s.Geometry]; ok && len(s.Vertices) != want {
		return s.paramError("%d vertices, want %d", len(s.Vertices), want)
	}
	if s.Geometry == Polyline && len(s.Vertices) < 2 {
		return s.paramError("polyline needs at least 2 vertices, got %d", len(s.Vertices))
	}
	if s.Geometry == Collection {
		for _, c := range s.Children {
			if c == nil {
				return s.paramError("nil child")
			}
		}
		return nil
	}
	if err := s.Path.Validate(); err != nil {
		return pathError(s.Label(), err)
	}
	return nil
}

func (s *Source) paramError(format string, args ...any) error {
	return &field.ParameterError{Source: s.Label(), Message: fmt.Sprintf(format, args...)}
}
