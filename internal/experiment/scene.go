package experiment

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/source"
)

// Document is a scene file: a tree of sources and, optionally, the observers
// to evaluate them at.
type Document struct {
	Sources   []SourceDoc   `yaml:"sources"`
	Observers []ObserverDoc `yaml:"observers,omitempty"`
}

// Pose places an object: it is first rotated by Angle degrees about Axis,
// or by the quaternion Quat (x, y, z, w) when given, then moved to Position.
type Pose struct {
	Position [3]float64  `yaml:"position,omitempty"`
	Axis     [3]float64  `yaml:"axis,omitempty"`
	Angle    float64     `yaml:"angle,omitempty"`
	Quat     *[4]float64 `yaml:"quat,omitempty"`
}

type SourceDoc struct {
	Type         string       `yaml:"type"`
	Name         string       `yaml:"name,omitempty"`
	Dimension    []float64    `yaml:"dimension,omitempty"`
	Vertices     [][3]float64 `yaml:"vertices,omitempty"`
	Polarization [3]float64   `yaml:"polarization,omitempty"`
	Current      float64      `yaml:"current,omitempty"`
	Moment       [3]float64   `yaml:"moment,omitempty"`
	Pose         `yaml:",inline"`
	Children     []SourceDoc  `yaml:"children,omitempty"`
}

type ObserverDoc struct {
	Name   string       `yaml:"name,omitempty"`
	Pixels [][3]float64 `yaml:"pixels"`
	Shape  []int        `yaml:"shape,omitempty"`
	Pose   `yaml:",inline"`
}

// IsSceneFile reports whether a scene name refers to a YAML document.
func IsSceneFile(name string) bool {
	return strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml")
}

func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	doc, err := ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func ParseDocument(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Sources) == 0 {
		return nil, fmt.Errorf("scene has no sources")
	}
	return &doc, nil
}

// Build turns the document into source and observer records. Observers is
// empty when the document declares none.
func (d *Document) Build() ([]*source.Source, []*source.Observer, error) {
	sources := make([]*source.Source, len(d.Sources))
	for i, entry := range d.Sources {
		s, err := entry.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("source %d: %w", i, err)
		}
		sources[i] = s
	}
	var observers []*source.Observer
	for i, entry := range d.Observers {
		o, err := entry.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("observer %d: %w", i, err)
		}
		observers = append(observers, o)
	}
	return sources, observers, nil
}

func (s SourceDoc) Build() (*source.Source, error) {
	g, err := source.ParseGeometry(s.Type)
	if err != nil {
		return nil, err
	}
	out := &source.Source{
		Name:         s.Name,
		Geometry:     g,
		Dimension:    append([]float64(nil), s.Dimension...),
		Vertices:     vectors(s.Vertices),
		Polarization: s.Polarization,
		Current:      s.Current,
		Moment:       s.Moment,
		Path:         source.Static(coords.Vec3{}, coords.Identity()),
	}
	for i, c := range s.Children {
		child, err := c.Build()
		if err != nil {
			return nil, fmt.Errorf("child %d: %w", i, err)
		}
		out.Children = append(out.Children, child)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	if r, ok := s.rotation(); ok {
		out.Rotate(r)
	}
	return out.Move(s.Position), nil
}

func (o ObserverDoc) Build() (*source.Observer, error) {
	shape := o.Shape
	if shape == nil && len(o.Pixels) > 1 {
		shape = []int{len(o.Pixels)}
	}
	obs, err := source.NewSensor(o.Name, shape, vectors(o.Pixels))
	if err != nil {
		return nil, err
	}
	if r, ok := o.rotation(); ok {
		obs.Rotate(r)
	}
	return obs.Move(o.Position), nil
}

func (p Pose) rotation() (coords.Rotation, bool) {
	if p.Quat != nil {
		q := p.Quat
		return coords.FromQuat(q[0], q[1], q[2], q[3]), true
	}
	if p.Angle == 0 {
		return coords.Rotation{}, false
	}
	axis := coords.Vec3(p.Axis)
	if axis.IsZero() {
		axis = coords.Vec3{0, 0, 1}
	}
	return coords.FromAxisAngle(axis, p.Angle), true
}

func vectors(in [][3]float64) []coords.Vec3 {
	if in == nil {
		return nil
	}
	out := make([]coords.Vec3, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
