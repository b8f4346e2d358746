package source

import (
	"fmt"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// Observer is a sensor: pixel positions in its own frame, arranged in Shape,
// carried along Path.
type Observer struct {
	Name   string
	Pixels []coords.Vec3
	Shape  []int
	Path   Path
}

// Points wraps bare coordinates into a static observer at the origin. A single
// point has the empty shape, several points a flat one.
func Points(pts ...coords.Vec3) *Observer {
	o := &Observer{Pixels: append([]coords.Vec3(nil), pts...), Path: Static(coords.Vec3{}, coords.Identity())}
	if len(pts) != 1 {
		o.Shape = []int{len(pts)}
	}
	return o
}

// NewSensor arranges pixels in the given shape; the shape's product must
// equal the pixel count.
func NewSensor(name string, shape []int, pixels []coords.Vec3) (*Observer, error) {
	o := &Observer{
		Name:   name,
		Pixels: append([]coords.Vec3(nil), pixels...),
		Shape:  append([]int(nil), shape...),
		Path:   Static(coords.Vec3{}, coords.Identity()),
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Line samples n points from a to b inclusive.
func Line(a, b coords.Vec3, n int) *Observer {
	if n < 2 {
		return Points(a)
	}
	pts := make([]coords.Vec3, n)
	for i := range pts {
		pts[i] = a.Add(b.Sub(a).Scale(float64(i) / float64(n-1)))
	}
	return Points(pts...)
}

// Grid samples an nx by ny rectangle spanned by u and v around center.
func Grid(center, u, v coords.Vec3, nx, ny int) *Observer {
	pts := make([]coords.Vec3, 0, nx*ny)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			fu, fv := 0.0, 0.0
			if nx > 1 {
				fu = float64(i)/float64(nx-1) - 0.5
			}
			if ny > 1 {
				fv = float64(j)/float64(ny-1) - 0.5
			}
			pts = append(pts, center.Add(u.Scale(fu)).Add(v.Scale(fv)))
		}
	}
	return &Observer{Pixels: pts, Shape: []int{nx, ny}, Path: Static(coords.Vec3{}, coords.Identity())}
}

// Named sets the display name.
func (o *Observer) Named(name string) *Observer {
	o.Name = name
	return o
}

func (o *Observer) Label() string {
	if o.Name != "" {
		return o.Name
	}
	return "observer"
}

// Move translates every path step.
func (o *Observer) Move(d coords.Vec3) *Observer {
	o.Path.move(d)
	return o
}

// Rotate turns the observer about its own position at every step.
func (o *Observer) Rotate(r coords.Rotation) *Observer {
	o.Path.rotate(r, nil)
	return o
}

func (o *Observer) SetPath(p Path) *Observer {
	o.Path = p
	return o
}

// Global returns the pixel positions at path step i in global coordinates.
func (o *Observer) Global(i int) []coords.Vec3 {
	pos, rot := o.Path.At(i)
	out := make([]coords.Vec3, len(o.Pixels))
	for k, p := range o.Pixels {
		out[k] = coords.PlaceInGlobal(p, pos, rot)
	}
	return out
}

func (o *Observer) Validate() error {
	if len(o.Pixels) == 0 {
		return &field.ParameterError{Source: o.Label(), Message: "no pixels"}
	}
	n := 1
	for _, s := range o.Shape {
		if s < 1 {
			return &field.ParameterError{Source: o.Label(), Message: fmt.Sprintf("shape %v has a non-positive axis", o.Shape)}
		}
		n *= s
	}
	if n != len(o.Pixels) {
		return &field.ParameterError{Source: o.Label(), Message: fmt.Sprintf("shape %v holds %d pixels, got %d", o.Shape, n, len(o.Pixels))}
	}
	if err := o.Path.Validate(); err != nil {
		return pathError(o.Label(), err)
	}
	return nil
}
