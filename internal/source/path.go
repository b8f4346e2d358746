package source

import (
	"fmt"

	"github.com/san-kum/magfield/internal/coords"
	"github.com/san-kum/magfield/internal/field"
)

// Path is the motion history of a source or observer: one position and one
// orientation per step. An empty path is a static object at the origin.
type Path struct {
	Positions    []coords.Vec3
	Orientations []coords.Rotation
}

func Static(pos coords.Vec3, rot coords.Rotation) Path {
	return Path{Positions: []coords.Vec3{pos}, Orientations: []coords.Rotation{rot}}
}

// Linear moves from start to end in n equally spaced steps at fixed
// orientation.
func Linear(start, end coords.Vec3, n int, rot coords.Rotation) Path {
	if n < 1 {
		n = 1
	}
	p := Path{Positions: make([]coords.Vec3, n), Orientations: make([]coords.Rotation, n)}
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		p.Positions[i] = start.Add(end.Sub(start).Scale(t))
		p.Orientations[i] = rot
	}
	return p
}

// Spin rotates about axis (through the current position) in n steps
// covering the given angle in degrees.
func Spin(pos, axis coords.Vec3, degrees float64, n int) Path {
	if n < 1 {
		n = 1
	}
	p := Path{Positions: make([]coords.Vec3, n), Orientations: make([]coords.Rotation, n)}
	for i := 0; i < n; i++ {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		p.Positions[i] = pos
		p.Orientations[i] = coords.FromAxisAngle(axis, degrees*t)
	}
	return p
}

// Len is the number of steps; an empty path counts as one.
func (p Path) Len() int {
	if len(p.Positions) == 0 {
		return 1
	}
	return len(p.Positions)
}

// At returns the pose at step i. Length-1 paths answer every step with their
// single pose, which is how they broadcast against longer paths without
// being copied or modified.
func (p Path) At(i int) (coords.Vec3, coords.Rotation) {
	switch len(p.Positions) {
	case 0:
		return coords.Vec3{}, coords.Identity()
	case 1:
		return p.Positions[0], p.Orientations[0]
	}
	return p.Positions[i], p.Orientations[i]
}

func (p Path) Validate() error {
	if len(p.Positions) != len(p.Orientations) {
		return fmt.Errorf("%d positions but %d orientations", len(p.Positions), len(p.Orientations))
	}
	return nil
}

func (p Path) clone() Path {
	return Path{
		Positions:    append([]coords.Vec3(nil), p.Positions...),
		Orientations: append([]coords.Rotation(nil), p.Orientations...),
	}
}

// move translates every step by d.
func (p *Path) move(d coords.Vec3) {
	if len(p.Positions) == 0 {
		*p = Static(coords.Vec3{}, coords.Identity())
	}
	for i := range p.Positions {
		p.Positions[i] = p.Positions[i].Add(d)
	}
}

// rotate applies r to every orientation; with anchor set the positions are
// rotated about it as well.
func (p *Path) rotate(r coords.Rotation, anchor *coords.Vec3) {
	if len(p.Positions) == 0 {
		*p = Static(coords.Vec3{}, coords.Identity())
	}
	for i := range p.Orientations {
		p.Orientations[i] = r.Mul(p.Orientations[i])
		if anchor != nil {
			p.Positions[i] = r.Apply(p.Positions[i].Sub(*anchor)).Add(*anchor)
		}
	}
}

func pathError(name string, err error) error {
	return &field.ParameterError{Source: name, Message: "path: " + err.Error()}
}
