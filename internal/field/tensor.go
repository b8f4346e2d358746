package field

import (
	"fmt"
	"math"

	"github.com/san-kum/magfield/internal/coords"
)

// Tensor is a dense row-major array whose trailing axis holds the three
// field components.
type Tensor struct {
	Shape []int
	Data  []float64
}

func NewTensor(shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), Data: make([]float64, volume(shape))}
}

func volume(shape []int) int {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return n
}

func (t *Tensor) Rank() int { return len(t.Shape) }

// Vectors is the number of 3-vectors stored in the tensor.
func (t *Tensor) Vectors() int { return len(t.Data) / 3 }

func (t *Tensor) Clone() *Tensor {
	c := &Tensor{Shape: append([]int(nil), t.Shape...), Data: make([]float64, len(t.Data))}
	copy(c.Data, t.Data)
	return c
}

// offset maps an index over the leading axes to the position of its vector.
func (t *Tensor) offset(idx []int) int {
	if len(idx) != len(t.Shape)-1 {
		panic(fmt.Sprintf("field: index rank %d for tensor shape %v", len(idx), t.Shape))
	}
	off := 0
	for i, v := range idx {
		if v < 0 || v >= t.Shape[i] {
			panic(fmt.Sprintf("field: index %v out of range for shape %v", idx, t.Shape))
		}
		off = off*t.Shape[i] + v
	}
	return off * 3
}

// Vec returns the field vector at the given index over all but the last axis.
func (t *Tensor) Vec(idx ...int) coords.Vec3 {
	o := t.offset(idx)
	return coords.Vec3{t.Data[o], t.Data[o+1], t.Data[o+2]}
}

func (t *Tensor) SetVec(v coords.Vec3, idx ...int) {
	o := t.offset(idx)
	t.Data[o], t.Data[o+1], t.Data[o+2] = v[0], v[1], v[2]
}

// VecAt returns the i-th stored vector in row-major order.
func (t *Tensor) VecAt(i int) coords.Vec3 {
	return coords.Vec3{t.Data[3*i], t.Data[3*i+1], t.Data[3*i+2]}
}

// Reshape changes the shape in place; the element count must not change.
func (t *Tensor) Reshape(shape ...int) error {
	if volume(shape) != len(t.Data) {
		return fmt.Errorf("field: cannot reshape %v into %v", t.Shape, shape)
	}
	t.Shape = append(t.Shape[:0:0], shape...)
	return nil
}

// SumLeading sums over the first axis.
func (t *Tensor) SumLeading() *Tensor {
	if len(t.Shape) < 2 {
		return t.Clone()
	}
	out := NewTensor(t.Shape[1:]...)
	stride := len(out.Data)
	for i := 0; i < t.Shape[0]; i++ {
		block := t.Data[i*stride : (i+1)*stride]
		for j, v := range block {
			out.Data[j] += v
		}
	}
	return out
}

// Squeeze drops every size-1 axis. The component axis has size 3 and always
// survives.
func (t *Tensor) Squeeze() *Tensor {
	shape := make([]int, 0, len(t.Shape))
	for _, s := range t.Shape {
		if s != 1 {
			shape = append(shape, s)
		}
	}
	return &Tensor{Shape: shape, Data: t.Data}
}

// Norms returns the euclidean length of every stored vector.
func (t *Tensor) Norms() []float64 {
	out := make([]float64, t.Vectors())
	for i := range out {
		out[i] = t.VecAt(i).Norm()
	}
	return out
}

// IsFinite reports whether no component is NaN or Inf. Padded slots (NaN)
// make this false by construction.
func (t *Tensor) IsFinite() bool {
	for _, v := range t.Data {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
