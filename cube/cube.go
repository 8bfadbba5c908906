package cube

import (
	"math"
	"time"

	"github.com/ansel1/merry"
)

var (
	ErrEmptyCube     = merry.New("cube has no layers")
	ErrShapeMismatch = merry.New("layer size does not match cube dimensions")
)

// Layer is a single raster band in a time-series stack. Values are
// stored row-major, length Rows*Cols of the owning Cube. Missing
// measurements are NaN.
type Layer struct {
	Name   string
	Time   time.Time
	Values []float64
}

// Cube is an ordered stack of equally sized raster layers, one per
// acquisition. Layer order is the temporal order of the stack.
type Cube struct {
	Rows   int
	Cols   int
	Layers []Layer
}

// Size returns the number of spatial locations per layer.
func (c *Cube) Size() int {
	return c.Rows * c.Cols
}

// Validate checks that the cube has at least one layer and that every
// layer holds exactly Rows*Cols values.
func (c *Cube) Validate() error {
	if len(c.Layers) == 0 {
		return ErrEmptyCube.Here()
	}
	size := c.Size()
	for _, l := range c.Layers {
		if len(l.Values) != size {
			return ErrShapeMismatch.Here().WithMessagef("layer %q has %d values, want %d", l.Name, len(l.Values), size)
		}
	}
	return nil
}

// EmptyLike returns a cube with the same shape, layer names and layer
// times as c, with freshly allocated value slices.
func (c *Cube) EmptyLike() *Cube {
	out := &Cube{
		Rows:   c.Rows,
		Cols:   c.Cols,
		Layers: make([]Layer, len(c.Layers)),
	}
	size := c.Size()
	for i, l := range c.Layers {
		out.Layers[i] = Layer{
			Name:   l.Name,
			Time:   l.Time,
			Values: make([]float64, size),
		}
	}
	return out
}

// TimeVector fills buf with the values of spatial location idx across
// all layers, in layer order, and returns it. buf must have length
// len(c.Layers).
func (c *Cube) TimeVector(idx int, buf []float64) []float64 {
	for i := range c.Layers {
		buf[i] = c.Layers[i].Values[idx]
	}
	return buf
}

// SetPixel writes v (one value per layer) to spatial location idx.
func (c *Cube) SetPixel(idx int, v []float64) {
	for i := range c.Layers {
		c.Layers[i].Values[idx] = v[i]
	}
}

// Times returns the per-layer timestamps. ok is false unless every
// layer carries one.
func (c *Cube) Times() (times []time.Time, ok bool) {
	times = make([]time.Time, len(c.Layers))
	for i, l := range c.Layers {
		if l.Time.IsZero() {
			return nil, false
		}
		times[i] = l.Time
	}
	return times, true
}

// Names returns the layer names in layer order.
func (c *Cube) Names() []string {
	names := make([]string, len(c.Layers))
	for i, l := range c.Layers {
		names[i] = l.Name
	}
	return names
}

// MakeTestCube builds a single-column cube for tests. Each values
// slice becomes one layer of shape len(values)×1.
func MakeTestCube(names []string, values ...[]float64) *Cube {
	c := &Cube{Rows: len(values[0]), Cols: 1, Layers: make([]Layer, len(values))}
	for i, v := range values {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		vv := make([]float64, len(v))
		copy(vv, v)
		c.Layers[i] = Layer{Name: name, Values: vv}
	}
	return c
}

// CountNaN returns the number of NaN cells across all layers.
func (c *Cube) CountNaN() int64 {
	var n int64
	for _, l := range c.Layers {
		for _, v := range l.Values {
			if math.IsNaN(v) {
				n++
			}
		}
	}
	return n
}
