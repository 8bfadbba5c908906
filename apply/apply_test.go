package apply

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-raster/rasterts/cube"
)

func makeCube(rows, cols, layers int) *cube.Cube {
	c := &cube.Cube{Rows: rows, Cols: cols, Layers: make([]cube.Layer, layers)}
	for i := range c.Layers {
		values := make([]float64, rows*cols)
		for j := range values {
			values[j] = float64(i*rows*cols + j)
		}
		c.Layers[i] = cube.Layer{Name: "layer", Values: values}
	}
	return c
}

func double(v []float64) []float64 {
	for i := range v {
		v[i] *= 2
	}
	return v
}

func TestPoolMatchesSerial(t *testing.T) {
	c := makeCube(13, 7, 5)

	serial, err := (&Pool{Workers: 1}).Calc(context.Background(), c, double)
	require.NoError(t, err)

	for _, workers := range []int{2, 4, 16} {
		parallel, err := (&Pool{Workers: workers}).Calc(context.Background(), c, double)
		require.NoError(t, err)
		for i := range serial.Layers {
			assert.Equal(t, serial.Layers[i].Values, parallel.Layers[i].Values, "workers=%d layer=%d", workers, i)
		}
	}
}

func TestPoolDoesNotMutateInput(t *testing.T) {
	c := makeCube(4, 4, 3)
	orig := makeCube(4, 4, 3)

	_, err := (&Pool{}).Calc(context.Background(), c, double)
	require.NoError(t, err)

	for i := range c.Layers {
		assert.Equal(t, orig.Layers[i].Values, c.Layers[i].Values, "input layer %d changed", i)
	}
}

func TestPoolPreservesMetadata(t *testing.T) {
	c := makeCube(2, 2, 2)
	c.Layers[0].Name = "LC82300702014001LGN00"
	c.Layers[1].Name = "LC82300702014017LGN00"

	out, err := (&Pool{}).Calc(context.Background(), c, func(v []float64) []float64 { return v })
	require.NoError(t, err)

	require.Equal(t, c.Rows, out.Rows)
	require.Equal(t, c.Cols, out.Cols)
	require.Len(t, out.Layers, len(c.Layers))
	for i := range c.Layers {
		assert.Equal(t, c.Layers[i].Name, out.Layers[i].Name)
	}
}

func TestPoolRejectsMalformedCube(t *testing.T) {
	c := &cube.Cube{Rows: 2, Cols: 2, Layers: []cube.Layer{{Values: []float64{1}}}}
	_, err := (&Pool{}).Calc(context.Background(), c, double)
	require.Error(t, err)
}

func TestPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := (&Pool{}).Calc(ctx, makeCube(8, 8, 2), double)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPoolKeepsNaN(t *testing.T) {
	c := makeCube(1, 1, 2)
	c.Layers[0].Values[0] = math.NaN()

	out, err := (&Pool{}).Calc(context.Background(), c, func(v []float64) []float64 { return v })
	require.NoError(t, err)
	assert.True(t, math.IsNaN(out.Layers[0].Values[0]))
}
