// Package apply maps per-pixel functions over the spatial locations
// of a raster cube. The pixel function sees one pixel's time vector
// at a time and never shares state between locations, so work splits
// into independent batches.
package apply

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/go-raster/rasterts/cube"
)

// PixelFunc transforms one pixel's time vector (one value per layer,
// in layer order). The slice it receives is private to the call;
// implementations may modify it in place and return it.
type PixelFunc func(v []float64) []float64

// Engine maps a PixelFunc over every spatial location of a cube and
// assembles the results into a cube of identical shape and metadata.
type Engine interface {
	Calc(ctx context.Context, c *cube.Cube, fn PixelFunc) (*cube.Cube, error)
}

// Pool is the default Engine. It splits the spatial locations into
// batches and limits parallelism to Workers goroutines.
type Pool struct {
	// Workers caps concurrent batch goroutines. <= 0 means NumCPU.
	Workers int
	Logger  *zap.Logger
}

func (p *Pool) Calc(ctx context.Context, c *cube.Cube, fn PixelFunc) (*cube.Cube, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	workers := p.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	size := c.Size()
	// no fewer than 8 batches per worker so stragglers even out
	batch := (size + 8*workers - 1) / (8 * workers)
	if batch < 1 {
		batch = 1
	}
	logger.Debug("pixel apply",
		zap.Int("pixels", size),
		zap.Int("layers", len(c.Layers)),
		zap.Int("workers", workers),
		zap.Int("batch", batch),
	)

	out := c.EmptyLike()
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	for lower := 0; lower < size; lower += batch {
		if ctx.Err() != nil {
			break
		}
		upper := lower + batch
		if upper > size {
			upper = size
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(lower, upper int) {
			defer wg.Done()
			defer func() { <-sem }()

			vec := make([]float64, len(c.Layers))
			for i := lower; i < upper; i++ {
				out.SetPixel(i, fn(c.TimeVector(i, vec)))
			}
		}(lower, upper)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
