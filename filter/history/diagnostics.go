package history

import (
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/stat"
)

// Diagnostics collects side statistics of a Filter call: how many
// cells were removed and, under IQR mode, the thresholds that were
// derived per pixel. Safe for concurrent use by the apply engine's
// workers; nil receivers are no-ops.
type Diagnostics struct {
	removed atomic.Int64

	mu         sync.Mutex
	thresholds []float64
}

func (d *Diagnostics) addRemoved(n int64) {
	if d == nil || n == 0 {
		return
	}
	d.removed.Add(n)
}

func (d *Diagnostics) recordThreshold(t float64) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.thresholds = append(d.thresholds, t)
	d.mu.Unlock()
}

// Removed returns the number of cells the filter set to NaN.
func (d *Diagnostics) Removed() int64 {
	if d == nil {
		return 0
	}
	return d.removed.Load()
}

// ThresholdSummary returns mean and standard deviation of the
// per-pixel thresholds derived under IQR mode. Both are NaN when no
// thresholds were recorded.
func (d *Diagnostics) ThresholdSummary() (mean, stddev float64) {
	if d == nil {
		return stat.MeanStdDev(nil, nil)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return stat.MeanStdDev(d.thresholds, nil)
}
