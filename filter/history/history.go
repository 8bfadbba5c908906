// Package history nulls out raster time-series values that fall
// outside a threshold during the history period, the part of the
// stack preceding the monitoring cutoff. Monitoring-period values are
// never touched. It is a preprocessing step for change-detection
// pipelines.
package history

import (
	"context"
	"math"
	"time"

	"github.com/go-raster/rasterts/apply"
	"github.com/go-raster/rasterts/cube"
	"github.com/go-raster/rasterts/date"
	"github.com/go-raster/rasterts/stats"
)

// Mode selects how the threshold value is obtained.
type Mode int

const (
	// Fixed applies the same numeric threshold to every pixel.
	Fixed Mode = iota
	// IQR derives a threshold per pixel from that pixel's median and
	// interquartile range: median-IQR as a floor, median+IQR as a
	// ceiling.
	IQR
)

// Threshold is either a fixed value or the per-pixel IQR mode.
type Threshold struct {
	Mode  Mode
	Value float64
}

// FixedThreshold applies v to every pixel.
func FixedThreshold(v float64) Threshold {
	return Threshold{Mode: Fixed, Value: v}
}

// IQRThreshold computes a robust threshold per pixel.
func IQRThreshold() Threshold {
	return Threshold{Mode: IQR}
}

// Options configures a Filter call beyond the threshold itself.
// The zero value filters every layer as history with the default
// engine.
type Options struct {
	// Monitoring marks the start of the monitoring period. nil means
	// every layer is history.
	Monitoring *date.MonitoringPeriod
	// Dates overrides date resolution with an explicit vector, one
	// per layer.
	Dates []time.Time
	// IsMax flips the threshold from a floor (values below are
	// invalid) to a ceiling (values above are invalid).
	IsMax bool
	// Engine runs the per-pixel work. nil means a default apply.Pool.
	// Passed through untouched.
	Engine apply.Engine
	// Diag, when set, collects removal counts and per-pixel
	// thresholds.
	Diag *Diagnostics
}

// Filter returns a copy of c in which every history-period cell
// outside the threshold is set to NaN. Shape, layer names and layer
// times are preserved exactly; monitoring-period cells are copied
// unchanged. Date resolution failures surface before any per-pixel
// work starts.
func Filter(ctx context.Context, c *cube.Cube, threshold Threshold, opts Options) (*cube.Cube, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	dates, err := date.Resolve(c, opts.Dates)
	if err != nil {
		return nil, err
	}

	fn := predicate(historyMask(dates, opts.Monitoring), threshold, opts.IsMax, opts.Diag)

	engine := opts.Engine
	if engine == nil {
		engine = &apply.Pool{}
	}
	return engine.Calc(ctx, c, fn)
}

// historyMask marks the layers whose date falls strictly before the
// monitoring cutoff. Without a monitoring period every layer is
// history.
func historyMask(dates []time.Time, p *date.MonitoringPeriod) []bool {
	mask := make([]bool, len(dates))
	if p == nil {
		for i := range mask {
			mask[i] = true
		}
		return mask
	}
	cutoff := p.Cutoff()
	for i, d := range dates {
		mask[i] = d.Before(cutoff)
	}
	return mask
}

// predicate builds the pure per-pixel function handed to the apply
// engine. Each invocation computes its own threshold locally; nothing
// mutable is shared between pixels except the diagnostics sink, which
// is synchronized.
func predicate(inHistory []bool, t Threshold, isMax bool, diag *Diagnostics) apply.PixelFunc {
	return func(v []float64) []float64 {
		threshold := t.Value
		if t.Mode == IQR {
			m := stats.Median(v)
			if math.IsNaN(m) {
				// all cells missing, nothing to threshold
				return v
			}
			if isMax {
				threshold = m + stats.IQR(v)
			} else {
				threshold = m - stats.IQR(v)
			}
			diag.recordThreshold(threshold)
		}

		var removed int64
		for i, x := range v {
			if !inHistory[i] {
				continue
			}
			// NaN cells never compare true, so existing gaps are kept
			// and re-applying the filter changes nothing
			if (isMax && x > threshold) || (!isMax && x < threshold) {
				v[i] = math.NaN()
				removed++
			}
		}
		diag.addRemoved(removed)
		return v
	}
}
