package waveform

import (
	"context"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/killallgit/wavepng/internal/window"
	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// Envelope is the (min, max) pair summarising the samples of one pixel column.
// Empty columns received no samples and are not drawn.
type Envelope struct {
	Min   float32 `json:"min"`
	Max   float32 `json:"max"`
	Empty bool    `json:"empty,omitempty"`
}

// ColumnRange maps pixel column i of width columns onto the half-open
// sub-range [start, end) of a window holding n samples.
func ColumnRange(i, width int, n int64) (start, end int64) {
	if n <= 0 || width <= 0 {
		return 0, 0
	}

	start = int64(math.Floor(float64(i) / float64(width) * float64(n)))
	end = int64(math.Floor(float64(i+1) / float64(width) * float64(n)))

	start = clamp64(start, 0, n-1)
	end = clamp64(end, 0, n)
	return start, end
}

// ChannelEnvelopes computes one envelope per column for a single channel.
// samples must hold the whole window; only samples[0:n] are read.
func ChannelEnvelopes(samples []float32, n int64, width int) []Envelope {
	envs := make([]Envelope, width)
	for i := 0; i < width; i++ {
		start, end := ColumnRange(i, width, n)
		if start >= end {
			envs[i] = Envelope{Empty: true}
			continue
		}

		minVal, maxVal := samples[start], samples[start]
		for _, s := range samples[start+1 : end] {
			if s < minVal {
				minVal = s
			}
			if s > maxVal {
				maxVal = s
			}
		}
		envs[i] = Envelope{Min: minVal, Max: maxVal}
	}
	return envs
}

// ComputeEnvelopes computes per-channel, per-column envelopes of the window.
// Channels are independent and are scanned concurrently.
func ComputeEnvelopes(ctx context.Context, seg Segment, win window.TimeWindow, width int) ([][]Envelope, error) {
	if width <= 0 {
		return nil, apperrors.RenderConfigError("width", "must be positive")
	}
	if width > MaxDimension {
		return nil, apperrors.SizeLimitError(width, 0, MaxDimension)
	}
	if err := seg.Validate(win); err != nil {
		return nil, err
	}

	out := make([][]Envelope, seg.Channels())

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ch := range out {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[ch] = ChannelEnvelopes(seg.Window(ch, win), win.SampleCount, width)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func clamp64(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
