package waveform

import (
	"fmt"

	"github.com/killallgit/wavepng/internal/window"
	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// Segment is a read-only view over decoded, de-interleaved samples.
// Samples[ch][0] is absolute sample index Offset of the stream, so a segment
// can hold either the whole stream (Offset 0) or just the rendered window.
type Segment struct {
	Samples    [][]float32
	SampleRate int
	Offset     int64
}

// Channels returns the number of channels in the segment
func (s Segment) Channels() int {
	return len(s.Samples)
}

// Len returns the number of samples per channel
func (s Segment) Len() int64 {
	if len(s.Samples) == 0 {
		return 0
	}
	return int64(len(s.Samples[0]))
}

// Validate checks that the segment is usable and that win lies inside it
func (s Segment) Validate(win window.TimeWindow) error {
	if s.Channels() == 0 {
		return apperrors.RenderConfigError("channels", "channel count must be at least 1")
	}
	if s.SampleRate <= 0 {
		return apperrors.RenderConfigError("sample_rate", "must be positive")
	}

	n := s.Len()
	for ch, samples := range s.Samples {
		if int64(len(samples)) != n {
			return apperrors.RenderConfigError("samples", fmt.Sprintf("channel %d has %d samples, expected %d", ch, len(samples), n))
		}
	}

	if win.StartSample < s.Offset || win.SampleCount < 0 || win.EndSample() > s.Offset+n {
		return apperrors.RenderConfigError("window",
			fmt.Sprintf("window [%d, %d) outside segment [%d, %d)", win.StartSample, win.EndSample(), s.Offset, s.Offset+n))
	}
	return nil
}

// Window returns the samples of channel ch covered by win.
// The window must have been checked with Validate.
func (s Segment) Window(ch int, win window.TimeWindow) []float32 {
	lo := win.StartSample - s.Offset
	return s.Samples[ch][lo : lo+win.SampleCount]
}
