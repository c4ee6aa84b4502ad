// Package window resolves user supplied start/end times into a concrete
// sample range of a decoded audio stream.
package window

import "math"

// TimeWindow is the half-open sample range [StartSample, StartSample+SampleCount)
// that gets rendered.
type TimeWindow struct {
	StartSample int64 `json:"start_sample"`
	SampleCount int64 `json:"sample_count"`
}

// EndSample returns the exclusive end of the window
func (w TimeWindow) EndSample() int64 {
	return w.StartSample + w.SampleCount
}

// Empty reports whether the window contains no samples
func (w TimeWindow) Empty() bool {
	return w.SampleCount <= 0
}

// Resolve converts start/end seconds into an actual [start, end] range inside
// a stream of the given duration.
//
// An end of 0 means "until the end of the file" and a negative end counts
// seconds back from the end. The end never exceeds the duration and never
// drops below 0; the start is clamped into [0, actualEnd].
func Resolve(duration, start, end float64) (actualStart, actualEnd float64) {
	actualEnd = end
	if end <= 0 {
		if end < 0 {
			actualEnd = duration + end
		} else {
			actualEnd = duration
		}
	}

	actualEnd = math.Max(0, math.Min(duration, actualEnd))
	actualStart = math.Max(0, math.Min(start, actualEnd))
	return actualStart, actualEnd
}

// ToSamples converts a resolved [actualStart, actualEnd] range to a sample window
func ToSamples(actualStart, actualEnd float64, sampleRate int) TimeWindow {
	if sampleRate <= 0 {
		return TimeWindow{}
	}

	rate := float64(sampleRate)
	w := TimeWindow{StartSample: int64(math.Floor(actualStart * rate))}
	if actualEnd > actualStart {
		w.SampleCount = int64(math.Floor((actualEnd - actualStart) * rate))
	}
	return w
}

// ResolveSamples resolves start/end seconds against a stream and returns the
// sample window, clamped so that it never reaches past totalSamples.
func ResolveSamples(duration, start, end float64, sampleRate int, totalSamples int64) (TimeWindow, float64, float64) {
	actualStart, actualEnd := Resolve(duration, start, end)
	w := ToSamples(actualStart, actualEnd, sampleRate)

	if totalSamples < 0 {
		totalSamples = 0
	}
	if w.StartSample > totalSamples {
		w.StartSample = totalSamples
	}
	if w.EndSample() > totalSamples {
		w.SampleCount = totalSamples - w.StartSample
	}
	return w, actualStart, actualEnd
}
