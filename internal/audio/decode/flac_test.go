package decode

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
	"github.com/mewkiz/flac/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flacBlockSize = 4096

// writeFLAC encodes mono 16-bit samples in fixed-size blocks. The stream is
// encoded into memory, so the encoder cannot go back and fill in the sample
// count unless nsamples is given up front.
func writeFLAC(t *testing.T, path string, samples []int32, nsamples uint64) {
	t.Helper()

	info := &meta.StreamInfo{
		BlockSizeMin:  16,
		BlockSizeMax:  flacBlockSize,
		SampleRate:    44100,
		NChannels:     1,
		BitsPerSample: 16,
		NSamples:      nsamples,
	}

	var buf bytes.Buffer
	enc, err := flac.NewEncoder(&buf, info)
	require.NoError(t, err)
	enc.EnablePredictionAnalysis(false)

	for start := 0; start < len(samples); start += flacBlockSize {
		end := min(start+flacBlockSize, len(samples))
		block := append([]int32(nil), samples[start:end]...)
		f := &frame.Frame{
			Header: frame.Header{
				HasFixedBlockSize: true,
				BlockSize:         uint16(len(block)),
				SampleRate:        44100,
				Channels:          frame.ChannelsMono,
				BitsPerSample:     16,
			},
			Subframes: []*frame.Subframe{{
				SubHeader: frame.SubHeader{Pred: frame.PredVerbatim},
				Samples:   block,
				NSamples:  len(block),
			}},
		}
		require.NoError(t, enc.WriteFrame(f))
	}
	require.NoError(t, enc.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func rampSamples(n int) []int32 {
	samples := make([]int32, n)
	for i := range samples {
		samples[i] = int32(i%256)*128 - 16384
	}
	return samples
}

func TestFLACDecoder_ReadRange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ramp.flac")
	samples := rampSamples(10000)
	writeFLAC(t, path, samples, uint64(len(samples)))

	dec, err := Open(path)
	require.NoError(t, err)
	defer dec.Close()

	info := dec.Info()
	assert.Equal(t, CodecFLAC, info.Codec)
	assert.Equal(t, 44100, info.SampleRate)
	assert.Equal(t, 1, info.Channels)
	assert.Equal(t, int64(10000), info.TotalSamples)

	// spans a block boundary
	out, err := dec.ReadRange(4090, 10)
	require.NoError(t, err)
	for i, got := range out[0] {
		assert.Equal(t, float32(samples[4090+i])/32768, got, "sample %d", 4090+i)
	}
}

func TestFLACDecoder_UnknownLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unknown.flac")
	samples := rampSamples(9000)
	writeFLAC(t, path, samples, 0)

	dec, err := Open(path)
	require.NoError(t, err)
	defer dec.Close()

	assert.Equal(t, int64(9000), dec.Info().TotalSamples)

	// the decoder rewinds after counting, so reads start at the first frame
	out, err := dec.ReadRange(0, 3)
	require.NoError(t, err)
	assert.Equal(t, []float32{-0.5, float32(-16256) / 32768, float32(-16128) / 32768}, out[0])

	out, err = dec.ReadRange(8998, 2)
	require.NoError(t, err)
	assert.Equal(t, float32(samples[8999])/32768, out[0][1])
}
