package decode

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE

	wavBlockFrames = 4096
)

// WAVDecoder reads integer PCM WAV files through go-audio/wav
type WAVDecoder struct {
	file   *os.File
	dec    *wav.Decoder
	info   Info
	buf    *audio.IntBuffer
	read   int64 // frames consumed from the PCM chunk
	scale  float32
	offset int
	reader *rangeReader
}

// NewWAV opens a WAV file and positions it at the start of its PCM data
func NewWAV(path string) (*WAVDecoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	d := &WAVDecoder{file: f}
	if err := d.rewind(); err != nil {
		f.Close()
		return nil, err
	}

	format := d.dec.WavAudioFormat
	if format != wavFormatPCM && format != wavFormatExtensible {
		f.Close()
		return nil, fmt.Errorf("unsupported WAV encoding (format tag %d), only integer PCM is supported", format)
	}

	channels := int(d.dec.NumChans)
	bitDepth := int(d.dec.BitDepth)
	frameBytes := int64(channels * ((bitDepth + 7) / 8))

	d.info = Info{
		Codec:        CodecWAV,
		SampleRate:   int(d.dec.SampleRate),
		Channels:     channels,
		BitDepth:     bitDepth,
		TotalSamples: d.dec.PCMLen() / frameBytes,
	}

	// 8-bit WAV samples are unsigned around 128
	if bitDepth == 8 {
		d.offset = 128
		d.scale = 1.0 / 128
	} else {
		d.scale = float32(1.0 / float64(audio.IntMaxSignedValue(bitDepth)+1))
	}

	d.buf = &audio.IntBuffer{
		Format:         d.dec.Format(),
		Data:           make([]int, wavBlockFrames*channels),
		SourceBitDepth: bitDepth,
	}
	d.reader = newRangeReader(d, channels)
	return d, nil
}

// rewind re-reads the headers from the top of the file
func (d *WAVDecoder) rewind() error {
	if _, err := d.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	dec := wav.NewDecoder(d.file)
	if !dec.IsValidFile() {
		if dec.Err() != nil {
			return fmt.Errorf("invalid WAV file: %w", dec.Err())
		}
		return errors.New("invalid WAV file")
	}
	if err := dec.FwdToPCM(); err != nil {
		return fmt.Errorf("failed to locate PCM data: %w", err)
	}
	d.dec = dec
	d.read = 0
	return nil
}

// Info returns the stream format
func (d *WAVDecoder) Info() Info {
	return d.info
}

// ReadRange implements Decoder
func (d *WAVDecoder) ReadRange(start, count int64) ([][]float32, error) {
	return d.reader.readRange(start, count)
}

// Close closes the underlying file
func (d *WAVDecoder) Close() error {
	return d.file.Close()
}

func (d *WAVDecoder) seek(start int64) (int64, error) {
	if start < d.read {
		if err := d.rewind(); err != nil {
			return 0, err
		}
	}
	return d.read, nil
}

func (d *WAVDecoder) next() ([][]float32, error) {
	if d.read >= d.info.TotalSamples {
		return nil, io.EOF
	}

	n, err := d.dec.PCMBuffer(d.buf)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	frames := n / d.info.Channels
	if remaining := d.info.TotalSamples - d.read; int64(frames) > remaining {
		frames = int(remaining)
	}
	if frames == 0 {
		return nil, io.EOF
	}

	block := make([][]float32, d.info.Channels)
	for ch := range block {
		block[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := range block {
			block[ch][i] = float32(d.buf.Data[i*d.info.Channels+ch]-d.offset) * d.scale
		}
	}
	d.read += int64(frames)
	return block, nil
}
