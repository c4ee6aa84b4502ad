package decode

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

const (
	// go-mp3 always emits 16-bit little endian stereo
	mp3Channels   = 2
	mp3FrameBytes = 4

	mp3BlockFrames = 4096
)

// MP3Decoder reads MP3 files through hajimehoshi/go-mp3
type MP3Decoder struct {
	file    *os.File
	decoder *mp3.Decoder
	info    Info
	buf     []byte
	reader  *rangeReader
}

// NewMP3 opens an MP3 file. go-mp3 scans the whole file to report its length.
func NewMP3(path string) (*MP3Decoder, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to decode MP3: %w", err)
	}

	total := decoder.Length()
	if total < 0 {
		total = 0
	}

	d := &MP3Decoder{
		file:    f,
		decoder: decoder,
		info: Info{
			Codec:        CodecMP3,
			SampleRate:   decoder.SampleRate(),
			Channels:     mp3Channels,
			BitDepth:     16,
			TotalSamples: total / mp3FrameBytes,
		},
		buf: make([]byte, mp3BlockFrames*mp3FrameBytes),
	}
	d.reader = newRangeReader(d, mp3Channels)
	return d, nil
}

// Info returns the stream format
func (d *MP3Decoder) Info() Info {
	return d.info
}

// ReadRange implements Decoder
func (d *MP3Decoder) ReadRange(start, count int64) ([][]float32, error) {
	return d.reader.readRange(start, count)
}

// Close closes the underlying file
func (d *MP3Decoder) Close() error {
	return d.file.Close()
}

func (d *MP3Decoder) seek(start int64) (int64, error) {
	if start > d.info.TotalSamples {
		start = d.info.TotalSamples
	}
	if _, err := d.decoder.Seek(start*mp3FrameBytes, io.SeekStart); err != nil {
		return 0, err
	}
	return start, nil
}

func (d *MP3Decoder) next() ([][]float32, error) {
	n, err := io.ReadFull(d.decoder, d.buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read MP3 data: %w", err)
	}
	frames := n / mp3FrameBytes
	if frames == 0 {
		return nil, io.EOF
	}

	left := make([]float32, frames)
	right := make([]float32, frames)
	for i := 0; i < frames; i++ {
		off := i * mp3FrameBytes
		left[i] = float32(int16(binary.LittleEndian.Uint16(d.buf[off:]))) / 32768
		right[i] = float32(int16(binary.LittleEndian.Uint16(d.buf[off+2:]))) / 32768
	}
	return [][]float32{left, right}, nil
}
