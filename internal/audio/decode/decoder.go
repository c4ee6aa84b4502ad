package decode

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// Info describes a decoded audio stream
type Info struct {
	Codec        string `json:"codec"`
	SampleRate   int    `json:"sample_rate"`
	Channels     int    `json:"channels"`
	BitDepth     int    `json:"bit_depth"`
	TotalSamples int64  `json:"total_samples"`
}

// Duration returns the stream length in seconds
func (i Info) Duration() float64 {
	if i.SampleRate <= 0 {
		return 0
	}
	return float64(i.TotalSamples) / float64(i.SampleRate)
}

// Decoder gives random access to the samples of an audio file
type Decoder interface {
	// Info returns the stream format and length
	Info() Info

	// ReadRange returns count samples per channel starting at sample start,
	// normalised to [-1, 1]. Samples past the end of the stream are zero.
	ReadRange(start, count int64) ([][]float32, error)

	// Close releases decoder resources
	Close() error
}

// Open opens path with the decoder matching its extension, falling back to
// the file's magic bytes when the extension is unknown.
func Open(path string) (Decoder, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.InputNotFoundError(path)
		}
		return nil, apperrors.DecodeError(path, err)
	}
	if fi.IsDir() {
		return nil, apperrors.InputNotFoundError(path)
	}

	codec := codecForExt(filepath.Ext(path))
	if codec == "" {
		codec, err = sniff(path)
		if err != nil {
			return nil, apperrors.DecodeError(path, err)
		}
	}

	var dec Decoder
	switch codec {
	case CodecWAV:
		dec, err = NewWAV(path)
	case CodecFLAC:
		dec, err = NewFLAC(path)
	case CodecMP3:
		dec, err = NewMP3(path)
	default:
		err = fmt.Errorf("unsupported audio format: %s (supported: .wav, .flac, .mp3)", filepath.Ext(path))
	}
	if err != nil {
		return nil, apperrors.DecodeError(path, err)
	}
	return dec, nil
}

// Supported codecs
const (
	CodecWAV  = "wav"
	CodecFLAC = "flac"
	CodecMP3  = "mp3"
)

func codecForExt(ext string) string {
	switch strings.ToLower(ext) {
	case ".wav", ".wave":
		return CodecWAV
	case ".flac":
		return CodecFLAC
	case ".mp3":
		return CodecMP3
	}
	return ""
}

// sniff guesses the codec from the first bytes of the file
func sniff(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, 12)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return "", fmt.Errorf("failed to read file header: %w", err)
	}
	return sniffHeader(head[:n]), nil
}

func sniffHeader(head []byte) string {
	switch {
	case len(head) >= 12 && bytes.Equal(head[0:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return CodecWAV
	case bytes.HasPrefix(head, []byte("fLaC")):
		return CodecFLAC
	case bytes.HasPrefix(head, []byte("ID3")):
		return CodecMP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return CodecMP3
	}
	return ""
}

// DurationOf is a convenience for logging
func DurationOf(i Info) time.Duration {
	return time.Duration(i.Duration() * float64(time.Second))
}
