package output

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"

	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

var encoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// Encode writes img to w as a PNG
func Encode(w io.Writer, img image.Image) error {
	if err := encoder.Encode(w, img); err != nil {
		return apperrors.EncodeError("", err)
	}
	return nil
}

// EncodeBytes returns img as PNG bytes
func EncodeBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes img and replaces path with the result. The PNG is written
// to a temporary file in the destination directory and renamed into place, so
// a failed write leaves any existing file untouched.
func WriteFile(path string, img image.Image) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return apperrors.EncodeError(path, fmt.Errorf("failed to create temp file: %w", err))
	}
	tmpPath := tmp.Name()

	if err := writeAndSync(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return apperrors.EncodeError(path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return apperrors.EncodeError(path, fmt.Errorf("failed to close temp file: %w", err))
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return apperrors.EncodeError(path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return apperrors.EncodeError(path, fmt.Errorf("failed to move image into place: %w", err))
	}
	return nil
}

func writeAndSync(f *os.File, img image.Image) error {
	if err := encoder.Encode(f, img); err != nil {
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to sync PNG: %w", err)
	}
	return nil
}
