package models

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"

	"gorm.io/gorm"

	"github.com/killallgit/wavepng/internal/waveform"
)

// EnvelopeSet caches the per-column envelopes of one render request
type EnvelopeSet struct {
	gorm.Model
	CacheKey     string  `json:"cache_key" gorm:"not null;uniqueIndex;size:64"`
	SourcePath   string  `json:"source_path" gorm:"not null;index"`
	SourceSize   int64   `json:"source_size" gorm:"not null"`
	SourceModNs  int64   `json:"source_mod_ns" gorm:"not null"`
	Codec        string  `json:"codec"`
	SampleRate   int     `json:"sample_rate" gorm:"not null"`
	BitDepth     int     `json:"bit_depth"`
	TotalSamples int64   `json:"total_samples" gorm:"not null"`
	StartSample  int64   `json:"start_sample" gorm:"not null"`
	SampleCount  int64   `json:"sample_count" gorm:"not null"`
	ActualStart  float64 `json:"actual_start"`
	ActualEnd    float64 `json:"actual_end"`
	Width        int     `json:"width" gorm:"not null"`
	Channels     int     `json:"channels" gorm:"not null"`
	EnvelopeData []byte  `json:"-" gorm:"type:blob;not null"` // JSON-encoded [][]waveform.Envelope
}

// Envelopes returns the decoded envelope data
func (e *EnvelopeSet) Envelopes() ([][]waveform.Envelope, error) {
	var envs [][]waveform.Envelope
	if err := json.Unmarshal(e.EnvelopeData, &envs); err != nil {
		return nil, err
	}
	return envs, nil
}

// SetEnvelopes encodes envs and updates Channels and Width to match
func (e *EnvelopeSet) SetEnvelopes(envs [][]waveform.Envelope) error {
	data, err := json.Marshal(envs)
	if err != nil {
		return err
	}
	e.EnvelopeData = data
	e.Channels = len(envs)
	e.Width = 0
	if len(envs) > 0 {
		e.Width = len(envs[0])
	}
	return nil
}

// CacheKey identifies a render request against a specific version of a file.
// Any change to the file's size or modification time produces a new key.
func CacheKey(path string, size, modNs int64, start, end float64, width int) string {
	raw := fmt.Sprintf("%s|%d|%d|%s|%s|%d", path, size, modNs,
		strconv.FormatFloat(start, 'g', -1, 64),
		strconv.FormatFloat(end, 'g', -1, 64),
		width)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
