package types

import (
	"github.com/killallgit/wavepng/internal/audio/decode"
	"github.com/killallgit/wavepng/internal/window"
)

// Status constants for API responses
const (
	StatusOK        = "ok"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// HealthResponse for the health check endpoint
type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp string         `json:"timestamp"`
	Database  DatabaseStatus `json:"database"`
}

// DatabaseStatus reports the envelope cache connection
type DatabaseStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// VersionResponse for the root endpoint
type VersionResponse struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description"`
	Status      string `json:"status"`
}

// WaveformInfoResponse describes an audio file and a resolved time window
type WaveformInfoResponse struct {
	File        string            `json:"file"`
	Codec       string            `json:"codec"`
	SampleRate  int               `json:"sample_rate"`
	Channels    int               `json:"channels"`
	BitDepth    int               `json:"bit_depth"`
	Duration    float64           `json:"duration"`
	ActualStart float64           `json:"actual_start"`
	ActualEnd   float64           `json:"actual_end"`
	Window      window.TimeWindow `json:"window"`
}

// NewWaveformInfoResponse builds the info body for file
func NewWaveformInfoResponse(file string, info decode.Info, duration, start, end float64, win window.TimeWindow) WaveformInfoResponse {
	return WaveformInfoResponse{
		File:        file,
		Codec:       info.Codec,
		SampleRate:  info.SampleRate,
		Channels:    info.Channels,
		BitDepth:    info.BitDepth,
		Duration:    duration,
		ActualStart: start,
		ActualEnd:   end,
		Window:      win,
	}
}
