package types

// WaveformQuery holds the query parameters shared by the waveform endpoints.
// Unset optional fields fall back to the render section of the config.
type WaveformQuery struct {
	File       string  `form:"file" binding:"required"`
	Start      float64 `form:"start"`
	End        float64 `form:"end"`
	Width      *int    `form:"width"`
	Height     *int    `form:"height"`
	Background string  `form:"bg"`
	Foreground string  `form:"fg"`
	Cache      *bool   `form:"cache"`
}
