// Package waveform rasterises multi-channel audio into a min/max envelope image.
//
// Rendering happens in two steps that can be used separately:
//   - ComputeEnvelopes maps every pixel column onto a sub-range of the
//     rendered window and records the (min, max) sample pair of each channel
//   - Draw paints those envelopes into horizontal per-channel bands
//
// Each channel owns a band of roughly height/channels rows. Amplitude +1
// maps to the top of the band, -1 to the bottom and 0 to the band's middle.
// Columns that receive no samples (more columns than samples) show only the
// background.
//
// Example:
//
//	cfg := waveform.RenderConfig{Width: 1920, Height: 300, Foreground: white}
//	img, err := waveform.Render(ctx, seg, win, cfg)
package waveform
