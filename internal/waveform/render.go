package waveform

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"

	"github.com/killallgit/wavepng/internal/window"
	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// MaxDimension bounds width and height of a rendered image
const MaxDimension = 16384

// RenderConfig describes the output image
type RenderConfig struct {
	Width      int
	Height     int
	Background color.NRGBA
	Foreground color.NRGBA
}

// Validate rejects dimensions that are non-positive or above MaxDimension
func (c RenderConfig) Validate() error {
	if c.Width > MaxDimension || c.Height > MaxDimension {
		return apperrors.SizeLimitError(c.Width, c.Height, MaxDimension)
	}
	if c.Width <= 0 {
		return apperrors.RenderConfigError("width", "must be positive")
	}
	if c.Height <= 0 {
		return apperrors.RenderConfigError("height", "must be positive")
	}
	return nil
}

// Band returns the rows [top, bottom) assigned to channel ch. Band edges are
// floor(ch*height/channels); the last band always ends at height so rounding
// never leaves uncovered rows.
func Band(ch, channels, height int) (top, bottom int) {
	top = ch * height / channels
	if ch == channels-1 {
		return top, height
	}
	return top, (ch + 1) * height / channels
}

// Render rasterises the window of seg into a new image
func Render(ctx context.Context, seg Segment, win window.TimeWindow, cfg RenderConfig) (*image.NRGBA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	envs, err := ComputeEnvelopes(ctx, seg, win, cfg.Width)
	if err != nil {
		return nil, err
	}
	return Draw(envs, cfg)
}

// Draw paints per-channel envelopes. envs[ch] must hold cfg.Width envelopes.
func Draw(envs [][]Envelope, cfg RenderConfig) (*image.NRGBA, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(envs) == 0 {
		return nil, apperrors.RenderConfigError("channels", "channel count must be at least 1")
	}
	for ch, column := range envs {
		if len(column) != cfg.Width {
			return nil, apperrors.RenderConfigError("envelopes",
				fmt.Sprintf("channel %d has %d columns, expected %d", ch, len(column), cfg.Width))
		}
	}

	img := image.NewNRGBA(image.Rect(0, 0, cfg.Width, cfg.Height))
	fill(img, cfg.Background)

	fg := image.NewUniform(cfg.Foreground)
	for ch, column := range envs {
		top, bottom := Band(ch, len(envs), cfg.Height)
		if bottom <= top {
			// more channels than rows
			continue
		}
		bandHeight := float64(bottom - top)
		midY := float64(top) + bandHeight/2

		for x, env := range column {
			if env.Empty {
				continue
			}

			yTop := midY - float64(env.Max)*bandHeight/2
			yBottom := midY - float64(env.Min)*bandHeight/2
			if yTop > yBottom {
				yTop, yBottom = yBottom, yTop
			}

			r0 := clampRow(yTop, top, bottom)
			r1 := clampRow(yBottom, top, bottom)
			draw.Draw(img, image.Rect(x, r0, x+1, r1+1), fg, image.Point{}, draw.Over)
		}
	}

	return img, nil
}

// fill writes c into every pixel. draw.Src would round-trip c through
// premultiplied alpha and could alter translucent colours.
func fill(img *image.NRGBA, c color.NRGBA) {
	px := []uint8{c.R, c.G, c.B, c.A}
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], px)
	}
}

func clampRow(y float64, top, bottom int) int {
	if y < float64(top) {
		return top
	}
	if y >= float64(bottom) {
		return bottom - 1
	}
	return int(math.Floor(y))
}
