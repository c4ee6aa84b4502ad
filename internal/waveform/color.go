package waveform

import (
	"encoding/hex"
	"fmt"
	"image/color"
	"strings"

	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// ParseColor parses an RRGGBBAA hex string into a non-premultiplied colour.
// A leading '#' is accepted; anything that is not exactly eight hex digits
// is rejected.
func ParseColor(s string) (color.NRGBA, error) {
	value := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(value) != 8 {
		return color.NRGBA{}, apperrors.ParseColorError(s, "expected 8 hex characters in RRGGBBAA format")
	}

	b, err := hex.DecodeString(value)
	if err != nil {
		return color.NRGBA{}, apperrors.ParseColorError(s, "contains non-hex characters").WithCause(err)
	}

	return color.NRGBA{R: b[0], G: b[1], B: b[2], A: b[3]}, nil
}

// FormatColor renders c as RRGGBBAA
func FormatColor(c color.NRGBA) string {
	return fmt.Sprintf("%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}
