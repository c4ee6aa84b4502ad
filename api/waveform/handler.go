package waveform

import (
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/wavepng/api/types"
	"github.com/killallgit/wavepng/internal/output"
	"github.com/killallgit/wavepng/internal/services/render"
	wavedraw "github.com/killallgit/wavepng/internal/waveform"
	"github.com/killallgit/wavepng/pkg/config"
	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// Response headers describing the rendered window
const (
	HeaderStart = "X-Waveform-Start"
	HeaderEnd   = "X-Waveform-End"
	HeaderCache = "X-Waveform-Cache"
)

// GetImage renders a waveform PNG for a file under the media root
// @Summary      Render waveform
// @Description  Renders the waveform of an audio file below the media root as a PNG image
// @Tags         waveform
// @Produce      png
// @Param        file   query  string  true   "Audio file path relative to the media root"
// @Param        start  query  number  false  "Start time in seconds"
// @Param        end    query  number  false  "End time in seconds, 0 for end of file, negative counts from the end"
// @Param        width  query  int     false  "Image width in pixels"
// @Param        height query  int     false  "Image height in pixels"
// @Param        bg     query  string  false  "Background colour RRGGBBAA"
// @Param        fg     query  string  false  "Waveform colour RRGGBBAA"
// @Param        cache  query  bool    false  "Use the envelope cache"
// @Success      200  {file}    binary
// @Failure      400  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Failure      422  {object}  types.ErrorResponse
// @Failure      429  {object}  types.ErrorResponse
// @Router       /api/v1/waveform [get]
func GetImage(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q types.WaveformQuery
		if !types.BindQueryOrError(c, &q) {
			return
		}

		path, err := resolveMediaPath(deps.Config.Server.MediaRoot, q.File)
		if err != nil {
			types.SendError(c, err)
			return
		}

		cfg, err := renderConfig(q, deps.Config.Render)
		if err != nil {
			types.SendError(c, err)
			return
		}

		useCache := deps.Config.Render.Cache
		if q.Cache != nil {
			useCache = *q.Cache
		}

		result, err := deps.Renderer.Render(c.Request.Context(), render.Request{
			Input:    path,
			Start:    q.Start,
			End:      q.End,
			Config:   cfg,
			UseCache: useCache,
		})
		if err != nil {
			types.SendError(c, err)
			return
		}

		data, err := output.EncodeBytes(result.Image)
		if err != nil {
			types.SendError(c, err)
			return
		}

		cacheStatus := "MISS"
		if result.CacheHit {
			cacheStatus = "HIT"
		}
		c.Header(HeaderStart, strconv.FormatFloat(result.ActualStart, 'f', -1, 64))
		c.Header(HeaderEnd, strconv.FormatFloat(result.ActualEnd, 'f', -1, 64))
		c.Header(HeaderCache, cacheStatus)
		c.Data(http.StatusOK, "image/png", data)
	}
}

// GetInfo describes a file under the media root and the window a render would cover
// @Summary      Waveform info
// @Description  Returns stream info for an audio file and the resolved time window
// @Tags         waveform
// @Produce      json
// @Param        file   query  string  true   "Audio file path relative to the media root"
// @Param        start  query  number  false  "Start time in seconds"
// @Param        end    query  number  false  "End time in seconds"
// @Success      200  {object}  types.WaveformInfoResponse
// @Failure      400  {object}  types.ErrorResponse
// @Failure      404  {object}  types.ErrorResponse
// @Failure      422  {object}  types.ErrorResponse
// @Router       /api/v1/waveform/info [get]
func GetInfo(deps *types.Dependencies) gin.HandlerFunc {
	return func(c *gin.Context) {
		var q types.WaveformQuery
		if !types.BindQueryOrError(c, &q) {
			return
		}

		path, err := resolveMediaPath(deps.Config.Server.MediaRoot, q.File)
		if err != nil {
			types.SendError(c, err)
			return
		}

		probe, err := deps.Renderer.Probe(c.Request.Context(), path, q.Start, q.End)
		if err != nil {
			types.SendError(c, err)
			return
		}

		types.SendSuccess(c, types.NewWaveformInfoResponse(q.File, probe.Info, probe.Duration,
			probe.ActualStart, probe.ActualEnd, probe.Window))
	}
}

// resolveMediaPath joins file onto root, rejecting paths that leave root
func resolveMediaPath(root, file string) (string, error) {
	if file == "" {
		return "", apperrors.ValidationError("file", "must not be empty")
	}
	if !filepath.IsLocal(filepath.FromSlash(file)) {
		return "", apperrors.ValidationError("file", "must be a relative path inside the media root")
	}
	if root == "" {
		root = "."
	}
	path := filepath.Join(root, filepath.FromSlash(file))

	// a symlink below the root may still point outside it
	realPath, err := filepath.EvalSymlinks(path)
	if err != nil {
		// missing files are reported by the renderer
		return path, nil
	}
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return path, nil
	}
	rel, err := filepath.Rel(realRoot, realPath)
	if err != nil || !filepath.IsLocal(rel) {
		return "", apperrors.ValidationError("file", "must resolve to a file inside the media root")
	}
	return path, nil
}

// renderConfig applies the query's overrides to the configured defaults
func renderConfig(q types.WaveformQuery, defaults config.RenderConfig) (wavedraw.RenderConfig, error) {
	width, height := defaults.Width, defaults.Height
	if q.Width != nil {
		width = *q.Width
	}
	if q.Height != nil {
		height = *q.Height
	}

	bgHex, fgHex := defaults.Background, defaults.Foreground
	if q.Background != "" {
		bgHex = q.Background
	}
	if q.Foreground != "" {
		fgHex = q.Foreground
	}

	bg, err := wavedraw.ParseColor(bgHex)
	if err != nil {
		return wavedraw.RenderConfig{}, err
	}
	fg, err := wavedraw.ParseColor(fgHex)
	if err != nil {
		return wavedraw.RenderConfig{}, err
	}

	cfg := wavedraw.RenderConfig{Width: width, Height: height, Background: bg, Foreground: fg}
	if err := cfg.Validate(); err != nil {
		return wavedraw.RenderConfig{}, err
	}
	return cfg, nil
}
