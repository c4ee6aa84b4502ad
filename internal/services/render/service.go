package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/killallgit/wavepng/internal/audio/decode"
	"github.com/killallgit/wavepng/internal/models"
	"github.com/killallgit/wavepng/internal/services/envelopes"
	"github.com/killallgit/wavepng/internal/waveform"
	"github.com/killallgit/wavepng/internal/window"
	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// Request describes one waveform render
type Request struct {
	Input    string
	Start    float64
	End      float64
	Config   waveform.RenderConfig
	UseCache bool
}

// Result is a rendered waveform together with the window it covers
type Result struct {
	Image       *image.NRGBA
	Info        decode.Info
	Window      window.TimeWindow
	ActualStart float64
	ActualEnd   float64
	CacheHit    bool
}

// ProbeResult describes an input file and the window a request would cover
type ProbeResult struct {
	Info        decode.Info       `json:"info"`
	Duration    float64           `json:"duration"`
	Window      window.TimeWindow `json:"window"`
	ActualStart float64           `json:"actual_start"`
	ActualEnd   float64           `json:"actual_end"`
}

// Service runs the decode, window, envelope and draw pipeline
type Service struct {
	cache  envelopes.EnvelopeService
	logger *slog.Logger
	open   func(path string) (decode.Decoder, error)
}

// NewService creates a render service. cache may be nil to disable the
// envelope cache.
func NewService(cache envelopes.EnvelopeService, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cache:  cache,
		logger: logger.With("component", "render"),
		open:   decode.Open,
	}
}

// Render draws the requested window of req.Input
func (s *Service) Render(ctx context.Context, req Request) (*Result, error) {
	started := time.Now()

	if err := req.Config.Validate(); err != nil {
		return nil, err
	}

	path, fi, err := statInput(req.Input)
	if err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil && req.UseCache {
		key = models.CacheKey(path, fi.Size(), fi.ModTime().UnixNano(), req.Start, req.End, req.Config.Width)
		if result, ok := s.fromCache(ctx, key, req.Config); ok {
			s.logger.Debug("rendered from cache", "input", path, "elapsed", time.Since(started))
			return result, nil
		}
	}

	dec, err := s.open(path)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	info := dec.Info()
	if err := validateInfo(path, info); err != nil {
		return nil, err
	}
	s.logger.Debug("opened input", "input", path, "codec", info.Codec, "sample_rate", info.SampleRate,
		"channels", info.Channels, "duration", decode.DurationOf(info))

	win, actualStart, actualEnd := window.ResolveSamples(info.Duration(), req.Start, req.End,
		info.SampleRate, info.TotalSamples)
	s.logger.Debug("resolved window", "start", actualStart, "end", actualEnd,
		"start_sample", win.StartSample, "sample_count", win.SampleCount)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	samples, err := dec.ReadRange(win.StartSample, win.SampleCount)
	if err != nil {
		return nil, apperrors.DecodeError(path, err)
	}
	seg := waveform.Segment{Samples: samples, SampleRate: info.SampleRate, Offset: win.StartSample}

	envs, err := waveform.ComputeEnvelopes(ctx, seg, win, req.Config.Width)
	if err != nil {
		return nil, err
	}

	if key != "" {
		s.store(ctx, key, path, fi, info, win, actualStart, actualEnd, envs)
	}

	img, err := waveform.Draw(envs, req.Config)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("rendered waveform", "input", path, "width", req.Config.Width,
		"height", req.Config.Height, "elapsed", time.Since(started))

	return &Result{
		Image:       img,
		Info:        info,
		Window:      win,
		ActualStart: actualStart,
		ActualEnd:   actualEnd,
	}, nil
}

// Probe reads the stream info of path and resolves start/end against it
func (s *Service) Probe(ctx context.Context, input string, start, end float64) (*ProbeResult, error) {
	path, _, err := statInput(input)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dec, err := s.open(path)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	info := dec.Info()
	if err := validateInfo(path, info); err != nil {
		return nil, err
	}

	win, actualStart, actualEnd := window.ResolveSamples(info.Duration(), start, end,
		info.SampleRate, info.TotalSamples)

	return &ProbeResult{
		Info:        info,
		Duration:    info.Duration(),
		Window:      win,
		ActualStart: actualStart,
		ActualEnd:   actualEnd,
	}, nil
}

func (s *Service) fromCache(ctx context.Context, key string, cfg waveform.RenderConfig) (*Result, bool) {
	set, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, envelopes.ErrEnvelopesNotFound) {
			s.logger.Warn("envelope cache lookup failed", "key", key, "error", err)
		}
		return nil, false
	}

	envs, err := set.Envelopes()
	if err != nil || len(envs) == 0 || len(envs[0]) != cfg.Width {
		s.logger.Warn("ignoring unusable cache entry", "key", key, "error", err)
		return nil, false
	}

	img, err := waveform.Draw(envs, cfg)
	if err != nil {
		s.logger.Warn("failed to draw cached envelopes", "key", key, "error", err)
		return nil, false
	}

	return &Result{
		Image: img,
		Info: decode.Info{
			Codec:        set.Codec,
			SampleRate:   set.SampleRate,
			Channels:     set.Channels,
			BitDepth:     set.BitDepth,
			TotalSamples: set.TotalSamples,
		},
		Window:      window.TimeWindow{StartSample: set.StartSample, SampleCount: set.SampleCount},
		ActualStart: set.ActualStart,
		ActualEnd:   set.ActualEnd,
		CacheHit:    true,
	}, true
}

// store saves envs for later requests. Cache failures never fail a render.
func (s *Service) store(ctx context.Context, key, path string, fi os.FileInfo, info decode.Info,
	win window.TimeWindow, actualStart, actualEnd float64, envs [][]waveform.Envelope) {
	set := &models.EnvelopeSet{
		CacheKey:     key,
		SourcePath:   path,
		SourceSize:   fi.Size(),
		SourceModNs:  fi.ModTime().UnixNano(),
		Codec:        info.Codec,
		SampleRate:   info.SampleRate,
		BitDepth:     info.BitDepth,
		TotalSamples: info.TotalSamples,
		StartSample:  win.StartSample,
		SampleCount:  win.SampleCount,
		ActualStart:  actualStart,
		ActualEnd:    actualEnd,
	}
	if err := set.SetEnvelopes(envs); err != nil {
		s.logger.Warn("failed to encode envelopes", "key", key, "error", err)
		return
	}
	if err := s.cache.Save(ctx, set); err != nil {
		s.logger.Warn("failed to cache envelopes", "key", key, "error", err)
	}
}

// statInput resolves input to an absolute path of an existing regular file
func statInput(input string) (string, os.FileInfo, error) {
	if input == "" {
		return "", nil, apperrors.ArgumentError("input", "input file is required")
	}

	path, err := filepath.Abs(input)
	if err != nil {
		return "", nil, apperrors.InputNotFoundError(input)
	}

	fi, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, apperrors.InputNotFoundError(path)
		}
		return "", nil, apperrors.DecodeError(path, err)
	}
	if fi.IsDir() {
		return "", nil, apperrors.InputNotFoundError(path)
	}
	return path, fi, nil
}

func validateInfo(path string, info decode.Info) error {
	if info.Channels < 1 || info.SampleRate <= 0 {
		return apperrors.DecodeError(path, fmt.Errorf("invalid stream: %d channels at %d Hz",
			info.Channels, info.SampleRate))
	}
	return nil
}
