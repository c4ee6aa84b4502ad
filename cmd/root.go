package cmd

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/killallgit/wavepng/internal/database"
	"github.com/killallgit/wavepng/internal/output"
	"github.com/killallgit/wavepng/internal/services/envelopes"
	"github.com/killallgit/wavepng/internal/services/render"
	"github.com/killallgit/wavepng/internal/waveform"
	"github.com/killallgit/wavepng/pkg/config"
	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

const (
	defaultWidth      = 1920
	defaultHeight     = 300
	defaultBackground = "00000000"
	defaultForeground = "FFFFFFFF"
)

// renderOptions holds the root command's rendering flags
type renderOptions struct {
	input      string
	output     string
	start      float64
	end        float64
	width      int
	height     int
	background string
	foreground string
	cache      bool
}

// Execute runs the root command and exits with status 1 on any error.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %s\n", userMessage(err))
		stop()
		os.Exit(1)
	}
}

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	opts := &renderOptions{}

	rootCmd := &cobra.Command{
		Use:   "wavepng -i <input> -o <output> [flags]",
		Short: "Render an audio file's waveform to a PNG image",
		Long: `wavepng renders the waveform of an audio file (WAV, FLAC or MP3) to a PNG image.

Each channel is drawn in its own horizontal band. Every pixel column shows the
minimum and maximum sample value of the audio it covers, so the image is a
faithful overview of the signal at any width.

A time window can be selected with --start and --end. An end of 0 renders
until the end of the file and a negative end counts back from the end.`,
		Example: `  wavepng -i song.wav -o waveform.png
  wavepng -i song.flac -o waveform.png -s 5 -e 30 -w 1920 -h 300 -b 1e1e1eff -f 00ffffff
  wavepng -i song.mp3 -o tail.png -e -10
  wavepng serve --port 9090`,
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: persistentPreRun,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts)
		},
	}

	flags := rootCmd.Flags()
	flags.StringVarP(&opts.input, "input", "i", "", "input audio file path")
	flags.StringVarP(&opts.output, "output", "o", "", "output PNG image path")
	flags.Float64VarP(&opts.start, "start", "s", 0, "start time in seconds")
	flags.Float64VarP(&opts.end, "end", "e", 0, "end time in seconds, 0 means until end, negative means seconds from end")
	flags.IntVarP(&opts.width, "width", "w", defaultWidth, fmt.Sprintf("image width in pixels (max: %d)", waveform.MaxDimension))
	flags.IntVarP(&opts.height, "height", "h", defaultHeight, fmt.Sprintf("image height in pixels (max: %d)", waveform.MaxDimension))
	flags.StringVarP(&opts.background, "background", "b", defaultBackground, "background color in RRGGBBAA hex")
	flags.StringVarP(&opts.foreground, "foreground", "f", defaultForeground, "waveform color in RRGGBBAA hex")
	flags.BoolVar(&opts.cache, "cache", false, "use the envelope cache database")
	// -h is height, so --help is registered here without a shorthand before
	// cobra adds its default -h/--help
	flags.Bool("help", false, "help for wavepng")

	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "enable JSON formatted logs")
	rootCmd.PersistentFlags().String("config", "", "config file (default "+config.DefaultConfigFile+")")

	rootCmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		c.SetOut(c.ErrOrStderr())
		_ = c.Usage()
		return apperrors.ArgumentError("flags", err.Error())
	})

	rootCmd.AddCommand(newServeCmd(), newCacheCmd(), newVersionCmd())
	return rootCmd
}

// persistentPreRun loads configuration and configures logging for every
// command except version
func persistentPreRun(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configFile, _ := cmd.Flags().GetString("config")
	if err := config.InitWithFile(configFile); err != nil {
		return err
	}

	level, _ := cmd.Flags().GetString("log-level")
	if level == "" {
		level = config.GetString("logging.level")
	}
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	if !cmd.Flags().Changed("json-logs") {
		jsonLogs = strings.EqualFold(config.GetString("logging.format"), "json")
	}

	logger, err := newLogger(cmd.ErrOrStderr(), level, jsonLogs)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)
	return nil
}

// newLogger builds a text or JSON slog logger at the given level
func newLogger(w io.Writer, level string, jsonLogs bool) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info", "":
		lvl = slog.LevelInfo
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, apperrors.ArgumentError("log-level", fmt.Sprintf("unknown level %q", level))
	}

	handlerOpts := &slog.HandlerOptions{Level: lvl}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(w, handlerOpts)), nil
	}
	return slog.New(slog.NewTextHandler(w, handlerOpts)), nil
}

func runRender(cmd *cobra.Command, opts *renderOptions) error {
	if opts.input == "" || opts.output == "" {
		cmd.SetOut(cmd.ErrOrStderr())
		_ = cmd.Usage()
		missing := "input"
		if opts.input != "" {
			missing = "output"
		}
		return apperrors.ArgumentError(missing, "both --input and --output are required")
	}

	applyConfigDefaults(cmd, opts)

	bg, err := waveform.ParseColor(opts.background)
	if err != nil {
		return err
	}
	fg, err := waveform.ParseColor(opts.foreground)
	if err != nil {
		return err
	}

	renderCfg := waveform.RenderConfig{Width: opts.width, Height: opts.height, Background: bg, Foreground: fg}
	if err := renderCfg.Validate(); err != nil {
		return err
	}

	printParameters(cmd.OutOrStdout(), opts, bg, fg)

	var cache envelopes.EnvelopeService
	if opts.cache {
		db, err := database.InitializeWithMigrations(config.GetString("database.path"), config.GetBool("database.verbose"))
		if err != nil {
			slog.Warn("envelope cache unavailable, rendering without it", "error", err)
		} else {
			defer db.Close()
			cache = envelopes.NewService(envelopes.NewRepository(db.DB), slog.Default())
		}
	}

	svc := render.NewService(cache, slog.Default())
	result, err := svc.Render(cmd.Context(), render.Request{
		Input:    opts.input,
		Start:    opts.start,
		End:      opts.end,
		Config:   renderCfg,
		UseCache: cache != nil,
	})
	if err != nil {
		return err
	}

	outPath, err := filepath.Abs(opts.output)
	if err != nil {
		outPath = opts.output
	}
	if err := output.WriteFile(outPath, result.Image); err != nil {
		return err
	}

	slog.Info("rendered waveform", "input", opts.input, "start", result.ActualStart, "end", result.ActualEnd,
		"samples", result.Window.SampleCount, "cache_hit", result.CacheHit)
	fmt.Fprintf(cmd.OutOrStdout(), "Waveform image saved to: %s\n", outPath)
	return nil
}

// applyConfigDefaults replaces flag defaults with configured values for
// flags the user did not set
func applyConfigDefaults(cmd *cobra.Command, opts *renderOptions) {
	flags := cmd.Flags()
	if !flags.Changed("width") {
		opts.width = config.GetInt("render.width")
	}
	if !flags.Changed("height") {
		opts.height = config.GetInt("render.height")
	}
	if !flags.Changed("background") {
		opts.background = config.GetString("render.background")
	}
	if !flags.Changed("foreground") {
		opts.foreground = config.GetString("render.foreground")
	}
	if !flags.Changed("cache") {
		opts.cache = config.GetBool("render.cache")
	}
}

func printParameters(w io.Writer, opts *renderOptions, bg, fg color.NRGBA) {
	fmt.Fprintln(w, "=== Parameters ===")
	fmt.Fprintf(w, "Input: %s\n", opts.input)
	fmt.Fprintf(w, "Output: %s\n", opts.output)
	fmt.Fprintf(w, "Start: %g sec\n", opts.start)
	fmt.Fprintf(w, "End: %g sec\n", opts.end)
	fmt.Fprintf(w, "Width: %d\n", opts.width)
	fmt.Fprintf(w, "Height: %d\n", opts.height)
	fmt.Fprintf(w, "Background color: %s\n", waveform.FormatColor(bg))
	fmt.Fprintf(w, "Waveform color: %s\n", waveform.FormatColor(fg))
}

// userMessage renders err for the terminal without the error code prefix
func userMessage(err error) string {
	if appErr, ok := apperrors.As(err); ok {
		if appErr.Cause != nil {
			return fmt.Sprintf("%s: %v", appErr.Message, appErr.Cause)
		}
		return appErr.Message
	}
	return err.Error()
}
