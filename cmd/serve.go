package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/killallgit/wavepng/api"
	"github.com/killallgit/wavepng/api/types"
	"github.com/killallgit/wavepng/internal/database"
	"github.com/killallgit/wavepng/pkg/config"
)

func newServeCmd() *cobra.Command {
	var (
		serverHost string
		serverPort int
	)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the waveform API server",
		Long: `Start the wavepng HTTP API with the configured settings.

The server renders waveform PNGs for audio files below the configured media
root and reports stream information as JSON. Rendered envelopes are cached in
the SQLite database when caching is enabled.`,
		Example: `  wavepng serve
  wavepng serve --port 9090
  wavepng serve --host 127.0.0.1 --port 8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd, serverHost, serverPort)
		},
	}

	// Server flags
	serveCmd.Flags().StringVar(&serverHost, "host", "", "server host (overrides config)")
	serveCmd.Flags().IntVar(&serverPort, "port", 0, "server port (overrides config)")

	return serveCmd
}

func runServer(cmd *cobra.Command, host string, port int) error {
	cfg, err := config.GetConfig()
	if err != nil {
		return err
	}

	// Use config values if flags not provided
	if host == "" {
		host = cfg.Server.Host
	}
	if port == 0 {
		port = cfg.Server.Port
	}

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		gin.SetMode(gin.ReleaseMode)
	}

	deps := &types.Dependencies{Config: cfg, Version: Version}

	db, err := database.InitializeWithMigrations(cfg.Database.Path, cfg.Database.Verbose)
	if err != nil {
		slog.Warn("envelope cache unavailable, serving without it", "path", cfg.Database.Path, "error", err)
	} else {
		defer db.Close()
		deps.DB = db
	}

	address := fmt.Sprintf("%s:%d", host, port)
	server := api.NewServer(address, cfg.Server)
	server.SetDependencies(deps)
	if err := server.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	// Channel to receive server errors
	serverErr := make(chan error, 1)

	// Start server in a goroutine
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("server error: %w", err)
		}
		close(serverErr)
	}()

	fmt.Fprintf(cmd.OutOrStdout(), "Server is ready to handle requests at %s\n", address)
	slog.Info("server started", "address", address, "media_root", cfg.Server.MediaRoot)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Wait for cancellation or server error
	var runErr error
	select {
	case <-ctx.Done():
		fmt.Fprintln(cmd.OutOrStdout(), "Shutting down server...")
	case err, ok := <-serverErr:
		if ok {
			runErr = err
		}
	}

	// Create a context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Attempt graceful shutdown
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if runErr != nil {
		return runErr
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Server gracefully stopped")
	return nil
}
