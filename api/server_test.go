package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/wavepng/api/middleware"
	"github.com/killallgit/wavepng/api/types"
	"github.com/killallgit/wavepng/api/waveform"
	"github.com/killallgit/wavepng/internal/database"
	"github.com/killallgit/wavepng/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Render: config.RenderConfig{Width: 32, Height: 16, Background: "00000000", Foreground: "FFFFFFFF"},
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080, MediaRoot: t.TempDir()},
		RateLimiting: config.RateLimitConfig{
			Enabled:           true,
			RequestsPerMinute: 1,
			Burst:             2,
		},
		Security: config.SecurityConfig{
			EnableCORS:      true,
			CORSOrigins:     []string{"*"},
			CORSMethods:     []string{"GET", "OPTIONS"},
			EnableRequestID: true,
		},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.InitializeWithMigrations(":memory:", false)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := testConfig(t)
	server := NewServer("127.0.0.1:0", cfg.Server)
	server.SetDependencies(&types.Dependencies{DB: db, Config: cfg, Version: "1.0.0"})
	require.NoError(t, server.Initialize())
	t.Cleanup(func() { server.Shutdown(context.Background()) })
	return server
}

func TestServer_Routes(t *testing.T) {
	server := newTestServer(t)

	tests := []struct {
		name           string
		path           string
		expectedStatus int
	}{
		{"health", "/health", http.StatusOK},
		{"version", "/", http.StatusOK},
		{"docs redirect", "/docs", http.StatusMovedPermanently},
		{"swagger spec", "/docs/doc.json", http.StatusOK},
		{"unknown route", "/api/v1/episodes", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			server.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}

func TestServer_HealthReportsDatabase(t *testing.T) {
	server := newTestServer(t)

	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var response types.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "healthy", response.Database.Status)
}

func TestServer_NotFoundBody(t *testing.T) {
	server := newTestServer(t)

	w := httptest.NewRecorder()
	server.Engine().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))

	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body.Code)
}

func TestServer_WaveformIsRateLimited(t *testing.T) {
	server := newTestServer(t)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/v1/waveform?file=missing.wav", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		server.Engine().ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests}, codes)

	// health is never limited
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "10.0.0.1:4000"
		server.Engine().ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestServer_ResponseCache(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cfg := testConfig(t)
	cfg.RateLimiting.Enabled = false
	cfg.ResponseCache = config.ResponseCacheConfig{Enabled: true, TTL: time.Minute, MaxSizeMB: 1}
	writeMonoWAV(t, filepath.Join(cfg.Server.MediaRoot, "clip.wav"))

	server := NewServer("127.0.0.1:0", cfg.Server)
	server.SetDependencies(&types.Dependencies{Config: cfg})
	require.NoError(t, server.Initialize())
	t.Cleanup(func() { server.Shutdown(context.Background()) })

	first := httptest.NewRecorder()
	server.Engine().ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/api/v1/waveform?file=clip.wav", nil))
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(middleware.HeaderResponseCache))

	second := httptest.NewRecorder()
	server.Engine().ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/api/v1/waveform?file=clip.wav", nil))
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get(middleware.HeaderResponseCache))
	assert.Equal(t, first.Header().Get(waveform.HeaderEnd), second.Header().Get(waveform.HeaderEnd))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
}

func writeMonoWAV(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	data := make([]int, 4000)
	for i := range data {
		data[i] = (i%40 - 20) * 1000
	}

	enc := wav.NewEncoder(f, 4000, 16, 1, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: 4000},
		Data:           data,
		SourceBitDepth: 16,
	}))
	require.NoError(t, enc.Close())
	require.NoError(t, f.Close())
}
