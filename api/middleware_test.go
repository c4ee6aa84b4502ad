package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/wavepng/api/types"
	"github.com/killallgit/wavepng/pkg/config"
)

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	wildcard := config.SecurityConfig{
		CORSOrigins: []string{"*"},
		CORSMethods: []string{"GET", "OPTIONS"},
		CORSHeaders: []string{"Content-Type", "X-Request-ID"},
	}
	restricted := config.SecurityConfig{
		CORSOrigins: []string{"https://app.example.com"},
		CORSMethods: []string{"GET"},
	}

	tests := []struct {
		name            string
		cfg             config.SecurityConfig
		method          string
		origin          string
		expectedStatus  int
		expectedHeaders map[string]string
	}{
		{
			name:           "preflight request",
			cfg:            wildcard,
			method:         http.MethodOptions,
			origin:         "https://example.com",
			expectedStatus: http.StatusNoContent,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin":  "*",
				"Access-Control-Allow-Methods": "GET, OPTIONS",
				"Access-Control-Allow-Headers": "Content-Type, X-Request-ID",
			},
		},
		{
			name:           "regular GET request",
			cfg:            wildcard,
			method:         http.MethodGet,
			origin:         "https://example.com",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "*",
			},
		},
		{
			name:           "listed origin is echoed",
			cfg:            restricted,
			method:         http.MethodGet,
			origin:         "https://app.example.com",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "https://app.example.com",
				"Vary":                        "Origin",
			},
		},
		{
			name:           "unlisted origin gets no allow header",
			cfg:            restricted,
			method:         http.MethodGet,
			origin:         "https://evil.example.com",
			expectedStatus: http.StatusOK,
			expectedHeaders: map[string]string{
				"Access-Control-Allow-Origin": "",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			_, router := gin.CreateTestContext(w)

			router.Use(CORS(tt.cfg))
			router.Any("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			for header, expectedValue := range tt.expectedHeaders {
				assert.Equal(t, expectedValue, w.Header().Get(header), "Header: %s", header)
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString("request_id"))
	})

	t.Run("generates an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

		id := w.Header().Get(HeaderRequestID)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps the client id", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set(HeaderRequestID, "abc-123")
		router.ServeHTTP(w, req)

		assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
	})
}

func TestPerClientRateLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name              string
		requestCount      int
		requestsPerMinute int
		burstSize         int
		expectSomeBlocked bool
	}{
		{
			name:              "requests within burst",
			requestCount:      3,
			requestsPerMinute: 60,
			burstSize:         5,
			expectSomeBlocked: false,
		},
		{
			name:              "requests beyond burst",
			requestCount:      6,
			requestsPerMinute: 60,
			burstSize:         3,
			expectSomeBlocked: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rateLimiters := &sync.Map{}
			cleanupStop := make(chan struct{})
			defer close(cleanupStop)

			router := gin.New()
			router.Use(PerClientRateLimit(rateLimiters, cleanupStop, &sync.Once{}, tt.requestsPerMinute, tt.burstSize))
			router.GET("/test", func(c *gin.Context) {
				c.JSON(http.StatusOK, gin.H{"message": "success"})
			})

			successCount := 0
			blockedCount := 0
			var lastBlocked *httptest.ResponseRecorder

			for i := 0; i < tt.requestCount; i++ {
				w := httptest.NewRecorder()
				req := httptest.NewRequest(http.MethodGet, "/test", nil)
				req.RemoteAddr = "127.0.0.1:12345"

				router.ServeHTTP(w, req)

				switch w.Code {
				case http.StatusOK:
					successCount++
				case http.StatusTooManyRequests:
					blockedCount++
					lastBlocked = w
				}
			}

			if !tt.expectSomeBlocked {
				assert.Equal(t, 0, blockedCount, "Expected no requests to be blocked")
				assert.Equal(t, tt.requestCount, successCount, "Expected all requests to succeed")
				return
			}

			assert.Equal(t, tt.burstSize, successCount)
			require.NotNil(t, lastBlocked)
			var body types.ErrorResponse
			require.NoError(t, json.Unmarshal(lastBlocked.Body.Bytes(), &body))
			assert.Equal(t, "API_RATE_LIMIT", body.Code)
		})
	}
}

func TestPerClientRateLimit_DifferentClients(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rateLimiters := &sync.Map{}
	cleanupStop := make(chan struct{})
	defer close(cleanupStop)

	router := gin.New()
	router.Use(PerClientRateLimit(rateLimiters, cleanupStop, &sync.Once{}, 1, 2))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "success"})
	})

	// Client 1 exhausts its burst
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.RemoteAddr = "127.0.0.1:12345"
		router.ServeHTTP(w, req)
	}

	// Client 2 is unaffected
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "192.168.1.1:54321"
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSweepRateLimiters(t *testing.T) {
	rateLimiters := &sync.Map{}
	now := time.Now()

	idle := &clientLimiter{}
	idle.lastSeen.Store(now.Add(-time.Hour).UnixNano())
	active := &clientLimiter{}
	active.lastSeen.Store(now.Add(-time.Minute).UnixNano())

	rateLimiters.Store("idle", idle)
	rateLimiters.Store("active", active)

	sweepRateLimiters(rateLimiters, now, 10*time.Minute)

	_, ok := rateLimiters.Load("idle")
	assert.False(t, ok)
	_, ok = rateLimiters.Load("active")
	assert.True(t, ok)
}
