package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/wavepng/internal/services/cache"
)

func setupCachedRouter(t *testing.T, enabled bool) (*gin.Engine, *int) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := cache.NewMemoryCache(1)
	t.Cleanup(store.Stop)

	calls := 0
	router := gin.New()
	router.Use(CacheMiddleware(CacheConfig{Cache: store, TTL: time.Minute, Enabled: enabled}, "X-Waveform-Start"))
	router.GET("/img", func(c *gin.Context) {
		calls++
		if c.Query("fail") != "" {
			c.JSON(http.StatusNotFound, gin.H{"code": "INPUT_NOT_FOUND"})
			return
		}
		c.Header("X-Waveform-Start", "1.5")
		c.Header("X-Other", "dropped")
		c.Data(http.StatusOK, "image/png", []byte{0x89, 'P', 'N', 'G', 0, 1, 2})
	})
	return router, &calls
}

func request(router *gin.Engine, url string, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestCacheMiddleware_HitAndMiss(t *testing.T) {
	router, calls := setupCachedRouter(t, true)

	first := request(router, "/img?file=a.wav&width=10", nil)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get(HeaderResponseCache))

	// query order does not matter
	second := request(router, "/img?width=10&file=a.wav", nil)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Equal(t, "HIT", second.Header().Get(HeaderResponseCache))
	assert.Equal(t, first.Body.Bytes(), second.Body.Bytes())
	assert.Equal(t, "image/png", second.Header().Get("Content-Type"))
	assert.Equal(t, "1.5", second.Header().Get("X-Waveform-Start"))
	assert.Empty(t, second.Header().Get("X-Other"))
	assert.NotEmpty(t, second.Header().Get("ETag"))
	assert.Equal(t, 1, *calls)

	notModified := request(router, "/img?file=a.wav&width=10", map[string]string{"If-None-Match": second.Header().Get("ETag")})
	assert.Equal(t, http.StatusNotModified, notModified.Code)
	assert.Equal(t, 1, *calls)

	other := request(router, "/img?file=a.wav&width=20", nil)
	assert.Equal(t, "MISS", other.Header().Get(HeaderResponseCache))
	assert.Equal(t, 2, *calls)
}

func TestCacheMiddleware_Bypass(t *testing.T) {
	router, calls := setupCachedRouter(t, true)

	request(router, "/img?file=a.wav", nil)

	for _, headers := range []map[string]string{
		{"Cache-Control": "no-cache"},
		{"Cache-Control": "private, max-age=0"},
		{"Pragma": "no-cache"},
	} {
		w := request(router, "/img?file=a.wav", headers)
		assert.Equal(t, "BYPASS", w.Header().Get(HeaderResponseCache))
	}
	assert.Equal(t, 4, *calls)
}

func TestCacheMiddleware_ErrorsAreNotCached(t *testing.T) {
	router, calls := setupCachedRouter(t, true)

	request(router, "/img?fail=1", nil)
	w := request(router, "/img?fail=1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "MISS", w.Header().Get(HeaderResponseCache))
	assert.Equal(t, 2, *calls)
}

func TestCacheMiddleware_Disabled(t *testing.T) {
	router, calls := setupCachedRouter(t, false)

	request(router, "/img?file=a.wav", nil)
	w := request(router, "/img?file=a.wav", nil)
	assert.Empty(t, w.Header().Get(HeaderResponseCache))
	assert.Equal(t, 2, *calls)
}
