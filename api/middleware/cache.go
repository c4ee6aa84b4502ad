package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/killallgit/wavepng/internal/services/cache"
)

// HeaderResponseCache reports whether a response came from the cache
const HeaderResponseCache = "X-Response-Cache"

// CacheConfig holds configuration for cache middleware
type CacheConfig struct {
	Cache   cache.Cache
	TTL     time.Duration
	Enabled bool
}

// responseWriter captures response for caching
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

// cachedResponse is a stored successful response
type cachedResponse struct {
	Headers     map[string]string `json:"headers"`
	Body        []byte            `json:"body"`
	ContentType string            `json:"content_type"`
	CachedAt    time.Time         `json:"cached_at"`
	ETag        string            `json:"etag"`
}

// CacheMiddleware serves repeated GET requests from cache. Only 200
// responses are stored; the listed headers are stored with them.
func CacheMiddleware(config CacheConfig, keepHeaders ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !config.Enabled || config.Cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		// Check cache control headers from client
		if shouldBypassCache(c.Request) {
			c.Header(HeaderResponseCache, "BYPASS")
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := generateCacheKey(c.Request)

		if data, found := config.Cache.Get(ctx, key); found {
			var response cachedResponse
			if err := json.Unmarshal(data, &response); err == nil {
				if match := c.GetHeader("If-None-Match"); match != "" && match == response.ETag {
					c.Header("ETag", response.ETag)
					c.AbortWithStatus(http.StatusNotModified)
					return
				}

				for name, value := range response.Headers {
					c.Header(name, value)
				}
				c.Header(HeaderResponseCache, "HIT")
				c.Header("ETag", response.ETag)
				c.Header("Age", fmt.Sprintf("%d", int(time.Since(response.CachedAt).Seconds())))
				c.Data(http.StatusOK, response.ContentType, response.Body)
				c.Abort()
				return
			}
			_ = config.Cache.Delete(ctx, key)
		}

		c.Header(HeaderResponseCache, "MISS")

		w := &responseWriter{ResponseWriter: c.Writer, body: bytes.NewBuffer(nil)}
		c.Writer = w

		c.Next()

		if w.Status() != http.StatusOK || w.body.Len() == 0 {
			return
		}

		response := cachedResponse{
			Headers:     make(map[string]string, len(keepHeaders)),
			Body:        w.body.Bytes(),
			ContentType: w.Header().Get("Content-Type"),
			CachedAt:    time.Now(),
			ETag:        generateETag(w.body.Bytes()),
		}
		for _, name := range keepHeaders {
			if value := w.Header().Get(name); value != "" {
				response.Headers[name] = value
			}
		}

		if data, err := json.Marshal(response); err == nil {
			_ = config.Cache.Set(ctx, key, data, config.TTL)
		}
	}
}

// shouldBypassCache checks if cache should be bypassed based on request headers
func shouldBypassCache(req *http.Request) bool {
	for _, directive := range strings.Split(strings.ToLower(req.Header.Get("Cache-Control")), ",") {
		switch strings.TrimSpace(directive) {
		case "no-cache", "no-store", "max-age=0":
			return true
		}
	}

	// Also check Pragma header for backwards compatibility
	return req.Header.Get("Pragma") == "no-cache"
}

// generateCacheKey builds a key from the path and the sorted query
func generateCacheKey(req *http.Request) string {
	parts := []string{req.URL.Path}

	params := req.URL.Query()
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range params[k] {
			parts = append(parts, k+"="+v)
		}
	}

	return "http:" + strings.Join(parts, "&")
}

// generateETag creates an ETag for the response body
func generateETag(body []byte) string {
	hash := sha256.Sum256(body)
	return `"` + hex.EncodeToString(hash[:16]) + `"`
}
