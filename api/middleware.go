package api

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/killallgit/wavepng/api/types"
	"github.com/killallgit/wavepng/pkg/config"
	apperrors "github.com/killallgit/wavepng/pkg/errors"
)

// HeaderRequestID carries the request id on requests and responses
const HeaderRequestID = "X-Request-ID"

const (
	limiterSweepInterval = 5 * time.Minute
	limiterMaxIdle       = 10 * time.Minute
)

// clientLimiter holds a rate limiter and its last accessed time
type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// CORS applies the configured cross-origin policy. Preflight requests are
// answered with 204.
func CORS(cfg config.SecurityConfig) gin.HandlerFunc {
	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	methods := strings.Join(cfg.CORSMethods, ", ")
	headers := strings.Join(cfg.CORSHeaders, ", ")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowed := allowedOrigin(origins, origin); allowed != "" {
			c.Header("Access-Control-Allow-Origin", allowed)
			if allowed != "*" {
				c.Header("Vary", "Origin")
			}
		}
		if methods != "" {
			c.Header("Access-Control-Allow-Methods", methods)
		}
		if headers != "" {
			c.Header("Access-Control-Allow-Headers", headers)
		}
		c.Header("Access-Control-Expose-Headers", "X-Waveform-Start, X-Waveform-End, X-Waveform-Cache, "+HeaderRequestID)
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func allowedOrigin(origins []string, origin string) string {
	for _, o := range origins {
		if o == "*" {
			return "*"
		}
		if origin != "" && strings.EqualFold(o, origin) {
			return origin
		}
	}
	return ""
}

// RequestID tags each request with an id, reusing one sent by the client
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// PerClientRateLimit limits each client IP to requestsPerMinute with the
// given burst
func PerClientRateLimit(rateLimiters *sync.Map, cleanupStop chan struct{}, cleanupInitialized *sync.Once, requestsPerMinute int, burst int) gin.HandlerFunc {
	cleanupInitialized.Do(func() {
		go cleanupOldRateLimiters(rateLimiters, cleanupStop)
	})

	every := rate.Inf
	if requestsPerMinute > 0 {
		every = rate.Every(time.Minute / time.Duration(requestsPerMinute))
	}
	if burst <= 0 {
		burst = 1
	}
	limit := strconv.Itoa(requestsPerMinute) + " requests per minute"

	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		value, ok := rateLimiters.Load(clientIP)
		if !ok {
			value, _ = rateLimiters.LoadOrStore(clientIP, &clientLimiter{limiter: rate.NewLimiter(every, burst)})
		}
		cl := value.(*clientLimiter)
		cl.lastSeen.Store(time.Now().UnixNano())

		if !cl.limiter.Allow() {
			types.SendError(c, apperrors.RateLimitError(c.FullPath(), limit))
			return
		}
		c.Next()
	}
}

func cleanupOldRateLimiters(rateLimiters *sync.Map, cleanupStop chan struct{}) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			sweepRateLimiters(rateLimiters, now, limiterMaxIdle)
		case <-cleanupStop:
			return
		}
	}
}

// sweepRateLimiters drops limiters of clients idle for longer than maxIdle
func sweepRateLimiters(rateLimiters *sync.Map, now time.Time, maxIdle time.Duration) {
	rateLimiters.Range(func(key, value interface{}) bool {
		cl, ok := value.(*clientLimiter)
		if !ok || now.Sub(time.Unix(0, cl.lastSeen.Load())) > maxIdle {
			rateLimiters.Delete(key)
		}
		return true
	})
}
