package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// TriggerGate guards the external scheduler trigger. The endpoint is public
// network surface in the hosted deployment, so every request must present
// the pre-shared key before anything downstream runs; an unauthenticated
// caller could otherwise exhaust the delivery gateways or spam recipients.
// Rejections short-circuit with no claims taken and no audit rows written.
type TriggerGate struct {
	apiKey       string
	maxBodyBytes int64
	limiter      *rate.Limiter
}

func NewTriggerGate(apiKey string, maxBodyBytes int64, ratePerMinute int) *TriggerGate {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	if ratePerMinute <= 0 {
		ratePerMinute = 10
	}
	return &TriggerGate{
		apiKey:       apiKey,
		maxBodyBytes: maxBodyBytes,
		limiter:      rate.NewLimiter(rate.Limit(float64(ratePerMinute)/60.0), ratePerMinute),
	}
}

func (g *TriggerGate) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if g.apiKey == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "trigger endpoint not configured"})
			c.Abort()
			return
		}

		key := c.GetHeader("X-API-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(g.apiKey)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			c.Abort()
			return
		}

		if !g.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}

		if c.Request.ContentLength > g.maxBodyBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, g.maxBodyBytes)

		// ContentLength is -1 for chunked requests; only a known-empty body
		// skips the check.
		if ct := c.ContentType(); c.Request.ContentLength != 0 && !strings.HasPrefix(ct, "application/json") {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "content type must be application/json"})
			c.Abort()
			return
		}

		c.Next()
	}
}
