package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	redis "github.com/redis/go-redis/v9"

	"github.com/idilsaglam/royaltodo/internal/logging"
)

var (
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "royal_http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "royal_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	rlRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "royal_rate_limiter_requests_total",
			Help: "Requests allowed by the rate limiter",
		},
		[]string{"route"},
	)
	rlBlocked = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "royal_rate_limiter_blocked_total",
			Help: "Requests blocked by the rate limiter",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, rlRequests, rlBlocked)
}

// Metrics records request counts and latency per matched route.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		httpRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		httpDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

const claimsKey = "claims"

// RequireJWT rejects requests without a valid HS256 bearer token.
func RequireJWT(secret []byte) gin.HandlerFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	return func(c *gin.Context) {
		h := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(h, "Bearer ")
		if !found || strings.TrimSpace(raw) == "" {
			fail(c, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims := jwt.MapClaims{}
		_, err := parser.ParseWithClaims(strings.TrimSpace(raw), claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err != nil {
			msg := "invalid token"
			if errors.Is(err, jwt.ErrTokenExpired) {
				msg = "token expired"
			}
			fail(c, http.StatusUnauthorized, msg)
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RateLimiter is a fixed-window limiter backed by Redis INCR/EXPIRE.
// Keys look like rl:<window_seconds>:<client_ip>. It fails open: with no
// client, or when Redis errors, requests pass.
type RateLimiter struct {
	client *redis.Client
	max    int
	window time.Duration
	log    *log.Logger
}

// RateLimitOptions configures NewRateLimiter.
type RateLimitOptions struct {
	Addr     string
	Password string
	DB       int
	Max      int
	Window   time.Duration
}

// NewRateLimiter connects to Redis. It returns nil when the limiter is
// disabled (no address or Max <= 0). A failed ping keeps the limiter but
// without a client, so it lets everything through.
func NewRateLimiter(ctx context.Context, opts RateLimitOptions, logger *log.Logger) *RateLimiter {
	if opts.Addr == "" || opts.Max <= 0 {
		return nil
	}
	if logger == nil {
		logger = logging.Discard()
	}
	rl := &RateLimiter{max: opts.Max, window: opts.Window, log: logger}
	if rl.window <= 0 {
		rl.window = time.Minute
	}
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, Password: opts.Password, DB: opts.DB})
	pctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "addr", opts.Addr, "err", err)
		_ = client.Close()
		return rl
	}
	rl.client = client
	return rl
}

// Close releases the Redis connection.
func (rl *RateLimiter) Close() error {
	if rl == nil || rl.client == nil {
		return nil
	}
	return rl.client.Close()
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "rl:" + strconv.FormatInt(int64(rl.window.Seconds()), 10) + ":" + c.ClientIP()
		n, err := rl.client.Incr(ctx, key).Result()
		if err != nil {
			rl.log.Warn("rate limiter redis error", "err", err)
			c.Header("X-RateLimit-Error", "redis-error")
			c.Next()
			return
		}
		if n == 1 {
			rl.client.Expire(ctx, key, rl.window)
		}

		remaining := int64(rl.max) - n
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.max))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if n > int64(rl.max) {
			rlBlocked.WithLabelValues(c.FullPath()).Inc()
			fail(c, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		rlRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}
