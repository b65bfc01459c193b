package rest

import (
	"crypto/rand"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"inventory-vision/internal/infrastructure/logger"
)

const RequestIDHeader = "X-Request-ID"

func newRequestID(t time.Time) string {
	id, err := ulid.New(ulid.Timestamp(t), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return "unknown"
	}
	return id.String()
}

// requestIDMiddleware берёт X-Request-ID клиента или выдаёт ULID и кладёт его в контекст запроса
func (s *Server) requestIDMiddleware(c *fiber.Ctx) error {
	requestID := c.Get(RequestIDHeader)
	if requestID == "" {
		requestID = newRequestID(time.Now())
	}

	c.Set(RequestIDHeader, requestID)
	c.SetUserContext(logger.WithRequestID(c.UserContext(), requestID))

	return c.Next()
}

func (s *Server) accessLogMiddleware(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}

	entry := logger.FromContext(c.UserContext(), s.log).WithFields(logrus.Fields{
		"method":        c.Method(),
		"path":          c.Path(),
		"status":        status,
		"latency_ms":    time.Since(start).Milliseconds(),
		"ip":            c.IP(),
		"user_agent":    c.Get(fiber.HeaderUserAgent),
		"response_size": len(c.Response().Body()),
	})

	switch {
	case status >= 500:
		entry.Error("Server error")
	case status >= 400:
		entry.Warn("Client error")
	default:
		entry.Info("Success")
	}

	return err
}

// limiterIdleTTL через столько простоя bucket IP удаляется из карты
const limiterIdleTTL = 10 * time.Minute

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimiter token bucket на каждый IP
type rateLimiter struct {
	bucket    map[string]*visitor
	rate      rate.Limit
	burstSize int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
	mu        sync.Mutex
}

func newRateLimiter(reqRate rate.Limit, burstSize int) *rateLimiter {
	return &rateLimiter{
		bucket:    make(map[string]*visitor),
		rate:      reqRate,
		burstSize: burstSize,
		idleTTL:   limiterIdleTTL,
		now:       time.Now,
	}
}

func (r *rateLimiter) limiterFor(ip string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Sub(r.lastSweep) >= r.idleTTL {
		r.evictIdle(now)
		r.lastSweep = now
	}

	v, ok := r.bucket[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(r.rate, r.burstSize)}
		r.bucket[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// evictIdle вызывается под r.mu
func (r *rateLimiter) evictIdle(now time.Time) {
	for ip, v := range r.bucket {
		if now.Sub(v.lastSeen) >= r.idleTTL {
			delete(r.bucket, ip)
		}
	}
}

func (s *Server) rateLimitMiddleware(c *fiber.Ctx) error {
	if s.limiter.rate <= 0 {
		return c.Next()
	}

	ip := c.IP()
	if !s.limiter.limiterFor(ip).Allow() {
		logger.FromContext(c.UserContext(), s.log).Warnf("too many requests for IP %s", ip)
		return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{
			Error: "Too many requests",
			Code:  "TOO_MANY_REQUESTS",
		})
	}

	return c.Next()
}
