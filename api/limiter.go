package api

import (
	"sync"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/time/rate"
)

// sessionLimiter hands out one token bucket per session id.
type sessionLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

// newSessionLimiter returns nil when perSecond is not positive, which
// disables limiting.
func newSessionLimiter(perSecond float64, burst int) *sessionLimiter {
	if perSecond <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return &sessionLimiter{
		limit:    rate.Limit(perSecond),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *sessionLimiter) allow(id string) bool {
	if l == nil {
		return true
	}

	l.mu.Lock()
	lim, ok := l.limiters[id]
	if !ok {
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[id] = lim
	}
	l.mu.Unlock()

	return lim.Allow()
}

func (l *sessionLimiter) forget(id string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	delete(l.limiters, id)
	l.mu.Unlock()
}

// limited rejects requests for a session that is over its rate.
func (s *Server) limited(h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !s.limiter.allow(c.Params("id")) {
			return c.Status(fiber.StatusTooManyRequests).JSON(ErrorResponse{Error: "rate limit exceeded"})
		}
		return h(c)
	}
}
