package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	"github.com/ikkim/provider-portal-backend/internal/errors"
	"github.com/ikkim/provider-portal-backend/internal/metrics"
	"golang.org/x/time/rate"
)

const (
	OnboardingTokenHeader = "X-Onboarding-Token"
	OnboardingTokenKey    = "onboarding_token_id"

	limiterIdleTTL = 10 * time.Minute
)

// LinkValidator resolves a raw phase-2 link token.
type LinkValidator interface {
	ValidateLinkToken(ctx context.Context, raw string) (*model.OnboardingToken, error)
}

// PhaseGate admits holders of a live phase-2 onboarding link. Every refusal
// produces the same 401 body so callers cannot tell why a link failed.
type PhaseGate struct {
	validator LinkValidator
	limiter   *ipLimiter
	metrics   *metrics.Metrics
}

func NewPhaseGate(validator LinkValidator, cfg config.RateLimitConfig, m *metrics.Metrics) *PhaseGate {
	return &PhaseGate{
		validator: validator,
		limiter:   newIPLimiter(cfg.PhaseGatePerMinute, cfg.PhaseGateBurst),
		metrics:   m,
	}
}

func (g *PhaseGate) reject(c *gin.Context, reason string) {
	g.metrics.PhaseGateRejected(reason)
	GetLoggerFromContext(c).Warn("Phase gate rejected request", map[string]interface{}{
		"reason": reason,
		"path":   c.Request.URL.Path,
	})
	errors.RespondWithError(c, http.StatusUnauthorized, errors.OnboardingLinkInvalid, "Invalid or expired link")
	c.Abort()
}

func (g *PhaseGate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.limiter.allow(c.ClientIP()) {
			g.metrics.PhaseGateRejected("rate_limited")
			errors.RespondWithError(c, http.StatusTooManyRequests, errors.OnboardingRateLimited, "Too many requests, try again shortly")
			c.Abort()
			return
		}

		raw := strings.TrimSpace(c.GetHeader(OnboardingTokenHeader))
		if raw == "" {
			raw = strings.TrimSpace(c.Query("token"))
		}
		if raw == "" {
			g.reject(c, "missing")
			return
		}

		token, err := g.validator.ValidateLinkToken(c.Request.Context(), raw)
		if err != nil {
			var linkErr *service.LinkError
			if stderrors.As(err, &linkErr) {
				g.reject(c, linkErr.Reason)
				return
			}
			// store failures are not link failures
			errors.Respond(c, err)
			c.Abort()
			return
		}

		c.Set(BusinessIDKey, token.BusinessID)
		c.Set(OnboardingTokenKey, token.ID)
		c.Next()
	}
}

// ipLimiter keeps one token bucket per client IP.
type ipLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	visitors  map[string]*visitor
	lastSweep time.Time
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(perMinute, burst int) *ipLimiter {
	if perMinute < 1 {
		perMinute = 60
	}
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		limit:     rate.Every(time.Minute / time.Duration(perMinute)),
		burst:     burst,
		visitors:  make(map[string]*visitor),
		lastSweep: time.Now(),
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.Sub(l.lastSweep) > limiterIdleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > limiterIdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastSweep = now
	}

	v, ok := l.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.Allow()
}
