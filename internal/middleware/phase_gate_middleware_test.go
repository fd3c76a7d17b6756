package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/config"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	"github.com/stretchr/testify/assert"
)

// stubValidator accepts "good" and refuses everything else with reasons[raw].
type stubValidator struct {
	reasons map[string]string
}

func (s stubValidator) ValidateLinkToken(_ context.Context, raw string) (*model.OnboardingToken, error) {
	if raw == "good" {
		return &model.OnboardingToken{ID: "tok-1", BusinessID: 42}, nil
	}
	if raw == "db-down" {
		return nil, stderrors.New("dial tcp: connection refused")
	}
	return nil, &service.LinkError{Reason: s.reasons[raw]}
}

func setupPhaseGate(perMinute, burst int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	gate := NewPhaseGate(stubValidator{reasons: map[string]string{
		"expired": "expired",
		"revoked": "revoked",
		"bad":     "malformed",
	}}, config.RateLimitConfig{PhaseGatePerMinute: perMinute, PhaseGateBurst: burst}, nil)

	router := gin.New()
	router.GET("/phase2/status", gate.Handler(), func(c *gin.Context) {
		businessID, _ := GetBusinessID(c)
		c.JSON(http.StatusOK, gin.H{"business_id": businessID, "token_id": c.GetString(OnboardingTokenKey)})
	})
	return router
}

func TestPhaseGate_AdmitsValidToken(t *testing.T) {
	router := setupPhaseGate(600, 100)

	req := httptest.NewRequest("GET", "/phase2/status", nil)
	req.Header.Set(OnboardingTokenHeader, "good")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"business_id":42,"token_id":"tok-1"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/phase2/status?token=good", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPhaseGate_IdenticalBodyForEveryFailure(t *testing.T) {
	router := setupPhaseGate(600, 100)
	const want = `{"error":"Invalid or expired link","code":"ONBOARDING_LINK_INVALID"}`

	for _, raw := range []string{"", "expired", "revoked", "bad"} {
		t.Run("token="+raw, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/phase2/status", nil)
			if raw != "" {
				req.Header.Set(OnboardingTokenHeader, raw)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, want, w.Body.String())
		})
	}
}

func TestPhaseGate_StoreErrorIsNotALinkError(t *testing.T) {
	router := setupPhaseGate(600, 100)

	req := httptest.NewRequest("GET", "/phase2/status", nil)
	req.Header.Set(OnboardingTokenHeader, "db-down")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.NotEqual(t, http.StatusUnauthorized, w.Code)
	assert.GreaterOrEqual(t, w.Code, 500)
}

func TestPhaseGate_RateLimitedPerIP(t *testing.T) {
	router := setupPhaseGate(1, 2)

	send := func(ip string) int {
		req := httptest.NewRequest("GET", "/phase2/status", nil)
		req.Header.Set(OnboardingTokenHeader, "good")
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusOK, send("10.0.0.2"), "buckets are per client")
}
