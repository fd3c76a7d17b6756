package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/db"
	"github.com/ikkim/provider-portal-backend/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	seededBusinessID = 7
	closedBusinessID = 8
)

func setupRoleTest(t *testing.T) (*gin.Engine, *AuthMiddleware, *RoleMiddleware, repository.ProviderRepository) {
	t.Helper()
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	// providers only resolve through an active business
	require.NoError(t, testDB.Create(&model.BusinessProfile{
		ID:           seededBusinessID,
		BusinessName: "Glow Studio",
		BusinessType: model.BusinessTypeIndependent,
		ContactEmail: "owner@glow.example.com",
		IsActive:     true,
	}).Error)
	require.NoError(t, testDB.Create(&model.BusinessProfile{
		ID:           closedBusinessID,
		BusinessName: "Closed Studio",
		BusinessType: model.BusinessTypeIndependent,
		ContactEmail: "closed@glow.example.com",
		IsActive:     true,
	}).Error)
	require.NoError(t, testDB.Model(&model.BusinessProfile{}).Where("id = ?", closedBusinessID).Update("is_active", false).Error)

	providers := repository.NewProviderRepository(testDB)
	router, auth := setupMiddlewareTest()
	return router, auth, NewRoleMiddleware(providers), providers
}

func seedProvider(t *testing.T, repo repository.ProviderRepository, userID string, role model.ProviderRole) *model.Provider {
	t.Helper()
	p := &model.Provider{BusinessID: seededBusinessID, UserID: userID, ProviderRole: role, IsActive: true}
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func roleRequest(t *testing.T, router *gin.Engine, path, userID string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	req.Header.Set("Authorization", "Bearer "+generateTestToken(t, userID, userID+"@example.com", ""))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRoleMiddleware_RequireRole(t *testing.T) {
	router, auth, roles, providers := setupRoleTest(t)
	seedProvider(t, providers, "owner-1", model.RoleOwner)
	seedProvider(t, providers, "staff-1", model.RoleProvider)

	router.GET("/owner", auth.Authenticate(), roles.RequireRole(model.RoleOwner), func(c *gin.Context) {
		businessID, _ := GetBusinessID(c)
		c.JSON(http.StatusOK, gin.H{"business_id": businessID})
	})

	w := roleRequest(t, router, "/owner", "owner-1")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"business_id":7}`, w.Body.String())

	w = roleRequest(t, router, "/owner", "staff-1")
	assert.Equal(t, http.StatusForbidden, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, errors.AuthzRoleNotAllowed, body.Code)
	details := body.Details.(map[string]interface{})
	assert.Equal(t, []interface{}{"owner"}, details["required_roles"])
	assert.Equal(t, "provider", details["actual_role"])
}

func TestRoleMiddleware_NoProviderRecord(t *testing.T) {
	router, auth, roles, providers := setupRoleTest(t)
	inactive := seedProvider(t, providers, "gone-1", model.RoleOwner)
	require.NoError(t, providers.Deactivate(context.Background(), inactive.BusinessID, inactive.ID))

	router.GET("/staff", auth.Authenticate(), roles.RequireRole(model.RoleOwner, model.RoleDispatcher), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, user := range []string{"stranger", "gone-1"} {
		w := roleRequest(t, router, "/staff", user)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, errors.AuthzProviderNotFound, decodeError(t, w).Code)
	}
}

func TestRoleMiddleware_InactiveBusinessHidesProvider(t *testing.T) {
	router, auth, roles, providers := setupRoleTest(t)
	require.NoError(t, providers.Create(context.Background(), &model.Provider{
		BusinessID: closedBusinessID, UserID: "closed-owner", ProviderRole: model.RoleOwner, IsActive: true,
	}))

	router.GET("/owner", auth.Authenticate(), roles.RequireRole(model.RoleOwner), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := roleRequest(t, router, "/owner", "closed-owner")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, errors.AuthzProviderNotFound, decodeError(t, w).Code)
}

func TestRoleMiddleware_RequireCapability(t *testing.T) {
	router, auth, roles, providers := setupRoleTest(t)
	seedProvider(t, providers, "owner-1", model.RoleOwner)
	seedProvider(t, providers, "dispatch-1", model.RoleDispatcher)
	seedProvider(t, providers, "staff-1", model.RoleProvider)

	router.GET("/customers", auth.Authenticate(), roles.RequireCapability(model.CapCustomersView), func(c *gin.Context) {
		provider, ok := GetProvider(c)
		require.True(t, ok)
		c.String(http.StatusOK, string(provider.ProviderRole))
	})

	tests := []struct {
		user       string
		wantStatus int
	}{
		{"owner-1", http.StatusOK},
		{"dispatch-1", http.StatusOK},
		{"staff-1", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.user, func(t *testing.T) {
			w := roleRequest(t, router, "/customers", tt.user)
			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, errors.AuthzCapabilityMissing, decodeError(t, w).Code)
			}
		})
	}
}

func TestRoleMiddleware_AnonymousNeverReachesGate(t *testing.T) {
	router, auth, roles, _ := setupRoleTest(t)
	router.GET("/owner", auth.Authenticate(), roles.RequireRole(model.RoleOwner), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/owner", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
