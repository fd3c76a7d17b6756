package middleware

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/errors"
	"gorm.io/gorm"
)

const (
	ProviderKey     = "provider"
	ProviderRoleKey = "provider_role"
	BusinessIDKey   = "business_id"
)

// RoleMiddleware resolves the caller's provider record and gates routes by
// provider role or capability. Must run after AuthMiddleware.Authenticate.
type RoleMiddleware struct {
	providerRepo repository.ProviderRepository
}

func NewRoleMiddleware(providerRepo repository.ProviderRepository) *RoleMiddleware {
	return &RoleMiddleware{providerRepo: providerRepo}
}

// loadProvider attaches the active provider for the session subject, reusing
// one already loaded earlier in the chain.
func (m *RoleMiddleware) loadProvider(c *gin.Context) (*model.Provider, bool) {
	if p, ok := GetProvider(c); ok {
		return p, true
	}

	log := GetLoggerFromContext(c)
	userID, ok := GetUserID(c)
	if !ok {
		errors.Unauthorized(c, "")
		c.Abort()
		return nil, false
	}

	provider, err := m.providerRepo.FindActiveByUserID(c.Request.Context(), userID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			log.Warn("No active provider for user", map[string]interface{}{
				"user_id": userID,
				"path":    c.Request.URL.Path,
			})
			errors.RespondWithError(c, http.StatusForbidden, errors.AuthzProviderNotFound, "No provider profile found for this account")
			c.Abort()
			return nil, false
		}
		errors.Respond(c, err)
		c.Abort()
		return nil, false
	}

	c.Set(ProviderKey, provider)
	c.Set(ProviderRoleKey, provider.ProviderRole)
	c.Set(BusinessIDKey, provider.BusinessID)
	return provider, true
}

// RequireRole admits callers whose provider role is one of roles.
func (m *RoleMiddleware) RequireRole(roles ...model.ProviderRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := m.loadProvider(c)
		if !ok {
			return
		}

		for _, r := range roles {
			if provider.ProviderRole == r {
				c.Next()
				return
			}
		}

		GetLoggerFromContext(c).Warn("Provider role not allowed", map[string]interface{}{
			"provider_id":    provider.ID,
			"actual_role":    provider.ProviderRole,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		errors.RespondWithDetails(c, http.StatusForbidden, errors.AuthzRoleNotAllowed,
			"Your role does not allow this action", map[string]interface{}{
				"required_roles": roles,
				"actual_role":    provider.ProviderRole,
			})
		c.Abort()
	}
}

// RequireCapability admits callers whose role holds at least one of features.
func (m *RoleMiddleware) RequireCapability(features ...model.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		provider, ok := m.loadProvider(c)
		if !ok {
			return
		}

		for _, feature := range features {
			if model.HasCapability(provider.ProviderRole, feature) {
				c.Next()
				return
			}
		}

		GetLoggerFromContext(c).Warn("Provider capability missing", map[string]interface{}{
			"provider_id":  provider.ID,
			"role":         provider.ProviderRole,
			"capabilities": features,
		})
		errors.RespondWithDetails(c, http.StatusForbidden, errors.AuthzCapabilityMissing,
			"Your role does not allow this action", map[string]interface{}{
				"required_capabilities": features,
				"actual_role":           provider.ProviderRole,
			})
		c.Abort()
	}
}

// GetProvider returns the provider attached by RoleMiddleware
func GetProvider(c *gin.Context) (*model.Provider, bool) {
	v, exists := c.Get(ProviderKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*model.Provider)
	return p, ok
}

// GetBusinessID returns the business attached by RoleMiddleware or PhaseGate
func GetBusinessID(c *gin.Context) (uint, bool) {
	v, exists := c.Get(BusinessIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
