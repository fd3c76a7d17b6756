package controller

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
	"github.com/ikkim/provider-portal-backend/internal/middleware"
)

// validation errors report json field names
func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// Pagination is the page block of list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

func respondData(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"data": data})
}

func respondList(c *gin.Context, data interface{}, page repository.Page, total int64) {
	totalPages := int64(0)
	if page.Limit > 0 {
		totalPages = (total + int64(page.Limit) - 1) / int64(page.Limit)
	}
	c.JSON(http.StatusOK, gin.H{
		"data": data,
		"pagination": Pagination{
			Page:       page.Page,
			Limit:      page.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

// pageFromQuery reads page/limit, clamped to the repository limits.
func pageFromQuery(c *gin.Context) repository.Page {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(repository.DefaultPageLimit)))
	return repository.Page{Page: page, Limit: limit}.Normalize()
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// bindJSON binds the body and writes the validation envelope on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apperrors.RespondWithDetails(c, http.StatusRequestEntityTooLarge, apperrors.ValidationPayloadTooLarge,
				fmt.Sprintf("Request body must be %d bytes or smaller", tooLarge.Limit),
				map[string]int64{"max_bytes": tooLarge.Limit})
			return false
		}
		if verrs, ok := err.(validator.ValidationErrors); ok {
			apperrors.RespondWithValidationError(c, apperrors.ValidationFields(verrs))
			return false
		}
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Request body is not valid JSON")
		return false
	}
	return true
}

// currentUser returns the session subject; the route must run Authenticate.
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return "", false
	}
	return userID, true
}

// gatedBusiness returns the business admitted by the phase gate.
func gatedBusiness(c *gin.Context) (uint, bool) {
	businessID, ok := middleware.GetBusinessID(c)
	if !ok {
		apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.OnboardingLinkInvalid, "Invalid or expired link")
		return 0, false
	}
	return businessID, true
}

// currentProvider returns the provider attached by the role gate.
func currentProvider(c *gin.Context) (*model.Provider, bool) {
	p, ok := middleware.GetProvider(c)
	if !ok {
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzProviderNotFound, "No provider profile found for this account")
		return nil, false
	}
	return p, true
}
