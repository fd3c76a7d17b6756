package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
)

type BusinessController struct {
	catalogService service.BusinessCatalogService
}

func NewBusinessController(catalogService service.BusinessCatalogService) *BusinessController {
	return &BusinessController{catalogService: catalogService}
}

type OfferingRequest struct {
	ServiceID               uint                `json:"service_id"`
	BusinessPrice           *float64            `json:"business_price"`
	BusinessDurationMinutes *int                `json:"business_duration_minutes"`
	DeliveryType            *model.DeliveryType `json:"delivery_type"`
	IsActive                *bool               `json:"is_active"`
	Version                 *int                `json:"version"`
}

type AddonRequest struct {
	CustomPrice float64 `json:"custom_price"`
	IsAvailable bool    `json:"is_available"`
}

func (r OfferingRequest) input() service.OfferingInput {
	return service.OfferingInput{
		ServiceID:               r.ServiceID,
		BusinessPrice:           r.BusinessPrice,
		BusinessDurationMinutes: r.BusinessDurationMinutes,
		DeliveryType:            r.DeliveryType,
		IsActive:                r.IsActive,
		Version:                 r.Version,
	}
}

// ListServices 업체 제공 서비스 목록
// @Router /business/services [get]
func (ctrl *BusinessController) ListServices(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	offerings, err := ctrl.catalogService.ListServices(c.Request.Context(), provider.BusinessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, offerings)
}

// CreateService 제공 서비스 추가
// @Router /business/services [post]
func (ctrl *BusinessController) CreateService(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	var req OfferingRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.ServiceID == 0 {
		apperrors.RespondWithValidationError(c, map[string]string{"service_id": "required"})
		return
	}

	offering, err := ctrl.catalogService.CreateService(c.Request.Context(), provider.BusinessID, req.input())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusCreated, offering)
}

// UpdateService 제공 서비스 가격/소요시간 수정
// @Router /business/services/{id} [put]
func (ctrl *BusinessController) UpdateService(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req OfferingRequest
	if !bindJSON(c, &req) {
		return
	}

	offering, err := ctrl.catalogService.UpdateService(c.Request.Context(), provider.BusinessID, id, req.input())
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, offering)
}

// DeleteService 제공 서비스 삭제
// @Router /business/services/{id} [delete]
func (ctrl *BusinessController) DeleteService(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.catalogService.DeleteService(c.Request.Context(), provider.BusinessID, id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListAddons 업체 추가옵션 목록
// @Router /business/addons [get]
func (ctrl *BusinessController) ListAddons(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	addons, err := ctrl.catalogService.ListAddons(c.Request.Context(), provider.BusinessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, addons)
}

// UpdateAddon 추가옵션 가격/제공여부 수정
// @Router /business/addons/{id} [put]
func (ctrl *BusinessController) UpdateAddon(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req AddonRequest
	if !bindJSON(c, &req) {
		return
	}

	addon, err := ctrl.catalogService.UpdateAddon(c.Request.Context(), provider.BusinessID, id, service.AddonInput{
		CustomPrice: req.CustomPrice,
		IsAvailable: req.IsAvailable,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, addon)
}
