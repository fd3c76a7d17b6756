package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
)

type AdminController struct {
	moderationService service.ModerationService
}

func NewAdminController(moderationService service.ModerationService) *AdminController {
	return &AdminController{moderationService: moderationService}
}

type ModerateBusinessRequest struct {
	Action  service.BusinessAction `json:"action" binding:"required"`
	Notes   string                 `json:"notes" binding:"max=2000"`
	Version *int                   `json:"version"`
}

type ModerateReviewRequest struct {
	Action  service.ReviewAction `json:"action" binding:"required"`
	Notes   string               `json:"notes" binding:"max=2000"`
	Version *int                 `json:"version"`
}

type ApproveApplicationRequest struct {
	Notes   string `json:"notes" binding:"max=2000"`
	Version *int   `json:"version"`
}

// queryBool parses an optional boolean filter.
func queryBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Invalid "+name)
		return nil, false
	}
	return &v, true
}

// ListBusinesses 관리자 업체 목록 (심사 상태별)
// @Router /admin/businesses [get]
func (ctrl *AdminController) ListBusinesses(c *gin.Context) {
	setupCompleted, ok := queryBool(c, "setup_completed")
	if !ok {
		return
	}
	filter := repository.BusinessFilter{
		Status:         model.VerificationStatus(c.Query("status")),
		SetupCompleted: setupCompleted,
		Page:           pageFromQuery(c),
	}

	businesses, total, err := ctrl.moderationService.ListBusinesses(c.Request.Context(), filter)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondList(c, businesses, filter.Page, total)
}

// ModerateBusiness 업체 승인/반려/정지/재활성화
// @Router /admin/businesses/{id}/moderate [patch]
func (ctrl *AdminController) ModerateBusiness(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ModerateBusinessRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.moderationService.ModerateBusiness(c.Request.Context(), id, req.Action, service.ModerationInput{
		AdminID: adminID,
		Notes:   req.Notes,
		Version: req.Version,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, business)
}

// ApproveApplication 1차 신청 승인 및 2차 온보딩 링크 발송
// @Router /admin/businesses/{id}/approve-application [post]
func (ctrl *AdminController) ApproveApplication(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ApproveApplicationRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.moderationService.ApproveApplication(c.Request.Context(), id, service.ModerationInput{
		AdminID: adminID,
		Notes:   req.Notes,
		Version: req.Version,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, business)
}

// ListReviews 관리자 리뷰 목록
// @Router /admin/reviews [get]
func (ctrl *AdminController) ListReviews(c *gin.Context) {
	approved, ok := queryBool(c, "approved")
	if !ok {
		return
	}
	featured, ok := queryBool(c, "featured")
	if !ok {
		return
	}
	filter := repository.ReviewFilter{
		Approved: approved,
		Featured: featured,
		Page:     pageFromQuery(c),
	}
	if raw := c.Query("business_id"); raw != "" {
		businessID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid business_id")
			return
		}
		filter.BusinessID = uint(businessID)
	}

	reviews, total, err := ctrl.moderationService.ListReviews(c.Request.Context(), filter)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondList(c, reviews, filter.Page, total)
}

// ModerateReview 리뷰 승인/반려/추천 설정
// @Router /admin/reviews/{id}/moderate [patch]
func (ctrl *AdminController) ModerateReview(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ModerateReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := ctrl.moderationService.ModerateReview(c.Request.Context(), id, req.Action, service.ModerationInput{
		AdminID: adminID,
		Notes:   req.Notes,
		Version: req.Version,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, review)
}
