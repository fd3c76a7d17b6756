package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
	"github.com/ikkim/provider-portal-backend/internal/middleware"
)

type OnboardingController struct {
	onboardingService service.OnboardingService
}

func NewOnboardingController(onboardingService service.OnboardingService) *OnboardingController {
	return &OnboardingController{onboardingService: onboardingService}
}

type BusinessInfoRequest struct {
	BusinessName           string             `json:"business_name" binding:"required,max=200"`
	BusinessType           model.BusinessType `json:"business_type" binding:"required"`
	ContactEmail           string             `json:"contact_email" binding:"omitempty,email"`
	ContactPhone           string             `json:"contact_phone" binding:"omitempty,max=30"`
	Website                string             `json:"website" binding:"omitempty,url"`
	Description            string             `json:"description"`
	AddressLine            string             `json:"address_line"`
	City                   string             `json:"city"`
	State                  string             `json:"state"`
	PostalCode             string             `json:"postal_code"`
	EligibleCategoryIDs    []string           `json:"eligible_category_ids"`
	EligibleSubcategoryIDs []string           `json:"eligible_subcategory_ids"`
	FirstName              string             `json:"first_name"`
	LastName               string             `json:"last_name"`
}

type BusinessRefRequest struct {
	BusinessID uint `json:"business_id" binding:"required"`
}

type ServiceSelectionRequest struct {
	ServiceID               uint               `json:"service_id" binding:"required"`
	BusinessPrice           float64            `json:"business_price"`
	BusinessDurationMinutes int                `json:"business_duration_minutes"`
	DeliveryType            model.DeliveryType `json:"delivery_type"`
}

type SaveServicesRequest struct {
	Services []ServiceSelectionRequest `json:"services" binding:"required,min=1,dive"`
}

type BusinessHoursRequest struct {
	BusinessHours model.BusinessHours `json:"business_hours" binding:"required"`
}

// SaveBusinessInfo 1단계: 사업자 기본 정보 저장
// @Summary Save onboarding business info
// @Tags Onboarding
// @Router /onboarding/business-info [post]
func (ctrl *OnboardingController) SaveBusinessInfo(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req BusinessInfoRequest
	if !bindJSON(c, &req) {
		return
	}
	email, _ := middleware.GetUserEmail(c)

	business, err := ctrl.onboardingService.SaveBusinessInfo(c.Request.Context(), userID, email, service.BusinessInfoInput{
		BusinessName:           req.BusinessName,
		BusinessType:           req.BusinessType,
		ContactEmail:           req.ContactEmail,
		ContactPhone:           req.ContactPhone,
		Website:                req.Website,
		Description:            req.Description,
		AddressLine:            req.AddressLine,
		City:                   req.City,
		State:                  req.State,
		PostalCode:             req.PostalCode,
		EligibleCategoryIDs:    req.EligibleCategoryIDs,
		EligibleSubcategoryIDs: req.EligibleSubcategoryIDs,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	respondData(c, http.StatusOK, gin.H{
		"business_id": business.ID,
		"setup_step":  business.SetupStep,
		"business":    business,
	})
}

// StartIdentityVerification 2단계: 신원 확인 세션 생성
// @Router /onboarding/identity/session [post]
func (ctrl *OnboardingController) StartIdentityVerification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req BusinessRefRequest
	if !bindJSON(c, &req) {
		return
	}

	session, err := ctrl.onboardingService.StartIdentityVerification(c.Request.Context(), userID, req.BusinessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, session)
}

// ConfirmIdentityVerification 2단계: 신원 확인 결과 반영
// @Router /onboarding/identity/confirm [post]
func (ctrl *OnboardingController) ConfirmIdentityVerification(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req BusinessRefRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.onboardingService.ConfirmIdentityVerification(c.Request.Context(), userID, req.BusinessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"business_id":                  business.ID,
		"identity_verification_status": business.IdentityVerificationStatus,
		"setup_step":                   business.SetupStep,
	})
}

// SubmitApplication 3단계: 1차 신청서 제출
// @Router /onboarding/submit-application [post]
func (ctrl *OnboardingController) SubmitApplication(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req BusinessRefRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.onboardingService.SubmitApplication(c.Request.Context(), userID, req.BusinessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"business_id":         business.ID,
		"verification_status": business.VerificationStatus,
		"setup_step":          business.SetupStep,
	})
}

// Status 2차 온보딩 진행 현황
// @Router /onboarding/phase2/status [get]
func (ctrl *OnboardingController) Status(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	status, err := ctrl.onboardingService.Status(c.Request.Context(), businessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, status)
}

// SaveServices 5단계: 제공 서비스 및 가격 저장
// @Router /onboarding/phase2/services [put]
func (ctrl *OnboardingController) SaveServices(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	var req SaveServicesRequest
	if !bindJSON(c, &req) {
		return
	}

	selections := make([]service.ServiceSelection, 0, len(req.Services))
	for _, s := range req.Services {
		selections = append(selections, service.ServiceSelection{
			ServiceID:               s.ServiceID,
			BusinessPrice:           s.BusinessPrice,
			BusinessDurationMinutes: s.BusinessDurationMinutes,
			DeliveryType:            s.DeliveryType,
		})
	}

	offerings, err := ctrl.onboardingService.SaveServices(c.Request.Context(), businessID, selections)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, offerings)
}

// CreatePayoutLink 6단계: 정산 계정 연결 링크 발급
// @Router /onboarding/phase2/payout-link [post]
func (ctrl *OnboardingController) CreatePayoutLink(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	link, err := ctrl.onboardingService.CreatePayoutLink(c.Request.Context(), businessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, link)
}

// ConfirmPayout 6단계: 정산 계정 상태 확인
// @Router /onboarding/phase2/payout-confirm [post]
func (ctrl *OnboardingController) ConfirmPayout(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	status, err := ctrl.onboardingService.ConfirmPayout(c.Request.Context(), businessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, status)
}

// SaveBusinessHours 7단계: 영업시간 저장
// @Router /onboarding/phase2/business-hours [put]
func (ctrl *OnboardingController) SaveBusinessHours(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	var req BusinessHoursRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := ctrl.onboardingService.SaveBusinessHours(c.Request.Context(), businessID, req.BusinessHours)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"business_id":    business.ID,
		"business_hours": business.BusinessHours,
		"setup_step":     business.SetupStep,
	})
}

// Submit 8단계: 최종 제출 (관리자 심사 대기)
// @Router /onboarding/phase2/submit [post]
func (ctrl *OnboardingController) Submit(c *gin.Context) {
	businessID, ok := gatedBusiness(c)
	if !ok {
		return
	}
	business, err := ctrl.onboardingService.Submit(c.Request.Context(), businessID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{
		"business_id":         business.ID,
		"verification_status": business.VerificationStatus,
		"setup_completed":     business.SetupCompleted,
		"setup_step":          business.SetupStep,
	})
}
