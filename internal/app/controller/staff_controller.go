package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
)

type StaffController struct {
	staffService service.StaffService
}

func NewStaffController(staffService service.StaffService) *StaffController {
	return &StaffController{staffService: staffService}
}

type AddStaffRequest struct {
	UserID    string             `json:"user_id" binding:"required"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Email     string             `json:"email" binding:"omitempty,email"`
	Role      model.ProviderRole `json:"role"`
}

type ChangeRoleRequest struct {
	Role model.ProviderRole `json:"role" binding:"required"`
}

// ListStaff 직원 목록
// @Router /staff [get]
func (ctrl *StaffController) ListStaff(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	includeInactive, _ := strconv.ParseBool(c.Query("include_inactive"))

	staff, err := ctrl.staffService.List(c.Request.Context(), provider, includeInactive)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, staff)
}

// AddStaff 직원 추가
// @Router /staff [post]
func (ctrl *StaffController) AddStaff(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	var req AddStaffRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := ctrl.staffService.Add(c.Request.Context(), provider, service.StaffInput{
		UserID:    req.UserID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusCreated, member)
}

// ChangeRole 직원 역할 변경
// @Router /staff/{id}/role [patch]
func (ctrl *StaffController) ChangeRole(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req ChangeRoleRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := ctrl.staffService.ChangeRole(c.Request.Context(), provider, id, req.Role)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, member)
}

// DeactivateStaff 직원 비활성화
// @Router /staff/{id} [delete]
func (ctrl *StaffController) DeactivateStaff(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := ctrl.staffService.Deactivate(c.Request.Context(), provider, id); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
