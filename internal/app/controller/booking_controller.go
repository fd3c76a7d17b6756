package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/service"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
)

type BookingController struct {
	bookingService service.BookingService
}

func NewBookingController(bookingService service.BookingService) *BookingController {
	return &BookingController{bookingService: bookingService}
}

type UpdateBookingStatusRequest struct {
	Status model.BookingStatus `json:"status" binding:"required"`
	Reason string              `json:"reason" binding:"max=500"`
}

// ListBookings 예약 목록 (최신 예약일 순)
// @Router /bookings [get]
func (ctrl *BookingController) ListBookings(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}

	query := service.BookingQuery{
		Status: model.BookingStatus(c.Query("status")),
		Page:   pageFromQuery(c),
	}
	if raw := c.Query("business_id"); raw != "" {
		businessID, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid business_id")
			return
		}
		query.BusinessID = uint(businessID)
	}

	bookings, total, err := ctrl.bookingService.List(c.Request.Context(), provider, query)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondList(c, bookings, query.Page, total)
}

// UpdateStatus 예약 상태 변경
// @Router /bookings/{id}/status [patch]
func (ctrl *BookingController) UpdateStatus(c *gin.Context) {
	provider, ok := currentProvider(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req UpdateBookingStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	booking, err := ctrl.bookingService.UpdateStatus(c.Request.Context(), provider, id, req.Status, req.Reason)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	respondData(c, http.StatusOK, booking)
}
