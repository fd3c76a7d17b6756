package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/internal/app/repository"
	apperrors "github.com/ikkim/provider-portal-backend/internal/errors"
	"github.com/ikkim/provider-portal-backend/internal/metrics"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"github.com/ikkim/provider-portal-backend/pkg/mailer"
	"gorm.io/gorm"
)

// notificationKeyTTL bounds how long a sent notification is remembered.
const notificationKeyTTL = 7 * 24 * time.Hour

var errNotOwnBooking = apperrors.New(http.StatusForbidden, apperrors.AuthzCapabilityMissing, "You can only update your own bookings")

type BookingQuery struct {
	BusinessID uint
	Status     model.BookingStatus
	Page       repository.Page
}

type BookingService interface {
	List(ctx context.Context, caller *model.Provider, query BookingQuery) ([]model.Booking, int64, error)
	UpdateStatus(ctx context.Context, caller *model.Provider, id uint, to model.BookingStatus, reason string) (*model.Booking, error)
}

type bookingService struct {
	bookingRepo repository.BookingRepository
	dedupe      IdempotencyStore
	mailer      Mailer
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewBookingService(bookingRepo repository.BookingRepository, dedupe IdempotencyStore, notifier Mailer, m *metrics.Metrics) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		dedupe:      dedupe,
		mailer:      notifier,
		metrics:     m,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// List scopes results to the caller's business, and to the caller's own
// bookings when their role cannot view all of them.
func (s *bookingService) List(ctx context.Context, caller *model.Provider, query BookingQuery) ([]model.Booking, int64, error) {
	if query.BusinessID != 0 && query.BusinessID != caller.BusinessID {
		return nil, 0, ErrBusinessMismatch
	}
	if query.Status != "" && !query.Status.Valid() {
		return nil, 0, ErrInvalidInput.WithMessage("Unknown booking status %q", query.Status)
	}

	filter := repository.BookingFilter{
		BusinessID: caller.BusinessID,
		Status:     query.Status,
		Page:       query.Page,
	}
	if !model.HasCapability(caller.ProviderRole, model.CapBookingsViewAll) {
		providerID := caller.ID
		filter.ProviderID = &providerID
	}

	return s.bookingRepo.List(ctx, filter)
}

// UpdateStatus moves a booking along the transition table. The write only
// lands if the booking is still in the status we validated against.
func (s *bookingService) UpdateStatus(ctx context.Context, caller *model.Provider, id uint, to model.BookingStatus, reason string) (*model.Booking, error) {
	if !to.Valid() {
		return nil, ErrInvalidInput.WithMessage("Unknown booking status %q", to)
	}

	booking, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if booking.BusinessID != caller.BusinessID {
		return nil, ErrBookingNotFound
	}
	if !model.HasCapability(caller.ProviderRole, model.CapBookingsManage) {
		own := booking.ProviderID != nil && *booking.ProviderID == caller.ID
		if !own || !model.HasCapability(caller.ProviderRole, model.CapBookingsUpdateOwn) {
			return nil, errNotOwnBooking
		}
	}

	from := booking.BookingStatus
	if !model.CanTransition(from, to) {
		s.metrics.BookingTransition(string(from), string(to), "invalid")
		return nil, ErrInvalidTransition.
			WithMessage("Booking cannot move from %s to %s", from, to).
			WithDetails(map[string]interface{}{
				"from":    from,
				"to":      to,
				"allowed": model.NextStatuses(from),
			})
	}

	rows, err := s.bookingRepo.Transition(ctx, id, from, to, s.transitionFields(to, reason))
	if err != nil {
		s.metrics.BookingTransition(string(from), string(to), "error")
		return nil, err
	}
	if rows == 0 {
		s.metrics.BookingTransition(string(from), string(to), "conflict")
		return nil, ErrBookingChanged
	}
	s.metrics.BookingTransition(string(from), string(to), "ok")

	logger.Info("Booking status changed", map[string]interface{}{
		"booking_id":  id,
		"from":        from,
		"to":          to,
		"provider_id": caller.ID,
	})

	updated, err := s.bookingRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.notifyCustomer(ctx, updated)
	return updated, nil
}

func (s *bookingService) transitionFields(to model.BookingStatus, reason string) map[string]interface{} {
	now := s.now()
	fields := map[string]interface{}{}
	switch to {
	case model.BookingConfirmed:
		fields["confirmed_at"] = now
	case model.BookingInProgress:
		fields["started_at"] = now
	case model.BookingCompleted:
		fields["completed_at"] = now
	case model.BookingCancelled, model.BookingDeclined:
		fields["cancelled_at"] = now
		fields["cancellation_reason"] = strings.TrimSpace(reason)
	}
	return fields
}

func notificationKey(bookingID uint, status model.BookingStatus) string {
	return fmt.Sprintf("booking:%d:status:%s", bookingID, status)
}

// notifyCustomer sends the status email at most once per booking and status.
// The key is released when sending fails so a later retry can send it.
// Notification failures never undo the committed transition.
func (s *bookingService) notifyCustomer(ctx context.Context, booking *model.Booking) {
	if booking.CustomerEmail == "" || s.mailer == nil {
		return
	}

	key := notificationKey(booking.ID, booking.BookingStatus)
	if s.dedupe != nil {
		claimed, err := s.dedupe.SetNX(ctx, key, s.now().Format(time.RFC3339), notificationKeyTTL)
		if err != nil {
			logger.Error("Failed to claim booking notification key", err, map[string]interface{}{
				"key": key,
			})
			return
		}
		if !claimed {
			logger.Debug("Booking notification already sent", map[string]interface{}{
				"key": key,
			})
			return
		}
	}

	msg := mailer.BookingStatusMessage(booking.CustomerEmail, booking.ID, string(booking.BookingStatus))
	if err := s.mailer.Send(ctx, msg); err != nil {
		logger.Error("Failed to send booking notification", err, map[string]interface{}{
			"booking_id": booking.ID,
			"status":     booking.BookingStatus,
		})
		if s.dedupe != nil {
			if delErr := s.dedupe.Del(ctx, key); delErr != nil {
				logger.Error("Failed to release booking notification key", delErr, map[string]interface{}{
					"key": key,
				})
			}
		}
	}
}
