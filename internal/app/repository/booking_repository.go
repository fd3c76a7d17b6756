package repository

import (
	"context"

	"github.com/ikkim/provider-portal-backend/internal/app/model"
	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"gorm.io/gorm"
)

type BookingFilter struct {
	BusinessID uint
	Status     model.BookingStatus
	ProviderID *uint
	Page       Page
}

type BookingRepository interface {
	Create(ctx context.Context, booking *model.Booking) error
	FindByID(ctx context.Context, id uint) (*model.Booking, error)
	List(ctx context.Context, filter BookingFilter) ([]model.Booking, int64, error)
	Transition(ctx context.Context, id uint, from, to model.BookingStatus, fields map[string]interface{}) (int64, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if err := r.db.WithContext(ctx).Create(booking).Error; err != nil {
		logger.Error("Failed to create booking in database", err, map[string]interface{}{
			"business_id": booking.BusinessID,
		})
		return err
	}
	return nil
}

func (r *bookingRepository) FindByID(ctx context.Context, id uint) (*model.Booking, error) {
	var booking model.Booking
	if err := r.db.WithContext(ctx).First(&booking, id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// List 예약 목록 조회 (최신 예약일 순)
func (r *bookingRepository) List(ctx context.Context, filter BookingFilter) ([]model.Booking, int64, error) {
	page := filter.Page.Normalize()

	logger.Debug("Listing bookings from database", map[string]interface{}{
		"business_id": filter.BusinessID,
		"status":      filter.Status,
		"page":        page.Page,
		"limit":       page.Limit,
	})

	query := r.db.WithContext(ctx).Model(&model.Booking{}).Where("business_id = ?", filter.BusinessID)
	if filter.Status != "" {
		query = query.Where("booking_status = ?", filter.Status)
	}
	if filter.ProviderID != nil {
		query = query.Where("provider_id = ?", *filter.ProviderID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		logger.Error("Failed to count bookings in database", err, map[string]interface{}{
			"business_id": filter.BusinessID,
		})
		return nil, 0, err
	}

	var bookings []model.Booking
	err := query.Order("booking_date DESC").Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&bookings).Error
	if err != nil {
		logger.Error("Failed to list bookings in database", err, map[string]interface{}{
			"business_id": filter.BusinessID,
		})
		return nil, 0, err
	}

	return bookings, total, nil
}

// Transition moves a booking from -> to. The current status is part of the
// predicate, so a concurrent change makes this affect zero rows.
func (r *bookingRepository) Transition(ctx context.Context, id uint, from, to model.BookingStatus, fields map[string]interface{}) (int64, error) {
	updates := make(map[string]interface{}, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["booking_status"] = to

	result := r.db.WithContext(ctx).Model(&model.Booking{}).
		Where("id = ? AND booking_status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		logger.Error("Failed to transition booking in database", result.Error, map[string]interface{}{
			"booking_id": id,
			"from":       from,
			"to":         to,
		})
		return 0, result.Error
	}

	logger.Debug("Booking transition applied in database", map[string]interface{}{
		"booking_id":    id,
		"from":          from,
		"to":            to,
		"rows_affected": result.RowsAffected,
	})
	return result.RowsAffected, nil
}
