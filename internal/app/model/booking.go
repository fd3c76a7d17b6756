package model

import (
	"time"

	"gorm.io/gorm"
)

type BookingStatus string

const (
	BookingPending    BookingStatus = "pending"
	BookingConfirmed  BookingStatus = "confirmed"
	BookingInProgress BookingStatus = "in_progress"
	BookingCompleted  BookingStatus = "completed"
	BookingCancelled  BookingStatus = "cancelled"
	BookingDeclined   BookingStatus = "declined"
	BookingNoShow     BookingStatus = "no_show"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentRefunded PaymentStatus = "refunded"
	PaymentFailed   PaymentStatus = "failed"
)

// bookingTransitions lists every legal status change. Statuses without an
// entry are terminal.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:    {BookingConfirmed, BookingDeclined, BookingCancelled},
	BookingConfirmed:  {BookingInProgress, BookingCancelled, BookingNoShow},
	BookingInProgress: {BookingCompleted, BookingNoShow},
}

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingPending, BookingConfirmed, BookingInProgress, BookingCompleted,
		BookingCancelled, BookingDeclined, BookingNoShow:
		return true
	}
	return false
}

func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// CanTransition reports whether from -> to is in the transition table.
func CanTransition(from, to BookingStatus) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s.
func NextStatuses(s BookingStatus) []BookingStatus {
	return append([]BookingStatus(nil), bookingTransitions[s]...)
}

type Booking struct {
	ID                  uint          `gorm:"primarykey" json:"id"`
	BusinessID          uint          `gorm:"not null;index" json:"business_id"`
	CustomerID          string        `gorm:"not null;index" json:"customer_id"`
	CustomerEmail       string        `json:"customer_email,omitempty"`
	ProviderID          *uint         `gorm:"index" json:"provider_id,omitempty"`
	ServiceID           uint          `gorm:"not null" json:"service_id"`
	BookingDate         time.Time     `gorm:"not null;index" json:"booking_date"`
	StartTime           string        `gorm:"type:varchar(5)" json:"start_time"`
	TotalAmount         float64       `gorm:"type:decimal(10,2);not null;default:0" json:"total_amount"`
	BookingStatus       BookingStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"booking_status"`
	PaymentStatus       PaymentStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"payment_status"`
	CancellationReason  string        `gorm:"type:text" json:"cancellation_reason,omitempty"`
	RescheduleCount     int           `gorm:"not null;default:0" json:"reschedule_count"`
	OriginalBookingDate *time.Time    `json:"original_booking_date,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Booking) TableName() string {
	return "bookings"
}
