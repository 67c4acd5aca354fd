package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingStatus represents the status of a booking
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusAssigned  BookingStatus = "assigned"
	StatusCompleted BookingStatus = "completed"
	StatusCancelled BookingStatus = "cancelled"
)

// transitions таблица допустимых переходов статусной машины.
// pending -> accepted -> assigned -> completed, cancelled достижим
// из любого нетерминального статуса. assigned -> assigned - переназначение техника.
var transitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusAssigned, StatusCompleted, StatusCancelled},
	StatusCompleted: {},
	StatusCancelled: {},
}

// CanTransitionTo проверяет допустимость перехода по статусной машине
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsActive returns true if the status still holds a time slot
func (s BookingStatus) IsActive() bool {
	return s == StatusPending || s == StatusAccepted || s == StatusAssigned
}

// IsTerminal returns true for completed and cancelled
func (s BookingStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// ParseBookingStatus валидирует и конвертирует строку в статус
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(s)
	switch status {
	case StatusPending, StatusAccepted, StatusAssigned, StatusCompleted, StatusCancelled:
		return status, nil
	default:
		return "", ErrUnknownStatus
	}
}

// Booking represents a pest-control visit reservation
type Booking struct {
	ID       int64     // внутренний идентификатор, наружу не отдается
	PublicID uuid.UUID // внешний непрозрачный идентификатор

	ServiceID int64
	Bookee    Bookee
	Status    BookingStatus
	TimeSlot  TimeRange
	Address   string
	Notes     *string

	// Штампы терминальных переходов, каждый ставится ровно один раз
	AcceptedAt  *time.Time
	CompletedAt *time.Time
	CancelledAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive returns true if the booking still holds its time slot
func (b *Booking) IsActive() bool {
	return b.Status.IsActive()
}

// IsTerminal returns true if no further transitions are possible
func (b *Booking) IsTerminal() bool {
	return b.Status.IsTerminal()
}

// BelongsToCustomer проверяет владение бронированием зарегистрированным клиентом
func (b *Booking) BelongsToCustomer(customerID int64) bool {
	return b.Bookee.Kind == BookeeCustomer &&
		b.Bookee.CustomerID != nil &&
		*b.Bookee.CustomerID == customerID
}

// BookingsFilter фильтр для административной выборки бронирований
type BookingsFilter struct {
	From            *time.Time     // начало периода (опционально)
	To              *time.Time     // конец периода (опционально)
	Status          *BookingStatus // фильтр по статусу (опционально)
	IncludeTerminal bool           // включать ли completed/cancelled
}
