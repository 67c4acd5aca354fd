package models

import (
	"time"

	"github.com/m04kA/PCS-BookingService/internal/domain"
)

// BookingResponse ответ с данными бронирования
type BookingResponse struct {
	PublicID  string     `json:"publicId"`
	ServiceID int64      `json:"serviceId"`
	Status    string     `json:"status"`
	StartsAt  time.Time  `json:"startsAt"`
	EndsAt    time.Time  `json:"endsAt"`
	Address   string     `json:"address"`
	Notes     *string    `json:"notes,omitempty"`

	CustomerID *int64 `json:"customerId,omitempty"`
	LeadID     *int64 `json:"leadId,omitempty"`
	WorkerID   *int64 `json:"workerId,omitempty"` // текущий назначенный техник

	AcceptedAt  *time.Time `json:"acceptedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CancelledAt *time.Time `json:"cancelledAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BookingListResponse ответ со списком бронирований
type BookingListResponse struct {
	Bookings []BookingResponse `json:"bookings"`
}

// BookingEventResponse запись журнала событий бронирования
type BookingEventResponse struct {
	Type      string            `json:"type"`
	ActorID   *int64            `json:"actorId,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// ListBookingsRequest административный фильтр выборки бронирований
type ListBookingsRequest struct {
	From            *time.Time
	To              *time.Time
	Status          *string
	IncludeTerminal bool
}

// ToDomainFilter конвертирует request в domain фильтр
func (r *ListBookingsRequest) ToDomainFilter() (domain.BookingsFilter, error) {
	filter := domain.BookingsFilter{
		From:            r.From,
		To:              r.To,
		IncludeTerminal: r.IncludeTerminal,
	}

	if r.Status != nil {
		status, err := domain.ParseBookingStatus(*r.Status)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	return filter, nil
}

// FromDomainBooking конвертирует domain модель в DTO.
// assignment может быть nil, если техник не назначен.
func FromDomainBooking(b *domain.Booking, assignment *domain.Assignment) *BookingResponse {
	if b == nil {
		return nil
	}

	resp := &BookingResponse{
		PublicID:    b.PublicID.String(),
		ServiceID:   b.ServiceID,
		Status:      string(b.Status),
		StartsAt:    b.TimeSlot.Start,
		EndsAt:      b.TimeSlot.End,
		Address:     b.Address,
		Notes:       b.Notes,
		CustomerID:  b.Bookee.CustomerID,
		LeadID:      b.Bookee.LeadID,
		AcceptedAt:  b.AcceptedAt,
		CompletedAt: b.CompletedAt,
		CancelledAt: b.CancelledAt,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}

	if assignment != nil {
		resp.WorkerID = &assignment.WorkerID
	}

	return resp
}

// FromDomainBookingList конвертирует список domain моделей в DTO
func FromDomainBookingList(bookings []*domain.Booking) *BookingListResponse {
	resp := &BookingListResponse{
		Bookings: make([]BookingResponse, 0, len(bookings)),
	}

	for _, b := range bookings {
		if converted := FromDomainBooking(b, nil); converted != nil {
			resp.Bookings = append(resp.Bookings, *converted)
		}
	}

	return resp
}

// FromDomainEvents конвертирует журнал событий в DTO
func FromDomainEvents(events []*domain.BookingEvent) []BookingEventResponse {
	out := make([]BookingEventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, BookingEventResponse{
			Type:      string(ev.Type),
			ActorID:   ev.ActorID,
			Metadata:  ev.Metadata,
			CreatedAt: ev.CreatedAt,
		})
	}
	return out
}
