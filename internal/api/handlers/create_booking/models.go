package create_booking

import (
	"time"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	createBooking "github.com/m04kA/PCS-BookingService/internal/usecase/create_booking"
)

// LeadContactRequest контакты незарегистрированного заказчика
type LeadContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// CreateBookingRequest HTTP request model
type CreateBookingRequest struct {
	ServiceID int64      `json:"serviceId"`
	StartsAt  time.Time  `json:"startsAt"`
	EndsAt    *time.Time `json:"endsAt,omitempty"`
	Address   string     `json:"address"`
	Notes     *string    `json:"notes,omitempty"`

	CustomerID *int64              `json:"customerId,omitempty"`
	Lead       *LeadContactRequest `json:"lead,omitempty"`
}

// CreateBookingResponse HTTP response model
type CreateBookingResponse struct {
	PublicID  string     `json:"publicId"`
	ServiceID int64      `json:"serviceId"`
	Status    string     `json:"status"`
	StartsAt  time.Time  `json:"startsAt"`
	EndsAt    time.Time  `json:"endsAt"`
	Address   string     `json:"address"`
	Notes     *string    `json:"notes,omitempty"`

	CustomerID *int64 `json:"customerId,omitempty"`
	LeadID     *int64 `json:"leadId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

// ToUseCaseRequest конвертирует HTTP request в модель usecase
func (r *CreateBookingRequest) ToUseCaseRequest(actor domain.Actor) *createBooking.Request {
	req := &createBooking.Request{
		Actor:      actor,
		ServiceID:  r.ServiceID,
		StartsAt:   r.StartsAt,
		EndsAt:     r.EndsAt,
		Address:    r.Address,
		Notes:      r.Notes,
		CustomerID: r.CustomerID,
	}

	if r.Lead != nil {
		req.Lead = &createBooking.LeadContact{
			Name:  r.Lead.Name,
			Phone: r.Lead.Phone,
			Email: r.Lead.Email,
		}
	}

	return req
}

// FromUseCaseResponse конвертирует модель usecase в HTTP response
func FromUseCaseResponse(resp *createBooking.Response) *CreateBookingResponse {
	return &CreateBookingResponse{
		PublicID:   resp.PublicID,
		ServiceID:  resp.ServiceID,
		Status:     resp.Status,
		StartsAt:   resp.StartsAt,
		EndsAt:     resp.EndsAt,
		Address:    resp.Address,
		Notes:      resp.Notes,
		CustomerID: resp.CustomerID,
		LeadID:     resp.LeadID,
		CreatedAt:  resp.CreatedAt,
	}
}
