package create_booking

import (
	"time"

	"github.com/m04kA/PCS-BookingService/internal/domain"
)

// LeadContact контактные данные незарегистрированного заказчика
type LeadContact struct {
	Name  string
	Phone string
	Email string
}

// Request модель запроса на создание бронирования.
// Заказчик: клиент бронирует себе (оба поля пустые), админ - либо
// за существующего клиента (CustomerID), либо за лида (Lead), но не за обоих.
type Request struct {
	Actor     domain.Actor // аутентифицированный инициатор
	ServiceID int64
	StartsAt  time.Time
	EndsAt    *time.Time // nil - конец вычисляется из длительности услуги
	Address   string
	Notes     *string

	CustomerID *int64       // целевой клиент (только админ)
	Lead       *LeadContact // целевой лид (только админ)
}

// Response модель ответа с созданным бронированием
type Response struct {
	PublicID  string
	ServiceID int64
	Status    string
	StartsAt  time.Time
	EndsAt    time.Time
	Address   string
	Notes     *string

	CustomerID *int64
	LeadID     *int64

	CreatedAt time.Time
}

func toResponse(b *domain.Booking) *Response {
	return &Response{
		PublicID:   b.PublicID.String(),
		ServiceID:  b.ServiceID,
		Status:     string(b.Status),
		StartsAt:   b.TimeSlot.Start,
		EndsAt:     b.TimeSlot.End,
		Address:    b.Address,
		Notes:      b.Notes,
		CustomerID: b.Bookee.CustomerID,
		LeadID:     b.Bookee.LeadID,
		CreatedAt:  b.CreatedAt,
	}
}
