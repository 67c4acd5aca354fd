package get_booking

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	"github.com/m04kA/PCS-BookingService/internal/service/bookings/models"
)

type BookingService interface {
	GetByPublicID(ctx context.Context, publicID uuid.UUID, actor domain.Actor) (*models.BookingResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
