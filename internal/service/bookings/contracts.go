package bookings

import (
	"context"

	"github.com/google/uuid"

	"github.com/m04kA/PCS-BookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	GetByPublicID(ctx context.Context, publicID uuid.UUID) (*domain.Booking, error)
	GetByPublicIDForUpdate(ctx context.Context, publicID uuid.UUID) (*domain.Booking, error)
	ListByCustomer(ctx context.Context, customerID int64, status *domain.BookingStatus) ([]*domain.Booking, error)
	ListByWorker(ctx context.Context, workerID int64) ([]*domain.Booking, error)
	ListWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error)
	Accept(ctx context.Context, id int64) error
	SetAssigned(ctx context.Context, id int64) error
	Complete(ctx context.Context, id int64) error
	Cancel(ctx context.Context, id int64) error
	UpsertAssignment(ctx context.Context, bookingID, workerID int64) error
	GetAssignment(ctx context.Context, bookingID int64) (*domain.Assignment, error)
	AddEvent(ctx context.Context, ev *domain.BookingEvent) error
	ListEvents(ctx context.Context, bookingID int64) ([]*domain.BookingEvent, error)
}

// ActorRepository интерфейс репозитория акторов
type ActorRepository interface {
	GetUserByID(ctx context.Context, id int64) (*domain.Actor, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
