package create_booking

import (
	"context"
	"time"

	"github.com/m04kA/PCS-BookingService/internal/domain"
)

// BookingRepository интерфейс репозитория бронирований
type BookingRepository interface {
	Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error)
	ListOverlapping(ctx context.Context, window domain.TimeRange) ([]*domain.Booking, error)
	AddEvent(ctx context.Context, ev *domain.BookingEvent) error
}

// CatalogRepository интерфейс репозитория каталога услуг
type CatalogRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
}

// ActorRepository интерфейс репозитория акторов
type ActorRepository interface {
	GetUserByID(ctx context.Context, id int64) (*domain.Actor, error)
	GetOrCreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
