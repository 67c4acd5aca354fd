package catalog

import (
	"context"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	catalogStorage "github.com/m04kA/PCS-BookingService/internal/infra/storage/catalog"
)

// CatalogRepository интерфейс репозитория каталога услуг
type CatalogRepository interface {
	List(ctx context.Context, onlyActive bool) ([]*domain.Service, error)
	GetByID(ctx context.Context, id int64) (*domain.Service, error)
	Create(ctx context.Context, svc *domain.Service) (*domain.Service, error)
	Update(ctx context.Context, id int64, update catalogStorage.ServiceUpdate) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
