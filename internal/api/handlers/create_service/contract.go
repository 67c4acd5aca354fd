package create_service

import (
	"context"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	"github.com/m04kA/PCS-BookingService/internal/service/catalog/models"
)

type CatalogService interface {
	Create(ctx context.Context, actor domain.Actor, req *models.CreateServiceRequest) (*models.ServiceResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
