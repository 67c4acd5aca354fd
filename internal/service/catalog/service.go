package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	catalogStorage "github.com/m04kA/PCS-BookingService/internal/infra/storage/catalog"
	"github.com/m04kA/PCS-BookingService/internal/service/catalog/models"
)

// Service сервис каталога услуг
type Service struct {
	catalogRepo CatalogRepository
	logger      Logger
}

// NewService создает новый экземпляр сервиса каталога
func NewService(catalogRepo CatalogRepository, logger Logger) *Service {
	return &Service{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// List возвращает услуги каталога. Клиенты и техники видят только
// активные, админ - все, включая выключенные.
func (s *Service) List(ctx context.Context, actor domain.Actor) (*models.ServiceListResponse, error) {
	onlyActive := !domain.Can(actor.Role, domain.ActionManageCatalog)

	services, err := s.catalogRepo.List(ctx, onlyActive)
	if err != nil {
		s.logger.Error("List: repository error: %v", err)
		return nil, fmt.Errorf("%w: List - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainServiceList(services), nil
}

// GetByID возвращает услугу по идентификатору.
// Неактивная услуга видна только админу.
func (s *Service) GetByID(ctx context.Context, id int64, actor domain.Actor) (*models.ServiceResponse, error) {
	svc, err := s.catalogRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, catalogStorage.ErrServiceNotFound) {
			s.logger.Warn("GetByID: service id=%d not found", id)
			return nil, ErrServiceNotFound
		}
		s.logger.Error("GetByID: repository error for service id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: GetByID - repository error: %v", ErrInternal, err)
	}

	if !svc.Active && !domain.Can(actor.Role, domain.ActionManageCatalog) {
		return nil, ErrServiceNotFound
	}

	return models.FromDomainService(svc), nil
}

// Create добавляет услугу в каталог. Только админ.
func (s *Service) Create(ctx context.Context, actor domain.Actor, req *models.CreateServiceRequest) (*models.ServiceResponse, error) {
	s.logger.Info("Create: title=%q by actor=%d role=%s", req.Title, actor.ID, actor.Role)

	if !domain.Can(actor.Role, domain.ActionManageCatalog) {
		s.logger.Warn("Create: access denied for actor=%d role=%s", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}
	if err := validateDuration(req.DurationMinutes); err != nil {
		return nil, err
	}

	svc := &domain.Service{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Active:          true,
		SortOrder:       req.SortOrder,
	}

	created, err := s.catalogRepo.Create(ctx, svc)
	if err != nil {
		s.logger.Error("Create: repository error: %v", err)
		return nil, fmt.Errorf("%w: Create - repository error: %v", ErrInternal, err)
	}

	s.logger.Info("Create: service id=%d created", created.ID)
	return models.FromDomainService(created), nil
}

// Update частично обновляет услугу. Только админ.
// Деактивация услуги не трогает существующие бронирования.
func (s *Service) Update(ctx context.Context, id int64, actor domain.Actor, req *models.UpdateServiceRequest) (*models.ServiceResponse, error) {
	s.logger.Info("Update: service id=%d by actor=%d role=%s", id, actor.ID, actor.Role)

	if !domain.Can(actor.Role, domain.ActionManageCatalog) {
		s.logger.Warn("Update: access denied for actor=%d role=%s", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return nil, err
		}
	}
	if req.DurationMinutes != nil {
		if err := validateDuration(*req.DurationMinutes); err != nil {
			return nil, err
		}
	}

	update := catalogStorage.ServiceUpdate{
		Title:           req.Title,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		Active:          req.Active,
		SortOrder:       req.SortOrder,
	}

	if err := s.catalogRepo.Update(ctx, id, update); err != nil {
		if errors.Is(err, catalogStorage.ErrServiceNotFound) {
			s.logger.Warn("Update: service id=%d not found", id)
			return nil, ErrServiceNotFound
		}
		s.logger.Error("Update: repository error for service id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Update - repository error: %v", ErrInternal, err)
	}

	updated, err := s.catalogRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Update: failed to reload service id=%d: %v", id, err)
		return nil, fmt.Errorf("%w: Update - failed to reload service: %v", ErrInternal, err)
	}

	s.logger.Info("Update: service id=%d updated", id)
	return models.FromDomainService(updated), nil
}

func validateTitle(title string) error {
	if title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(title) > domain.MaxTitleLength {
		return fmt.Errorf("%w: title must not exceed %d characters", ErrInvalidInput, domain.MaxTitleLength)
	}
	return nil
}

func validateDuration(minutes int) error {
	if minutes < domain.MinServiceDurationMinutes || minutes > domain.MaxServiceDurationMinutes {
		return fmt.Errorf("%w: duration must be between %d and %d minutes",
			ErrInvalidInput, domain.MinServiceDurationMinutes, domain.MaxServiceDurationMinutes)
	}
	return nil
}
