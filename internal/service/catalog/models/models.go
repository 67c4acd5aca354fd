package models

import (
	"time"

	"github.com/m04kA/PCS-BookingService/internal/domain"
)

// ServiceResponse ответ с данными услуги
type ServiceResponse struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	DurationMinutes int       `json:"durationMinutes"`
	Active          bool      `json:"active"`
	SortOrder       int       `json:"sortOrder"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ServiceListResponse ответ со списком услуг
type ServiceListResponse struct {
	Services []ServiceResponse `json:"services"`
}

// CreateServiceRequest запрос на создание услуги
type CreateServiceRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	DurationMinutes int    `json:"durationMinutes"`
	SortOrder       int    `json:"sortOrder"`
}

// UpdateServiceRequest запрос на частичное обновление услуги.
// nil-поля не изменяются.
type UpdateServiceRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	DurationMinutes *int    `json:"durationMinutes"`
	Active          *bool   `json:"active"`
	SortOrder       *int    `json:"sortOrder"`
}

// FromDomainService конвертирует domain модель в DTO
func FromDomainService(svc *domain.Service) *ServiceResponse {
	if svc == nil {
		return nil
	}

	return &ServiceResponse{
		ID:              svc.ID,
		Title:           svc.Title,
		Description:     svc.Description,
		DurationMinutes: svc.DurationMinutes,
		Active:          svc.Active,
		SortOrder:       svc.SortOrder,
		CreatedAt:       svc.CreatedAt,
		UpdatedAt:       svc.UpdatedAt,
	}
}

// FromDomainServiceList конвертирует список domain моделей в DTO
func FromDomainServiceList(services []*domain.Service) *ServiceListResponse {
	resp := &ServiceListResponse{
		Services: make([]ServiceResponse, 0, len(services)),
	}

	for _, svc := range services {
		if converted := FromDomainService(svc); converted != nil {
			resp.Services = append(resp.Services, *converted)
		}
	}

	return resp
}
