package bookings

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	actorRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/actor"
	bookingRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/booking"
	"github.com/m04kA/PCS-BookingService/internal/service/bookings/models"
)

// Service сервис переходов статусной машины бронирований.
// Каждый переход выполняется в транзакции с блокировкой строки
// (FOR UPDATE): два конкурентных перехода по одному бронированию
// сериализуются, второй видит уже изменившийся статус.
type Service struct {
	bookingRepo BookingRepository
	actorRepo   ActorRepository
	txManager   TransactionManager
	logger      Logger
}

// NewService создает новый экземпляр сервиса бронирований
func NewService(
	bookingRepo BookingRepository,
	actorRepo ActorRepository,
	txManager TransactionManager,
	logger Logger,
) *Service {
	return &Service{
		bookingRepo: bookingRepo,
		actorRepo:   actorRepo,
		txManager:   txManager,
		logger:      logger,
	}
}

// Accept подтверждает бронирование: pending -> accepted.
// Доступно только админу/суперпользователю.
func (s *Service) Accept(ctx context.Context, publicID uuid.UUID, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("Accept: booking=%s by actor=%d role=%s", publicID, actor.ID, actor.Role)

	if !domain.Can(actor.Role, domain.ActionAcceptBooking) {
		s.logger.Warn("Accept: access denied for actor=%d role=%s", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	var result *models.BookingResponse

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := s.lockBooking(txCtx, publicID)
		if err != nil {
			return err
		}

		if !b.Status.CanTransitionTo(domain.StatusAccepted) || b.Status != domain.StatusPending {
			s.logger.Warn("Accept: booking=%s has status=%s, accept not allowed", publicID, b.Status)
			return ErrInvalidTransition
		}

		if err := s.bookingRepo.Accept(txCtx, b.ID); err != nil {
			s.logger.Error("Accept: repository error for booking=%s: %v", publicID, err)
			return fmt.Errorf("%w: Accept - repository error: %v", ErrInternal, err)
		}

		if err := s.addEvent(txCtx, b.ID, domain.EventAccepted, actor.ID, nil); err != nil {
			return err
		}

		result, err = s.reload(txCtx, publicID)
		return err
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Accept: booking=%s accepted", publicID)
	return result, nil
}

// Cancel отменяет бронирование из любого активного статуса.
// Админ отменяет любое, клиент - только своё. Слот освобождается:
// отмененное бронирование больше не участвует в exclusion constraint.
func (s *Service) Cancel(ctx context.Context, publicID uuid.UUID, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("Cancel: booking=%s by actor=%d role=%s", publicID, actor.ID, actor.Role)

	var result *models.BookingResponse

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := s.lockBooking(txCtx, publicID)
		if err != nil {
			return err
		}

		if err := s.checkCancelAccess(b, actor); err != nil {
			s.logger.Warn("Cancel: access denied for actor=%d role=%s on booking=%s", actor.ID, actor.Role, publicID)
			return err
		}

		if !b.Status.CanTransitionTo(domain.StatusCancelled) {
			s.logger.Warn("Cancel: booking=%s has terminal status=%s", publicID, b.Status)
			return ErrInvalidTransition
		}

		if err := s.bookingRepo.Cancel(txCtx, b.ID); err != nil {
			s.logger.Error("Cancel: repository error for booking=%s: %v", publicID, err)
			return fmt.Errorf("%w: Cancel - repository error: %v", ErrInternal, err)
		}

		if err := s.addEvent(txCtx, b.ID, domain.EventCancelled, actor.ID, nil); err != nil {
			return err
		}

		result, err = s.reload(txCtx, publicID)
		return err
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Cancel: booking=%s cancelled, slot released", publicID)
	return result, nil
}

// Assign назначает или переназначает техника: accepted/assigned -> assigned.
// Назначение upsert-ится по booking_id, переназначение перезаписывает
// строку и немедленно отзывает доступ прежнего техника.
func (s *Service) Assign(ctx context.Context, publicID uuid.UUID, workerID int64, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("Assign: booking=%s worker=%d by actor=%d role=%s", publicID, workerID, actor.ID, actor.Role)

	if !domain.Can(actor.Role, domain.ActionAssignWorker) {
		s.logger.Warn("Assign: access denied for actor=%d role=%s", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	var result *models.BookingResponse

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := s.lockBooking(txCtx, publicID)
		if err != nil {
			return err
		}

		if !b.Status.CanTransitionTo(domain.StatusAssigned) {
			s.logger.Warn("Assign: booking=%s has status=%s, assign not allowed", publicID, b.Status)
			return ErrInvalidTransition
		}

		worker, err := s.actorRepo.GetUserByID(txCtx, workerID)
		if err != nil {
			if errors.Is(err, actorRepo.ErrUserNotFound) {
				s.logger.Warn("Assign: worker id=%d not found", workerID)
				return ErrWorkerNotFound
			}
			s.logger.Error("Assign: failed to get worker id=%d: %v", workerID, err)
			return fmt.Errorf("%w: Assign - failed to get worker: %v", ErrInternal, err)
		}
		if worker.Role != domain.RoleWorker {
			s.logger.Warn("Assign: user id=%d has role=%s, not a worker", workerID, worker.Role)
			return ErrNotAWorker
		}

		if err := s.bookingRepo.UpsertAssignment(txCtx, b.ID, worker.ID); err != nil {
			s.logger.Error("Assign: failed to upsert assignment for booking=%s: %v", publicID, err)
			return fmt.Errorf("%w: Assign - failed to upsert assignment: %v", ErrInternal, err)
		}

		if b.Status != domain.StatusAssigned {
			if err := s.bookingRepo.SetAssigned(txCtx, b.ID); err != nil {
				s.logger.Error("Assign: repository error for booking=%s: %v", publicID, err)
				return fmt.Errorf("%w: Assign - repository error: %v", ErrInternal, err)
			}
		}

		metadata := map[string]string{"worker_id": strconv.FormatInt(worker.ID, 10)}
		if err := s.addEvent(txCtx, b.ID, domain.EventAssigned, actor.ID, metadata); err != nil {
			return err
		}

		result, err = s.reload(txCtx, publicID)
		return err
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Assign: booking=%s assigned to worker=%d", publicID, workerID)
	return result, nil
}

// Complete завершает бронирование: assigned -> completed.
// Доступно только технику, назначенному на бронирование сейчас -
// соответствие проверяется по актуальной строке назначения в момент
// вызова, а не по состоянию на момент назначения.
func (s *Service) Complete(ctx context.Context, publicID uuid.UUID, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("Complete: booking=%s by actor=%d role=%s", publicID, actor.ID, actor.Role)

	if !domain.Can(actor.Role, domain.ActionCompleteAssigned) {
		s.logger.Warn("Complete: access denied for actor=%d role=%s", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	var result *models.BookingResponse

	err := s.txManager.Do(ctx, func(txCtx context.Context) error {
		b, err := s.lockBooking(txCtx, publicID)
		if err != nil {
			return err
		}

		if !b.Status.CanTransitionTo(domain.StatusCompleted) || b.Status != domain.StatusAssigned {
			s.logger.Warn("Complete: booking=%s has status=%s, complete not allowed", publicID, b.Status)
			return ErrInvalidTransition
		}

		assignment, err := s.bookingRepo.GetAssignment(txCtx, b.ID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrAssignmentNotFound) {
				s.logger.Warn("Complete: booking=%s has no assignment", publicID)
				return ErrInvalidTransition
			}
			s.logger.Error("Complete: failed to get assignment for booking=%s: %v", publicID, err)
			return fmt.Errorf("%w: Complete - failed to get assignment: %v", ErrInternal, err)
		}

		if assignment.WorkerID != actor.ID {
			s.logger.Warn("Complete: actor=%d is not the current worker=%d for booking=%s",
				actor.ID, assignment.WorkerID, publicID)
			return ErrAccessDenied
		}

		if err := s.bookingRepo.Complete(txCtx, b.ID); err != nil {
			s.logger.Error("Complete: repository error for booking=%s: %v", publicID, err)
			return fmt.Errorf("%w: Complete - repository error: %v", ErrInternal, err)
		}

		if err := s.addEvent(txCtx, b.ID, domain.EventCompleted, actor.ID, nil); err != nil {
			return err
		}

		result, err = s.reload(txCtx, publicID)
		return err
	})

	if err != nil {
		return nil, err
	}

	s.logger.Info("Complete: booking=%s completed by worker=%d", publicID, actor.ID)
	return result, nil
}

// GetByPublicID получает бронирование с проверкой доступа:
// владелец-клиент, текущий назначенный техник или админ
func (s *Service) GetByPublicID(ctx context.Context, publicID uuid.UUID, actor domain.Actor) (*models.BookingResponse, error) {
	s.logger.Info("GetByPublicID: booking=%s for actor=%d role=%s", publicID, actor.ID, actor.Role)

	b, err := s.bookingRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("GetByPublicID: booking=%s not found", publicID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("GetByPublicID: repository error for booking=%s: %v", publicID, err)
		return nil, fmt.Errorf("%w: GetByPublicID - repository error: %v", ErrInternal, err)
	}

	assignment, err := s.currentAssignment(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	if err := s.checkReadAccess(b, assignment, actor); err != nil {
		s.logger.Warn("GetByPublicID: access denied for actor=%d role=%s on booking=%s", actor.ID, actor.Role, publicID)
		return nil, err
	}

	return models.FromDomainBooking(b, assignment), nil
}

// GetEvents возвращает журнал событий бронирования. Только админ.
func (s *Service) GetEvents(ctx context.Context, publicID uuid.UUID, actor domain.Actor) ([]models.BookingEventResponse, error) {
	if !domain.Can(actor.Role, domain.ActionViewAllBookings) {
		s.logger.Warn("GetEvents: access denied for actor=%d role=%s", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	b, err := s.bookingRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: GetEvents - repository error: %v", ErrInternal, err)
	}

	events, err := s.bookingRepo.ListEvents(ctx, b.ID)
	if err != nil {
		s.logger.Error("GetEvents: repository error for booking=%s: %v", publicID, err)
		return nil, fmt.Errorf("%w: GetEvents - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainEvents(events), nil
}

// ListCustomerBookings возвращает бронирования клиента, опционально по статусу
func (s *Service) ListCustomerBookings(ctx context.Context, actor domain.Actor, status *string) (*models.BookingListResponse, error) {
	s.logger.Info("ListCustomerBookings: actor=%d, status=%v", actor.ID, status)

	var domainStatus *domain.BookingStatus
	if status != nil {
		parsed, err := domain.ParseBookingStatus(*status)
		if err != nil {
			s.logger.Warn("ListCustomerBookings: invalid status=%s", *status)
			return nil, fmt.Errorf("%w: invalid status", ErrInvalidInput)
		}
		domainStatus = &parsed
	}

	bookings, err := s.bookingRepo.ListByCustomer(ctx, actor.ID, domainStatus)
	if err != nil {
		s.logger.Error("ListCustomerBookings: repository error for actor=%d: %v", actor.ID, err)
		return nil, fmt.Errorf("%w: ListCustomerBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// ListWorkerBookings возвращает бронирования, назначенные технику сейчас
func (s *Service) ListWorkerBookings(ctx context.Context, actor domain.Actor) (*models.BookingListResponse, error) {
	s.logger.Info("ListWorkerBookings: worker=%d", actor.ID)

	if actor.Role != domain.RoleWorker {
		s.logger.Warn("ListWorkerBookings: actor=%d role=%s is not a worker", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	bookings, err := s.bookingRepo.ListByWorker(ctx, actor.ID)
	if err != nil {
		s.logger.Error("ListWorkerBookings: repository error for worker=%d: %v", actor.ID, err)
		return nil, fmt.Errorf("%w: ListWorkerBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// ListBookings административная выборка бронирований с фильтрацией
func (s *Service) ListBookings(ctx context.Context, actor domain.Actor, req *models.ListBookingsRequest) (*models.BookingListResponse, error) {
	s.logger.Info("ListBookings: actor=%d role=%s", actor.ID, actor.Role)

	if !domain.Can(actor.Role, domain.ActionViewAllBookings) {
		s.logger.Warn("ListBookings: access denied for actor=%d role=%s", actor.ID, actor.Role)
		return nil, ErrAccessDenied
	}

	filter, err := req.ToDomainFilter()
	if err != nil {
		s.logger.Warn("ListBookings: invalid filter: %v", err)
		return nil, fmt.Errorf("%w: invalid filter", ErrInvalidInput)
	}

	bookings, err := s.bookingRepo.ListWithFilter(ctx, filter)
	if err != nil {
		s.logger.Error("ListBookings: repository error: %v", err)
		return nil, fmt.Errorf("%w: ListBookings - repository error: %v", ErrInternal, err)
	}

	return models.FromDomainBookingList(bookings), nil
}

// Вспомогательные методы

// lockBooking читает бронирование под блокировкой строки
func (s *Service) lockBooking(ctx context.Context, publicID uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookingRepo.GetByPublicIDForUpdate(ctx, publicID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrBookingNotFound) {
			s.logger.Warn("lockBooking: booking=%s not found", publicID)
			return nil, ErrBookingNotFound
		}
		s.logger.Error("lockBooking: repository error for booking=%s: %v", publicID, err)
		return nil, fmt.Errorf("%w: lockBooking - repository error: %v", ErrInternal, err)
	}
	return b, nil
}

// checkCancelAccess проверяет право на отмену:
// админ - любое бронирование, клиент - только своё
func (s *Service) checkCancelAccess(b *domain.Booking, actor domain.Actor) error {
	if domain.Can(actor.Role, domain.ActionCancelAny) {
		return nil
	}
	if domain.Can(actor.Role, domain.ActionCancelOwn) && b.BelongsToCustomer(actor.ID) {
		return nil
	}
	return ErrAccessDenied
}

// checkReadAccess проверяет право на чтение бронирования.
// Доступ техника - скользящее окно: проверяется по текущему назначению
// при каждом обращении, переназначение отзывает его немедленно.
func (s *Service) checkReadAccess(b *domain.Booking, assignment *domain.Assignment, actor domain.Actor) error {
	if domain.Can(actor.Role, domain.ActionViewAllBookings) {
		return nil
	}
	if b.BelongsToCustomer(actor.ID) {
		return nil
	}
	if actor.Role == domain.RoleWorker && assignment != nil && assignment.WorkerID == actor.ID {
		return nil
	}
	return ErrAccessDenied
}

// currentAssignment возвращает актуальное назначение или nil
func (s *Service) currentAssignment(ctx context.Context, bookingID int64) (*domain.Assignment, error) {
	assignment, err := s.bookingRepo.GetAssignment(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrAssignmentNotFound) {
			return nil, nil
		}
		s.logger.Error("currentAssignment: repository error for booking id=%d: %v", bookingID, err)
		return nil, fmt.Errorf("%w: currentAssignment - repository error: %v", ErrInternal, err)
	}
	return assignment, nil
}

// addEvent пишет запись журнала внутри транзакции перехода
func (s *Service) addEvent(ctx context.Context, bookingID int64, eventType domain.EventType, actorID int64, metadata map[string]string) error {
	event := &domain.BookingEvent{
		BookingID: bookingID,
		Type:      eventType,
		ActorID:   &actorID,
		Metadata:  metadata,
	}
	if err := s.bookingRepo.AddEvent(ctx, event); err != nil {
		s.logger.Error("addEvent: failed to add %s event for booking id=%d: %v", eventType, bookingID, err)
		return fmt.Errorf("%w: addEvent - repository error: %v", ErrInternal, err)
	}
	return nil
}

// reload перечитывает бронирование и его назначение после перехода
func (s *Service) reload(ctx context.Context, publicID uuid.UUID) (*models.BookingResponse, error) {
	b, err := s.bookingRepo.GetByPublicID(ctx, publicID)
	if err != nil {
		return nil, fmt.Errorf("%w: reload - repository error: %v", ErrInternal, err)
	}

	assignment, err := s.currentAssignment(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	return models.FromDomainBooking(b, assignment), nil
}
