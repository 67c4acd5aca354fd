package create_booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	actorRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/actor"
	bookingRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/catalog"
)

// UseCase use case создания бронирования (admission control)
type UseCase struct {
	bookingRepo  BookingRepository
	catalogRepo  CatalogRepository
	actorRepo    ActorRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(
	bookingRepo BookingRepository,
	catalogRepo CatalogRepository,
	actorRepo ActorRepository,
	txManager TransactionManager,
	logger Logger,
) *UseCase {
	return &UseCase{
		bookingRepo:  bookingRepo,
		catalogRepo:  catalogRepo,
		actorRepo:    actorRepo,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
	}
}

// Execute выполняет admission control: валидация, pre-проверка доступности
// под блокировкой и вставка в одной сериализуемой транзакции.
// Прикладная проверка дает быстрый точный ответ "слот занят", но гонку
// check-then-insert закрывает exclusion constraint в БД: из двух
// конкурентных пересекающихся заявок фиксируется ровно одна.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	uc.logger.Info("CreateBooking: actor=%d role=%s, service=%d, starts_at=%s",
		req.Actor.ID, req.Actor.Role, req.ServiceID, req.StartsAt.Format("2006-01-02T15:04:05Z07:00"))

	// 1. Валидация входных данных
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 2. Получаем текущее время: слот в прошлом не бронируется
	now := uc.timeProvider.Now()
	if err := validateStartsAt(req.StartsAt, now); err != nil {
		uc.logger.Warn("CreateBooking: validation failed: %v", err)
		return nil, err
	}

	// 3. Проверка, кому актор вправе бронировать
	if err := validateActorTarget(req); err != nil {
		uc.logger.Warn("CreateBooking: actor target check failed: actor=%d role=%s: %v",
			req.Actor.ID, req.Actor.Role, err)
		return nil, err
	}

	var result *domain.Booking

	// 4. Все операции с БД в сериализуемой транзакции
	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 4.1. Получаем услугу, деактивированные не бронируются
		service, err := uc.catalogRepo.GetByID(txCtx, req.ServiceID)
		if err != nil {
			if errors.Is(err, catalogRepo.ErrServiceNotFound) {
				uc.logger.Warn("CreateBooking: service id=%d not found", req.ServiceID)
				return ErrServiceNotFound
			}
			uc.logger.Error("CreateBooking: failed to get service id=%d: %v", req.ServiceID, err)
			return fmt.Errorf("%w: failed to get service: %v", ErrInternal, err)
		}
		if !service.Active {
			uc.logger.Warn("CreateBooking: service id=%d is inactive", req.ServiceID)
			return ErrServiceInactive
		}

		// 4.2. Конец слота: явный или из номинальной длительности услуги
		endsAt := req.StartsAt.Add(service.Duration())
		if req.EndsAt != nil {
			endsAt = *req.EndsAt
		}

		slot, err := domain.NewTimeRange(req.StartsAt, endsAt)
		if err != nil {
			uc.logger.Warn("CreateBooking: invalid time range: %v", err)
			return fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}

		// 4.3. Резолвим заказчика: клиент XOR лид
		bookee, err := uc.resolveBookee(txCtx, req)
		if err != nil {
			return err
		}

		// 4.4. Pre-проверка доступности под блокировкой (FOR UPDATE):
		// быстрый ответ каллеру, но не арбитр корректности
		overlapping, err := uc.bookingRepo.ListOverlapping(txCtx, slot)
		if err != nil {
			uc.logger.Error("CreateBooking: failed to list overlapping bookings: %v", err)
			return fmt.Errorf("%w: failed to list overlapping bookings: %v", ErrInternal, err)
		}
		if len(overlapping) > 0 {
			uc.logger.Warn("CreateBooking: slot %s overlaps %d active booking(s)", slot, len(overlapping))
			return ErrSlotTaken
		}

		// 4.5. Вставка: окончательное решение за exclusion constraint
		b := &domain.Booking{
			PublicID:  uuid.New(),
			ServiceID: service.ID,
			Bookee:    bookee,
			Status:    domain.StatusPending,
			TimeSlot:  slot,
			Address:   req.Address,
			Notes:     req.Notes,
		}

		created, err := uc.bookingRepo.Create(txCtx, b)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrSlotTaken) {
				// Конкурент успел первым между pre-проверкой и вставкой
				uc.logger.Warn("CreateBooking: exclusion constraint rejected slot %s", slot)
				return ErrSlotTaken
			}
			uc.logger.Error("CreateBooking: failed to create booking: %v", err)
			return fmt.Errorf("%w: failed to create booking: %v", ErrInternal, err)
		}

		// 4.6. Запись в журнал событий
		event := &domain.BookingEvent{
			BookingID: created.ID,
			Type:      domain.EventCreated,
			ActorID:   &req.Actor.ID,
		}
		if err := uc.bookingRepo.AddEvent(txCtx, event); err != nil {
			uc.logger.Error("CreateBooking: failed to add created event: %v", err)
			return fmt.Errorf("%w: failed to add event: %v", ErrInternal, err)
		}

		result = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	uc.logger.Info("CreateBooking: successfully created booking public_id=%s", result.PublicID)
	return toResponse(result), nil
}

// resolveBookee определяет заказчика бронирования.
// Клиент всегда бронирует себе; админ - существующему клиенту
// (с проверкой роли) или лиду (get-or-create по email в той же транзакции).
func (uc *UseCase) resolveBookee(ctx context.Context, req *Request) (domain.Bookee, error) {
	switch {
	case req.CustomerID != nil:
		target, err := uc.actorRepo.GetUserByID(ctx, *req.CustomerID)
		if err != nil {
			if errors.Is(err, actorRepo.ErrUserNotFound) {
				uc.logger.Warn("CreateBooking: target customer id=%d not found", *req.CustomerID)
				return domain.Bookee{}, ErrCustomerNotFound
			}
			uc.logger.Error("CreateBooking: failed to get customer id=%d: %v", *req.CustomerID, err)
			return domain.Bookee{}, fmt.Errorf("%w: failed to get customer: %v", ErrInternal, err)
		}
		if target.Role != domain.RoleCustomer {
			uc.logger.Warn("CreateBooking: target user id=%d is not a customer (role=%s)", target.ID, target.Role)
			return domain.Bookee{}, ErrCustomerNotFound
		}
		return domain.RegisteredBookee(target.ID), nil

	case req.Lead != nil:
		lead, err := uc.actorRepo.GetOrCreateLead(ctx, &domain.Lead{
			Name:  req.Lead.Name,
			Phone: req.Lead.Phone,
			Email: req.Lead.Email,
		})
		if err != nil {
			uc.logger.Error("CreateBooking: failed to get or create lead: %v", err)
			return domain.Bookee{}, fmt.Errorf("%w: failed to get or create lead: %v", ErrInternal, err)
		}
		return domain.LeadBookee(lead.ID), nil

	default:
		// Клиент бронирует себе
		return domain.RegisteredBookee(req.Actor.ID), nil
	}
}
