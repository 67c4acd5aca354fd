package get_availability

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/PCS-BookingService/internal/domain"
)

// UseCase use case запроса доступности на календарную дату
type UseCase struct {
	bookingRepo BookingRepository
	logger      Logger
}

// NewUseCase создает новый экземпляр use case
func NewUseCase(bookingRepo BookingRepository, logger Logger) *UseCase {
	return &UseCase{
		bookingRepo: bookingRepo,
		logger:      logger,
	}
}

// Execute возвращает интервалы активных бронирований, пересекающих
// локальные сутки каллера. Бронирование, начавшееся до полуночи и
// закончившееся после, тоже попадает в выдачу - оно пересекает окно.
// Чтение без побочных эффектов, только закоммиченное состояние.
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	date, err := time.Parse(domain.DateFormat, req.Date)
	if err != nil {
		uc.logger.Warn("GetAvailability: invalid date %q: %v", req.Date, err)
		return nil, fmt.Errorf("%w: date must be in YYYY-MM-DD format", ErrInvalidInput)
	}

	if req.TZOffsetMinutes < domain.MinTZOffsetMinutes || req.TZOffsetMinutes > domain.MaxTZOffsetMinutes {
		uc.logger.Warn("GetAvailability: tz offset %d out of range", req.TZOffsetMinutes)
		return nil, fmt.Errorf("%w: tz offset must be between %d and %d minutes",
			ErrInvalidInput, domain.MinTZOffsetMinutes, domain.MaxTZOffsetMinutes)
	}

	window := domain.DayWindow(date.Year(), date.Month(), date.Day(), req.TZOffsetMinutes)

	uc.logger.Info("GetAvailability: date=%s offset=%d window=%s", req.Date, req.TZOffsetMinutes, window)

	bookings, err := uc.bookingRepo.ListOverlapping(ctx, window)
	if err != nil {
		uc.logger.Error("GetAvailability: failed to list overlapping bookings: %v", err)
		return nil, fmt.Errorf("%w: failed to list bookings: %v", ErrInternal, err)
	}

	intervals := make([]BusyInterval, 0, len(bookings))
	for _, b := range bookings {
		// Репозиторий фильтрует по активным статусам, но выборка
		// не доверяет этому слепо
		if !b.IsActive() {
			continue
		}
		intervals = append(intervals, BusyInterval{
			StartsAt: b.TimeSlot.Start,
			EndsAt:   b.TimeSlot.End,
			Status:   string(b.Status),
		})
	}

	uc.logger.Info("GetAvailability: %d busy interval(s) on %s", len(intervals), req.Date)

	return &Response{
		Date:      req.Date,
		Intervals: intervals,
	}, nil
}
