package get_availability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/PCS-BookingService/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeBookingRepo struct {
	bookings []*domain.Booking
}

func (f *fakeBookingRepo) ListOverlapping(_ context.Context, window domain.TimeRange) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range f.bookings {
		if b.IsActive() && b.TimeSlot.Overlaps(window) {
			out = append(out, b)
		}
	}
	return out, nil
}

func booking(status domain.BookingStatus, start, end string) *domain.Booking {
	s, _ := time.Parse(time.RFC3339, start)
	e, _ := time.Parse(time.RFC3339, end)
	return &domain.Booking{
		Status:   status,
		TimeSlot: domain.TimeRange{Start: s, End: e},
	}
}

func TestExecute_ReturnsActiveIntervals(t *testing.T) {
	repo := &fakeBookingRepo{bookings: []*domain.Booking{
		booking(domain.StatusPending, "2025-03-10T14:00:00Z", "2025-03-10T15:00:00Z"),
		booking(domain.StatusAssigned, "2025-03-10T16:00:00Z", "2025-03-10T17:30:00Z"),
		// Отмененное бронирование не держит слот
		booking(domain.StatusCancelled, "2025-03-10T10:00:00Z", "2025-03-10T11:00:00Z"),
		// Завершенное тоже
		booking(domain.StatusCompleted, "2025-03-10T08:00:00Z", "2025-03-10T09:00:00Z"),
		// Другой день
		booking(domain.StatusPending, "2025-03-11T14:00:00Z", "2025-03-11T15:00:00Z"),
	}}
	uc := NewUseCase(repo, nopLogger{})

	resp, err := uc.Execute(context.Background(), &Request{Date: "2025-03-10"})
	require.NoError(t, err)

	assert.Equal(t, "2025-03-10", resp.Date)
	require.Len(t, resp.Intervals, 2)
	assert.Equal(t, string(domain.StatusPending), resp.Intervals[0].Status)
	assert.Equal(t, string(domain.StatusAssigned), resp.Intervals[1].Status)
}

// Бронирование через полночь пересекает суточное окно и попадает в выдачу
func TestExecute_SpanningMidnight(t *testing.T) {
	repo := &fakeBookingRepo{bookings: []*domain.Booking{
		booking(domain.StatusAccepted, "2025-03-09T23:30:00Z", "2025-03-10T00:30:00Z"),
	}}
	uc := NewUseCase(repo, nopLogger{})

	// Окно 2025-03-09 UTC
	resp, err := uc.Execute(context.Background(), &Request{Date: "2025-03-09"})
	require.NoError(t, err)
	assert.Len(t, resp.Intervals, 1)

	// Окно 2025-03-10 UTC: то же бронирование видно и здесь
	resp, err = uc.Execute(context.Background(), &Request{Date: "2025-03-10"})
	require.NoError(t, err)
	assert.Len(t, resp.Intervals, 1)
}

// Смещение пояса сдвигает UTC-окно локальных суток
func TestExecute_TZOffset(t *testing.T) {
	repo := &fakeBookingRepo{bookings: []*domain.Booking{
		// 2025-03-09 22:00 UTC = 2025-03-10 01:00 по UTC+3
		booking(domain.StatusPending, "2025-03-09T22:00:00Z", "2025-03-09T23:00:00Z"),
	}}
	uc := NewUseCase(repo, nopLogger{})

	// Для каллера в UTC это 9 марта
	resp, err := uc.Execute(context.Background(), &Request{Date: "2025-03-10", TZOffsetMinutes: 0})
	require.NoError(t, err)
	assert.Empty(t, resp.Intervals)

	// Для каллера в UTC+3 это уже 10 марта
	resp, err = uc.Execute(context.Background(), &Request{Date: "2025-03-10", TZOffsetMinutes: 180})
	require.NoError(t, err)
	assert.Len(t, resp.Intervals, 1)
}

func TestExecute_InvalidInput(t *testing.T) {
	uc := NewUseCase(&fakeBookingRepo{}, nopLogger{})

	_, err := uc.Execute(context.Background(), &Request{Date: "10.03.2025"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{Date: ""})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{Date: "2025-03-10", TZOffsetMinutes: 900})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), &Request{Date: "2025-03-10", TZOffsetMinutes: -800})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
