package bookings

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	actorRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/actor"
	bookingRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/booking"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

type fakeTxManager struct{}

func (fakeTxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fakeBookingRepo повторяет семантику репозитория: переходы ставят
// штампы, назначение upsert-ится по booking_id
type fakeBookingRepo struct {
	byID        map[int64]*domain.Booking
	assignments map[int64]*domain.Assignment
	events      []*domain.BookingEvent
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{
		byID:        map[int64]*domain.Booking{},
		assignments: map[int64]*domain.Assignment{},
	}
}

func (f *fakeBookingRepo) add(b *domain.Booking) {
	f.byID[b.ID] = b
}

func (f *fakeBookingRepo) GetByPublicID(_ context.Context, publicID uuid.UUID) (*domain.Booking, error) {
	for _, b := range f.byID {
		if b.PublicID == publicID {
			copied := *b
			return &copied, nil
		}
	}
	return nil, bookingRepo.ErrBookingNotFound
}

func (f *fakeBookingRepo) GetByPublicIDForUpdate(ctx context.Context, publicID uuid.UUID) (*domain.Booking, error) {
	return f.GetByPublicID(ctx, publicID)
}

func (f *fakeBookingRepo) ListByCustomer(_ context.Context, customerID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range f.byID {
		if !b.BelongsToCustomer(customerID) {
			continue
		}
		if status != nil && b.Status != *status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

// ListByWorker отдает все бронирования со строкой назначения на техника,
// без фильтра по статусу: завершенные остаются в выборке как история
func (f *fakeBookingRepo) ListByWorker(_ context.Context, workerID int64) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for id, asg := range f.assignments {
		if asg.WorkerID == workerID {
			out = append(out, f.byID[id])
		}
	}
	return out, nil
}

func (f *fakeBookingRepo) ListWithFilter(_ context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	var out []*domain.Booking
	for _, b := range f.byID {
		if !filter.IncludeTerminal && b.IsTerminal() {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (f *fakeBookingRepo) Accept(_ context.Context, id int64) error {
	b := f.byID[id]
	now := time.Now()
	b.Status = domain.StatusAccepted
	b.AcceptedAt = &now
	return nil
}

func (f *fakeBookingRepo) SetAssigned(_ context.Context, id int64) error {
	f.byID[id].Status = domain.StatusAssigned
	return nil
}

func (f *fakeBookingRepo) Complete(_ context.Context, id int64) error {
	b := f.byID[id]
	now := time.Now()
	b.Status = domain.StatusCompleted
	b.CompletedAt = &now
	return nil
}

func (f *fakeBookingRepo) Cancel(_ context.Context, id int64) error {
	b := f.byID[id]
	now := time.Now()
	b.Status = domain.StatusCancelled
	b.CancelledAt = &now
	return nil
}

func (f *fakeBookingRepo) UpsertAssignment(_ context.Context, bookingID, workerID int64) error {
	now := time.Now()
	if asg, ok := f.assignments[bookingID]; ok {
		asg.WorkerID = workerID
		asg.UpdatedAt = now
		return nil
	}
	f.assignments[bookingID] = &domain.Assignment{
		BookingID:  bookingID,
		WorkerID:   workerID,
		AssignedAt: now,
		UpdatedAt:  now,
	}
	return nil
}

func (f *fakeBookingRepo) GetAssignment(_ context.Context, bookingID int64) (*domain.Assignment, error) {
	asg, ok := f.assignments[bookingID]
	if !ok {
		return nil, bookingRepo.ErrAssignmentNotFound
	}
	return asg, nil
}

func (f *fakeBookingRepo) AddEvent(_ context.Context, ev *domain.BookingEvent) error {
	f.events = append(f.events, ev)
	return nil
}

func (f *fakeBookingRepo) ListEvents(_ context.Context, bookingID int64) ([]*domain.BookingEvent, error) {
	var out []*domain.BookingEvent
	for _, ev := range f.events {
		if ev.BookingID == bookingID {
			out = append(out, ev)
		}
	}
	return out, nil
}

type fakeActorRepo struct {
	users map[int64]*domain.Actor
}

func (f *fakeActorRepo) GetUserByID(_ context.Context, id int64) (*domain.Actor, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, actorRepo.ErrUserNotFound
	}
	return u, nil
}

var (
	admin     = domain.Actor{ID: 1, Role: domain.RoleAdmin}
	customer  = domain.Actor{ID: 7, Role: domain.RoleCustomer}
	stranger  = domain.Actor{ID: 8, Role: domain.RoleCustomer}
	workerOne = domain.Actor{ID: 20, Role: domain.RoleWorker}
	workerTwo = domain.Actor{ID: 21, Role: domain.RoleWorker}
)

func newTestService() (*Service, *fakeBookingRepo) {
	repo := newFakeBookingRepo()
	actors := &fakeActorRepo{users: map[int64]*domain.Actor{
		1:  &admin,
		7:  &customer,
		8:  &stranger,
		20: &workerOne,
		21: &workerTwo,
	}}
	return NewService(repo, actors, fakeTxManager{}, nopLogger{}), repo
}

func pendingBooking(id int64, customerID int64) *domain.Booking {
	start := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	return &domain.Booking{
		ID:        id,
		PublicID:  uuid.New(),
		ServiceID: 1,
		Bookee:    domain.RegisteredBookee(customerID),
		Status:    domain.StatusPending,
		TimeSlot:  domain.TimeRange{Start: start, End: start.Add(time.Hour)},
		Address:   "ул. Ленина, д. 1",
	}
}

// Полный жизненный цикл: pending -> accepted -> assigned -> completed
func TestLifecycle(t *testing.T) {
	svc, repo := newTestService()
	b := pendingBooking(1, customer.ID)
	repo.add(b)
	ctx := context.Background()

	resp, err := svc.Accept(ctx, b.PublicID, admin)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusAccepted), resp.Status)
	assert.NotNil(t, resp.AcceptedAt)

	resp, err = svc.Assign(ctx, b.PublicID, workerOne.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusAssigned), resp.Status)
	require.NotNil(t, resp.WorkerID)
	assert.Equal(t, workerOne.ID, *resp.WorkerID)

	resp, err = svc.Complete(ctx, b.PublicID, workerOne)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCompleted), resp.Status)
	assert.NotNil(t, resp.CompletedAt)

	// Журнал: accepted, assigned, completed
	events, err := svc.GetEvents(ctx, b.PublicID, admin)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, string(domain.EventAccepted), events[0].Type)
	assert.Equal(t, string(domain.EventAssigned), events[1].Type)
	assert.Equal(t, string(domain.EventCompleted), events[2].Type)
}

func TestAccept_Gates(t *testing.T) {
	svc, repo := newTestService()
	b := pendingBooking(1, customer.ID)
	repo.add(b)
	ctx := context.Background()

	// Клиент и техник не подтверждают
	_, err := svc.Accept(ctx, b.PublicID, customer)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = svc.Accept(ctx, b.PublicID, workerOne)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Повторное подтверждение отклоняется
	_, err = svc.Accept(ctx, b.PublicID, admin)
	require.NoError(t, err)
	_, err = svc.Accept(ctx, b.PublicID, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// Неизвестное бронирование
	_, err = svc.Accept(ctx, uuid.New(), admin)
	assert.ErrorIs(t, err, ErrBookingNotFound)
}

func TestCancel_Ownership(t *testing.T) {
	svc, repo := newTestService()
	b := pendingBooking(1, customer.ID)
	repo.add(b)
	ctx := context.Background()

	// Чужой клиент не отменяет
	_, err := svc.Cancel(ctx, b.PublicID, stranger)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Владелец отменяет своё
	resp, err := svc.Cancel(ctx, b.PublicID, customer)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
	assert.NotNil(t, resp.CancelledAt)

	// Из терминального статуса отмена невозможна
	_, err = svc.Cancel(ctx, b.PublicID, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel_AdminCancelsAnyActive(t *testing.T) {
	svc, repo := newTestService()
	b := pendingBooking(1, customer.ID)
	repo.add(b)
	ctx := context.Background()

	// Отмена возможна из любого активного статуса, в том числе assigned
	_, err := svc.Accept(ctx, b.PublicID, admin)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, b.PublicID, workerOne.ID, admin)
	require.NoError(t, err)

	resp, err := svc.Cancel(ctx, b.PublicID, admin)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusCancelled), resp.Status)
}

func TestAssign_Validation(t *testing.T) {
	svc, repo := newTestService()
	b := pendingBooking(1, customer.ID)
	repo.add(b)
	ctx := context.Background()

	// Назначение до подтверждения отклоняется
	_, err := svc.Assign(ctx, b.PublicID, workerOne.ID, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Accept(ctx, b.PublicID, admin)
	require.NoError(t, err)

	// Только админ назначает
	_, err = svc.Assign(ctx, b.PublicID, workerOne.ID, customer)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Несуществующий техник
	_, err = svc.Assign(ctx, b.PublicID, 999, admin)
	assert.ErrorIs(t, err, ErrWorkerNotFound)

	// Пользователь без роли техника
	_, err = svc.Assign(ctx, b.PublicID, stranger.ID, admin)
	assert.ErrorIs(t, err, ErrNotAWorker)
}

// Переназначение: строка назначения перезаписывается, доступ прежнего
// техника отзывается немедленно
func TestAssign_ReassignmentRevokesAccess(t *testing.T) {
	svc, repo := newTestService()
	b := pendingBooking(1, customer.ID)
	repo.add(b)
	ctx := context.Background()

	_, err := svc.Accept(ctx, b.PublicID, admin)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, b.PublicID, workerOne.ID, admin)
	require.NoError(t, err)

	// W1 видит бронирование
	list, err := svc.ListWorkerBookings(ctx, workerOne)
	require.NoError(t, err)
	assert.Len(t, list.Bookings, 1)

	// Переназначаем на W2: assigned -> assigned
	resp, err := svc.Assign(ctx, b.PublicID, workerTwo.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusAssigned), resp.Status)
	assert.Equal(t, workerTwo.ID, *resp.WorkerID)

	// W1 больше не видит и не может завершить
	list, err = svc.ListWorkerBookings(ctx, workerOne)
	require.NoError(t, err)
	assert.Empty(t, list.Bookings)

	_, err = svc.GetByPublicID(ctx, b.PublicID, workerOne)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Complete(ctx, b.PublicID, workerOne)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// W2 завершает
	_, err = svc.Complete(ctx, b.PublicID, workerTwo)
	assert.NoError(t, err)
}

// Выборка техника идет по строке назначения, статус ее не фильтрует:
// завершенное бронирование остается в списке, переназначенное - нет
func TestListWorkerBookings_AssignmentRowDriven(t *testing.T) {
	svc, repo := newTestService()
	b := pendingBooking(1, customer.ID)
	repo.add(b)
	ctx := context.Background()

	_, err := svc.Accept(ctx, b.PublicID, admin)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, b.PublicID, workerOne.ID, admin)
	require.NoError(t, err)
	_, err = svc.Complete(ctx, b.PublicID, workerOne)
	require.NoError(t, err)

	list, err := svc.ListWorkerBookings(ctx, workerOne)
	require.NoError(t, err)
	require.Len(t, list.Bookings, 1)
	assert.Equal(t, string(domain.StatusCompleted), list.Bookings[0].Status)
}

func TestComplete_Gates(t *testing.T) {
	svc, repo := newTestService()
	b := pendingBooking(1, customer.ID)
	repo.add(b)
	ctx := context.Background()

	// Завершение возможно только из assigned
	_, err := svc.Complete(ctx, b.PublicID, workerOne)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = svc.Accept(ctx, b.PublicID, admin)
	require.NoError(t, err)
	_, err = svc.Assign(ctx, b.PublicID, workerOne.ID, admin)
	require.NoError(t, err)

	// Админ и клиент не завершают
	_, err = svc.Complete(ctx, b.PublicID, admin)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = svc.Complete(ctx, b.PublicID, customer)
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Чужой техник не завершает
	_, err = svc.Complete(ctx, b.PublicID, workerTwo)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.Complete(ctx, b.PublicID, workerOne)
	require.NoError(t, err)

	// Терминальный статус закрыт для всех переходов
	_, err = svc.Complete(ctx, b.PublicID, workerOne)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = svc.Cancel(ctx, b.PublicID, admin)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestGetByPublicID_Access(t *testing.T) {
	svc, repo := newTestService()
	b := pendingBooking(1, customer.ID)
	repo.add(b)
	ctx := context.Background()

	// Владелец и админ читают
	_, err := svc.GetByPublicID(ctx, b.PublicID, customer)
	assert.NoError(t, err)
	_, err = svc.GetByPublicID(ctx, b.PublicID, admin)
	assert.NoError(t, err)

	// Чужой клиент и неназначенный техник - нет
	_, err = svc.GetByPublicID(ctx, b.PublicID, stranger)
	assert.ErrorIs(t, err, ErrAccessDenied)
	_, err = svc.GetByPublicID(ctx, b.PublicID, workerOne)
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestListCustomerBookings(t *testing.T) {
	svc, repo := newTestService()
	repo.add(pendingBooking(1, customer.ID))
	repo.add(pendingBooking(2, stranger.ID))
	ctx := context.Background()

	list, err := svc.ListCustomerBookings(ctx, customer, nil)
	require.NoError(t, err)
	assert.Len(t, list.Bookings, 1)

	// Фильтр по статусу
	status := string(domain.StatusCancelled)
	list, err = svc.ListCustomerBookings(ctx, customer, &status)
	require.NoError(t, err)
	assert.Empty(t, list.Bookings)

	// Некорректный статус
	bad := "confirmed"
	_, err = svc.ListCustomerBookings(ctx, customer, &bad)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListBookings_AdminOnly(t *testing.T) {
	svc, repo := newTestService()
	repo.add(pendingBooking(1, customer.ID))
	ctx := context.Background()

	_, err := svc.ListBookings(ctx, customer, nil)
	assert.ErrorIs(t, err, ErrAccessDenied)

	_, err = svc.GetEvents(ctx, repo.byID[1].PublicID, customer)
	assert.ErrorIs(t, err, ErrAccessDenied)
}
