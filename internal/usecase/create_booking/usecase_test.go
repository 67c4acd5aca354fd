package create_booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	actorRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/actor"
	bookingRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/booking"
	catalogRepo "github.com/m04kA/PCS-BookingService/internal/infra/storage/catalog"
	"github.com/m04kA/PCS-BookingService/pkg/ptr"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

// fakeBookingRepo хранит бронирования в памяти и повторяет поведение
// exclusion constraint: вставка пересекающегося активного слота отклоняется
type fakeBookingRepo struct {
	bookings []*domain.Booking
	events   []*domain.BookingEvent
	nextID   int64
}

func (f *fakeBookingRepo) Create(_ context.Context, b *domain.Booking) (*domain.Booking, error) {
	for _, existing := range f.bookings {
		if existing.IsActive() && existing.TimeSlot.Overlaps(b.TimeSlot) {
			return nil, bookingRepo.ErrSlotTaken
		}
	}

	f.nextID++
	created := *b
	created.ID = f.nextID
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	f.bookings = append(f.bookings, &created)
	return &created, nil
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

func (f *fakeBookingRepo) AddEvent(_ context.Context, ev *domain.BookingEvent) error {
	f.events = append(f.events, ev)
	return nil
}

type fakeCatalogRepo struct {
	services map[int64]*domain.Service
}

func (f *fakeCatalogRepo) GetByID(_ context.Context, id int64) (*domain.Service, error) {
	svc, ok := f.services[id]
	if !ok {
		return nil, catalogRepo.ErrServiceNotFound
	}
	return svc, nil
}

type fakeActorRepo struct {
	users    map[int64]*domain.Actor
	leads    map[string]*domain.Lead
	nextLead int64
}

func (f *fakeActorRepo) GetUserByID(_ context.Context, id int64) (*domain.Actor, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, actorRepo.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeActorRepo) GetOrCreateLead(_ context.Context, lead *domain.Lead) (*domain.Lead, error) {
	if existing, ok := f.leads[lead.Email]; ok {
		return existing, nil
	}
	f.nextLead++
	created := *lead
	created.ID = f.nextLead
	if f.leads == nil {
		f.leads = map[string]*domain.Lead{}
	}
	f.leads[lead.Email] = &created
	return &created, nil
}

type fakeTxManager struct{}

func (fakeTxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// fixedTimeProvider возвращает замороженное "сейчас"
type fixedTimeProvider struct {
	now time.Time
}

func (p fixedTimeProvider) Now() time.Time {
	return p.now
}

// Все тестовые слоты лежат после этого момента
var testNow = time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)

func newTestUseCase() (*UseCase, *fakeBookingRepo) {
	repo := &fakeBookingRepo{}
	catalog := &fakeCatalogRepo{services: map[int64]*domain.Service{
		1: {ID: 1, Title: "Обработка от тараканов", DurationMinutes: 60, Active: true},
		2: {ID: 2, Title: "Снятая с продажи услуга", DurationMinutes: 90, Active: false},
	}}
	actors := &fakeActorRepo{users: map[int64]*domain.Actor{
		7:  {ID: 7, Name: "Customer", Role: domain.RoleCustomer},
		20: {ID: 20, Name: "Worker", Role: domain.RoleWorker},
	}}

	uc := NewUseCase(repo, catalog, actors, fakeTxManager{}, nopLogger{})
	uc.timeProvider = fixedTimeProvider{now: testNow}
	return uc, repo
}

func customerRequest(startsAt time.Time) *Request {
	return &Request{
		Actor:     domain.Actor{ID: 7, Role: domain.RoleCustomer},
		ServiceID: 1,
		StartsAt:  startsAt,
		Address:   "ул. Ленина, д. 1, кв. 2",
	}
}

func TestExecute_CreatesPendingBooking(t *testing.T) {
	uc, repo := newTestUseCase()
	startsAt := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	resp, err := uc.Execute(context.Background(), customerRequest(startsAt))
	require.NoError(t, err)

	assert.NotEmpty(t, resp.PublicID)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Equal(t, startsAt, resp.StartsAt)
	// Конец слота вычислен из длительности услуги
	assert.Equal(t, startsAt.Add(60*time.Minute), resp.EndsAt)
	require.NotNil(t, resp.CustomerID)
	assert.Equal(t, int64(7), *resp.CustomerID)
	assert.Nil(t, resp.LeadID)

	// Записано событие created
	require.Len(t, repo.events, 1)
	assert.Equal(t, domain.EventCreated, repo.events[0].Type)
}

func TestExecute_OverlappingSlotRejected(t *testing.T) {
	uc, _ := newTestUseCase()
	startsAt := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	_, err := uc.Execute(context.Background(), customerRequest(startsAt))
	require.NoError(t, err)

	// [14:30, 15:30) пересекает [14:00, 15:00)
	_, err = uc.Execute(context.Background(), customerRequest(startsAt.Add(30*time.Minute)))
	assert.ErrorIs(t, err, ErrSlotTaken)

	// Стыкующийся слот [15:00, 16:00) проходит
	_, err = uc.Execute(context.Background(), customerRequest(startsAt.Add(60*time.Minute)))
	assert.NoError(t, err)
}

// Слот в прошлом отклоняется по часам timeProvider, а не по системным
func TestExecute_PastStartRejected(t *testing.T) {
	uc, repo := newTestUseCase()

	_, err := uc.Execute(context.Background(), customerRequest(testNow.Add(-time.Hour)))
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, repo.bookings)

	// Сдвигаем часы вперед - тот же слот оказывается в прошлом
	startsAt := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	uc.timeProvider = fixedTimeProvider{now: startsAt.Add(time.Minute)}
	_, err = uc.Execute(context.Background(), customerRequest(startsAt))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

// Отмененное бронирование не держит слот: интервал можно занять повторно
func TestExecute_CancelledSlotFreed(t *testing.T) {
	uc, repo := newTestUseCase()
	startsAt := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	slot, err := domain.NewTimeRange(startsAt, startsAt.Add(time.Hour))
	require.NoError(t, err)
	repo.bookings = append(repo.bookings, &domain.Booking{
		ID:        1,
		ServiceID: 1,
		Bookee:    domain.RegisteredBookee(7),
		Status:    domain.StatusCancelled,
		TimeSlot:  slot,
	})
	repo.nextID = 1

	resp, err := uc.Execute(context.Background(), customerRequest(startsAt))
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusPending), resp.Status)
	assert.Len(t, repo.bookings, 2)
}

// Гонка check-then-insert: pre-проверка пуста, но вставка натыкается
// на constraint. Ошибка хранилища транслируется в ErrSlotTaken.
func TestExecute_ExclusionConstraintRace(t *testing.T) {
	repo := &racingBookingRepo{fakeBookingRepo: &fakeBookingRepo{}}
	catalog := &fakeCatalogRepo{services: map[int64]*domain.Service{
		1: {ID: 1, Title: "Обработка от тараканов", DurationMinutes: 60, Active: true},
	}}
	uc := NewUseCase(repo, catalog, &fakeActorRepo{}, fakeTxManager{}, nopLogger{})
	uc.timeProvider = fixedTimeProvider{now: testNow}

	startsAt := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)
	_, err := uc.Execute(context.Background(), customerRequest(startsAt))
	assert.ErrorIs(t, err, ErrSlotTaken)
}

// racingBookingRepo видит пустую pre-проверку, но отклоняет вставку,
// как это делает БД при конкурентной фиксации пересекающегося слота
type racingBookingRepo struct {
	*fakeBookingRepo
}

func (r *racingBookingRepo) ListOverlapping(context.Context, domain.TimeRange) ([]*domain.Booking, error) {
	return nil, nil
}

func (r *racingBookingRepo) Create(context.Context, *domain.Booking) (*domain.Booking, error) {
	return nil, bookingRepo.ErrSlotTaken
}

func TestExecute_Validation(t *testing.T) {
	uc, _ := newTestUseCase()
	startsAt := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		mutate  func(*Request)
		wantErr error
	}{
		{
			name:    "zero starts_at",
			mutate:  func(r *Request) { r.StartsAt = time.Time{} },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "ends_at before starts_at",
			mutate:  func(r *Request) { r.EndsAt = ptr.Ptr(startsAt.Add(-time.Hour)) },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "ends_at equals starts_at",
			mutate:  func(r *Request) { r.EndsAt = ptr.Ptr(startsAt) },
			wantErr: ErrInvalidInput,
		},
		{
			name:    "empty address",
			mutate:  func(r *Request) { r.Address = "" },
			wantErr: ErrInvalidInput,
		},
		{
			name: "customer and lead together",
			mutate: func(r *Request) {
				r.Actor = domain.Actor{ID: 1, Role: domain.RoleAdmin}
				r.CustomerID = ptr.Ptr(int64(7))
				r.Lead = &LeadContact{Name: "Иван", Phone: "+70000000000", Email: "ivan@example.com"}
			},
			wantErr: ErrInvalidInput,
		},
		{
			name:    "customer books for someone else",
			mutate:  func(r *Request) { r.CustomerID = ptr.Ptr(int64(8)) },
			wantErr: ErrForbidden,
		},
		{
			name: "worker cannot create bookings",
			mutate: func(r *Request) {
				r.Actor = domain.Actor{ID: 20, Role: domain.RoleWorker}
			},
			wantErr: ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := customerRequest(startsAt)
			tt.mutate(req)

			_, err := uc.Execute(context.Background(), req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestExecute_ServiceLookup(t *testing.T) {
	uc, _ := newTestUseCase()
	startsAt := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	req := customerRequest(startsAt)
	req.ServiceID = 99
	_, err := uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrServiceNotFound)

	req = customerRequest(startsAt)
	req.ServiceID = 2
	_, err = uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrServiceInactive)
}

func TestExecute_AdminBooksForLead(t *testing.T) {
	uc, repo := newTestUseCase()
	startsAt := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	req := &Request{
		Actor:     domain.Actor{ID: 1, Role: domain.RoleAdmin},
		ServiceID: 1,
		StartsAt:  startsAt,
		Address:   "пр. Мира, д. 10",
		Lead:      &LeadContact{Name: "Иван", Phone: "+70000000000", Email: "ivan@example.com"},
	}

	resp, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)

	assert.Nil(t, resp.CustomerID)
	require.NotNil(t, resp.LeadID)

	// Повторное бронирование на тот же email переиспользует лида
	req2 := *req
	req2.StartsAt = startsAt.Add(2 * time.Hour)
	resp2, err := uc.Execute(context.Background(), &req2)
	require.NoError(t, err)
	assert.Equal(t, *resp.LeadID, *resp2.LeadID)

	assert.Len(t, repo.bookings, 2)
}

func TestExecute_AdminBooksForCustomer(t *testing.T) {
	uc, _ := newTestUseCase()
	startsAt := time.Date(2025, time.March, 10, 14, 0, 0, 0, time.UTC)

	req := &Request{
		Actor:      domain.Actor{ID: 1, Role: domain.RoleAdmin},
		ServiceID:  1,
		StartsAt:   startsAt,
		Address:    "пр. Мира, д. 10",
		CustomerID: ptr.Ptr(int64(7)),
	}

	resp, err := uc.Execute(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, resp.CustomerID)
	assert.Equal(t, int64(7), *resp.CustomerID)

	// Целевой пользователь с ролью техника не является клиентом
	req.CustomerID = ptr.Ptr(int64(20))
	req.StartsAt = startsAt.Add(2 * time.Hour)
	_, err = uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrCustomerNotFound)

	// Админ обязан указать заказчика
	req.CustomerID = nil
	_, err = uc.Execute(context.Background(), req)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
