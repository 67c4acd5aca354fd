package booking

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	"github.com/m04kA/PCS-BookingService/pkg/dbmetrics"
	"github.com/m04kA/PCS-BookingService/pkg/psqlbuilder"
)

// pgExclusionViolation SQLSTATE нарушения exclusion constraint (23P01).
// Это арбитр конкурентных заявок: из двух пересекающихся вставок
// БД пропускает ровно одну, вторая получает этот код.
const pgExclusionViolation = "23P01"

var bookingColumns = []string{
	"id",
	"public_id",
	"service_id",
	"customer_id",
	"lead_id",
	"status",
	"starts_at",
	"ends_at",
	"address",
	"notes",
	"accepted_at",
	"completed_at",
	"cancelled_at",
	"created_at",
	"updated_at",
}

// Repository репозиторий бронирований, назначений и журнала событий
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create вставляет новое бронирование.
// Пересечение с активным бронированием отклоняет сама БД через
// exclusion constraint bookings_no_overlap - прикладная проверка
// доступности перед вставкой дает лишь быстрый ответ и арбитром не является.
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"public_id",
			"service_id",
			"customer_id",
			"lead_id",
			"status",
			"starts_at",
			"ends_at",
			"address",
			"notes",
		).
		Values(
			b.PublicID,
			b.ServiceID,
			b.Bookee.CustomerID,
			b.Bookee.LeadID,
			b.Status,
			b.TimeSlot.Start,
			b.TimeSlot.End,
			b.Address,
			b.Notes,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&b.ID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	if err != nil {
		if isExclusionViolation(err) {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	return b, nil
}

// GetByPublicID получает бронирование по внешнему идентификатору
func (r *Repository) GetByPublicID(ctx context.Context, publicID uuid.UUID) (*domain.Booking, error) {
	return r.getByPublicID(ctx, publicID, false)
}

// GetByPublicIDForUpdate получает бронирование с блокировкой строки (FOR UPDATE).
// Вызывается только внутри транзакции: блокировка держится до её конца,
// сериализуя конкурентные переходы по одному бронированию.
func (r *Repository) GetByPublicIDForUpdate(ctx context.Context, publicID uuid.UUID) (*domain.Booking, error) {
	return r.getByPublicID(ctx, publicID, true)
}

func (r *Repository) getByPublicID(ctx context.Context, publicID uuid.UUID, forUpdate bool) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"public_id": publicID})

	if forUpdate && dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: getByPublicID - build select query: %v", ErrBuildQuery, err)
	}

	row := executor.QueryRowContext(ctx, query, args...)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("%w: getByPublicID - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// ListOverlapping возвращает активные бронирования, пересекающиеся с окном.
// Внутри транзакции строки блокируются (FOR UPDATE) - это прикладная
// pre-проверка admission, окончательное слово за exclusion constraint.
func (r *Repository) ListOverlapping(ctx context.Context, window domain.TimeRange) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Expr("time_slot && tstzrange(?, ?, '[)')", window.Start, window.End)).
		Where(squirrel.Eq{"status": domain.ActiveStatusStrings()}).
		OrderBy("starts_at ASC")

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListByCustomer возвращает бронирования клиента, опционально по статусу
func (r *Repository) ListByCustomer(ctx context.Context, customerID int64, status *domain.BookingStatus) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("starts_at DESC")

	if status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *status})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListByWorker возвращает бронирования, на которые техник назначен сейчас.
// Доступ техника - скользящее окно: после переназначения бронирование
// пропадает из этой выборки немедленно.
func (r *Repository) ListByWorker(ctx context.Context, workerID int64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	prefixed := make([]string, len(bookingColumns))
	for i, c := range bookingColumns {
		prefixed[i] = "b." + c
	}

	query, args, err := psqlbuilder.Select(prefixed...).
		From("bookings b").
		Join("booking_assignments a ON a.booking_id = b.id").
		Where(squirrel.Eq{"a.worker_id": workerID}).
		OrderBy("b.starts_at ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListByWorker - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByWorker - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListWithFilter возвращает бронирования по административному фильтру
func (r *Repository) ListWithFilter(ctx context.Context, filter domain.BookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		OrderBy("starts_at DESC")

	if filter.From != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"ends_at": *filter.From})
	}
	if filter.To != nil {
		selectBuilder = selectBuilder.Where(squirrel.Lt{"starts_at": *filter.To})
	}

	if filter.Status != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": *filter.Status})
	} else if !filter.IncludeTerminal {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"status": domain.ActiveStatusStrings()})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListWithFilter - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// Accept переводит бронирование в accepted, ставит accepted_at
func (r *Repository) Accept(ctx context.Context, id int64) error {
	return r.updateStatus(ctx, id, "Accept", map[string]interface{}{
		"status":      domain.StatusAccepted,
		"accepted_at": squirrel.Expr("NOW()"),
	})
}

// SetAssigned переводит бронирование в assigned
func (r *Repository) SetAssigned(ctx context.Context, id int64) error {
	return r.updateStatus(ctx, id, "SetAssigned", map[string]interface{}{
		"status": domain.StatusAssigned,
	})
}

// Complete переводит бронирование в completed, ставит completed_at
func (r *Repository) Complete(ctx context.Context, id int64) error {
	return r.updateStatus(ctx, id, "Complete", map[string]interface{}{
		"status":       domain.StatusCompleted,
		"completed_at": squirrel.Expr("NOW()"),
	})
}

// Cancel переводит бронирование в cancelled, ставит cancelled_at.
// Слот освобождается: partial-предикат exclusion constraint
// перестает учитывать эту строку.
func (r *Repository) Cancel(ctx context.Context, id int64) error {
	return r.updateStatus(ctx, id, "Cancel", map[string]interface{}{
		"status":       domain.StatusCancelled,
		"cancelled_at": squirrel.Expr("NOW()"),
	})
}

func (r *Repository) updateStatus(ctx context.Context, id int64, op string, sets map[string]interface{}) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("bookings").
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id})

	for column, value := range sets {
		updateBuilder = updateBuilder.Set(column, value)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %s - build update query: %v", ErrBuildQuery, op, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, op, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, op, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// UpsertAssignment создает или перезаписывает текущее назначение техника.
// Ключ - booking_id: переназначение обновляет строку на месте,
// история остается в booking_events.
func (r *Repository) UpsertAssignment(ctx context.Context, bookingID, workerID int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("booking_assignments").
		Columns("booking_id", "worker_id").
		Values(bookingID, workerID).
		Suffix("ON CONFLICT (booking_id) DO UPDATE SET worker_id = EXCLUDED.worker_id, updated_at = NOW()").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpsertAssignment - build insert query: %v", ErrBuildQuery, err)
	}

	if _, err := executor.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: UpsertAssignment - execute upsert: %v", ErrExecQuery, err)
	}

	return nil
}

// GetAssignment возвращает текущее назначение бронирования
func (r *Repository) GetAssignment(ctx context.Context, bookingID int64) (*domain.Assignment, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("booking_id", "worker_id", "assigned_at", "updated_at").
		From("booking_assignments").
		Where(squirrel.Eq{"booking_id": bookingID}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetAssignment - build select query: %v", ErrBuildQuery, err)
	}

	var a domain.Assignment
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&a.BookingID,
		&a.WorkerID,
		&a.AssignedAt,
		&a.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAssignmentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetAssignment - scan assignment: %v", ErrScanRow, err)
	}

	return &a, nil
}

// AddEvent добавляет запись в журнал событий бронирования
func (r *Repository) AddEvent(ctx context.Context, ev *domain.BookingEvent) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	metadata := ev.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return fmt.Errorf("%w: AddEvent - marshal metadata: %v", ErrBuildQuery, err)
	}

	query, args, err := psqlbuilder.Insert("booking_events").
		Columns("booking_id", "event_type", "actor_id", "metadata").
		Values(ev.BookingID, ev.Type, ev.ActorID, metadataJSON).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AddEvent - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, query, args...).Scan(&ev.ID, &ev.CreatedAt); err != nil {
		return fmt.Errorf("%w: AddEvent - execute insert: %v", ErrExecQuery, err)
	}

	return nil
}

// ListEvents возвращает журнал событий бронирования в порядке записи
func (r *Repository) ListEvents(ctx context.Context, bookingID int64) ([]*domain.BookingEvent, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "booking_id", "event_type", "actor_id", "metadata", "created_at").
		From("booking_events").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: ListEvents - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListEvents - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	events := make([]*domain.BookingEvent, 0)
	for rows.Next() {
		var ev domain.BookingEvent
		var metadataJSON []byte

		if err := rows.Scan(&ev.ID, &ev.BookingID, &ev.Type, &ev.ActorID, &metadataJSON, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: ListEvents - scan row: %v", ErrScanRow, err)
		}

		if err := json.Unmarshal(metadataJSON, &ev.Metadata); err != nil {
			return nil, fmt.Errorf("%w: ListEvents - unmarshal metadata: %v", ErrScanRow, err)
		}

		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListEvents - rows error: %v", ErrScanRow, err)
	}

	return events, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking сканирует одну строку в доменную модель
func scanBooking(row rowScanner) (*domain.Booking, error) {
	var b domain.Booking
	var customerID, leadID sql.NullInt64

	err := row.Scan(
		&b.ID,
		&b.PublicID,
		&b.ServiceID,
		&customerID,
		&leadID,
		&b.Status,
		&b.TimeSlot.Start,
		&b.TimeSlot.End,
		&b.Address,
		&b.Notes,
		&b.AcceptedAt,
		&b.CompletedAt,
		&b.CancelledAt,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	switch {
	case customerID.Valid:
		b.Bookee = domain.RegisteredBookee(customerID.Int64)
	case leadID.Valid:
		b.Bookee = domain.LeadBookee(leadID.Int64)
	}

	return &b, nil
}

// scanBookings сканирует результаты запроса в слайс бронирований
func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

// isExclusionViolation распознает отказ exclusion constraint (SQLSTATE 23P01)
func isExclusionViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgExclusionViolation
}
