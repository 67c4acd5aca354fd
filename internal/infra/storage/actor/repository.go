package actor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/PCS-BookingService/internal/domain"
	"github.com/m04kA/PCS-BookingService/pkg/dbmetrics"
	"github.com/m04kA/PCS-BookingService/pkg/psqlbuilder"
)

// Repository репозиторий акторов: пользователи, сессии, лиды.
// Выпуском сессий занимается внешний auth-слой, здесь только резолв.
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория акторов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// GetActorBySession резолвит сессионный токен в актора.
// Истекшие сессии и деактивированные пользователи отклоняются.
func (r *Repository) GetActorBySession(ctx context.Context, token string) (*domain.Actor, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("u.id", "u.name", "u.role").
		From("sessions s").
		Join("users u ON u.id = s.user_id").
		Where(squirrel.Eq{"s.token": token}).
		Where(squirrel.Expr("s.expires_at > NOW()")).
		Where(squirrel.Eq{"u.active": true}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetActorBySession - build select query: %v", ErrBuildQuery, err)
	}

	var a domain.Actor
	var role string
	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.Name, &role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetActorBySession - scan actor: %v", ErrScanRow, err)
	}

	a.Role, err = domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: GetActorBySession - invalid role %q: %v", ErrScanRow, role, err)
	}

	return &a, nil
}

// GetUserByID получает активного пользователя по ID
func (r *Repository) GetUserByID(ctx context.Context, id int64) (*domain.Actor, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "role").
		From("users").
		Where(squirrel.Eq{"id": id, "active": true}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetUserByID - build select query: %v", ErrBuildQuery, err)
	}

	var a domain.Actor
	var role string
	err = executor.QueryRowContext(ctx, query, args...).Scan(&a.ID, &a.Name, &role)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetUserByID - scan user: %v", ErrScanRow, err)
	}

	a.Role, err = domain.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("%w: GetUserByID - invalid role %q: %v", ErrScanRow, role, err)
	}

	return &a, nil
}

// GetOrCreateLead находит лида по email или заводит нового.
// Вызывается внутри транзакции создания бронирования, чтобы лид
// и бронирование появлялись атомарно.
func (r *Repository) GetOrCreateLead(ctx context.Context, lead *domain.Lead) (*domain.Lead, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select("id", "name", "phone", "email", "created_at").
		From("leads").
		Where(squirrel.Eq{"email": lead.Email}).
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetOrCreateLead - build select query: %v", ErrBuildQuery, err)
	}

	var existing domain.Lead
	err = executor.QueryRowContext(ctx, query, args...).Scan(
		&existing.ID,
		&existing.Name,
		&existing.Phone,
		&existing.Email,
		&existing.CreatedAt,
	)

	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: GetOrCreateLead - scan lead: %v", ErrScanRow, err)
	}

	insertQuery, insertArgs, err := psqlbuilder.Insert("leads").
		Columns("name", "phone", "email").
		Values(lead.Name, lead.Phone, lead.Email).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: GetOrCreateLead - build insert query: %v", ErrBuildQuery, err)
	}

	if err := executor.QueryRowContext(ctx, insertQuery, insertArgs...).Scan(&lead.ID, &lead.CreatedAt); err != nil {
		return nil, fmt.Errorf("%w: GetOrCreateLead - execute insert: %v", ErrExecQuery, err)
	}

	return lead, nil
}
