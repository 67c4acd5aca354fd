package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/m04kA/PCS-BookingService/internal/api/handlers"
	"github.com/m04kA/PCS-BookingService/internal/domain"
	actorStorage "github.com/m04kA/PCS-BookingService/internal/infra/storage/actor"
)

const msgUnauthenticated = "требуется аутентификация"

type actorCtxKey struct{}

// ActorResolver резолвит сессионный токен в актора
type ActorResolver interface {
	GetActorBySession(ctx context.Context, token string) (*domain.Actor, error)
}

// Logger интерфейс для логирования
type Logger interface {
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Auth middleware аутентификации: извлекает сессионный токен из
// cookie или заголовка Authorization и кладет актора в контекст.
// Запрос без валидной сессии не доходит до хендлера.
type Auth struct {
	resolver   ActorResolver
	cookieName string
	logger     Logger
}

// NewAuth создает middleware аутентификации
func NewAuth(resolver ActorResolver, cookieName string, logger Logger) *Auth {
	return &Auth{
		resolver:   resolver,
		cookieName: cookieName,
		logger:     logger,
	}
}

// Middleware оборачивает handler проверкой сессии
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.extractToken(r)
		if token == "" {
			handlers.RespondUnauthorized(w, msgUnauthenticated)
			return
		}

		actor, err := a.resolver.GetActorBySession(r.Context(), token)
		if err != nil {
			if errors.Is(err, actorStorage.ErrSessionNotFound) {
				a.logger.Warn("Auth: session not found or expired: %s %s", r.Method, r.URL.Path)
				handlers.RespondUnauthorized(w, msgUnauthenticated)
				return
			}
			a.logger.Error("Auth: failed to resolve session: %v", err)
			handlers.RespondInternalError(w)
			return
		}

		ctx := context.WithValue(r.Context(), actorCtxKey{}, *actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Optional оборачивает handler необязательной проверкой сессии:
// валидная сессия кладет актора в контекст, отсутствие или
// просроченность сессии пропускает запрос анонимом
func (a *Auth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := a.extractToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		actor, err := a.resolver.GetActorBySession(r.Context(), token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), actorCtxKey{}, *actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// extractToken ищет токен в cookie, затем в Authorization: Bearer
func (a *Auth) extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(a.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}

	return ""
}

// ActorFromContext возвращает актора, положенного Auth middleware
func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorCtxKey{}).(domain.Actor)
	return actor, ok
}
