package assign_booking

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/m04kA/PCS-BookingService/internal/api/handlers"
	"github.com/m04kA/PCS-BookingService/internal/api/middleware"
	"github.com/m04kA/PCS-BookingService/internal/service/bookings"
)

const (
	msgInvalidBookingID   = "некорректный ID бронирования"
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidWorkerID    = "некорректный ID техника"
	msgNotFound           = "бронирование не найдено"
	msgWorkerNotFound     = "техник не найден"
	msgNotAWorker         = "пользователь не является техником"
	msgForbidden          = "доступ запрещен"
	msgInvalidTransition  = "техник не может быть назначен из текущего статуса"
	msgUnauthenticated    = "требуется аутентификация"
)

type Handler struct {
	service BookingService
	logger  Logger
}

func NewHandler(service BookingService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Handle PATCH /api/v1/bookings/{bookingId}/assign
// Повторный вызов с другим техником переназначает бронирование
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthenticated)
		return
	}

	// Извлекаем bookingId из URL
	publicID, err := uuid.Parse(mux.Vars(r)["bookingId"])
	if err != nil {
		h.logger.Warn("PATCH /bookings/{id}/assign - Invalid booking ID: %v", err)
		handlers.RespondBadRequest(w, msgInvalidBookingID)
		return
	}

	// Декодируем body
	var req AssignBookingRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("PATCH /bookings/{id}/assign - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.WorkerID <= 0 {
		h.logger.Warn("PATCH /bookings/{id}/assign - Invalid worker ID: %d", req.WorkerID)
		handlers.RespondBadRequest(w, msgInvalidWorkerID)
		return
	}

	resp, err := h.service.Assign(r.Context(), publicID, req.WorkerID, actor)
	if err != nil {
		switch {
		case errors.Is(err, bookings.ErrBookingNotFound):
			h.logger.Warn("PATCH /bookings/{id}/assign - Booking not found: booking_id=%s", publicID)
			handlers.RespondNotFound(w, msgNotFound)

		case errors.Is(err, bookings.ErrWorkerNotFound):
			h.logger.Warn("PATCH /bookings/{id}/assign - Worker not found: worker_id=%d", req.WorkerID)
			handlers.RespondNotFound(w, msgWorkerNotFound)

		case errors.Is(err, bookings.ErrNotAWorker):
			h.logger.Warn("PATCH /bookings/{id}/assign - Not a worker: worker_id=%d", req.WorkerID)
			handlers.RespondBadRequest(w, msgNotAWorker)

		case errors.Is(err, bookings.ErrAccessDenied):
			h.logger.Warn("PATCH /bookings/{id}/assign - Access denied: booking_id=%s, actor_id=%d",
				publicID, actor.ID)
			handlers.RespondForbidden(w, msgForbidden)

		case errors.Is(err, bookings.ErrInvalidTransition):
			h.logger.Warn("PATCH /bookings/{id}/assign - Invalid transition: booking_id=%s", publicID)
			handlers.RespondUnprocessable(w, msgInvalidTransition)

		default:
			h.logger.Error("PATCH /bookings/{id}/assign - Failed to assign booking: booking_id=%s, error=%v",
				publicID, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	h.logger.Info("PATCH /bookings/{id}/assign - Booking assigned: booking_id=%s, worker_id=%d, actor_id=%d",
		publicID, req.WorkerID, actor.ID)
	handlers.RespondJSON(w, http.StatusOK, resp)
}
