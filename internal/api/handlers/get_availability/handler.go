package get_availability

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/PCS-BookingService/internal/api/handlers"
	getAvailability "github.com/m04kA/PCS-BookingService/internal/usecase/get_availability"
)

const (
	msgMissingDate     = "параметр date обязателен"
	msgInvalidTZOffset = "некорректное смещение часового пояса"
	msgInvalidInput    = "некорректные параметры запроса"
)

type Handler struct {
	useCase GetAvailabilityUseCase
	logger  Logger
}

func NewHandler(useCase GetAvailabilityUseCase, logger Logger) *Handler {
	return &Handler{
		useCase: useCase,
		logger:  logger,
	}
}

// Handle GET /api/v1/availability?date=YYYY-MM-DD&tzOffset=180
// Публичный эндпоинт: занятые интервалы отдаются без аутентификации
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	date := query.Get("date")
	if date == "" {
		h.logger.Warn("GET /availability - Missing date parameter")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	// Смещение по умолчанию - UTC
	tzOffset := 0
	if raw := query.Get("tzOffset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.logger.Warn("GET /availability - Invalid tzOffset: %v", err)
			handlers.RespondBadRequest(w, msgInvalidTZOffset)
			return
		}
		tzOffset = parsed
	}

	resp, err := h.useCase.Execute(r.Context(), &getAvailability.Request{
		Date:            date,
		TZOffsetMinutes: tzOffset,
	})
	if err != nil {
		switch {
		case errors.Is(err, getAvailability.ErrInvalidInput):
			h.logger.Warn("GET /availability - Invalid input: date=%s, tzOffset=%d, error=%v", date, tzOffset, err)
			handlers.RespondBadRequest(w, msgInvalidInput)

		default:
			h.logger.Error("GET /availability - Failed to get availability: date=%s, error=%v", date, err)
			handlers.RespondInternalError(w)
		}
		return
	}

	handlers.RespondJSON(w, http.StatusOK, FromUseCaseResponse(resp))
}
