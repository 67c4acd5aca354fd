package list_bookings

import (
	"net/url"
	"strconv"
	"time"

	"github.com/m04kA/PCS-BookingService/internal/service/bookings/models"
)

// parseQuery собирает административный фильтр из query-параметров:
// from/to в RFC3339, status, includeTerminal
func parseQuery(query url.Values) (*models.ListBookingsRequest, error) {
	req := &models.ListBookingsRequest{}

	if raw := query.Get("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		req.From = &from
	}

	if raw := query.Get("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, err
		}
		req.To = &to
	}

	if raw := query.Get("status"); raw != "" {
		req.Status = &raw
	}

	if raw := query.Get("includeTerminal"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, err
		}
		req.IncludeTerminal = include
	}

	return req, nil
}
