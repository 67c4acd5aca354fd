package get_availability

import (
	"time"

	getAvailability "github.com/m04kA/PCS-BookingService/internal/usecase/get_availability"
)

// BusyIntervalResponse занятый интервал
type BusyIntervalResponse struct {
	StartsAt time.Time `json:"startsAt"`
	EndsAt   time.Time `json:"endsAt"`
	Status   string    `json:"status"`
}

// GetAvailabilityResponse HTTP response model
type GetAvailabilityResponse struct {
	Date      string                 `json:"date"`
	Intervals []BusyIntervalResponse `json:"intervals"`
}

// FromUseCaseResponse конвертирует модель usecase в HTTP response
func FromUseCaseResponse(resp *getAvailability.Response) *GetAvailabilityResponse {
	intervals := make([]BusyIntervalResponse, 0, len(resp.Intervals))
	for _, iv := range resp.Intervals {
		intervals = append(intervals, BusyIntervalResponse{
			StartsAt: iv.StartsAt,
			EndsAt:   iv.EndsAt,
			Status:   iv.Status,
		})
	}

	return &GetAvailabilityResponse{
		Date:      resp.Date,
		Intervals: intervals,
	}
}
