package domain

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimeRange возвращается, когда конец интервала не позже начала
var ErrInvalidTimeRange = errors.New("domain: time range end must be after start")

// TimeRange represents a half-open interval [Start, End).
// Start входит в интервал, End - нет, поэтому стыкующиеся
// бронирования (10:00-11:00 и 11:00-12:00) не пересекаются.
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// NewTimeRange создает интервал, отклоняя вырожденные и перевернутые
func NewTimeRange(start, end time.Time) (TimeRange, error) {
	r := TimeRange{Start: start, End: end}
	if err := r.Validate(); err != nil {
		return TimeRange{}, err
	}
	return r, nil
}

// Validate проверяет, что интервал невырожденный
func (r TimeRange) Validate() error {
	if !r.End.After(r.Start) {
		return ErrInvalidTimeRange
	}
	return nil
}

// Overlaps is the single overlap predicate used everywhere:
// two half-open intervals overlap iff A.Start < B.End && A.End > B.Start.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Start.Before(other.End) && r.End.After(other.Start)
}

// Duration возвращает длительность интервала
func (r TimeRange) Duration() time.Duration {
	return r.End.Sub(r.Start)
}

// String человекочитаемое представление для логов
func (r TimeRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start.Format(time.RFC3339), r.End.Format(time.RFC3339))
}

// DayWindow возвращает суточное окно [00:00, +24h) для календарной даты
// в часовом поясе со смещением tzOffsetMinutes (минуты к востоку от UTC).
// Хранимые метки времени - абсолютные инстанты, смещение влияет только
// на то, какое UTC-окно соответствует локальным суткам.
func DayWindow(year int, month time.Month, day int, tzOffsetMinutes int) TimeRange {
	loc := time.FixedZone("local", tzOffsetMinutes*60)
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	return TimeRange{Start: start.UTC(), End: start.Add(24 * time.Hour).UTC()}
}
