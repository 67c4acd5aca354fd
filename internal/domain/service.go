package domain

import "time"

// Service запись каталога услуг дезинсекции
type Service struct {
	ID              int64
	Title           string
	Description     string
	DurationMinutes int // номинальная длительность, задает конец слота по умолчанию
	Active          bool
	SortOrder       int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Duration номинальная длительность услуги
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}
