package domain

import "errors"

// Доменные ошибки
var (
	// ErrUnknownStatus возвращается при парсинге неизвестного статуса
	ErrUnknownStatus = errors.New("domain: unknown booking status")

	// ErrUnknownRole возвращается при парсинге неизвестной роли
	ErrUnknownRole = errors.New("domain: unknown role")

	// ErrInvalidBookee возвращается при нарушении инварианта customer XOR lead
	ErrInvalidBookee = errors.New("domain: booking must reference exactly one of customer or lead")
)

// Бизнес-ограничения валидации
const (
	MaxAddressLength = 300
	MaxNotesLength   = 500
	MaxTitleLength   = 150

	MinServiceDurationMinutes = 15
	MaxServiceDurationMinutes = 480 // 8 часов

	// Смещение часового пояса в минутах, диапазон реальных зон UTC-12..UTC+14
	MinTZOffsetMinutes = -720
	MaxTZOffsetMinutes = 840
)

// Формат календарной даты во внешнем контракте
const DateFormat = "2006-01-02"

// ActiveStatuses статусы, удерживающие временной слот.
// Используется в выборках доступности и в partial-предикате
// exclusion constraint (см. migrations/0001_init.up.sql).
var ActiveStatuses = []BookingStatus{
	StatusPending,
	StatusAccepted,
	StatusAssigned,
}

// ActiveStatusStrings строковое представление для SQL запросов
func ActiveStatusStrings() []string {
	out := make([]string, len(ActiveStatuses))
	for i, s := range ActiveStatuses {
		out[i] = string(s)
	}
	return out
}
