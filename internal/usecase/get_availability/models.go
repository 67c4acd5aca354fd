package get_availability

import "time"

// Request модель запроса занятых интервалов на календарную дату
type Request struct {
	Date            string // "2006-01-02", локальная дата каллера
	TZOffsetMinutes int    // смещение пояса в минутах к востоку от UTC
}

// BusyInterval занятый интервал для блокировки слотов в UI.
// Идентичность заказчика намеренно не отдается: выдача потребляется
// до аутентификации.
type BusyInterval struct {
	StartsAt time.Time
	EndsAt   time.Time
	Status   string
}

// Response модель ответа со списком занятых интервалов
type Response struct {
	Date      string
	Intervals []BusyInterval
}
