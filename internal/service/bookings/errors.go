package bookings

import "errors"

var (
	// ErrBookingNotFound возвращается, когда бронирование не найдено
	ErrBookingNotFound = errors.New("bookings: booking not found")

	// ErrAccessDenied возвращается, когда роль или владение не дают доступа
	ErrAccessDenied = errors.New("bookings: access denied")

	// ErrInvalidTransition возвращается при переходе из недопустимого статуса:
	// представление каллера о бронировании устарело
	ErrInvalidTransition = errors.New("bookings: transition is not allowed from current status")

	// ErrNotAWorker возвращается при назначении пользователя без роли техника
	ErrNotAWorker = errors.New("bookings: target user is not a worker")

	// ErrWorkerNotFound возвращается, когда целевой техник не найден
	ErrWorkerNotFound = errors.New("bookings: worker not found")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("bookings: invalid input data")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("bookings: internal error")
)
