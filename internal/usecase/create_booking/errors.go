package create_booking

import "errors"

var (
	// ErrInvalidInput возвращается при некорректных входных данных:
	// ошибка каллера, исправляется правкой запроса
	ErrInvalidInput = errors.New("create_booking: invalid input data")

	// ErrServiceNotFound возвращается, когда услуга не найдена
	ErrServiceNotFound = errors.New("create_booking: service not found")

	// ErrServiceInactive возвращается при бронировании деактивированной услуги
	ErrServiceInactive = errors.New("create_booking: service is not active")

	// ErrCustomerNotFound возвращается, когда целевой клиент не найден
	ErrCustomerNotFound = errors.New("create_booking: customer not found")

	// ErrSlotTaken возвращается при пересечении с активным бронированием.
	// Транзиентная ошибка: каллеру следует перезапросить доступность
	// и выбрать другое время.
	ErrSlotTaken = errors.New("create_booking: time slot is not available")

	// ErrForbidden возвращается, когда роль актора не допускает операцию
	ErrForbidden = errors.New("create_booking: operation is not allowed for this actor")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_booking: internal error")
)
