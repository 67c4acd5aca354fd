package get_availability

import "errors"

var (
	// ErrInvalidInput возвращается при некорректной дате или смещении пояса
	ErrInvalidInput = errors.New("get_availability: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("get_availability: internal error")
)
