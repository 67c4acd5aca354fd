package create_booking

import (
	"fmt"
	"strings"
	"time"

	"github.com/m04kA/PCS-BookingService/internal/domain"
)

// validateRequest валидирует входные данные запроса.
// Ошибки здесь - ValidationError: каллер чинит запрос и повторяет.
func validateRequest(req *Request) error {
	if req.ServiceID <= 0 {
		return fmt.Errorf("%w: serviceID must be positive", ErrInvalidInput)
	}

	if req.StartsAt.IsZero() {
		return fmt.Errorf("%w: startsAt is required", ErrInvalidInput)
	}

	if req.EndsAt != nil && !req.EndsAt.After(req.StartsAt) {
		return fmt.Errorf("%w: endsAt must be after startsAt", ErrInvalidInput)
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidInput)
	}
	if len(address) > domain.MaxAddressLength {
		return fmt.Errorf("%w: address exceeds %d characters", ErrInvalidInput, domain.MaxAddressLength)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes exceed %d characters", ErrInvalidInput, domain.MaxNotesLength)
	}

	if req.CustomerID != nil && req.Lead != nil {
		return fmt.Errorf("%w: specify either customerId or lead, not both", ErrInvalidInput)
	}

	if req.Lead != nil {
		if strings.TrimSpace(req.Lead.Name) == "" ||
			strings.TrimSpace(req.Lead.Phone) == "" ||
			strings.TrimSpace(req.Lead.Email) == "" {
			return fmt.Errorf("%w: lead requires name, phone and email", ErrInvalidInput)
		}
	}

	return nil
}

// validateStartsAt отклоняет слот, начинающийся раньше текущего времени
func validateStartsAt(startsAt, now time.Time) error {
	if startsAt.Before(now) {
		return fmt.Errorf("%w: startsAt is in the past", ErrInvalidInput)
	}
	return nil
}

// validateActorTarget проверяет, кому актор вправе создавать бронирование.
// Клиент - только себе; админ - существующему клиенту или лиду.
func validateActorTarget(req *Request) error {
	if !domain.Can(req.Actor.Role, domain.ActionCreateBooking) {
		return ErrForbidden
	}

	bookingForOthers := req.CustomerID != nil || req.Lead != nil

	if bookingForOthers && !domain.Can(req.Actor.Role, domain.ActionCreateForOthers) {
		return ErrForbidden
	}

	if !bookingForOthers && req.Actor.Role.IsAdmin() {
		return fmt.Errorf("%w: admin must specify a target customer or lead", ErrInvalidInput)
	}

	return nil
}
