package domain

// BookeeKind вид заказчика бронирования
type BookeeKind string

const (
	// BookeeCustomer зарегистрированный клиент с учетной записью
	BookeeCustomer BookeeKind = "customer"
	// BookeeLead контакт без регистрации, заведенный админом
	BookeeLead BookeeKind = "lead"
)

// Bookee is a tagged union: the booked party is a registered customer
// XOR an unregistered lead, never both, never neither.
type Bookee struct {
	Kind       BookeeKind
	CustomerID *int64
	LeadID     *int64
}

// RegisteredBookee создает заказчика-клиента
func RegisteredBookee(customerID int64) Bookee {
	return Bookee{Kind: BookeeCustomer, CustomerID: &customerID}
}

// LeadBookee создает заказчика-лида
func LeadBookee(leadID int64) Bookee {
	return Bookee{Kind: BookeeLead, LeadID: &leadID}
}

// Validate проверяет инвариант "ровно один вид заказчика"
func (b Bookee) Validate() error {
	switch b.Kind {
	case BookeeCustomer:
		if b.CustomerID == nil || b.LeadID != nil {
			return ErrInvalidBookee
		}
	case BookeeLead:
		if b.LeadID == nil || b.CustomerID != nil {
			return ErrInvalidBookee
		}
	default:
		return ErrInvalidBookee
	}
	return nil
}
