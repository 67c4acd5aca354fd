package domain

// Role роль актора в системе
type Role string

const (
	RoleCustomer  Role = "customer"
	RoleWorker    Role = "worker"
	RoleAdmin     Role = "admin"
	RoleSuperuser Role = "superuser"
)

// IsAdmin returns true for admin and superuser
func (r Role) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperuser
}

// Actor аутентифицированный пользователь: стабильный ID + роль.
// Механика сессий (пароли, выпуск cookie) - внешний слой,
// сюда приходит уже разрешенная идентичность.
type Actor struct {
	ID   int64
	Name string
	Role Role
}

// Action мутирующая операция, требующая авторизации
type Action string

const (
	ActionCreateBooking    Action = "create_booking"
	ActionCreateForOthers  Action = "create_booking_for_others" // за клиента или лида
	ActionAcceptBooking    Action = "accept_booking"
	ActionCancelOwn        Action = "cancel_own_booking"
	ActionCancelAny        Action = "cancel_any_booking"
	ActionAssignWorker     Action = "assign_worker"
	ActionCompleteAssigned Action = "complete_assigned_booking"
	ActionViewAllBookings  Action = "view_all_bookings"
	ActionManageCatalog    Action = "manage_catalog"
)

// roleCapabilities таблица возможностей: роль -> разрешенные действия.
// Добавление роли - изменение данных, а не нового типа.
// Проверки владения (своё бронирование, текущее назначение)
// выполняются отдельно поверх этой таблицы.
var roleCapabilities = map[Role]map[Action]bool{
	RoleCustomer: {
		ActionCreateBooking: true,
		ActionCancelOwn:     true,
	},
	RoleWorker: {
		ActionCompleteAssigned: true,
	},
	RoleAdmin: {
		ActionCreateBooking:   true,
		ActionCreateForOthers: true,
		ActionAcceptBooking:   true,
		ActionCancelOwn:       true,
		ActionCancelAny:       true,
		ActionAssignWorker:    true,
		ActionViewAllBookings: true,
	},
	RoleSuperuser: {
		ActionCreateBooking:   true,
		ActionCreateForOthers: true,
		ActionAcceptBooking:   true,
		ActionCancelOwn:       true,
		ActionCancelAny:       true,
		ActionAssignWorker:    true,
		ActionViewAllBookings: true,
		ActionManageCatalog:   true,
	},
}

// Can проверяет, разрешено ли роли действие
func Can(role Role, action Action) bool {
	return roleCapabilities[role][action]
}

// ParseRole валидирует и конвертирует строку в роль
func ParseRole(s string) (Role, error) {
	role := Role(s)
	switch role {
	case RoleCustomer, RoleWorker, RoleAdmin, RoleSuperuser:
		return role, nil
	default:
		return "", ErrUnknownRole
	}
}
