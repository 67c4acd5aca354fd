package domain

import "time"

// Lead контакт без учетной записи. Заводится админом при бронировании
// от имени незарегистрированного клиента, позже может быть
// промоутирован в полноценного клиента.
type Lead struct {
	ID        int64
	Name      string
	Phone     string
	Email     string
	CreatedAt time.Time
}
