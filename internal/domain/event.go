package domain

import "time"

// EventType тип события журнала бронирования
type EventType string

const (
	EventCreated   EventType = "created"
	EventAccepted  EventType = "accepted"
	EventAssigned  EventType = "assigned"
	EventCompleted EventType = "completed"
	EventCancelled EventType = "cancelled"
)

// BookingEvent запись append-only журнала переходов.
// Переназначения техника видны здесь, даже если текущее назначение
// перезаписано (booking_assignments держит только актуальную строку).
type BookingEvent struct {
	ID        int64
	BookingID int64
	Type      EventType
	ActorID   *int64 // nil для системных событий
	Metadata  map[string]string
	CreatedAt time.Time
}

// Assignment текущее назначение техника на бронирование.
// Не более одного на бронирование, upsert по booking_id.
type Assignment struct {
	BookingID  int64
	WorkerID   int64
	AssignedAt time.Time
	UpdatedAt  time.Time
}
