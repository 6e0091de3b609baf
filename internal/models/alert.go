package models

import (
	"time"

	"github.com/google/uuid"
)

// AlertRadiusMeters - фиксированный радиус рассылки SOS
const AlertRadiusMeters = 500.0

// Alert - сохраненный SOS-сигнал, только добавление
type Alert struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// AlertEvent - исходящее событие alert для подключенных клиентов
type AlertEvent struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Timestamp time.Time `json:"timestamp"`
	UserID    uuid.UUID `json:"user_id"`
}

// SOSTrigger - входящий trigger_sos; координаты nil, если клиент их не прислал.
// Throttled - сработал ограничитель соединения: сигнал сохраняется, но не рассылается
type SOSTrigger struct {
	ConnectionID string
	UserID       uuid.UUID
	Latitude     *float64
	Longitude    *float64
	Timestamp    *time.Time
	Throttled    bool
}

// AlertDispatch - сохраненный сигнал и подключения, которым он был отправлен
type AlertDispatch struct {
	Alert     *Alert
	Delivered []string
}
