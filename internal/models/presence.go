package models

import "github.com/google/uuid"

// Location - последняя известная позиция подключения
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Presence - запись о живом подключении пользователя
type Presence struct {
	ConnectionID string
	UserID       uuid.UUID
	Location     Location
}
