package v1

import (
	"time"

	"github.com/google/uuid"
)

// CreateIncidentRequest DTO для создания инцидента
// @Description DTO для создания инцидента
type CreateIncidentRequest struct {
	Category    string   `json:"category" validate:"required,oneof=lighting dog harassment crime other"`
	Description string   `json:"description,omitempty" validate:"max=2000"`
	Latitude    *float64 `json:"latitude" validate:"required,latitude"`
	Longitude   *float64 `json:"longitude" validate:"required,longitude"`
}

// QueryIncidentsRequest - параметры поиска инцидентов рядом с точкой
type QueryIncidentsRequest struct {
	Latitude  *float64 `form:"lat" validate:"required,latitude"`
	Longitude *float64 `form:"lon" validate:"required,longitude"`
	Radius    float64  `form:"radius" validate:"omitempty,gt=0,lte=50000"`
	Order     string   `form:"order" validate:"omitempty,oneof=distance recent"`
}

// IncidentResponse DTO для ответа с информацией об инциденте
// @Description DTO для ответа с информацией об инциденте
type IncidentResponse struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"owner_id"`
	Category    string     `json:"category"`
	Description string     `json:"description,omitempty"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	Upvotes     int        `json:"upvotes"`
	Downvotes   int        `json:"downvotes"`
}

// VoteRequest DTO голоса за инцидент
// @Description Повторный голос того же типа снимает голос
type VoteRequest struct {
	Kind string `json:"kind" validate:"required,oneof=upvote downvote"`
}

// VoteResponse DTO результата голосования
type VoteResponse struct {
	IncidentID uuid.UUID `json:"incident_id"`
	State      string    `json:"state"`
	Upvotes    int       `json:"upvotes"`
	Downvotes  int       `json:"downvotes"`
}

// UpdateStatusRequest DTO административной смены статуса
type UpdateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=active resolved fake"`
}

// BlockUserRequest DTO блокировки пользователя
type BlockUserRequest struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

// UserResponse DTO проекции пользователя
type UserResponse struct {
	ID         uuid.UUID `json:"id"`
	Role       string    `json:"role"`
	Reputation int       `json:"reputation"`
	Blocked    bool      `json:"blocked"`
}
