package models

import (
	"time"

	"github.com/google/uuid"
)

// Category - тип инцидента
type Category string

const (
	CategoryLighting   Category = "lighting"
	CategoryDog        Category = "dog"
	CategoryHarassment Category = "harassment"
	CategoryCrime      Category = "crime"
	CategoryOther      Category = "other"
)

// IncidentStatus - статус жизненного цикла инцидента
type IncidentStatus string

const (
	StatusActive   IncidentStatus = "active"
	StatusResolved IncidentStatus = "resolved"
	StatusFake     IncidentStatus = "fake"
)

// DefaultTTL применяется к категориям, которых нет в таблице
const DefaultTTL = 24 * time.Hour

var categoryTTL = map[Category]time.Duration{
	CategoryDog:        2 * time.Hour,
	CategoryLighting:   7 * 24 * time.Hour,
	CategoryHarassment: 24 * time.Hour,
	CategoryCrime:      30 * 24 * time.Hour,
	CategoryOther:      24 * time.Hour,
}

// TTLFor возвращает время жизни инцидента для категории
func TTLFor(category Category) time.Duration {
	if ttl, ok := categoryTTL[category]; ok {
		return ttl
	}
	return DefaultTTL
}

// allowedTransitions - административные переходы статуса.
// Предикат Sweeper (status = active) должен оставаться согласованным с этой таблицей.
var allowedTransitions = map[IncidentStatus][]IncidentStatus{
	StatusActive: {StatusResolved, StatusFake},
	StatusFake:   {StatusActive},
}

// CanTransition сообщает, разрешен ли переход from -> to
func CanTransition(from, to IncidentStatus) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

type Incident struct {
	ID          uuid.UUID      `json:"id"`
	OwnerID     uuid.UUID      `json:"owner_id"`
	Category    Category       `json:"category"`
	Description string         `json:"description"`
	Latitude    float64        `json:"latitude"`
	Longitude   float64        `json:"longitude"`
	Status      IncidentStatus `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Upvotes     int            `json:"upvotes"`
	Downvotes   int            `json:"downvotes"`
}

// IncidentQuery - параметры поиска инцидентов вокруг точки
type IncidentQuery struct {
	Latitude        float64
	Longitude       float64
	RadiusMeters    float64
	OrderByDistance bool
}
