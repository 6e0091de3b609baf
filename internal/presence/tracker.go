package presence

import (
	"iter"
	"sync"

	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/metrics"
	"github.com/shenikar/saferoute/internal/models"
)

type record struct {
	userID   uuid.UUID
	location *models.Location
}

// Tracker - реестр живых подключений и их последних координат.
// Живет столько же, сколько процесс; ничего не сохраняет.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]record
}

func NewTracker() *Tracker {
	return &Tracker{
		records: make(map[string]record),
	}
}

// Connect регистрирует подключение без известной позиции
func (t *Tracker) Connect(connectionID string, userID uuid.UUID) {
	t.mu.Lock()
	t.records[connectionID] = record{userID: userID}
	size := len(t.records)
	t.mu.Unlock()
	metrics.PresenceConnections.Set(float64(size))
}

// UpdateLocation обновляет позицию; для незарегистрированного подключения ничего не делает
func (t *Tracker) UpdateLocation(connectionID string, lat, lon float64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[connectionID]
	if !ok {
		return false
	}
	rec.location = &models.Location{Latitude: lat, Longitude: lon}
	t.records[connectionID] = rec
	return true
}

func (t *Tracker) Disconnect(connectionID string) {
	t.mu.Lock()
	delete(t.records, connectionID)
	size := len(t.records)
	t.mu.Unlock()
	metrics.PresenceConnections.Set(float64(size))
}

// ConnectionsWithLocation возвращает ленивый снимок подключений с известной позицией.
// Каждый проход по последовательности делает новый снимок; блокировка не удерживается во время yield.
func (t *Tracker) ConnectionsWithLocation(excluding string) iter.Seq[models.Presence] {
	return func(yield func(models.Presence) bool) {
		for _, p := range t.snapshot(excluding) {
			if !yield(p) {
				return
			}
		}
	}
}

func (t *Tracker) snapshot(excluding string) []models.Presence {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.Presence, 0, len(t.records))
	for connectionID, rec := range t.records {
		if connectionID == excluding || rec.location == nil {
			continue
		}
		out = append(out, models.Presence{
			ConnectionID: connectionID,
			UserID:       rec.userID,
			Location:     *rec.location,
		})
	}
	return out
}
