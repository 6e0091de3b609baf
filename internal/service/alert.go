package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/shenikar/saferoute/internal/metrics"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/webhook"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=alert.go -destination=mocks/mock_alert_service.go -package=mocks

// PresenceSource - снимок живых подключений с известной позицией
type PresenceSource interface {
	ConnectionsWithLocation(excluding string) iter.Seq[models.Presence]
}

// AlertEmitter отправляет событие alert одному подключению
type AlertEmitter interface {
	EmitAlert(connectionID string, event models.AlertEvent) error
}

// AlertService - рассылка SOS подключениям в радиусе models.AlertRadiusMeters
type AlertService interface {
	TriggerAlert(ctx context.Context, trigger models.SOSTrigger) (*models.AlertDispatch, error)
}

type alertService struct {
	repo      AlertRepository
	presence  PresenceSource
	emitter   AlertEmitter
	publisher webhook.WebhookPublisher
	logger    *logrus.Logger
	now       func() time.Time
}

func NewAlertService(repo AlertRepository, presence PresenceSource, emitter AlertEmitter, publisher webhook.WebhookPublisher, logger *logrus.Logger) AlertService {
	return &alertService{
		repo:      repo,
		presence:  presence,
		emitter:   emitter,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
}

// TriggerAlert сохраняет сигнал до любой рассылки, затем линейно проходит по снимку присутствия.
// Доставка только текущим подключениям, без повторов.
func (s *alertService) TriggerAlert(ctx context.Context, trigger models.SOSTrigger) (*models.AlertDispatch, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":       "alert",
		"method":        "TriggerAlert",
		"connection_id": trigger.ConnectionID,
		"user_id":       trigger.UserID,
	})

	if trigger.ConnectionID == "" || trigger.UserID == uuid.Nil {
		log.Warn("SOS trigger without an authenticated connection")
		return nil, fmt.Errorf("service: sos trigger: %w", ErrUnauthorized)
	}
	if trigger.Latitude == nil || trigger.Longitude == nil {
		log.Warn("SOS trigger without coordinates")
		return nil, fmt.Errorf("service: missing coordinates: %w", ErrInvalidInput)
	}
	lat, lon := *trigger.Latitude, *trigger.Longitude
	if err := validateCoordinates(lat, lon); err != nil {
		return nil, err
	}

	timestamp := s.now().UTC()
	if trigger.Timestamp != nil && !trigger.Timestamp.IsZero() {
		timestamp = trigger.Timestamp.UTC()
	}

	alert := &models.Alert{
		UserID:    trigger.UserID,
		Latitude:  lat,
		Longitude: lon,
		Timestamp: timestamp,
	}
	if err := s.repo.Create(ctx, alert); err != nil {
		log.WithError(err).Error("Failed to persist alert")
		return nil, fmt.Errorf("service: could not save alert: %w", err)
	}
	metrics.AlertsTriggered.Inc()

	event := models.AlertEvent{
		Latitude:  lat,
		Longitude: lon,
		Timestamp: timestamp,
		UserID:    trigger.UserID,
	}

	delivered := make([]string, 0)
	if trigger.Throttled {
		log.WithField("alert_id", alert.ID).Warn("SOS alert persisted without fan-out, connection is throttled")
	} else {
		delivered = s.fanOut(log, trigger.ConnectionID, event)
	}
	metrics.AlertRecipients.Observe(float64(len(delivered)))

	if err := s.publisher.Publish(ctx, webhook.WebhookEvent{
		Event:      webhook.EventAlertTriggered,
		AlertID:    alert.ID,
		UserID:     alert.UserID,
		Latitude:   alert.Latitude,
		Longitude:  alert.Longitude,
		Timestamp:  alert.Timestamp,
		Recipients: len(delivered),
	}); err != nil {
		// вебхук - побочный канал, сигнал уже сохранен
		log.WithError(err).Warn("Failed to publish alert webhook")
	}

	log.WithFields(logrus.Fields{
		"alert_id":   alert.ID,
		"lat":        lat,
		"lon":        lon,
		"recipients": len(delivered),
	}).Info("SOS alert dispatched")

	return &models.AlertDispatch{Alert: alert, Delivered: delivered}, nil
}

// fanOut отправляет событие всем подключениям с известной позицией в радиусе AlertRadiusMeters, кроме отправителя
func (s *alertService) fanOut(log *logrus.Entry, sender string, event models.AlertEvent) []string {
	center := orb.Point{event.Longitude, event.Latitude}
	delivered := make([]string, 0)
	for p := range s.presence.ConnectionsWithLocation(sender) {
		distance := geo.DistanceHaversine(center, orb.Point{p.Location.Longitude, p.Location.Latitude})
		if distance > models.AlertRadiusMeters {
			continue
		}
		if err := s.emitter.EmitAlert(p.ConnectionID, event); err != nil {
			log.WithError(err).WithField("target_connection_id", p.ConnectionID).Warn("Failed to emit alert")
			continue
		}
		delivered = append(delivered, p.ConnectionID)
	}
	return delivered
}
