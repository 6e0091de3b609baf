package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/config"
	"github.com/shenikar/saferoute/internal/metrics"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=incident.go -destination=mocks/mock_incident_service.go -package=mocks

// IncidentService определяет контракт для бизнес-логики управления инцидентами
type IncidentService interface {
	CreateIncident(ctx context.Context, incident *models.Incident) error
	GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	QueryIncidents(ctx context.Context, query models.IncidentQuery) ([]*models.Incident, error)
	SetIncidentStatus(ctx context.Context, actor models.Identity, id uuid.UUID, status models.IncidentStatus) (*models.Incident, error)
	ValidateIncident(ctx context.Context, actor models.Identity, id uuid.UUID) (*models.Incident, error)
}

type incidentService struct {
	repo   IncidentRepository
	users  UserRepository
	logger *logrus.Logger
	cfg    *config.Config
	now    func() time.Time
}

func NewIncidentService(repo IncidentRepository, users UserRepository, logger *logrus.Logger, cfg *config.Config) IncidentService {
	return &incidentService{
		repo:   repo,
		users:  users,
		logger: logger,
		cfg:    cfg,
		now:    time.Now,
	}
}

// CreateIncident создает инцидент со статусом active и TTL по категории
func (s *incidentService) CreateIncident(ctx context.Context, incident *models.Incident) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "incident",
		"method":   "CreateIncident",
		"owner_id": incident.OwnerID,
		"category": incident.Category,
	})
	log.Info("Attempting to create a new incident")

	if err := validateCoordinates(incident.Latitude, incident.Longitude); err != nil {
		log.WithError(err).Warn("Rejected incident with invalid coordinates")
		return err
	}

	owner, err := s.users.GetByID(ctx, incident.OwnerID)
	if err != nil {
		log.WithError(err).Warn("Failed to resolve incident owner")
		return fmt.Errorf("service: could not resolve owner: %w", err)
	}
	if !owner.CanReport() {
		log.WithFields(logrus.Fields{
			"reputation": owner.Reputation,
			"blocked":    owner.Blocked,
		}).Warn("Owner is not allowed to report incidents")
		return fmt.Errorf("service: user %s cannot create incidents: %w", owner.ID, ErrForbidden)
	}

	now := s.now().UTC()
	expiresAt := now.Add(models.TTLFor(incident.Category))
	incident.Status = models.StatusActive
	incident.CreatedAt = now
	incident.ExpiresAt = &expiresAt
	incident.Upvotes = 0
	incident.Downvotes = 0

	if err := s.repo.Create(ctx, incident); err != nil {
		log.WithError(err).Error("Failed to create incident in repository")
		return fmt.Errorf("service: could not create incident: %w", err)
	}

	metrics.IncidentsCreated.WithLabelValues(string(incident.Category)).Inc()
	log.WithFields(logrus.Fields{
		"incident_id": incident.ID,
		"expires_at":  expiresAt,
	}).Info("Incident created successfully")
	return nil
}

// GetIncident получает инцидент по ID
func (s *incidentService) GetIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "GetIncident",
		"incident_id": id,
	})
	log.Debug("Fetching incident by ID")

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Failed to get incident in repository")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}
	return incident, nil
}

// QueryIncidents находит живые инциденты в радиусе от точки
func (s *incidentService) QueryIncidents(ctx context.Context, query models.IncidentQuery) ([]*models.Incident, error) {
	if query.RadiusMeters <= 0 {
		query.RadiusMeters = s.cfg.DefaultQueryRadiusMeters
	}

	log := s.logger.WithFields(logrus.Fields{
		"service": "incident",
		"method":  "QueryIncidents",
		"lat":     query.Latitude,
		"lon":     query.Longitude,
		"radius":  query.RadiusMeters,
	})
	log.Debug("Querying incidents around point")

	if err := validateCoordinates(query.Latitude, query.Longitude); err != nil {
		return nil, err
	}

	incidents, err := s.repo.FindActiveNearby(ctx, query, s.now().UTC())
	if err != nil {
		log.WithError(err).Error("Failed to find incidents by location")
		return nil, fmt.Errorf("service: could not query incidents: %w", err)
	}

	log.WithField("count", len(incidents)).Debug("Incidents queried successfully")
	return incidents, nil
}

// SetIncidentStatus - административная смена статуса
func (s *incidentService) SetIncidentStatus(ctx context.Context, actor models.Identity, id uuid.UUID, status models.IncidentStatus) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "SetIncidentStatus",
		"incident_id": id,
		"actor_id":    actor.UserID,
		"status":      status,
	})
	log.Info("Attempting to change incident status")

	if err := requireAdmin(ctx, s.users, actor); err != nil {
		log.WithError(err).Warn("Status change rejected for actor")
		return nil, err
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to change status of a non-existent incident")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}

	return s.applyStatus(ctx, log, incident, status)
}

// ValidateIncident подтверждает инцидент: fake -> active, active остается как есть
func (s *incidentService) ValidateIncident(ctx context.Context, actor models.Identity, id uuid.UUID) (*models.Incident, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "incident",
		"method":      "ValidateIncident",
		"incident_id": id,
		"actor_id":    actor.UserID,
	})
	log.Info("Attempting to validate incident")

	if err := requireAdmin(ctx, s.users, actor); err != nil {
		log.WithError(err).Warn("Validation rejected for actor")
		return nil, err
	}

	incident, err := s.repo.GetByID(ctx, id)
	if err != nil {
		log.WithError(err).Warn("Attempted to validate a non-existent incident")
		return nil, fmt.Errorf("service: could not get incident: %w", err)
	}
	if incident.Status == models.StatusActive {
		log.Debug("Incident is already active")
		return incident, nil
	}

	return s.applyStatus(ctx, log, incident, models.StatusActive)
}

// applyStatus проверяет переход и обновляет статус, только если он не сменился после чтения
func (s *incidentService) applyStatus(ctx context.Context, log *logrus.Entry, incident *models.Incident, status models.IncidentStatus) (*models.Incident, error) {
	if !models.CanTransition(incident.Status, status) {
		log.WithField("current_status", incident.Status).Warn("Rejected status transition")
		return nil, fmt.Errorf("service: %s -> %s: %w", incident.Status, status, ErrInvalidTransition)
	}

	if err := s.repo.UpdateStatus(ctx, incident.ID, incident.Status, status); err != nil {
		log.WithError(err).Error("Failed to update incident status in repository")
		return nil, fmt.Errorf("service: could not update incident status: %w", err)
	}

	log.WithField("previous_status", incident.Status).Info("Incident status updated successfully")
	incident.Status = status
	return incident, nil
}

func validateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("service: coordinates (%f, %f) out of range: %w", lat, lon, ErrInvalidInput)
	}
	return nil
}
