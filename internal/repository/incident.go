package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/service"
)

const incidentColumns = `
	id,
	owner_id,
	category,
	description,
	ST_Y(location::geometry) AS latitude,
	ST_X(location::geometry) AS longitude,
	status,
	created_at,
	expires_at,
	upvotes,
	downvotes`

type IncidentRepository struct {
	db *pgxpool.Pool
}

func NewIncidentRepository(db *pgxpool.Pool) service.IncidentRepository {
	return &IncidentRepository{db: db}
}

// rowScanner - общий интерфейс pgx.Row и pgx.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanIncident(row rowScanner) (*models.Incident, error) {
	incident := &models.Incident{}
	err := row.Scan(
		&incident.ID,
		&incident.OwnerID,
		&incident.Category,
		&incident.Description,
		&incident.Latitude,
		&incident.Longitude,
		&incident.Status,
		&incident.CreatedAt,
		&incident.ExpiresAt,
		&incident.Upvotes,
		&incident.Downvotes,
	)
	if err != nil {
		return nil, err
	}
	return incident, nil
}

// Create создает новую запись об инциденте в бд
func (r *IncidentRepository) Create(ctx context.Context, incident *models.Incident) error {
	query := `
		INSERT INTO incidents (owner_id, category, description, location, status, created_at, expires_at, upvotes, downvotes)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326), $6, $7, $8, 0, 0)
		RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		incident.OwnerID,
		incident.Category,
		incident.Description,
		incident.Longitude,
		incident.Latitude,
		incident.Status,
		incident.CreatedAt,
		incident.ExpiresAt,
	).Scan(&incident.ID)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// GetByID возвращает инцидент по его UUID
func (r *IncidentRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT` + incidentColumns + `
		FROM incidents
		WHERE id = $1;
	`
	incident, err := scanIncident(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, service.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to get incident by id: %w", err)
	}
	return incident, nil
}

// FindActiveNearby находит активные неистекшие инциденты в радиусе от точки
func (r *IncidentRepository) FindActiveNearby(ctx context.Context, q models.IncidentQuery, now time.Time) ([]*models.Incident, error) {
	query := `SELECT` + incidentColumns + `
		FROM incidents
		WHERE
			status = 'active'
			AND (expires_at IS NULL OR expires_at > $4)
			AND ST_DWithin(
				location::geography,
				ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography,
				$3
			)
	`
	if q.OrderByDistance {
		query += `ORDER BY ST_Distance(location::geography, ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography), created_at DESC;`
	} else {
		query += `ORDER BY created_at DESC;`
	}

	rows, err := r.db.Query(ctx, query, q.Longitude, q.Latitude, q.RadiusMeters, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find active incidents nearby: %w", err)
	}
	defer rows.Close()

	incidents := make([]*models.Incident, 0)
	for rows.Next() {
		incident, err := scanIncident(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan incident row in FindActiveNearby: %w", err)
		}
		incidents = append(incidents, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error list iteration in FindActiveNearby: %w", err)
	}
	return incidents, nil
}

// UpdateStatus - условный переход: строка меняется, только если текущий статус равен from
func (r *IncidentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.IncidentStatus) error {
	query := `
		UPDATE incidents SET status = $3
		WHERE id = $1 AND status = $2;
	`
	cmdTag, err := r.db.Exec(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update incident status: %w", err)
	}
	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	// Ни одна строка не изменилась: инцидента нет или статус уже другой
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM incidents WHERE id = $1);`, id).Scan(&exists); err != nil {
		return fmt.Errorf("failed to check incident existence: %w", err)
	}
	if !exists {
		return fmt.Errorf("incident with id %s not found for update: %w", id, service.ErrIncidentNotFound)
	}
	return fmt.Errorf("incident %s is no longer %s: %w", id, from, service.ErrInvalidTransition)
}

// ExpireActive переводит в resolved активные инциденты с истекшим expires_at.
// Один UPDATE: повторный запуск после отмены ничего не портит.
func (r *IncidentRepository) ExpireActive(ctx context.Context, now time.Time) (int64, error) {
	query := `
		UPDATE incidents SET status = 'resolved'
		WHERE status = 'active'
			AND expires_at IS NOT NULL
			AND expires_at < $1;
	`
	cmdTag, err := r.db.Exec(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire incidents: %w", err)
	}
	return cmdTag.RowsAffected(), nil
}
