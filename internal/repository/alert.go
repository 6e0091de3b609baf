package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/service"
)

type AlertRepository struct {
	db *pgxpool.Pool
}

func NewAlertRepository(db *pgxpool.Pool) service.AlertRepository {
	return &AlertRepository{db: db}
}

// Create сохраняет SOS-сигнал; записи только добавляются
func (r *AlertRepository) Create(ctx context.Context, alert *models.Alert) error {
	query := `
		INSERT INTO alerts (user_id, location, triggered_at)
		VALUES ($1, ST_SetSRID(ST_MakePoint($2, $3), 4326), $4)
		RETURNING id;
	`
	err := r.db.QueryRow(ctx, query,
		alert.UserID,
		alert.Longitude,
		alert.Latitude,
		alert.Timestamp,
	).Scan(&alert.ID)
	if err != nil {
		return fmt.Errorf("failed to save alert: %w", err)
	}
	return nil
}
