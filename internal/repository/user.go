package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/service"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) service.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(ctx, `SELECT id, reputation, blocked, role FROM users WHERE id = $1;`, id).Scan(
		&user.ID,
		&user.Reputation,
		&user.Blocked,
		&user.Role,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with id %s: %w", id, service.ErrUserNotFound)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return user, nil
}

func (r *UserRepository) SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error {
	cmdTag, err := r.db.Exec(ctx, `UPDATE users SET blocked = $2 WHERE id = $1;`, id, blocked)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("user with id %s not found for update: %w", id, service.ErrUserNotFound)
	}
	return nil
}

// Register - upsert пользователя; репутация и блокировка существующего не меняются
func (r *UserRepository) Register(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, role)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role
		RETURNING reputation, blocked;
	`
	if err := r.db.QueryRow(ctx, query, user.ID, user.Role).Scan(&user.Reputation, &user.Blocked); err != nil {
		return fmt.Errorf("failed to register user: %w", err)
	}
	return nil
}
