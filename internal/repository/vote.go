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

type VoteRepository struct {
	db *pgxpool.Pool
}

func NewVoteRepository(db *pgxpool.Pool) service.VoteRepository {
	return &VoteRepository{db: db}
}

// InTx открывает транзакцию; ошибка fn откатывает ее целиком
func (r *VoteRepository) InTx(ctx context.Context, fn func(tx service.VoteTx) error) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		return fn(&voteTx{tx: tx})
	})
}

type voteTx struct {
	tx pgx.Tx
}

// LockIncident читает инцидент под FOR UPDATE: голоса по одному инциденту выполняются по очереди
func (t *voteTx) LockIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error) {
	query := `SELECT` + incidentColumns + `
		FROM incidents
		WHERE id = $1
		FOR UPDATE;
	`
	incident, err := scanIncident(t.tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("incident with id %s: %w", id, service.ErrIncidentNotFound)
		}
		return nil, fmt.Errorf("failed to lock incident: %w", err)
	}
	return incident, nil
}

func (t *voteTx) GetVote(ctx context.Context, userID, incidentID uuid.UUID) (*models.Vote, error) {
	query := `
		SELECT id, user_id, incident_id, kind, created_at
		FROM votes
		WHERE user_id = $1 AND incident_id = $2;
	`
	vote := &models.Vote{}
	err := t.tx.QueryRow(ctx, query, userID, incidentID).Scan(
		&vote.ID,
		&vote.UserID,
		&vote.IncidentID,
		&vote.Kind,
		&vote.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get vote: %w", err)
	}
	return vote, nil
}

func (t *voteTx) InsertVote(ctx context.Context, vote *models.Vote) error {
	query := `
		INSERT INTO votes (id, user_id, incident_id, kind, created_at)
		VALUES ($1, $2, $3, $4, $5);
	`
	if _, err := t.tx.Exec(ctx, query, vote.ID, vote.UserID, vote.IncidentID, vote.Kind, vote.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert vote: %w", err)
	}
	return nil
}

func (t *voteTx) UpdateVoteKind(ctx context.Context, voteID uuid.UUID, kind models.VoteKind) error {
	cmdTag, err := t.tx.Exec(ctx, `UPDATE votes SET kind = $2 WHERE id = $1;`, voteID, kind)
	if err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("vote with id %s not found for update", voteID)
	}
	return nil
}

func (t *voteTx) DeleteVote(ctx context.Context, voteID uuid.UUID) error {
	cmdTag, err := t.tx.Exec(ctx, `DELETE FROM votes WHERE id = $1;`, voteID)
	if err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("vote with id %s not found for delete", voteID)
	}
	return nil
}

// AddIncidentVotes сдвигает счетчики относительно текущего значения строки
func (t *voteTx) AddIncidentVotes(ctx context.Context, incidentID uuid.UUID, upvotes, downvotes int) error {
	query := `
		UPDATE incidents SET
			upvotes = upvotes + $2,
			downvotes = downvotes + $3
		WHERE id = $1;
	`
	cmdTag, err := t.tx.Exec(ctx, query, incidentID, upvotes, downvotes)
	if err != nil {
		return fmt.Errorf("failed to update incident counters: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("incident with id %s: %w", incidentID, service.ErrIncidentNotFound)
	}
	return nil
}

// AddUserReputation меняет репутацию владельца; отсутствие владельца откатывает голос
func (t *voteTx) AddUserReputation(ctx context.Context, userID uuid.UUID, delta int) error {
	cmdTag, err := t.tx.Exec(ctx, `UPDATE users SET reputation = reputation + $2 WHERE id = $1;`, userID, delta)
	if err != nil {
		return fmt.Errorf("failed to update reputation: %w", err)
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("owner with id %s: %w", userID, service.ErrUserNotFound)
	}
	return nil
}
