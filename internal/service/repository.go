package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/models"
)

//go:generate mockgen -source=repository.go -destination=mocks/mock_repository.go -package=mocks -exclude_interfaces=VoteRepository,VoteTx

// IncidentRepository определяет контракт для работы с бд инцидентов
type IncidentRepository interface {
	Create(ctx context.Context, incident *models.Incident) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	FindActiveNearby(ctx context.Context, query models.IncidentQuery, now time.Time) ([]*models.Incident, error)
	// UpdateStatus меняет статус только если текущий равен from
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to models.IncidentStatus) error
	// ExpireActive переводит в resolved все активные инциденты с истекшим expires_at
	ExpireActive(ctx context.Context, now time.Time) (int64, error)
}

// UserRepository - чтение и изменение проекции пользователя
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetBlocked(ctx context.Context, id uuid.UUID, blocked bool) error
	// Register создает пользователя или обновляет роль существующего
	Register(ctx context.Context, user *models.User) error
}

// AlertRepository - журнал SOS-сигналов
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
}

// VoteRepository выполняет fn в одной транзакции
type VoteRepository interface {
	InTx(ctx context.Context, fn func(tx VoteTx) error) error
}

// VoteTx - операции, доступные внутри транзакции голосования
type VoteTx interface {
	// LockIncident читает инцидент с блокировкой строки до конца транзакции
	LockIncident(ctx context.Context, id uuid.UUID) (*models.Incident, error)
	// GetVote возвращает nil, nil если голоса нет
	GetVote(ctx context.Context, userID, incidentID uuid.UUID) (*models.Vote, error)
	InsertVote(ctx context.Context, vote *models.Vote) error
	UpdateVoteKind(ctx context.Context, voteID uuid.UUID, kind models.VoteKind) error
	DeleteVote(ctx context.Context, voteID uuid.UUID) error
	AddIncidentVotes(ctx context.Context, incidentID uuid.UUID, upvotes, downvotes int) error
	AddUserReputation(ctx context.Context, userID uuid.UUID, delta int) error
}
