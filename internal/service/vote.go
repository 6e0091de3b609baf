package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/metrics"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=vote.go -destination=mocks/mock_vote_service.go -package=mocks

// VoteService - учет голосов и репутации владельцев инцидентов
type VoteService interface {
	SubmitVote(ctx context.Context, voterID, incidentID uuid.UUID, kind models.VoteKind) (*models.VoteResult, error)
}

type voteService struct {
	repo   VoteRepository
	logger *logrus.Logger
	now    func() time.Time
}

func NewVoteService(repo VoteRepository, logger *logrus.Logger) VoteService {
	return &voteService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// SubmitVote применяет голос в одной транзакции: строка инцидента блокируется,
// поэтому конкурентные голоса по одному инциденту видят уже примененное состояние.
// Если владелец инцидента не найден, транзакция откатывается целиком.
func (s *voteService) SubmitVote(ctx context.Context, voterID, incidentID uuid.UUID, kind models.VoteKind) (*models.VoteResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":     "vote",
		"method":      "SubmitVote",
		"voter_id":    voterID,
		"incident_id": incidentID,
		"kind":        kind,
	})

	if kind != models.VoteUp && kind != models.VoteDown {
		return nil, fmt.Errorf("service: unknown vote kind %q: %w", kind, ErrInvalidInput)
	}

	var (
		result     *models.VoteResult
		transition models.VoteTransition
	)
	err := s.repo.InTx(ctx, func(tx VoteTx) error {
		incident, err := tx.LockIncident(ctx, incidentID)
		if err != nil {
			return err
		}

		existing, err := tx.GetVote(ctx, voterID, incidentID)
		if err != nil {
			return err
		}

		transition = models.NextVote(existing.State(), kind)

		if err := tx.AddIncidentVotes(ctx, incidentID, transition.UpvotesDelta, transition.DownvotesDelta); err != nil {
			return err
		}
		if err := tx.AddUserReputation(ctx, incident.OwnerID, transition.ReputationDelta); err != nil {
			return err
		}

		switch {
		case existing == nil:
			err = tx.InsertVote(ctx, &models.Vote{
				ID:         uuid.New(),
				UserID:     voterID,
				IncidentID: incidentID,
				Kind:       kind,
				CreatedAt:  s.now().UTC(),
			})
		case transition.Retracted():
			err = tx.DeleteVote(ctx, existing.ID)
		default:
			err = tx.UpdateVoteKind(ctx, existing.ID, kind)
		}
		if err != nil {
			return err
		}

		result = &models.VoteResult{
			IncidentID: incidentID,
			State:      transition.To,
			Upvotes:    incident.Upvotes + transition.UpvotesDelta,
			Downvotes:  incident.Downvotes + transition.DownvotesDelta,
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Vote was not applied")
		return nil, fmt.Errorf("service: could not submit vote: %w", err)
	}

	metrics.VotesTotal.WithLabelValues(string(transition.From) + "->" + string(transition.To)).Inc()
	log.WithFields(logrus.Fields{
		"from":             transition.From,
		"to":               transition.To,
		"reputation_delta": transition.ReputationDelta,
	}).Info("Vote applied")
	return result, nil
}
