package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/sirupsen/logrus"
)

//go:generate mockgen -source=user.go -destination=mocks/mock_user_service.go -package=mocks

// UserService - репутация и блокировка пользователей
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	SetBlocked(ctx context.Context, actor models.Identity, id uuid.UUID, blocked bool) error
}

type userService struct {
	repo   UserRepository
	logger *logrus.Logger
}

func NewUserService(repo UserRepository, logger *logrus.Logger) UserService {
	return &userService{
		repo:   repo,
		logger: logger,
	}
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", id).Warn("Failed to get user")
		return nil, fmt.Errorf("service: could not get user: %w", err)
	}
	return user, nil
}

// SetBlocked блокирует или разблокирует пользователя; себя заблокировать нельзя
func (s *userService) SetBlocked(ctx context.Context, actor models.Identity, id uuid.UUID, blocked bool) error {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "user",
		"method":   "SetBlocked",
		"actor_id": actor.UserID,
		"user_id":  id,
		"blocked":  blocked,
	})

	if actor.UserID == id {
		return fmt.Errorf("service: cannot block yourself: %w", ErrInvalidInput)
	}
	if err := requireAdmin(ctx, s.repo, actor); err != nil {
		log.WithError(err).Warn("Block flag change rejected for actor")
		return err
	}

	if err := s.repo.SetBlocked(ctx, id, blocked); err != nil {
		log.WithError(err).Error("Failed to update block flag")
		return fmt.Errorf("service: could not update user: %w", err)
	}

	log.Info("User block flag updated")
	return nil
}

// requireAdmin сверяет роль с сохраненной проекцией пользователя; claim role в токене не учитывается
func requireAdmin(ctx context.Context, users UserRepository, actor models.Identity) error {
	user, err := users.GetByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return fmt.Errorf("service: actor %s is not registered: %w", actor.UserID, ErrForbidden)
		}
		return fmt.Errorf("service: could not resolve actor: %w", err)
	}
	if !user.IsAdmin() {
		return fmt.Errorf("service: actor %s is not an admin: %w", actor.UserID, ErrForbidden)
	}
	return nil
}
