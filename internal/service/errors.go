package service

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound - сущность, на которую ссылается запрос, не существует
	ErrNotFound         = errors.New("not found")
	ErrIncidentNotFound = fmt.Errorf("incident %w", ErrNotFound)
	ErrUserNotFound     = fmt.Errorf("user %w", ErrNotFound)

	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnauthorized      = errors.New("unauthorized")
)
