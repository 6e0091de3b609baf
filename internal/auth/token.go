package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/service"
)

const defaultTokenTTL = 24 * time.Hour

var (
	ErrMissingSigningSecret = errors.New("auth: signing secret required")
	ErrMissingToken         = fmt.Errorf("auth: token required: %w", service.ErrUnauthorized)
	ErrInvalidToken         = fmt.Errorf("auth: invalid token: %w", service.ErrUnauthorized)
	ErrExpiredToken         = fmt.Errorf("auth: token expired: %w", service.ErrUnauthorized)
)

// Claims - полезная нагрузка bearer-токена: sub содержит UUID пользователя
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager проверяет и выпускает HS256 JWT
type TokenManager struct {
	secret []byte
	issuer string
	clock  func() time.Time
}

func NewTokenManager(secret, issuer string) (*TokenManager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSigningSecret
	}
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		clock:  time.Now,
	}, nil
}

// Resolve сопоставляет токен со стабильной личностью пользователя.
// Используется и для REST-запросов, и при установке WebSocket-соединения.
func (m *TokenManager) Resolve(tokenString string) (models.Identity, error) {
	token := strings.TrimSpace(tokenString)
	if token == "" {
		return models.Identity{}, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(
		token,
		claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithTimeFunc(m.clock),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Identity{}, ErrExpiredToken
		}
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: subject is not a uuid", ErrInvalidToken)
	}

	role := claims.Role
	if role == "" {
		role = models.RoleStudent
	}
	return models.Identity{UserID: userID, Role: role}, nil
}

// Issue выпускает токен для личности; ttl <= 0 означает значение по умолчанию
func (m *TokenManager) Issue(identity models.Identity, ttl time.Duration) (string, time.Time, error) {
	if identity.UserID == uuid.Nil {
		return "", time.Time{}, errors.New("auth: user id required")
	}
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}

	now := m.clock().UTC()
	expiresAt := now.Add(ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID.String(),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expiresAt, nil
}
