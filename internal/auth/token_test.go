package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "secret"
	testIssuer = "saferoute"
)

func newTestManager(t *testing.T, now time.Time) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testSecret, testIssuer)
	require.NoError(t, err)
	m.clock = func() time.Time { return now }
	return m
}

func TestTokenManager_IssueAndResolve(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)
	identity := models.Identity{UserID: uuid.New(), Role: models.RoleAdmin}

	token, expiresAt, err := m.Issue(identity, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expiresAt)

	resolved, err := m.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, identity, resolved)
}

func TestTokenManager_DefaultRole(t *testing.T) {
	now := time.Now()
	m := newTestManager(t, now)
	userID := uuid.New()

	token, _, err := m.Issue(models.Identity{UserID: userID}, 0)
	require.NoError(t, err)

	resolved, err := m.Resolve(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, resolved.Role)
}

func TestTokenManager_Rejects(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestManager(t, now)

	sign := func(claims Claims, secret string, method jwt.SigningMethod) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	valid := jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    testIssuer,
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	otherIssuer := valid
	otherIssuer.Issuer = "someone-else"
	badSubject := valid
	badSubject.Subject = "user-123"

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "  ", ErrMissingToken},
		{"garbage", "not-a-jwt", ErrInvalidToken},
		{"wrong secret", sign(Claims{RegisteredClaims: valid}, "other", jwt.SigningMethodHS256), ErrInvalidToken},
		{"wrong algorithm", sign(Claims{RegisteredClaims: valid}, testSecret, jwt.SigningMethodHS512), ErrInvalidToken},
		{"expired", sign(Claims{RegisteredClaims: expired}, testSecret, jwt.SigningMethodHS256), ErrExpiredToken},
		{"other issuer", sign(Claims{RegisteredClaims: otherIssuer}, testSecret, jwt.SigningMethodHS256), ErrInvalidToken},
		{"subject not uuid", sign(Claims{RegisteredClaims: badSubject}, testSecret, jwt.SigningMethodHS256), ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Resolve(tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, service.ErrUnauthorized)
		})
	}
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", testIssuer)
	assert.ErrorIs(t, err, ErrMissingSigningSecret)
}
