package v1

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/sirupsen/logrus"
)

const identityKey = "identity"

// IdentityResolver сопоставляет bearer-токен с личностью пользователя
type IdentityResolver interface {
	Resolve(token string) (models.Identity, error)
}

// BearerToken достает токен из Authorization: Bearer или из параметра token
func BearerToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// BearerAuthMiddleware - middleware для аутентификации по JWT
func BearerAuthMiddleware(resolver IdentityResolver, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c.Request)
		if token == "" {
			log.Warn("Bearer token missing from request")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "bearer token required"})
			return
		}

		identity, err := resolver.Resolve(token)
		if err != nil {
			log.WithError(err).Warn("Invalid bearer token provided")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// identityFrom возвращает личность, установленную BearerAuthMiddleware
func identityFrom(c *gin.Context) models.Identity {
	identity, _ := c.MustGet(identityKey).(models.Identity)
	return identity
}
