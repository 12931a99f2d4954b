package middleware

import (
	"net/http"
	"strings"

	"github.com/docflow/review-service/models"
	"github.com/docflow/review-service/repository"
	"github.com/docflow/review-service/utils"
	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

type Authenticator struct {
	users repository.UserRepository
}

func NewAuthenticator(users repository.UserRepository) *Authenticator {
	return &Authenticator{users: users}
}

// JWTAuth extracts the bearer token, resolves the user, and attaches an
// Actor (user + capability set) to the request context. Capabilities are
// derived here, once, so handlers and services never look up roles again.
func (a *Authenticator) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			unauthorized(c, "missing Authorization header")
			return
		}
		token := header
		if after, ok := strings.CutPrefix(header, "Bearer "); ok {
			token = after
		}
		if token == "" {
			unauthorized(c, "empty bearer token")
			return
		}
		userID, err := utils.ParseToken(token)
		if err != nil {
			unauthorized(c, "invalid token")
			return
		}
		user, err := a.users.GetByID(userID)
		if err != nil || !user.Active {
			unauthorized(c, "unknown or inactive user")
			return
		}
		c.Set(actorKey, models.NewActor(user))
		c.Next()
	}
}

func CurrentActor(c *gin.Context) (*models.Actor, bool) {
	v, exists := c.Get(actorKey)
	if !exists {
		return nil, false
	}
	actor, ok := v.(*models.Actor)
	return actor, ok
}

// SetActor is for tests that bypass the JWT round trip.
func SetActor(c *gin.Context, actor *models.Actor) {
	c.Set(actorKey, actor)
}

func unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, gin.H{"error": msg})
	c.Abort()
}
