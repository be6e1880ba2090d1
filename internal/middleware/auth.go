package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/damoang/qna-revision/internal/common"
	"github.com/damoang/qna-revision/internal/domain"
	"github.com/damoang/qna-revision/pkg/jwt"
	"github.com/gin-gonic/gin"
)

const (
	ctxUserID   = "userID"
	ctxNickname = "nickname"
	ctxLevel    = "level"
	ctxActor    = "actor"
)

// TokenVerifier verifies access tokens
type TokenVerifier interface {
	VerifyToken(tokenString string) (*jwt.Claims, error)
}

// JWTAuth JWT authentication middleware. Users at or above moderatorLevel
// act as moderators.
func JWTAuth(verifier TokenVerifier, moderatorLevel int) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract Authorization header
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Missing authorization header", common.ErrUnauthorized)
			c.Abort()
			return
		}

		// 2. Parse Bearer token
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Invalid authorization header format", common.ErrUnauthorized)
			c.Abort()
			return
		}

		// 3. Verify token
		claims, err := verifier.VerifyToken(parts[1])
		if err != nil {
			if errors.Is(err, jwt.ErrExpiredToken) {
				common.ErrorResponse(c, http.StatusUnauthorized, "Token expired", common.ErrExpiredToken)
			} else {
				common.ErrorResponse(c, http.StatusUnauthorized, "Invalid token", common.ErrInvalidToken)
			}
			c.Abort()
			return
		}

		// 4. Store identity in context
		level := claims.GetUserLevel()
		c.Set(ctxUserID, claims.GetUserID())
		c.Set(ctxNickname, claims.GetUserName())
		c.Set(ctxLevel, level)
		c.Set(ctxActor, domain.Actor{
			ID:          claims.GetUserID(),
			IsModerator: moderatorLevel > 0 && level >= moderatorLevel,
		})

		c.Next()
	}
}

// GetActor returns the verified identity of the request
func GetActor(c *gin.Context) (domain.Actor, bool) {
	v, exists := c.Get(ctxActor)
	if !exists {
		return domain.Actor{}, false
	}
	actor, ok := v.(domain.Actor)
	return actor, ok
}

// GetUserID extracts user ID from context
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUserLevel extracts user level from context
func GetUserLevel(c *gin.Context) int {
	return c.GetInt(ctxLevel)
}
