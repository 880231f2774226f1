package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "focustimer/backend/internal/errors"
	"focustimer/backend/internal/identity"
)

const (
	UserIDContextKey    = "userID"
	AnonymousContextKey = "isAnonymous"
)

func Auth(identityService *identity.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, apperrors.Unauthorized("missing authorization header"))
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortWithError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			abortWithError(c, apperrors.Unauthorized("invalid authorization format"))
			return
		}

		userID, isAnonymous, apiErr := identityService.ParseToken(token)
		if apiErr != nil {
			abortWithError(c, apiErr)
			return
		}

		c.Set(UserIDContextKey, userID)
		c.Set(AnonymousContextKey, isAnonymous)
		c.Next()
	}
}

// RequireRegistered gates ledger reads and writes: anonymous identities
// get the registration-required signal rather than data or an error.
func RequireRegistered() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsAnonymous(c) {
			abortWithError(c, apperrors.RegistrationRequired())
			return
		}
		c.Next()
	}
}

func UserID(c *gin.Context) string {
	value, ok := c.Get(UserIDContextKey)
	if !ok {
		return ""
	}
	userID, ok := value.(string)
	if !ok {
		return ""
	}
	return userID
}

func IsAnonymous(c *gin.Context) bool {
	value, ok := c.Get(AnonymousContextKey)
	if !ok {
		return true
	}
	isAnonymous, ok := value.(bool)
	if !ok {
		return true
	}
	return isAnonymous
}

func abortWithError(c *gin.Context, apiErr *apperrors.APIError) {
	c.AbortWithStatusJSON(apiErr.Status, gin.H{
		"error": gin.H{
			"code":    apiErr.Code,
			"message": apiErr.Message,
			"details": apiErr.Details,
		},
	})
}
