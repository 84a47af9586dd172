package middleware

import (
	"net/http"
	"strings"

	"backoffice/internal/apierror"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	ClaimsKey = "claims"
	UserIDKey = "user_id"
)

// Auth accepts the session token from the auth cookie or an
// "Authorization: Bearer" header and stores the claims on the context.
func Auth(auth service.AuthService, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			raw, _ = c.Cookie(cookieName)
		}
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}

		claims, err := auth.ParseToken(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired session"))
			return
		}
		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired session"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// GetClaims returns the session claims set by Auth, or nil.
func GetClaims(c *gin.Context) *service.SessionClaims {
	claims, _ := c.Get(ClaimsKey)
	sc, _ := claims.(*service.SessionClaims)
	return sc
}

// CurrentUserID returns the authenticated user id, or uuid.Nil.
func CurrentUserID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(UserIDKey)
	uid, _ := id.(uuid.UUID)
	return uid
}
