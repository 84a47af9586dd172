package middleware

import (
	"net/http"

	"backoffice/internal/apierror"
	"backoffice/internal/metrics"
	"backoffice/internal/permission"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const PrincipalKey = "principal"

// RequirePermission loads the caller's principal and rejects the request
// unless it is granted (module, action). Must run after Auth.
func RequirePermission(perms service.PermissionService, module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := CurrentUserID(c)
		p, err := perms.Principal(c.Request.Context(), userID)
		if err != nil {
			log.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("principal lookup failed")
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		if !permission.HasPermission(p, module, action) {
			metrics.PermissionDenied.WithLabelValues(module, action).Inc()
			log.Warn().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("user_id", userID.String()).
				Str("module", module).
				Str("action", action).
				Msg("permission denied")
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Set(PrincipalKey, p)
		c.Next()
	}
}

// CurrentPrincipal returns the principal loaded by RequirePermission.
func CurrentPrincipal(c *gin.Context) permission.Principal {
	v, _ := c.Get(PrincipalKey)
	p, _ := v.(permission.Principal)
	return p
}
