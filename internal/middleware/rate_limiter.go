package middleware

import (
	"fmt"
	"net/http"

	"backoffice/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// LoginRate bounds login attempts per client IP.
const LoginRate = "20-M"

// RateLimiter limits requests per client IP using an in-memory store.
// rate uses the limiter format, e.g. "1000-M" or "20-S".
func RateLimiter(rate string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("rate limiter %q: %w", rate, err)
	}
	instance := limiter.New(memory.NewStore(), r)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			log.Warn().
				Str("request_id", c.GetString(RequestIDKey)).
				Str("ip", c.ClientIP()).
				Str("path", c.Request.URL.Path).
				Msg("rate limit reached")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("too many requests, try again shortly"))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// fail open: a broken limiter store must not take the API down
			log.Error().Err(err).Msg("rate limiter store error")
			c.Next()
		}),
	), nil
}
