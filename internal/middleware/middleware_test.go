package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"backoffice/internal/dto"
	"backoffice/internal/permission"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

type fakeAuth struct{ claims *service.SessionClaims }

func (f fakeAuth) Login(context.Context, dto.LoginRequest) (*dto.LoginResponse, error) {
	return nil, errors.New("unused")
}

func (f fakeAuth) ParseToken(raw string) (*service.SessionClaims, error) {
	if raw != "good-token" {
		return nil, errors.New("bad token")
	}
	return f.claims, nil
}

func (f fakeAuth) Me(context.Context, uuid.UUID) (*dto.UserResponse, error) {
	return nil, errors.New("unused")
}

type fakePerms struct {
	principal permission.Principal
	err       error
}

func (f fakePerms) Principal(context.Context, uuid.UUID) (permission.Principal, error) {
	return f.principal, f.err
}

func (f fakePerms) HasPermission(_ context.Context, _ uuid.UUID, module, action string) bool {
	return permission.HasPermission(f.principal, module, action)
}

func (f fakePerms) Invalidate(context.Context, uuid.UUID) {}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, w.Body.String())
	assert.Equal(t, w.Body.String(), w.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", serve(r, req).Body.String())
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	auth := fakeAuth{claims: &service.SessionClaims{UserID: userID.String(), Username: "clerk"}}

	r := gin.New()
	r.GET("/", Auth(auth, "sess"), func(c *gin.Context) {
		assert.Equal(t, "clerk", GetClaims(c).Username)
		c.String(http.StatusOK, CurrentUserID(c).String())
	})

	assert.Equal(t, http.StatusUnauthorized, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "sess", Value: "good-token"})
	assert.Equal(t, http.StatusOK, serve(r, req).Code)
}

func TestRequirePermission(t *testing.T) {
	stockViewer := permission.Principal{
		Found:    true,
		Active:   true,
		HasGroup: true,
		Group:    "Viewers",
		Grants:   permission.NewSet(permission.Allow("Stock", "Show")),
	}

	cases := []struct {
		name   string
		perms  fakePerms
		module string
		action string
		want   int
	}{
		{"granted", fakePerms{principal: stockViewer}, "Stock", "Show", http.StatusOK},
		{"other action", fakePerms{principal: stockViewer}, "Stock", "Adjust", http.StatusForbidden},
		{"lookup error", fakePerms{err: errors.New("db down")}, "Stock", "Show", http.StatusForbidden},
		{"unknown user", fakePerms{}, "Stock", "Show", http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/", RequirePermission(tc.perms, tc.module, tc.action), func(c *gin.Context) {
				assert.Equal(t, "Viewers", CurrentPrincipal(c).Group)
				c.Status(http.StatusOK)
			})
			assert.Equal(t, tc.want, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
		})
	}
}

func TestRateLimiter(t *testing.T) {
	_, err := RateLimiter("lots")
	assert.Error(t, err)

	limit, err := RateLimiter("2-M")
	require.NoError(t, err)
	r := gin.New()
	r.GET("/", limit, func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
}

func TestRecoveryAndErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(Recovery(), ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/error", func(c *gin.Context) { _ = c.Error(errors.New("hidden detail")) })

	w := serve(r, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/error", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "hidden detail")
}
