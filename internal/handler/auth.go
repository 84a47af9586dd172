package handler

import (
	"net/http"

	"backoffice/internal/apierror"
	"backoffice/internal/dto"
	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc          service.AuthService
	perms        service.PermissionService
	cookieName   string
	cookieSecure bool
}

func NewAuthHandler(svc service.AuthService, perms service.PermissionService, cookieName string, cookieSecure bool) *AuthHandler {
	return &AuthHandler{svc: svc, perms: perms, cookieName: cookieName, cookieSecure: cookieSecure}
}

// Login godoc
// @Summary      Log in
// @Description  Verifies credentials, sets the HttpOnly session cookie and returns the token.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body dto.LoginRequest true "Credentials"
// @Success      200  {object} dto.LoginResponse
// @Failure      401  {object} apierror.APIError
// @Router       /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, resp.AccessToken, resp.ExpiresIn, "/", "", h.cookieSecure, true)
	c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary      Log out
// @Tags         auth
// @Success      204
// @Router       /v1/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	c.Status(http.StatusNoContent)
}

// Me godoc
// @Summary      Current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object} dto.UserResponse
// @Router       /v1/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	resp, err := h.svc.Me(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CheckPermission godoc
// @Summary      Check a permission for the current user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Param        module query string true "Module name"
// @Param        action query string true "Action name"
// @Success      200  {object} dto.PermissionCheckResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/me/permissions [get]
func (h *AuthHandler) CheckPermission(c *gin.Context) {
	module, action := c.Query("module"), c.Query("action")
	if module == "" || action == "" {
		c.JSON(http.StatusBadRequest, apierror.New("module and action are required"))
		return
	}
	allowed := h.perms.HasPermission(c.Request.Context(), middleware.CurrentUserID(c), module, action)
	c.JSON(http.StatusOK, dto.PermissionCheckResponse{Module: module, Action: action, Allowed: allowed})
}
