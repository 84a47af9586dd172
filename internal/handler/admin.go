package handler

import (
	"net/http"

	"backoffice/internal/dto"
	"backoffice/internal/middleware"
	"backoffice/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AdminHandler struct{ svc service.AdminService }

func NewAdminHandler(svc service.AdminService) *AdminHandler { return &AdminHandler{svc: svc} }

// CreateGroup godoc
// @Summary      Create a permission group
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateGroupRequest true "Group"
// @Success      201  {object} dto.GroupResponse
// @Failure      403  {object} apierror.APIError
// @Router       /v1/groups [post]
func (h *AdminHandler) CreateGroup(c *gin.Context) {
	var req dto.CreateGroupRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateGroup(c.Request.Context(), middleware.CurrentPrincipal(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// ListGroups godoc
// @Summary      List permission groups
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array} dto.GroupResponse
// @Router       /v1/groups [get]
func (h *AdminHandler) ListGroups(c *gin.Context) {
	resp, err := h.svc.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetGroupPermissions godoc
// @Summary      Replace a group's grants
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                    true "Group UUID"
// @Param        body body dto.SetPermissionsRequest true "Grants"
// @Success      200  {object} dto.GroupResponse
// @Failure      403  {object} apierror.APIError
// @Router       /v1/groups/{id}/permissions [put]
func (h *AdminHandler) SetGroupPermissions(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.SetPermissionsRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetGroupPermissions(c.Request.Context(), middleware.CurrentPrincipal(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListUsers godoc
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array} dto.UserResponse
// @Router       /v1/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	resp, err := h.svc.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AssignGroup godoc
// @Summary      Move a user to a group (null removes the group)
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "User UUID"
// @Param        body body dto.AssignGroupRequest true "Group"
// @Success      200  {object} dto.UserResponse
// @Failure      403  {object} apierror.APIError
// @Router       /v1/users/{id}/group [put]
func (h *AdminHandler) AssignGroup(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.AssignGroupRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var groupID *uuid.UUID
	if req.GroupID != nil {
		gid := uuid.MustParse(*req.GroupID)
		groupID = &gid
	}
	resp, err := h.svc.AssignGroup(c.Request.Context(), middleware.CurrentPrincipal(c), id, groupID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// DisableUser godoc
// @Summary      Disable a user
// @Tags         admin
// @Security     BearerAuth
// @Param        id path string true "User UUID"
// @Success      204
// @Failure      403  {object} apierror.APIError
// @Router       /v1/users/{id} [delete]
func (h *AdminHandler) DisableUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.svc.DisableUser(c.Request.Context(), middleware.CurrentPrincipal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
