package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/config"
	"backoffice/internal/dto"
	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// AdminService manages admin groups, their grants and group membership.
// The Super Admin group and the configured super admin account can only be
// touched by a member of the Super Admin group.
type AdminService interface {
	CreateGroup(ctx context.Context, actor permission.Principal, req dto.CreateGroupRequest) (*dto.GroupResponse, error)
	ListGroups(ctx context.Context) ([]dto.GroupResponse, error)
	SetGroupPermissions(ctx context.Context, actor permission.Principal, groupID uuid.UUID, req dto.SetPermissionsRequest) (*dto.GroupResponse, error)
	AssignGroup(ctx context.Context, actor permission.Principal, userID uuid.UUID, groupID *uuid.UUID) (*dto.UserResponse, error)
	DisableUser(ctx context.Context, actor permission.Principal, userID uuid.UUID) error
	ListUsers(ctx context.Context) ([]dto.UserResponse, error)
}

type adminService struct {
	groups      repository.GroupRepository
	users       repository.UserRepository
	permissions PermissionService
	superAdmin  string
}

func NewAdminService(groups repository.GroupRepository, users repository.UserRepository, permissions PermissionService, cfg *config.Config) AdminService {
	return &adminService{groups: groups, users: users, permissions: permissions, superAdmin: cfg.SuperAdminUsername}
}

func (s *adminService) CreateGroup(ctx context.Context, actor permission.Principal, req dto.CreateGroupRequest) (*dto.GroupResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewValidationError("name", "is required")
	}
	if permission.IsProtectedGroup(name) && !actor.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	if _, err := s.groups.FindByName(ctx, name); err == nil {
		return nil, NewValidationError("name", "a group with this name already exists")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	g := &model.AdminGroup{Name: name, Description: req.Description}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	log.Info().Str("group", g.Name).Msg("admin group created")
	resp := groupToResponse(g)
	return &resp, nil
}

func (s *adminService) ListGroups(ctx context.Context) ([]dto.GroupResponse, error) {
	groups, err := s.groups.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.GroupResponse, 0, len(groups))
	for i := range groups {
		out = append(out, groupToResponse(&groups[i]))
	}
	return out, nil
}

// SetGroupPermissions replaces the grant list of a group. Rows are parsed
// through permission.ParseGrant so only well formed grants are stored.
func (s *adminService) SetGroupPermissions(ctx context.Context, actor permission.Principal, groupID uuid.UUID, req dto.SetPermissionsRequest) (*dto.GroupResponse, error) {
	g, err := s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if permission.IsProtectedGroup(g.Name) && !actor.IsSuperAdmin() {
		return nil, ErrForbidden
	}

	grants := make([]permission.Grant, 0, len(req.Permissions))
	verr := &ValidationError{}
	for i, row := range req.Permissions {
		grant, err := permission.ParseGrant(row.Module, row.Action)
		if err != nil {
			verr.Add(fmt.Sprintf("permissions[%d]", i), err.Error())
			continue
		}
		grants = append(grants, grant)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	set := permission.NewSet(grants...)
	rows := make([]model.GroupPermission, 0, set.Len())
	for _, grant := range set.Grants() {
		module, action := grant.Storage()
		rows = append(rows, model.GroupPermission{Module: module, Action: action})
	}

	if err := runTx(ctx, s.groups.DB(), func(tx *gorm.DB) error {
		return s.groups.ReplacePermissionsTx(tx, groupID, rows)
	}); err != nil {
		return nil, fmt.Errorf("replace permissions: %w", err)
	}
	s.permissions.Invalidate(ctx, groupID)

	log.Info().Str("group", g.Name).Int("grants", len(rows)).Msg("group permissions replaced")
	g, err = s.findGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	resp := groupToResponse(g)
	return &resp, nil
}

// AssignGroup moves a user into a group, or out of any group when groupID
// is nil.
func (s *adminService) AssignGroup(ctx context.Context, actor permission.Principal, userID uuid.UUID, groupID *uuid.UUID) (*dto.UserResponse, error) {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if s.isProtectedUser(u) && !actor.IsSuperAdmin() {
		return nil, ErrForbidden
	}
	if groupID != nil {
		g, err := s.findGroup(ctx, *groupID)
		if errors.Is(err, ErrNotFound) {
			return nil, NewValidationError("group_id", "group not found")
		}
		if err != nil {
			return nil, err
		}
		if permission.IsProtectedGroup(g.Name) && !actor.IsSuperAdmin() {
			return nil, ErrForbidden
		}
	}

	if err := s.users.SetGroup(ctx, userID, groupID); err != nil {
		return nil, fmt.Errorf("assign group: %w", err)
	}
	u, err = s.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := userToResponse(u)
	return &resp, nil
}

func (s *adminService) DisableUser(ctx context.Context, actor permission.Principal, userID uuid.UUID) error {
	u, err := s.findUser(ctx, userID)
	if err != nil {
		return err
	}
	if s.isProtectedUser(u) && !actor.IsSuperAdmin() {
		return ErrForbidden
	}
	if err := s.users.SetActive(ctx, userID, false); err != nil {
		return fmt.Errorf("disable user: %w", err)
	}
	log.Info().Str("user", u.Username).Msg("user disabled")
	return nil
}

func (s *adminService) ListUsers(ctx context.Context) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userToResponse(&users[i]))
	}
	return out, nil
}

// isProtectedUser covers the configured account and any Super Admin member.
func (s *adminService) isProtectedUser(u *model.ApplicationUser) bool {
	if permission.IsProtectedAccount(u.Username, s.superAdmin) {
		return true
	}
	return u.Group != nil && permission.IsProtectedGroup(u.Group.Name)
}

func (s *adminService) findGroup(ctx context.Context, id uuid.UUID) (*model.AdminGroup, error) {
	g, err := s.groups.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return g, err
}

func (s *adminService) findUser(ctx context.Context, id uuid.UUID) (*model.ApplicationUser, error) {
	u, err := s.users.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

func groupToResponse(g *model.AdminGroup) dto.GroupResponse {
	resp := dto.GroupResponse{
		ID:          g.ID.String(),
		Name:        g.Name,
		Description: g.Description,
		Permissions: make([]dto.GrantRequest, 0, len(g.Permissions)),
	}
	for _, p := range g.Permissions {
		resp.Permissions = append(resp.Permissions, dto.GrantRequest{Module: p.Module, Action: p.Action})
	}
	return resp
}
