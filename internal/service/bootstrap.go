package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const minAdminPasswordLen = 8

// EnsureSuperAdmin makes sure the Super Admin group exists with the full
// wildcard grant and that username is an active member of it with the given
// password. It is idempotent and is what the seed-admin command runs.
func EnsureSuperAdmin(ctx context.Context, groups repository.GroupRepository, users repository.UserRepository, username, fullName, password string) (*model.ApplicationUser, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, NewValidationError("username", "is required")
	}
	if len(password) < minAdminPasswordLen {
		return nil, NewValidationError("password", fmt.Sprintf("must be at least %d characters", minAdminPasswordLen))
	}
	if fullName == "" {
		fullName = username
	}

	group, err := ensureSuperAdminGroup(ctx, groups)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := users.FindByUsername(ctx, username)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = &model.ApplicationUser{
			Username:     username,
			FullName:     fullName,
			PasswordHash: hash,
			Active:       true,
			GroupID:      &group.ID,
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
		log.Info().Str("user", username).Msg("super admin created")
		return user, nil
	case err != nil:
		return nil, err
	}

	if err := users.SetPassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	if err := users.SetGroup(ctx, user.ID, &group.ID); err != nil {
		return nil, err
	}
	if err := users.SetActive(ctx, user.ID, true); err != nil {
		return nil, err
	}
	log.Info().Str("user", username).Msg("super admin reset")
	return users.FindByID(ctx, user.ID)
}

func ensureSuperAdminGroup(ctx context.Context, groups repository.GroupRepository) (*model.AdminGroup, error) {
	full := model.GroupPermission{Module: permission.Wildcard, Action: permission.Wildcard}

	group, err := groups.FindByName(ctx, permission.SuperAdminGroup)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		group = &model.AdminGroup{Name: permission.SuperAdminGroup, Permissions: []model.GroupPermission{full}}
		if err := groups.Create(ctx, group); err != nil {
			return nil, fmt.Errorf("create %s group: %w", permission.SuperAdminGroup, err)
		}
		return group, nil
	}
	if err != nil {
		return nil, err
	}

	for _, p := range group.Permissions {
		if p.Module == permission.Wildcard && p.Action == permission.Wildcard {
			return group, nil
		}
	}
	perms := append(group.Permissions, full)
	for i := range perms {
		perms[i].ID = uuid.Nil
	}
	err = runTx(ctx, groups.DB(), func(tx *gorm.DB) error {
		return groups.ReplacePermissionsTx(tx, group.ID, perms)
	})
	if err != nil {
		return nil, fmt.Errorf("restore %s grants: %w", permission.SuperAdminGroup, err)
	}
	return group, nil
}
