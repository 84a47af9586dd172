package service

import (
	"context"
	"testing"

	"backoffice/internal/config"
	"backoffice/internal/dto"
	"backoffice/internal/permission"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPermissionService_HasPermission(t *testing.T) {
	env := newTestEnv(t)
	svc := NewPermissionService(env.users, env.groups, nil)
	ctx := context.Background()

	full := env.seedGroup(t, "Owners", [2]string{"*", "*"})
	module := env.seedGroup(t, "Sales", [2]string{"Invoices", "*"})
	action := env.seedGroup(t, "Auditors", [2]string{"*", "Show"})
	exact := env.seedGroup(t, "Clerks", [2]string{"Purchases", "Receive"})

	owner := env.seedUser(t, "owner", "pw", true, full)
	seller := env.seedUser(t, "seller", "pw", true, module)
	auditor := env.seedUser(t, "auditor", "pw", true, action)
	clerk := env.seedUser(t, "clerk", "pw", true, exact)
	disabled := env.seedUser(t, "disabled", "pw", false, full)
	loner := env.seedUser(t, "loner", "pw", true, nil)

	tests := []struct {
		name   string
		user   uuid.UUID
		module string
		action string
		want   bool
	}{
		{"full wildcard", owner.ID, "Stock", "Adjust", true},
		{"module wildcard", seller.ID, "Invoices", "Cancel", true},
		{"module wildcard other module", seller.ID, "Stock", "Show", false},
		{"action wildcard", auditor.ID, "Purchases", "Show", true},
		{"action wildcard other action", auditor.ID, "Purchases", "Create", false},
		{"exact", clerk.ID, "purchases", "receive", true},
		{"exact other action", clerk.ID, "Purchases", "Cancel", false},
		{"inactive user", disabled.ID, "Stock", "Show", false},
		{"user without group", loner.ID, "Stock", "Show", false},
		{"unknown user", uuid.New(), "Stock", "Show", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.HasPermission(ctx, tt.user, tt.module, tt.action))
		})
	}
}

func TestAdminService_ProtectsSuperAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	perms := NewPermissionService(env.users, env.groups, nil)
	admin := NewAdminService(env.groups, env.users, perms, env.cfg)

	superGroup := env.seedGroup(t, permission.SuperAdminGroup, [2]string{"*", "*"})
	managers := env.seedGroup(t, "Managers", [2]string{"Groups", "*"}, [2]string{"Users", "*"})
	root := env.seedUser(t, "admin", "pw", true, superGroup)
	manager := env.seedUser(t, "manager", "pw", true, managers)
	clerk := env.seedUser(t, "clerk", "pw", true, nil)

	superActor, err := perms.Principal(ctx, root.ID)
	require.NoError(t, err)
	require.True(t, superActor.IsSuperAdmin())
	managerActor, err := perms.Principal(ctx, manager.ID)
	require.NoError(t, err)

	editSuper := dto.SetPermissionsRequest{Permissions: []dto.GrantRequest{{Module: "Stock", Action: "Show"}}}
	_, err = admin.SetGroupPermissions(ctx, managerActor, superGroup.ID, editSuper)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.ErrorIs(t, admin.DisableUser(ctx, managerActor, root.ID), ErrForbidden)

	_, err = admin.AssignGroup(ctx, managerActor, clerk.ID, &superGroup.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = admin.CreateGroup(ctx, managerActor, dto.CreateGroupRequest{Name: "super admin"})
	assert.ErrorIs(t, err, ErrForbidden)

	assigned, err := admin.AssignGroup(ctx, superActor, clerk.ID, &superGroup.ID)
	require.NoError(t, err)
	require.NotNil(t, assigned.Group)
	assert.Equal(t, permission.SuperAdminGroup, *assigned.Group)

	require.NoError(t, admin.DisableUser(ctx, managerActor, manager.ID))
	assert.False(t, perms.HasPermission(ctx, manager.ID, "Groups", "Edit"))
}

func TestAdminService_SetGroupPermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	perms := NewPermissionService(env.users, env.groups, nil)
	admin := NewAdminService(env.groups, env.users, perms, env.cfg)
	actor := permission.Principal{Found: true, Active: true, HasGroup: true, Group: "Managers"}

	g, err := admin.CreateGroup(ctx, actor, dto.CreateGroupRequest{Name: "Warehouse"})
	require.NoError(t, err)
	_, err = admin.CreateGroup(ctx, actor, dto.CreateGroupRequest{Name: "Warehouse"})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	groupID := uuid.MustParse(g.ID)
	user := env.seedUser(t, "picker", "pw", true, nil)
	_, err = admin.AssignGroup(ctx, actor, user.ID, &groupID)
	require.NoError(t, err)
	assert.False(t, perms.HasPermission(ctx, user.ID, "Stock", "Adjust"))

	updated, err := admin.SetGroupPermissions(ctx, actor, groupID, dto.SetPermissionsRequest{
		Permissions: []dto.GrantRequest{{Module: "Stock", Action: "*"}, {Module: "stock", Action: "*"}},
	})
	require.NoError(t, err)
	assert.Len(t, updated.Permissions, 1)
	assert.True(t, perms.HasPermission(ctx, user.ID, "Stock", "Adjust"))

	_, err = admin.SetGroupPermissions(ctx, actor, groupID, dto.SetPermissionsRequest{
		Permissions: []dto.GrantRequest{{Module: " ", Action: "Show"}},
	})
	assert.ErrorAs(t, err, &verr)

	_, err = admin.SetGroupPermissions(ctx, actor, uuid.New(), dto.SetPermissionsRequest{})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = admin.AssignGroup(ctx, actor, user.ID, nil)
	require.NoError(t, err)
	assert.False(t, perms.HasPermission(ctx, user.ID, "Stock", "Adjust"))
}

func TestAuthService_Login(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	auth := NewAuthService(env.users, env.cfg)
	g := env.seedGroup(t, "Sales", [2]string{"Invoices", "*"})
	u := env.seedUser(t, "alice", "s3cret!", true, g)
	env.seedUser(t, "bob", "s3cret!", false, g)

	resp, err := auth.Login(ctx, dto.LoginRequest{Username: "alice", Password: "s3cret!"})
	require.NoError(t, err)
	assert.Equal(t, "bearer", resp.TokenType)
	assert.Equal(t, 3600, resp.ExpiresIn)
	require.NotNil(t, resp.User.Group)
	assert.Equal(t, "Sales", *resp.User.Group)

	claims, err := auth.ParseToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID.String(), claims.UserID)

	_, err = auth.Login(ctx, dto.LoginRequest{Username: "alice", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, dto.LoginRequest{Username: "bob", Password: "s3cret!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = auth.Login(ctx, dto.LoginRequest{Username: "nobody", Password: "s3cret!"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.ParseToken("garbage")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	other := NewAuthService(env.users, &config.Config{JWTSecret: "another-secret", JWTExpirationHours: 1})
	_, err = other.ParseToken(resp.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	me, err := auth.Me(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
}
