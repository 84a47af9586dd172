package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"backoffice/internal/model"
	"backoffice/internal/permission"
	"backoffice/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const permissionCacheTTL = 10 * time.Minute

// PermissionService loads principals from the user and group stores and
// evaluates them with package permission. Group grants are cached in Redis
// when a client is configured.
type PermissionService interface {
	Principal(ctx context.Context, userID uuid.UUID) (permission.Principal, error)
	HasPermission(ctx context.Context, userID uuid.UUID, module, action string) bool
	Invalidate(ctx context.Context, groupID uuid.UUID)
}

type permissionService struct {
	users  repository.UserRepository
	groups repository.GroupRepository
	rdb    *redis.Client
}

// NewPermissionService builds the service. rdb may be nil.
func NewPermissionService(users repository.UserRepository, groups repository.GroupRepository, rdb *redis.Client) PermissionService {
	return &permissionService{users: users, groups: groups, rdb: rdb}
}

func permissionCacheKey(groupID uuid.UUID) string { return "perm:group:" + groupID.String() }

func (s *permissionService) Principal(ctx context.Context, userID uuid.UUID) (permission.Principal, error) {
	u, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return permission.Principal{}, nil
	}
	if err != nil {
		return permission.Principal{}, fmt.Errorf("load user: %w", err)
	}

	p := permission.Principal{Found: true, Active: u.Active}
	if u.GroupID == nil || u.Group == nil {
		return p, nil
	}
	rows, err := s.groupRows(ctx, *u.GroupID)
	if err != nil {
		return permission.Principal{}, err
	}
	p.HasGroup = true
	p.Group = u.Group.Name
	p.Grants = permission.ParseSet(rows)
	return p, nil
}

// HasPermission fails closed: lookup errors deny and are logged.
func (s *permissionService) HasPermission(ctx context.Context, userID uuid.UUID, module, action string) bool {
	p, err := s.Principal(ctx, userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("permission lookup failed")
		return false
	}
	return permission.HasPermission(p, module, action)
}

func (s *permissionService) Invalidate(ctx context.Context, groupID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, permissionCacheKey(groupID)).Err(); err != nil {
		log.Warn().Err(err).Str("group_id", groupID.String()).Msg("permission cache invalidation failed")
	}
}

// groupRows returns the stored (module, action) pairs of a group, reading
// through the cache. Cache failures fall back to the database.
func (s *permissionService) groupRows(ctx context.Context, groupID uuid.UUID) ([][2]string, error) {
	key := permissionCacheKey(groupID)
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, key).Bytes(); err == nil {
			var rows [][2]string
			if json.Unmarshal(cached, &rows) == nil {
				return rows, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("permission cache read failed")
		}
	}

	perms, err := s.groups.PermissionsOf(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("load group permissions: %w", err)
	}
	rows := storageRows(perms)

	if s.rdb != nil {
		if b, err := json.Marshal(rows); err == nil {
			_ = s.rdb.Set(ctx, key, b, permissionCacheTTL).Err()
		}
	}
	return rows, nil
}

func storageRows(perms []model.GroupPermission) [][2]string {
	rows := make([][2]string, 0, len(perms))
	for _, p := range perms {
		rows = append(rows, [2]string{p.Module, p.Action})
	}
	return rows
}
