package repository

import (
	"context"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GroupRepository interface {
	Create(ctx context.Context, g *model.AdminGroup) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.AdminGroup, error)
	FindByName(ctx context.Context, name string) (*model.AdminGroup, error)
	List(ctx context.Context) ([]model.AdminGroup, error)
	PermissionsOf(ctx context.Context, groupID uuid.UUID) ([]model.GroupPermission, error)
	ReplacePermissionsTx(tx *gorm.DB, groupID uuid.UUID, perms []model.GroupPermission) error
	DB() *gorm.DB
}

type groupRepo struct{ db *gorm.DB }

func NewGroupRepository(db *gorm.DB) GroupRepository { return &groupRepo{db: db} }

func (r *groupRepo) DB() *gorm.DB { return r.db }

func (r *groupRepo) Create(ctx context.Context, g *model.AdminGroup) error {
	return r.db.WithContext(ctx).Create(g).Error
}

func (r *groupRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.AdminGroup, error) {
	var g model.AdminGroup
	if err := r.db.WithContext(ctx).Preload("Permissions").First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *groupRepo) FindByName(ctx context.Context, name string) (*model.AdminGroup, error) {
	var g model.AdminGroup
	if err := r.db.WithContext(ctx).Preload("Permissions").First(&g, "name = ?", name).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *groupRepo) List(ctx context.Context) ([]model.AdminGroup, error) {
	var groups []model.AdminGroup
	err := r.db.WithContext(ctx).Preload("Permissions").Order("name").Find(&groups).Error
	return groups, err
}

func (r *groupRepo) PermissionsOf(ctx context.Context, groupID uuid.UUID) ([]model.GroupPermission, error) {
	var perms []model.GroupPermission
	err := r.db.WithContext(ctx).Where("group_id = ?", groupID).Find(&perms).Error
	return perms, err
}

// ReplacePermissionsTx swaps the whole grant list of a group.
func (r *groupRepo) ReplacePermissionsTx(tx *gorm.DB, groupID uuid.UUID, perms []model.GroupPermission) error {
	if err := tx.Where("group_id = ?", groupID).Delete(&model.GroupPermission{}).Error; err != nil {
		return err
	}
	if len(perms) == 0 {
		return nil
	}
	for i := range perms {
		perms[i].GroupID = groupID
	}
	return tx.Create(&perms).Error
}
