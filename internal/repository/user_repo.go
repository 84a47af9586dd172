package repository

import (
	"context"
	"time"

	"backoffice/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, u *model.ApplicationUser) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.ApplicationUser, error)
	FindByUsername(ctx context.Context, username string) (*model.ApplicationUser, error)
	List(ctx context.Context) ([]model.ApplicationUser, error)
	SetGroup(ctx context.Context, id uuid.UUID, groupID *uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetPassword(ctx context.Context, id uuid.UUID, hash string) error
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type userRepo struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepo{db: db} }

func (r *userRepo) Create(ctx context.Context, u *model.ApplicationUser) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *userRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.ApplicationUser, error) {
	var u model.ApplicationUser
	err := r.db.WithContext(ctx).Preload("Group").First(&u, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByUsername accepts the username or, case-insensitively, the e-mail.
func (r *userRepo) FindByUsername(ctx context.Context, username string) (*model.ApplicationUser, error) {
	var u model.ApplicationUser
	err := r.db.WithContext(ctx).Preload("Group").
		Where("username = ? OR LOWER(email) = LOWER(?)", username, username).
		First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) List(ctx context.Context) ([]model.ApplicationUser, error) {
	var users []model.ApplicationUser
	err := r.db.WithContext(ctx).Preload("Group").Order("username").Find(&users).Error
	return users, err
}

func (r *userRepo) SetGroup(ctx context.Context, id uuid.UUID, groupID *uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&model.ApplicationUser{}).Where("id = ?", id).
		Update("group_id", groupID).Error
}

func (r *userRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return r.db.WithContext(ctx).Model(&model.ApplicationUser{}).Where("id = ?", id).
		Update("active", active).Error
}

func (r *userRepo) SetPassword(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).Model(&model.ApplicationUser{}).Where("id = ?", id).
		Update("password_hash", hash).Error
}

func (r *userRepo) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.ApplicationUser{}).Where("id = ?", id).
		Update("last_login_at", at).Error
}
