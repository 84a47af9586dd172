package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApplicationUser is a back-office login. Permissions come exclusively from
// the assigned AdminGroup; a user without a group can do nothing.
type ApplicationUser struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"uniqueIndex;not null"`
	FullName     string    `gorm:"not null"`
	Email        *string
	PasswordHash string     `gorm:"not null"`
	Active       bool       `gorm:"not null"`
	GroupID      *uuid.UUID `gorm:"type:uuid;index"`
	LastLoginAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Group *AdminGroup `gorm:"foreignKey:GroupID"`
}

func (u *ApplicationUser) BeforeCreate(*gorm.DB) error {
	assignID(&u.ID)
	return nil
}

type AdminGroup struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name        string    `gorm:"uniqueIndex;not null"`
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Permissions []GroupPermission `gorm:"foreignKey:GroupID"`
}

func (g *AdminGroup) BeforeCreate(*gorm.DB) error {
	assignID(&g.ID)
	return nil
}

// GroupPermission is one allow rule. "*" in Module or Action is the storage
// form of a wildcard; see package permission for the domain form.
type GroupPermission struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_group_permission"`
	Module  string    `gorm:"type:varchar(60);not null;uniqueIndex:idx_group_permission"`
	Action  string    `gorm:"type:varchar(60);not null;uniqueIndex:idx_group_permission"`
}

func (p *GroupPermission) BeforeCreate(*gorm.DB) error {
	assignID(&p.ID)
	return nil
}
