package models

import (
	"time"

	"gorm.io/gorm"
)

// ProjectStatus represents where a project sits in its lifecycle
type ProjectStatus string

const (
	ProjectStatusActive   ProjectStatus = "active"
	ProjectStatusOnHold   ProjectStatus = "on_hold"
	ProjectStatusArchived ProjectStatus = "archived"
)

// Project represents a unit of client or internal work. Visibility is
// owner-or-member unless the caller's role is elevated: the id is stable
// across every query that can return the row, so merging scoped query
// results by id is safe.
type Project struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uint           `gorm:"not null;index" json:"organization_id"`
	OwnerID        uint           `gorm:"not null;index" json:"owner_id"`
	Name           string         `gorm:"not null" json:"name"`
	Description    string         `json:"description"`
	Status         ProjectStatus  `gorm:"type:varchar(20);default:'active'" json:"status"`

	// Relationships
	Owner   User            `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members []ProjectMember `gorm:"foreignKey:ProjectID" json:"members,omitempty"`
	Tasks   []Task          `gorm:"foreignKey:ProjectID" json:"tasks,omitempty"`
}

// ProjectMember represents the membership set of a project
type ProjectMember struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	ProjectID uint           `gorm:"not null;uniqueIndex:idx_project_user" json:"project_id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_project_user" json:"user_id"`

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
