package models

import (
	"time"

	"gorm.io/gorm"
)

// Role is a named bundle of permission flags that users are assigned by
// reference. The flags on the Role row are the sole source of truth for
// elevated capability; UserClaims rows and token claims are derived caches.
type Role struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	Name        string         `gorm:"uniqueIndex;not null" json:"name"`
	Description string         `json:"description"`
	IsManager   bool           `gorm:"default:false" json:"is_manager"`
	IsDev       bool           `gorm:"default:false" json:"is_dev"`

	// Relationships
	Users []User `gorm:"foreignKey:RoleID" json:"users,omitempty"`
}
