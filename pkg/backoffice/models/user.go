package models

import (
	"time"

	"gorm.io/gorm"
)

// User represents a back-office account.
//
// UID is the opaque identity string assigned at account creation; claims are
// published under it and it never changes, unlike the numeric primary key
// which is a storage detail.
//
// RoleID references the user's assigned Role and is nullable: a user with no
// role resolves to default-deny everywhere. Users never carry permission
// flags directly - flags are always derived by dereferencing RoleID.
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	UID          string         `gorm:"uniqueIndex;not null" json:"uid"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Active       bool           `gorm:"default:true" json:"active"`
	RoleID       *uint          `gorm:"index" json:"role_id"`

	// TokenRefreshedAt is a touch field: the claims synchronizer stamps it
	// with a server-assigned time after republishing claims, and clients
	// watching their own record re-mint their session token when it moves.
	// It carries no business data.
	TokenRefreshedAt *time.Time `json:"token_refreshed_at"`

	// Relationships
	Role                    *Role                    `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	OrganizationMemberships []OrganizationMembership `gorm:"foreignKey:UserID" json:"organization_memberships,omitempty"`
}
