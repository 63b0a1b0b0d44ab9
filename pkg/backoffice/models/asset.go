package models

import (
	"time"

	"gorm.io/gorm"
)

// AssetStatus represents an asset's assignment state
type AssetStatus string

const (
	AssetStatusAvailable AssetStatus = "available"
	AssetStatusAssigned  AssetStatus = "assigned"
	AssetStatusRetired   AssetStatus = "retired"
)

// Asset represents a piece of company equipment tracked by HR
type Asset struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uint           `gorm:"not null;index" json:"organization_id"`
	Tag            string         `gorm:"uniqueIndex;not null" json:"tag"`
	Description    string         `gorm:"not null" json:"description"`
	SerialNumber   string         `json:"serial_number"`
	Status         AssetStatus    `gorm:"type:varchar(20);default:'available'" json:"status"`
	AssignedToID   *uint          `gorm:"index" json:"assigned_to_id"`
	AssignedAt     *time.Time     `json:"assigned_at"`

	// Relationships
	AssignedTo *User `gorm:"foreignKey:AssignedToID" json:"assigned_to,omitempty"`
}
