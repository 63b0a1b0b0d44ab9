package models

import (
	"time"

	"gorm.io/gorm"
)

// Checklist represents a reusable list of steps (onboarding, offboarding,
// release runbooks) owned by whoever created it
type Checklist struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uint           `gorm:"not null;index" json:"organization_id"`
	CreatedByID    uint           `gorm:"not null" json:"created_by_id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `json:"description"`

	// Relationships
	CreatedBy User            `gorm:"foreignKey:CreatedByID" json:"created_by,omitempty"`
	Items     []ChecklistItem `gorm:"foreignKey:ChecklistID" json:"items,omitempty"`
}

// ChecklistItem represents a single step within a checklist
type ChecklistItem struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
	ChecklistID uint           `gorm:"not null;index" json:"checklist_id"`
	Text        string         `gorm:"not null" json:"text"`
	Done        bool           `gorm:"default:false" json:"done"`
	Position    int            `gorm:"default:0" json:"position"`

	// Relationships
	Checklist Checklist `gorm:"foreignKey:ChecklistID" json:"checklist,omitempty"`
}
