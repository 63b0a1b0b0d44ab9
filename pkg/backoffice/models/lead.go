package models

import (
	"time"

	"gorm.io/gorm"
)

// LeadStage represents a lead's position in the sales pipeline
type LeadStage string

const (
	LeadStageNew       LeadStage = "new"
	LeadStageContacted LeadStage = "contacted"
	LeadStageQualified LeadStage = "qualified"
	LeadStageWon       LeadStage = "won"
	LeadStageLost      LeadStage = "lost"
)

// Lead represents a sales opportunity moving through the pipeline
type Lead struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uint           `gorm:"not null;index" json:"organization_id"`
	OwnerID        uint           `gorm:"not null;index" json:"owner_id"`
	Company        string         `gorm:"not null" json:"company"`
	Contact        string         `json:"contact"`
	Email          string         `json:"email"`
	ValueCents     int64          `gorm:"default:0" json:"value_cents"`
	Stage          LeadStage      `gorm:"type:varchar(20);default:'new'" json:"stage"`
	Notes          string         `json:"notes"`

	// Relationships
	Owner User `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
}
