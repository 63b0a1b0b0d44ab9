package models

import (
	"time"

	"gorm.io/gorm"
)

// ReimbursementStatus represents a reimbursement request's review state
type ReimbursementStatus string

const (
	ReimbursementStatusPending  ReimbursementStatus = "pending"
	ReimbursementStatusApproved ReimbursementStatus = "approved"
	ReimbursementStatusRejected ReimbursementStatus = "rejected"
)

// Reimbursement represents an expense reimbursement request. Review fields
// are stamped only by a manager-gated transition, never by the requester.
type Reimbursement struct {
	ID             uint                `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
	DeletedAt      gorm.DeletedAt      `gorm:"index" json:"-"`
	OrganizationID uint                `gorm:"not null;index" json:"organization_id"`
	RequesterID    uint                `gorm:"not null;index" json:"requester_id"`
	AmountCents    int64               `gorm:"not null" json:"amount_cents"`
	Description    string              `gorm:"not null" json:"description"`
	Status         ReimbursementStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	ReviewedByID   *uint               `json:"reviewed_by_id"`
	ReviewedAt     *time.Time          `json:"reviewed_at"`
	ReviewNote     string              `json:"review_note"`

	// Relationships
	Requester  User  `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	ReviewedBy *User `gorm:"foreignKey:ReviewedByID" json:"reviewed_by,omitempty"`
}
