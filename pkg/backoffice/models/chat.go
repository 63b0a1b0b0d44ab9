package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatChannel represents a named internal chat room within an organization
type ChatChannel struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uint           `gorm:"not null;uniqueIndex:idx_org_channel" json:"organization_id"`
	Name           string         `gorm:"not null;uniqueIndex:idx_org_channel" json:"name"`
	Topic          string         `json:"topic"`
	CreatedByID    uint           `gorm:"not null" json:"created_by_id"`

	// Relationships
	Messages []ChatMessage `gorm:"foreignKey:ChannelID" json:"messages,omitempty"`
}

// ChatMessage represents a single message posted to a channel
type ChatMessage struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	ChannelID uint           `gorm:"not null;index" json:"channel_id"`
	SenderID  uint           `gorm:"not null;index" json:"sender_id"`
	Body      string         `gorm:"not null" json:"body"`

	// Relationships
	Channel ChatChannel `gorm:"foreignKey:ChannelID" json:"channel,omitempty"`
	Sender  User        `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
}
