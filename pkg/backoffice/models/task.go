package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskStatus represents a task's progress
type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
)

// Task represents a work item. Visible to its assignee, its participants,
// and any caller with an elevated role.
type Task struct {
	ID             uint           `gorm:"primarykey" json:"id"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
	OrganizationID uint           `gorm:"not null;index" json:"organization_id"`
	ProjectID      *uint          `gorm:"index" json:"project_id"`
	AssigneeID     uint           `gorm:"not null;index" json:"assignee_id"`
	Title          string         `gorm:"not null" json:"title"`
	Description    string         `json:"description"`
	Status         TaskStatus     `gorm:"type:varchar(20);default:'todo'" json:"status"`
	DueDate        *time.Time     `json:"due_date"`

	// Relationships
	Assignee     User              `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
	Participants []TaskParticipant `gorm:"foreignKey:TaskID" json:"participants,omitempty"`
}

// TaskParticipant represents the participant set of a task
type TaskParticipant struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	TaskID    uint           `gorm:"not null;uniqueIndex:idx_task_user" json:"task_id"`
	UserID    uint           `gorm:"not null;uniqueIndex:idx_task_user" json:"user_id"`

	// Relationships
	Task Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
