package models

import "gorm.io/gorm"

// AllModels returns all models for migration
// Note: Organization and Role must be migrated before the models that
// reference them
func AllModels() []interface{} {
	return []interface{}{
		&Organization{},
		&OrganizationMembership{},
		&Role{},
		&User{},
		&UserClaims{},
		&Project{},
		&ProjectMember{},
		&Task{},
		&TaskParticipant{},
		&Lead{},
		&Asset{},
		&Reimbursement{},
		&Checklist{},
		&ChecklistItem{},
		&ChatChannel{},
		&ChatMessage{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
