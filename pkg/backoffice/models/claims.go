package models

import "time"

// UserClaims is the published authorization identity for a user: a derived
// cache of the flags on the Role referenced by the user's RoleID at the time
// of the last synchronization. Tokens embed these flags at mint/refresh time.
//
// The row is keyed by the user's stable UID and fully replaced on every
// publish - stale fields from an earlier payload can never survive a sync.
type UserClaims struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	UserUID   string    `gorm:"uniqueIndex;not null" json:"user_uid"`
	IsManager bool      `gorm:"default:false" json:"is_manager"`
	IsDev     bool      `gorm:"default:false" json:"is_dev"`
	SyncedAt  time.Time `json:"synced_at"`
}
