// Package claimsync keeps the published authorization identity (the
// user_claims record a session token is minted from) in step with the
// mutable role assignment on the user record.
//
// Claims are a derived cache of the referenced Role's flags, recomputed only
// when the user's RoleID changes. Editing a Role's flags does not resync
// users already holding that role; they keep stale claims until their RoleID
// is rewritten, they re-authenticate, or an admin forces a resync.
package claimsync

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Synchronizer republishes a user's claims when their role assignment
// changes. It is invoked by the users store with before/after images of
// every user update.
type Synchronizer struct {
	db     *gorm.DB
	logger *log.Logger
}

// New creates a synchronizer using the default logger
func New(db *gorm.DB) *Synchronizer {
	return &Synchronizer{db: db, logger: log.Default()}
}

// NewWithLogger creates a synchronizer with an explicit logger
func NewWithLogger(db *gorm.DB, logger *log.Logger) *Synchronizer {
	return &Synchronizer{db: db, logger: logger}
}

// roleChanged reports whether the role assignment differs between the
// before and after images. Both-nil counts as unchanged.
func roleChanged(before, after *uint) bool {
	if before == nil && after == nil {
		return false
	}
	if before == nil || after == nil {
		return true
	}
	return *before != *after
}

// UserUpdated reacts to an update of a user record. It is a no-op unless
// RoleID actually changed; otherwise it resolves the new role's flags and
// republishes them.
//
// Failure is fail-closed: a transient role-fetch error aborts the run
// without publishing anything, and a failed publish suppresses the touch
// write so clients are never prompted to refresh into unchanged claims.
func (s *Synchronizer) UserUpdated(before, after *models.User) error {
	if !roleChanged(before.RoleID, after.RoleID) {
		return nil
	}
	return s.publish(after)
}

// Resync republishes claims from the user's current role regardless of
// whether the assignment changed. This is the escape hatch for the
// role-flag staleness gap.
func (s *Synchronizer) Resync(user *models.User) error {
	return s.publish(user)
}

func (s *Synchronizer) publish(user *models.User) error {
	isManager, isDev, err := s.resolveFlags(user)
	if err != nil {
		return err
	}

	claims := models.UserClaims{
		UserUID:   user.UID,
		IsManager: isManager,
		IsDev:     isDev,
		SyncedAt:  time.Now().UTC(),
	}
	// Full replace: every column is assigned so no field from a previous
	// payload can survive.
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_uid"}},
		UpdateAll: true,
	}).Create(&claims).Error
	if err != nil {
		return fmt.Errorf("publish claims for %s: %w", user.UID, err)
	}

	// Touch the user record with a server-assigned timestamp so listening
	// clients refresh their token. Claims are already correct at this
	// point, so a failed touch is logged rather than propagated.
	err = s.db.Model(&models.User{}).Where("id = ?", user.ID).
		Update("token_refreshed_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
	if err != nil {
		s.logger.Printf("claimsync: touch write failed for user %s: %v", user.UID, err)
	}

	return nil
}

// resolveFlags dereferences the user's RoleID. A nil RoleID or a dangling
// reference resolves to default-deny; any other fetch error aborts.
func (s *Synchronizer) resolveFlags(user *models.User) (isManager, isDev bool, err error) {
	if user.RoleID == nil {
		return false, false, nil
	}

	var role models.Role
	if err := s.db.First(&role, *user.RoleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Printf("claimsync: user %s references missing role %d, defaulting to deny", user.UID, *user.RoleID)
			return false, false, nil
		}
		return false, false, fmt.Errorf("fetch role %d: %w", *user.RoleID, err)
	}

	return role.IsManager, role.IsDev, nil
}
