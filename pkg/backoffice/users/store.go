package users

import (
	"log"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/claimsync"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"gorm.io/gorm"
)

// Store routes every user-record write so the claims synchronizer always
// sees before/after images of the update. Synchronizer failures are logged,
// never surfaced to the caller: the requesting admin sees the role change
// succeed, and the affected user simply keeps their old claims until the
// next successful sync or re-login.
type Store struct {
	db   *gorm.DB
	sync *claimsync.Synchronizer
}

// NewStore creates a user store wired to a claims synchronizer
func NewStore(db *gorm.DB, sync *claimsync.Synchronizer) *Store {
	return &Store{db: db, sync: sync}
}

// SetRole assigns (or clears, with nil) a user's role and notifies the
// synchronizer. Re-assigning the current role is still an update, so it
// forces a resync - the documented way to repair stale claims by hand.
func (s *Store) SetRole(userID uint, roleID *uint) (*models.User, error) {
	var before models.User
	if err := s.db.First(&before, userID).Error; err != nil {
		return nil, err
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", userID).Update("role_id", roleID).Error; err != nil {
		return nil, err
	}

	after := before
	after.RoleID = roleID

	if err := s.sync.UserUpdated(&before, &after); err != nil {
		log.Printf("users: claims sync failed for user %s: %v", after.UID, err)
	}

	return &after, nil
}

// UpdateProfile updates mutable profile fields. The synchronizer is still
// notified - it short-circuits because the role assignment is unchanged.
func (s *Store) UpdateProfile(userID uint, name *string, active *bool) (*models.User, error) {
	var before models.User
	if err := s.db.First(&before, userID).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if name != nil {
		updates["name"] = *name
	}
	if active != nil {
		updates["active"] = *active
	}

	after := before
	if len(updates) > 0 {
		if err := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, err
		}
		if name != nil {
			after.Name = *name
		}
		if active != nil {
			after.Active = *active
		}
	}

	if err := s.sync.UserUpdated(&before, &after); err != nil {
		log.Printf("users: claims sync failed for user %s: %v", after.UID, err)
	}

	return &after, nil
}

// Resync forces the synchronizer to republish claims from the user's
// current role. Unlike SetRole, a failure here is returned: the caller
// asked for the sync itself.
func (s *Store) Resync(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		return nil, err
	}

	if err := s.sync.Resync(&user); err != nil {
		return nil, err
	}

	return &user, nil
}
