// Package perms resolves a user's live permission flags by dereferencing
// their role assignment. Unlike token claims, which are a cache frozen at
// mint time, this reads current rows - so it can be more up to date than a
// caller's token immediately after a role change.
package perms

import (
	"errors"
	"log"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"gorm.io/gorm"
)

// Permissions is the resolved capability set for a user. Ready is false
// until both the user record and its role (if any) have been fetched; flags
// are only meaningful once Ready is true.
type Permissions struct {
	IsManager bool
	IsDev     bool
	Ready     bool
}

// Elevated reports whether the user may see all records of a type,
// bypassing ownership and membership filters
func (p Permissions) Elevated() bool {
	return p.IsManager || p.IsDev
}

// Resolve looks up the user's role flags. An absent role assignment or a
// dangling role reference resolves to default-deny with Ready=true; a
// transient fetch failure leaves the result not Ready.
func Resolve(db *gorm.DB, userID uint) Permissions {
	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Permissions{Ready: true}
		}
		return Permissions{}
	}

	if user.RoleID == nil {
		return Permissions{Ready: true}
	}

	var role models.Role
	if err := db.First(&role, *user.RoleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("perms: user %s references missing role %d, defaulting to deny", user.UID, *user.RoleID)
			return Permissions{Ready: true}
		}
		return Permissions{}
	}

	return Permissions{IsManager: role.IsManager, IsDev: role.IsDev, Ready: true}
}
