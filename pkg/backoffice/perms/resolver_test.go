package perms

import (
	"testing"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	models.AutoMigrate(db)
	return db
}

func TestResolveWithRole(t *testing.T) {
	db := setupTestDB(t)

	role := models.Role{Name: "Developer", IsManager: false, IsDev: true}
	db.Create(&role)
	user := models.User{UID: "uid-1", Email: "a@example.com", Name: "A", RoleID: &role.ID}
	db.Create(&user)

	p := Resolve(db, user.ID)
	if !p.Ready {
		t.Fatal("Expected Ready=true")
	}
	if p.IsManager || !p.IsDev {
		t.Errorf("Expected {false, true}, got {%v, %v}", p.IsManager, p.IsDev)
	}
	if !p.Elevated() {
		t.Error("Expected dev role to count as elevated")
	}
}

func TestResolveWithoutRole(t *testing.T) {
	db := setupTestDB(t)

	user := models.User{UID: "uid-2", Email: "b@example.com", Name: "B"}
	db.Create(&user)

	p := Resolve(db, user.ID)
	if !p.Ready {
		t.Fatal("Expected Ready=true for user without role")
	}
	if p.IsManager || p.IsDev {
		t.Error("Expected default-deny for user without role")
	}
	if p.Elevated() {
		t.Error("Expected user without role to not be elevated")
	}
}

func TestResolveDanglingRole(t *testing.T) {
	db := setupTestDB(t)

	missing := uint(4242)
	user := models.User{UID: "uid-3", Email: "c@example.com", Name: "C", RoleID: &missing}
	db.Create(&user)

	p := Resolve(db, user.ID)
	if !p.Ready {
		t.Fatal("Expected Ready=true for dangling role reference")
	}
	if p.IsManager || p.IsDev {
		t.Error("Expected default-deny for dangling role reference")
	}
}

func TestResolveUnknownUser(t *testing.T) {
	db := setupTestDB(t)

	p := Resolve(db, 999)
	if !p.Ready {
		t.Fatal("Expected Ready=true for unknown user")
	}
	if p.Elevated() {
		t.Error("Expected default-deny for unknown user")
	}
}

// Resolve reads live rows, so a role-flag edit is visible immediately even
// though published claims would still be stale.
func TestResolveSeesLiveRoleEdits(t *testing.T) {
	db := setupTestDB(t)

	role := models.Role{Name: "Manager", IsManager: true}
	db.Create(&role)
	user := models.User{UID: "uid-4", Email: "d@example.com", Name: "D", RoleID: &role.ID}
	db.Create(&user)

	if p := Resolve(db, user.ID); !p.IsManager {
		t.Fatal("Expected IsManager=true before edit")
	}

	db.Model(&models.Role{}).Where("id = ?", role.ID).Update("is_manager", false)

	if p := Resolve(db, user.ID); p.IsManager {
		t.Error("Expected live resolve to see the role-flag edit")
	}
}
