package claimsync

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

func createRole(t *testing.T, db *gorm.DB, name string, isManager, isDev bool) models.Role {
	role := models.Role{Name: name, IsManager: isManager, IsDev: isDev}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	return role
}

func createUser(t *testing.T, db *gorm.DB, uid, email string, roleID *uint) models.User {
	user := models.User{UID: uid, Email: email, Name: "Test User", RoleID: roleID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	return user
}

func loadClaims(t *testing.T, db *gorm.DB, uid string) *models.UserClaims {
	var claims models.UserClaims
	if err := db.Where("user_uid = ?", uid).First(&claims).Error; err != nil {
		return nil
	}
	return &claims
}

// countWrites registers callbacks that count create/update/query operations
// issued through the session
func countOps(db *gorm.DB) *int {
	var n int
	count := func(*gorm.DB) { n++ }
	db.Callback().Query().After("gorm:query").Register("test_count_query", count)
	db.Callback().Create().After("gorm:create").Register("test_count_create", count)
	db.Callback().Update().After("gorm:update").Register("test_count_update", count)
	return &n
}

func TestNoOpWhenRoleUnchanged(t *testing.T) {
	db := setupTestDB(t)
	role := createRole(t, db, "Manager", true, false)
	user := createUser(t, db, "uid-1", "a@example.com", &role.ID)

	sync := New(db)
	ops := countOps(db)

	before := user
	after := user
	after.Name = "Renamed"
	if err := sync.UserUpdated(&before, &after); err != nil {
		t.Fatalf("UserUpdated failed: %v", err)
	}

	if *ops != 0 {
		t.Errorf("Expected zero database operations for unchanged role, got %d", *ops)
	}
	if claims := loadClaims(t, db, "uid-1"); claims != nil {
		t.Error("Expected no claims to be published for unchanged role")
	}
}

func TestNoOpWhenBothRolesAbsent(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "uid-2", "b@example.com", nil)

	sync := New(db)
	ops := countOps(db)

	before := user
	after := user
	if err := sync.UserUpdated(&before, &after); err != nil {
		t.Fatalf("UserUpdated failed: %v", err)
	}
	if *ops != 0 {
		t.Errorf("Expected zero database operations when both role ids are absent, got %d", *ops)
	}
}

func TestPublishOnRoleChange(t *testing.T) {
	db := setupTestDB(t)
	manager := createRole(t, db, "Manager", true, false)
	dev := createRole(t, db, "Developer", false, true)
	user := createUser(t, db, "uid-3", "c@example.com", &manager.ID)

	sync := New(db)

	before := user
	after := user
	after.RoleID = &dev.ID
	if err := sync.UserUpdated(&before, &after); err != nil {
		t.Fatalf("UserUpdated failed: %v", err)
	}

	claims := loadClaims(t, db, "uid-3")
	if claims == nil {
		t.Fatal("Expected claims to be published")
	}
	if claims.IsManager || !claims.IsDev {
		t.Errorf("Expected claims {false, true}, got {%v, %v}", claims.IsManager, claims.IsDev)
	}

	var refreshed models.User
	db.First(&refreshed, user.ID)
	if refreshed.TokenRefreshedAt == nil {
		t.Error("Expected touch field to be stamped after publish")
	}
}

func TestRoleClearedPublishesDeny(t *testing.T) {
	db := setupTestDB(t)
	manager := createRole(t, db, "Manager", true, true)
	user := createUser(t, db, "uid-4", "d@example.com", &manager.ID)

	sync := New(db)

	before := user
	after := user
	after.RoleID = nil
	if err := sync.UserUpdated(&before, &after); err != nil {
		t.Fatalf("UserUpdated failed: %v", err)
	}

	claims := loadClaims(t, db, "uid-4")
	if claims == nil {
		t.Fatal("Expected claims to be published")
	}
	if claims.IsManager || claims.IsDev {
		t.Error("Expected default-deny claims when role is cleared")
	}
}

func TestDanglingRolePublishesDeny(t *testing.T) {
	db := setupTestDB(t)
	user := createUser(t, db, "uid-5", "e@example.com", nil)

	sync := New(db)

	missing := uint(9999)
	before := user
	after := user
	after.RoleID = &missing
	if err := sync.UserUpdated(&before, &after); err != nil {
		t.Fatalf("UserUpdated should not fail on a dangling role: %v", err)
	}

	claims := loadClaims(t, db, "uid-5")
	if claims == nil {
		t.Fatal("Expected claims to be published for dangling role")
	}
	if claims.IsManager || claims.IsDev {
		t.Error("Expected default-deny claims for dangling role reference")
	}
}

func TestPublishReplacesPriorPayload(t *testing.T) {
	db := setupTestDB(t)
	manager := createRole(t, db, "Manager", true, false)
	dev := createRole(t, db, "Developer", false, true)
	user := createUser(t, db, "uid-6", "f@example.com", nil)

	sync := New(db)

	before := user
	after := user
	after.RoleID = &manager.ID
	if err := sync.UserUpdated(&before, &after); err != nil {
		t.Fatalf("first sync failed: %v", err)
	}

	second := after
	second.RoleID = &dev.ID
	if err := sync.UserUpdated(&after, &second); err != nil {
		t.Fatalf("second sync failed: %v", err)
	}

	claims := loadClaims(t, db, "uid-6")
	if claims == nil {
		t.Fatal("Expected claims to exist")
	}
	if claims.IsManager || !claims.IsDev {
		t.Errorf("Expected replaced claims {false, true}, got {%v, %v}", claims.IsManager, claims.IsDev)
	}

	var count int64
	db.Model(&models.UserClaims{}).Where("user_uid = ?", "uid-6").Count(&count)
	if count != 1 {
		t.Errorf("Expected exactly one claims row per user, got %d", count)
	}
}

func TestResyncRepublishesWithoutRoleChange(t *testing.T) {
	db := setupTestDB(t)
	role := createRole(t, db, "Manager", true, false)
	user := createUser(t, db, "uid-7", "g@example.com", &role.ID)

	sync := New(db)
	if err := sync.Resync(&user); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}

	claims := loadClaims(t, db, "uid-7")
	if claims == nil || !claims.IsManager {
		t.Fatal("Expected claims published from current role on resync")
	}

	// Flip the role flags directly: issued claims must stay stale until the
	// next resync, then reflect the new flags.
	db.Model(&models.Role{}).Where("id = ?", role.ID).Update("is_manager", false)

	claims = loadClaims(t, db, "uid-7")
	if !claims.IsManager {
		t.Fatal("Expected claims to remain stale after a role-flag edit alone")
	}

	if err := sync.Resync(&user); err != nil {
		t.Fatalf("Resync failed: %v", err)
	}
	claims = loadClaims(t, db, "uid-7")
	if claims.IsManager {
		t.Error("Expected resync to pick up edited role flags")
	}
}
