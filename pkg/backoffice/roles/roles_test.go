package roles

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/perms"
	"github.com/gin-gonic/gin"
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

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)

	admin := r.Group("/admin")
	admin.Use(auth.AuthMiddleware(), auth.RequireManager())
	handler.RegisterRoutes(admin)

	return r
}

func managerAuthHeader(t *testing.T) string {
	token, err := auth.GenerateToken(1, "uid-admin", "admin@example.com", true, false)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	return "Bearer " + token
}

func TestCreateRole(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	body, _ := json.Marshal(CreateRoleRequest{
		Name:  "Developer",
		IsDev: true,
	})
	req, _ := http.NewRequest("POST", "/admin/roles", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", managerAuthHeader(t))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}

	var role RoleResponse
	json.Unmarshal(resp.Body.Bytes(), &role)
	if role.Name != "Developer" || !role.IsDev || role.IsManager {
		t.Errorf("Unexpected role in response: %+v", role)
	}
}

func TestCreateDuplicateRoleName(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	db.Create(&models.Role{Name: "Manager", IsManager: true})

	body, _ := json.Marshal(CreateRoleRequest{Name: "Manager"})
	req, _ := http.NewRequest("POST", "/admin/roles", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", managerAuthHeader(t))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409 for duplicate role name, got %d", resp.Code)
	}
}

func TestUpdateRoleFlagsLeavesClaimsStale(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	role := models.Role{Name: "Manager", IsManager: true}
	db.Create(&role)
	user := models.User{UID: "uid-1", Email: "a@example.com", Name: "A", RoleID: &role.ID}
	db.Create(&user)
	db.Create(&models.UserClaims{UserUID: user.UID, IsManager: true})

	off := false
	body, _ := json.Marshal(UpdateRoleRequest{IsManager: &off})
	req, _ := http.NewRequest("PUT", "/admin/roles/1", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", managerAuthHeader(t))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	// Published claims keep the old flags; live resolution sees the edit.
	var claims models.UserClaims
	db.Where("user_uid = ?", user.UID).First(&claims)
	if !claims.IsManager {
		t.Error("Expected published claims to stay stale after role-flag edit")
	}
	if p := perms.Resolve(db, user.ID); p.IsManager {
		t.Error("Expected live permission resolution to see the edit")
	}
}

func TestDeleteRoleLeavesDanglingReference(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	role := models.Role{Name: "Manager", IsManager: true}
	db.Create(&role)
	user := models.User{UID: "uid-1", Email: "a@example.com", Name: "A", RoleID: &role.ID}
	db.Create(&user)

	req, _ := http.NewRequest("DELETE", "/admin/roles/1", nil)
	req.Header.Set("Authorization", managerAuthHeader(t))
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.Code)
	}

	// No cascading cleanup: user still references the deleted role and
	// resolves to default-deny.
	var loaded models.User
	db.First(&loaded, user.ID)
	if loaded.RoleID == nil {
		t.Error("Expected user's role reference to remain after role deletion")
	}
	if p := perms.Resolve(db, user.ID); !p.Ready || p.Elevated() {
		t.Error("Expected dangling role reference to resolve to default-deny")
	}
}

func TestListRolesRequiresManager(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	token, _ := auth.GenerateToken(1, "uid-x", "x@example.com", false, false)
	req, _ := http.NewRequest("GET", "/admin/roles", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()

	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403 for non-manager, got %d", resp.Code)
	}
}
