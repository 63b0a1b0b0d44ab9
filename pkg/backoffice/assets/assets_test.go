package assets

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
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

	org := models.Organization{Name: "Backoffice", Slug: "backoffice", IsDefault: true}
	if err := db.Create(&org).Error; err != nil {
		t.Fatalf("Failed to create default org: %v", err)
	}
	return db
}

func setupTestRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler := NewHandler(db)

	api := r.Group("")
	api.Use(auth.AuthMiddleware(), auth.OrgMiddleware(db))
	handler.RegisterRoutes(api)

	admin := api.Group("/admin")
	admin.Use(auth.RequireManager())
	handler.RegisterAdminRoutes(admin)

	return r
}

func createManager(t *testing.T, db *gorm.DB) models.User {
	role := models.Role{Name: "Manager", IsManager: true}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	user := models.User{UID: "uid-mgr", Email: "mgr@example.com", Name: "Manager", Active: true, RoleID: &role.ID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func managerHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.UID, user.Email, true, false)
	return "Bearer " + token
}

func adminPost(t *testing.T, router *gin.Engine, manager models.User, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req, _ := http.NewRequest("POST", path, bytes.NewBuffer(body))
	req.Header.Set("Authorization", managerHeader(manager))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestAssignReturnLifecycle(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	manager := createManager(t, db)

	employee := models.User{UID: "uid-emp", Email: "emp@example.com", Name: "Employee", Active: true}
	if err := db.Create(&employee).Error; err != nil {
		t.Fatalf("Failed to create employee: %v", err)
	}

	resp := adminPost(t, router, manager, "/admin/assets", CreateAssetRequest{Tag: "LT-001", Description: "Laptop"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("Expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	var asset AssetResponse
	json.Unmarshal(resp.Body.Bytes(), &asset)

	path := "/admin/assets/" + strconv.Itoa(int(asset.ID))
	resp = adminPost(t, router, manager, path+"/assign", AssignRequest{UserID: employee.ID})
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	json.Unmarshal(resp.Body.Bytes(), &asset)
	if asset.Status != "assigned" || asset.AssignedToID == nil || *asset.AssignedToID != employee.ID {
		t.Errorf("Expected asset assigned to employee, got %+v", asset)
	}
	if asset.AssignedAt == "" {
		t.Error("Expected assigned_at to be stamped")
	}

	// Double assignment is a conflict.
	resp = adminPost(t, router, manager, path+"/assign", AssignRequest{UserID: manager.ID})
	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", resp.Code)
	}

	resp = adminPost(t, router, manager, path+"/return", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	json.Unmarshal(resp.Body.Bytes(), &asset)
	if asset.Status != "available" || asset.AssignedToID != nil {
		t.Errorf("Expected asset back in the pool, got %+v", asset)
	}
}

func TestRetireRequiresReturn(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	manager := createManager(t, db)

	resp := adminPost(t, router, manager, "/admin/assets", CreateAssetRequest{Tag: "LT-002", Description: "Laptop"})
	var asset AssetResponse
	json.Unmarshal(resp.Body.Bytes(), &asset)
	path := "/admin/assets/" + strconv.Itoa(int(asset.ID))

	adminPost(t, router, manager, path+"/assign", AssignRequest{UserID: manager.ID})

	resp = adminPost(t, router, manager, path+"/retire", nil)
	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409 while assigned, got %d", resp.Code)
	}

	adminPost(t, router, manager, path+"/return", nil)
	resp = adminPost(t, router, manager, path+"/retire", nil)
	if resp.Code != http.StatusOK {
		t.Errorf("Expected status 200 after return, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestDuplicateTagRejected(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)
	manager := createManager(t, db)

	adminPost(t, router, manager, "/admin/assets", CreateAssetRequest{Tag: "LT-003", Description: "Laptop"})
	resp := adminPost(t, router, manager, "/admin/assets", CreateAssetRequest{Tag: "LT-003", Description: "Another laptop"})
	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d", resp.Code)
	}
}

func TestNonManagerCannotCreate(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	user := models.User{UID: "uid-emp", Email: "emp@example.com", Name: "Employee", Active: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user: %v", err)
	}
	token, _ := auth.GenerateToken(user.ID, user.UID, user.Email, false, false)

	body, _ := json.Marshal(CreateAssetRequest{Tag: "LT-004", Description: "Laptop"})
	req, _ := http.NewRequest("POST", "/admin/assets", bytes.NewBuffer(body))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", resp.Code)
	}
}
