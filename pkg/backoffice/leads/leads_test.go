package leads

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

	return r
}

func createUser(t *testing.T, db *gorm.DB, uid, email string, roleID *uint) models.User {
	user := models.User{UID: uid, Email: email, Name: "Test User", Active: true, RoleID: roleID}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

func authHeader(user models.User) string {
	token, _ := auth.GenerateToken(user.ID, user.UID, user.Email, false, false)
	return "Bearer " + token
}

func createLead(t *testing.T, db *gorm.DB, company string, ownerID uint, stage models.LeadStage) models.Lead {
	lead := models.Lead{OrganizationID: 1, OwnerID: ownerID, Company: company, Stage: stage}
	if err := db.Create(&lead).Error; err != nil {
		t.Fatalf("Failed to create lead: %v", err)
	}
	return lead
}

func TestListLeadsScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	alice := createUser(t, db, "uid-alice", "alice@example.com", nil)
	bob := createUser(t, db, "uid-bob", "bob@example.com", nil)
	createLead(t, db, "Acme", alice.ID, models.LeadStageNew)
	createLead(t, db, "Globex", bob.ID, models.LeadStageNew)

	req, _ := http.NewRequest("GET", "/leads", nil)
	req.Header.Set("Authorization", authHeader(alice))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var leads []LeadResponse
	json.Unmarshal(resp.Body.Bytes(), &leads)
	if len(leads) != 1 {
		t.Fatalf("Expected 1 lead, got %d", len(leads))
	}
	if leads[0].Company != "Acme" {
		t.Errorf("Expected Acme, got %s", leads[0].Company)
	}
}

func TestManagerSeesAllLeads(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	role := models.Role{Name: "Manager", IsManager: true}
	if err := db.Create(&role).Error; err != nil {
		t.Fatalf("Failed to create role: %v", err)
	}
	manager := createUser(t, db, "uid-mgr", "mgr@example.com", &role.ID)
	other := createUser(t, db, "uid-other", "other@example.com", nil)
	createLead(t, db, "Acme", other.ID, models.LeadStageNew)
	createLead(t, db, "Globex", other.ID, models.LeadStageContacted)

	req, _ := http.NewRequest("GET", "/leads", nil)
	req.Header.Set("Authorization", authHeader(manager))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var leads []LeadResponse
	json.Unmarshal(resp.Body.Bytes(), &leads)
	if len(leads) != 2 {
		t.Errorf("Expected 2 leads, got %d", len(leads))
	}
}

func TestTransitionFollowsPipeline(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	alice := createUser(t, db, "uid-alice", "alice@example.com", nil)
	lead := createLead(t, db, "Acme", alice.ID, models.LeadStageNew)

	body, _ := json.Marshal(TransitionRequest{Stage: "contacted"})
	req, _ := http.NewRequest("POST", "/leads/"+itoa(lead.ID)+"/transition", bytes.NewBuffer(body))
	req.Header.Set("Authorization", authHeader(alice))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var updated LeadResponse
	json.Unmarshal(resp.Body.Bytes(), &updated)
	if updated.Stage != "contacted" {
		t.Errorf("Expected stage contacted, got %s", updated.Stage)
	}
}

func TestTransitionRejectsStageSkip(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	alice := createUser(t, db, "uid-alice", "alice@example.com", nil)
	lead := createLead(t, db, "Acme", alice.ID, models.LeadStageNew)

	body, _ := json.Marshal(TransitionRequest{Stage: "won"})
	req, _ := http.NewRequest("POST", "/leads/"+itoa(lead.ID)+"/transition", bytes.NewBuffer(body))
	req.Header.Set("Authorization", authHeader(alice))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d: %s", resp.Code, resp.Body.String())
	}

	var stored models.Lead
	db.First(&stored, lead.ID)
	if stored.Stage != models.LeadStageNew {
		t.Errorf("Expected stage to stay new, got %s", stored.Stage)
	}
}

func TestTransitionRejectsTerminalStage(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	alice := createUser(t, db, "uid-alice", "alice@example.com", nil)
	lead := createLead(t, db, "Acme", alice.ID, models.LeadStageWon)

	body, _ := json.Marshal(TransitionRequest{Stage: "lost"})
	req, _ := http.NewRequest("POST", "/leads/"+itoa(lead.ID)+"/transition", bytes.NewBuffer(body))
	req.Header.Set("Authorization", authHeader(alice))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusConflict {
		t.Errorf("Expected status 409, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestForeignLeadLooksAbsent(t *testing.T) {
	db := setupTestDB(t)
	router := setupTestRouter(db)

	alice := createUser(t, db, "uid-alice", "alice@example.com", nil)
	bob := createUser(t, db, "uid-bob", "bob@example.com", nil)
	lead := createLead(t, db, "Acme", bob.ID, models.LeadStageNew)

	req, _ := http.NewRequest("GET", "/leads/"+itoa(lead.ID), nil)
	req.Header.Set("Authorization", authHeader(alice))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d: %s", resp.Code, resp.Body.String())
	}
}

func itoa(id uint) string {
	return strconv.Itoa(int(id))
}
