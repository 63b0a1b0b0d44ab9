package projects

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/perms"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/scope"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles project requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new projects handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateProjectRequest represents the request to create a project
type CreateProjectRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Description string `json:"description"`
}

// UpdateProjectRequest represents the request to update a project
type UpdateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=active on_hold archived"`
}

// AddMemberRequest represents the request to add a project member
type AddMemberRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// ProjectResponse represents a project in API responses
type ProjectResponse struct {
	ID          uint   `json:"id"`
	OwnerID     uint   `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func projectToResponse(p models.Project) ProjectResponse {
	return ProjectResponse{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		Status:      string(p.Status),
		CreatedAt:   p.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   p.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func projectID(p models.Project) uint { return p.ID }

// ListProjects returns the projects visible to the caller: every project in
// the organization for elevated roles, the union of owned and member-of
// projects otherwise. Overlapping results merge by id, so a project owned
// by a caller who is also on its member list appears exactly once.
// @Summary List projects
// @Tags projects
// @Produce json
// @Success 200 {array} ProjectResponse
// @Failure 503 {object} map[string]string "Permissions not yet resolved"
// @Security BearerAuth
// @Router /projects [get]
func (h *Handler) ListProjects(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	mode := scope.ModeFor(perms.Resolve(h.db, userID))

	broad := func() ([]models.Project, error) {
		var items []models.Project
		err := h.db.Where("organization_id = ?", orgID).Find(&items).Error
		return items, err
	}
	owner := func() ([]models.Project, error) {
		var items []models.Project
		err := h.db.Where("organization_id = ? AND owner_id = ?", orgID, userID).Find(&items).Error
		return items, err
	}
	member := func() ([]models.Project, error) {
		var items []models.Project
		err := h.db.
			Joins("JOIN project_members ON project_members.project_id = projects.id").
			Where("projects.organization_id = ? AND project_members.user_id = ? AND project_members.deleted_at IS NULL", orgID, userID).
			Find(&items).Error
		return items, err
	}

	result, err := scope.Select(mode, projectID, broad, owner, member)
	if err != nil || result.Loading {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Projects are still loading, retry shortly"})
		return
	}

	sort.Slice(result.Items, func(i, j int) bool {
		return result.Items[i].CreatedAt.After(result.Items[j].CreatedAt)
	})

	responses := make([]ProjectResponse, len(result.Items))
	for i, p := range result.Items {
		responses[i] = projectToResponse(p)
	}

	c.JSON(http.StatusOK, responses)
}

// canAccess reports whether the caller may see the project
func (h *Handler) canAccess(project *models.Project, userID uint, p perms.Permissions) bool {
	if p.Elevated() {
		return true
	}
	if project.OwnerID == userID {
		return true
	}
	var member models.ProjectMember
	return h.db.Where("project_id = ? AND user_id = ?", project.ID, userID).First(&member).Error == nil
}

// GetProject returns a single project the caller may see
// @Summary Get project
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} ProjectResponse
// @Failure 404 {object} map[string]string "Project not found"
// @Security BearerAuth
// @Router /projects/{id} [get]
func (h *Handler) GetProject(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var project models.Project
	if err := h.db.Where("organization_id = ?", orgID).First(&project, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	p := perms.Resolve(h.db, userID)
	if !p.Ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Permissions not yet resolved, retry shortly"})
		return
	}
	if !h.canAccess(&project, userID, p) {
		// Hidden records are indistinguishable from absent ones
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	c.JSON(http.StatusOK, projectToResponse(project))
}

// CreateProject creates a project owned by the caller
// @Summary Create project
// @Tags projects
// @Accept json
// @Produce json
// @Param request body CreateProjectRequest true "Project details"
// @Success 201 {object} ProjectResponse
// @Security BearerAuth
// @Router /projects [post]
func (h *Handler) CreateProject(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project := models.Project{
		OrganizationID: orgID,
		OwnerID:        userID,
		Name:           req.Name,
		Description:    req.Description,
		Status:         models.ProjectStatusActive,
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		// The owner is also on the member list; the id-keyed merge keeps
		// the project from appearing twice in scoped listings.
		member := models.ProjectMember{ProjectID: project.ID, UserID: userID}
		return tx.Create(&member).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, projectToResponse(project))
}

// UpdateProject updates a project (owner or elevated only)
// @Summary Update project
// @Tags projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body UpdateProjectRequest true "Fields to update"
// @Success 200 {object} ProjectResponse
// @Failure 403 {object} map[string]string "Not the project owner"
// @Failure 404 {object} map[string]string "Project not found"
// @Security BearerAuth
// @Router /projects/{id} [put]
func (h *Handler) UpdateProject(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var project models.Project
	if err := h.db.Where("organization_id = ?", orgID).First(&project, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	p := perms.Resolve(h.db, userID)
	if project.OwnerID != userID && !p.Elevated() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner can update it"})
		return
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Description != nil {
		project.Description = *req.Description
	}
	if req.Status != nil {
		project.Status = models.ProjectStatus(*req.Status)
	}

	if err := h.db.Save(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, projectToResponse(project))
}

// DeleteProject deletes a project (owner or elevated only)
// @Summary Delete project
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Success 200 {object} map[string]string "Project deleted"
// @Failure 404 {object} map[string]string "Project not found"
// @Security BearerAuth
// @Router /projects/{id} [delete]
func (h *Handler) DeleteProject(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var project models.Project
	if err := h.db.Where("organization_id = ?", orgID).First(&project, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	p := perms.Resolve(h.db, userID)
	if project.OwnerID != userID && !p.Elevated() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner can delete it"})
		return
	}

	if err := h.db.Delete(&project).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted"})
}

// AddMember adds a user to the project's member list
// @Summary Add project member
// @Tags projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param request body AddMemberRequest true "Member to add"
// @Success 201 {object} map[string]string "Member added"
// @Failure 409 {object} map[string]string "Already a member"
// @Security BearerAuth
// @Router /projects/{id}/members [post]
func (h *Handler) AddMember(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}

	var project models.Project
	if err := h.db.Where("organization_id = ?", orgID).First(&project, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	p := perms.Resolve(h.db, userID)
	if project.OwnerID != userID && !p.Elevated() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner can manage members"})
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.ProjectMember
	if err := h.db.Where("project_id = ? AND user_id = ?", project.ID, req.UserID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member"})
		return
	}

	member := models.ProjectMember{ProjectID: project.ID, UserID: req.UserID}
	if err := h.db.Create(&member).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Member added"})
}

// RemoveMember removes a user from the project's member list
// @Summary Remove project member
// @Tags projects
// @Produce json
// @Param id path int true "Project ID"
// @Param userId path int true "User ID"
// @Success 200 {object} map[string]string "Member removed"
// @Failure 404 {object} map[string]string "Membership not found"
// @Security BearerAuth
// @Router /projects/{id}/members/{userId} [delete]
func (h *Handler) RemoveMember(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid project ID"})
		return
	}
	memberID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var project models.Project
	if err := h.db.Where("organization_id = ?", orgID).First(&project, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	p := perms.Resolve(h.db, userID)
	if project.OwnerID != userID && !p.Elevated() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the project owner can manage members"})
		return
	}

	var member models.ProjectMember
	if err := h.db.Where("project_id = ? AND user_id = ?", project.ID, uint(memberID)).First(&member).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
		return
	}

	if err := h.db.Delete(&member).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// RegisterRoutes registers project routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/projects", h.ListProjects)
	rg.GET("/projects/:id", h.GetProject)
	rg.POST("/projects", h.CreateProject)
	rg.PUT("/projects/:id", h.UpdateProject)
	rg.DELETE("/projects/:id", h.DeleteProject)
	rg.POST("/projects/:id/members", h.AddMember)
	rg.DELETE("/projects/:id/members/:userId", h.RemoveMember)
}
