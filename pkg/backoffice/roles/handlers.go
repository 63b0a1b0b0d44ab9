package roles

import (
	"net/http"
	"strconv"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles role administration requests.
//
// Editing a role's flags does not republish claims for users already
// assigned that role; they keep stale claims until their assignment is
// rewritten, they log in again, or an admin hits the resync endpoint.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new roles handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateRoleRequest represents the request to create a role
type CreateRoleRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	Description string `json:"description"`
	IsManager   bool   `json:"is_manager"`
	IsDev       bool   `json:"is_dev"`
}

// UpdateRoleRequest represents the request to update a role
type UpdateRoleRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=100"`
	Description *string `json:"description"`
	IsManager   *bool   `json:"is_manager"`
	IsDev       *bool   `json:"is_dev"`
}

// RoleResponse represents a role in API responses
type RoleResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	IsManager   bool   `json:"is_manager"`
	IsDev       bool   `json:"is_dev"`
	UserCount   int64  `json:"user_count"`
	CreatedAt   string `json:"created_at"`
}

func (h *Handler) roleToResponse(role models.Role) RoleResponse {
	var userCount int64
	h.db.Model(&models.User{}).Where("role_id = ?", role.ID).Count(&userCount)

	return RoleResponse{
		ID:          role.ID,
		Name:        role.Name,
		Description: role.Description,
		IsManager:   role.IsManager,
		IsDev:       role.IsDev,
		UserCount:   userCount,
		CreatedAt:   role.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ListRoles returns all roles
// @Summary List roles
// @Tags roles
// @Produce json
// @Success 200 {array} RoleResponse
// @Security BearerAuth
// @Router /admin/roles [get]
func (h *Handler) ListRoles(c *gin.Context) {
	var roles []models.Role
	if err := h.db.Order("name").Find(&roles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch roles"})
		return
	}

	responses := make([]RoleResponse, len(roles))
	for i, role := range roles {
		responses[i] = h.roleToResponse(role)
	}

	c.JSON(http.StatusOK, responses)
}

// GetRole returns a single role by ID
// @Summary Get role
// @Tags roles
// @Produce json
// @Param id path int true "Role ID"
// @Success 200 {object} RoleResponse
// @Failure 404 {object} map[string]string "Role not found"
// @Security BearerAuth
// @Router /admin/roles/{id} [get]
func (h *Handler) GetRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role ID"})
		return
	}

	var role models.Role
	if err := h.db.First(&role, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
		return
	}

	c.JSON(http.StatusOK, h.roleToResponse(role))
}

// CreateRole creates a new role
// @Summary Create role
// @Tags roles
// @Accept json
// @Produce json
// @Param request body CreateRoleRequest true "Role details"
// @Success 201 {object} RoleResponse
// @Failure 409 {object} map[string]string "Role name already exists"
// @Security BearerAuth
// @Router /admin/roles [post]
func (h *Handler) CreateRole(c *gin.Context) {
	var req CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Role
	if err := h.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "A role with this name already exists"})
		return
	}

	role := models.Role{
		Name:        req.Name,
		Description: req.Description,
		IsManager:   req.IsManager,
		IsDev:       req.IsDev,
	}
	if err := h.db.Create(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create role"})
		return
	}

	c.JSON(http.StatusCreated, h.roleToResponse(role))
}

// UpdateRole updates a role's name, description, or permission flags.
// Flag changes take effect for new syncs and live permission resolution
// only; already-published claims stay as they are.
// @Summary Update role
// @Tags roles
// @Accept json
// @Produce json
// @Param id path int true "Role ID"
// @Param request body UpdateRoleRequest true "Fields to update"
// @Success 200 {object} RoleResponse
// @Failure 404 {object} map[string]string "Role not found"
// @Security BearerAuth
// @Router /admin/roles/{id} [put]
func (h *Handler) UpdateRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role ID"})
		return
	}

	var role models.Role
	if err := h.db.First(&role, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
		return
	}

	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		var existing models.Role
		if err := h.db.Where("name = ? AND id != ?", *req.Name, role.ID).First(&existing).Error; err == nil {
			c.JSON(http.StatusConflict, gin.H{"error": "A role with this name already exists"})
			return
		}
		role.Name = *req.Name
	}
	if req.Description != nil {
		role.Description = *req.Description
	}
	if req.IsManager != nil {
		role.IsManager = *req.IsManager
	}
	if req.IsDev != nil {
		role.IsDev = *req.IsDev
	}

	if err := h.db.Save(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	c.JSON(http.StatusOK, h.roleToResponse(role))
}

// DeleteRole deletes a role. Users still referencing it are not cleaned up;
// their permissions resolve to default-deny from that point on.
// @Summary Delete role
// @Tags roles
// @Produce json
// @Param id path int true "Role ID"
// @Success 200 {object} map[string]string "Role deleted"
// @Failure 404 {object} map[string]string "Role not found"
// @Security BearerAuth
// @Router /admin/roles/{id} [delete]
func (h *Handler) DeleteRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role ID"})
		return
	}

	var role models.Role
	if err := h.db.First(&role, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
		return
	}

	if err := h.db.Delete(&role).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Role deleted"})
}

// RegisterRoutes registers role administration routes on the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/roles", h.ListRoles)
	rg.GET("/roles/:id", h.GetRole)
	rg.POST("/roles", h.CreateRole)
	rg.PUT("/roles/:id", h.UpdateRole)
	rg.DELETE("/roles/:id", h.DeleteRole)
}
