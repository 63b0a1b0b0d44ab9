package users

import (
	"net/http"
	"strconv"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles user administration requests
type Handler struct {
	db    *gorm.DB
	store *Store
}

// NewHandler creates a new users handler
func NewHandler(db *gorm.DB, store *Store) *Handler {
	return &Handler{db: db, store: store}
}

// UserResponse represents user data in admin responses
type UserResponse struct {
	ID               uint   `json:"id"`
	UID              string `json:"uid"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Active           bool   `json:"active"`
	RoleID           *uint  `json:"role_id"`
	RoleName         string `json:"role_name,omitempty"`
	CreatedAt        string `json:"created_at"`
	TokenRefreshedAt string `json:"token_refreshed_at,omitempty"`
}

// SetRoleRequest represents the request to change a user's role assignment.
// A null role_id clears the assignment.
type SetRoleRequest struct {
	RoleID *uint `json:"role_id"`
}

// UpdateUserRequest represents the request to update a user's profile
type UpdateUserRequest struct {
	Name   *string `json:"name"`
	Active *bool   `json:"active"`
}

func userToResponse(user models.User) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		UID:       user.UID,
		Email:     user.Email,
		Name:      user.Name,
		Active:    user.Active,
		RoleID:    user.RoleID,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if user.Role != nil {
		resp.RoleName = user.Role.Name
	}
	if user.TokenRefreshedAt != nil {
		resp.TokenRefreshedAt = user.TokenRefreshedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// ListUsers returns all users (manager only)
// @Summary List users
// @Description List all users, optionally filtered by search term or role
// @Tags users
// @Produce json
// @Param q query string false "Search by email or name"
// @Param role_id query int false "Filter by role id"
// @Success 200 {array} UserResponse
// @Security BearerAuth
// @Router /admin/users [get]
func (h *Handler) ListUsers(c *gin.Context) {
	var users []models.User

	query := h.db.Preload("Role").Order("created_at DESC")

	if search := c.Query("q"); search != "" {
		query = query.Where("email LIKE ? OR name LIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if roleID := c.Query("role_id"); roleID != "" {
		query = query.Where("role_id = ?", roleID)
	}

	if err := query.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}

	responses := make([]UserResponse, len(users))
	for i, user := range users {
		responses[i] = userToResponse(user)
	}

	c.JSON(http.StatusOK, responses)
}

// GetUser returns a single user by ID (manager only)
// @Summary Get user
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [get]
func (h *Handler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var user models.User
	if err := h.db.Preload("Role").First(&user, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(user))
}

// UpdateUser updates a user's profile fields (manager only)
// @Summary Update user
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body UpdateUserRequest true "Fields to update"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [put]
func (h *Handler) UpdateUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.store.UpdateProfile(uint(id), req.Name, req.Active)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(*user))
}

// SetRole changes a user's role assignment (manager only). The claims
// synchronizer runs as part of the update; its failures are logged, not
// returned, so the role write itself is never reported as failed because
// of a sync problem.
// @Summary Set user role
// @Description Assign or clear a user's role; claims are resynchronized
// @Tags users
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body SetRoleRequest true "Role assignment"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string "User or role not found"
// @Security BearerAuth
// @Router /admin/users/{id}/role [put]
func (h *Handler) SetRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Reject assignment to a role that does not exist. Dangling references
	// can still arise from later role deletion; they resolve to deny.
	if req.RoleID != nil {
		var role models.Role
		if err := h.db.First(&role, *req.RoleID).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Role not found"})
			return
		}
	}

	user, err := h.store.SetRole(uint(id), req.RoleID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(*user))
}

// ResyncClaims republishes a user's claims from their current role without
// changing the assignment (manager only). This is the repair path for users
// holding stale claims after a role-flag edit.
// @Summary Resync user claims
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} UserResponse
// @Failure 404 {object} map[string]string "User not found"
// @Failure 502 {object} map[string]string "Resync failed"
// @Security BearerAuth
// @Router /admin/users/{id}/resync-claims [post]
func (h *Handler) ResyncClaims(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	user, err := h.store.Resync(uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to resync claims"})
		return
	}

	c.JSON(http.StatusOK, userToResponse(*user))
}

// RegisterRoutes registers user administration routes on the given group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users", h.ListUsers)
	rg.GET("/users/:id", h.GetUser)
	rg.PUT("/users/:id", h.UpdateUser)
	rg.PUT("/users/:id/role", h.SetRole)
	rg.POST("/users/:id/resync-claims", h.ResyncClaims)
}
