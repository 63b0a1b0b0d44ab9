package auth

import (
	"net/http"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Handler handles authentication requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new auth handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Name     string `json:"name" binding:"required"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse represents the authentication response
type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID               uint   `json:"id"`
	UID              string `json:"uid"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	RoleID           *uint  `json:"role_id"`
	IsManager        bool   `json:"is_manager"`
	IsDev            bool   `json:"is_dev"`
	TokenRefreshedAt string `json:"token_refreshed_at,omitempty"`
}

// publishedClaims reads the published claims record for a user. A user with
// no record has never been synchronized and resolves to default-deny.
func publishedClaims(db *gorm.DB, uid string) (isManager, isDev bool) {
	var claims models.UserClaims
	if err := db.Where("user_uid = ?", uid).First(&claims).Error; err != nil {
		return false, false
	}
	return claims.IsManager, claims.IsDev
}

func userToResponse(user models.User, isManager, isDev bool) UserResponse {
	resp := UserResponse{
		ID:        user.ID,
		UID:       user.UID,
		Email:     user.Email,
		Name:      user.Name,
		RoleID:    user.RoleID,
		IsManager: isManager,
		IsDev:     isDev,
	}
	if user.TokenRefreshedAt != nil {
		resp.TokenRefreshedAt = user.TokenRefreshedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// Register handles user registration
// @Summary Register a new user
// @Description Create a new user account and receive a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration details"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register [post]
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Check if email already exists
	var existingUser models.User
	if err := h.db.Where("email = ?", req.Email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
		return
	}

	// Hash password
	hashedPassword, err := HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}

	// New accounts start with no role: default-deny until an admin assigns one
	user := models.User{
		UID:          uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hashedPassword,
		Name:         req.Name,
		Active:       true,
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		// Add user to the default organization
		var defaultOrg models.Organization
		if err := tx.Where("is_default = ?", true).First(&defaultOrg).Error; err != nil {
			return err
		}
		membership := models.OrganizationMembership{
			OrganizationID: defaultOrg.ID,
			UserID:         user.ID,
			Role:           models.OrgRoleMember,
		}
		return tx.Create(&membership).Error
	})

	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	// Generate token (no role yet, so both flags are false)
	token, err := GenerateToken(user.ID, user.UID, user.Email, false, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Token: token,
		User:  userToResponse(user, false, false),
	})
}

// Login handles user login
// @Summary Login
// @Description Authenticate with email and password, receive a JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Find user by email
	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	// Check password
	if !CheckPassword(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if !user.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	}

	// Generate token from the published claims record
	isManager, isDev := publishedClaims(h.db, user.UID)
	token, err := GenerateToken(user.ID, user.UID, user.Email, isManager, isDev)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  userToResponse(user, isManager, isDev),
	})
}

// Refresh mints a fresh token from the currently published claims.
// Clients call this when they observe the touch field on their user record
// move - it is the only way an already-issued session picks up a role change.
// @Summary Refresh token
// @Description Mint a new JWT token reflecting the latest published claims
// @Tags auth
// @Produce json
// @Success 200 {object} AuthResponse
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /auth/refresh [post]
func (h *Handler) Refresh(c *gin.Context) {
	userID, exists := GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	isManager, isDev := publishedClaims(h.db, user.UID)
	token, err := GenerateToken(user.ID, user.UID, user.Email, isManager, isDev)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  userToResponse(user, isManager, isDev),
	})
}

// Me returns the current authenticated user
// @Summary Get current user
// @Description Get the authenticated user's profile, including the token
// @Description refresh marker clients watch to know when to re-mint
// @Tags auth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]string "Authentication required"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	userID, exists := GetUserID(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	isManager, isDev := publishedClaims(h.db, user.UID)
	c.JSON(http.StatusOK, userToResponse(user, isManager, isDev))
}

// Logout handles user logout (client-side token invalidation)
// @Summary Logout
// @Description Logout the current user (client-side token invalidation)
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logged out successfully"
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// RegisterRoutes registers auth routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/logout", h.Logout)
	rg.POST("/refresh", AuthMiddleware(), h.Refresh)
	rg.GET("/me", AuthMiddleware(), h.Me)
}
