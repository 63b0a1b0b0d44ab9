package organizations

import (
	"net/http"
	"regexp"
	"strconv"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*[a-z0-9]$|^[a-z0-9]$`)

// Handler handles organization-related requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new organizations handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateOrgRequest represents the request to create an organization
type CreateOrgRequest struct {
	Name string `json:"name" binding:"required,min=1,max=100"`
	Slug string `json:"slug" binding:"required,min=1,max=50"`
}

// UpdateOrgRequest represents the request to update an organization
type UpdateOrgRequest struct {
	Name string `json:"name" binding:"omitempty,min=1,max=100"`
}

// AddMemberRequest represents the request to add a member
type AddMemberRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=admin member"`
}

// OrgResponse represents an organization in API responses
type OrgResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	IsDefault   bool   `json:"is_default"`
	Role        string `json:"role,omitempty"`
	MemberCount int    `json:"member_count,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// MemberResponse represents a member in API responses
type MemberResponse struct {
	ID        uint   `json:"id"`
	UserID    uint   `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

func orgToResponse(org models.Organization) OrgResponse {
	return OrgResponse{
		ID:        org.ID,
		Name:      org.Name,
		Slug:      org.Slug,
		IsDefault: org.IsDefault,
		CreatedAt: org.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// isOrgAdmin reports whether the user administers the organization
func (h *Handler) isOrgAdmin(userID, orgID uint) bool {
	var membership models.OrganizationMembership
	err := h.db.Where("user_id = ? AND organization_id = ? AND role = ?", userID, orgID, models.OrgRoleAdmin).
		First(&membership).Error
	return err == nil
}

// ListMyOrgs returns the organizations the caller belongs to
// @Summary List my organizations
// @Tags organizations
// @Produce json
// @Success 200 {array} OrgResponse
// @Security BearerAuth
// @Router /orgs [get]
func (h *Handler) ListMyOrgs(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var memberships []models.OrganizationMembership
	err := h.db.Where("user_id = ?", userID).Preload("Organization").Find(&memberships).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch organizations"})
		return
	}

	responses := make([]OrgResponse, len(memberships))
	for i, m := range memberships {
		resp := orgToResponse(m.Organization)
		resp.Role = string(m.Role)
		responses[i] = resp
	}

	c.JSON(http.StatusOK, responses)
}

// CreateOrg creates an organization with the caller as its admin
// @Summary Create organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param request body CreateOrgRequest true "Organization details"
// @Success 201 {object} OrgResponse
// @Failure 409 {object} map[string]string "Slug already in use"
// @Security BearerAuth
// @Router /orgs [post]
func (h *Handler) CreateOrg(c *gin.Context) {
	userID, _ := auth.GetUserID(c)

	var req CreateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !slugRegex.MatchString(req.Slug) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Slug must contain only lowercase letters, numbers, and hyphens (no leading/trailing hyphens)"})
		return
	}

	var existing models.Organization
	if err := h.db.Where("slug = ?", req.Slug).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Slug already in use"})
		return
	}

	org := models.Organization{Name: req.Name, Slug: req.Slug}
	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		membership := models.OrganizationMembership{
			OrganizationID: org.ID,
			UserID:         userID,
			Role:           models.OrgRoleAdmin,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create organization"})
		return
	}

	resp := orgToResponse(org)
	resp.Role = string(models.OrgRoleAdmin)
	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) loadOrg(c *gin.Context) (models.Organization, bool) {
	var org models.Organization
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization ID"})
		return org, false
	}
	if err := h.db.First(&org, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return org, false
	}
	return org, true
}

// UpdateOrg renames an organization; org admins only
// @Summary Update organization
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path int true "Organization ID"
// @Param request body UpdateOrgRequest true "Fields to update"
// @Success 200 {object} OrgResponse
// @Failure 403 {object} map[string]string "Not an organization admin"
// @Security BearerAuth
// @Router /orgs/{id} [put]
func (h *Handler) UpdateOrg(c *gin.Context) {
	org, ok := h.loadOrg(c)
	if !ok {
		return
	}

	userID, _ := auth.GetUserID(c)
	if !h.isOrgAdmin(userID, org.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Organization admin access required"})
		return
	}

	var req UpdateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != "" {
		org.Name = req.Name
	}
	if err := h.db.Save(&org).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update organization"})
		return
	}

	c.JSON(http.StatusOK, orgToResponse(org))
}

// ListMembers returns an organization's members; members only
// @Summary List organization members
// @Tags organizations
// @Produce json
// @Param id path int true "Organization ID"
// @Success 200 {array} MemberResponse
// @Security BearerAuth
// @Router /orgs/{id}/members [get]
func (h *Handler) ListMembers(c *gin.Context) {
	org, ok := h.loadOrg(c)
	if !ok {
		return
	}

	userID, _ := auth.GetUserID(c)
	var caller models.OrganizationMembership
	if err := h.db.Where("user_id = ? AND organization_id = ?", userID, org.ID).First(&caller).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
		return
	}

	var memberships []models.OrganizationMembership
	err := h.db.Where("organization_id = ?", org.ID).Preload("User").Order("created_at ASC").Find(&memberships).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch members"})
		return
	}

	responses := make([]MemberResponse, len(memberships))
	for i, m := range memberships {
		responses[i] = MemberResponse{
			ID:        m.ID,
			UserID:    m.UserID,
			Email:     m.User.Email,
			Name:      m.User.Name,
			Role:      string(m.Role),
			CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	c.JSON(http.StatusOK, responses)
}

// AddMember adds a user to an organization by email; org admins only
// @Summary Add organization member
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path int true "Organization ID"
// @Param request body AddMemberRequest true "Member details"
// @Success 201 {object} MemberResponse
// @Failure 409 {object} map[string]string "Already a member"
// @Security BearerAuth
// @Router /orgs/{id}/members [post]
func (h *Handler) AddMember(c *gin.Context) {
	org, ok := h.loadOrg(c)
	if !ok {
		return
	}

	userID, _ := auth.GetUserID(c)
	if !h.isOrgAdmin(userID, org.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Organization admin access required"})
		return
	}

	var req AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	var existing models.OrganizationMembership
	if err := h.db.Where("user_id = ? AND organization_id = ?", user.ID, org.ID).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "User is already a member"})
		return
	}

	membership := models.OrganizationMembership{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           models.OrgRole(req.Role),
	}
	if err := h.db.Create(&membership).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add member"})
		return
	}

	c.JSON(http.StatusCreated, MemberResponse{
		ID:        membership.ID,
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      string(membership.Role),
		CreatedAt: membership.CreatedAt.Format("2006-01-02T15:04:05Z"),
	})
}

// RemoveMember removes a user from an organization; org admins only. The
// last admin cannot be removed.
// @Summary Remove organization member
// @Tags organizations
// @Produce json
// @Param id path int true "Organization ID"
// @Param memberId path int true "Membership ID"
// @Success 200 {object} map[string]string "Member removed"
// @Failure 409 {object} map[string]string "Cannot remove the last admin"
// @Security BearerAuth
// @Router /orgs/{id}/members/{memberId} [delete]
func (h *Handler) RemoveMember(c *gin.Context) {
	org, ok := h.loadOrg(c)
	if !ok {
		return
	}

	userID, _ := auth.GetUserID(c)
	if !h.isOrgAdmin(userID, org.ID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "Organization admin access required"})
		return
	}

	memberID, err := strconv.ParseUint(c.Param("memberId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID"})
		return
	}

	var membership models.OrganizationMembership
	if err := h.db.Where("organization_id = ?", org.ID).First(&membership, uint(memberID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Member not found"})
		return
	}

	if membership.Role == models.OrgRoleAdmin {
		var adminCount int64
		h.db.Model(&models.OrganizationMembership{}).
			Where("organization_id = ? AND role = ?", org.ID, models.OrgRoleAdmin).
			Count(&adminCount)
		if adminCount <= 1 {
			c.JSON(http.StatusConflict, gin.H{"error": "Cannot remove the last admin"})
			return
		}
	}

	if err := h.db.Delete(&membership).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Member removed"})
}

// RegisterRoutes registers organization routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orgs", h.ListMyOrgs)
	rg.POST("/orgs", h.CreateOrg)
	rg.PUT("/orgs/:id", h.UpdateOrg)
	rg.GET("/orgs/:id/members", h.ListMembers)
	rg.POST("/orgs/:id/members", h.AddMember)
	rg.DELETE("/orgs/:id/members/:memberId", h.RemoveMember)
}
