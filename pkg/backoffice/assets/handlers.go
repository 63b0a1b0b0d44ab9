package assets

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles asset tracking requests. Listing is open to every
// member of the organization; mutations sit behind the manager gate.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new assets handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateAssetRequest represents the request to register an asset
type CreateAssetRequest struct {
	Tag          string `json:"tag" binding:"required,min=1,max=50"`
	Description  string `json:"description" binding:"required,min=1,max=500"`
	SerialNumber string `json:"serial_number"`
}

// UpdateAssetRequest represents the request to update an asset's details
type UpdateAssetRequest struct {
	Description  *string `json:"description" binding:"omitempty,min=1,max=500"`
	SerialNumber *string `json:"serial_number"`
}

// AssignRequest represents the request to hand an asset to a user
type AssignRequest struct {
	UserID uint `json:"user_id" binding:"required"`
}

// AssetResponse represents an asset in API responses
type AssetResponse struct {
	ID           uint   `json:"id"`
	Tag          string `json:"tag"`
	Description  string `json:"description"`
	SerialNumber string `json:"serial_number"`
	Status       string `json:"status"`
	AssignedToID *uint  `json:"assigned_to_id,omitempty"`
	AssignedAt   string `json:"assigned_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func assetToResponse(a models.Asset) AssetResponse {
	resp := AssetResponse{
		ID:           a.ID,
		Tag:          a.Tag,
		Description:  a.Description,
		SerialNumber: a.SerialNumber,
		Status:       string(a.Status),
		AssignedToID: a.AssignedToID,
		CreatedAt:    a.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if a.AssignedAt != nil {
		resp.AssignedAt = a.AssignedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// ListAssets returns the organization's assets
// @Summary List assets
// @Tags assets
// @Produce json
// @Param status query string false "Filter by status"
// @Param mine query bool false "Only assets assigned to the caller"
// @Success 200 {array} AssetResponse
// @Security BearerAuth
// @Router /assets [get]
func (h *Handler) ListAssets(c *gin.Context) {
	orgID, _ := auth.GetOrgID(c)

	query := h.db.Where("organization_id = ?", orgID).Order("tag ASC")
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if strings.EqualFold(c.Query("mine"), "true") {
		userID, _ := auth.GetUserID(c)
		query = query.Where("assigned_to_id = ?", userID)
	}

	var assets []models.Asset
	if err := query.Find(&assets).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assets"})
		return
	}

	responses := make([]AssetResponse, len(assets))
	for i, a := range assets {
		responses[i] = assetToResponse(a)
	}

	c.JSON(http.StatusOK, responses)
}

// CreateAsset registers a new asset
// @Summary Create asset
// @Tags assets
// @Accept json
// @Produce json
// @Param request body CreateAssetRequest true "Asset details"
// @Success 201 {object} AssetResponse
// @Failure 409 {object} map[string]string "Tag already in use"
// @Security BearerAuth
// @Router /admin/assets [post]
func (h *Handler) CreateAsset(c *gin.Context) {
	orgID, _ := auth.GetOrgID(c)

	var req CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.Asset
	if err := h.db.Where("tag = ?", req.Tag).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Asset tag already in use"})
		return
	}

	asset := models.Asset{
		OrganizationID: orgID,
		Tag:            req.Tag,
		Description:    req.Description,
		SerialNumber:   req.SerialNumber,
		Status:         models.AssetStatusAvailable,
	}
	if err := h.db.Create(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create asset"})
		return
	}

	c.JSON(http.StatusCreated, assetToResponse(asset))
}

func (h *Handler) loadAsset(c *gin.Context) (models.Asset, bool) {
	orgID, _ := auth.GetOrgID(c)

	var asset models.Asset
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid asset ID"})
		return asset, false
	}
	if err := h.db.Where("organization_id = ?", orgID).First(&asset, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Asset not found"})
		return asset, false
	}
	return asset, true
}

// GetAsset returns a single asset
// @Summary Get asset
// @Tags assets
// @Produce json
// @Param id path int true "Asset ID"
// @Success 200 {object} AssetResponse
// @Failure 404 {object} map[string]string "Asset not found"
// @Security BearerAuth
// @Router /assets/{id} [get]
func (h *Handler) GetAsset(c *gin.Context) {
	asset, ok := h.loadAsset(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, assetToResponse(asset))
}

// UpdateAsset updates an asset's details
// @Summary Update asset
// @Tags assets
// @Accept json
// @Produce json
// @Param id path int true "Asset ID"
// @Param request body UpdateAssetRequest true "Fields to update"
// @Success 200 {object} AssetResponse
// @Security BearerAuth
// @Router /admin/assets/{id} [put]
func (h *Handler) UpdateAsset(c *gin.Context) {
	asset, ok := h.loadAsset(c)
	if !ok {
		return
	}

	var req UpdateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Description != nil {
		asset.Description = *req.Description
	}
	if req.SerialNumber != nil {
		asset.SerialNumber = *req.SerialNumber
	}

	if err := h.db.Save(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update asset"})
		return
	}

	c.JSON(http.StatusOK, assetToResponse(asset))
}

// Assign hands an available asset to a user
// @Summary Assign asset
// @Tags assets
// @Accept json
// @Produce json
// @Param id path int true "Asset ID"
// @Param request body AssignRequest true "Assignee"
// @Success 200 {object} AssetResponse
// @Failure 409 {object} map[string]string "Asset not available"
// @Security BearerAuth
// @Router /admin/assets/{id}/assign [post]
func (h *Handler) Assign(c *gin.Context) {
	asset, ok := h.loadAsset(c)
	if !ok {
		return
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if asset.Status != models.AssetStatusAvailable {
		c.JSON(http.StatusConflict, gin.H{"error": "Asset is not available"})
		return
	}

	var user models.User
	if err := h.db.First(&user, req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	now := time.Now()
	asset.Status = models.AssetStatusAssigned
	asset.AssignedToID = &user.ID
	asset.AssignedAt = &now

	if err := h.db.Save(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign asset"})
		return
	}

	c.JSON(http.StatusOK, assetToResponse(asset))
}

// Return takes an assigned asset back into the available pool
// @Summary Return asset
// @Tags assets
// @Produce json
// @Param id path int true "Asset ID"
// @Success 200 {object} AssetResponse
// @Failure 409 {object} map[string]string "Asset not assigned"
// @Security BearerAuth
// @Router /admin/assets/{id}/return [post]
func (h *Handler) Return(c *gin.Context) {
	asset, ok := h.loadAsset(c)
	if !ok {
		return
	}

	if asset.Status != models.AssetStatusAssigned {
		c.JSON(http.StatusConflict, gin.H{"error": "Asset is not assigned"})
		return
	}

	asset.Status = models.AssetStatusAvailable
	asset.AssignedToID = nil
	asset.AssignedAt = nil

	if err := h.db.Model(&asset).Select("status", "assigned_to_id", "assigned_at").Updates(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to return asset"})
		return
	}

	c.JSON(http.StatusOK, assetToResponse(asset))
}

// Retire takes an asset out of circulation permanently
// @Summary Retire asset
// @Tags assets
// @Produce json
// @Param id path int true "Asset ID"
// @Success 200 {object} AssetResponse
// @Failure 409 {object} map[string]string "Asset still assigned"
// @Security BearerAuth
// @Router /admin/assets/{id}/retire [post]
func (h *Handler) Retire(c *gin.Context) {
	asset, ok := h.loadAsset(c)
	if !ok {
		return
	}

	if asset.Status == models.AssetStatusAssigned {
		c.JSON(http.StatusConflict, gin.H{"error": "Return the asset before retiring it"})
		return
	}

	asset.Status = models.AssetStatusRetired
	if err := h.db.Save(&asset).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retire asset"})
		return
	}

	c.JSON(http.StatusOK, assetToResponse(asset))
}

// RegisterRoutes registers read-only asset routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/assets", h.ListAssets)
	rg.GET("/assets/:id", h.GetAsset)
}

// RegisterAdminRoutes registers manager-only asset routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/assets", h.CreateAsset)
	rg.PUT("/assets/:id", h.UpdateAsset)
	rg.POST("/assets/:id/assign", h.Assign)
	rg.POST("/assets/:id/return", h.Return)
	rg.POST("/assets/:id/retire", h.Retire)
}
