package checklists

import (
	"net/http"
	"strconv"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles checklist requests. Checklists are shared within the
// organization; every member can read and tick items.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new checklists handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateChecklistRequest represents the request to create a checklist
type CreateChecklistRequest struct {
	Title       string   `json:"title" binding:"required,min=1,max=200"`
	Description string   `json:"description"`
	Items       []string `json:"items" binding:"omitempty,dive,min=1,max=500"`
}

// AddItemRequest represents the request to append an item
type AddItemRequest struct {
	Text string `json:"text" binding:"required,min=1,max=500"`
}

// ToggleItemRequest represents the request to mark an item done or undone
type ToggleItemRequest struct {
	Done bool `json:"done"`
}

// ReorderRequest represents the request to reorder items. ItemIDs must list
// every item of the checklist exactly once.
type ReorderRequest struct {
	ItemIDs []uint `json:"item_ids" binding:"required,min=1"`
}

// ItemResponse represents a checklist item in API responses
type ItemResponse struct {
	ID       uint   `json:"id"`
	Text     string `json:"text"`
	Done     bool   `json:"done"`
	Position int    `json:"position"`
}

// ChecklistResponse represents a checklist in API responses
type ChecklistResponse struct {
	ID          uint           `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	CreatedByID uint           `json:"created_by_id"`
	Items       []ItemResponse `json:"items"`
	CreatedAt   string         `json:"created_at"`
}

func toResponse(cl models.Checklist) ChecklistResponse {
	items := make([]ItemResponse, len(cl.Items))
	for i, item := range cl.Items {
		items[i] = ItemResponse{ID: item.ID, Text: item.Text, Done: item.Done, Position: item.Position}
	}
	return ChecklistResponse{
		ID:          cl.ID,
		Title:       cl.Title,
		Description: cl.Description,
		CreatedByID: cl.CreatedByID,
		Items:       items,
		CreatedAt:   cl.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *Handler) loadChecklist(c *gin.Context) (models.Checklist, bool) {
	orgID, _ := auth.GetOrgID(c)

	var cl models.Checklist
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid checklist ID"})
		return cl, false
	}
	err = h.db.Where("organization_id = ?", orgID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&cl, uint(id)).Error
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checklist not found"})
		return cl, false
	}
	return cl, true
}

// ListChecklists returns the organization's checklists
// @Summary List checklists
// @Tags checklists
// @Produce json
// @Success 200 {array} ChecklistResponse
// @Security BearerAuth
// @Router /checklists [get]
func (h *Handler) ListChecklists(c *gin.Context) {
	orgID, _ := auth.GetOrgID(c)

	var lists []models.Checklist
	err := h.db.Where("organization_id = ?", orgID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Order("created_at DESC").
		Find(&lists).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch checklists"})
		return
	}

	responses := make([]ChecklistResponse, len(lists))
	for i, cl := range lists {
		responses[i] = toResponse(cl)
	}

	c.JSON(http.StatusOK, responses)
}

// CreateChecklist creates a checklist with an optional initial set of items
// @Summary Create checklist
// @Tags checklists
// @Accept json
// @Produce json
// @Param request body CreateChecklistRequest true "Checklist details"
// @Success 201 {object} ChecklistResponse
// @Security BearerAuth
// @Router /checklists [post]
func (h *Handler) CreateChecklist(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	var req CreateChecklistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cl := models.Checklist{
		OrganizationID: orgID,
		CreatedByID:    userID,
		Title:          req.Title,
		Description:    req.Description,
	}
	for i, text := range req.Items {
		cl.Items = append(cl.Items, models.ChecklistItem{Text: text, Position: i})
	}

	if err := h.db.Create(&cl).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create checklist"})
		return
	}

	c.JSON(http.StatusCreated, toResponse(cl))
}

// GetChecklist returns a single checklist with its items in order
// @Summary Get checklist
// @Tags checklists
// @Produce json
// @Param id path int true "Checklist ID"
// @Success 200 {object} ChecklistResponse
// @Failure 404 {object} map[string]string "Checklist not found"
// @Security BearerAuth
// @Router /checklists/{id} [get]
func (h *Handler) GetChecklist(c *gin.Context) {
	cl, ok := h.loadChecklist(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toResponse(cl))
}

// AddItem appends an item at the end of a checklist
// @Summary Add checklist item
// @Tags checklists
// @Accept json
// @Produce json
// @Param id path int true "Checklist ID"
// @Param request body AddItemRequest true "Item text"
// @Success 201 {object} ItemResponse
// @Security BearerAuth
// @Router /checklists/{id}/items [post]
func (h *Handler) AddItem(c *gin.Context) {
	cl, ok := h.loadChecklist(c)
	if !ok {
		return
	}

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item := models.ChecklistItem{
		ChecklistID: cl.ID,
		Text:        req.Text,
		Position:    len(cl.Items),
	}
	if err := h.db.Create(&item).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add item"})
		return
	}

	c.JSON(http.StatusCreated, ItemResponse{ID: item.ID, Text: item.Text, Done: item.Done, Position: item.Position})
}

// ToggleItem marks an item done or undone
// @Summary Toggle checklist item
// @Tags checklists
// @Accept json
// @Produce json
// @Param id path int true "Checklist ID"
// @Param itemId path int true "Item ID"
// @Param request body ToggleItemRequest true "Done state"
// @Success 200 {object} ItemResponse
// @Failure 404 {object} map[string]string "Item not found"
// @Security BearerAuth
// @Router /checklists/{id}/items/{itemId} [put]
func (h *Handler) ToggleItem(c *gin.Context) {
	cl, ok := h.loadChecklist(c)
	if !ok {
		return
	}

	itemID, err := strconv.ParseUint(c.Param("itemId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid item ID"})
		return
	}

	var req ToggleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var item models.ChecklistItem
	if err := h.db.Where("checklist_id = ?", cl.ID).First(&item, uint(itemID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not found"})
		return
	}

	if err := h.db.Model(&item).Update("done", req.Done).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update item"})
		return
	}
	item.Done = req.Done

	c.JSON(http.StatusOK, ItemResponse{ID: item.ID, Text: item.Text, Done: item.Done, Position: item.Position})
}

// Reorder rewrites item positions from the given ordering
// @Summary Reorder checklist items
// @Tags checklists
// @Accept json
// @Produce json
// @Param id path int true "Checklist ID"
// @Param request body ReorderRequest true "Item IDs in new order"
// @Success 200 {object} ChecklistResponse
// @Failure 400 {object} map[string]string "Ordering does not match items"
// @Security BearerAuth
// @Router /checklists/{id}/reorder [post]
func (h *Handler) Reorder(c *gin.Context) {
	cl, ok := h.loadChecklist(c)
	if !ok {
		return
	}

	var req ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	existing := make(map[uint]bool, len(cl.Items))
	for _, item := range cl.Items {
		existing[item.ID] = true
	}
	if len(req.ItemIDs) != len(cl.Items) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ordering must list every item exactly once"})
		return
	}
	seen := make(map[uint]bool, len(req.ItemIDs))
	for _, id := range req.ItemIDs {
		if !existing[id] || seen[id] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ordering must list every item exactly once"})
			return
		}
		seen[id] = true
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		for pos, id := range req.ItemIDs {
			if err := tx.Model(&models.ChecklistItem{}).Where("id = ?", id).Update("position", pos).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reorder items"})
		return
	}

	h.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&cl, cl.ID)
	c.JSON(http.StatusOK, toResponse(cl))
}

// DeleteChecklist deletes a checklist; only its creator may do so
// @Summary Delete checklist
// @Tags checklists
// @Produce json
// @Param id path int true "Checklist ID"
// @Success 200 {object} map[string]string "Checklist deleted"
// @Failure 403 {object} map[string]string "Not the creator"
// @Security BearerAuth
// @Router /checklists/{id} [delete]
func (h *Handler) DeleteChecklist(c *gin.Context) {
	cl, ok := h.loadChecklist(c)
	if !ok {
		return
	}

	userID, _ := auth.GetUserID(c)
	if cl.CreatedByID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the creator can delete a checklist"})
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("checklist_id = ?", cl.ID).Delete(&models.ChecklistItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&cl).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete checklist"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Checklist deleted"})
}

// RegisterRoutes registers checklist routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/checklists", h.ListChecklists)
	rg.GET("/checklists/:id", h.GetChecklist)
	rg.POST("/checklists", h.CreateChecklist)
	rg.DELETE("/checklists/:id", h.DeleteChecklist)
	rg.POST("/checklists/:id/items", h.AddItem)
	rg.PUT("/checklists/:id/items/:itemId", h.ToggleItem)
	rg.POST("/checklists/:id/reorder", h.Reorder)
}
