package leads

import (
	"net/http"
	"strconv"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/perms"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// legalTransitions maps each pipeline stage to the stages a lead may move
// to next. Won and lost are terminal.
var legalTransitions = map[models.LeadStage][]models.LeadStage{
	models.LeadStageNew:       {models.LeadStageContacted, models.LeadStageLost},
	models.LeadStageContacted: {models.LeadStageQualified, models.LeadStageLost},
	models.LeadStageQualified: {models.LeadStageWon, models.LeadStageLost},
	models.LeadStageWon:       {},
	models.LeadStageLost:      {},
}

func canTransition(from, to models.LeadStage) bool {
	for _, next := range legalTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Handler handles sales pipeline requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new leads handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateLeadRequest represents the request to create a lead
type CreateLeadRequest struct {
	Company    string `json:"company" binding:"required,min=1,max=200"`
	Contact    string `json:"contact"`
	Email      string `json:"email" binding:"omitempty,email"`
	ValueCents int64  `json:"value_cents" binding:"omitempty,min=0"`
	Notes      string `json:"notes"`
}

// UpdateLeadRequest represents the request to update a lead's details
type UpdateLeadRequest struct {
	Company    *string `json:"company" binding:"omitempty,min=1,max=200"`
	Contact    *string `json:"contact"`
	Email      *string `json:"email" binding:"omitempty,email"`
	ValueCents *int64  `json:"value_cents" binding:"omitempty,min=0"`
	Notes      *string `json:"notes"`
}

// TransitionRequest represents the request to move a lead between stages
type TransitionRequest struct {
	Stage string `json:"stage" binding:"required,oneof=new contacted qualified won lost"`
}

// LeadResponse represents a lead in API responses
type LeadResponse struct {
	ID         uint   `json:"id"`
	OwnerID    uint   `json:"owner_id"`
	Company    string `json:"company"`
	Contact    string `json:"contact"`
	Email      string `json:"email"`
	ValueCents int64  `json:"value_cents"`
	Stage      string `json:"stage"`
	Notes      string `json:"notes"`
	CreatedAt  string `json:"created_at"`
}

func leadToResponse(l models.Lead) LeadResponse {
	return LeadResponse{
		ID:         l.ID,
		OwnerID:    l.OwnerID,
		Company:    l.Company,
		Contact:    l.Contact,
		Email:      l.Email,
		ValueCents: l.ValueCents,
		Stage:      string(l.Stage),
		Notes:      l.Notes,
		CreatedAt:  l.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ListLeads returns the caller's leads, or every lead in the organization
// for elevated roles
// @Summary List leads
// @Tags leads
// @Produce json
// @Param stage query string false "Filter by pipeline stage"
// @Success 200 {array} LeadResponse
// @Security BearerAuth
// @Router /leads [get]
func (h *Handler) ListLeads(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	p := perms.Resolve(h.db, userID)
	if !p.Ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Permissions not yet resolved, retry shortly"})
		return
	}

	query := h.db.Where("organization_id = ?", orgID).Order("created_at DESC")
	if !p.Elevated() {
		query = query.Where("owner_id = ?", userID)
	}
	if stage := c.Query("stage"); stage != "" {
		query = query.Where("stage = ?", stage)
	}

	var leads []models.Lead
	if err := query.Find(&leads).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch leads"})
		return
	}

	responses := make([]LeadResponse, len(leads))
	for i, l := range leads {
		responses[i] = leadToResponse(l)
	}

	c.JSON(http.StatusOK, responses)
}

// CreateLead creates a lead owned by the caller
// @Summary Create lead
// @Tags leads
// @Accept json
// @Produce json
// @Param request body CreateLeadRequest true "Lead details"
// @Success 201 {object} LeadResponse
// @Security BearerAuth
// @Router /leads [post]
func (h *Handler) CreateLead(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead := models.Lead{
		OrganizationID: orgID,
		OwnerID:        userID,
		Company:        req.Company,
		Contact:        req.Contact,
		Email:          req.Email,
		ValueCents:     req.ValueCents,
		Stage:          models.LeadStageNew,
		Notes:          req.Notes,
	}
	if err := h.db.Create(&lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create lead"})
		return
	}

	c.JSON(http.StatusCreated, leadToResponse(lead))
}

// loadVisibleLead fetches a lead the caller owns or may see through an
// elevated role; reports found=false after writing the error response
func (h *Handler) loadVisibleLead(c *gin.Context) (models.Lead, bool) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	var lead models.Lead
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid lead ID"})
		return lead, false
	}

	if err := h.db.Where("organization_id = ?", orgID).First(&lead, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		return lead, false
	}

	p := perms.Resolve(h.db, userID)
	if lead.OwnerID != userID && !p.Elevated() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Lead not found"})
		return lead, false
	}

	return lead, true
}

// GetLead returns a single lead
// @Summary Get lead
// @Tags leads
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {object} LeadResponse
// @Failure 404 {object} map[string]string "Lead not found"
// @Security BearerAuth
// @Router /leads/{id} [get]
func (h *Handler) GetLead(c *gin.Context) {
	lead, ok := h.loadVisibleLead(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, leadToResponse(lead))
}

// UpdateLead updates a lead's details (not its stage)
// @Summary Update lead
// @Tags leads
// @Accept json
// @Produce json
// @Param id path int true "Lead ID"
// @Param request body UpdateLeadRequest true "Fields to update"
// @Success 200 {object} LeadResponse
// @Failure 404 {object} map[string]string "Lead not found"
// @Security BearerAuth
// @Router /leads/{id} [put]
func (h *Handler) UpdateLead(c *gin.Context) {
	lead, ok := h.loadVisibleLead(c)
	if !ok {
		return
	}

	var req UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Company != nil {
		lead.Company = *req.Company
	}
	if req.Contact != nil {
		lead.Contact = *req.Contact
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.ValueCents != nil {
		lead.ValueCents = *req.ValueCents
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}

	if err := h.db.Save(&lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update lead"})
		return
	}

	c.JSON(http.StatusOK, leadToResponse(lead))
}

// Transition moves a lead to the next pipeline stage
// @Summary Transition lead stage
// @Tags leads
// @Accept json
// @Produce json
// @Param id path int true "Lead ID"
// @Param request body TransitionRequest true "Target stage"
// @Success 200 {object} LeadResponse
// @Failure 409 {object} map[string]string "Illegal stage transition"
// @Security BearerAuth
// @Router /leads/{id}/transition [post]
func (h *Handler) Transition(c *gin.Context) {
	lead, ok := h.loadVisibleLead(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	target := models.LeadStage(req.Stage)
	if !canTransition(lead.Stage, target) {
		c.JSON(http.StatusConflict, gin.H{"error": "Cannot move lead from " + string(lead.Stage) + " to " + req.Stage})
		return
	}

	lead.Stage = target
	if err := h.db.Save(&lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update lead"})
		return
	}

	c.JSON(http.StatusOK, leadToResponse(lead))
}

// DeleteLead deletes a lead
// @Summary Delete lead
// @Tags leads
// @Produce json
// @Param id path int true "Lead ID"
// @Success 200 {object} map[string]string "Lead deleted"
// @Failure 404 {object} map[string]string "Lead not found"
// @Security BearerAuth
// @Router /leads/{id} [delete]
func (h *Handler) DeleteLead(c *gin.Context) {
	lead, ok := h.loadVisibleLead(c)
	if !ok {
		return
	}

	if err := h.db.Delete(&lead).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete lead"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Lead deleted"})
}

// RegisterRoutes registers lead routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads", h.ListLeads)
	rg.GET("/leads/:id", h.GetLead)
	rg.POST("/leads", h.CreateLead)
	rg.PUT("/leads/:id", h.UpdateLead)
	rg.POST("/leads/:id/transition", h.Transition)
	rg.DELETE("/leads/:id", h.DeleteLead)
}
