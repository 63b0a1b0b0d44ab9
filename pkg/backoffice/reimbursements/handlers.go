package reimbursements

import (
	"net/http"
	"strconv"
	"time"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/perms"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles expense reimbursement requests. Anyone can submit and see
// their own requests; reviewing is a manager-only transition.
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new reimbursements handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// SubmitRequest represents the request to submit an expense
type SubmitRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
	Description string `json:"description" binding:"required,min=1,max=500"`
}

// ReviewRequest represents a manager's review decision
type ReviewRequest struct {
	Note string `json:"note" binding:"max=500"`
}

// ReimbursementResponse represents a reimbursement in API responses
type ReimbursementResponse struct {
	ID           uint   `json:"id"`
	RequesterID  uint   `json:"requester_id"`
	AmountCents  int64  `json:"amount_cents"`
	Description  string `json:"description"`
	Status       string `json:"status"`
	ReviewedByID *uint  `json:"reviewed_by_id,omitempty"`
	ReviewedAt   string `json:"reviewed_at,omitempty"`
	ReviewNote   string `json:"review_note,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func toResponse(r models.Reimbursement) ReimbursementResponse {
	resp := ReimbursementResponse{
		ID:           r.ID,
		RequesterID:  r.RequesterID,
		AmountCents:  r.AmountCents,
		Description:  r.Description,
		Status:       string(r.Status),
		ReviewedByID: r.ReviewedByID,
		ReviewNote:   r.ReviewNote,
		CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if r.ReviewedAt != nil {
		resp.ReviewedAt = r.ReviewedAt.Format("2006-01-02T15:04:05Z")
	}
	return resp
}

// List returns the caller's reimbursements, or every request in the
// organization for elevated roles
// @Summary List reimbursements
// @Tags reimbursements
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {array} ReimbursementResponse
// @Security BearerAuth
// @Router /reimbursements [get]
func (h *Handler) List(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	p := perms.Resolve(h.db, userID)
	if !p.Ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Permissions not yet resolved, retry shortly"})
		return
	}

	query := h.db.Where("organization_id = ?", orgID).Order("created_at DESC")
	if !p.Elevated() {
		query = query.Where("requester_id = ?", userID)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var requests []models.Reimbursement
	if err := query.Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch reimbursements"})
		return
	}

	responses := make([]ReimbursementResponse, len(requests))
	for i, r := range requests {
		responses[i] = toResponse(r)
	}

	c.JSON(http.StatusOK, responses)
}

// Submit files a new reimbursement request for the caller
// @Summary Submit reimbursement
// @Tags reimbursements
// @Accept json
// @Produce json
// @Param request body SubmitRequest true "Expense details"
// @Success 201 {object} ReimbursementResponse
// @Security BearerAuth
// @Router /reimbursements [post]
func (h *Handler) Submit(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	r := models.Reimbursement{
		OrganizationID: orgID,
		RequesterID:    userID,
		AmountCents:    req.AmountCents,
		Description:    req.Description,
		Status:         models.ReimbursementStatusPending,
	}
	if err := h.db.Create(&r).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to submit reimbursement"})
		return
	}

	c.JSON(http.StatusCreated, toResponse(r))
}

// Get returns a single reimbursement
// @Summary Get reimbursement
// @Tags reimbursements
// @Produce json
// @Param id path int true "Reimbursement ID"
// @Success 200 {object} ReimbursementResponse
// @Failure 404 {object} map[string]string "Reimbursement not found"
// @Security BearerAuth
// @Router /reimbursements/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	var r models.Reimbursement
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reimbursement ID"})
		return
	}
	if err := h.db.Where("organization_id = ?", orgID).First(&r, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reimbursement not found"})
		return
	}

	p := perms.Resolve(h.db, userID)
	if r.RequesterID != userID && !p.Elevated() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reimbursement not found"})
		return
	}

	c.JSON(http.StatusOK, toResponse(r))
}

// review stamps the reviewer and server time on a pending request. Called
// under the RequireManager gate, so the caller is already known elevated.
func (h *Handler) review(c *gin.Context, status models.ReimbursementStatus) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	var r models.Reimbursement
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reimbursement ID"})
		return
	}
	if err := h.db.Where("organization_id = ?", orgID).First(&r, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Reimbursement not found"})
		return
	}

	if r.Status != models.ReimbursementStatusPending {
		c.JSON(http.StatusConflict, gin.H{"error": "Reimbursement has already been reviewed"})
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	r.Status = status
	r.ReviewedByID = &userID
	r.ReviewedAt = &now
	r.ReviewNote = req.Note

	if err := h.db.Save(&r).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to review reimbursement"})
		return
	}

	c.JSON(http.StatusOK, toResponse(r))
}

// Approve approves a pending reimbursement
// @Summary Approve reimbursement
// @Tags reimbursements
// @Accept json
// @Produce json
// @Param id path int true "Reimbursement ID"
// @Param request body ReviewRequest true "Review note"
// @Success 200 {object} ReimbursementResponse
// @Failure 409 {object} map[string]string "Already reviewed"
// @Security BearerAuth
// @Router /admin/reimbursements/{id}/approve [post]
func (h *Handler) Approve(c *gin.Context) {
	h.review(c, models.ReimbursementStatusApproved)
}

// Reject rejects a pending reimbursement
// @Summary Reject reimbursement
// @Tags reimbursements
// @Accept json
// @Produce json
// @Param id path int true "Reimbursement ID"
// @Param request body ReviewRequest true "Review note"
// @Success 200 {object} ReimbursementResponse
// @Failure 409 {object} map[string]string "Already reviewed"
// @Security BearerAuth
// @Router /admin/reimbursements/{id}/reject [post]
func (h *Handler) Reject(c *gin.Context) {
	h.review(c, models.ReimbursementStatusRejected)
}

// RegisterRoutes registers reimbursement routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/reimbursements", h.List)
	rg.GET("/reimbursements/:id", h.Get)
	rg.POST("/reimbursements", h.Submit)
}

// RegisterAdminRoutes registers manager-only review routes
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/reimbursements/:id/approve", h.Approve)
	rg.POST("/reimbursements/:id/reject", h.Reject)
}
