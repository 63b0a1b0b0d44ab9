package tasks

import (
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/perms"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/scope"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles task requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new tasks handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateTaskRequest represents the request to create a task
type CreateTaskRequest struct {
	Title          string `json:"title" binding:"required,min=1,max=200"`
	Description    string `json:"description"`
	ProjectID      *uint  `json:"project_id"`
	AssigneeID     uint   `json:"assignee_id" binding:"required"`
	ParticipantIDs []uint `json:"participant_ids"`
	DueDate        string `json:"due_date" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateTaskRequest represents the request to update a task
type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Status      *string `json:"status" binding:"omitempty,oneof=todo in_progress done"`
	AssigneeID  *uint   `json:"assignee_id"`
}

// TaskResponse represents a task in API responses
type TaskResponse struct {
	ID          uint   `json:"id"`
	ProjectID   *uint  `json:"project_id"`
	AssigneeID  uint   `json:"assignee_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"due_date,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func taskToResponse(t models.Task) TaskResponse {
	resp := TaskResponse{
		ID:          t.ID,
		ProjectID:   t.ProjectID,
		AssigneeID:  t.AssigneeID,
		Title:       t.Title,
		Description: t.Description,
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if t.DueDate != nil {
		resp.DueDate = t.DueDate.Format("2006-01-02")
	}
	return resp
}

func taskID(t models.Task) uint { return t.ID }

// ListTasks returns the tasks visible to the caller: every task in the
// organization for elevated roles, otherwise the union of assigned and
// participating tasks, merged by id.
// @Summary List tasks
// @Tags tasks
// @Produce json
// @Success 200 {array} TaskResponse
// @Failure 503 {object} map[string]string "Permissions not yet resolved"
// @Security BearerAuth
// @Router /tasks [get]
func (h *Handler) ListTasks(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	mode := scope.ModeFor(perms.Resolve(h.db, userID))

	broad := func() ([]models.Task, error) {
		var items []models.Task
		err := h.db.Where("organization_id = ?", orgID).Find(&items).Error
		return items, err
	}
	assigned := func() ([]models.Task, error) {
		var items []models.Task
		err := h.db.Where("organization_id = ? AND assignee_id = ?", orgID, userID).Find(&items).Error
		return items, err
	}
	participating := func() ([]models.Task, error) {
		var items []models.Task
		err := h.db.
			Joins("JOIN task_participants ON task_participants.task_id = tasks.id").
			Where("tasks.organization_id = ? AND task_participants.user_id = ? AND task_participants.deleted_at IS NULL", orgID, userID).
			Find(&items).Error
		return items, err
	}

	result, err := scope.Select(mode, taskID, broad, assigned, participating)
	if err != nil || result.Loading {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Tasks are still loading, retry shortly"})
		return
	}

	sort.Slice(result.Items, func(i, j int) bool {
		return result.Items[i].CreatedAt.After(result.Items[j].CreatedAt)
	})

	responses := make([]TaskResponse, len(result.Items))
	for i, t := range result.Items {
		responses[i] = taskToResponse(t)
	}

	c.JSON(http.StatusOK, responses)
}

func (h *Handler) canAccess(task *models.Task, userID uint, p perms.Permissions) bool {
	if p.Elevated() {
		return true
	}
	if task.AssigneeID == userID {
		return true
	}
	var participant models.TaskParticipant
	return h.db.Where("task_id = ? AND user_id = ?", task.ID, userID).First(&participant).Error == nil
}

// GetTask returns a single task the caller may see
// @Summary Get task
// @Tags tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 404 {object} map[string]string "Task not found"
// @Security BearerAuth
// @Router /tasks/{id} [get]
func (h *Handler) GetTask(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	var task models.Task
	if err := h.db.Where("organization_id = ?", orgID).First(&task, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	p := perms.Resolve(h.db, userID)
	if !p.Ready {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Permissions not yet resolved, retry shortly"})
		return
	}
	if !h.canAccess(&task, userID, p) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	c.JSON(http.StatusOK, taskToResponse(task))
}

// CreateTask creates a task
// @Summary Create task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body CreateTaskRequest true "Task details"
// @Success 201 {object} TaskResponse
// @Security BearerAuth
// @Router /tasks [post]
func (h *Handler) CreateTask(c *gin.Context) {
	orgID, _ := auth.GetOrgID(c)

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	task := models.Task{
		OrganizationID: orgID,
		ProjectID:      req.ProjectID,
		AssigneeID:     req.AssigneeID,
		Title:          req.Title,
		Description:    req.Description,
		Status:         models.TaskStatusTodo,
	}
	if req.DueDate != "" {
		due, err := time.Parse("2006-01-02", req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid due date"})
			return
		}
		task.DueDate = &due
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&task).Error; err != nil {
			return err
		}
		for _, participantID := range req.ParticipantIDs {
			participant := models.TaskParticipant{TaskID: task.ID, UserID: participantID}
			if err := tx.Create(&participant).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, taskToResponse(task))
}

// UpdateTask updates a task (assignee, participant, or elevated)
// @Summary Update task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path int true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to update"
// @Success 200 {object} TaskResponse
// @Failure 404 {object} map[string]string "Task not found"
// @Security BearerAuth
// @Router /tasks/{id} [put]
func (h *Handler) UpdateTask(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	var task models.Task
	if err := h.db.Where("organization_id = ?", orgID).First(&task, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	p := perms.Resolve(h.db, userID)
	if !h.canAccess(&task, userID, p) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Status != nil {
		task.Status = models.TaskStatus(*req.Status)
	}
	if req.AssigneeID != nil {
		task.AssigneeID = *req.AssigneeID
	}

	if err := h.db.Save(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, taskToResponse(task))
}

// DeleteTask deletes a task (assignee or elevated)
// @Summary Delete task
// @Tags tasks
// @Produce json
// @Param id path int true "Task ID"
// @Success 200 {object} map[string]string "Task deleted"
// @Failure 404 {object} map[string]string "Task not found"
// @Security BearerAuth
// @Router /tasks/{id} [delete]
func (h *Handler) DeleteTask(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	var task models.Task
	if err := h.db.Where("organization_id = ?", orgID).First(&task, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
		return
	}

	p := perms.Resolve(h.db, userID)
	if task.AssigneeID != userID && !p.Elevated() {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the assignee can delete a task"})
		return
	}

	if err := h.db.Delete(&task).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

// RegisterRoutes registers task routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/tasks", h.ListTasks)
	rg.GET("/tasks/:id", h.GetTask)
	rg.POST("/tasks", h.CreateTask)
	rg.PUT("/tasks/:id", h.UpdateTask)
	rg.DELETE("/tasks/:id", h.DeleteTask)
}
