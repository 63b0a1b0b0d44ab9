package chat

import (
	"net/http"
	"strconv"

	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/auth"
	"github.com/bmv-luizpaulo/bmvbackoffice-sub001/pkg/backoffice/models"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handler handles internal chat requests
type Handler struct {
	db *gorm.DB
}

// NewHandler creates a new chat handler
func NewHandler(db *gorm.DB) *Handler {
	return &Handler{db: db}
}

// CreateChannelRequest represents the request to create a channel
type CreateChannelRequest struct {
	Name  string `json:"name" binding:"required,min=1,max=80"`
	Topic string `json:"topic" binding:"max=200"`
}

// PostMessageRequest represents the request to post a message
type PostMessageRequest struct {
	Body string `json:"body" binding:"required,min=1,max=4000"`
}

// ChannelResponse represents a channel in API responses
type ChannelResponse struct {
	ID        uint   `json:"id"`
	Name      string `json:"name"`
	Topic     string `json:"topic"`
	CreatedAt string `json:"created_at"`
}

// MessageResponse represents a message in API responses
type MessageResponse struct {
	ID          uint   `json:"id"`
	ChannelID   uint   `json:"channel_id"`
	SenderID    uint   `json:"sender_id"`
	SenderName  string `json:"sender_name"`
	SenderEmail string `json:"sender_email"`
	Body        string `json:"body"`
	CreatedAt   string `json:"created_at"`
}

func channelToResponse(ch models.ChatChannel) ChannelResponse {
	return ChannelResponse{
		ID:        ch.ID,
		Name:      ch.Name,
		Topic:     ch.Topic,
		CreatedAt: ch.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func messageToResponse(m models.ChatMessage) MessageResponse {
	return MessageResponse{
		ID:          m.ID,
		ChannelID:   m.ChannelID,
		SenderID:    m.SenderID,
		SenderName:  m.Sender.Name,
		SenderEmail: m.Sender.Email,
		Body:        m.Body,
		CreatedAt:   m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// ListChannels returns the organization's channels
// @Summary List channels
// @Tags chat
// @Produce json
// @Success 200 {array} ChannelResponse
// @Security BearerAuth
// @Router /chat/channels [get]
func (h *Handler) ListChannels(c *gin.Context) {
	orgID, _ := auth.GetOrgID(c)

	var channels []models.ChatChannel
	if err := h.db.Where("organization_id = ?", orgID).Order("name ASC").Find(&channels).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch channels"})
		return
	}

	responses := make([]ChannelResponse, len(channels))
	for i, ch := range channels {
		responses[i] = channelToResponse(ch)
	}

	c.JSON(http.StatusOK, responses)
}

// CreateChannel creates a channel; names are unique within an organization
// @Summary Create channel
// @Tags chat
// @Accept json
// @Produce json
// @Param request body CreateChannelRequest true "Channel details"
// @Success 201 {object} ChannelResponse
// @Failure 409 {object} map[string]string "Channel name already in use"
// @Security BearerAuth
// @Router /chat/channels [post]
func (h *Handler) CreateChannel(c *gin.Context) {
	userID, _ := auth.GetUserID(c)
	orgID, _ := auth.GetOrgID(c)

	var req CreateChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var existing models.ChatChannel
	if err := h.db.Where("organization_id = ? AND name = ?", orgID, req.Name).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Channel name already in use"})
		return
	}

	channel := models.ChatChannel{
		OrganizationID: orgID,
		Name:           req.Name,
		Topic:          req.Topic,
		CreatedByID:    userID,
	}
	if err := h.db.Create(&channel).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create channel"})
		return
	}

	c.JSON(http.StatusCreated, channelToResponse(channel))
}

func (h *Handler) loadChannel(c *gin.Context) (models.ChatChannel, bool) {
	orgID, _ := auth.GetOrgID(c)

	var channel models.ChatChannel
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid channel ID"})
		return channel, false
	}
	if err := h.db.Where("organization_id = ?", orgID).First(&channel, uint(id)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Channel not found"})
		return channel, false
	}
	return channel, true
}

// ListMessages returns a channel's messages, newest last
// @Summary List messages
// @Tags chat
// @Produce json
// @Param id path int true "Channel ID"
// @Param limit query int false "Maximum number of messages" default(50)
// @Success 200 {array} MessageResponse
// @Failure 404 {object} map[string]string "Channel not found"
// @Security BearerAuth
// @Router /chat/channels/{id}/messages [get]
func (h *Handler) ListMessages(c *gin.Context) {
	channel, ok := h.loadChannel(c)
	if !ok {
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	// Fetch the newest N, then present them oldest first.
	var messages []models.ChatMessage
	err := h.db.Where("channel_id = ?", channel.ID).
		Preload("Sender").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	responses := make([]MessageResponse, len(messages))
	for i, m := range messages {
		responses[len(messages)-1-i] = messageToResponse(m)
	}

	c.JSON(http.StatusOK, responses)
}

// PostMessage posts a message to a channel as the caller
// @Summary Post message
// @Tags chat
// @Accept json
// @Produce json
// @Param id path int true "Channel ID"
// @Param request body PostMessageRequest true "Message body"
// @Success 201 {object} MessageResponse
// @Failure 404 {object} map[string]string "Channel not found"
// @Security BearerAuth
// @Router /chat/channels/{id}/messages [post]
func (h *Handler) PostMessage(c *gin.Context) {
	channel, ok := h.loadChannel(c)
	if !ok {
		return
	}

	userID, _ := auth.GetUserID(c)

	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message := models.ChatMessage{
		ChannelID: channel.ID,
		SenderID:  userID,
		Body:      req.Body,
	}
	if err := h.db.Create(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to post message"})
		return
	}
	h.db.Preload("Sender").First(&message, message.ID)

	c.JSON(http.StatusCreated, messageToResponse(message))
}

// DeleteMessage deletes a message; only its sender may do so
// @Summary Delete message
// @Tags chat
// @Produce json
// @Param id path int true "Channel ID"
// @Param messageId path int true "Message ID"
// @Success 200 {object} map[string]string "Message deleted"
// @Failure 403 {object} map[string]string "Not the sender"
// @Security BearerAuth
// @Router /chat/channels/{id}/messages/{messageId} [delete]
func (h *Handler) DeleteMessage(c *gin.Context) {
	channel, ok := h.loadChannel(c)
	if !ok {
		return
	}

	messageID, err := strconv.ParseUint(c.Param("messageId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message ID"})
		return
	}

	var message models.ChatMessage
	if err := h.db.Where("channel_id = ?", channel.ID).First(&message, uint(messageID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Message not found"})
		return
	}

	userID, _ := auth.GetUserID(c)
	if message.SenderID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the sender can delete a message"})
		return
	}

	if err := h.db.Delete(&message).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message deleted"})
}

// RegisterRoutes registers chat routes on the given router group
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/chat/channels", h.ListChannels)
	rg.POST("/chat/channels", h.CreateChannel)
	rg.GET("/chat/channels/:id/messages", h.ListMessages)
	rg.POST("/chat/channels/:id/messages", h.PostMessage)
	rg.DELETE("/chat/channels/:id/messages/:messageId", h.DeleteMessage)
}
