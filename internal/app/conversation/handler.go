package conversation

import (
	"errors"
	"net/http"
	"time"

	"backend/internal/app/message"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler interface {
	CreateConversation(c *gin.Context)
	GetConversation(c *gin.Context)
	ListConversations(c *gin.Context)
	RenameConversation(c *gin.Context)
	DeleteConversation(c *gin.Context)
}

type handler struct {
	service    Service
	messageSvc message.Service
	logger     *zap.SugaredLogger
}

func NewHandler(service Service, messageSvc message.Service, logger *zap.Logger) Handler {
	return &handler{
		service:    service,
		messageSvc: messageSvc,
		logger:     logger.Sugar(),
	}
}

// CreateConversation starts a new conversation from its first message. The
// title is derived from that message and exactly one user message is
// appended to the fresh log.
func (h *handler) CreateConversation(c *gin.Context) {
	participantID := message.ParticipantID(c)
	if participantID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "participant_id is required"})
		return
	}

	var req CreateConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	conv, err := h.service.Create(c.Request.Context(), participantID, req.FirstMessage)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	first := &message.Message{
		ConversationID: conv.ID,
		SenderID:       participantID,
		Type:           message.TypeText,
		Content:        req.FirstMessage,
	}
	if _, err := h.messageSvc.Append(c.Request.Context(), first); err != nil {
		h.logger.Errorw("Failed to append first message", "conversation_id", conv.ID, "error", err)
		// Roll the empty conversation back so a retry starts clean.
		if derr := h.service.Delete(c.Request.Context(), conv.ID); derr != nil {
			h.logger.Errorw("Failed to remove conversation after append failure",
				"conversation_id", conv.ID, "error", derr)
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to append first message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"conversation": conv,
		"message":      first,
	})
}

func (h *handler) GetConversation(c *gin.Context) {
	id := c.Param("conversation_id")

	conv, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get conversation"})
		return
	}

	c.JSON(http.StatusOK, conv)
}

func (h *handler) ListConversations(c *gin.Context) {
	participantID := message.ParticipantID(c)
	if participantID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "participant_id is required"})
		return
	}

	filter := c.Query("filter")
	buckets, err := h.service.List(c.Request.Context(), participantID, filter, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, buckets)
}

func (h *handler) RenameConversation(c *gin.Context) {
	id := c.Param("conversation_id")

	var req RenameConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.service.Rename(c.Request.Context(), id, req.Title); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"renamed": true})
}

func (h *handler) DeleteConversation(c *gin.Context) {
	id := c.Param("conversation_id")

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "conversation not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to delete conversation"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
