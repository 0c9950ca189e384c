package reaction

import (
	"errors"
	"net/http"

	"backend/internal/app/message"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ToggleReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}

type Handler interface {
	ToggleReaction(c *gin.Context)
	GetReplyPreview(c *gin.Context)
}

type handler struct {
	service Service
	logger  *zap.SugaredLogger
}

func NewHandler(service Service, logger *zap.Logger) Handler {
	return &handler{
		service: service,
		logger:  logger.Sugar(),
	}
}

func (h *handler) ToggleReaction(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	messageID := c.Param("id")
	participantID := message.ParticipantID(c)
	if participantID == "" {
		c.JSON(http.StatusUnauthorized, message.ErrorResponse{Error: "participant_id is required"})
		return
	}

	var req ToggleReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, message.ErrorResponse{Error: "invalid request body"})
		return
	}

	reactions, err := h.service.Toggle(c.Request.Context(), conversationID, messageID, participantID, req.Emoji)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, message.ErrorResponse{Error: "message not found"})
		case errors.Is(err, ErrEmptyEmoji):
			c.JSON(http.StatusBadRequest, message.ErrorResponse{Error: err.Error()})
		default:
			h.logger.Errorw("Failed to toggle reaction", "message_id", messageID, "error", err)
			c.JSON(http.StatusInternalServerError, message.ErrorResponse{Error: "failed to toggle reaction"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"reactions": reactions})
}

func (h *handler) GetReplyPreview(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	targetID := c.Param("id")

	c.JSON(http.StatusOK, h.service.ReplyPreview(c.Request.Context(), conversationID, targetID))
}
