package message

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Handler interface {
	CreateMessage(c *gin.Context)
	GetMessages(c *gin.Context)
	GetMessageByID(c *gin.Context)
	MarkConversationRead(c *gin.Context)
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

// ParticipantID extracts the trusted participant identity from the request.
// Session issuance is out of scope; upstream infrastructure authenticates.
func ParticipantID(c *gin.Context) string {
	if id := c.GetHeader("X-Participant-Id"); id != "" {
		return id
	}
	return c.Query("participant_id")
}

func (h *handler) CreateMessage(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	participantID := ParticipantID(c)
	if participantID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "participant_id is required"})
		return
	}

	var req CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	msg := &Message{
		ID:             req.ID,
		ConversationID: conversationID,
		SenderID:       participantID,
		Type:           req.Type,
		Content:        req.Content,
		MediaURL:       req.MediaURL,
		MediaDuration:  req.MediaDuration,
		ThumbnailURL:   req.ThumbnailURL,
		ReplyToID:      req.ReplyToID,
	}

	inserted, err := h.service.Append(c.Request.Context(), msg)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidType),
			errors.Is(err, ErrEmptyContent),
			errors.Is(err, ErrMediaURLMissing),
			errors.Is(err, ErrReplyCrossConv):
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		default:
			h.logger.Errorw("Failed to append message", "conversation_id", conversationID, "error", err)
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to append message"})
		}
		return
	}

	if !inserted {
		c.JSON(http.StatusOK, msg)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *handler) GetMessages(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	participantID := ParticipantID(c)

	messages, err := h.service.ListByConversation(c.Request.Context(), conversationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get messages"})
		return
	}

	// Opening the conversation view marks everything from the other
	// participant as read.
	if participantID != "" {
		if _, err := h.service.MarkConversationRead(c.Request.Context(), conversationID, participantID); err != nil {
			h.logger.Warnw("Failed to mark conversation read", "conversation_id", conversationID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *handler) GetMessageByID(c *gin.Context) {
	id := c.Param("id")

	msg, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to get message"})
		return
	}

	c.JSON(http.StatusOK, msg)
}

func (h *handler) MarkConversationRead(c *gin.Context) {
	conversationID := c.Param("conversation_id")
	participantID := ParticipantID(c)
	if participantID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "participant_id is required"})
		return
	}

	updated, err := h.service.MarkConversationRead(c.Request.Context(), conversationID, participantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to mark conversation read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": updated})
}
