package assistant

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"backend/internal/app/message"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler interface {
	StreamReply(c *gin.Context)
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

type deltaFrame struct {
	Content string `json:"content"`
}

type doneFrame struct {
	Done    bool             `json:"done"`
	Message *message.Message `json:"message,omitempty"`
}

// StreamReply proxies the assistant stream to the caller as server-sent
// events while the accumulator commits the finalized reply to the log.
func (h *handler) StreamReply(c *gin.Context) {
	conversationID := c.Param("conversation_id")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.WriteHeader(http.StatusOK)
	}

	msg, err := h.service.Reply(c.Request.Context(), conversationID, func(delta string) {
		start()
		payload, _ := json.Marshal(deltaFrame{Content: delta})
		fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
		flusher.Flush()
	})

	if err != nil && !started {
		switch {
		case errors.Is(err, ErrRateLimited):
			c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
		case errors.Is(err, ErrQuotaExceeded):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error(), "limit_reached": true})
		case errors.Is(err, ErrServiceUnavailable):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
		default:
			h.logger.Errorw("Assistant reply failed", "conversation_id", conversationID, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "assistant reply failed"})
		}
		return
	}

	if err != nil {
		// The stream already carried bytes to the client; all that's left
		// is to close it out.
		h.logger.Warnw("Assistant reply ended with error after streaming began",
			"conversation_id", conversationID, "error", err)
	}

	start()
	payload, _ := json.Marshal(doneFrame{Done: true, Message: msg})
	fmt.Fprintf(c.Writer, "data: %s\n\n", payload)
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	flusher.Flush()
}
