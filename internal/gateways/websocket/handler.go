package websocket

import (
	"encoding/json"
	"net/http"

	appsync "backend/internal/app/sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (h *Hub) ServeWS(c *gin.Context) {
	conversationID := c.Query("conversation_id")
	participantID := c.Query("participant_id")
	if conversationID == "" || participantID == "" {
		h.logger.Warnw("WebSocket connection rejected: missing identity",
			"client_ip", c.ClientIP(),
		)
		c.JSON(http.StatusBadRequest, gin.H{"error": "conversation_id and participant_id are required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorw("Failed to upgrade connection",
			"conversation_id", conversationID,
			"error", err,
		)
		return
	}

	client := &Client{
		hub:            h,
		conn:           conn,
		send:           make(chan []byte, 64),
		ID:             generateClientID(),
		ConversationID: conversationID,
		ParticipantID:  participantID,
	}

	h.register <- client

	// Bring the new client up to date on who is currently typing.
	if peers := h.syncSvc.TypingPeers(conversationID, participantID); len(peers) > 0 {
		for _, peer := range peers {
			snapshot, _ := json.Marshal(appsync.Event{
				Type:           appsync.EventTyping,
				ConversationID: conversationID,
				ParticipantID:  peer,
				Active:         true,
			})
			client.send <- snapshot
		}
	}

	go client.writePump()
	go client.readPump()
}
