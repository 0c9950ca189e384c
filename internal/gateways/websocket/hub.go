package websocket

import (
	"context"
	"encoding/json"
	"sync"

	appsync "backend/internal/app/sync"
	"backend/internal/providers/redis"

	"go.uber.org/zap"
)

// Hub groups connected clients into per-conversation rooms and bridges each
// room to its Redis change-feed and typing channels.
type Hub struct {
	logger     *zap.SugaredLogger
	redisP     *redis.RedisProvider
	syncSvc    appsync.Service
	register   chan *Client
	unregister chan *Client

	mu    sync.RWMutex
	rooms map[string]*room
}

type room struct {
	conversationID string
	clients        map[*Client]bool
	cancel         context.CancelFunc
}

func NewHub(logger *zap.Logger, redisP *redis.RedisProvider, syncSvc appsync.Service) *Hub {
	return &Hub{
		logger:     logger.Sugar(),
		redisP:     redisP,
		syncSvc:    syncSvc,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		rooms:      make(map[string]*room),
	}
}

func (h *Hub) Run() {
	h.logger.Info("WebSocket hub started")

	for {
		select {
		case client := <-h.register:
			h.addClient(client)
			h.logger.Infow("Client joined conversation",
				"client_id", client.ID,
				"participant_id", client.ParticipantID,
				"conversation_id", client.ConversationID,
			)

		case client := <-h.unregister:
			h.removeClient(client)
			h.logger.Infow("Client left conversation",
				"client_id", client.ID,
				"conversation_id", client.ConversationID,
			)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[client.ConversationID]
	if !ok {
		ctx, cancel := context.WithCancel(context.Background())
		r = &room{
			conversationID: client.ConversationID,
			clients:        make(map[*Client]bool),
			cancel:         cancel,
		}
		h.rooms[client.ConversationID] = r
		go h.pump(ctx, r)
	}
	r.clients[client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[client.ConversationID]
	if !ok {
		return
	}
	if _, ok := r.clients[client]; ok {
		delete(r.clients, client)
		close(client.send)
	}
	if len(r.clients) == 0 {
		r.cancel()
		delete(h.rooms, client.ConversationID)
	}
}

// participants snapshots the room's connected participant ids, excluding
// the given sender.
func (h *Hub) participants(conversationID, excludeID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.rooms[conversationID]
	if !ok {
		return nil
	}
	var ids []string
	for client := range r.clients {
		if client.ParticipantID != excludeID {
			ids = append(ids, client.ParticipantID)
		}
	}
	return ids
}

func (h *Hub) fanOut(conversationID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	r, ok := h.rooms[conversationID]
	if !ok {
		return
	}
	for client := range r.clients {
		select {
		case client.send <- payload:
		default:
			// Slow consumer; the write pump will notice the closed
			// connection on its own.
			h.logger.Warnw("Dropping frame for slow client", "client_id", client.ID)
		}
	}
}

// pump subscribes the room to its change-feed and typing channels, merges
// each delivered event into the log, and relays it to connected clients.
// Resubscription after a drop may replay events; the idempotent merge
// absorbs that.
func (h *Hub) pump(ctx context.Context, r *room) {
	pubsub := h.redisP.Subscribe(ctx,
		appsync.EventsChannel(r.conversationID),
		appsync.TypingChannel(r.conversationID),
	)
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			payload := []byte(msg.Payload)

			var ev appsync.Event
			if err := json.Unmarshal(payload, &ev); err != nil {
				h.logger.Warnw("Malformed realtime payload dropped",
					"conversation_id", r.conversationID, "error", err)
				continue
			}

			reader := ""
			if ev.Message != nil {
				if others := h.participants(r.conversationID, ev.Message.SenderID); len(others) > 0 {
					reader = others[0]
				}
			}

			if _, err := h.syncSvc.HandleRemote(ctx, payload, reader); err != nil {
				h.logger.Warnw("Failed to apply realtime event",
					"conversation_id", r.conversationID, "error", err)
				continue
			}

			h.fanOut(r.conversationID, payload)
		}
	}
}
