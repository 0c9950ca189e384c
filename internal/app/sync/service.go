package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend/internal/app/message"
	"backend/internal/providers/redis"

	"go.uber.org/zap"
)

// Service is the conversation synchronizer: it merges change-feed events
// into the message log idempotently and manages the typing presence
// sub-channel.
type Service interface {
	HandleRemote(ctx context.Context, raw []byte, localParticipantID string) (*Event, error)
	Typing(ctx context.Context, conversationID, participantID string) error
	ClearTyping(ctx context.Context, conversationID, participantID string) error
	TypingPeers(conversationID, observerID string) []string
}

type service struct {
	messageSvc  message.Service
	broadcaster *Broadcaster
	tracker     *Tracker
	redisP      *redis.RedisProvider
	typingTTL   time.Duration
	logger      *zap.SugaredLogger
}

func NewService(
	messageSvc message.Service,
	broadcaster *Broadcaster,
	tracker *Tracker,
	redisP *redis.RedisProvider,
	typingTTL time.Duration,
	logger *zap.Logger,
) Service {
	return &service{
		messageSvc:  messageSvc,
		broadcaster: broadcaster,
		tracker:     tracker,
		redisP:      redisP,
		typingTTL:   typingTTL,
		logger:      logger.Sugar(),
	}
}

// HandleRemote applies one delivered event. Replays after a reconnect are
// harmless: inserts dedup on message id and updates are field replacement.
// The parsed event is returned for fan-out to connected clients.
func (s *service) HandleRemote(ctx context.Context, raw []byte, localParticipantID string) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("failed to decode realtime event: %w", err)
	}

	switch ev.Type {
	case EventInsert:
		if ev.Message == nil {
			return nil, fmt.Errorf("insert event without message")
		}
		inserted, err := s.messageSvc.Merge(ctx, ev.Message)
		if err != nil {
			return nil, err
		}
		// A delivered message supersedes the sender's typing signal.
		s.tracker.Clear(ev.ConversationID, ev.Message.SenderID)
		if inserted && localParticipantID != "" && ev.Message.SenderID != localParticipantID {
			if err := s.messageSvc.MarkRead(ctx, ev.Message.ID); err != nil {
				s.logger.Warnw("Failed to mark merged message read",
					"message_id", ev.Message.ID, "error", err)
			}
		}

	case EventUpdate:
		if ev.MessageID == "" {
			return nil, fmt.Errorf("update event without message id")
		}
		if err := s.messageSvc.ApplyRemoteUpdate(ctx, ev.MessageID, ev.Reactions, ev.Read); err != nil {
			return nil, err
		}

	case EventTyping:
		if ev.Active {
			s.tracker.Observe(ev.ConversationID, ev.ParticipantID)
		} else {
			s.tracker.Clear(ev.ConversationID, ev.ParticipantID)
		}

	default:
		return nil, fmt.Errorf("unknown event type %q", ev.Type)
	}

	return &ev, nil
}

func typingKey(conversationID, participantID string) string {
	return "typing:" + conversationID + ":" + participantID
}

// Typing records a composition keystroke. The signal is debounced and
// carries its own TTL; there is no stop protocol beyond expiry.
func (s *service) Typing(ctx context.Context, conversationID, participantID string) error {
	if !s.tracker.Signal(conversationID, participantID) {
		return nil
	}
	if err := s.redisP.SetEX(ctx, typingKey(conversationID, participantID), 1, s.typingTTL).Err(); err != nil {
		s.logger.Warnw("Failed to set typing key", "conversation_id", conversationID, "error", err)
	}
	s.broadcaster.PublishTyping(ctx, conversationID, participantID, true)
	return nil
}

// ClearTyping drops the signal immediately, used when a message is sent.
func (s *service) ClearTyping(ctx context.Context, conversationID, participantID string) error {
	s.tracker.Clear(conversationID, participantID)
	if err := s.redisP.Del(ctx, typingKey(conversationID, participantID)).Err(); err != nil {
		s.logger.Warnw("Failed to delete typing key", "conversation_id", conversationID, "error", err)
	}
	s.broadcaster.PublishTyping(ctx, conversationID, participantID, false)
	return nil
}

func (s *service) TypingPeers(conversationID, observerID string) []string {
	return s.tracker.Active(conversationID, observerID)
}
