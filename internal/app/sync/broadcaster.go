package sync

import (
	"context"
	"encoding/json"

	"backend/internal/app/message"
	"backend/internal/providers/redis"

	"go.uber.org/zap"
)

// Broadcaster publishes local log mutations onto the conversation
// change-feed. It satisfies message.Publisher.
type Broadcaster struct {
	redisP *redis.RedisProvider
	logger *zap.SugaredLogger
}

func NewBroadcaster(redisP *redis.RedisProvider, logger *zap.Logger) *Broadcaster {
	return &Broadcaster{
		redisP: redisP,
		logger: logger.Sugar(),
	}
}

func (b *Broadcaster) publish(ctx context.Context, channel string, ev *Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		b.logger.Errorw("Failed to encode realtime event", "type", ev.Type, "error", err)
		return
	}
	if err := b.redisP.Publish(ctx, channel, payload); err != nil {
		b.logger.Warnw("Failed to publish realtime event",
			"channel", channel, "type", ev.Type, "error", err)
	}
}

func (b *Broadcaster) PublishInsert(ctx context.Context, msg *message.Message) {
	b.publish(ctx, EventsChannel(msg.ConversationID), &Event{
		Type:           EventInsert,
		ConversationID: msg.ConversationID,
		Message:        msg,
		Timestamp:      now(),
	})
}

func (b *Broadcaster) PublishUpdate(ctx context.Context, conversationID, messageID string, reactions message.ReactionMap, read bool) {
	ev := &Event{
		Type:           EventUpdate,
		ConversationID: conversationID,
		MessageID:      messageID,
		Reactions:      reactions,
		Timestamp:      now(),
	}
	if read {
		ev.Read = &read
	}
	b.publish(ctx, EventsChannel(conversationID), ev)
}

func (b *Broadcaster) PublishTyping(ctx context.Context, conversationID, participantID string, active bool) {
	b.publish(ctx, TypingChannel(conversationID), &Event{
		Type:           EventTyping,
		ConversationID: conversationID,
		ParticipantID:  participantID,
		Active:         active,
		Timestamp:      now(),
	})
}
