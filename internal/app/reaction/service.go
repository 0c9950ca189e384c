package reaction

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/app/message"

	"go.uber.org/zap"
)

var ErrEmptyEmoji = errors.New("reaction emoji is empty")

// Apply computes the reaction map after one participant's edit. Last writer
// wins per participant: an existing reaction is overwritten by the new
// emoji. Re-applying the participant's current emoji removes it, so the
// same edit twice is an involution. The input map is not mutated.
func Apply(reactions message.ReactionMap, participantID, emoji string) message.ReactionMap {
	out := reactions.Clone()
	if current, ok := out[participantID]; ok && current == emoji {
		delete(out, participantID)
		return out
	}
	out[participantID] = emoji
	return out
}

type Service interface {
	Toggle(ctx context.Context, conversationID, messageID, participantID, emoji string) (message.ReactionMap, error)
	ReplyPreview(ctx context.Context, conversationID, targetID string) *message.ReplyPreview
}

type service struct {
	messageSvc message.Service
	logger     *zap.SugaredLogger
}

func NewService(messageSvc message.Service, logger *zap.Logger) Service {
	return &service{
		messageSvc: messageSvc,
		logger:     logger.Sugar(),
	}
}

func (s *service) Toggle(ctx context.Context, conversationID, messageID, participantID, emoji string) (message.ReactionMap, error) {
	if emoji == "" {
		return nil, ErrEmptyEmoji
	}

	msg, err := s.messageSvc.GetByID(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	if msg.ConversationID != conversationID {
		return nil, fmt.Errorf("message %s is not in conversation %s", messageID, conversationID)
	}

	updated := Apply(msg.Reactions, participantID, emoji)
	if err := s.messageSvc.ApplyReactions(ctx, conversationID, messageID, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) ReplyPreview(ctx context.Context, conversationID, targetID string) *message.ReplyPreview {
	return s.messageSvc.ResolveReply(ctx, conversationID, targetID)
}
