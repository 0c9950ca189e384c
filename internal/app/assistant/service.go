package assistant

import (
	"context"
	"errors"
	"fmt"

	"backend/internal/app/conversation"
	"backend/internal/app/message"

	"go.uber.org/zap"
)

type Service interface {
	// Reply streams an assistant response for the conversation, invoking
	// onDelta for each fragment, and returns the finalized message that was
	// committed to the log (nil when nothing was committed).
	Reply(ctx context.Context, conversationID string, onDelta func(string)) (*message.Message, error)
}

type service struct {
	client     *Client
	messageSvc message.Service
	convSvc    conversation.Service
	fallback   string
	logger     *zap.SugaredLogger
}

func NewService(
	client *Client,
	messageSvc message.Service,
	convSvc conversation.Service,
	fallback string,
	logger *zap.Logger,
) Service {
	return &service{
		client:     client,
		messageSvc: messageSvc,
		convSvc:    convSvc,
		fallback:   fallback,
		logger:     logger.Sugar(),
	}
}

// turnsFromLog converts the persisted log into ordered role/content pairs.
// Media messages have no text to send upstream and are skipped.
func turnsFromLog(messages []*message.Message) []Turn {
	turns := make([]Turn, 0, len(messages))
	for _, msg := range messages {
		if msg.Type != message.TypeText && msg.Type != message.TypeSticker {
			continue
		}
		role := "user"
		if msg.SenderID == AssistantSenderID {
			role = "assistant"
		}
		turns = append(turns, Turn{Role: role, Content: msg.Content})
	}
	return turns
}

func (s *service) Reply(ctx context.Context, conversationID string, onDelta func(string)) (*message.Message, error) {
	if _, err := s.convSvc.GetByID(ctx, conversationID); err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}

	history, err := s.messageSvc.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	acc := NewAccumulator(s.messageSvc, s.logger.Desugar(), conversationID, s.fallback)

	streamErr := s.client.StreamChat(ctx, turnsFromLog(history), func(delta string) {
		acc.Push(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	})

	// The caller walked away; nothing may touch the log anymore.
	if ctx.Err() != nil {
		acc.Abandon()
		return nil, ctx.Err()
	}

	switch {
	case streamErr == nil:
		msg, err := acc.Commit(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to commit assistant reply: %w", err)
		}
		if msg != nil {
			s.touch(ctx, conversationID)
		}
		return msg, nil

	case errors.Is(streamErr, ErrTransport):
		// Mid-stream transport failure: keep whatever arrived, or leave an
		// apology so the turn doesn't fail silently.
		s.logger.Warnw("Assistant stream failed mid-response", "conversation_id", conversationID, "error", streamErr)
		msg, err := acc.Fail(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to commit fallback reply: %w", err)
		}
		if msg != nil {
			s.touch(ctx, conversationID)
		}
		return msg, nil

	default:
		// Rate limit, quota, or upstream rejection: surfaced to the user
		// as-is, nothing committed.
		return nil, streamErr
	}
}

func (s *service) touch(ctx context.Context, conversationID string) {
	if err := s.convSvc.Touch(ctx, conversationID); err != nil {
		s.logger.Warnw("Failed to bump conversation recency", "conversation_id", conversationID, "error", err)
	}
}
