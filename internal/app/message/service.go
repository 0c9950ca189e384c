package message

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidType     = errors.New("invalid message type")
	ErrEmptyContent    = errors.New("message content is empty")
	ErrMediaURLMissing = errors.New("media message without media URL")
	ErrReplyCrossConv  = errors.New("reply target belongs to another conversation")
)

const (
	maxContentLength = 9999
	replyPreviewMax  = 80

	// Rendered in place of a reply target that was deleted from the log.
	replyUnavailable = "original message unavailable"
)

// Publisher fans a local mutation out to the conversation's change-feed so
// the peer's log converges. Implemented by the sync broadcaster.
type Publisher interface {
	PublishInsert(ctx context.Context, msg *Message)
	PublishUpdate(ctx context.Context, conversationID, messageID string, reactions ReactionMap, read bool)
}

type Service interface {
	Append(ctx context.Context, msg *Message) (bool, error)
	Merge(ctx context.Context, msg *Message) (bool, error)
	GetByID(ctx context.Context, id string) (*Message, error)
	ListByConversation(ctx context.Context, conversationID string) ([]*Message, error)
	MarkRead(ctx context.Context, id string) error
	MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error)
	ApplyReactions(ctx context.Context, conversationID, messageID string, reactions ReactionMap) error
	ApplyRemoteUpdate(ctx context.Context, messageID string, reactions ReactionMap, read *bool) error
	ResolveReply(ctx context.Context, conversationID, targetID string) *ReplyPreview
	DeleteByConversation(ctx context.Context, conversationID string) error
}

type service struct {
	repo   Repository
	events Publisher
	logger *zap.SugaredLogger
}

func NewService(repo Repository, events Publisher, logger *zap.Logger) Service {
	return &service{
		repo:   repo,
		events: events,
		logger: logger.Sugar(),
	}
}

func (s *service) validate(msg *Message) error {
	if !msg.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, msg.Type)
	}
	if msg.Type.RequiresMedia() && msg.MediaURL == "" {
		return ErrMediaURLMissing
	}
	if msg.Type == TypeText || msg.Type == TypeSticker {
		length := utf8.RuneCountInString(msg.Content)
		if length < 1 {
			return ErrEmptyContent
		}
		if length > maxContentLength {
			return fmt.Errorf("message content must be at most %d characters, got %d", maxContentLength, length)
		}
	}
	return nil
}

// Append writes a locally-authored message to the end of the log and
// broadcasts it. Media-typed messages are rejected unless the upload already
// produced a durable URL. A reply target that still exists must be in the
// same conversation; a target that was deleted is tolerated and resolves to
// a placeholder at render time.
func (s *service) Append(ctx context.Context, msg *Message) (bool, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if err := s.validate(msg); err != nil {
		return false, err
	}

	if msg.ReplyToID != nil {
		target, err := s.repo.GetByID(*msg.ReplyToID)
		if err == nil && target.ConversationID != msg.ConversationID {
			return false, ErrReplyCrossConv
		}
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("failed to look up reply target: %w", err)
		}
	}

	inserted, err := s.repo.Append(msg)
	if err != nil {
		return false, fmt.Errorf("failed to append message: %w", err)
	}

	if inserted && s.events != nil {
		s.events.PublishInsert(ctx, msg)
	}
	return inserted, nil
}

// Merge applies a remotely-delivered insert. Same dedup guarantee as Append,
// but skips local validation side conditions the remote writer already
// enforced, and never re-broadcasts.
func (s *service) Merge(ctx context.Context, msg *Message) (bool, error) {
	if msg.ID == "" {
		return false, errors.New("remote message without id")
	}
	if msg.Type.RequiresMedia() && msg.MediaURL == "" {
		return false, ErrMediaURLMissing
	}
	inserted, err := s.repo.Append(msg)
	if err != nil {
		return false, fmt.Errorf("failed to merge remote message: %w", err)
	}
	if !inserted {
		s.logger.Debugw("Duplicate remote insert ignored", "message_id", msg.ID)
	}
	return inserted, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Message, error) {
	return s.repo.GetByID(id)
}

func (s *service) ListByConversation(ctx context.Context, conversationID string) ([]*Message, error) {
	return s.repo.ListByConversation(conversationID)
}

// MarkRead flips the read flag and broadcasts the flip so the sender's copy
// of the row converges. Already-read messages publish nothing.
func (s *service) MarkRead(ctx context.Context, id string) error {
	msg, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}
	if msg.Read {
		return nil
	}
	if err := s.repo.MarkRead(id); err != nil {
		return err
	}
	if s.events != nil {
		s.events.PublishUpdate(ctx, msg.ConversationID, id, nil, true)
	}
	return nil
}

// MarkConversationRead bulk-flips the peer's unread messages and broadcasts
// one update per flipped row.
func (s *service) MarkConversationRead(ctx context.Context, conversationID, readerID string) (int64, error) {
	ids, err := s.repo.MarkConversationRead(conversationID, readerID)
	if err != nil {
		return 0, err
	}
	if s.events != nil {
		for _, id := range ids {
			s.events.PublishUpdate(ctx, conversationID, id, nil, true)
		}
	}
	return int64(len(ids)), nil
}

// ApplyReactions persists a locally-edited reaction map and broadcasts the
// update so the peer patches its copy of the row.
func (s *service) ApplyReactions(ctx context.Context, conversationID, messageID string, reactions ReactionMap) error {
	if err := s.repo.UpdateAnnotations(messageID, reactions, nil); err != nil {
		return fmt.Errorf("failed to update reactions: %w", err)
	}
	if s.events != nil {
		s.events.PublishUpdate(ctx, conversationID, messageID, reactions, false)
	}
	return nil
}

// ApplyRemoteUpdate patches annotation fields from a remote update event.
// The row is never re-created; updates for unknown ids are dropped.
func (s *service) ApplyRemoteUpdate(ctx context.Context, messageID string, reactions ReactionMap, read *bool) error {
	return s.repo.UpdateAnnotations(messageID, reactions, read)
}

func (s *service) ResolveReply(ctx context.Context, conversationID, targetID string) *ReplyPreview {
	target, err := s.repo.GetByID(targetID)
	if err != nil || target.ConversationID != conversationID {
		return &ReplyPreview{ID: targetID, Preview: replyUnavailable, Available: false}
	}

	preview := target.Content
	if target.Type.RequiresMedia() {
		preview = string(target.Type)
	}
	if utf8.RuneCountInString(preview) > replyPreviewMax {
		runes := []rune(preview)
		preview = string(runes[:replyPreviewMax])
	}

	return &ReplyPreview{
		ID:        target.ID,
		Type:      target.Type,
		Preview:   preview,
		Available: true,
	}
}

func (s *service) DeleteByConversation(ctx context.Context, conversationID string) error {
	return s.repo.DeleteByConversation(conversationID)
}
