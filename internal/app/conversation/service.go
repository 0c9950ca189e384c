package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"backend/internal/app/message"
	"backend/internal/providers/redis"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	titleMaxRunes = 50
	listCacheTTL  = 5 * time.Minute
)

type Service interface {
	Create(ctx context.Context, ownerID, firstMessageText string) (*Conversation, error)
	GetByID(ctx context.Context, id string) (*Conversation, error)
	List(ctx context.Context, ownerID, filter string, now time.Time) (*BucketedConversations, error)
	Rename(ctx context.Context, id, title string) error
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo        Repository
	messageSvc  message.Service
	redisP      *redis.RedisProvider
	logger      *zap.SugaredLogger
	cachePrefix string
}

func NewService(repo Repository, messageSvc message.Service, redisP *redis.RedisProvider, logger *zap.Logger) Service {
	return &service{
		repo:        repo,
		messageSvc:  messageSvc,
		redisP:      redisP,
		logger:      logger.Sugar(),
		cachePrefix: "conversations:owner",
	}
}

// DeriveTitle builds a conversation title from the first message: up to 50
// runes of trimmed text, with an ellipsis when truncated.
func DeriveTitle(firstMessageText string) string {
	title := strings.TrimSpace(firstMessageText)
	if utf8.RuneCountInString(title) <= titleMaxRunes {
		return title
	}
	runes := []rune(title)
	return strings.TrimSpace(string(runes[:titleMaxRunes])) + "…"
}

func (s *service) Create(ctx context.Context, ownerID, firstMessageText string) (*Conversation, error) {
	title := DeriveTitle(firstMessageText)
	if title == "" {
		return nil, fmt.Errorf("first message is empty")
	}

	conv := &Conversation{
		ID:      uuid.New().String(),
		OwnerID: ownerID,
		Title:   title,
	}
	if err := s.repo.Create(conv); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	s.invalidateListCache(ownerID)
	return conv, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Conversation, error) {
	return s.repo.GetByID(id)
}

func (s *service) List(ctx context.Context, ownerID, filter string, now time.Time) (*BucketedConversations, error) {
	conversations, err := s.listCached(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	if filter != "" {
		needle := strings.ToLower(filter)
		filtered := conversations[:0]
		for _, conv := range conversations {
			if strings.Contains(strings.ToLower(conv.Title), needle) {
				filtered = append(filtered, conv)
			}
		}
		conversations = filtered
	}

	return Bucketize(conversations, now), nil
}

func (s *service) listCached(ctx context.Context, ownerID string) ([]*Conversation, error) {
	cacheKey := fmt.Sprintf("%s:%s", s.cachePrefix, ownerID)

	if s.redisP != nil {
		if cached, err := s.redisP.Get(ctx, cacheKey).Result(); err == nil && cached != "" {
			var conversations []*Conversation
			if json.Unmarshal([]byte(cached), &conversations) == nil {
				return conversations, nil
			}
		}
	}

	conversations, err := s.repo.ListByOwner(ownerID)
	if err != nil {
		return nil, err
	}

	if s.redisP != nil && len(conversations) > 0 {
		if data, err := json.Marshal(conversations); err == nil {
			s.redisP.SetEX(ctx, cacheKey, data, listCacheTTL)
		}
	}

	return conversations, nil
}

// Bucketize partitions conversations by recency of their last activity.
// Buckets are disjoint and cover every conversation: same calendar day is
// Today, the previous day Yesterday, anything newer than seven days This
// Week, the rest Older.
func Bucketize(conversations []*Conversation, now time.Time) *BucketedConversations {
	buckets := &BucketedConversations{
		Today:     []*Conversation{},
		Yesterday: []*Conversation{},
		ThisWeek:  []*Conversation{},
		Older:     []*Conversation{},
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yesterday := today.AddDate(0, 0, -1)
	weekAgo := now.AddDate(0, 0, -7)

	for _, conv := range conversations {
		t := conv.UpdatedAt.In(now.Location())
		switch {
		case !t.Before(today):
			buckets.Today = append(buckets.Today, conv)
		case !t.Before(yesterday):
			buckets.Yesterday = append(buckets.Yesterday, conv)
		case t.After(weekAgo):
			buckets.ThisWeek = append(buckets.ThisWeek, conv)
		default:
			buckets.Older = append(buckets.Older, conv)
		}
	}

	return buckets
}

func (s *service) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" || utf8.RuneCountInString(title) > titleMaxRunes {
		return fmt.Errorf("title must be between 1 and %d characters", titleMaxRunes)
	}

	conv, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.repo.Rename(id, title); err != nil {
		return fmt.Errorf("failed to rename conversation: %w", err)
	}

	s.invalidateListCache(conv.OwnerID)
	return nil
}

// Touch bumps the conversation's recency after new activity.
func (s *service) Touch(ctx context.Context, id string) error {
	if err := s.repo.Touch(id); err != nil {
		return err
	}
	if conv, err := s.repo.GetByID(id); err == nil {
		s.invalidateListCache(conv.OwnerID)
	}
	return nil
}

// Delete removes the conversation and cascades its messages.
func (s *service) Delete(ctx context.Context, id string) error {
	conv, err := s.repo.GetByID(id)
	if err != nil {
		return err
	}

	if err := s.messageSvc.DeleteByConversation(ctx, id); err != nil {
		return fmt.Errorf("failed to delete conversation messages: %w", err)
	}
	if err := s.repo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}

	s.invalidateListCache(conv.OwnerID)
	return nil
}

func (s *service) invalidateListCache(ownerID string) {
	if s.redisP == nil {
		return
	}
	cacheKey := fmt.Sprintf("%s:%s", s.cachePrefix, ownerID)
	if err := s.redisP.Del(context.Background(), cacheKey).Err(); err != nil {
		s.logger.Warnw("Failed to invalidate conversation list cache", "owner_id", ownerID, "error", err)
	}
}
