package conversation

import (
	"context"
	"strings"
	"testing"
	"time"

	"backend/internal/app/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupService(t *testing.T) (Service, message.Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Conversation{}, &message.Message{}))

	messageSvc := message.NewService(message.NewRepository(db), nil, zap.NewNop())
	return NewService(NewRepository(db), messageSvc, nil, zap.NewNop()), messageSvc
}

func TestDeriveTitle(t *testing.T) {
	assert.Equal(t, "I slept badly again", DeriveTitle("  I slept badly again  "))

	short := strings.Repeat("a", 50)
	assert.Equal(t, short, DeriveTitle(short))

	long := strings.Repeat("b", 51)
	assert.Equal(t, strings.Repeat("b", 50)+"…", DeriveTitle(long))

	// Rune-counted, not byte-counted.
	cyrillic := strings.Repeat("ж", 60)
	assert.Equal(t, strings.Repeat("ж", 50)+"…", DeriveTitle(cyrillic))
}

func TestBucketizePartitionsExactly(t *testing.T) {
	now := time.Date(2026, time.March, 15, 14, 30, 0, 0, time.UTC)

	conversations := []*Conversation{
		{ID: "today-morning", UpdatedAt: time.Date(2026, time.March, 15, 0, 0, 1, 0, time.UTC)},
		{ID: "today-now", UpdatedAt: now},
		{ID: "yesterday-late", UpdatedAt: time.Date(2026, time.March, 14, 23, 59, 59, 0, time.UTC)},
		{ID: "yesterday-early", UpdatedAt: time.Date(2026, time.March, 14, 0, 0, 0, 0, time.UTC)},
		{ID: "this-week", UpdatedAt: now.AddDate(0, 0, -3)},
		{ID: "week-edge", UpdatedAt: now.AddDate(0, 0, -7).Add(time.Second)},
		{ID: "older", UpdatedAt: now.AddDate(0, 0, -7)},
		{ID: "ancient", UpdatedAt: now.AddDate(0, -2, 0)},
	}

	buckets := Bucketize(conversations, now)

	ids := func(convs []*Conversation) []string {
		var out []string
		for _, c := range convs {
			out = append(out, c.ID)
		}
		return out
	}

	assert.Equal(t, []string{"today-morning", "today-now"}, ids(buckets.Today))
	assert.Equal(t, []string{"yesterday-late", "yesterday-early"}, ids(buckets.Yesterday))
	assert.Equal(t, []string{"this-week", "week-edge"}, ids(buckets.ThisWeek))
	assert.Equal(t, []string{"older", "ancient"}, ids(buckets.Older))

	total := len(buckets.Today) + len(buckets.Yesterday) + len(buckets.ThisWeek) + len(buckets.Older)
	assert.Equal(t, len(conversations), total, "every conversation lands in exactly one bucket")
}

func TestCreateDerivesTitleFromFirstMessage(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "alice", "I have been feeling anxious about work lately and cannot sleep")
	require.NoError(t, err)
	assert.Equal(t, "I have been feeling anxious about work lately and…", conv.Title)
	assert.Equal(t, "alice", conv.OwnerID)

	_, err = svc.Create(ctx, "alice", "   ")
	assert.Error(t, err)
}

func TestListFiltersCaseInsensitively(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", "Morning Anxiety")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice", "sleep trouble")
	require.NoError(t, err)
	_, err = svc.Create(ctx, "bob", "anxiety elsewhere")
	require.NoError(t, err)

	buckets, err := svc.List(ctx, "alice", "ANXIETY", time.Now())
	require.NoError(t, err)
	require.Len(t, buckets.Today, 1)
	assert.Equal(t, "Morning Anxiety", buckets.Today[0].Title)

	buckets, err = svc.List(ctx, "alice", "", time.Now())
	require.NoError(t, err)
	assert.Len(t, buckets.Today, 2)
}

func TestDeleteCascadesMessages(t *testing.T) {
	svc, messageSvc := setupService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "alice", "to be deleted")
	require.NoError(t, err)

	_, err = messageSvc.Append(ctx, &message.Message{
		ConversationID: conv.ID,
		SenderID:       "alice",
		Type:           message.TypeText,
		Content:        "hello",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, conv.ID))

	_, err = svc.GetByID(ctx, conv.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	messages, err := messageSvc.ListByConversation(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestRenameValidatesTitle(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "alice", "original")
	require.NoError(t, err)

	require.NoError(t, svc.Rename(ctx, conv.ID, "renamed"))
	got, err := svc.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)

	assert.Error(t, svc.Rename(ctx, conv.ID, "  "))
	assert.Error(t, svc.Rename(ctx, conv.ID, strings.Repeat("x", 80)))

	// The bound is exactly 50 runes, matching the error text.
	require.NoError(t, svc.Rename(ctx, conv.ID, strings.Repeat("z", 50)))
	assert.Error(t, svc.Rename(ctx, conv.ID, strings.Repeat("y", 51)))
}
