package reaction

import (
	"context"
	"testing"

	"backend/internal/app/message"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestApplyLastWriterWinsPerParticipant(t *testing.T) {
	reactions := message.ReactionMap{"alice": "👍"}

	updated := Apply(reactions, "alice", "❤️")
	assert.Equal(t, message.ReactionMap{"alice": "❤️"}, updated)

	updated = Apply(updated, "bob", "😂")
	assert.Equal(t, message.ReactionMap{"alice": "❤️", "bob": "😂"}, updated)
}

func TestApplySameEmojiTwiceIsInvolution(t *testing.T) {
	empty := message.ReactionMap{}

	once := Apply(empty, "alice", "👍")
	assert.Equal(t, message.ReactionMap{"alice": "👍"}, once)

	twice := Apply(once, "alice", "👍")
	assert.Empty(t, twice)
	assert.NotNil(t, twice)
}

func TestApplyDoesNotMutateInput(t *testing.T) {
	original := message.ReactionMap{"alice": "👍"}

	Apply(original, "alice", "👍")
	Apply(original, "bob", "❤️")

	assert.Equal(t, message.ReactionMap{"alice": "👍"}, original)
}

func setupToggle(t *testing.T) (Service, message.Service) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&message.Message{}))

	messageSvc := message.NewService(message.NewRepository(db), nil, zap.NewNop())
	return NewService(messageSvc, zap.NewNop()), messageSvc
}

func TestTogglePersistsThroughMessageLog(t *testing.T) {
	svc, messageSvc := setupToggle(t)
	ctx := context.Background()

	_, err := messageSvc.Append(ctx, &message.Message{
		ID:             "m1",
		ConversationID: "c1",
		SenderID:       "alice",
		Type:           message.TypeText,
		Content:        "react to me",
	})
	require.NoError(t, err)

	updated, err := svc.Toggle(ctx, "c1", "m1", "bob", "🔥")
	require.NoError(t, err)
	assert.Equal(t, message.ReactionMap{"bob": "🔥"}, updated)

	msg, err := messageSvc.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, message.ReactionMap{"bob": "🔥"}, msg.Reactions)

	// Toggling the identical emoji removes the reaction again.
	updated, err = svc.Toggle(ctx, "c1", "m1", "bob", "🔥")
	require.NoError(t, err)
	assert.Empty(t, updated)

	msg, err = messageSvc.GetByID(ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, msg.Reactions)
}

func TestToggleGuards(t *testing.T) {
	svc, messageSvc := setupToggle(t)
	ctx := context.Background()

	_, err := svc.Toggle(ctx, "c1", "m1", "bob", "")
	assert.ErrorIs(t, err, ErrEmptyEmoji)

	_, err = svc.Toggle(ctx, "c1", "missing", "bob", "👍")
	assert.Error(t, err)

	_, err = messageSvc.Append(ctx, &message.Message{
		ID:             "m1",
		ConversationID: "c1",
		SenderID:       "alice",
		Type:           message.TypeText,
		Content:        "hello",
	})
	require.NoError(t, err)

	_, err = svc.Toggle(ctx, "other-conv", "m1", "bob", "👍")
	assert.Error(t, err)
}
