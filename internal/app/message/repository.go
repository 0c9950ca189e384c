package message

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	Append(msg *Message) (bool, error)
	GetByID(id string) (*Message, error)
	ListByConversation(conversationID string) ([]*Message, error)
	MarkRead(id string) error
	MarkConversationRead(conversationID, readerID string) ([]string, error)
	UpdateAnnotations(id string, reactions ReactionMap, read *bool) error
	DeleteByConversation(conversationID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Append inserts the message at the end of the conversation log. Inserting
// an id that already exists is a no-op; the bool result reports whether a row
// was actually written. Replayed realtime events depend on this.
func (r *repository) Append(msg *Message) (bool, error) {
	now := time.Now().UTC()
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = now
	}
	msg.UpdatedAt = now
	if msg.Reactions == nil {
		msg.Reactions = ReactionMap{}
	}

	result := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(msg)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) GetByID(id string) (*Message, error) {
	var msg Message
	err := r.db.Where("id = ?", id).First(&msg).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *repository) ListByConversation(conversationID string) ([]*Message, error) {
	var messages []*Message
	err := r.db.
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *repository) MarkRead(id string) error {
	return r.db.Model(&Message{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"read": true, "updated_at": time.Now().UTC()}).Error
}

// MarkConversationRead flips the read flag on every unread message in the
// conversation that was sent by someone other than the reader, and returns
// the ids of the rows it touched so the flips can be broadcast.
func (r *repository) MarkConversationRead(conversationID, readerID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND read = ?", conversationID, readerID, false).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	err = r.db.Model(&Message{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"read": true, "updated_at": time.Now().UTC()}).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateAnnotations replaces the mutable annotation fields on an existing
// row. It never creates a row; updating an unknown id is a no-op.
func (r *repository) UpdateAnnotations(id string, reactions ReactionMap, read *bool) error {
	updates := map[string]interface{}{"updated_at": time.Now().UTC()}
	if reactions != nil {
		updates["reactions"] = reactions
	}
	if read != nil {
		updates["read"] = *read
	}
	return r.db.Model(&Message{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repository) DeleteByConversation(conversationID string) error {
	return r.db.Where("conversation_id = ?", conversationID).Delete(&Message{}).Error
}
