package message

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Type string

const (
	TypeText    Type = "text"
	TypeVoice   Type = "voice"
	TypeVideo   Type = "video"
	TypeImage   Type = "image"
	TypeSticker Type = "sticker"
)

func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeVoice, TypeVideo, TypeImage, TypeSticker:
		return true
	}
	return false
}

// RequiresMedia reports whether a message of this type must carry a media
// URL before it may exist in the log.
func (t Type) RequiresMedia() bool {
	switch t {
	case TypeVoice, TypeVideo, TypeImage:
		return true
	}
	return false
}

// ReactionMap maps a participant id to the single emoji that participant has
// placed on a message. Stored as a JSON column.
type ReactionMap map[string]string

func (m ReactionMap) Value() (driver.Value, error) {
	if m == nil {
		m = ReactionMap{}
	}
	return json.Marshal(m)
}

func (m *ReactionMap) Scan(value interface{}) error {
	if value == nil {
		*m = ReactionMap{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported reaction column type %T", value)
	}
	if len(data) == 0 {
		*m = ReactionMap{}
		return nil
	}
	return json.Unmarshal(data, m)
}

// Clone returns a copy safe to mutate without touching the original.
func (m ReactionMap) Clone() ReactionMap {
	out := make(ReactionMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Message struct {
	ID             string      `json:"id" gorm:"primaryKey;type:varchar(36)"`
	ConversationID string      `json:"conversation_id" gorm:"type:varchar(36);index;not null"`
	SenderID       string      `json:"sender_id" gorm:"type:varchar(36);not null"`
	Type           Type        `json:"type" gorm:"type:varchar(16);not null"`
	Content        string      `json:"content"`
	MediaURL       string      `json:"media_url,omitempty"`
	MediaDuration  int64       `json:"media_duration_ms,omitempty"`
	ThumbnailURL   string      `json:"thumbnail_url,omitempty"`
	Read           bool        `json:"read"`
	Reactions      ReactionMap `json:"reactions" gorm:"type:jsonb"`
	ReplyToID      *string     `json:"reply_to_id,omitempty" gorm:"type:varchar(36)"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

type CreateMessageRequest struct {
	ID            string  `json:"id"`
	Type          Type    `json:"type" binding:"required"`
	Content       string  `json:"content"`
	MediaURL      string  `json:"media_url"`
	MediaDuration int64   `json:"media_duration_ms"`
	ThumbnailURL  string  `json:"thumbnail_url"`
	ReplyToID     *string `json:"reply_to_id"`
}

// ReplyPreview is the rendered reference to a reply target, resolved against
// the already-loaded log. Missing targets resolve to a placeholder instead of
// an error.
type ReplyPreview struct {
	ID        string `json:"id"`
	Type      Type   `json:"type,omitempty"`
	Preview   string `json:"preview"`
	Available bool   `json:"available"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
