package media

import "time"

type Kind string

const (
	KindVoice Kind = "voice"
	KindVideo Kind = "video"
	KindImage Kind = "image"
)

func (k Kind) Valid() bool {
	switch k {
	case KindVoice, KindVideo, KindImage:
		return true
	}
	return false
}

// Recorded reports whether captures of this kind go through the recording
// state machine (images are uploaded directly).
func (k Kind) Recorded() bool {
	return k == KindVoice || k == KindVideo
}

// Asset is a durable media object. A message referencing it is only ever
// created after the asset exists, so a media message can never be visible
// without its URL.
type Asset struct {
	ID              string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID         string    `json:"owner_id" gorm:"type:varchar(36);index;not null"`
	Kind            Kind      `json:"kind" gorm:"type:varchar(16);not null"`
	URL             string    `json:"url" gorm:"not null"`
	ObjectName      string    `json:"object_name" gorm:"type:varchar(500);not null"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	ThumbObjectName string    `json:"thumb_object_name,omitempty" gorm:"type:varchar(500)"`
	ContentType     string    `json:"content_type" gorm:"type:varchar(100);not null"`
	Size            int64     `json:"size" gorm:"not null"`
	DurationMs      int64     `json:"duration_ms,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
