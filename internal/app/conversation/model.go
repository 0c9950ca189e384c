package conversation

import "time"

type Conversation struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	OwnerID   string    `json:"owner_id" gorm:"type:varchar(36);index;not null"`
	Title     string    `json:"title" gorm:"type:varchar(64);not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreateConversationRequest struct {
	FirstMessage string `json:"first_message" binding:"required"`
}

type RenameConversationRequest struct {
	Title string `json:"title" binding:"required"`
}

// BucketedConversations partitions a listing into recency buckets relative
// to a single reference time. Every conversation lands in exactly one bucket.
type BucketedConversations struct {
	Today     []*Conversation `json:"today"`
	Yesterday []*Conversation `json:"yesterday"`
	ThisWeek  []*Conversation `json:"this_week"`
	Older     []*Conversation `json:"older"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
