package conversation

import (
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(conv *Conversation) error
	GetByID(id string) (*Conversation, error)
	ListByOwner(ownerID string) ([]*Conversation, error)
	Rename(id, title string) error
	Touch(id string) error
	Delete(id string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(conv *Conversation) error {
	now := time.Now().UTC()
	conv.CreatedAt = now
	conv.UpdatedAt = now
	return r.db.Create(conv).Error
}

func (r *repository) GetByID(id string) (*Conversation, error) {
	var conv Conversation
	err := r.db.Where("id = ?", id).First(&conv).Error
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *repository) ListByOwner(ownerID string) ([]*Conversation, error) {
	var conversations []*Conversation
	err := r.db.
		Where("owner_id = ?", ownerID).
		Order("updated_at DESC").
		Find(&conversations).Error
	if err != nil {
		return nil, err
	}
	return conversations, nil
}

func (r *repository) Rename(id, title string) error {
	return r.db.Model(&Conversation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"title": title, "updated_at": time.Now().UTC()}).Error
}

func (r *repository) Touch(id string) error {
	return r.db.Model(&Conversation{}).
		Where("id = ?", id).
		Update("updated_at", time.Now().UTC()).Error
}

func (r *repository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&Conversation{}).Error
}
