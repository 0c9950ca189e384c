package media

import (
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	Create(asset *Asset) error
	GetByID(id string) (*Asset, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(asset *Asset) error {
	asset.CreatedAt = time.Now().UTC()
	return r.db.Create(asset).Error
}

func (r *repository) GetByID(id string) (*Asset, error) {
	var asset Asset
	err := r.db.Where("id = ?", id).First(&asset).Error
	if err != nil {
		return nil, err
	}
	return &asset, nil
}
