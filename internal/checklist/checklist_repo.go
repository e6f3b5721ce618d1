package checklist

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	FindAll(ctx context.Context) ([]CatalogItem, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindAll(ctx context.Context) ([]CatalogItem, error) {
	var items []CatalogItem
	err := r.db.WithContext(ctx).
		Order("position ASC, id ASC").
		Find(&items).Error
	return items, err
}
