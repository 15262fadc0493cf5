package mirror

import (
	"context"

	"gorm.io/gorm"
)

// Repository persists event records for the analytics mirror.
type Repository interface {
	SaveBatch(ctx context.Context, records []EventRecord) error
	CountByOperation(ctx context.Context, operation string) (int64, error)
}

type gormRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) (Repository, error) {
	if err := db.AutoMigrate(&EventRecord{}); err != nil {
		return nil, err
	}
	return &gormRepository{db: db}, nil
}

func (r *gormRepository) SaveBatch(ctx context.Context, records []EventRecord) error {
	if len(records) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(records, 100).Error
}

func (r *gormRepository) CountByOperation(ctx context.Context, operation string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&EventRecord{}).
		Where("operation = ?", operation).Count(&count).Error
	return count, err
}
