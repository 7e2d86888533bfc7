package postgres

import (
	"context"
	"fmt"
	"sellerLab/business/experiment"
	"sellerLab/domain"

	"gorm.io/gorm"
)

type ConversionRepository struct {
	DB *gorm.DB
}

var _ experiment.ConversionRepository = (*ConversionRepository)(nil)

func NewConversionRepository(db *gorm.DB) *ConversionRepository {
	return &ConversionRepository{DB: db}
}

func (r *ConversionRepository) SaveEvent(ctx context.Context, record domain.ConversionRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := r.DB.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to save conversion event: %w", err)
	}

	return nil
}

// FindByExperiment returns records in insertion order.
func (r *ConversionRepository) FindByExperiment(ctx context.Context, experimentID string) ([]domain.ConversionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var records []domain.ConversionRecord
	err := r.DB.WithContext(ctx).
		Where("experiment_id = ?", experimentID).
		Order("id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query conversion events: %w", err)
	}

	return records, nil
}
