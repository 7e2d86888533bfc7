package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sellerLab/business/experiment"
	"sellerLab/domain"
	"time"

	"gorm.io/gorm"
)

type ExperimentRepository struct {
	DB *gorm.DB
}

var _ experiment.ExperimentRepository = (*ExperimentRepository)(nil)

func NewExperimentRepository(db *gorm.DB) *ExperimentRepository {
	return &ExperimentRepository{DB: db}
}

func (r *ExperimentRepository) Save(ctx context.Context, exp *domain.Experiment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	if err := encodeExperiment(exp); err != nil {
		return err
	}

	if err := r.DB.WithContext(ctx).Create(exp).Error; err != nil {
		return fmt.Errorf("failed to insert experiment: %w", err)
	}

	return nil
}

func (r *ExperimentRepository) FindByID(ctx context.Context, id string) (domain.Experiment, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Experiment{}, false, fmt.Errorf("context error: %w", err)
	}

	var exp domain.Experiment
	err := r.DB.WithContext(ctx).First(&exp, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return domain.Experiment{}, false, nil
	}
	if err != nil {
		return domain.Experiment{}, false, fmt.Errorf("failed to query experiments: %w", err)
	}

	if err := decodeExperiment(&exp); err != nil {
		return domain.Experiment{}, false, err
	}

	return exp, true, nil
}

func (r *ExperimentRepository) FindAll(ctx context.Context, owner string) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	query := r.DB.WithContext(ctx).Order("created_at DESC")
	if owner != "" {
		query = query.Where("owner = ?", owner)
	}

	var exps []domain.Experiment
	if err := query.Find(&exps).Error; err != nil {
		return nil, fmt.Errorf("failed to query experiments: %w", err)
	}

	for i := range exps {
		if err := decodeExperiment(&exps[i]); err != nil {
			return nil, err
		}
	}

	return exps, nil
}

func (r *ExperimentRepository) UpdateStatus(ctx context.Context, id string, status string, endTime *time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	res := r.DB.WithContext(ctx).
		Model(&domain.Experiment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":   status,
			"end_time": endTime,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update experiment status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", domain.ErrExperimentNotFound, id)
	}

	return nil
}

// encodeExperiment serializes the decoded slices into the raw JSON columns
// before persisting.
func encodeExperiment(exp *domain.Experiment) error {
	var err error
	if exp.VariantsRaw, err = json.Marshal(exp.Variants); err != nil {
		return fmt.Errorf("failed to marshal variants: %w", err)
	}
	if exp.MetricsRaw, err = json.Marshal(exp.Metrics); err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	if exp.SplitRaw, err = json.Marshal(exp.TrafficSplit); err != nil {
		return fmt.Errorf("failed to marshal traffic split: %w", err)
	}
	return nil
}

func decodeExperiment(exp *domain.Experiment) error {
	if len(exp.VariantsRaw) > 0 {
		if err := json.Unmarshal(exp.VariantsRaw, &exp.Variants); err != nil {
			return fmt.Errorf("failed to unmarshal variants: %w", err)
		}
	}
	if len(exp.MetricsRaw) > 0 {
		if err := json.Unmarshal(exp.MetricsRaw, &exp.Metrics); err != nil {
			return fmt.Errorf("failed to unmarshal metrics: %w", err)
		}
	}
	if len(exp.SplitRaw) > 0 {
		if err := json.Unmarshal(exp.SplitRaw, &exp.TrafficSplit); err != nil {
			return fmt.Errorf("failed to unmarshal traffic split: %w", err)
		}
	}
	return nil
}
