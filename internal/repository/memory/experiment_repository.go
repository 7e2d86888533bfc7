package memory

import (
	"context"
	"fmt"
	"sellerLab/business/experiment"
	"sellerLab/domain"
	"sort"
	"sync"
	"time"
)

// ExperimentRepository is the in-memory experiment registry. All access goes
// through a single RWMutex held only for the map operation itself;
// experiments are treated as immutable once stored (Stop swaps the whole
// value).
type ExperimentRepository struct {
	mu   sync.RWMutex
	byID map[string]domain.Experiment
}

var _ experiment.ExperimentRepository = (*ExperimentRepository)(nil)

func NewExperimentRepository() *ExperimentRepository {
	return &ExperimentRepository{
		byID: make(map[string]domain.Experiment),
	}
}

func (r *ExperimentRepository) Save(ctx context.Context, exp *domain.Experiment) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[exp.ID]; exists {
		return fmt.Errorf("experiment id %s already exists", exp.ID)
	}
	r.byID[exp.ID] = *exp

	return nil
}

func (r *ExperimentRepository) FindByID(ctx context.Context, id string) (domain.Experiment, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.Experiment{}, false, fmt.Errorf("context error: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	exp, ok := r.byID[id]
	return exp, ok, nil
}

// FindAll returns experiments newest first, optionally filtered by owner.
func (r *ExperimentRepository) FindAll(ctx context.Context, owner string) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.mu.RLock()
	out := make([]domain.Experiment, 0, len(r.byID))
	for _, exp := range r.byID {
		if owner != "" && exp.Owner != owner {
			continue
		}
		out = append(out, exp)
	}
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return out, nil
}

func (r *ExperimentRepository) UpdateStatus(ctx context.Context, id string, status string, endTime *time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	exp, ok := r.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrExperimentNotFound, id)
	}

	exp.Status = status
	exp.EndTime = endTime
	r.byID[id] = exp

	return nil
}
