package memory

import (
	"context"
	"fmt"
	"sellerLab/business/experiment"
	"sellerLab/domain"
	"sync"
)

// ConversionRepository is the in-memory append-only conversion ledger.
// Records are never mutated or removed; FindByExperiment returns a snapshot
// so analysis never observes a partially appended record.
type ConversionRepository struct {
	mu     sync.RWMutex
	events []domain.ConversionRecord
	nextID uint
}

var _ experiment.ConversionRepository = (*ConversionRepository)(nil)

func NewConversionRepository() *ConversionRepository {
	return &ConversionRepository{nextID: 1}
}

func (r *ConversionRepository) SaveEvent(ctx context.Context, record domain.ConversionRecord) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	r.mu.Lock()
	record.ID = r.nextID
	r.nextID++
	r.events = append(r.events, record)
	r.mu.Unlock()

	return nil
}

// FindByExperiment returns all records for one experiment in insertion order.
func (r *ConversionRepository) FindByExperiment(ctx context.Context, experimentID string) ([]domain.ConversionRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.ConversionRecord, 0)
	for _, rec := range r.events {
		if rec.ExperimentID == experimentID {
			out = append(out, rec)
		}
	}

	return out, nil
}
