package experiment

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math"
	"sellerLab/domain"
	"sellerLab/pkg/logger"
	"time"

	"gorm.io/datatypes"
)

// splitTolerance is how far a traffic split's sum may deviate from 1.0
// before the experiment is rejected.
const splitTolerance = 0.01

// ---- Repository interfaces ----

type ExperimentRepository interface {
	Save(ctx context.Context, exp *domain.Experiment) error
	FindByID(ctx context.Context, id string) (domain.Experiment, bool, error)
	FindAll(ctx context.Context, owner string) ([]domain.Experiment, error)
	UpdateStatus(ctx context.Context, id string, status string, endTime *time.Time) error
}

type ConversionRepository interface {
	SaveEvent(ctx context.Context, record domain.ConversionRecord) error
	FindByExperiment(ctx context.Context, experimentID string) ([]domain.ConversionRecord, error)
}

// ---- Usecase / Service ----

type ExperimentService struct {
	experimentRepo ExperimentRepository
	conversionRepo ConversionRepository
}

func NewExperimentService(
	experimentRepo ExperimentRepository,
	conversionRepo ConversionRepository,
) *ExperimentService {
	return &ExperimentService{
		experimentRepo: experimentRepo,
		conversionRepo: conversionRepo,
	}
}

type CreateExperimentInput struct {
	Name         string
	Owner        string
	Variants     []domain.Variant
	Metrics      []string
	TrafficSplit []float64
}

func (s *ExperimentService) Create(ctx context.Context, input CreateExperimentInput) (domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Experiment{}, fmt.Errorf("context error: %w", err)
	}

	if len(input.Variants) == 0 {
		return domain.Experiment{}, fmt.Errorf("%w: at least one variant is required", domain.ErrInvalidConfiguration)
	}
	if len(input.Metrics) == 0 {
		return domain.Experiment{}, fmt.Errorf("%w: at least one metric is required", domain.ErrInvalidConfiguration)
	}

	seen := make(map[string]struct{}, len(input.Variants))
	for _, v := range input.Variants {
		if v.Name == "" {
			return domain.Experiment{}, fmt.Errorf("%w: variant name is required", domain.ErrInvalidConfiguration)
		}
		if _, dup := seen[v.Name]; dup {
			return domain.Experiment{}, fmt.Errorf("%w: duplicate variant name %q", domain.ErrInvalidConfiguration, v.Name)
		}
		seen[v.Name] = struct{}{}
	}

	split := input.TrafficSplit
	if len(split) == 0 {
		split = uniformSplit(len(input.Variants))
	}
	if len(split) != len(input.Variants) {
		return domain.Experiment{}, fmt.Errorf(
			"%w: traffic split has %d entries for %d variants",
			domain.ErrInvalidConfiguration, len(split), len(input.Variants),
		)
	}

	sum := 0.0
	for _, p := range split {
		sum += p
	}
	if math.Abs(sum-1.0) > splitTolerance {
		return domain.Experiment{}, fmt.Errorf(
			"%w: traffic split must sum to 1.0, got %.4f",
			domain.ErrInvalidConfiguration, sum,
		)
	}

	owner := input.Owner
	if owner == "" {
		owner = domain.DefaultOwner
	}

	now := time.Now()
	exp := domain.Experiment{
		ID:           newExperimentID(input.Name, now),
		Name:         input.Name,
		Owner:        owner,
		Status:       domain.ExperimentStatusRunning,
		StartTime:    now,
		CreatedAt:    now,
		Variants:     input.Variants,
		Metrics:      input.Metrics,
		TrafficSplit: split,
	}

	if err := s.experimentRepo.Save(ctx, &exp); err != nil {
		return domain.Experiment{}, fmt.Errorf("failed to save experiment: %w", err)
	}

	tid := TraceIDFromContext(ctx)
	logger.Info("experiment_created",
		"trace_id", tid,
		"experiment_id", exp.ID,
		"name", exp.Name,
		"owner", exp.Owner,
		"variants", len(exp.Variants),
	)

	ExperimentsCreatedTotal.Inc()

	return exp, nil
}

func (s *ExperimentService) Get(ctx context.Context, id string) (domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return domain.Experiment{}, fmt.Errorf("context error: %w", err)
	}

	return s.getExperiment(ctx, id)
}

// List returns all experiments, newest first, optionally filtered by owner.
func (s *ExperimentService) List(ctx context.Context, owner string) ([]domain.Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	exps, err := s.experimentRepo.FindAll(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}

	return exps, nil
}

// Stop terminates a running experiment. Stopping an already stopped
// experiment is a no-op.
func (s *ExperimentService) Stop(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	exp, err := s.getExperiment(ctx, id)
	if err != nil {
		return err
	}
	if exp.Status == domain.ExperimentStatusStopped {
		return nil
	}

	now := time.Now()
	if err := s.experimentRepo.UpdateStatus(ctx, id, domain.ExperimentStatusStopped, &now); err != nil {
		return fmt.Errorf("failed to stop experiment: %w", err)
	}

	logger.Info("experiment_stopped", "experiment_id", id)

	return nil
}

// Record appends one conversion observation. The variant is always re-derived
// from the assignment hash so it can never drift from the deterministic
// mapping, even if the caller's own bucketing diverges. Conversions arriving
// after an experiment was stopped are still accepted.
func (s *ExperimentService) Record(
	ctx context.Context,
	subjectID string,
	experimentID string,
	metrics map[string]float64,
) (domain.ConversionRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ConversionRecord{}, fmt.Errorf("context error: %w", err)
	}

	exp, err := s.getExperiment(ctx, experimentID)
	if err != nil {
		return domain.ConversionRecord{}, err
	}

	variant := chooseVariant(exp, assignPoint(subjectID, experimentID))

	payload := make(datatypes.JSONMap, len(metrics))
	for k, v := range metrics {
		payload[k] = v
	}

	record := domain.ConversionRecord{
		ExperimentID: experimentID,
		SubjectID:    subjectID,
		Variant:      variant,
		Metrics:      payload,
		CreatedAt:    time.Now(),
	}

	if err := s.conversionRepo.SaveEvent(ctx, record); err != nil {
		return domain.ConversionRecord{}, fmt.Errorf("failed to save conversion: %w", err)
	}

	tid := TraceIDFromContext(ctx)
	logger.Debug("conversion_recorded",
		"trace_id", tid,
		"experiment_id", experimentID,
		"subject_id", subjectID,
		"variant", variant,
		"metric_count", len(metrics),
	)

	ConversionsTotal.WithLabelValues(experimentID, variant).Inc()

	return record, nil
}

func (s *ExperimentService) getExperiment(ctx context.Context, id string) (domain.Experiment, error) {
	exp, ok, err := s.experimentRepo.FindByID(ctx, id)
	if err != nil {
		return domain.Experiment{}, fmt.Errorf("failed to load experiment: %w", err)
	}
	if !ok {
		return domain.Experiment{}, fmt.Errorf("%w: %s", domain.ErrExperimentNotFound, id)
	}
	return exp, nil
}

func uniformSplit(n int) []float64 {
	split := make([]float64, n)
	for i := range split {
		split[i] = 1.0 / float64(n)
	}
	return split
}

// newExperimentID derives a short opaque id from the name and creation time.
// This is an identifier scheme, not a security boundary; collisions over an
// experiment's lifetime are negligible.
func newExperimentID(name string, now time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", name, now.UnixNano())))
	return hex.EncodeToString(sum[:])[:8]
}
