package experiment

import (
	"context"
	"errors"
	"sellerLab/domain"
	"testing"
	"time"

	"gorm.io/datatypes"
)

// minimal in-test fakes for the repository contracts

type fakeExperimentRepo struct {
	experiments map[string]domain.Experiment
}

func newFakeExperimentRepo() *fakeExperimentRepo {
	return &fakeExperimentRepo{experiments: make(map[string]domain.Experiment)}
}

func (r *fakeExperimentRepo) Save(_ context.Context, exp *domain.Experiment) error {
	r.experiments[exp.ID] = *exp
	return nil
}

func (r *fakeExperimentRepo) FindByID(_ context.Context, id string) (domain.Experiment, bool, error) {
	exp, ok := r.experiments[id]
	return exp, ok, nil
}

func (r *fakeExperimentRepo) FindAll(_ context.Context, owner string) ([]domain.Experiment, error) {
	var out []domain.Experiment
	for _, exp := range r.experiments {
		if owner == "" || exp.Owner == owner {
			out = append(out, exp)
		}
	}
	return out, nil
}

func (r *fakeExperimentRepo) UpdateStatus(_ context.Context, id string, status string, endTime *time.Time) error {
	exp, ok := r.experiments[id]
	if !ok {
		return domain.ErrExperimentNotFound
	}
	exp.Status = status
	exp.EndTime = endTime
	r.experiments[id] = exp
	return nil
}

type fakeConversionRepo struct {
	records []domain.ConversionRecord
}

func (r *fakeConversionRepo) SaveEvent(_ context.Context, record domain.ConversionRecord) error {
	r.records = append(r.records, record)
	return nil
}

func (r *fakeConversionRepo) FindByExperiment(_ context.Context, experimentID string) ([]domain.ConversionRecord, error) {
	var out []domain.ConversionRecord
	for _, rec := range r.records {
		if rec.ExperimentID == experimentID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func newTestService() (*ExperimentService, *fakeExperimentRepo, *fakeConversionRepo) {
	expRepo := newFakeExperimentRepo()
	convRepo := &fakeConversionRepo{}
	return NewExperimentService(expRepo, convRepo), expRepo, convRepo
}

func twoVariants() []domain.Variant {
	return []domain.Variant{
		{Name: "control", Config: datatypes.JSONMap{"color": "red"}},
		{Name: "treatment", Config: datatypes.JSONMap{"color": "blue"}},
	}
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateExperimentInput
	}{
		{
			"no variants",
			CreateExperimentInput{Name: "x", Metrics: []string{"ctr"}},
		},
		{
			"no metrics",
			CreateExperimentInput{Name: "x", Variants: twoVariants()},
		},
		{
			"empty variant name",
			CreateExperimentInput{
				Name:     "x",
				Variants: []domain.Variant{{Name: ""}},
				Metrics:  []string{"ctr"},
			},
		},
		{
			"duplicate variant name",
			CreateExperimentInput{
				Name:     "x",
				Variants: []domain.Variant{{Name: "a"}, {Name: "a"}},
				Metrics:  []string{"ctr"},
			},
		},
		{
			"split length mismatch",
			CreateExperimentInput{
				Name:         "x",
				Variants:     twoVariants(),
				Metrics:      []string{"ctr"},
				TrafficSplit: []float64{1.0},
			},
		},
		{
			"split does not sum to one",
			CreateExperimentInput{
				Name:         "x",
				Variants:     twoVariants(),
				Metrics:      []string{"ctr"},
				TrafficSplit: []float64{0.5, 0.3},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(ctx, tc.input)
			if !errors.Is(err, domain.ErrInvalidConfiguration) {
				t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
			}
		})
	}
}

func TestCreateDefaults(t *testing.T) {
	svc, _, _ := newTestService()

	exp, err := svc.Create(context.Background(), CreateExperimentInput{
		Name:     "checkout_button",
		Variants: twoVariants(),
		Metrics:  []string{"conversion_rate", "revenue"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if len(exp.ID) != 8 {
		t.Fatalf("expected 8-char id, got %q", exp.ID)
	}
	if exp.Status != domain.ExperimentStatusRunning {
		t.Fatalf("status = %q, want running", exp.Status)
	}
	if exp.Owner != domain.DefaultOwner {
		t.Fatalf("owner = %q, want default owner", exp.Owner)
	}
	if len(exp.TrafficSplit) != 2 || !almostEqual(exp.TrafficSplit[0], 0.5) || !almostEqual(exp.TrafficSplit[1], 0.5) {
		t.Fatalf("expected uniform split, got %v", exp.TrafficSplit)
	}
	if exp.PrimaryMetric() != "conversion_rate" {
		t.Fatalf("primary metric = %q, want conversion_rate", exp.PrimaryMetric())
	}
}

func TestCreateAcceptsSplitWithinTolerance(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), CreateExperimentInput{
		Name:         "rounding",
		Variants:     []domain.Variant{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		Metrics:      []string{"ctr"},
		TrafficSplit: []float64{0.33, 0.33, 0.33},
	})
	if err != nil {
		t.Fatalf("split summing to 0.99 should be accepted: %v", err)
	}
}

func TestGetUnknownExperiment(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Get(context.Background(), "missing1")
	if !errors.Is(err, domain.ErrExperimentNotFound) {
		t.Fatalf("expected ErrExperimentNotFound, got %v", err)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()

	exp, err := svc.Create(ctx, CreateExperimentInput{
		Name:     "stop_me",
		Variants: twoVariants(),
		Metrics:  []string{"ctr"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Stop(ctx, exp.ID); err != nil {
		t.Fatalf("first stop failed: %v", err)
	}

	stopped := repo.experiments[exp.ID]
	if stopped.Status != domain.ExperimentStatusStopped {
		t.Fatalf("status = %q, want stopped", stopped.Status)
	}
	if stopped.EndTime == nil {
		t.Fatal("expected end time to be set")
	}
	firstEnd := *stopped.EndTime

	if err := svc.Stop(ctx, exp.ID); err != nil {
		t.Fatalf("second stop failed: %v", err)
	}
	if !repo.experiments[exp.ID].EndTime.Equal(firstEnd) {
		t.Fatal("second stop must not move the end time")
	}
}

func TestStopUnknownExperiment(t *testing.T) {
	svc, _, _ := newTestService()

	err := svc.Stop(context.Background(), "missing1")
	if !errors.Is(err, domain.ErrExperimentNotFound) {
		t.Fatalf("expected ErrExperimentNotFound, got %v", err)
	}
}

func TestRecordDerivesVariantFromAssignment(t *testing.T) {
	svc, _, convRepo := newTestService()
	ctx := context.Background()

	exp, err := svc.Create(ctx, CreateExperimentInput{
		Name:     "consistency",
		Variants: twoVariants(),
		Metrics:  []string{"revenue"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	for i := 0; i < 50; i++ {
		subject := string(rune('a'+i%26)) + "-subject"
		assigned, err := svc.Assign(ctx, subject, exp.ID)
		if err != nil {
			t.Fatalf("assign failed: %v", err)
		}

		rec, err := svc.Record(ctx, subject, exp.ID, map[string]float64{"revenue": 1})
		if err != nil {
			t.Fatalf("record failed: %v", err)
		}
		if rec.Variant != assigned {
			t.Fatalf("recorded variant %q does not match assignment %q", rec.Variant, assigned)
		}
	}

	if len(convRepo.records) != 50 {
		t.Fatalf("expected 50 records, got %d", len(convRepo.records))
	}
}

func TestRecordAfterStopStillAccepted(t *testing.T) {
	svc, _, convRepo := newTestService()
	ctx := context.Background()

	exp, err := svc.Create(ctx, CreateExperimentInput{
		Name:     "late_events",
		Variants: twoVariants(),
		Metrics:  []string{"revenue"},
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := svc.Stop(ctx, exp.ID); err != nil {
		t.Fatalf("stop failed: %v", err)
	}

	if _, err := svc.Record(ctx, "straggler", exp.ID, map[string]float64{"revenue": 9.5}); err != nil {
		t.Fatalf("conversion after stop must be accepted: %v", err)
	}
	if len(convRepo.records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(convRepo.records))
	}
}

func TestRecordUnknownExperiment(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Record(context.Background(), "s1", "missing1", nil)
	if !errors.Is(err, domain.ErrExperimentNotFound) {
		t.Fatalf("expected ErrExperimentNotFound, got %v", err)
	}
}
