package experiment

import (
	"context"
	"sellerLab/domain"
	"strings"
	"testing"

	"gorm.io/datatypes"
)

func seedConversions(repo *fakeConversionRepo, experimentID, variant string, values []float64) {
	for _, v := range values {
		repo.records = append(repo.records, domain.ConversionRecord{
			ExperimentID: experimentID,
			SubjectID:    "seeded",
			Variant:      variant,
			Metrics:      datatypes.JSONMap{"conversion_rate": v},
		})
	}
}

func repeat(value float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = value
	}
	return out
}

func analysisFixture() (*ExperimentService, *fakeExperimentRepo, *fakeConversionRepo, domain.Experiment) {
	svc, expRepo, convRepo := newTestService()

	exp := domain.Experiment{
		ID:     "exp12345",
		Name:   "checkout_button",
		Status: domain.ExperimentStatusRunning,
		Variants: []domain.Variant{
			{Name: "control", Config: datatypes.JSONMap{"color": "red"}},
			{Name: "treatment", Config: datatypes.JSONMap{"color": "blue"}},
		},
		Metrics:      []string{"conversion_rate"},
		TrafficSplit: []float64{0.5, 0.5},
	}
	expRepo.experiments[exp.ID] = exp

	return svc, expRepo, convRepo, exp
}

func TestAnalyzeNoData(t *testing.T) {
	svc, _, _, exp := analysisFixture()

	report, err := svc.Analyze(context.Background(), exp.ID)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if len(report.Results) != 2 {
		t.Fatalf("expected every declared variant in results, got %d", len(report.Results))
	}
	for name, res := range report.Results {
		if res.SampleSize != 0 {
			t.Fatalf("variant %s sample size = %d, want 0", name, res.SampleSize)
		}
		if len(res.Metrics) != 0 {
			t.Fatalf("variant %s should have no metric summaries without data", name)
		}
	}
	if report.Winner != "" || report.Confidence != 0 {
		t.Fatalf("no winner expected, got %q with confidence %v", report.Winner, report.Confidence)
	}
	if !strings.Contains(report.Recommendation, "Insufficient data") {
		t.Fatalf("unexpected recommendation: %q", report.Recommendation)
	}
	if len(report.WinnerConfig) != 0 {
		t.Fatalf("winner config should be empty, got %v", report.WinnerConfig)
	}
}

func TestAnalyzeWinnerFloor(t *testing.T) {
	svc, _, convRepo, exp := analysisFixture()

	// treatment clearly leads but has only 9 samples
	seedConversions(convRepo, exp.ID, "control", repeat(0.01, 50))
	seedConversions(convRepo, exp.ID, "treatment", repeat(0.99, 9))

	report, err := svc.Analyze(context.Background(), exp.ID)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if report.Winner != "" {
		t.Fatalf("winner declared below the sample floor: %q", report.Winner)
	}
	if !strings.Contains(report.Recommendation, "Insufficient data") {
		t.Fatalf("unexpected recommendation: %q", report.Recommendation)
	}
}

func TestAnalyzeWinnerLowConfidence(t *testing.T) {
	svc, _, convRepo, exp := analysisFixture()

	seedConversions(convRepo, exp.ID, "control", repeat(0.02, 40))
	seedConversions(convRepo, exp.ID, "treatment", repeat(0.05, 45))

	report, err := svc.Analyze(context.Background(), exp.ID)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if report.Winner != "treatment" {
		t.Fatalf("winner = %q, want treatment", report.Winner)
	}
	// min sample is 40, so confidence = 0.5 + 40/100*0.45 = 0.68
	if !almostEqual(report.Confidence, 0.68) {
		t.Fatalf("confidence = %v, want 0.68", report.Confidence)
	}
	if !strings.Contains(report.Recommendation, "confidence is low") {
		t.Fatalf("unexpected recommendation: %q", report.Recommendation)
	}
}

func TestAnalyzeWinnerHighConfidence(t *testing.T) {
	svc, _, convRepo, exp := analysisFixture()

	seedConversions(convRepo, exp.ID, "control", repeat(0.02, 200))
	seedConversions(convRepo, exp.ID, "treatment", repeat(0.05, 200))

	report, err := svc.Analyze(context.Background(), exp.ID)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if report.Winner != "treatment" {
		t.Fatalf("winner = %q, want treatment", report.Winner)
	}
	// confidence is capped at 0.95 regardless of sample size
	if !almostEqual(report.Confidence, 0.95) {
		t.Fatalf("confidence = %v, want 0.95", report.Confidence)
	}
	if !strings.Contains(report.Recommendation, "adopt it") {
		t.Fatalf("unexpected recommendation: %q", report.Recommendation)
	}
	if report.WinnerConfig["color"] != "blue" {
		t.Fatalf("winner config = %v, want the treatment config", report.WinnerConfig)
	}
}

func TestAnalyzeTieGoesToFirstDeclaredVariant(t *testing.T) {
	svc, _, convRepo, exp := analysisFixture()

	seedConversions(convRepo, exp.ID, "control", repeat(0.05, 30))
	seedConversions(convRepo, exp.ID, "treatment", repeat(0.05, 30))

	report, err := svc.Analyze(context.Background(), exp.ID)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	if report.Winner != "control" {
		t.Fatalf("tie must go to the first declared variant, got %q", report.Winner)
	}
}

func TestAnalyzeOneVariantWithoutData(t *testing.T) {
	svc, _, convRepo, exp := analysisFixture()

	seedConversions(convRepo, exp.ID, "control", repeat(0.05, 30))

	report, err := svc.Analyze(context.Background(), exp.ID)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	treatment := report.Results["treatment"]
	if treatment.SampleSize != 0 || len(treatment.Metrics) != 0 {
		t.Fatalf("empty variant should report sample 0 and no summaries, got %+v", treatment)
	}
	if report.Winner != "" {
		t.Fatalf("no winner can be declared with an empty variant, got %q", report.Winner)
	}
}

func TestAnalyzeUnknownExperiment(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Analyze(context.Background(), "missing1")
	if err == nil {
		t.Fatal("expected error for unknown experiment")
	}
}

func TestAnalyzeMissingMetricDragsMeanDown(t *testing.T) {
	svc, _, convRepo, exp := analysisFixture()

	// half the treatment records did not report the metric at all
	seedConversions(convRepo, exp.ID, "control", repeat(0.04, 20))
	seedConversions(convRepo, exp.ID, "treatment", repeat(0.1, 10))
	for i := 0; i < 10; i++ {
		convRepo.records = append(convRepo.records, domain.ConversionRecord{
			ExperimentID: exp.ID,
			SubjectID:    "seeded",
			Variant:      "treatment",
			Metrics:      datatypes.JSONMap{},
		})
	}

	report, err := svc.Analyze(context.Background(), exp.ID)
	if err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	treatment := report.Results["treatment"]
	if treatment.SampleSize != 20 {
		t.Fatalf("sample size = %d, want 20 (missing metrics still count)", treatment.SampleSize)
	}
	got := treatment.Metrics["conversion_rate"].Mean
	if !almostEqual(got, 0.05) {
		t.Fatalf("mean = %v, want 0.05 with missing values counted as 0", got)
	}
}
