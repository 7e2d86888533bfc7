package experiment

import (
	"context"
	"fmt"
	"math"
	"sellerLab/domain"
	"sellerLab/pkg/logger"

	"gorm.io/datatypes"
)

// minWinnerSamples is the hard floor: no winner is declared while any variant
// has fewer observations than this, regardless of the metric values.
const minWinnerSamples = 10

// Analyze aggregates the conversion ledger per variant and applies the
// winner-selection rule. Variants with no data are reported with sample_size
// 0 rather than omitted; numeric degeneracy (empty or single-point samples)
// yields 0, never an error. The only failure mode is an unknown experiment.
func (s *ExperimentService) Analyze(ctx context.Context, experimentID string) (domain.AnalysisReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnalysisReport{}, fmt.Errorf("context error: %w", err)
	}

	exp, err := s.getExperiment(ctx, experimentID)
	if err != nil {
		return domain.AnalysisReport{}, err
	}

	records, err := s.conversionRepo.FindByExperiment(ctx, experimentID)
	if err != nil {
		return domain.AnalysisReport{}, fmt.Errorf("failed to load conversions: %w", err)
	}

	byVariant := make(map[string][]domain.ConversionRecord)
	for _, r := range records {
		byVariant[r.Variant] = append(byVariant[r.Variant], r)
	}

	results := make(map[string]domain.VariantResult, len(exp.Variants))
	for _, v := range exp.Variants {
		rows := byVariant[v.Name]

		cfg := v.Config
		if cfg == nil {
			cfg = datatypes.JSONMap{}
		}

		result := domain.VariantResult{
			SampleSize: len(rows),
			Metrics:    map[string]domain.MetricSummary{},
			Config:     cfg,
		}

		if len(rows) > 0 {
			for _, metric := range exp.Metrics {
				result.Metrics[metric] = summarize(metricValues(rows, metric))
			}
		}

		results[v.Name] = result
	}

	winner, confidence := determineWinner(exp, results)

	report := domain.AnalysisReport{
		ExperimentID:   exp.ID,
		ExperimentName: exp.Name,
		Status:         exp.Status,
		Results:        results,
		Winner:         winner,
		Confidence:     confidence,
		Recommendation: recommendation(winner, confidence),
		WinnerConfig:   datatypes.JSONMap{},
	}
	if winner != "" {
		report.WinnerConfig = results[winner].Config
	}

	tid := TraceIDFromContext(ctx)
	logger.Debug("experiment_analyzed",
		"trace_id", tid,
		"experiment_id", exp.ID,
		"records", len(records),
		"winner", winner,
		"confidence", confidence,
	)

	AnalysesTotal.WithLabelValues(exp.ID).Inc()

	return report, nil
}

// determineWinner picks the variant with the highest primary-metric mean.
// Ties go to the first declared variant. The confidence score is a monotonic
// function of the smallest variant's sample size, capped at 0.95. It is a
// heuristic, not a significance test.
func determineWinner(exp domain.Experiment, results map[string]domain.VariantResult) (string, float64) {
	minSample := math.MaxInt
	for _, v := range exp.Variants {
		size := results[v.Name].SampleSize
		if size < minWinnerSamples {
			return "", 0
		}
		if size < minSample {
			minSample = size
		}
	}

	primary := exp.PrimaryMetric()
	winner := ""
	bestValue := math.Inf(-1)

	for _, v := range exp.Variants {
		summary, ok := results[v.Name].Metrics[primary]
		if !ok {
			continue
		}
		if summary.Mean > bestValue {
			bestValue = summary.Mean
			winner = v.Name
		}
	}

	if winner == "" {
		return "", 0
	}

	confidence := 0.5 + float64(minSample)/100*0.45
	if confidence > 0.95 {
		confidence = 0.95
	}

	return winner, confidence
}

func recommendation(winner string, confidence float64) string {
	if winner == "" {
		return "Insufficient data; continue collecting before making a decision."
	}

	if confidence < 0.7 {
		return fmt.Sprintf(
			"Variant %s leads but confidence is low (%.0f%%); keep observing.",
			winner, confidence*100,
		)
	}

	return fmt.Sprintf(
		"Variant %s is significantly better (%.0f%% confidence); adopt it.",
		winner, confidence*100,
	)
}
