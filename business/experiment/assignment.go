package experiment

import (
	"context"
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"sellerLab/domain"
)

// assignmentBuckets quantizes the hash space. With 10000 buckets the maximum
// skew between a requested and realized split is 0.01% per bucket boundary.
const assignmentBuckets = 10000

// Assign maps a subject to exactly one variant of an experiment. The mapping
// is a pure function of (subjectID, experimentID) and the experiment's
// immutable configuration: the same pair always yields the same variant, with
// no assignment table required. Any string is a valid subject.
func (s *ExperimentService) Assign(ctx context.Context, subjectID, experimentID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context error: %w", err)
	}

	exp, err := s.getExperiment(ctx, experimentID)
	if err != nil {
		return "", err
	}

	variant := chooseVariant(exp, assignPoint(subjectID, experimentID))

	AssignmentsTotal.WithLabelValues(experimentID, variant).Inc()

	return variant, nil
}

// assignPoint hashes (subject, experiment) into the unit interval [0, 1).
func assignPoint(subjectID, experimentID string) float64 {
	sum := md5.Sum([]byte(subjectID + "_" + experimentID))
	u := binary.BigEndian.Uint64(sum[:8])
	return float64(u%assignmentBuckets) / float64(assignmentBuckets)
}

// chooseVariant walks the variants in declaration order, accumulating split
// probabilities; the subject lands in the first variant whose cumulative sum
// exceeds its point. If floating-point error leaves the cumulative sum just
// under 1.0, the last variant catches the remainder so every subject is
// always assigned.
func chooseVariant(exp domain.Experiment, point float64) string {
	cumulative := 0.0
	for i, split := range exp.TrafficSplit {
		cumulative += split
		if point < cumulative {
			return exp.Variants[i].Name
		}
	}

	return exp.Variants[len(exp.Variants)-1].Name
}
