//go:build !integration

package experiment

import (
	"fmt"
	"math"
	"sellerLab/domain"
	"testing"
)

// scenario params
const (
	stressNumSubjects = 100000
	stressMaxSkew     = 0.02
)

func TestSplitFidelityUnderLoad(t *testing.T) {
	exp := domain.Experiment{
		ID:     "stress01",
		Name:   "split_fidelity",
		Status: domain.ExperimentStatusRunning,
		Variants: []domain.Variant{
			{Name: "a"},
			{Name: "b"},
			{Name: "c"},
		},
		Metrics:      []string{"ctr"},
		TrafficSplit: []float64{0.5, 0.3, 0.2},
	}

	counts := make(map[string]int, len(exp.Variants))
	for i := 0; i < stressNumSubjects; i++ {
		subject := fmt.Sprintf("subject-%d", i)
		counts[chooseVariant(exp, assignPoint(subject, exp.ID))]++
	}

	total := 0
	for _, c := range counts {
		total += c
	}
	if total != stressNumSubjects {
		t.Fatalf("lost subjects: assigned %d of %d", total, stressNumSubjects)
	}

	for i, v := range exp.Variants {
		share := float64(counts[v.Name]) / float64(stressNumSubjects)
		want := exp.TrafficSplit[i]
		t.Logf("[SPLIT] variant=%s requested=%.2f realized=%.4f n=%d", v.Name, want, share, counts[v.Name])
		if math.Abs(share-want) > stressMaxSkew {
			t.Fatalf("variant %s realized share %.4f deviates from %.2f by more than %.2f", v.Name, share, want, stressMaxSkew)
		}
	}
}

func TestEverySubjectAssignedExactlyOnce(t *testing.T) {
	exp := domain.Experiment{
		ID:     "stress02",
		Name:   "coverage",
		Status: domain.ExperimentStatusRunning,
		Variants: []domain.Variant{
			{Name: "a"},
			{Name: "b"},
		},
		Metrics:      []string{"ctr"},
		TrafficSplit: []float64{0.5, 0.5},
	}

	known := map[string]bool{"a": true, "b": true}
	for i := 0; i < 10000; i++ {
		subject := fmt.Sprintf("subject-%d", i)
		v := chooseVariant(exp, assignPoint(subject, exp.ID))
		if !known[v] {
			t.Fatalf("subject %q assigned to unknown variant %q", subject, v)
		}
	}
}
