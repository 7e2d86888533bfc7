package domain

import (
	"time"

	"gorm.io/datatypes"
)

const (
	ExperimentStatusRunning = "running"
	ExperimentStatusStopped = "stopped"
)

// DefaultOwner is recorded when an experiment is created without an owner.
const DefaultOwner = "system"

// Variant is one arm of an experiment. Config is an opaque payload owned by
// the caller (a pricing rule, ad copy, UI tweak) and is passed through as-is.
type Variant struct {
	Name   string            `json:"name" validate:"required"`
	Config datatypes.JSONMap `json:"config"`
}

type Experiment struct {
	ID        string     `gorm:"column:id;primaryKey" json:"id"`
	Name      string     `gorm:"column:name;not null" json:"name"`
	Owner     string     `gorm:"column:owner;not null" json:"owner"`
	Status    string     `gorm:"column:status;not null" json:"status"`
	StartTime time.Time  `gorm:"column:start_time" json:"start_time"`
	EndTime   *time.Time `gorm:"column:end_time" json:"end_time,omitempty"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime" json:"created_at"`

	VariantsRaw []byte `gorm:"column:variants;type:jsonb" json:"-"`
	MetricsRaw  []byte `gorm:"column:metrics;type:jsonb" json:"-"`
	SplitRaw    []byte `gorm:"column:traffic_split;type:jsonb" json:"-"`

	Variants     []Variant `gorm:"-" json:"variants"`
	Metrics      []string  `gorm:"-" json:"metrics"`
	TrafficSplit []float64 `gorm:"-" json:"traffic_split"`
}

func (Experiment) TableName() string {
	return "experiments"
}

// PrimaryMetric is the winner-selection criterion, always the first declared metric.
func (e Experiment) PrimaryMetric() string {
	if len(e.Metrics) == 0 {
		return ""
	}
	return e.Metrics[0]
}

// ConversionRecord is one observed outcome tied to a subject's variant
// assignment. Variant is always re-derived at record time, never caller-supplied.
type ConversionRecord struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	ExperimentID string            `gorm:"column:experiment_id;not null;index" json:"experiment_id"`
	SubjectID    string            `gorm:"column:subject_id;not null" json:"subject_id"`
	Variant      string            `gorm:"column:variant;not null" json:"variant"`
	Metrics      datatypes.JSONMap `gorm:"column:metrics;type:jsonb" json:"metrics"`
	CreatedAt    time.Time         `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (ConversionRecord) TableName() string {
	return "conversion_events"
}

// MetricSummary holds per-metric aggregates for one variant.
type MetricSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Std    float64 `json:"std"`
}

type VariantResult struct {
	SampleSize int                      `json:"sample_size"`
	Metrics    map[string]MetricSummary `json:"metrics"`
	Config     datatypes.JSONMap        `json:"config"`
}

// AnalysisReport is the full output of analyzing an experiment. Confidence is
// a heuristic score in [0, 0.95] derived from sample sizes, not a p-value.
type AnalysisReport struct {
	ExperimentID   string                   `json:"experiment_id"`
	ExperimentName string                   `json:"experiment_name"`
	Status         string                   `json:"status"`
	Results        map[string]VariantResult `json:"results"`
	Winner         string                   `json:"winner,omitempty"`
	Confidence     float64                  `json:"confidence"`
	Recommendation string                   `json:"recommendation"`
	WinnerConfig   datatypes.JSONMap        `json:"winner_config"`
}

type APICredential struct {
	KeyID      string    `gorm:"column:key_id;primaryKey" json:"key_id"`
	SecretHash string    `gorm:"column:secret_hash;not null" json:"-"`
	Owner      string    `gorm:"column:owner;not null" json:"owner"`
	Role       string    `gorm:"column:role;not null" json:"role"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (APICredential) TableName() string {
	return "api_credentials"
}
