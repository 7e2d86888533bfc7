package rest

import (
	"context"
	"errors"
	"net/http"
	"sellerLab/business/experiment"
	"sellerLab/domain"
	"sellerLab/pkg/logger"
	"sellerLab/pkg/metrics"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/datatypes"
)

type ExperimentService interface {
	Create(ctx context.Context, input experiment.CreateExperimentInput) (domain.Experiment, error)
	Get(ctx context.Context, id string) (domain.Experiment, error)
	List(ctx context.Context, owner string) ([]domain.Experiment, error)
	Stop(ctx context.Context, id string) error
	Assign(ctx context.Context, subjectID, experimentID string) (string, error)
	Record(ctx context.Context, subjectID, experimentID string, metrics map[string]float64) (domain.ConversionRecord, error)
	Analyze(ctx context.Context, experimentID string) (domain.AnalysisReport, error)
}

type ExperimentHandler struct {
	experimentService ExperimentService
	validator         *validator.Validate
	timeout           time.Duration
}

func NewExperimentHandler(svc ExperimentService) *ExperimentHandler {
	return &ExperimentHandler{
		experimentService: svc,
		validator:         validator.New(),
		timeout:           10 * time.Second,
	}
}

// ResponseError is the error body for non-success statuses.
type ResponseError struct {
	Message string `json:"message"`
}

type VariantRequest struct {
	Name   string            `json:"name" validate:"required"`
	Config datatypes.JSONMap `json:"config"`
}

type CreateExperimentRequest struct {
	Name         string           `json:"name" validate:"required"`
	Variants     []VariantRequest `json:"variants" validate:"required,min=1,dive"`
	Metrics      []string         `json:"metrics" validate:"required,min=1"`
	TrafficSplit []float64        `json:"traffic_split,omitempty"`
}

type RecordConversionRequest struct {
	SubjectID string             `json:"subject_id" validate:"required"`
	Metrics   map[string]float64 `json:"metrics"`
}

type AssignmentResponse struct {
	ExperimentID string `json:"experiment_id"`
	SubjectID    string `json:"subject_id"`
	Variant      string `json:"variant"`
}

func (h *ExperimentHandler) Create(c echo.Context) error {
	var req CreateExperimentRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate experiment create", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	variants := make([]domain.Variant, 0, len(req.Variants))
	for _, v := range req.Variants {
		variants = append(variants, domain.Variant{Name: v.Name, Config: v.Config})
	}

	exp, err := h.experimentService.Create(ctx, experiment.CreateExperimentInput{
		Name:         req.Name,
		Owner:        ownerFromContext(c),
		Variants:     variants,
		Metrics:      req.Metrics,
		TrafficSplit: req.TrafficSplit,
	})
	if err != nil {
		logger.Error("Failed to create experiment", err)
		if errors.Is(err, domain.ErrInvalidConfiguration) {
			return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(exp))
}

func (h *ExperimentHandler) List(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	owner := c.QueryParam("owner")
	if c.QueryParam("mine") == "true" {
		owner = ownerFromContext(c)
	}

	exps, err := h.experimentService.List(ctx, owner)
	if err != nil {
		logger.Error("Failed to list experiments", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(exps))
}

func (h *ExperimentHandler) Get(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	exp, err := h.experimentService.Get(ctx, c.Param("id"))
	if err != nil {
		return h.errorJSON(c, err, "Failed to get experiment")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(exp))
}

func (h *ExperimentHandler) Stop(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	if err := h.experimentService.Stop(ctx, c.Param("id")); err != nil {
		return h.errorJSON(c, err, "Failed to stop experiment")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK("experiment stopped"))
}

// GET /api/v1/experiments/:id/assignment?subject_id=user-42
func (h *ExperimentHandler) Assignment(c echo.Context) error {
	metrics.AssignmentRequests.Inc()

	subjectID := c.QueryParam("subject_id")
	if subjectID == "" {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: "subject_id is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	experimentID := c.Param("id")
	variant, err := h.experimentService.Assign(ctx, subjectID, experimentID)
	if err != nil {
		return h.errorJSON(c, err, "Failed to assign subject")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(AssignmentResponse{
		ExperimentID: experimentID,
		SubjectID:    subjectID,
		Variant:      variant,
	}))
}

func (h *ExperimentHandler) RecordConversion(c echo.Context) error {
	var req RecordConversionRequest

	if err := c.Bind(&req); err != nil {
		logger.Error("Invalid request body", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	if err := h.validator.Struct(&req); err != nil {
		logger.Error("Failed to validate conversion record", err)
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	record, err := h.experimentService.Record(ctx, req.SubjectID, c.Param("id"), req.Metrics)
	if err != nil {
		return h.errorJSON(c, err, "Failed to record conversion")
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(record))
}

func (h *ExperimentHandler) Analyze(c echo.Context) error {
	start := time.Now()
	defer func() {
		metrics.AnalyzeLatency.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.experimentService.Analyze(ctx, c.Param("id"))
	if err != nil {
		return h.errorJSON(c, err, "Failed to analyze experiment")
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}

func (h *ExperimentHandler) errorJSON(c echo.Context, err error, logMsg string) error {
	logger.Error(logMsg, err)
	if errors.Is(err, domain.ErrExperimentNotFound) {
		return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
	}
	if errors.Is(err, domain.ErrInvalidConfiguration) {
		return c.JSON(http.StatusBadRequest, ResponseError{Message: err.Error()})
	}
	return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
}

func ownerFromContext(c echo.Context) string {
	if owner, ok := c.Get("key_id").(string); ok && owner != "" {
		return owner
	}
	return domain.DefaultOwner
}
