package rest

import (
	"context"
	"errors"
	"net/http"
	"sellerLab/domain"
	"sellerLab/pkg/logger"
	"time"

	"github.com/AMFarhan21/fres"
	"github.com/labstack/echo/v4"
)

type ShareService interface {
	CreateShareCode(ctx context.Context, experimentID string) (string, time.Time, error)
	Resolve(ctx context.Context, code string) (domain.AnalysisReport, error)
}

type ReportHandler struct {
	shareService ShareService
	timeout      time.Duration
}

func NewReportHandler(svc ShareService) *ReportHandler {
	return &ReportHandler{
		shareService: svc,
		timeout:      10 * time.Second,
	}
}

type ShareCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

// POST /api/v1/experiments/:id/share
func (h *ReportHandler) Share(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	code, expiresAt, err := h.shareService.CreateShareCode(ctx, c.Param("id"))
	if err != nil {
		logger.Error("Failed to create share code", err)
		if errors.Is(err, domain.ErrExperimentNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusCreated, fres.Response.StatusCreated(ShareCodeResponse{
		Code:      code,
		ExpiresAt: expiresAt,
	}))
}

// GET /api/v1/reports/:code is public, the code itself is the credential.
func (h *ReportHandler) Resolve(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	report, err := h.shareService.Resolve(ctx, c.Param("code"))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidShareCode) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		if errors.Is(err, domain.ErrExperimentNotFound) {
			return c.JSON(http.StatusNotFound, ResponseError{Message: err.Error()})
		}
		logger.Error("Failed to resolve shared report", err)
		return c.JSON(http.StatusInternalServerError, ResponseError{Message: err.Error()})
	}

	return c.JSON(http.StatusOK, fres.Response.StatusOK(report))
}
