package report

import (
	"context"
	"fmt"
	"sellerLab/domain"
	"sellerLab/pkg/logger"
	"strconv"
	"strings"
	"time"

	"github.com/pobyzaarif/goshortcute"
)

// AnalysisProvider contract interface
type AnalysisProvider interface {
	Get(ctx context.Context, id string) (domain.Experiment, error)
	Analyze(ctx context.Context, id string) (domain.AnalysisReport, error)
}

const shareCodeTTL = 7 * 24 * time.Hour

type shareService struct {
	analysis AnalysisProvider
	shareKey string
}

func NewShareService(analysis AnalysisProvider, shareKey string) *shareService {
	return &shareService{
		analysis: analysis,
		shareKey: shareKey,
	}
}

// CreateShareCode issues an opaque code that grants read access to an
// experiment's analysis report for a limited time.
func (s *shareService) CreateShareCode(ctx context.Context, experimentID string) (string, time.Time, error) {
	if err := ctx.Err(); err != nil {
		return "", time.Time{}, fmt.Errorf("context error: %w", err)
	}

	if _, err := s.analysis.Get(ctx, experimentID); err != nil {
		return "", time.Time{}, err
	}

	expiresAt := time.Now().Add(shareCodeTTL)
	payload := experimentID + "|" + strconv.FormatInt(expiresAt.Unix(), 10)

	encrypted, err := goshortcute.AESCBCEncrypt([]byte(payload), []byte(s.shareKey))
	if err != nil {
		logger.Error("Failed to encrypt share code", err)
		return "", time.Time{}, fmt.Errorf("failed to encrypt share code: %w", err)
	}

	code := goshortcute.StringtoBase64Encode(encrypted)
	logger.Info("Created report share code", "experiment_id", experimentID)
	return code, expiresAt, nil
}

// Resolve decodes a share code and returns the live analysis report for the
// experiment it points at.
func (s *shareService) Resolve(ctx context.Context, code string) (domain.AnalysisReport, error) {
	if err := ctx.Err(); err != nil {
		return domain.AnalysisReport{}, fmt.Errorf("context error: %w", err)
	}

	strDecode := goshortcute.StringtoBase64Decode(code)
	payload, err := goshortcute.AESCBCDecrypt([]byte(strDecode), []byte(s.shareKey))
	if err != nil {
		logger.Warn("Share code decryption failed", err)
		return domain.AnalysisReport{}, domain.ErrInvalidShareCode
	}

	parts := strings.Split(payload, "|")
	if len(parts) != 2 {
		return domain.AnalysisReport{}, domain.ErrInvalidShareCode
	}

	experimentID := parts[0]
	ts, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return domain.AnalysisReport{}, domain.ErrInvalidShareCode
	}
	if time.Now().After(time.Unix(ts, 0)) {
		return domain.AnalysisReport{}, domain.ErrInvalidShareCode
	}

	return s.analysis.Analyze(ctx, experimentID)
}
