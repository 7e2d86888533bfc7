package report

import (
	"context"
	"errors"
	"sellerLab/domain"
	"strconv"
	"testing"
	"time"

	"github.com/pobyzaarif/goshortcute"
)

const testShareKey = "0123456789abcdef0123456789abcdef"

type fakeAnalysisProvider struct {
	experiments map[string]domain.Experiment
}

func (f *fakeAnalysisProvider) Get(_ context.Context, id string) (domain.Experiment, error) {
	exp, ok := f.experiments[id]
	if !ok {
		return domain.Experiment{}, domain.ErrExperimentNotFound
	}
	return exp, nil
}

func (f *fakeAnalysisProvider) Analyze(_ context.Context, id string) (domain.AnalysisReport, error) {
	exp, ok := f.experiments[id]
	if !ok {
		return domain.AnalysisReport{}, domain.ErrExperimentNotFound
	}
	return domain.AnalysisReport{ExperimentID: exp.ID, ExperimentName: exp.Name}, nil
}

func newTestShareService() (*shareService, *fakeAnalysisProvider) {
	provider := &fakeAnalysisProvider{
		experiments: map[string]domain.Experiment{
			"exp12345": {ID: "exp12345", Name: "checkout_button"},
		},
	}
	return NewShareService(provider, testShareKey), provider
}

func TestShareCodeRoundTrip(t *testing.T) {
	svc, _ := newTestShareService()
	ctx := context.Background()

	code, expiresAt, err := svc.CreateShareCode(ctx, "exp12345")
	if err != nil {
		t.Fatalf("create share code failed: %v", err)
	}
	if code == "" {
		t.Fatal("expected a non-empty code")
	}
	if !expiresAt.After(time.Now()) {
		t.Fatalf("expiry %v is not in the future", expiresAt)
	}

	report, err := svc.Resolve(ctx, code)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if report.ExperimentID != "exp12345" {
		t.Fatalf("resolved wrong experiment: %q", report.ExperimentID)
	}
}

func TestShareCodeUnknownExperiment(t *testing.T) {
	svc, _ := newTestShareService()

	_, _, err := svc.CreateShareCode(context.Background(), "missing1")
	if !errors.Is(err, domain.ErrExperimentNotFound) {
		t.Fatalf("expected ErrExperimentNotFound, got %v", err)
	}
}

func TestResolveGarbageCode(t *testing.T) {
	svc, _ := newTestShareService()

	_, err := svc.Resolve(context.Background(), "not-a-real-code")
	if !errors.Is(err, domain.ErrInvalidShareCode) {
		t.Fatalf("expected ErrInvalidShareCode, got %v", err)
	}
}

func TestResolveExpiredCode(t *testing.T) {
	svc, _ := newTestShareService()

	// forge a code whose embedded expiry is already in the past
	expired := "exp12345|" + strconv.FormatInt(time.Now().Add(-time.Hour).Unix(), 10)
	encrypted, err := goshortcute.AESCBCEncrypt([]byte(expired), []byte(testShareKey))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	code := goshortcute.StringtoBase64Encode(encrypted)

	_, err = svc.Resolve(context.Background(), code)
	if !errors.Is(err, domain.ErrInvalidShareCode) {
		t.Fatalf("expected ErrInvalidShareCode for expired code, got %v", err)
	}
}

func TestResolveTamperedPayload(t *testing.T) {
	svc, _ := newTestShareService()

	// a valid encryption of a payload with the wrong shape
	encrypted, err := goshortcute.AESCBCEncrypt([]byte("no-separator-here"), []byte(testShareKey))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	code := goshortcute.StringtoBase64Encode(encrypted)

	_, err = svc.Resolve(context.Background(), code)
	if !errors.Is(err, domain.ErrInvalidShareCode) {
		t.Fatalf("expected ErrInvalidShareCode, got %v", err)
	}
}
