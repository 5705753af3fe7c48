package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/m-rossini/balance-category-pipeline/internal/domain"
)

var ErrInvalidRunID = errors.New("invalid run id")

// RunRepository persists run telemetry keyed by run id.
//
// Load returns (nil, nil) when the run does not exist. Storage errors are
// returned as-is (wrapped) and never swallowed.
type RunRepository interface {
	Save(ctx context.Context, run domain.RunRecord) (string, error)
	Load(ctx context.Context, runID string) (*domain.RunRecord, error)
	ListRuns(ctx context.Context) ([]string, error)
}

// ValidateRunID rejects ids that cannot be used as a storage key.
func ValidateRunID(runID string) (string, error) {
	id := strings.TrimSpace(runID)
	if id == "" {
		return "", fmt.Errorf("%w: run id is required", ErrInvalidRunID)
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return id, nil
}
