package driven

import (
	"context"

	"github.com/ericfisherdev/guardhook/internal/domain/model"
)

// Scanner defines the driven port for the external analysis backend.
//
// Scan never fails from the caller's perspective: when the backend is
// unreachable, times out, or rejects the request, the implementation returns
// a degraded ScanResult (no violations, advisory enforcement, mergeable)
// with the cause recorded on it. A down analysis backend must never itself
// block merges or crash the orchestrator.
type Scanner interface {
	Scan(ctx context.Context, req model.ScanRequest) model.ScanResult
}
