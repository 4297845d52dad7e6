package driven

import (
	"context"

	"github.com/ericfisherdev/guardhook/internal/domain/model"
)

// ResultPublisher defines the driven port for reporting a scan result back
// to the source-control platform: one summary comment, per-violation line
// annotations (pull requests only), and a single commit status.
//
// The three sub-steps are attempted independently; individual failures are
// recorded in the returned PublishReport and never abort the event. Publish
// itself returns no error for that reason.
type ResultPublisher interface {
	Publish(ctx context.Context, token string, target model.PublishTarget, result model.ScanResult) model.PublishReport
}
