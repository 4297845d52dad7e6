package driven

import (
	"context"

	"github.com/ericfisherdev/guardhook/internal/domain/model"
)

// ContentFetcher defines the driven port for resolving which files changed
// in an event and retrieving their content. Implementations authenticate
// with the per-event installation token.
//
// Partial fetch failures for individual files must not abort the batch: a
// file whose content cannot be retrieved is represented by its patch when
// one exists, or omitted. An empty result is a valid outcome.
type ContentFetcher interface {
	// PullRequestHead returns the current head commit SHA of a pull request.
	// Used by the manual trigger path, which has no webhook payload to read
	// the head from.
	PullRequestHead(ctx context.Context, token, repoFullName string, prNumber int) (string, error)

	// PullRequestFiles lists the files changed in a pull request and fetches
	// each file's content at the PR head revision. Removed files are
	// included with metadata only.
	PullRequestFiles(ctx context.Context, token, repoFullName string, prNumber int, headSHA string) ([]model.ChangedFile, error)

	// CommitFiles enumerates the files touched by a single commit. Content
	// is represented as a diff patch.
	CommitFiles(ctx context.Context, token, repoFullName, sha string) ([]model.ChangedFile, error)
}
