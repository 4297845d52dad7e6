// Package application contains use-case orchestration services.
package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/ericfisherdev/guardhook/internal/domain/model"
	"github.com/ericfisherdev/guardhook/internal/domain/port/driven"
)

// State is the terminal state an event reached. Transitions are strictly
// forward: received events either get rejected at the router, ignored by
// classification, or driven through authentication, content gathering,
// scanning and publication exactly once.
type State string

const (
	StateIgnored           State = "ignored"
	StatePublished         State = "published"
	StateDegradedPublished State = "degraded-published"
	StateFailed            State = "failed"
)

// CommitOutcome is the per-commit result within a push event.
type CommitOutcome struct {
	SHA        string `json:"sha"`
	State      State  `json:"state"`
	Violations int    `json:"violations"`
	Detail     string `json:"detail,omitempty"`
}

// Outcome is what an event handling run produced. The router serializes it
// into the acknowledgement body, so downstream failures surface to the
// webhook source as information rather than as retriable server errors.
type Outcome struct {
	State      State           `json:"state"`
	DeliveryID string          `json:"delivery_id,omitempty"`
	Repo       string          `json:"repository,omitempty"`
	ScanID     string          `json:"scan_id,omitempty"`
	Violations int             `json:"violations"`
	CanMerge   bool            `json:"can_merge"`
	Degraded   bool            `json:"degraded,omitempty"`
	Detail     string          `json:"detail,omitempty"`
	Commits    []CommitOutcome `json:"commits,omitempty"`
}

// tokenInvalidator is implemented by token sources that can drop a cached
// token after a downstream authentication failure.
type tokenInvalidator interface {
	Invalidate(repoFullName string)
}

// PipelineService drives an inbound event through credential acquisition,
// content gathering, scanning and publication. Each event is handled
// independently; the only state shared across events lives inside the token
// source's cache.
type PipelineService struct {
	tokens    driven.TokenSource
	fetcher   driven.ContentFetcher
	scanner   driven.Scanner
	publisher driven.ResultPublisher
	detectAI  bool
}

// NewPipelineService creates a PipelineService with all required collaborators.
func NewPipelineService(
	tokens driven.TokenSource,
	fetcher driven.ContentFetcher,
	scanner driven.Scanner,
	publisher driven.ResultPublisher,
	detectAI bool,
) *PipelineService {
	return &PipelineService{
		tokens:    tokens,
		fetcher:   fetcher,
		scanner:   scanner,
		publisher: publisher,
		detectAI:  detectAI,
	}
}

// HandleEvent runs the pipeline for one classified webhook delivery.
// It never returns an error: terminal failures become a StateFailed outcome
// so the router can acknowledge the delivery either way.
func (s *PipelineService) HandleEvent(ctx context.Context, event model.InboundEvent) Outcome {
	if !event.Actionable() {
		slog.Info("event ignored",
			"delivery_id", event.DeliveryID,
			"kind", event.Kind,
			"action", event.Action,
		)
		return Outcome{
			State:      StateIgnored,
			DeliveryID: event.DeliveryID,
			Repo:       event.Repo.FullName,
			Detail:     fmt.Sprintf("no action for %s/%s", event.Kind, event.Action),
		}
	}

	token, err := s.tokens.Token(ctx, event.Repo.FullName)
	if err != nil {
		slog.Error("credential acquisition failed",
			"delivery_id", event.DeliveryID,
			"repo", event.Repo.FullName,
			"error", err,
		)
		return Outcome{
			State:      StateFailed,
			DeliveryID: event.DeliveryID,
			Repo:       event.Repo.FullName,
			Detail:     fmt.Sprintf("credential acquisition failed: %v", err),
		}
	}

	switch event.Kind {
	case model.EventKindPullRequest:
		return s.handlePullRequest(ctx, token, event)
	case model.EventKindPush:
		return s.handlePush(ctx, token, event)
	default:
		// Actionable() admits only the two kinds above.
		return Outcome{State: StateIgnored, DeliveryID: event.DeliveryID}
	}
}

// RunPullRequest re-runs the pipeline for a pull request outside the webhook
// trigger, for operator diagnostics. The head SHA is resolved from the API
// since there is no payload to read it from.
func (s *PipelineService) RunPullRequest(ctx context.Context, owner, repo string, prNumber int) Outcome {
	fullName := owner + "/" + repo
	deliveryID := "manual-" + uuid.NewString()

	token, err := s.tokens.Token(ctx, fullName)
	if err != nil {
		return Outcome{
			State:      StateFailed,
			DeliveryID: deliveryID,
			Repo:       fullName,
			Detail:     fmt.Sprintf("credential acquisition failed: %v", err),
		}
	}

	headSHA, err := s.fetcher.PullRequestHead(ctx, token, fullName, prNumber)
	if err != nil {
		s.invalidate(fullName)
		return Outcome{
			State:      StateFailed,
			DeliveryID: deliveryID,
			Repo:       fullName,
			Detail:     fmt.Sprintf("head resolution failed: %v", err),
		}
	}

	event := model.InboundEvent{
		Kind:       model.EventKindPullRequest,
		Action:     "manual",
		DeliveryID: deliveryID,
		Repo:       model.Repository{FullName: fullName, Owner: owner, Name: repo},
		PullRequest: &model.PullRequestRef{
			Number:  prNumber,
			HeadSHA: headSHA,
		},
	}
	return s.handlePullRequest(ctx, token, event)
}

// handlePullRequest gathers content, scans, and publishes for a PR event.
// An empty changeset short-circuits to a clean publication without invoking
// the scanner.
func (s *PipelineService) handlePullRequest(ctx context.Context, token string, event model.InboundEvent) Outcome {
	pr := event.PullRequest
	repo := event.Repo.FullName

	files, err := s.fetcher.PullRequestFiles(ctx, token, repo, pr.Number, pr.HeadSHA)
	if err != nil {
		s.invalidate(repo)
		slog.Error("content gathering failed",
			"delivery_id", event.DeliveryID,
			"repo", repo,
			"pr", pr.Number,
			"error", err,
		)
		return Outcome{
			State:      StateFailed,
			DeliveryID: event.DeliveryID,
			Repo:       repo,
			Detail:     fmt.Sprintf("content gathering failed: %v", err),
		}
	}

	target := model.PublishTarget{
		Repo:      event.Repo,
		PRNumber:  pr.Number,
		CommitSHA: pr.HeadSHA,
	}

	result := s.scanOrShortCircuit(ctx, event, repo, pr.Number, pr.HeadSHA, files)
	report := s.publisher.Publish(ctx, token, target, result)
	s.logReport(event.DeliveryID, repo, report)

	return s.outcome(event, result)
}

// handlePush scans and publishes each commit sequentially. A failure on one
// commit is logged and the loop continues; partial success is expected and
// correct, not a failure of the whole event.
func (s *PipelineService) handlePush(ctx context.Context, token string, event model.InboundEvent) Outcome {
	repo := event.Repo.FullName
	commits := make([]CommitOutcome, 0, len(event.Commits))
	anyDegraded := false
	canMerge := true

	for _, commit := range event.Commits {
		files, err := s.fetcher.CommitFiles(ctx, token, repo, commit.SHA)
		if err != nil {
			s.invalidate(repo)
			slog.Error("commit content gathering failed",
				"delivery_id", event.DeliveryID,
				"repo", repo,
				"sha", commit.SHA,
				"error", err,
			)
			commits = append(commits, CommitOutcome{
				SHA:    commit.SHA,
				State:  StateFailed,
				Detail: fmt.Sprintf("content gathering failed: %v", err),
			})
			continue
		}

		target := model.PublishTarget{Repo: event.Repo, CommitSHA: commit.SHA}

		result := s.scanOrShortCircuit(ctx, event, repo, 0, commit.SHA, files)
		report := s.publisher.Publish(ctx, token, target, result)
		s.logReport(event.DeliveryID, repo, report)

		state := StatePublished
		if result.Degraded {
			state = StateDegradedPublished
			anyDegraded = true
		}
		if !result.CanMerge {
			canMerge = false
		}
		commits = append(commits, CommitOutcome{
			SHA:        commit.SHA,
			State:      state,
			Violations: len(result.Violations),
			Detail:     result.DegradedCause,
		})
	}

	state := StatePublished
	if anyDegraded {
		state = StateDegradedPublished
	}
	return Outcome{
		State:      state,
		DeliveryID: event.DeliveryID,
		Repo:       repo,
		CanMerge:   canMerge,
		Degraded:   anyDegraded,
		Commits:    commits,
	}
}

// scanOrShortCircuit invokes the scanner unless the changeset carries no
// scannable content, in which case a clean result is synthesized directly.
func (s *PipelineService) scanOrShortCircuit(ctx context.Context, event model.InboundEvent, repo string, prNumber int, sha string, files []model.ChangedFile) model.ScanResult {
	req := model.BuildScanRequest(repo, prNumber, sha, files, s.detectAI)
	if len(req.Files) == 0 {
		slog.Info("no scannable files, short-circuiting",
			"delivery_id", event.DeliveryID,
			"repo", repo,
			"changed_files", len(files),
		)
		return model.CleanResult(repo)
	}

	result := s.scanner.Scan(ctx, req)
	slog.Info("scan complete",
		"delivery_id", event.DeliveryID,
		"repo", repo,
		"scan_id", result.ScanID,
		"violations", len(result.Violations),
		"degraded", result.Degraded,
	)
	return result
}

// outcome folds a published result into the event-level outcome.
func (s *PipelineService) outcome(event model.InboundEvent, result model.ScanResult) Outcome {
	state := StatePublished
	if result.Degraded {
		state = StateDegradedPublished
	}
	return Outcome{
		State:      state,
		DeliveryID: event.DeliveryID,
		Repo:       event.Repo.FullName,
		ScanID:     result.ScanID,
		Violations: len(result.Violations),
		CanMerge:   result.CanMerge,
		Degraded:   result.Degraded,
		Detail:     result.DegradedCause,
	}
}

// invalidate drops the cached token for a repository when the token source
// supports it, so the next delivery performs a fresh exchange.
func (s *PipelineService) invalidate(repoFullName string) {
	if inv, ok := s.tokens.(tokenInvalidator); ok {
		inv.Invalidate(repoFullName)
	}
}

// logReport logs publication failures with enough context to diagnose
// permission or API issues. Publication never fails the event.
func (s *PipelineService) logReport(deliveryID, repo string, report model.PublishReport) {
	if report.Complete() {
		return
	}
	slog.Warn("publication incomplete",
		"delivery_id", deliveryID,
		"repo", repo,
		"summary_posted", report.SummaryPosted,
		"annotations_posted", report.AnnotationsPosted,
		"annotations_attempted", report.AnnotationsAttempted,
		"status_set", report.StatusSet,
		"errors", report.Errors,
	)
}
