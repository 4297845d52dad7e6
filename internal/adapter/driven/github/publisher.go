package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/guardhook/internal/domain/model"
	"github.com/ericfisherdev/guardhook/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.ResultPublisher = (*Publisher)(nil)

// Publisher implements the driven.ResultPublisher port. Publication runs in
// three independent sub-steps: summary comment, line annotations (pull
// requests only), and commit status. A failure in one step is recorded and
// the remaining steps still run; the commit status doubles as the fallback
// signal channel when comments cannot be posted.
type Publisher struct {
	build         clientBuilder
	statusContext string
}

// NewPublisher creates a Publisher using the production transport stack.
// statusContext is the fixed label under which the commit status appears.
func NewPublisher(statusContext string) *Publisher {
	return &Publisher{build: defaultClientBuilder, statusContext: statusContext}
}

// NewPublisherWithHTTPClient creates a Publisher with a custom http.Client
// and base URL. This constructor is intended for testing.
func NewPublisherWithHTTPClient(httpClient *http.Client, baseURL, statusContext string) (*Publisher, error) {
	build, err := testClientBuilder(httpClient, baseURL)
	if err != nil {
		return nil, err
	}
	return &Publisher{build: build, statusContext: statusContext}, nil
}

// Publish reports a scan result to the target repository.
func (p *Publisher) Publish(ctx context.Context, token string, target model.PublishTarget, result model.ScanResult) model.PublishReport {
	var report model.PublishReport

	owner, repo, err := splitRepo(target.Repo.FullName)
	if err != nil {
		report.Errors = append(report.Errors, err.Error())
		return report
	}

	client := p.build(token)

	p.postSummary(ctx, client, owner, repo, target, result, &report)
	if target.PRNumber > 0 {
		p.postAnnotations(ctx, client, owner, repo, target, result, &report)
	}
	p.setStatus(ctx, client, owner, repo, target, result, &report)

	return report
}

// postSummary posts one comment synthesizing the scan outcome: counts by
// severity, the enforcement mode, and the mergeable flag. Pull requests get
// an issue-style comment; push commits get a commit comment.
func (p *Publisher) postSummary(ctx context.Context, client *gh.Client, owner, repo string, target model.PublishTarget, result model.ScanResult, report *model.PublishReport) {
	body := renderSummary(result)

	var err error
	if target.PRNumber > 0 {
		_, _, err = client.Issues.CreateComment(ctx, owner, repo, target.PRNumber, &gh.IssueComment{
			Body: gh.Ptr(body),
		})
	} else {
		_, _, err = client.Repositories.CreateComment(ctx, owner, repo, target.CommitSHA, &gh.RepositoryComment{
			Body: gh.Ptr(body),
		})
	}

	if err != nil {
		slog.Error("summary comment failed",
			"repo", target.Repo.FullName,
			"pr", target.PRNumber,
			"sha", target.CommitSHA,
			"error", err,
		)
		report.Errors = append(report.Errors, fmt.Sprintf("summary comment: %v", err))
		return
	}
	report.SummaryPosted = true
}

// postAnnotations posts one line-anchored review comment per violation.
// Violations without a usable file/line anchor are skipped. Each failure is
// logged with the violation's identity and the loop continues.
func (p *Publisher) postAnnotations(ctx context.Context, client *gh.Client, owner, repo string, target model.PublishTarget, result model.ScanResult, report *model.PublishReport) {
	for _, v := range result.Violations {
		if v.FilePath == "" || v.LineNumber <= 0 {
			continue
		}

		report.AnnotationsAttempted++

		comment := &gh.PullRequestComment{
			Body:     gh.Ptr(renderAnnotation(v)),
			Path:     gh.Ptr(v.FilePath),
			Line:     gh.Ptr(v.LineNumber),
			Side:     gh.Ptr("RIGHT"),
			CommitID: gh.Ptr(target.CommitSHA),
		}

		_, _, err := client.PullRequests.CreateComment(ctx, owner, repo, target.PRNumber, comment)
		if err != nil {
			slog.Warn("annotation comment failed",
				"repo", target.Repo.FullName,
				"pr", target.PRNumber,
				"rule", v.RuleID,
				"path", v.FilePath,
				"line", v.LineNumber,
				"error", err,
			)
			report.Errors = append(report.Errors, fmt.Sprintf("annotation %s at %s:%d: %v", v.RuleID, v.FilePath, v.LineNumber, err))
			continue
		}
		report.AnnotationsPosted++
	}
}

// setStatus sets the single commit status reflecting the scan outcome.
func (p *Publisher) setStatus(ctx context.Context, client *gh.Client, owner, repo string, target model.PublishTarget, result model.ScanResult, report *model.PublishReport) {
	status := gh.RepoStatus{
		State:       gh.Ptr(string(result.StatusState())),
		Description: gh.Ptr(renderStatusDescription(result)),
		Context:     gh.Ptr(p.statusContext),
	}

	_, _, err := client.Repositories.CreateStatus(ctx, owner, repo, target.CommitSHA, status)
	if err != nil {
		slog.Error("commit status failed",
			"repo", target.Repo.FullName,
			"sha", target.CommitSHA,
			"state", result.StatusState(),
			"error", err,
		)
		report.Errors = append(report.Errors, fmt.Sprintf("commit status: %v", err))
		return
	}
	report.StatusSet = true
}
