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
var _ driven.ContentFetcher = (*Fetcher)(nil)

// Fetcher implements the driven.ContentFetcher port.
type Fetcher struct {
	build clientBuilder
}

// NewFetcher creates a Fetcher using the production transport stack.
func NewFetcher() *Fetcher {
	return &Fetcher{build: defaultClientBuilder}
}

// NewFetcherWithHTTPClient creates a Fetcher with a custom http.Client and
// base URL. This constructor is intended for testing, allowing injection of
// an httptest server.
func NewFetcherWithHTTPClient(httpClient *http.Client, baseURL string) (*Fetcher, error) {
	build, err := testClientBuilder(httpClient, baseURL)
	if err != nil {
		return nil, err
	}
	return &Fetcher{build: build}, nil
}

// PullRequestHead returns the current head commit SHA of a pull request.
func (f *Fetcher) PullRequestHead(ctx context.Context, token, repoFullName string, prNumber int) (string, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return "", err
	}

	client := f.build(token)

	pr, resp, err := client.PullRequests.Get(ctx, owner, repo, prNumber)
	if err != nil {
		return "", fmt.Errorf("fetching head for %s#%d: %w", repoFullName, prNumber, err)
	}

	logRateLimit(resp, repoFullName+"/pr-head", 0, 1)

	return pr.GetHead().GetSHA(), nil
}

// PullRequestFiles lists the files changed in a pull request, then fetches
// each file's content at the PR head revision. Removed files keep their
// metadata but contribute no content. A file whose content cannot be fetched
// is kept with its patch when one exists, or dropped; either way the batch
// continues.
func (f *Fetcher) PullRequestFiles(ctx context.Context, token, repoFullName string, prNumber int, headSHA string) ([]model.ChangedFile, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	client := f.build(token)

	opts := &gh.ListOptions{PerPage: 100}
	var changed []model.ChangedFile

	for {
		files, resp, err := client.PullRequests.ListFiles(ctx, owner, repo, prNumber, opts)
		if err != nil {
			return nil, fmt.Errorf("listing files for %s#%d (page %d): %w", repoFullName, prNumber, opts.Page, err)
		}

		logRateLimit(resp, repoFullName+"/pr-files", opts.Page, len(files))

		for _, file := range files {
			changed = append(changed, f.resolveFile(ctx, client, owner, repo, repoFullName, headSHA, file))
		}

		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	if changed == nil {
		changed = []model.ChangedFile{}
	}

	return changed, nil
}

// CommitFiles enumerates the files touched by a single commit. Content is
// represented by the patch GitHub returns with the commit; full-content
// fetches are not attempted for push events.
func (f *Fetcher) CommitFiles(ctx context.Context, token, repoFullName, sha string) ([]model.ChangedFile, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	client := f.build(token)

	commit, resp, err := client.Repositories.GetCommit(ctx, owner, repo, sha, &gh.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("fetching commit %s@%s: %w", repoFullName, sha, err)
	}

	logRateLimit(resp, repoFullName+"/commit", 0, len(commit.Files))

	changed := make([]model.ChangedFile, 0, len(commit.Files))
	for _, file := range commit.Files {
		changed = append(changed, mapFile(file))
	}

	return changed, nil
}

// resolveFile maps a listed file and attaches its content at the head
// revision when it can be fetched.
func (f *Fetcher) resolveFile(ctx context.Context, client *gh.Client, owner, repo, repoFullName, headSHA string, file *gh.CommitFile) model.ChangedFile {
	cf := mapFile(file)
	if cf.Status == model.FileStatusRemoved {
		return cf
	}

	content, _, resp, err := client.Repositories.GetContents(ctx, owner, repo, cf.Path, &gh.RepositoryContentGetOptions{Ref: headSHA})
	if err != nil || content == nil {
		slog.Warn("file content unavailable, falling back to patch",
			"repo", repoFullName,
			"path", cf.Path,
			"ref", headSHA,
			"error", err,
		)
		return cf
	}

	logRateLimit(resp, repoFullName+"/contents", 0, 1)

	decoded, err := content.GetContent()
	if err != nil {
		// Binary or otherwise undecodable content; the patch still carries
		// the change for the scanner.
		slog.Warn("file content not decodable", "repo", repoFullName, "path", cf.Path, "error", err)
		return cf
	}

	cf.Content = decoded
	return cf
}

// mapFile converts a go-github CommitFile to a domain ChangedFile.
func mapFile(file *gh.CommitFile) model.ChangedFile {
	return model.ChangedFile{
		Path:      file.GetFilename(),
		Status:    model.FileStatus(file.GetStatus()),
		Patch:     file.GetPatch(),
		Additions: file.GetAdditions(),
		Deletions: file.GetDeletions(),
		Changes:   file.GetChanges(),
	}
}
