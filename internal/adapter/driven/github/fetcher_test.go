package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/guardhook/internal/domain/model"
)

func contentJSON(path, body string) map[string]any {
	return map[string]any{
		"type":     "file",
		"name":     path,
		"path":     path,
		"encoding": "base64",
		"content":  base64.StdEncoding.EncodeToString([]byte(body)),
	}
}

func newTestFetcher(t *testing.T, handler http.Handler) *Fetcher {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	fetcher, err := NewFetcherWithHTTPClient(server.Client(), server.URL+"/")
	require.NoError(t, err)
	return fetcher
}

func TestPullRequestHead(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/pulls/7", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer ghs_token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"number": 7, "head": map[string]any{"sha": "headsha"}})
	})
	fetcher := newTestFetcher(t, mux)

	sha, err := fetcher.PullRequestHead(context.Background(), "ghs_token", "acme/widgets", 7)

	require.NoError(t, err)
	assert.Equal(t, "headsha", sha)
}

func TestPullRequestFiles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"filename": "main.go", "status": "modified", "patch": "@@ -1 +1 @@", "additions": 2, "deletions": 1, "changes": 3},
			{"filename": "legacy.go", "status": "removed", "patch": "@@ -1,5 +0,0 @@", "deletions": 5},
			{"filename": "docs/readme.md", "status": "added", "patch": "@@ -0,0 +1 @@", "additions": 1},
		})
	})
	mux.HandleFunc("GET /repos/acme/widgets/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		path := r.PathValue("path")
		assert.Equal(t, "headsha", r.URL.Query().Get("ref"))
		switch path {
		case "main.go":
			json.NewEncoder(w).Encode(contentJSON(path, "package main"))
		case "docs/readme.md":
			// Content fetch fails; the patch must still carry the change.
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
		default:
			t.Errorf("unexpected contents fetch for %s", path)
			http.NotFound(w, r)
		}
	})
	fetcher := newTestFetcher(t, mux)

	files, err := fetcher.PullRequestFiles(context.Background(), "ghs_token", "acme/widgets", 7, "headsha")

	require.NoError(t, err)
	require.Len(t, files, 3)

	assert.Equal(t, "main.go", files[0].Path)
	assert.Equal(t, model.FileStatusModified, files[0].Status)
	assert.Equal(t, "package main", files[0].Content)
	assert.Equal(t, "@@ -1 +1 @@", files[0].Patch)
	assert.Equal(t, 2, files[0].Additions)

	// Removed files keep metadata but never get content fetched.
	assert.Equal(t, model.FileStatusRemoved, files[1].Status)
	assert.Empty(t, files[1].Content)
	assert.False(t, files[1].HasScanContent())

	// Failed content fetch falls back to patch-only.
	assert.Equal(t, "docs/readme.md", files[2].Path)
	assert.Empty(t, files[2].Content)
	assert.Equal(t, "@@ -0,0 +1 @@", files[2].Patch)
	assert.True(t, files[2].HasScanContent())
}

func TestPullRequestFiles_Paginated(t *testing.T) {
	var listCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		listCalls++
		if r.URL.Query().Get("page") == "" || r.URL.Query().Get("page") == "1" {
			w.Header().Set("Link", fmt.Sprintf(`<http://%s/repos/acme/widgets/pulls/7/files?page=2>; rel="next"`, r.Host))
			json.NewEncoder(w).Encode([]map[string]any{
				{"filename": "a.go", "status": "added", "patch": "@@a"},
			})
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"filename": "b.go", "status": "added", "patch": "@@b"},
		})
	})
	mux.HandleFunc("GET /repos/acme/widgets/contents/{path...}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(contentJSON(r.PathValue("path"), "content"))
	})
	fetcher := newTestFetcher(t, mux)

	files, err := fetcher.PullRequestFiles(context.Background(), "ghs_token", "acme/widgets", 7, "headsha")

	require.NoError(t, err)
	assert.Equal(t, 2, listCalls)
	require.Len(t, files, 2)
	assert.Equal(t, "a.go", files[0].Path)
	assert.Equal(t, "b.go", files[1].Path)
}

func TestPullRequestFiles_Empty(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	})
	fetcher := newTestFetcher(t, mux)

	files, err := fetcher.PullRequestFiles(context.Background(), "ghs_token", "acme/widgets", 7, "headsha")

	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestPullRequestFiles_ListError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/pulls/7/files", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	fetcher := newTestFetcher(t, mux)

	files, err := fetcher.PullRequestFiles(context.Background(), "ghs_token", "acme/widgets", 7, "headsha")

	require.Error(t, err)
	assert.Nil(t, files)
}

func TestCommitFiles(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/acme/widgets/commits/abc123", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"sha": "abc123",
			"files": []map[string]any{
				{"filename": "main.go", "status": "modified", "patch": "@@ -1 +1 @@", "additions": 1, "deletions": 1, "changes": 2},
				{"filename": "new.go", "status": "added", "patch": "@@ -0,0 +3 @@", "additions": 3},
			},
		})
	})
	fetcher := newTestFetcher(t, mux)

	files, err := fetcher.CommitFiles(context.Background(), "ghs_token", "acme/widgets", "abc123")

	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "main.go", files[0].Path)
	assert.Equal(t, model.FileStatusModified, files[0].Status)
	// Commit files are patch-only; no content fetch happens for pushes.
	assert.Empty(t, files[0].Content)
	assert.Equal(t, "@@ -1 +1 @@", files[0].Patch)
	assert.Equal(t, "new.go", files[1].Path)
}

func TestSplitRepo(t *testing.T) {
	owner, repo, err := splitRepo("acme/widgets")
	require.NoError(t, err)
	assert.Equal(t, "acme", owner)
	assert.Equal(t, "widgets", repo)

	for _, bad := range []string{"", "acme", "/widgets", "acme/"} {
		_, _, err := splitRepo(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
