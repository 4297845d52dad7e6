// Package githubauth implements the TokenSource port for GitHub App
// installation authentication.
package githubauth

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	gh "github.com/google/go-github/v82/github"
	"golang.org/x/sync/singleflight"

	"github.com/ericfisherdev/guardhook/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.TokenSource = (*Broker)(nil)

// expiryMargin is how long before actual expiry a cached token is treated as
// stale. Installation tokens live one hour; refreshing five minutes early
// keeps long fetch/publish sequences from racing the deadline.
const expiryMargin = 5 * time.Minute

// lookupAttempts bounds retries against the identity provider. Failures here
// usually mean misconfiguration (wrong app id, revoked key), so retrying
// indefinitely only delays the diagnosis.
const lookupAttempts = 2

// AuthError is a terminal credential failure: the identity provider rejected
// the application's own identity or the installation exchange. It aborts the
// current event and is never converted to a degraded result.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("github app auth failed during %s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

type cachedToken struct {
	value     string
	expiresAt time.Time
}

func (t cachedToken) valid(now time.Time) bool {
	return t.value != "" && now.Before(t.expiresAt.Add(-expiryMargin))
}

// Broker implements driven.TokenSource. It authenticates as the GitHub App
// with a per-request signed JWT, resolves the installation bound to a
// repository, exchanges it for a short-lived access token, and caches both
// resolutions. The caches are safe for concurrent use; concurrent refreshes
// for the same installation coalesce to a single in-flight exchange while
// lookups for other installations proceed unblocked.
type Broker struct {
	appClient *gh.Client

	mu            sync.RWMutex
	installations map[string]int64
	tokens        map[int64]cachedToken

	group singleflight.Group
}

// NewBroker creates a Broker for the given App id and signing key.
func NewBroker(appID int64, key *rsa.PrivateKey) *Broker {
	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: newJWTTransport(appID, key),
	}
	return &Broker{
		appClient:     gh.NewClient(httpClient),
		installations: make(map[string]int64),
		tokens:        make(map[int64]cachedToken),
	}
}

// NewBrokerWithBaseURL creates a Broker pointed at a custom API base URL.
// This constructor is intended for testing against an httptest server.
func NewBrokerWithBaseURL(appID int64, key *rsa.PrivateKey, baseURL string) (*Broker, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	b := NewBroker(appID, key)
	b.appClient.BaseURL = u
	return b, nil
}

// Token returns a valid installation access token for the repository,
// reusing the cached token until near expiry.
func (b *Broker) Token(ctx context.Context, repoFullName string) (string, error) {
	installID, err := b.installationID(ctx, repoFullName)
	if err != nil {
		return "", err
	}

	b.mu.RLock()
	cached := b.tokens[installID]
	b.mu.RUnlock()
	if cached.valid(time.Now()) {
		return cached.value, nil
	}

	// Coalesce refreshes per installation. The winner re-checks the cache
	// under the lock in case another goroutine refreshed between our read
	// and the singleflight admission.
	v, err, _ := b.group.Do(strconv.FormatInt(installID, 10), func() (any, error) {
		b.mu.RLock()
		cached := b.tokens[installID]
		b.mu.RUnlock()
		if cached.valid(time.Now()) {
			return cached.value, nil
		}

		tok, err := b.exchange(ctx, installID)
		if err != nil {
			return "", err
		}

		b.mu.Lock()
		b.tokens[installID] = tok
		b.mu.Unlock()

		slog.Debug("installation token refreshed",
			"installation_id", installID,
			"expires_at", tok.expiresAt,
		)
		return tok.value, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Invalidate drops the cached token for a repository's installation so the
// next Token call performs a fresh exchange. Called when a downstream API
// call fails authentication mid-event.
func (b *Broker) Invalidate(repoFullName string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.installations[repoFullName]; ok {
		delete(b.tokens, id)
	}
}

// installationID resolves and caches the installation bound to a repository.
// Lookups for the same repository coalesce like token exchanges do.
func (b *Broker) installationID(ctx context.Context, repoFullName string) (int64, error) {
	b.mu.RLock()
	id, ok := b.installations[repoFullName]
	b.mu.RUnlock()
	if ok {
		return id, nil
	}

	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return 0, err
	}

	v, err, _ := b.group.Do("installation:"+repoFullName, func() (any, error) {
		b.mu.RLock()
		id, ok := b.installations[repoFullName]
		b.mu.RUnlock()
		if ok {
			return id, nil
		}

		var inst *gh.Installation
		err := withBoundedRetry(ctx, "installation lookup", func() error {
			var lookupErr error
			inst, _, lookupErr = b.appClient.Apps.FindRepositoryInstallation(ctx, owner, repo)
			return lookupErr
		})
		if err != nil {
			return int64(0), err
		}

		id = inst.GetID()
		b.mu.Lock()
		b.installations[repoFullName] = id
		b.mu.Unlock()

		slog.Info("installation resolved", "repo", repoFullName, "installation_id", id)
		return id, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

// exchange mints a fresh installation access token.
func (b *Broker) exchange(ctx context.Context, installID int64) (cachedToken, error) {
	var tok *gh.InstallationToken
	err := withBoundedRetry(ctx, "token exchange", func() error {
		var exchErr error
		tok, _, exchErr = b.appClient.Apps.CreateInstallationToken(ctx, installID, nil)
		return exchErr
	})
	if err != nil {
		return cachedToken{}, err
	}
	return cachedToken{
		value:     tok.GetToken(),
		expiresAt: tok.GetExpiresAt().Time,
	}, nil
}

// withBoundedRetry runs op at most lookupAttempts times. A 4xx response from
// the identity provider is terminal on the first attempt; only transport
// errors and 5xx responses get the second try.
func withBoundedRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= lookupAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var ghErr *gh.ErrorResponse
		if errors.As(lastErr, &ghErr) && ghErr.Response != nil &&
			ghErr.Response.StatusCode >= 400 && ghErr.Response.StatusCode < 500 {
			return &AuthError{Op: op, Err: lastErr}
		}

		slog.Warn("github app call failed, retrying", "op", op, "attempt", attempt, "error", lastErr)
	}
	return &AuthError{Op: op, Err: lastErr}
}

// splitRepo splits a "owner/repo" string into its two components.
func splitRepo(fullName string) (string, string, error) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo name %q: expected owner/repo", fullName)
	}
	return parts[0], parts[1], nil
}
