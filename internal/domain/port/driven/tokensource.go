package driven

import "context"

// TokenSource defines the driven port for acquiring short-lived installation
// access tokens. Implementations resolve the installation bound to the
// repository, exchange it for a token, and cache the token until near expiry.
// Concurrent calls for the same installation must coalesce to a single
// in-flight exchange.
type TokenSource interface {
	// Token returns a valid access token for the given "owner/repo" name.
	// Authentication failures from the identity provider are terminal for
	// the current event; they are not retried indefinitely.
	Token(ctx context.Context, repoFullName string) (string, error)
}
