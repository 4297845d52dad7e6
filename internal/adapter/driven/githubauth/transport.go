package githubauth

import (
	"crypto/rsa"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// jwtTransport signs a fresh RS256 App JWT for every request. GitHub caps
// App JWT lifetime at ten minutes; signing per request avoids tracking a
// second expiry alongside the installation token cache. The issued-at claim
// is backdated sixty seconds to tolerate clock skew.
type jwtTransport struct {
	appID int64
	key   *rsa.PrivateKey
	base  http.RoundTripper
}

func newJWTTransport(appID int64, key *rsa.PrivateKey) *jwtTransport {
	return &jwtTransport{
		appID: appID,
		key:   key,
		base:  http.DefaultTransport,
	}
}

func (t *jwtTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    strconv.FormatInt(t.appID, 10),
		IssuedAt:  jwt.NewNumericDate(now.Add(-time.Minute)),
		ExpiresAt: jwt.NewNumericDate(now.Add(9 * time.Minute)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(t.key)
	if err != nil {
		return nil, err
	}

	// Clone before mutating; RoundTrippers must not modify the original.
	cloned := req.Clone(req.Context())
	cloned.Header.Set("Authorization", "Bearer "+signed)
	cloned.Header.Set("Accept", "application/vnd.github+json")

	return t.base.RoundTrip(cloned)
}
