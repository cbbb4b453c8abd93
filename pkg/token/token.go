// Package token models the bearer token handed out by the auth endpoint:
// extracting its expiry without ever validating its signature, persisting
// it across process runs, and deciding when it needs refreshing.
package token

import (
	"encoding/base64"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

// expirySkew is the safety margin subtracted from "now" when deciding
// whether a token has expired: a token good for less than this is treated
// as already expired so a caller never races the provider's own clock.
const expirySkew = 2 * time.Second

// demoExpiry is the far-future expiry (seconds since epoch) stamped into
// the demo token, used by in-process demo Clients that never talk to the
// real API. Demo tokens are never persisted to the cache file.
const demoExpiry = 32503680000 // 3000-01-01T00:00:00Z

var demoToken = buildDemoToken()

// buildDemoToken assembles a well-formed, unsigned three-segment JWT
// carrying only the exp claim this package ever reads.
func buildDemoToken() string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":` + strconv.FormatInt(demoExpiry, 10) + `}`))
	return header + "." + payload + ".demo"
}

// Token is the bearer token returned by the auth endpoint: the raw
// compact three-segment JWT plus its extracted expiry (seconds since the
// Unix epoch), read from the unverified `exp` claim.
type Token struct {
	Raw    string
	Expiry int64
}

// Demo returns a Token that never expires, for use by demo/test Clients
// that hold no KeyPair and must not contact the real auth endpoint.
func Demo() *Token {
	return &Token{Raw: demoToken, Expiry: demoExpiry}
}

// Parse extracts the expiry from a raw compact JWT without validating its
// signature — the provider signed it; only the caller's own polling loop
// cares about expiry, never about authenticity of a token it already holds.
func Parse(raw string) (*Token, error) {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	if err != nil {
		return nil, apierr.Wrap(apierr.InvalidToken, "parsing token payload", err)
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return nil, apierr.New(apierr.InvalidToken, "token payload missing numeric exp claim")
	}

	return &Token{Raw: raw, Expiry: int64(expFloat)}, nil
}

// Expired reports whether this token is unusable: true when fewer than
// expirySkew remain before its expiry. A nil Token is always expired.
func (t *Token) Expired(now time.Time) bool {
	if t == nil {
		return true
	}
	return time.Unix(t.Expiry, 0).Sub(now) < expirySkew
}

// Load reads a cached token from path. Any failure — missing file, unreadable
// contents, unparseable payload — is treated as "no cached token", not a
// hard error: token caching is an optimisation, not a correctness requirement.
func Load(path string) (*Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apierr.Wrap(apierr.IO, "reading token cache", err)
	}
	return Parse(string(data))
}

// Store writes the token's raw bytes to path verbatim: no framing, no
// trailing newline. The file is created with owner-only permissions.
func (t *Token) Store(path string) error {
	if err := os.WriteFile(path, []byte(t.Raw), 0o600); err != nil {
		return apierr.Wrap(apierr.IO, "writing token cache", err)
	}
	return nil
}
