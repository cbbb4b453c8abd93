package client

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transipdev/transip-acme-go/pkg/authrequest"
	cfgpkg "github.com/transipdev/transip-acme-go/pkg/config"
)

func writeTestKey(t *testing.T) string {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "key.pem")
	require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))
	return path
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	cfg := &cfgpkg.Config{
		Username:        "demo-user",
		PrivateKeyPath:  writeTestKey(t),
		TokenPath:       filepath.Join(t.TempDir(), "token"),
		WhitelistedOnly: false,
		ReadOnly:        false,
		TokenExpiration: authrequest.Expiration{Count: 30, Unit: authrequest.Minutes},
		LogLevel:        "info",
		LogFormat:       "text",
	}

	c, err := New(cfg, nil, nil)
	require.NoError(t, err)
	c.baseURL = baseURL
	c.tok = nil // force refresh on first call
	return c
}

// TestAuthRefreshTriggeredByExpiredToken covers scenario S2: a missing
// cached token (equivalent to one with exp=0) triggers a POST /auth with a
// Signature header and a body byte-identical to what gets signed; the
// resulting token then serves subsequent calls without re-authenticating.
func TestAuthRefreshTriggeredByExpiredToken(t *testing.T) {
	authCalls := 0
	apiCalls := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth":
			authCalls++
			assert.NotEmpty(t, r.Header.Get("Signature"))
			assert.Empty(t, r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"token":"` + makeJWT(t, time.Now().Add(5*time.Minute).Unix()) + `"}`))
		case "/api-test":
			apiCalls++
			assert.Contains(t, r.Header.Get("Authorization"), "Bearer ")
			_, _ = w.Write([]byte(`{"ping":"pong"}`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/")

	_, err := c.ApiTest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, authCalls)
	assert.Equal(t, 1, apiCalls)

	// A second call within the token's lifetime must not re-authenticate.
	_, err = c.ApiTest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, authCalls)
	assert.Equal(t, 2, apiCalls)
}

func TestCloseWritesTokenCacheForOwnedKey(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"token":"` + makeJWT(t, time.Now().Add(time.Hour).Unix()) + `"}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL+"/")
	newToken, err := c.authenticate(context.Background())
	require.NoError(t, err)
	c.tok = newToken

	c.Close()

	data, err := os.ReadFile(c.cfg.TokenPath)
	require.NoError(t, err)
	assert.Equal(t, c.tok.Raw, string(data))
}

func TestCloseDoesNothingForDemoClient(t *testing.T) {
	c := Demo()
	c.Close() // must not panic despite no configured TokenPath
}

func makeJWT(t *testing.T, expUnix int64) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload := base64.RawURLEncoding.EncodeToString([]byte(`{"exp":` + strconv.FormatInt(expUnix, 10) + `}`))
	return header + "." + payload + ".sig"
}
