package client

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
	"github.com/transipdev/transip-acme-go/pkg/authrequest"
	"github.com/transipdev/transip-acme-go/pkg/config"
	"github.com/transipdev/transip-acme-go/pkg/cryptoutil"
	"github.com/transipdev/transip-acme-go/pkg/httpagent"
	"github.com/transipdev/transip-acme-go/pkg/logging"
	"github.com/transipdev/transip-acme-go/pkg/token"
)

const apiPrefix = "https://api.transip.nl/v6/"

// Instrumentation is the seam the Client reports HTTP and token-refresh
// outcomes through. *telemetry.Telemetry satisfies it; callers that do not
// care about metrics may pass nil, and every call becomes a no-op.
type Instrumentation interface {
	ObserveHTTP(method, outcome string, elapsed time.Duration)
	ObserveTokenRefresh(outcome string)
	Tracer() trace.Tracer
}

// Client is the façade over the provider's REST API: it owns the HTTP
// agent, the RSA key pair used to sign auth requests, and the current
// bearer token, refreshing the token lazily as operations require it.
//
// A Client is not safe for concurrent use: token refresh mutates shared
// state. Callers needing concurrent access must serialize externally.
type Client struct {
	baseURL string
	cfg     *config.Config
	key     *cryptoutil.KeyPair
	agent   *httpagent.Agent
	tok     *token.Token
	log     *logging.Logger
	instr   Instrumentation
}

// noopInstrumentation is used when the caller supplies no Instrumentation.
type noopInstrumentation struct{}

func (noopInstrumentation) ObserveHTTP(string, string, time.Duration) {}
func (noopInstrumentation) ObserveTokenRefresh(string)                {}
func (noopInstrumentation) Tracer() trace.Tracer                      { return tracenoop.NewTracerProvider().Tracer("noop") }

// New constructs a Client from cfg: it hard-fails if the PEM key cannot be
// loaded, and soft-fails (proceeds with no cached token) if the token cache
// cannot be read. log and instr may be nil, in which case a default logger
// and a no-op instrumentation are used.
func New(cfg *config.Config, log *logging.Logger, instr Instrumentation) (*Client, error) {
	key, err := cryptoutil.FromFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, err
	}

	cachedToken, _ := token.Load(cfg.TokenPath)

	if log == nil {
		log = logging.NewDefault()
	}
	if instr == nil {
		instr = noopInstrumentation{}
	}

	return &Client{
		baseURL: apiPrefix,
		cfg:     cfg,
		key:     key,
		agent:   httpagent.New(cfg.IPv6Only),
		tok:     cachedToken,
		log:     log,
		instr:   instr,
	}, nil
}

// Demo builds a Client with a never-expiring demo token and no KeyPair,
// suitable for tests and examples that must never reach the real API or
// persist a token.
func Demo() *Client {
	return &Client{
		baseURL: apiPrefix,
		cfg:     nil,
		key:     nil,
		agent:   httpagent.New(false),
		tok:     token.Demo(),
		log:     logging.NewDefault(),
		instr:   noopInstrumentation{},
	}
}

// Test builds a Client pointed at an arbitrary base URL (a test server),
// carrying a demo token so no auth round-trip happens.
func Test(baseURL string) *Client {
	c := Demo()
	c.baseURL = baseURL
	return c
}

// Close persists the current token to the configured cache path, if this
// Client owns a KeyPair (i.e. is not a demo/test instance) and currently
// holds a token. Write failures are logged and swallowed: token caching is
// an optimisation, not a correctness requirement.
func (c *Client) Close() {
	if c.key == nil || c.tok == nil {
		return
	}
	if err := c.tok.Store(c.cfg.TokenPath); err != nil {
		c.log.Error("writing token cache", "path", c.cfg.TokenPath, "error", err)
	}
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// refreshTokenIfNeeded is the invariant pre-condition for every
// authenticated call. If the current token is not expired it is a no-op;
// otherwise it performs the auth round-trip within a named "token_refresh"
// span and replaces the owned token on success. On failure the old
// (already-expired) token is left in place — the next caller retries.
func (c *Client) refreshTokenIfNeeded(ctx context.Context) error {
	if !c.tok.Expired(time.Now()) {
		return nil
	}
	if c.key == nil {
		return apierr.New(apierr.InvalidToken, "no token available and client holds no key pair")
	}

	ctx, span := c.instr.Tracer().Start(ctx, "token_refresh")
	defer span.End()

	start := time.Now()
	newToken, err := c.authenticate(ctx)
	elapsed := time.Since(start)

	if err != nil {
		c.instr.ObserveTokenRefresh("err")
		c.instr.ObserveHTTP("POST", "err", elapsed)
		c.log.Error("result POST auth", "elapsed_ms", elapsed.Milliseconds(), "error", err)
		return err
	}

	c.instr.ObserveTokenRefresh("ok")
	c.instr.ObserveHTTP("POST", "ok", elapsed)
	c.log.Info("result POST auth", "elapsed_ms", elapsed.Milliseconds())
	c.tok = newToken
	return nil
}

type authResponse struct {
	Token string `json:"token"`
}

func (c *Client) authenticate(ctx context.Context) (*token.Token, error) {
	req := authrequest.New(c.cfg.Username, c.cfg.TokenExpiration, c.cfg.ReadOnly, c.cfg.WhitelistedOnly)
	body, err := req.JSON()
	if err != nil {
		return nil, err
	}

	signature, err := c.key.Sign(body)
	if err != nil {
		return nil, err
	}

	var resp authResponse
	if err := c.agent.AuthPost(ctx, c.url("auth"), body, signature, &resp); err != nil {
		return nil, err
	}

	return token.Parse(resp.Token)
}

func (c *Client) bearer() string {
	if c.tok == nil {
		return ""
	}
	return c.tok.Raw
}

func (c *Client) timed(ctx context.Context, method, url string, fn func() error) error {
	if err := c.refreshTokenIfNeeded(ctx); err != nil {
		return err
	}

	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	outcome := "ok"
	if err != nil {
		outcome = "err"
	}
	c.instr.ObserveHTTP(method, outcome, elapsed)
	if err != nil {
		c.log.Error(fmt.Sprintf("error %s %s", method, url), "elapsed_ms", elapsed.Milliseconds(), "error", err)
	} else {
		c.log.Info(fmt.Sprintf("result %s %s", method, url), "elapsed_ms", elapsed.Milliseconds())
	}
	return err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	url := c.url(path)
	return c.timed(ctx, "GET", url, func() error {
		return c.agent.Get(ctx, url, c.bearer(), out)
	})
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	url := c.url(path)
	return c.timed(ctx, "POST", url, func() error {
		return c.agent.Post(ctx, url, c.bearer(), body, out)
	})
}

func (c *Client) put(ctx context.Context, path string, body any) error {
	url := c.url(path)
	return c.timed(ctx, "PUT", url, func() error {
		return c.agent.Put(ctx, url, c.bearer(), body, nil)
	})
}

func (c *Client) patch(ctx context.Context, path string, body any) error {
	url := c.url(path)
	return c.timed(ctx, "PATCH", url, func() error {
		return c.agent.Patch(ctx, url, c.bearer(), body, nil)
	})
}

func (c *Client) delete(ctx context.Context, path string, body any) error {
	url := c.url(path)
	return c.timed(ctx, "DELETE", url, func() error {
		return c.agent.Delete(ctx, url, c.bearer(), body)
	})
}
