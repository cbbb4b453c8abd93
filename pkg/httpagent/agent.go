// Package httpagent wraps a single long-lived *http.Client with the
// conventions every call into the provider's REST API shares: a fixed
// User-Agent, JSON bodies, bearer-token or Signature-header authentication,
// and a bounded request timeout.
package httpagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

const (
	userAgent        = "transip-acme-go/1.0"
	requestTimeout   = 30 * time.Second
	headerSignature  = "Signature"
	headerAuthz      = "Authorization"
	headerUserAgent  = "User-Agent"
	headerContent    = "Content-Type"
	contentTypeJSON  = "application/json"
)

// Agent is a long-lived HTTP client carrying the conventions shared by every
// call against the provider's REST API.
type Agent struct {
	client *http.Client
}

// New builds an Agent. When ipv6Only is true, the underlying transport
// refuses to dial IPv4 addresses, matching the provider's recommendation to
// reach its API only over IPv6.
func New(ipv6Only bool) *Agent {
	dialer := newFamilyDialer(ipv6Only)
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &Agent{
		client: &http.Client{
			Transport: transport,
			Timeout:   requestTimeout,
		},
	}
}

// AuthPost sends the one unauthenticated request this module ever makes:
// the login call, signed with the Signature header instead of a bearer
// token. body must be the exact bytes that were signed.
func (a *Agent) AuthPost(ctx context.Context, url string, body []byte, signature string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apierr.Wrap(apierr.Transport, "building auth request", err)
	}
	req.Header.Set(headerContent, contentTypeJSON)
	req.Header.Set(headerUserAgent, userAgent)
	req.Header.Set(headerSignature, signature)

	return a.do(req, out)
}

// Get issues an authenticated GET and decodes the JSON response into out.
// out may be nil when the caller does not care about the response body.
func (a *Agent) Get(ctx context.Context, url, token string, out any) error {
	return a.send(ctx, http.MethodGet, url, token, nil, out)
}

// Post issues an authenticated POST with a JSON-encoded body.
func (a *Agent) Post(ctx context.Context, url, token string, body, out any) error {
	return a.send(ctx, http.MethodPost, url, token, body, out)
}

// Put issues an authenticated PUT with a JSON-encoded body.
func (a *Agent) Put(ctx context.Context, url, token string, body, out any) error {
	return a.send(ctx, http.MethodPut, url, token, body, out)
}

// Patch issues an authenticated PATCH with a JSON-encoded body.
func (a *Agent) Patch(ctx context.Context, url, token string, body, out any) error {
	return a.send(ctx, http.MethodPatch, url, token, body, out)
}

// Delete issues an authenticated DELETE, optionally with a JSON body (the
// provider's API accepts a body on some delete endpoints to select which
// resource to remove).
func (a *Agent) Delete(ctx context.Context, url, token string, body any) error {
	return a.send(ctx, http.MethodDelete, url, token, body, nil)
}

func (a *Agent) send(ctx context.Context, method, url, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return apierr.Wrap(apierr.Serialization, "encoding request body", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return apierr.Wrap(apierr.Transport, "building "+method+" request", err)
	}
	if body != nil {
		req.Header.Set(headerContent, contentTypeJSON)
	}
	req.Header.Set(headerUserAgent, userAgent)
	req.Header.Set(headerAuthz, "Bearer "+token)

	return a.do(req, out)
}

func (a *Agent) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		return apierr.Wrap(apierr.Transport, req.Method+" "+req.URL.String()+" failed", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return apierr.Wrap(apierr.Transport, "reading response body", err)
	}

	if resp.StatusCode >= 400 {
		return apierr.New(apierr.Transport, fmt.Sprintf("%s %s returned %d: %s", req.Method, req.URL.String(), resp.StatusCode, string(payload)))
	}

	if out == nil || len(payload) == 0 {
		return nil
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return apierr.Wrap(apierr.Serialization, "decoding response body", err)
	}
	return nil
}
