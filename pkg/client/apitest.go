package client

import (
	"context"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

type pingResponse struct {
	Ping string `json:"ping"`
}

// ApiTest calls the fixed liveness endpoint and returns its "pong" payload.
// Used as a cheap end-to-end check that credentials and connectivity work.
func (c *Client) ApiTest(ctx context.Context) (string, error) {
	var resp pingResponse
	if err := c.get(ctx, "api-test", &resp); err != nil {
		return "", err
	}
	if resp.Ping != "pong" {
		return "", apierr.New(apierr.ApiTestFailed, "unexpected api-test response: "+resp.Ping)
	}
	return resp.Ping, nil
}
