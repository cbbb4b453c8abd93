// Package provider adapts this module's TransIP DNS client and
// propagation controller to lego's challenge.Provider interface, so the
// same core can serve both the certbot manual hook (cmd/transip-acme-dns01)
// and any lego-based ACME client.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/go-acme/lego/v4/challenge/dns01"

	"github.com/transipdev/transip-acme-go/pkg/client"
	"github.com/transipdev/transip-acme-go/pkg/propagation"
)

// challengeTTL is the TTL applied to every challenge TXT record this
// provider inserts.
const challengeTTL = 60

// Provider implements challenge.Provider (Present/CleanUp) and
// challenge.ProviderTimeout (Timeout) against a *client.Client for record
// management and a *propagation.Controller for DNS-01 propagation
// polling.
type Provider struct {
	client     *client.Client
	propagator *propagation.Controller
}

// New builds a Provider. c manages DNS records directly against TransIP;
// propagator polls every authoritative name server for the zone until the
// inserted challenge record has propagated everywhere.
func New(c *client.Client, propagator *propagation.Controller) *Provider {
	return &Provider{client: c, propagator: propagator}
}

// Present computes the `_acme-challenge` TXT record for domain/keyAuth,
// removes any previously-present challenge records for the zone, inserts
// the new one, and blocks until it has propagated to every authoritative
// name server.
func (p *Provider) Present(domain, token, keyAuth string) error {
	info := dns01.GetChallengeInfo(domain, keyAuth)
	ctx := context.Background()
	if err := p.client.DnsEntryDeleteAll(ctx, domain, client.DnsEntry.IsAcmeChallenge); err != nil {
		return fmt.Errorf("removing stale acme challenge records for %s: %w", domain, err)
	}
	if err := p.client.DnsEntryInsert(ctx, domain, client.NewAcmeChallenge(challengeTTL, info.Value)); err != nil {
		return fmt.Errorf("inserting acme challenge record for %s: %w", domain, err)
	}

	if p.propagator != nil {
		if err := p.propagator.Wait(ctx, dns01.ToFqdn(domain), info.Value); err != nil {
			return fmt.Errorf("waiting for acme challenge propagation for %s: %w", domain, err)
		}
	}
	return nil
}

// CleanUp removes every `_acme-challenge` TXT record for the zone,
// regardless of content, once the ACME authorization has completed.
func (p *Provider) CleanUp(domain, token, keyAuth string) error {
	if err := p.client.DnsEntryDeleteAll(context.Background(), domain, client.DnsEntry.IsAcmeChallenge); err != nil {
		return fmt.Errorf("cleaning up acme challenge records for %s: %w", domain, err)
	}
	return nil
}

// Timeout reports the propagation retry budget as timeout/interval
// durations, for collaborators (e.g. lego's own
// Challenge.SetDNS01Provider) that drive their own wait loop instead of
// calling propagation.Controller.Wait directly.
func (p *Provider) Timeout() (timeout, interval time.Duration) {
	return propagation.MaxRetries * propagation.WaitSeconds, propagation.WaitSeconds
}
