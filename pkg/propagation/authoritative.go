package propagation

import (
	"context"
	"time"

	"github.com/miekg/dns"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

// AuthoritativeResolver is pinned to exactly one authoritative name
// server's addresses (each a dialable "host:port"), queried with
// recursion disabled. It is exclusively owned by a Controller; callers
// must never share one across zones.
type AuthoritativeResolver struct {
	hostname string
	addrs    []string
	client   *dns.Client
}

func newAuthoritativeResolver(hostname string, addrs []string) *AuthoritativeResolver {
	return &AuthoritativeResolver{
		hostname: hostname,
		addrs:    addrs,
		client:   &dns.Client{Timeout: 5 * time.Second},
	}
}

// Hostname returns the authority this resolver is pinned to.
func (r *AuthoritativeResolver) Hostname() string {
	return r.hostname
}

// HasSingleAcme queries `_acme-challenge.<zone>` TXT against this
// authority (caching is never consulted — each call is a fresh query over
// the wire) and reports whether exactly one record exists and equals
// expected.
//
//   - No records found                 -> (false, nil):  not yet propagated.
//   - Any other resolver-level failure -> (false, err with Kind Resolve).
//   - Exactly one record == expected   -> (true, nil).
//   - Exactly one record != expected   -> (false, nil).
//   - More than one record             -> (false, err with Kind MultipleAcme).
func (r *AuthoritativeResolver) HasSingleAcme(ctx context.Context, zone, expected string) (bool, error) {
	msg := new(dns.Msg)
	msg.SetQuestion("_acme-challenge."+zone, dns.TypeTXT)
	msg.RecursionDesired = false

	var lastErr error
	for _, addr := range r.addrs {
		resp, _, err := r.client.ExchangeContext(ctx, msg, addr)
		if err != nil {
			lastErr = err
			continue
		}
		return evaluateTxtResponse(resp, expected)
	}

	if lastErr == nil {
		lastErr = apierr.New(apierr.Resolve, "authority "+r.hostname+" has no usable addresses")
	}
	return false, apierr.Wrap(apierr.Resolve, "querying authority "+r.hostname, lastErr)
}

func evaluateTxtResponse(resp *dns.Msg, expected string) (bool, error) {
	if resp.Rcode == dns.RcodeNameError {
		return false, nil
	}
	if resp.Rcode != dns.RcodeSuccess {
		return false, apierr.New(apierr.Resolve, "authority returned rcode "+dns.RcodeToString[resp.Rcode])
	}

	var contents []string
	for _, rr := range resp.Answer {
		if txt, ok := rr.(*dns.TXT); ok {
			contents = append(contents, joinTxtStrings(txt.Txt))
		}
	}

	switch len(contents) {
	case 0:
		return false, nil
	case 1:
		return contents[0] == expected, nil
	default:
		return false, apierr.New(apierr.MultipleAcme, "more than one _acme-challenge TXT record present")
	}
}

func joinTxtStrings(segments []string) string {
	out := ""
	for _, s := range segments {
		out += s
	}
	return out
}
