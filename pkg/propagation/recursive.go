package propagation

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

const dnsPort = "53"

// RecursiveResolver queries a fixed upstream address set with the
// recursion-desired bit set, used only to discover a zone's authoritative
// name servers and their addresses — never to answer the ACME challenge
// query itself.
type RecursiveResolver struct {
	client   *dns.Client
	addrs    []string
	ipv6Only bool
}

// NewRecursiveResolver builds a RecursiveResolver against upstream's fixed
// address set. When ipv6Only is set, A-record lookups for name-server
// addresses are skipped — the NS host is reached over AAAA only.
func NewRecursiveResolver(upstream Upstream, ipv6Only bool) *RecursiveResolver {
	return &RecursiveResolver{
		client:   &dns.Client{Timeout: 5 * time.Second},
		addrs:    upstream.Addresses(),
		ipv6Only: ipv6Only,
	}
}

func (r *RecursiveResolver) exchange(ctx context.Context, msg *dns.Msg) (*dns.Msg, error) {
	var lastErr error
	for _, addr := range r.addrs {
		resp, _, err := r.client.ExchangeContext(ctx, msg, net.JoinHostPort(addr, dnsPort))
		if err != nil {
			lastErr = err
			continue
		}
		if resp.Rcode != dns.RcodeSuccess && resp.Rcode != dns.RcodeNameError {
			lastErr = apierr.New(apierr.Resolve, "recursive query returned rcode "+dns.RcodeToString[resp.Rcode])
			continue
		}
		return resp, nil
	}
	if lastErr == nil {
		lastErr = apierr.New(apierr.Resolve, "no upstream resolvers configured")
	}
	return nil, apierr.Wrap(apierr.Resolve, "querying recursive resolver", lastErr)
}

// NameServers resolves the NS records for zone (which must be fully
// qualified, trailing dot included).
func (r *RecursiveResolver) NameServers(ctx context.Context, zone string) ([]string, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(zone, dns.TypeNS)
	msg.RecursionDesired = true

	resp, err := r.exchange(ctx, msg)
	if err != nil {
		return nil, err
	}

	var hosts []string
	for _, rr := range resp.Answer {
		if ns, ok := rr.(*dns.NS); ok {
			hosts = append(hosts, ns.Ns)
		}
	}
	return hosts, nil
}

// addresses resolves both AAAA and A records for host, IPv6 first,
// preserving lookup order; A lookups are skipped when the resolver is
// configured IPv6-only.
func (r *RecursiveResolver) addresses(ctx context.Context, host string) ([]string, error) {
	var addrs []string

	aaaaMsg := new(dns.Msg)
	aaaaMsg.SetQuestion(host, dns.TypeAAAA)
	aaaaMsg.RecursionDesired = true
	if resp, err := r.exchange(ctx, aaaaMsg); err == nil {
		for _, rr := range resp.Answer {
			if aaaa, ok := rr.(*dns.AAAA); ok {
				addrs = append(addrs, net.JoinHostPort(aaaa.AAAA.String(), dnsPort))
			}
		}
	}

	if !r.ipv6Only {
		aMsg := new(dns.Msg)
		aMsg.SetQuestion(host, dns.TypeA)
		aMsg.RecursionDesired = true
		if resp, err := r.exchange(ctx, aMsg); err == nil {
			for _, rr := range resp.Answer {
				if a, ok := rr.(*dns.A); ok {
					addrs = append(addrs, net.JoinHostPort(a.A.String(), dnsPort))
				}
			}
		}
	}

	if len(addrs) == 0 {
		return nil, apierr.New(apierr.Resolve, "no addresses found for nameserver "+strings.TrimSuffix(host, "."))
	}
	return addrs, nil
}

// AuthoritativeResolvers discovers zone's authoritative name servers and
// builds one AuthoritativeResolver pinned to each one's addresses.
func (r *RecursiveResolver) AuthoritativeResolvers(ctx context.Context, zone string) ([]*AuthoritativeResolver, error) {
	hosts, err := r.NameServers(ctx, zone)
	if err != nil {
		return nil, err
	}

	resolvers := make([]*AuthoritativeResolver, 0, len(hosts))
	for _, host := range hosts {
		addrs, err := r.addresses(ctx, host)
		if err != nil {
			return nil, err
		}
		resolvers = append(resolvers, newAuthoritativeResolver(host, addrs))
	}
	return resolvers, nil
}
