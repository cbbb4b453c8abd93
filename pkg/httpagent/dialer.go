package httpagent

import (
	"context"
	"net"
	"time"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

// familyDialer resolves hostnames itself so it can restrict connections to
// a single IP family, mirroring the structure (a Dialer plus a DialContext
// compatible with http.Transport) the rest of this codebase uses for
// resolver-aware dialing, generalized here from "use these upstream
// servers" to "keep only these address families".
type familyDialer struct {
	dialer   *net.Dialer
	resolver *net.Resolver
	ipv6Only bool
}

func newFamilyDialer(ipv6Only bool) *familyDialer {
	return &familyDialer{
		dialer: &net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		},
		resolver: net.DefaultResolver,
		ipv6Only: ipv6Only,
	}
}

// DialContext dials addr, resolving its host itself when an IP-family
// preference is configured so only matching addresses are attempted —
// compatible with http.Transport.DialContext.
func (d *familyDialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	if !d.ipv6Only {
		return d.dialer.DialContext(ctx, network, addr)
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, apierr.Wrap(apierr.Transport, "invalid address "+addr, err)
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.To4() != nil {
			return nil, apierr.New(apierr.Transport, "ipv6-only transport cannot dial ipv4 literal "+host)
		}
		return d.dialer.DialContext(ctx, network, addr)
	}

	addrs, err := d.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, apierr.Wrap(apierr.Transport, "resolving "+host, err)
	}

	var lastErr error
	for _, a := range addrs {
		if a.IP.To4() != nil {
			continue // ipv6-only: skip A records
		}
		conn, dialErr := d.dialer.DialContext(ctx, network, net.JoinHostPort(a.IP.String(), port))
		if dialErr == nil {
			return conn, nil
		}
		lastErr = dialErr
	}

	if lastErr == nil {
		lastErr = apierr.New(apierr.Transport, "no AAAA records found for "+host)
	}
	return nil, apierr.Wrap(apierr.Transport, "dialing "+addr+" over ipv6", lastErr)
}
