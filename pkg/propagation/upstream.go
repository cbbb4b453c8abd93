// Package propagation discovers a zone's authoritative name servers via a
// recursive resolver and polls them until every one agrees on the expected
// ACME challenge TXT content.
package propagation

// Upstream is the closed set of recursive-resolver upstreams this module
// recognizes, each backed by a fixed address list.
type Upstream string

const (
	UpstreamGoogle     Upstream = "google"
	UpstreamCloudflare Upstream = "cloudflare"
	UpstreamLocal      Upstream = "local"
)

// googleIPs and cloudflareIPs mirror the well-known anycast addresses
// hickory-resolver ships as its built-in GOOGLE_IPS/CLOUDFLARE_IPS
// constants.
var (
	googleIPs = []string{
		"2001:4860:4860::8888",
		"2001:4860:4860::8844",
		"8.8.8.8",
		"8.8.4.4",
	}
	cloudflareIPs = []string{
		"2606:4700:4700::1111",
		"2606:4700:4700::1001",
		"1.1.1.1",
		"1.0.0.1",
	}
	localIPs = []string{"::1", "127.0.0.1"}
)

// Addresses returns the fixed address list backing this upstream.
func (u Upstream) Addresses() []string {
	switch u {
	case UpstreamCloudflare:
		return cloudflareIPs
	case UpstreamLocal:
		return localIPs
	default:
		return googleIPs
	}
}
