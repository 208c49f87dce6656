package security

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
)

// ErrBlockedEndpoint marks endpoints rejected because they point at a
// private, loopback or link-local address.
var ErrBlockedEndpoint = errors.New("endpoint blocked")

var privateCIDRs = mustCIDRs([]string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"169.254.0.0/16",
	"100.64.0.0/10",
	"0.0.0.0/8",
	"::1/128",
	"fc00::/7",
	"fe80::/10",
})

func mustCIDRs(cidrs []string) []*net.IPNet {
	out := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		_, block, err := net.ParseCIDR(cidr)
		if err == nil {
			out = append(out, block)
		}
	}
	return out
}

// Resolver looks up the addresses of a host.
type Resolver interface {
	LookupIP(host string) ([]net.IP, error)
}

type netResolver struct{}

func (netResolver) LookupIP(host string) ([]net.IP, error) { return net.LookupIP(host) }

// EndpointPolicy validates outbound data-import endpoints.
type EndpointPolicy struct {
	// AllowPrivate disables the private-address checks, for local development.
	AllowPrivate bool
	Resolver     Resolver
}

// NormalizeEndpoint parses rawURL, defaulting the scheme to https.
func NormalizeEndpoint(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, fmt.Errorf("empty url")
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("unsupported url scheme: %s", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("url host is required")
	}
	return parsed, nil
}

// Validate checks rawURL and returns its normalized form.
func (p EndpointPolicy) Validate(rawURL string) (string, error) {
	parsed, err := NormalizeEndpoint(rawURL)
	if err != nil {
		return "", err
	}
	if p.AllowPrivate {
		return parsed.String(), nil
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") || strings.HasSuffix(host, ".internal") {
		return "", fmt.Errorf("%w: local hostname %s", ErrBlockedEndpoint, host)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isPrivateOrLocalIP(ip) {
			return "", fmt.Errorf("%w: private or local ip %s", ErrBlockedEndpoint, host)
		}
		return parsed.String(), nil
	}

	resolver := p.Resolver
	if resolver == nil {
		resolver = netResolver{}
	}
	addrs, err := resolver.LookupIP(host)
	if err != nil {
		return "", fmt.Errorf("failed to resolve host: %w", err)
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("host resolution returned no addresses")
	}
	for _, ip := range addrs {
		if isPrivateOrLocalIP(ip) {
			return "", fmt.Errorf("%w: %s resolves to private or local ip", ErrBlockedEndpoint, host)
		}
	}
	return parsed.String(), nil
}

func isPrivateOrLocalIP(ip net.IP) bool {
	for _, cidr := range privateCIDRs {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}
