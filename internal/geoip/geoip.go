// Package geoip resolves client IPs to ISO 3166-1 alpha-2 country
// codes for click enrichment. Resolution is best effort: a failed
// lookup stores no country, and the aggregator presents "Unknown".
package geoip

import (
	"errors"
	"net"
	"net/http"
	"strings"
)

// ErrUnresolved is returned when no country can be derived for an IP.
var ErrUnresolved = errors.New("geoip: country unresolved")

// Resolver maps an IP address to a country code.
type Resolver interface {
	Country(ip string) (string, error)
}

// countryHeaders are edge-provided country headers, in preference
// order. CDN deployments set these per request.
var countryHeaders = []string{"CF-IPCountry", "X-Country-Code"}

// CountryFromHeader extracts an edge-provided country code from request
// headers. Returns "" when absent or when the edge reported an unknown
// country ("XX", "T1").
func CountryFromHeader(h http.Header) string {
	for _, name := range countryHeaders {
		v := strings.ToUpper(strings.TrimSpace(h.Get(name)))
		if len(v) == 2 && v != "XX" && v != "T1" {
			return v
		}
	}
	return ""
}

// StaticResolver resolves from a fixed prefix table, with loopback and
// private ranges never resolving. Used in tests and in deployments
// where the edge headers are the only geo source.
type StaticResolver struct {
	// ByPrefix maps an IP prefix (string match) to a country code.
	ByPrefix map[string]string
}

// Country implements Resolver.
func (r *StaticResolver) Country(ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() {
		return "", ErrUnresolved
	}
	for prefix, country := range r.ByPrefix {
		if strings.HasPrefix(ip, prefix) {
			return country, nil
		}
	}
	return "", ErrUnresolved
}

// NoopResolver never resolves. The default when no geo source is
// configured; clicks are still stored, just without a country.
type NoopResolver struct{}

// Country implements Resolver.
func (NoopResolver) Country(string) (string, error) {
	return "", ErrUnresolved
}
