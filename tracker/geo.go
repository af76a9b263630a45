package tracker

import (
	"net"
	"strings"
)

// Locator maps a client IP to a coarse location label. Implementations must
// never fail: unknown input yields "Unknown".
type Locator interface {
	Locate(ip string) string
}

// localLocator is the default Locator. It only recognizes loopback and
// private ranges as "Local"; everything else is "Unknown". A deployment
// wanting real geolocation injects the MaxMind locator instead.
type localLocator struct{}

func NewLocalLocator() Locator {
	return localLocator{}
}

func (localLocator) Locate(ip string) string {
	if isLocalIP(ip) {
		return "Local"
	}
	return "Unknown"
}

func isLocalIP(ip string) bool {
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return false
	}
	return parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsLinkLocalUnicast()
}
