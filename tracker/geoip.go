package tracker

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// MaxMindLocator resolves public IPs against a GeoLite2 City database.
// Private and loopback addresses short-circuit to "Local" without touching
// the reader.
type MaxMindLocator struct {
	reader *geoip2.Reader
}

func NewMaxMindLocator(dbPath string) (*MaxMindLocator, error) {
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &MaxMindLocator{reader: reader}, nil
}

func (m *MaxMindLocator) Locate(ip string) string {
	if isLocalIP(ip) {
		return "Local"
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "Unknown"
	}

	record, err := m.reader.City(parsed)
	if err != nil {
		return "Unknown"
	}

	city := record.City.Names["en"]
	country := record.Country.Names["en"]
	switch {
	case city != "" && country != "":
		return city + ", " + country
	case country != "":
		return country
	default:
		return "Unknown"
	}
}

func (m *MaxMindLocator) Close() error {
	if m.reader != nil {
		return m.reader.Close()
	}
	return nil
}
