package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectDevice(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		want      string
	}{
		{"iphone", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X)", "mobile"},
		{"android phone", "Mozilla/5.0 (Linux; Android 14; Pixel 8) Mobile", "mobile"},
		{"ipad", "Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X)", "tablet"},
		{"android tablet", "Mozilla/5.0 (Linux; Android 14; Tablet)", "tablet"},
		{"desktop chrome", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0", "desktop"},
		{"mac desktop", "Mozilla/5.0 (Macintosh; Intel Mac OS X 14_0)", "desktop"},
		{"empty", "", "desktop"},
		{"gibberish", "curl/8.4.0", "desktop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDevice(tt.userAgent))
		})
	}
}

func TestIsLocalIP(t *testing.T) {
	loc := NewLocalLocator()

	assert.Equal(t, "Local", loc.Locate("127.0.0.1"))
	assert.Equal(t, "Local", loc.Locate("192.168.1.10"))
	assert.Equal(t, "Local", loc.Locate("10.0.0.5"))
	assert.Equal(t, "Local", loc.Locate("192.168.1.10:54321"))
	assert.Equal(t, "Unknown", loc.Locate("8.8.8.8"))
	assert.Equal(t, "Unknown", loc.Locate("not-an-ip"))
}
