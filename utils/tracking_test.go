package utils

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTrackingID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewTrackingID()
		require.NotEmpty(t, id)
		_, dup := seen[id]
		require.False(t, dup, "tracking IDs must never repeat")
		seen[id] = struct{}{}
	}
}

func TestGenerateTrackingPixelURL(t *testing.T) {
	got := GenerateTrackingPixelURL("https://track.example.com", "abc-123")
	assert.Equal(t, "https://track.example.com/track/pixel/abc-123", got)
}

func TestGenerateClickTrackURL(t *testing.T) {
	got := GenerateClickTrackURL("https://track.example.com", "abc-123", "https://shop.example.com/deal?ref=1&x=2")

	parsed, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "/track/click/abc-123", parsed.Path)
	assert.Equal(t, "https://shop.example.com/deal?ref=1&x=2", parsed.Query().Get("url"))
}

func TestInjectTrackingAddsPixel(t *testing.T) {
	html := `<html><body><p>Hello</p></body></html>`

	out := InjectTracking(html, "https://track.example.com", "tid-1", true, true)
	assert.Contains(t, out, `<img src="https://track.example.com/track/pixel/tid-1"`)
	assert.Contains(t, out, `width="1" height="1"`)
}

func TestInjectTrackingRewritesLinks(t *testing.T) {
	html := `<p><a href="https://a.example.com/x">one</a> and <a href="https://b.example.com/y">two</a></p>`

	out := InjectTracking(html, "https://track.example.com", "tid-1", false, true)

	assert.NotContains(t, out, `href="https://a.example.com/x"`)
	assert.NotContains(t, out, `href="https://b.example.com/y"`)
	assert.Equal(t, 2, strings.Count(out, "/track/click/tid-1?url="))
	assert.Contains(t, out, url.QueryEscape("https://a.example.com/x"))
	assert.Contains(t, out, url.QueryEscape("https://b.example.com/y"))

	// No pixel when open tracking is off
	assert.NotContains(t, out, "/track/pixel/")
}

func TestInjectTrackingDisabled(t *testing.T) {
	html := `<p><a href="https://a.example.com/x">one</a></p>`

	out := InjectTracking(html, "https://track.example.com", "tid-1", false, false)
	assert.Equal(t, html, out)
}

func TestInjectTrackingNoLinks(t *testing.T) {
	html := `<p>plain text newsletter</p>`

	out := InjectTracking(html, "https://track.example.com", "tid-1", true, true)
	assert.Contains(t, out, "/track/pixel/tid-1")
	assert.NotContains(t, out, "/track/click/")
}
