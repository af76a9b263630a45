package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// NewTrackingID issues the opaque identifier embedded in pixel and link URLs.
// IDs are globally unique and never reused.
func NewTrackingID() string {
	return uuid.New().String()
}

// GenerateTrackingPixelURL builds the open-tracking pixel URL for a message
func GenerateTrackingPixelURL(baseURL, trackingID string) string {
	return fmt.Sprintf("%s/track/pixel/%s", baseURL, trackingID)
}

// GenerateClickTrackURL wraps a destination URL in the click redirect
func GenerateClickTrackURL(baseURL, trackingID, originalURL string) string {
	return fmt.Sprintf("%s/track/click/%s?url=%s", baseURL, trackingID, url.QueryEscape(originalURL))
}

// InjectTracking rewrites every link in the HTML body through the click
// redirect and appends the open pixel.
func InjectTracking(htmlContent, baseURL, trackingID string, trackOpens, trackClicks bool) string {
	out := htmlContent
	if trackClicks {
		out = injectClickTracking(out, baseURL, trackingID)
	}
	if trackOpens {
		pixelURL := GenerateTrackingPixelURL(baseURL, trackingID)
		out += fmt.Sprintf(`<img src="%s" alt="" width="1" height="1" style="display:none">`, pixelURL)
	}
	return out
}

// injectClickTracking is a plain string scan over anchor hrefs. Good enough
// for the templated HTML campaigns produce.
func injectClickTracking(html, baseURL, trackingID string) string {
	const startTag = `<a href="`
	const endTag = `"`
	offset := 0

	for {
		startIdx := strings.Index(html[offset:], startTag)
		if startIdx == -1 {
			break
		}
		startIdx += offset + len(startTag)

		endIdx := strings.Index(html[startIdx:], endTag)
		if endIdx == -1 {
			break
		}
		endIdx += startIdx

		originalURL := html[startIdx:endIdx]
		trackedURL := GenerateClickTrackURL(baseURL, trackingID, originalURL)

		html = html[:startIdx] + trackedURL + html[endIdx:]
		offset = startIdx + len(trackedURL)
	}

	return html
}
