package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"emailsuite/models"
)

func openAt(ts time.Time, ip string) models.OpenEvent {
	return models.OpenEvent{IPAddress: ip, Timestamp: ts}
}

func TestMessageOpenRate(t *testing.T) {
	assert.Equal(t, float64(0), MessageOpenRate(0))
	assert.Equal(t, float64(100), MessageOpenRate(1))
	assert.Equal(t, float64(100), MessageOpenRate(42))
}

func TestCampaignOpenRate(t *testing.T) {
	assert.Equal(t, float64(0), CampaignOpenRate(0, 0))
	assert.Equal(t, float64(50), CampaignOpenRate(1, 2))
	assert.Equal(t, float64(100), CampaignOpenRate(3, 3))
	assert.InDelta(t, 33.33, CampaignOpenRate(1, 3), 0.01)
}

func TestClickRate(t *testing.T) {
	// Never opened means a click rate of zero regardless of clicks
	assert.Equal(t, float64(0), ClickRate(5, 0))
	assert.Equal(t, float64(50), ClickRate(1, 2))
	assert.Equal(t, float64(200), ClickRate(4, 2))
}

func TestClickToOpenRate(t *testing.T) {
	assert.Equal(t, float64(0), ClickToOpenRate(3, 0))
	assert.Equal(t, float64(100), ClickToOpenRate(1, 1))
	assert.Equal(t, float64(25), ClickToOpenRate(1, 4))
}

func TestEngagementScore(t *testing.T) {
	// 1 open, 0 clicks, 1 unique IP, opened after 10 minutes:
	// 10 + 0 + 5 + (50-10) = 55
	assert.Equal(t, float64(55), EngagementScore(1, 0, 1, 10*time.Minute))

	// Slow opens earn no latency bonus
	assert.Equal(t, float64(15), EngagementScore(1, 0, 1, 2*time.Hour))

	// Heavy activity clamps at 100
	assert.Equal(t, float64(100), EngagementScore(10, 10, 10, time.Minute))

	// No activity at all still earns the full latency bonus
	assert.Equal(t, float64(50), EngagementScore(0, 0, 0, 0))
}

func TestEngagementScoreBounds(t *testing.T) {
	for _, d := range []time.Duration{0, time.Minute, time.Hour, 30 * 24 * time.Hour} {
		for opens := 0; opens <= 20; opens += 5 {
			score := EngagementScore(opens, opens, opens, d)
			assert.GreaterOrEqual(t, score, float64(0))
			assert.LessOrEqual(t, score, float64(100))
		}
	}
}

func TestPeakHours(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	opens := []models.OpenEvent{
		openAt(day.Add(9*time.Hour), "a"),
		openAt(day.Add(9*time.Hour+5*time.Minute), "b"),
		openAt(day.Add(14*time.Hour), "c"),
		openAt(day.Add(14*time.Hour+10*time.Minute), "d"),
		openAt(day.Add(20*time.Hour), "e"),
	}

	peaks := PeakHours(opens, 3)
	assert.Len(t, peaks, 3)

	// 9 and 14 tie at two opens each; the lower hour wins the tie
	assert.Equal(t, HourCount{Hour: 9, Count: 2}, peaks[0])
	assert.Equal(t, HourCount{Hour: 14, Count: 2}, peaks[1])
	assert.Equal(t, HourCount{Hour: 20, Count: 1}, peaks[2])
}

func TestPeakHoursTrimsToTopN(t *testing.T) {
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)
	var opens []models.OpenEvent
	for h := 0; h < 10; h++ {
		opens = append(opens, openAt(day.Add(time.Duration(h)*time.Hour), "x"))
	}

	assert.Len(t, PeakHours(opens, 3), 3)
	assert.Len(t, PeakHours(nil, 3), 0)
}

func TestUniqueOpenIPs(t *testing.T) {
	ts := time.Now()
	opens := []models.OpenEvent{
		openAt(ts, "10.0.0.1"),
		openAt(ts, "10.0.0.1"),
		openAt(ts, "10.0.0.2"),
	}

	assert.Equal(t, 2, UniqueOpenIPs(opens))
	assert.LessOrEqual(t, UniqueOpenIPs(opens), len(opens))
	assert.Equal(t, 0, UniqueOpenIPs(nil))
}

func TestFirstAndLastOpen(t *testing.T) {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	opens := []models.OpenEvent{
		openAt(base.Add(time.Hour), "a"),
		openAt(base, "b"),
		openAt(base.Add(2*time.Hour), "c"),
	}

	assert.Equal(t, base, FirstOpen(opens).Timestamp)
	assert.Equal(t, base.Add(2*time.Hour), LastOpen(opens).Timestamp)
	assert.Nil(t, FirstOpen(nil))
	assert.Nil(t, LastOpen(nil))
}

func TestBuildMessageReport(t *testing.T) {
	sentAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	msg := &models.TrackedMessage{
		TrackingID: "tid-1",
		Recipient:  "reader@example.com",
		Subject:    "March offers",
	}
	msg.CreatedAt = sentAt

	opens := []models.OpenEvent{
		openAt(sentAt.Add(10*time.Minute), "10.0.0.1"),
		openAt(sentAt.Add(20*time.Minute), "10.0.0.1"),
	}
	clicks := []models.ClickEvent{
		{IPAddress: "10.0.0.1", URL: "https://example.com/p", Timestamp: sentAt.Add(15 * time.Minute)},
	}

	report := BuildMessageReport(msg, opens, clicks)

	assert.Equal(t, "tid-1", report.TrackingID)
	assert.Equal(t, 2, report.Summary.TotalOpens)
	assert.Equal(t, 1, report.Summary.UniqueOpens)
	assert.Equal(t, 1, report.Summary.TotalClicks)
	assert.Equal(t, float64(100), report.Rates.OpenRate)
	assert.Equal(t, float64(50), report.Rates.ClickRate)
	assert.Equal(t, float64(10), report.Timing.AvgTimeToOpen)
	assert.Equal(t, sentAt.Add(10*time.Minute), *report.Timing.FirstOpen)
	assert.Equal(t, sentAt.Add(20*time.Minute), *report.Timing.LastOpen)

	// 2*10 + 1*15 + 1*5 + (50-10) = 80
	assert.Equal(t, float64(80), report.Engagement.Score)
}

func TestBuildMessageReportNoEvents(t *testing.T) {
	msg := &models.TrackedMessage{TrackingID: "tid-2", Recipient: "quiet@example.com"}
	msg.CreatedAt = time.Now()

	report := BuildMessageReport(msg, nil, nil)

	assert.Equal(t, float64(0), report.Rates.OpenRate)
	assert.Equal(t, float64(0), report.Rates.ClickRate)
	assert.Nil(t, report.Timing.FirstOpen)
	assert.Empty(t, report.Timing.PeakHours)
}

func TestSameInputsSameReport(t *testing.T) {
	sentAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	msg := &models.TrackedMessage{TrackingID: "tid-3", Recipient: "r@example.com"}
	msg.CreatedAt = sentAt
	opens := []models.OpenEvent{openAt(sentAt.Add(time.Minute), "1.2.3.4")}

	a := BuildMessageReport(msg, opens, nil)
	b := BuildMessageReport(msg, opens, nil)
	assert.Equal(t, a, b)
}
