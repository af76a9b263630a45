package analytics

import (
	"sort"
	"time"

	"emailsuite/models"
)

// Summary counts raw and IP-deduplicated events for one message
type Summary struct {
	TotalOpens   int `json:"total_opens"`
	UniqueOpens  int `json:"unique_opens"`
	TotalClicks  int `json:"total_clicks"`
	UniqueClicks int `json:"unique_clicks"`
}

// Rates are percentages in [0,100]
type Rates struct {
	OpenRate        float64 `json:"open_rate"`
	ClickRate       float64 `json:"click_rate"`
	ClickToOpenRate float64 `json:"click_to_open_rate,omitempty"`
}

// HourCount is one bucket of the peak-hours histogram
type HourCount struct {
	Hour  int `json:"hour"` // 0-23, local time of the event
	Count int `json:"count"`
}

// Timing describes when and how fast a message was opened
type Timing struct {
	FirstOpen     *time.Time  `json:"first_open,omitempty"`
	LastOpen      *time.Time  `json:"last_open,omitempty"`
	AvgTimeToOpen float64     `json:"avg_time_to_open_minutes"`
	PeakHours     []HourCount `json:"peak_hours"`
}

// Engagement holds the heuristic 0-100 composite score
type Engagement struct {
	Score float64 `json:"score"`
}

// MessageReport is the full analytics record for one tracked message
type MessageReport struct {
	TrackingID string     `json:"tracking_id"`
	Recipient  string     `json:"recipient"`
	Subject    string     `json:"subject"`
	SentAt     time.Time  `json:"sent_at"`
	Summary    Summary    `json:"summary"`
	Rates      Rates      `json:"rates"`
	Timing     Timing     `json:"timing"`
	Engagement Engagement `json:"engagement"`
}

// MessageOpenRate is a binary was-it-opened signal: 100 when at least one
// open exists, else 0. Campaign-level open rate is a population statistic
// instead (see CampaignOpenRate); the two formulas are intentionally
// different and must not be unified.
func MessageOpenRate(totalOpens int) float64 {
	if totalOpens > 0 {
		return 100
	}
	return 0
}

// CampaignOpenRate is the share of a campaign's emails with at least one open
func CampaignOpenRate(emailsWithOpens, totalEmails int) float64 {
	if totalEmails == 0 {
		return 0
	}
	return float64(emailsWithOpens) / float64(totalEmails) * 100
}

// ClickRate is clicks per open for a single message, 0 when never opened
func ClickRate(totalClicks, totalOpens int) float64 {
	if totalOpens == 0 {
		return 0
	}
	return float64(totalClicks) / float64(totalOpens) * 100
}

// ClickToOpenRate is the campaign-level share of opened emails that were
// also clicked, 0 when nothing was opened
func ClickToOpenRate(emailsWithClicks, emailsWithOpens int) float64 {
	if emailsWithOpens == 0 {
		return 0
	}
	return float64(emailsWithClicks) / float64(emailsWithOpens) * 100
}

// EngagementScore combines volume, clicks, reach and open latency into a
// 0-100 heuristic. The weights and the latency bonus are part of the
// product's behavioral contract; keep them as they are.
func EngagementScore(totalOpens, totalClicks, uniqueOpens int, avgTimeToOpen time.Duration) float64 {
	latencyBonus := 50 - avgTimeToOpen.Minutes()
	if latencyBonus < 0 {
		latencyBonus = 0
	}
	score := float64(totalOpens*10+totalClicks*15+uniqueOpens*5) + latencyBonus
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// PeakHours buckets opens by local hour of day and returns the topN busiest
// hours, descending by count. Ties go to the lower hour.
func PeakHours(opens []models.OpenEvent, topN int) []HourCount {
	var counts [24]int
	for _, o := range opens {
		counts[o.Timestamp.Local().Hour()]++
	}

	buckets := make([]HourCount, 0, 24)
	for hour := 0; hour < 24; hour++ {
		if counts[hour] > 0 {
			buckets = append(buckets, HourCount{Hour: hour, Count: counts[hour]})
		}
	}
	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Count > buckets[j].Count
	})

	if len(buckets) > topN {
		buckets = buckets[:topN]
	}
	return buckets
}

// UniqueOpenIPs deduplicates opens by client IP. Shared IPs (offices behind
// NAT) under-count distinct readers; that approximation is accepted.
func UniqueOpenIPs(opens []models.OpenEvent) int {
	seen := make(map[string]struct{}, len(opens))
	for _, o := range opens {
		seen[o.IPAddress] = struct{}{}
	}
	return len(seen)
}

// UniqueClickIPs deduplicates clicks by client IP
func UniqueClickIPs(clicks []models.ClickEvent) int {
	seen := make(map[string]struct{}, len(clicks))
	for _, c := range clicks {
		seen[c.IPAddress] = struct{}{}
	}
	return len(seen)
}

// FirstOpen returns the chronologically earliest open, or nil
func FirstOpen(opens []models.OpenEvent) *models.OpenEvent {
	var first *models.OpenEvent
	for i := range opens {
		if first == nil || opens[i].Timestamp.Before(first.Timestamp) {
			first = &opens[i]
		}
	}
	return first
}

// LastOpen returns the chronologically latest open, or nil
func LastOpen(opens []models.OpenEvent) *models.OpenEvent {
	var last *models.OpenEvent
	for i := range opens {
		if last == nil || opens[i].Timestamp.After(last.Timestamp) {
			last = &opens[i]
		}
	}
	return last
}

// BuildMessageReport derives the analytics record for one message from its
// raw event lists. Deterministic: identical inputs produce identical output.
func BuildMessageReport(msg *models.TrackedMessage, opens []models.OpenEvent, clicks []models.ClickEvent) MessageReport {
	report := MessageReport{
		TrackingID: msg.TrackingID,
		Recipient:  msg.Recipient,
		Subject:    msg.Subject,
		SentAt:     msg.CreatedAt,
	}

	report.Summary = Summary{
		TotalOpens:   len(opens),
		UniqueOpens:  UniqueOpenIPs(opens),
		TotalClicks:  len(clicks),
		UniqueClicks: UniqueClickIPs(clicks),
	}

	report.Rates = Rates{
		OpenRate:  MessageOpenRate(len(opens)),
		ClickRate: ClickRate(len(clicks), len(opens)),
	}

	var avgTimeToOpen time.Duration
	if first := FirstOpen(opens); first != nil {
		t := first.Timestamp
		report.Timing.FirstOpen = &t
		avgTimeToOpen = first.Timestamp.Sub(msg.CreatedAt)
	}
	if last := LastOpen(opens); last != nil {
		t := last.Timestamp
		report.Timing.LastOpen = &t
	}
	report.Timing.AvgTimeToOpen = avgTimeToOpen.Minutes()
	report.Timing.PeakHours = PeakHours(opens, 3)

	report.Engagement.Score = EngagementScore(
		report.Summary.TotalOpens,
		report.Summary.TotalClicks,
		report.Summary.UniqueOpens,
		avgTimeToOpen,
	)

	return report
}
