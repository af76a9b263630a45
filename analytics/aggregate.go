package analytics

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"emailsuite/models"
)

var (
	// ErrNotFound means the referenced campaign or message does not exist
	ErrNotFound = errors.New("not found")
	// ErrAggregationFailed wraps any load failure while assembling campaign
	// analytics. Partial results are never returned.
	ErrAggregationFailed = errors.New("aggregation failed")
)

// Store is the read side the aggregator needs from the persistence layer
type Store interface {
	CampaignByID(ctx context.Context, id uint) (*models.Campaign, error)
	MessagesByCampaign(ctx context.Context, campaignID uint) ([]models.TrackedMessage, error)
	MessageByTrackingID(ctx context.Context, trackingID string) (*models.TrackedMessage, error)
	OpensByMessage(ctx context.Context, messageID uint) ([]models.OpenEvent, error)
	ClicksByMessage(ctx context.Context, messageID uint) ([]models.ClickEvent, error)
}

// CampaignSummary counts events across every message in the campaign
type CampaignSummary struct {
	TotalEmails      int `json:"total_emails"`
	EmailsWithOpens  int `json:"emails_with_opens"`
	EmailsWithClicks int `json:"emails_with_clicks"`
	TotalOpens       int `json:"total_opens"`
	UniqueOpens      int `json:"unique_opens"`
	TotalClicks      int `json:"total_clicks"`
	UniqueClicks     int `json:"unique_clicks"`
}

// CampaignTiming describes open latency across the recipient set
type CampaignTiming struct {
	FirstOpen     *time.Time  `json:"first_open,omitempty"`
	AvgTimeToOpen float64     `json:"avg_time_to_open_minutes"`
	PeakHours     []HourCount `json:"peak_hours"`
}

// RecipientOpens ranks one recipient by how often they opened
type RecipientOpens struct {
	Recipient string     `json:"recipient"`
	Opens     int        `json:"opens"`
	LastOpen  *time.Time `json:"last_open,omitempty"`
}

// DomainClicks ranks one destination domain by clicks
type DomainClicks struct {
	Domain string `json:"domain"`
	Clicks int    `json:"clicks"`
}

// CampaignEngagement holds the ranked breakdowns
type CampaignEngagement struct {
	TopRecipients []RecipientOpens `json:"top_recipients"`
	TopDomains    []DomainClicks   `json:"top_domains"`
}

// CampaignReport is the derived, never-persisted rollup for one campaign.
// It is recomputed from the event set on every request.
type CampaignReport struct {
	CampaignID uint               `json:"campaign_id"`
	Name       string             `json:"name"`
	Summary    CampaignSummary    `json:"summary"`
	Rates      Rates              `json:"rates"`
	Timing     CampaignTiming     `json:"timing"`
	Engagement CampaignEngagement `json:"engagement"`
}

// Service answers analytics queries from persisted events
type Service struct {
	store Store
	log   *logrus.Logger
}

func NewService(store Store, log *logrus.Logger) *Service {
	return &Service{store: store, log: log}
}

// MessageReport computes the analytics record for a single tracked message
func (s *Service) MessageReport(ctx context.Context, trackingID string) (*MessageReport, error) {
	msg, err := s.store.MessageByTrackingID(ctx, trackingID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrNotFound
	}

	opens, err := s.store.OpensByMessage(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading opens: %v", ErrAggregationFailed, err)
	}
	clicks, err := s.store.ClicksByMessage(ctx, msg.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading clicks: %v", ErrAggregationFailed, err)
	}

	report := BuildMessageReport(msg, opens, clicks)
	return &report, nil
}

// CampaignReport fans out over every tracked message of the campaign and
// computes the aggregate. All-or-nothing: any load failure fails the call.
func (s *Service) CampaignReport(ctx context.Context, campaignID uint) (*CampaignReport, error) {
	campaign, err := s.store.CampaignByID(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading campaign: %v", ErrAggregationFailed, err)
	}
	if campaign == nil {
		return nil, ErrNotFound
	}

	messages, err := s.store.MessagesByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("%w: loading messages: %v", ErrAggregationFailed, err)
	}

	report := &CampaignReport{CampaignID: campaign.ID, Name: campaign.Name}
	report.Summary.TotalEmails = len(messages)

	var (
		allOpens      []models.OpenEvent
		openIPs       = make(map[string]struct{})
		clickIPs      = make(map[string]struct{})
		domainCounts  = make(map[string]int)
		domainOrder   []string
		recipients    []RecipientOpens
		timeToOpenSum time.Duration
	)

	for i := range messages {
		msg := &messages[i]

		opens, err := s.store.OpensByMessage(ctx, msg.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: loading opens for message %d: %v", ErrAggregationFailed, msg.ID, err)
		}
		clicks, err := s.store.ClicksByMessage(ctx, msg.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: loading clicks for message %d: %v", ErrAggregationFailed, msg.ID, err)
		}

		report.Summary.TotalOpens += len(opens)
		report.Summary.TotalClicks += len(clicks)
		if len(opens) > 0 {
			report.Summary.EmailsWithOpens++
		}
		if len(clicks) > 0 {
			report.Summary.EmailsWithClicks++
		}

		for _, o := range opens {
			openIPs[o.IPAddress] = struct{}{}
		}
		for _, c := range clicks {
			clickIPs[c.IPAddress] = struct{}{}
			if host := clickDomain(c.URL); host != "" {
				if _, seen := domainCounts[host]; !seen {
					domainOrder = append(domainOrder, host)
				}
				domainCounts[host]++
			}
		}

		allOpens = append(allOpens, opens...)

		entry := RecipientOpens{Recipient: msg.Recipient, Opens: len(opens)}
		if last := LastOpen(opens); last != nil {
			t := last.Timestamp
			entry.LastOpen = &t
		}
		recipients = append(recipients, entry)

		if first := FirstOpen(opens); first != nil {
			timeToOpenSum += first.Timestamp.Sub(msg.CreatedAt)
			if report.Timing.FirstOpen == nil || first.Timestamp.Before(*report.Timing.FirstOpen) {
				t := first.Timestamp
				report.Timing.FirstOpen = &t
			}
		}
	}

	report.Summary.UniqueOpens = len(openIPs)
	report.Summary.UniqueClicks = len(clickIPs)

	report.Rates = Rates{
		OpenRate:        CampaignOpenRate(report.Summary.EmailsWithOpens, report.Summary.TotalEmails),
		ClickRate:       CampaignOpenRate(report.Summary.EmailsWithClicks, report.Summary.TotalEmails),
		ClickToOpenRate: ClickToOpenRate(report.Summary.EmailsWithClicks, report.Summary.EmailsWithOpens),
	}

	if report.Summary.EmailsWithOpens > 0 {
		avg := timeToOpenSum / time.Duration(report.Summary.EmailsWithOpens)
		report.Timing.AvgTimeToOpen = avg.Minutes()
	}
	report.Timing.PeakHours = PeakHours(allOpens, 5)

	// Stable sort keeps encounter order for equal open counts
	sort.SliceStable(recipients, func(i, j int) bool {
		return recipients[i].Opens > recipients[j].Opens
	})
	if len(recipients) > 10 {
		recipients = recipients[:10]
	}
	report.Engagement.TopRecipients = recipients

	domains := make([]DomainClicks, 0, len(domainOrder))
	for _, d := range domainOrder {
		domains = append(domains, DomainClicks{Domain: d, Clicks: domainCounts[d]})
	}
	sort.SliceStable(domains, func(i, j int) bool {
		return domains[i].Clicks > domains[j].Clicks
	})
	if len(domains) > 10 {
		domains = domains[:10]
	}
	report.Engagement.TopDomains = domains

	return report, nil
}

// clickDomain extracts the host from a destination URL. Malformed URLs are
// skipped, not errored.
func clickDomain(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
