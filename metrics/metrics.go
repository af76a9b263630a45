package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Counters for the tracking hot path and campaign sending. Exposed at
// /metrics via the Prometheus handler.
var (
	OpensRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emailsuite_opens_recorded_total",
		Help: "Pixel fetches that resulted in a stored open event",
	})

	ClicksRecorded = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emailsuite_clicks_recorded_total",
		Help: "Link redirects that resulted in a stored click event",
	})

	TrackingMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "emailsuite_tracking_misses_total",
		Help: "Tracking hits for unknown or expired tracking IDs",
	})

	AnomalySignals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emailsuite_anomaly_signals_total",
		Help: "Detector signals emitted, by rule",
	}, []string{"rule"})

	CampaignSends = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "emailsuite_campaign_sends_total",
		Help: "Campaign recipient sends, by outcome",
	}, []string{"outcome"})
)
