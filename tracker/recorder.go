package tracker

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"

	"emailsuite/metrics"
	"emailsuite/models"
	"emailsuite/notify"
)

// Store is what the recorder needs from the persistence layer.
// MessageByTrackingID returns (nil, nil) when the ID is unknown.
type Store interface {
	MessageByTrackingID(ctx context.Context, trackingID string) (*models.TrackedMessage, error)
	SaveOpen(ctx context.Context, event *models.OpenEvent) error
	SaveClick(ctx context.Context, event *models.ClickEvent) error
	OpensByMessage(ctx context.Context, messageID uint) ([]models.OpenEvent, error)
}

// Notifier is satisfied by notify.Publisher
type Notifier interface {
	PublishTracking(evt notify.TrackingEvent)
	PublishAlert(a notify.Alert)
}

// Metadata carries what the HTTP layer observed about the client
type Metadata struct {
	IP        string
	UserAgent string
	Timestamp time.Time // zero means now
}

// Recorder ingests open and click events. Unknown tracking IDs are a silent
// no-op: pixels and links are fetched by arbitrary mail clients and an
// expired or tampered ID is an expected condition, not an error.
type Recorder struct {
	store Store
	geo   Locator
	pub   Notifier
	log   *logrus.Logger
}

func NewRecorder(store Store, geo Locator, pub Notifier, log *logrus.Logger) *Recorder {
	return &Recorder{store: store, geo: geo, pub: pub, log: log}
}

// RecordOpen persists one pixel fetch, then runs the anomaly rules and
// publishes notifications. Only the persistence error propagates; the HTTP
// layer still serves the pixel regardless.
func (r *Recorder) RecordOpen(ctx context.Context, trackingID string, meta Metadata) error {
	msg, err := r.store.MessageByTrackingID(ctx, trackingID)
	if err != nil {
		return r.persistenceError("open lookup", trackingID, err)
	}
	if msg == nil {
		metrics.TrackingMisses.Inc()
		r.log.WithField("tracking_id", trackingID).Debug("open for unknown tracking id ignored")
		return nil
	}

	event := &models.OpenEvent{
		MessageID:  msg.ID,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
		DeviceType: DetectDevice(meta.UserAgent),
		Location:   r.geo.Locate(meta.IP),
		Timestamp:  eventTime(meta),
	}
	if err := r.store.SaveOpen(ctx, event); err != nil {
		return r.persistenceError("open append", trackingID, err)
	}
	metrics.OpensRecorded.Inc()

	r.pub.PublishTracking(notify.TrackingEvent{
		Type:   notify.EventOpenRecorded,
		UserID: msg.UserID,
		Open: &notify.OpenRecorded{
			TrackingID: msg.TrackingID,
			Recipient:  msg.Recipient,
			Subject:    msg.Subject,
			DeviceType: event.DeviceType,
			Location:   event.Location,
			OpenedAt:   event.Timestamp,
		},
	})

	r.runDetectors(ctx, msg, event.Timestamp)
	return nil
}

// RecordClick persists one traversal of a rewritten link. destinationURL is
// the original target, already unwrapped from the tracking redirect.
func (r *Recorder) RecordClick(ctx context.Context, trackingID, destinationURL string, meta Metadata) error {
	msg, err := r.store.MessageByTrackingID(ctx, trackingID)
	if err != nil {
		return r.persistenceError("click lookup", trackingID, err)
	}
	if msg == nil {
		metrics.TrackingMisses.Inc()
		r.log.WithField("tracking_id", trackingID).Debug("click for unknown tracking id ignored")
		return nil
	}

	event := &models.ClickEvent{
		MessageID: msg.ID,
		URL:       destinationURL,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
		Timestamp: eventTime(meta),
	}
	if err := r.store.SaveClick(ctx, event); err != nil {
		return r.persistenceError("click append", trackingID, err)
	}
	metrics.ClicksRecorded.Inc()

	r.pub.PublishTracking(notify.TrackingEvent{
		Type:   notify.EventClickRecorded,
		UserID: msg.UserID,
		Click: &notify.ClickRecorded{
			TrackingID: msg.TrackingID,
			Recipient:  msg.Recipient,
			URL:        destinationURL,
			ClickedAt:  event.Timestamp,
		},
	})
	return nil
}

// runDetectors evaluates the anomaly rules after a stored open. Rule
// failures are logged and swallowed: they run on the pixel hot path and must
// never prevent the response.
func (r *Recorder) runDetectors(ctx context.Context, msg *models.TrackedMessage, trigger time.Time) {
	opens, err := r.store.OpensByMessage(ctx, msg.ID)
	if err != nil {
		r.log.WithError(err).WithField("tracking_id", msg.TrackingID).Error("detector: loading opens")
		return
	}

	for _, sig := range Evaluate(msg, opens, trigger) {
		switch {
		case sig.Spike != nil:
			metrics.AnomalySignals.WithLabelValues("open_spike").Inc()
			r.pub.PublishTracking(notify.TrackingEvent{
				Type:   notify.EventSpikeDetected,
				UserID: msg.UserID,
				Spike:  sig.Spike,
			})
			r.pub.PublishAlert(notify.Alert{
				UserID:  msg.UserID,
				Title:   "Open spike detected",
				Message: msg.Recipient + " opened \"" + msg.Subject + "\" repeatedly in the last 30 minutes",
				Type:    "warning",
			})
		case sig.Revival != nil:
			metrics.AnomalySignals.WithLabelValues("email_revival").Inc()
			r.pub.PublishTracking(notify.TrackingEvent{
				Type:    notify.EventRevivalDetected,
				UserID:  msg.UserID,
				Revival: sig.Revival,
			})
			r.pub.PublishAlert(notify.Alert{
				UserID:  msg.UserID,
				Title:   "Email revival",
				Message: msg.Recipient + " came back to \"" + msg.Subject + "\" days after first opening it",
				Type:    "info",
			})
		}
	}
}

func (r *Recorder) persistenceError(op, trackingID string, err error) error {
	r.log.WithError(err).WithFields(logrus.Fields{
		"op":          op,
		"tracking_id": trackingID,
	}).Error("tracking persistence failure")
	sentry.CaptureException(err)
	return err
}

func eventTime(meta Metadata) time.Time {
	if meta.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return meta.Timestamp
}
