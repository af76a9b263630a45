package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// Publisher broadcasts tracking events and alerts over Redis pub/sub.
//
// Delivery is at-most-once and best-effort: a publish that fails is logged
// and dropped, never retried. Consumers feed live dashboard connections and
// must not treat the stream as an audit trail.
type Publisher struct {
	rdb *redis.Client
	log *logrus.Logger
}

func NewPublisher(rdb *redis.Client, log *logrus.Logger) *Publisher {
	return &Publisher{rdb: rdb, log: log}
}

// PublishTracking fires a tracking event at the owning user's channel and
// returns immediately.
func (p *Publisher) PublishTracking(evt TrackingEvent) {
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	p.fire(TrackingChannel(evt.UserID), evt)
}

// PublishAlert fires a dashboard alert at the owning user's channel.
func (p *Publisher) PublishAlert(a Alert) {
	p.fire(AlertChannel(a.UserID), a)
}

func (p *Publisher) fire(channel string, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		p.log.WithError(err).WithField("channel", channel).Error("marshal notification")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := p.rdb.Publish(ctx, channel, body).Err(); err != nil {
			p.log.WithError(err).WithField("channel", channel).Error("publish notification")
		}
	}()
}
