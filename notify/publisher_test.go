package notify

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPublisher(t *testing.T) (*Publisher, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewPublisher(client, log), client
}

func TestChannelNames(t *testing.T) {
	assert.Equal(t, "tracking_events:7", TrackingChannel(7))
	assert.Equal(t, "notification_alerts:7", AlertChannel(7))
}

func TestPublishTracking(t *testing.T) {
	pub, client := testPublisher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, TrackingChannel(7))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub.PublishTracking(TrackingEvent{
		Type:   EventOpenRecorded,
		UserID: 7,
		Open: &OpenRecorded{
			TrackingID: "tid-1",
			Recipient:  "reader@example.com",
			DeviceType: "mobile",
		},
	})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got TrackingEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, EventOpenRecorded, got.Type)
	assert.Equal(t, uint(7), got.UserID)
	require.NotNil(t, got.Open)
	assert.Equal(t, "tid-1", got.Open.TrackingID)
	assert.Nil(t, got.Click)
	assert.False(t, got.Timestamp.IsZero())
}

func TestPublishAlert(t *testing.T) {
	pub, client := testPublisher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, AlertChannel(3))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	pub.PublishAlert(Alert{
		UserID:  3,
		Title:   "Open spike detected",
		Message: "someone keeps reading your email",
		Type:    "warning",
	})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got Alert
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, "Open spike detected", got.Title)
	assert.Equal(t, "warning", got.Type)
}

func TestPublishIsScopedToUser(t *testing.T) {
	pub, client := testPublisher(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := client.Subscribe(ctx, TrackingChannel(1))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	// Event for user 2 must not arrive on user 1's channel
	pub.PublishTracking(TrackingEvent{Type: EventClickRecorded, UserID: 2})
	pub.PublishTracking(TrackingEvent{Type: EventOpenRecorded, UserID: 1})

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)

	var got TrackingEvent
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, uint(1), got.UserID)
	assert.Equal(t, EventOpenRecorded, got.Type)
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	pub, client := testPublisher(t)
	require.NoError(t, client.Close())

	// The publisher never surfaces broker failures to callers
	assert.NotPanics(t, func() {
		pub.PublishTracking(TrackingEvent{Type: EventOpenRecorded, UserID: 9})
		pub.PublishAlert(Alert{UserID: 9, Title: "x"})
	})
	time.Sleep(50 * time.Millisecond)
}
