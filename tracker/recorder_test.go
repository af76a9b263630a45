package tracker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emailsuite/models"
	"emailsuite/notify"
)

type fakeTrackingStore struct {
	messages map[string]*models.TrackedMessage
	opens    map[uint][]models.OpenEvent
	clicks   map[uint][]models.ClickEvent

	saveOpenErr error
	opensErr    error
}

func newFakeTrackingStore() *fakeTrackingStore {
	return &fakeTrackingStore{
		messages: make(map[string]*models.TrackedMessage),
		opens:    make(map[uint][]models.OpenEvent),
		clicks:   make(map[uint][]models.ClickEvent),
	}
}

func (f *fakeTrackingStore) MessageByTrackingID(_ context.Context, trackingID string) (*models.TrackedMessage, error) {
	return f.messages[trackingID], nil
}

func (f *fakeTrackingStore) SaveOpen(_ context.Context, event *models.OpenEvent) error {
	if f.saveOpenErr != nil {
		return f.saveOpenErr
	}
	f.opens[event.MessageID] = append(f.opens[event.MessageID], *event)
	return nil
}

func (f *fakeTrackingStore) SaveClick(_ context.Context, event *models.ClickEvent) error {
	f.clicks[event.MessageID] = append(f.clicks[event.MessageID], *event)
	return nil
}

func (f *fakeTrackingStore) OpensByMessage(_ context.Context, messageID uint) ([]models.OpenEvent, error) {
	if f.opensErr != nil {
		return nil, f.opensErr
	}
	return f.opens[messageID], nil
}

type fakeNotifier struct {
	events []notify.TrackingEvent
	alerts []notify.Alert
}

func (f *fakeNotifier) PublishTracking(evt notify.TrackingEvent) {
	f.events = append(f.events, evt)
}

func (f *fakeNotifier) PublishAlert(a notify.Alert) {
	f.alerts = append(f.alerts, a)
}

func newTestRecorder(store *fakeTrackingStore, pub *fakeNotifier) *Recorder {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRecorder(store, NewLocalLocator(), pub, log)
}

func seedMessage(store *fakeTrackingStore) *models.TrackedMessage {
	msg := &models.TrackedMessage{
		TrackingID: "tid-1",
		UserID:     7,
		Recipient:  "reader@example.com",
		Subject:    "Quarterly digest",
	}
	msg.ID = 10
	store.messages["tid-1"] = msg
	return msg
}

func TestRecordOpen(t *testing.T) {
	store := newFakeTrackingStore()
	seedMessage(store)
	pub := &fakeNotifier{}
	rec := newTestRecorder(store, pub)

	ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	err := rec.RecordOpen(context.Background(), "tid-1", Metadata{
		IP:        "192.168.1.20",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)",
		Timestamp: ts,
	})
	require.NoError(t, err)

	require.Len(t, store.opens[10], 1)
	event := store.opens[10][0]
	assert.Equal(t, uint(10), event.MessageID)
	assert.Equal(t, "mobile", event.DeviceType)
	assert.Equal(t, "Local", event.Location)
	assert.Equal(t, ts, event.Timestamp)

	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.EventOpenRecorded, pub.events[0].Type)
	assert.Equal(t, uint(7), pub.events[0].UserID)
	require.NotNil(t, pub.events[0].Open)
	assert.Equal(t, "reader@example.com", pub.events[0].Open.Recipient)
}

func TestRecordOpenUnknownIDIsSilent(t *testing.T) {
	store := newFakeTrackingStore()
	pub := &fakeNotifier{}
	rec := newTestRecorder(store, pub)

	err := rec.RecordOpen(context.Background(), "nope", Metadata{IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.Empty(t, store.opens)
	assert.Empty(t, pub.events)
	assert.Empty(t, pub.alerts)
}

func TestRecordOpenPersistenceErrorPropagates(t *testing.T) {
	store := newFakeTrackingStore()
	seedMessage(store)
	store.saveOpenErr = errors.New("disk full")
	pub := &fakeNotifier{}
	rec := newTestRecorder(store, pub)

	err := rec.RecordOpen(context.Background(), "tid-1", Metadata{IP: "1.2.3.4"})
	assert.Error(t, err)
	assert.Empty(t, pub.events)
}

func TestRecordOpenDefaultsTimestamp(t *testing.T) {
	store := newFakeTrackingStore()
	seedMessage(store)
	pub := &fakeNotifier{}
	rec := newTestRecorder(store, pub)

	before := time.Now().UTC()
	require.NoError(t, rec.RecordOpen(context.Background(), "tid-1", Metadata{IP: "1.2.3.4"}))
	after := time.Now().UTC()

	event := store.opens[10][0]
	assert.False(t, event.Timestamp.Before(before))
	assert.False(t, event.Timestamp.After(after))
}

func TestRecordOpenTriggersSpike(t *testing.T) {
	store := newFakeTrackingStore()
	seedMessage(store)
	pub := &fakeNotifier{}
	rec := newTestRecorder(store, pub)

	trigger := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	store.opens[10] = []models.OpenEvent{
		{MessageID: 10, Timestamp: trigger.Add(-20 * time.Minute)},
		{MessageID: 10, Timestamp: trigger.Add(-10 * time.Minute)},
	}

	err := rec.RecordOpen(context.Background(), "tid-1", Metadata{
		IP:        "1.2.3.4",
		Timestamp: trigger,
	})
	require.NoError(t, err)

	// One open_recorded plus one open_spike
	require.Len(t, pub.events, 2)
	assert.Equal(t, notify.EventOpenRecorded, pub.events[0].Type)
	assert.Equal(t, notify.EventSpikeDetected, pub.events[1].Type)
	require.NotNil(t, pub.events[1].Spike)
	assert.Equal(t, 3, pub.events[1].Spike.OpenCount)

	require.Len(t, pub.alerts, 1)
	assert.Equal(t, "warning", pub.alerts[0].Type)
	assert.Equal(t, uint(7), pub.alerts[0].UserID)
}

func TestDetectorFailureDoesNotFailRecording(t *testing.T) {
	store := newFakeTrackingStore()
	seedMessage(store)
	pub := &fakeNotifier{}
	rec := newTestRecorder(store, pub)

	store.opensErr = errors.New("replica lag")

	err := rec.RecordOpen(context.Background(), "tid-1", Metadata{IP: "1.2.3.4"})
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.EventOpenRecorded, pub.events[0].Type)
}

func TestRecordClick(t *testing.T) {
	store := newFakeTrackingStore()
	seedMessage(store)
	pub := &fakeNotifier{}
	rec := newTestRecorder(store, pub)

	err := rec.RecordClick(context.Background(), "tid-1", "https://example.com/deal", Metadata{
		IP:        "8.8.8.8",
		UserAgent: "Mozilla/5.0 (Windows NT 10.0)",
	})
	require.NoError(t, err)

	require.Len(t, store.clicks[10], 1)
	assert.Equal(t, "https://example.com/deal", store.clicks[10][0].URL)

	require.Len(t, pub.events, 1)
	assert.Equal(t, notify.EventClickRecorded, pub.events[0].Type)
	require.NotNil(t, pub.events[0].Click)
	assert.Equal(t, "https://example.com/deal", pub.events[0].Click.URL)
}

func TestRecordClickUnknownIDIsSilent(t *testing.T) {
	store := newFakeTrackingStore()
	pub := &fakeNotifier{}
	rec := newTestRecorder(store, pub)

	err := rec.RecordClick(context.Background(), "nope", "https://example.com", Metadata{IP: "1.2.3.4"})
	require.NoError(t, err)
	assert.Empty(t, store.clicks)
	assert.Empty(t, pub.events)
}

func TestRecordOpenSaveErrorSkipsDetectors(t *testing.T) {
	store := newFakeTrackingStore()
	seedMessage(store)
	trigger := time.Now()
	store.opens[10] = []models.OpenEvent{
		{MessageID: 10, Timestamp: trigger.Add(-5 * time.Minute)},
		{MessageID: 10, Timestamp: trigger.Add(-2 * time.Minute)},
	}
	store.saveOpenErr = errors.New("write refused")
	pub := &fakeNotifier{}
	rec := newTestRecorder(store, pub)

	err := rec.RecordOpen(context.Background(), "tid-1", Metadata{IP: "1.2.3.4", Timestamp: trigger})
	assert.Error(t, err)
	assert.Empty(t, pub.events)
	assert.Empty(t, pub.alerts)
}
