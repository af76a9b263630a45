package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emailsuite/models"
)

func testMessage() *models.TrackedMessage {
	return &models.TrackedMessage{
		TrackingID: "tid-1",
		Recipient:  "reader@example.com",
		Subject:    "Quarterly digest",
	}
}

func opensAt(times ...time.Time) []models.OpenEvent {
	opens := make([]models.OpenEvent, 0, len(times))
	for _, ts := range times {
		opens = append(opens, models.OpenEvent{Timestamp: ts})
	}
	return opens
}

func TestSpikeFiresAtThreshold(t *testing.T) {
	trigger := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	opens := opensAt(
		trigger.Add(-25*time.Minute),
		trigger.Add(-10*time.Minute),
		trigger,
	)

	signals := Evaluate(testMessage(), opens, trigger)
	require.Len(t, signals, 1)
	require.NotNil(t, signals[0].Spike)
	assert.Equal(t, 3, signals[0].Spike.OpenCount)
	assert.Equal(t, "tid-1", signals[0].Spike.TrackingID)
}

func TestTwoOpensIsNotASpike(t *testing.T) {
	trigger := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	opens := opensAt(trigger.Add(-5*time.Minute), trigger)

	assert.Empty(t, Evaluate(testMessage(), opens, trigger))
}

func TestSpikeWindowExcludesOldOpens(t *testing.T) {
	trigger := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// Two opens inside the trailing 30 minutes, one just outside
	opens := opensAt(
		trigger.Add(-31*time.Minute),
		trigger.Add(-5*time.Minute),
		trigger,
	)
	assert.Empty(t, Evaluate(testMessage(), opens, trigger))

	// An open exactly on the window edge still counts
	opens = opensAt(
		trigger.Add(-30*time.Minute),
		trigger.Add(-5*time.Minute),
		trigger,
	)
	signals := Evaluate(testMessage(), opens, trigger)
	require.Len(t, signals, 1)
	assert.Equal(t, 3, signals[0].Spike.OpenCount)
}

func TestSpikeWithMultipleIPs(t *testing.T) {
	// The spike rule counts opens, not distinct readers: three opens from
	// two addresses still fire
	trigger := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	opens := []models.OpenEvent{
		{Timestamp: trigger.Add(-20 * time.Minute), IPAddress: "1.1.1.1"},
		{Timestamp: trigger.Add(-10 * time.Minute), IPAddress: "2.2.2.2"},
		{Timestamp: trigger, IPAddress: "1.1.1.1"},
	}

	signals := Evaluate(testMessage(), opens, trigger)
	require.Len(t, signals, 1)
	require.NotNil(t, signals[0].Spike)
}

func TestRevivalFiresAfterSevenDays(t *testing.T) {
	firstOpen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	trigger := firstOpen.Add(7 * 24 * time.Hour)
	opens := opensAt(firstOpen, trigger)

	signals := Evaluate(testMessage(), opens, trigger)
	require.Len(t, signals, 1)
	require.NotNil(t, signals[0].Revival)
	assert.Equal(t, 7, signals[0].Revival.Days)
}

func TestRevivalJustUnderSevenDays(t *testing.T) {
	firstOpen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	trigger := firstOpen.Add(7*24*time.Hour - time.Hour)
	opens := opensAt(firstOpen, trigger)

	assert.Empty(t, Evaluate(testMessage(), opens, trigger))
}

func TestRevivalRefires(t *testing.T) {
	// There is no suppression: a tenth-day open fires again after the
	// seventh-day one did
	firstOpen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	opens := opensAt(firstOpen, firstOpen.Add(7*24*time.Hour))

	trigger := firstOpen.Add(10 * 24 * time.Hour)
	opens = append(opens, models.OpenEvent{Timestamp: trigger})

	signals := Evaluate(testMessage(), opens, trigger)
	require.Len(t, signals, 1)
	require.NotNil(t, signals[0].Revival)
	assert.Equal(t, 10, signals[0].Revival.Days)
}

func TestSpikeAndRevivalTogether(t *testing.T) {
	firstOpen := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	trigger := firstOpen.Add(8 * 24 * time.Hour)
	opens := opensAt(
		firstOpen,
		trigger.Add(-20*time.Minute),
		trigger.Add(-10*time.Minute),
		trigger,
	)

	signals := Evaluate(testMessage(), opens, trigger)
	require.Len(t, signals, 2)
	assert.NotNil(t, signals[0].Spike)
	assert.NotNil(t, signals[1].Revival)
}

func TestEvaluateIsRepeatable(t *testing.T) {
	trigger := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	opens := opensAt(
		trigger.Add(-25*time.Minute),
		trigger.Add(-10*time.Minute),
		trigger,
	)

	first := Evaluate(testMessage(), opens, trigger)
	second := Evaluate(testMessage(), opens, trigger)
	assert.Equal(t, first, second)
}

func TestNoOpensNoSignals(t *testing.T) {
	assert.Empty(t, Evaluate(testMessage(), nil, time.Now()))
}
