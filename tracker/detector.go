package tracker

import (
	"time"

	"emailsuite/models"
	"emailsuite/notify"
)

const (
	// SpikeWindow is the trailing window the open-spike rule counts over
	SpikeWindow = 30 * time.Minute
	// SpikeThreshold is the open count at which a spike fires
	SpikeThreshold = 3
	// RevivalAfter is the gap from the first open that makes a later open
	// a revival
	RevivalAfter = 7 * 24 * time.Hour
)

// Signal is one detector finding, tagged by which pointer is set
type Signal struct {
	Spike   *notify.SpikeDetected
	Revival *notify.RevivalDetected
}

// Evaluate runs both anomaly rules over a message's open history as of the
// triggering open's timestamp. Neither rule has a suppression window: once a
// spike threshold is met, every further open fires again, and every open
// seven or more days after the first open fires a revival. Callers must
// tolerate repeated signals for the same message.
func Evaluate(msg *models.TrackedMessage, opens []models.OpenEvent, trigger time.Time) []Signal {
	var signals []Signal

	if count := opensWithin(opens, trigger.Add(-SpikeWindow)); count >= SpikeThreshold {
		signals = append(signals, Signal{Spike: &notify.SpikeDetected{
			TrackingID: msg.TrackingID,
			Recipient:  msg.Recipient,
			Subject:    msg.Subject,
			OpenCount:  count,
		}})
	}

	if first := earliestOpen(opens); first != nil {
		if gap := trigger.Sub(first.Timestamp); gap >= RevivalAfter {
			signals = append(signals, Signal{Revival: &notify.RevivalDetected{
				TrackingID: msg.TrackingID,
				Recipient:  msg.Recipient,
				Subject:    msg.Subject,
				Days:       int(gap.Hours() / 24),
			}})
		}
	}

	return signals
}

func opensWithin(opens []models.OpenEvent, cutoff time.Time) int {
	count := 0
	for _, o := range opens {
		if !o.Timestamp.Before(cutoff) {
			count++
		}
	}
	return count
}

func earliestOpen(opens []models.OpenEvent) *models.OpenEvent {
	var first *models.OpenEvent
	for i := range opens {
		if first == nil || opens[i].Timestamp.Before(first.Timestamp) {
			first = &opens[i]
		}
	}
	return first
}
