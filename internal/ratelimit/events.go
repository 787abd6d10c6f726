package ratelimit

import (
	"time"
)

// filterEvents filters an array of event timestamps (represented in UnixNano)
// based on a map of rates, which specify how many events are allowed per
// certain duration. The function discards events that have aged out of every
// window, and calculates the time remaining until the next event can occur
// without violating the rate limits.
func filterEvents(now time.Time, rates map[time.Duration]int, events *ringBuffer[int64]) (remaining time.Duration) {
	// All events before this index will be discarded as they fall outside
	// every window.
	indexFirstRelevant := events.Len()

	for rate, limit := range rates {
		if limit <= 0 || rate <= 0 {
			continue
		}

		boundary := now.Add(-rate)

		index := events.Search(boundary.UnixNano() + 1)
		if index < indexFirstRelevant {
			indexFirstRelevant = index
		}

		if limit <= events.Len()-index {
			offset := time.Unix(0, events.Get(events.Len()-limit)).Sub(boundary)
			if offset > remaining {
				remaining = offset
			}
		}
	}

	events.RemoveBefore(indexFirstRelevant)

	return remaining
}
