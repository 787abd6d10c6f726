package ratelimit

import (
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

const (
	nextZeroValue = math.MinInt64
)

type (
	// Limiter implements multi-window rate limiting, with a separate
	// sliding-window bucket per category.
	Limiter struct {
		running    *int32
		rates      map[time.Duration]int
		categories sync.Map
		// calculated from rates, for cleanup
		retention time.Duration
		mu        sync.RWMutex
	}

	categoryData struct {
		// at [0] is the next allowed event, or nextZeroValue if none
		// at [1] is the value of events[len(events)-1], or the value that _was_ that
		atomic *[2]int64
		events *ringBuffer[int64]
		mu     sync.Mutex
	}

	cleanupCategory struct {
		Category any
		Data     *categoryData
	}
)

// for testing purposes
var (
	timeNow       = time.Now
	timeNewTicker = time.NewTicker
)

var categoryDataPool = sync.Pool{New: func() any {
	return &categoryData{
		// note: the value of atomic is initialized within Allow
		atomic: new([2]int64),
		events: newRingBuffer[int64](8),
	}
}}

// NewLimiter creates a new rate limiter with configurable sliding windows.
//
// Parameters:
//
//	rates - Map of time window durations to maximum event counts. Keys must
//	        be positive time.Duration values; values are the maximum number
//	        of events allowed in that window.
//
// Requirements:
//
//  1. All rate durations must be positive (non-zero).
//  2. All rate counts must be positive (non-zero).
//  3. Rates must be monotonic: shorter windows must have strictly smaller
//     counts than longer windows, and a strictly higher effective rate
//     (count per duration).
//
// Panics if rates is empty or invalid.
func NewLimiter(rates map[time.Duration]int) *Limiter {
	retention, ok := parseRates(rates)
	if !ok {
		panic(fmt.Errorf(`taskreactor: ratelimit: invalid rates: %v`, rates))
	}

	return &Limiter{
		running:   new(int32),
		rates:     rates,
		retention: retention,
	}
}

func (x *Limiter) ok() bool {
	return x != nil && len(x.rates) != 0
}

// Allow is a non-blocking call that attempts to register an event for the
// given category. True indicates that an event was registered (and should be
// emitted by the caller). A nil Limiter always allows.
func (x *Limiter) Allow(category any) bool {
	if !x.ok() {
		return true
	}

	// to avoid racing with cleanup
	x.mu.RLock()
	defer x.mu.RUnlock()

	now := timeNow()
	nowUnixNano := now.UnixNano()

	if atomic.CompareAndSwapInt32(x.running, 0, 1) {
		go x.worker()
	}

	var (
		data   *categoryData
		loaded bool
	)
	{
		poolValue := categoryDataPool.Get().(*categoryData)
		*poolValue.atomic = [2]int64{nextZeroValue, nowUnixNano}
		poolValue.mu.Lock()

		var value any
		value, loaded = x.categories.LoadOrStore(category, poolValue)
		if loaded {
			poolValue.mu.Unlock()
			categoryDataPool.Put(poolValue)
			data = value.(*categoryData)
		} else {
			defer poolValue.mu.Unlock()
			data = poolValue
		}
	}

	if next := data.loadNext(); next != nextZeroValue && nowUnixNano < next {
		return false
	}

	if loaded {
		data.mu.Lock()
		defer data.mu.Unlock()

		if data.atomic[0] != nextZeroValue && nowUnixNano < data.atomic[0] {
			return false
		}

		if data.atomic[1] < nowUnixNano {
			data.storeRecent(nowUnixNano)
		}
	}

	data.events.Insert(data.events.Search(nowUnixNano), nowUnixNano)

	remaining := filterEvents(now, x.rates, data.events)
	if remaining <= 0 {
		data.storeNext(nextZeroValue)
		return true
	}

	next := now.Add(remaining)
	data.storeNext(next.UnixNano())

	return true
}

// worker handles cleanup, it polls, with some optimization around avoiding
// locking Limiter.mu when there's nothing to do
func (x *Limiter) worker() {
	var toDelete []cleanupCategory

	ticker := timeNewTicker(time.Duration(math.Max(
		float64(x.retention)*0.5,
		float64(time.Second),
	)))
	defer ticker.Stop()

	for {
		<-ticker.C

		chanceOfStop := true
		x.categories.Range(func(key, value any) bool {
			if data := value.(*categoryData); data.loadRecent() < x.cleanupThreshold() {
				toDelete = append(toDelete, cleanupCategory{key, data})
			} else {
				chanceOfStop = false
			}
			return true
		})

		if len(toDelete) != 0 {
			mustStop := x.cleanup(toDelete, chanceOfStop)
			if mustStop {
				return
			}
			toDelete = toDelete[:0]
		}
	}
}

func (x *Limiter) cleanupThreshold() int64 {
	return timeNow().Add(-x.retention).UnixNano()
}

func (x *Limiter) cleanup(toDelete []cleanupCategory, chanceOfStop bool) (mustStop bool) {
	x.mu.Lock()
	defer x.mu.Unlock()

	threshold := x.cleanupThreshold()

	for i, v := range toDelete {
		if v.Data.atomic[1] < threshold {
			x.categories.Delete(v.Category)
			const maxEventsCap = 1 << 10
			if v.Data.events.Cap() <= maxEventsCap {
				v.Data.events.RemoveBefore(v.Data.events.Len())
				categoryDataPool.Put(v.Data)
			}
		} else {
			chanceOfStop = false
		}
		toDelete[i] = cleanupCategory{}
	}

	if chanceOfStop {
		x.categories.Range(func(_, _ any) bool {
			chanceOfStop = false
			return false
		})
		if chanceOfStop {
			*x.running = 0
			return true
		}
	}

	return false
}

func (x *categoryData) loadNext() int64 {
	return atomic.LoadInt64(&x.atomic[0])
}

func (x *categoryData) storeNext(v int64) {
	atomic.StoreInt64(&x.atomic[0], v)
}

func (x *categoryData) loadRecent() int64 {
	return atomic.LoadInt64(&x.atomic[1])
}

func (x *categoryData) storeRecent(v int64) {
	atomic.StoreInt64(&x.atomic[1], v)
}
