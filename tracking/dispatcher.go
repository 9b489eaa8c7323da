// Package tracking fires beacon URLs for playback and interaction events.
// Dispatch is fire-and-forget: beacons are posted off the caller's
// goroutine, failures are logged and metered but never escalated, and
// nothing is retried. The dispatcher is stateless and idempotency-agnostic;
// exactly-once semantics per (ad, event) are the caller's responsibility.
package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/barbarian/madman-android/logger"
	"github.com/barbarian/madman-android/macros"
	"github.com/barbarian/madman-android/metrics"
	"github.com/barbarian/madman-android/transport"
)

type Dispatcher struct {
	transport transport.Transport
	replacer  macros.Replacer
	provider  *macros.Provider
	metrics   metrics.Engine
	timeout   time.Duration

	// inflight lets Wait drain outstanding beacons, mainly in tests
	inflight sync.WaitGroup
}

// NewDispatcher builds a dispatcher. A positive timeout bounds each beacon
// post; zero leaves the bound to the transport.
func NewDispatcher(tr transport.Transport, replacer macros.Replacer, provider *macros.Provider, me metrics.Engine, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		transport: tr,
		replacer:  replacer,
		provider:  provider,
		metrics:   me,
		timeout:   timeout,
	}
}

// Track fires one beacon per URL for the given event on adID. It returns
// immediately; ctx cancellation (session teardown) stops any beacon that has
// not yet left.
func (d *Dispatcher) Track(ctx context.Context, urls []string, event Event, adID string) {
	for _, raw := range urls {
		url, err := d.replacer.Replace(raw, d.provider)
		if err != nil {
			logger.Warnf("tracking: macro expansion failed for %s beacon of ad %s: %v", event, adID, err)
			url = raw
		}

		d.inflight.Add(1)
		go func(ctx context.Context, url string) {
			defer d.inflight.Done()
			if ctx.Err() != nil {
				return
			}
			if d.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, d.timeout)
				defer cancel()
			}
			if err := d.transport.Post(ctx, url); err != nil {
				logger.Warnf("tracking: dropped %s beacon for ad %s: %v", event, adID, err)
				d.metrics.RecordBeaconFailure(string(event))
				return
			}
			logger.Debugf("tracking: fired %s beacon for ad %s", event, adID)
			d.metrics.RecordBeacon(string(event))
		}(ctx, url)
	}
}

// TrackError fires error beacons with the [ERRORCODE] macro bound to the
// given IAB VAST code.
func (d *Dispatcher) TrackError(ctx context.Context, urls []string, adID string, vastCode int) {
	d.provider.PopulateErrorMacros(vastCode)
	d.Track(ctx, urls, EventError, adID)
}

// Wait blocks until all in-flight beacons have been attempted.
func (d *Dispatcher) Wait() {
	d.inflight.Wait()
}
