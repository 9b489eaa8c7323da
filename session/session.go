// Package session drives one ad-enabled playback session: it owns the
// loader, the break schedule and the tracking dispatcher, multiplexes
// player progress callbacks into scheduler queries and beacon dispatch, and
// calls into the host through narrow capability interfaces. All playback
// state lives here; parsed documents are never mutated.
package session

import (
	"github.com/barbarian/madman-android/vast"
	"github.com/barbarian/madman-android/vmap"
)

// State is the coarse lifecycle phase of a session.
type State string

const (
	// StateIdle is the initial state, before any ad request.
	StateIdle State = "idle"
	// StateLoading covers manifest loading and break resolution.
	StateLoading State = "loading"
	// StateReady means the schedule is built and content may start.
	StateReady State = "ready"
	// StatePlayingAd means an ad break is on screen.
	StatePlayingAd State = "playing_ad"
	// StateContent means content playback resumed after a break.
	StateContent State = "content"
	// StateDestroyed is terminal.
	StateDestroyed State = "destroyed"
)

// Renderer is the host's view layer. The session tells it what to show and
// never owns platform view objects.
type Renderer interface {
	// Render presents the ad using the selected media rendition.
	Render(ad *vast.Ad, media *vast.MediaFile)
	// UpdateProgress refreshes countdown/progress UI during ad playback.
	UpdateProgress(position, duration float64)
	// Destroy tears down any presented views.
	Destroy()
}

// Listener receives session callbacks. Embed NopListener to implement a
// subset.
type Listener interface {
	OnAdBreakStart(br *vmap.AdBreak)
	OnAdBreakEnd(br *vmap.AdBreak)
	OnAdProgress(ad *vast.Ad, position, duration float64)
	OnError(err error)
}

// NopListener implements Listener with no-ops.
type NopListener struct{}

func (NopListener) OnAdBreakStart(*vmap.AdBreak)            {}
func (NopListener) OnAdBreakEnd(*vmap.AdBreak)              {}
func (NopListener) OnAdProgress(*vast.Ad, float64, float64) {}
func (NopListener) OnError(error)                           {}

// SkipEnabledAt reports whether the skip control should be active after
// elapsed seconds of ad playback. A negative skipOffset means the ad is not
// skippable at all. Pure; the host polls it at its own cadence.
func SkipEnabledAt(elapsed, skipOffset float64) bool {
	if skipOffset < 0 {
		return false
	}
	return elapsed >= skipOffset
}
