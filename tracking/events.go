package tracking

// Event enumerates the VAST/VMAP lifecycle and interaction beacons the
// client can fire.
type Event string

// Possible values of tracking events for an ad or an ad break.
const (
	EventCreativeView     Event = "creativeView"
	EventImpression       Event = "impression"
	EventStart            Event = "start"
	EventFirstQuartile    Event = "firstQuartile"
	EventMidpoint         Event = "midpoint"
	EventThirdQuartile    Event = "thirdQuartile"
	EventComplete         Event = "complete"
	EventProgress         Event = "progress"
	EventSkip             Event = "skip"
	EventClick            Event = "click"
	EventClickTracking    Event = "clickTracking"
	EventPause            Event = "pause"
	EventResume           Event = "resume"
	EventMute             Event = "mute"
	EventUnmute           Event = "unmute"
	EventFullscreen       Event = "fullscreen"
	EventExitFullscreen   Event = "exitFullscreen"
	EventAcceptInvitation Event = "acceptInvitation"
	EventClose            Event = "close"
	EventError            Event = "error"

	// VMAP break-level events
	EventBreakStart Event = "breakStart"
	EventBreakEnd   Event = "breakEnd"
)

// QuartileEvents lists the playback-progress beacons in firing order.
func QuartileEvents() []Event {
	return []Event{
		EventStart,
		EventFirstQuartile,
		EventMidpoint,
		EventThirdQuartile,
		EventComplete,
	}
}

// OneShot reports whether an event must fire at most once per ad
// play-through. The dispatcher itself never dedups; suppressing duplicate
// triggers is the session's contract.
func (e Event) OneShot() bool {
	switch e {
	case EventImpression, EventCreativeView, EventStart, EventFirstQuartile,
		EventMidpoint, EventThirdQuartile, EventComplete, EventSkip:
		return true
	}
	return false
}
