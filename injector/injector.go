// Package injector adds publisher-side trackers into VAST creative XML
// before the document is parsed, so that injected beacons flow through the
// same tracking pipeline as the ad server's own. Macros inside injected URLs
// are left intact; the dispatcher expands them at fire time, when playback
// state is known.
package injector

import (
	"github.com/beevik/etree"

	"github.com/barbarian/madman-android/logger"
)

type Injector interface {
	Build(vastXML string) string
}

// VASTEvents carries the URLs to inject, keyed the way VAST structures them.
type VASTEvents struct {
	Errors               []string
	Impressions          []string
	VideoClicks          []string
	LinearTrackingEvents map[string][]string
}

// Empty reports whether there is nothing to inject.
func (e VASTEvents) Empty() bool {
	return len(e.Errors) == 0 && len(e.Impressions) == 0 &&
		len(e.VideoClicks) == 0 && len(e.LinearTrackingEvents) == 0
}

type TrackerInjector struct {
	events VASTEvents
}

func NewTrackerInjector(events VASTEvents) Injector {
	return &TrackerInjector{events: events}
}

// Build returns vastXML with the configured trackers appended to every
// InLine ad. Wrapper ads are left alone: their chain resolves to an inline
// ad that gets the injection. On any structural surprise the input is
// returned unchanged.
func (builder *TrackerInjector) Build(vastXML string) string {
	if builder.events.Empty() {
		return vastXML
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(vastXML); err != nil {
		logger.Warnf("injector: unparseable VAST, skipping injection: %v", err)
		return vastXML
	}

	inlines := doc.FindElements("VAST/Ad/InLine")
	for _, inline := range inlines {
		for _, url := range builder.events.Impressions {
			impression := inline.CreateElement("Impression")
			impression.CreateCData(url)
		}
		for _, url := range builder.events.Errors {
			errEl := inline.CreateElement("Error")
			errEl.CreateCData(url)
		}

		for _, linear := range inline.FindElements("Creatives/Creative/Linear") {
			trackingEvents := linear.SelectElement("TrackingEvents")
			if trackingEvents == nil {
				trackingEvents = linear.CreateElement("TrackingEvents")
			}
			for event, urls := range builder.events.LinearTrackingEvents {
				for _, url := range urls {
					tracking := trackingEvents.CreateElement("Tracking")
					tracking.CreateAttr("event", event)
					tracking.CreateCData(url)
				}
			}

			if len(builder.events.VideoClicks) > 0 {
				videoClicks := linear.SelectElement("VideoClicks")
				if videoClicks == nil {
					videoClicks = linear.CreateElement("VideoClicks")
				}
				for _, url := range builder.events.VideoClicks {
					clickTracking := videoClicks.CreateElement("ClickTracking")
					clickTracking.CreateCData(url)
				}
			}
		}
	}

	out, err := doc.WriteToString()
	if err != nil {
		logger.Warnf("injector: failed to serialize injected VAST: %v", err)
		return vastXML
	}
	return out
}
