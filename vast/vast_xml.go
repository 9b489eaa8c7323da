package vast

import (
	"encoding/xml"
	"fmt"
)

// Vast is the root of a VAST 2.0/3.0/4.x document. Unknown elements are
// dropped on unmarshal, which keeps the parser forward compatible with newer
// VAST revisions.
type Vast struct {
	XMLName xml.Name   `xml:"VAST"`
	Version string     `xml:"version,attr"`
	Ads     []Ad       `xml:"Ad"`
	Errors  []CDATAURI `xml:"Error"`
}

// Ad carries either an InLine creative or a Wrapper redirect, never both.
type Ad struct {
	ID       string   `xml:"id,attr,omitempty"`
	Sequence int      `xml:"sequence,attr,omitempty"`
	InLine   *InLine  `xml:"InLine,omitempty"`
	Wrapper  *Wrapper `xml:"Wrapper,omitempty"`
}

type InLine struct {
	AdSystem    *AdSystem    `xml:"AdSystem,omitempty"`
	AdTitle     string       `xml:"AdTitle"`
	Advertiser  string       `xml:"Advertiser,omitempty"`
	Pricing     *Pricing     `xml:"Pricing,omitempty"`
	Errors      []CDATAURI   `xml:"Error"`
	Impressions []Impression `xml:"Impression"`
	Creatives   *Creatives   `xml:"Creatives"`
	Extensions  *Extensions  `xml:"Extensions,omitempty"`
}

// Wrapper redirects to a further VAST document via VASTAdTagURI. Its
// impressions and tracking events apply to whatever inline ad the chain
// eventually resolves to.
type Wrapper struct {
	AdSystem     *AdSystem    `xml:"AdSystem,omitempty"`
	VASTAdTagURI CDATAURI     `xml:"VASTAdTagURI"`
	Errors       []CDATAURI   `xml:"Error"`
	Impressions  []Impression `xml:"Impression"`
	Creatives    *Creatives   `xml:"Creatives,omitempty"`
}

type AdSystem struct {
	Version string `xml:"version,attr,omitempty"`
	Value   string `xml:",chardata"`
}

type Pricing struct {
	Model    string `xml:"model,attr,omitempty"`
	Currency string `xml:"currency,attr,omitempty"`
	Value    string `xml:",chardata"`
}

type Impression struct {
	ID    string `xml:"id,attr,omitempty"`
	Value string `xml:",cdata"`
}

// CDATAURI is a URI-bearing element whose value is written inside CDATA on
// marshal, since ad server URLs routinely contain & and =.
type CDATAURI struct {
	Value string `xml:",cdata"`
}

type Creatives struct {
	Creative []Creative `xml:"Creative"`
}

type Creative struct {
	ID       string  `xml:"id,attr,omitempty"`
	Sequence int     `xml:"sequence,attr,omitempty"`
	AdID     string  `xml:"AdID,attr,omitempty"`
	Linear   *Linear `xml:"Linear,omitempty"`
}

type Linear struct {
	SkipOffset     string          `xml:"skipoffset,attr,omitempty"`
	Duration       string          `xml:"Duration"`
	TrackingEvents *TrackingEvents `xml:"TrackingEvents,omitempty"`
	VideoClicks    *VideoClicks    `xml:"VideoClicks,omitempty"`
	MediaFiles     *MediaFiles     `xml:"MediaFiles,omitempty"`
}

type TrackingEvents struct {
	Tracking []Tracking `xml:"Tracking"`
}

type Tracking struct {
	Event  string `xml:"event,attr"`
	Offset string `xml:"offset,attr,omitempty"`
	Value  string `xml:",cdata"`
}

type VideoClicks struct {
	ClickThrough  *CDATAURI  `xml:"ClickThrough,omitempty"`
	ClickTracking []CDATAURI `xml:"ClickTracking"`
}

type MediaFiles struct {
	MediaFile []MediaFile `xml:"MediaFile"`
}

type MediaFile struct {
	ID       string `xml:"id,attr,omitempty"`
	Delivery string `xml:"delivery,attr,omitempty"`
	Type     string `xml:"type,attr,omitempty"`
	Width    int    `xml:"width,attr,omitempty"`
	Height   int    `xml:"height,attr,omitempty"`
	Bitrate  int    `xml:"bitrate,attr,omitempty"`
	Value    string `xml:",cdata"`
}

type Extensions struct {
	Extension []Extension `xml:"Extension"`
}

type Extension struct {
	Type     string `xml:"type,attr,omitempty"`
	InnerXML string `xml:",innerxml"`
}

// Marshal serializes the VAST document with an XML header and indentation.
func (v *Vast) Marshal() ([]byte, error) {
	body, err := xml.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), body...), nil
}

// MarshalCompact serializes the VAST document without indentation, the form
// used when re-serializing for injection.
func (v *Vast) MarshalCompact() ([]byte, error) {
	body, err := xml.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append([]byte(`<?xml version="1.0" encoding="UTF-8"?>`), body...), nil
}

// LinearCreative returns the first linear creative of an inline ad, or nil.
func (a *Ad) LinearCreative() *Linear {
	if a.InLine == nil || a.InLine.Creatives == nil {
		return nil
	}
	for i := range a.InLine.Creatives.Creative {
		if lin := a.InLine.Creatives.Creative[i].Linear; lin != nil {
			return lin
		}
	}
	return nil
}

// TrackingURLs returns the ordered URL list registered for event on the ad's
// first linear creative.
func (a *Ad) TrackingURLs(event string) []string {
	lin := a.LinearCreative()
	if lin == nil || lin.TrackingEvents == nil {
		return nil
	}
	var urls []string
	for _, tr := range lin.TrackingEvents.Tracking {
		if tr.Event == event {
			urls = append(urls, tr.Value)
		}
	}
	return urls
}

// ImpressionURLs returns the ad's impression beacon URLs.
func (a *Ad) ImpressionURLs() []string {
	if a.InLine == nil {
		return nil
	}
	urls := make([]string, 0, len(a.InLine.Impressions))
	for _, imp := range a.InLine.Impressions {
		urls = append(urls, imp.Value)
	}
	return urls
}

// ErrorURLs returns the ad-level error beacon URLs. Dispatchers substitute
// [ERRORCODE] before firing them.
func (a *Ad) ErrorURLs() []string {
	if a.InLine == nil {
		return nil
	}
	urls := make([]string, 0, len(a.InLine.Errors))
	for _, e := range a.InLine.Errors {
		urls = append(urls, e.Value)
	}
	return urls
}

// ClickThroughURL returns the landing page URL, or empty when the ad is not
// clickable.
func (a *Ad) ClickThroughURL() string {
	lin := a.LinearCreative()
	if lin == nil || lin.VideoClicks == nil || lin.VideoClicks.ClickThrough == nil {
		return ""
	}
	return lin.VideoClicks.ClickThrough.Value
}

// ClickTrackingURLs returns the beacon URLs fired alongside a click-through.
func (a *Ad) ClickTrackingURLs() []string {
	lin := a.LinearCreative()
	if lin == nil || lin.VideoClicks == nil {
		return nil
	}
	urls := make([]string, 0, len(lin.VideoClicks.ClickTracking))
	for _, ct := range lin.VideoClicks.ClickTracking {
		urls = append(urls, ct.Value)
	}
	return urls
}

// DurationSeconds parses the linear creative duration. Zero with an error
// when the ad has no linear creative or the duration is malformed.
func (a *Ad) DurationSeconds() (float64, error) {
	lin := a.LinearCreative()
	if lin == nil {
		return 0, fmt.Errorf("ad %q has no linear creative", a.ID)
	}
	return ParseDuration(lin.Duration)
}

// SkipOffsetSeconds resolves the linear skipoffset attribute against the ad
// duration. The second return is false when the ad is not skippable.
// Both HH:MM:SS and n% forms are accepted; a resolved offset is clamped to
// [0, duration).
func (a *Ad) SkipOffsetSeconds() (float64, bool, error) {
	lin := a.LinearCreative()
	if lin == nil || lin.SkipOffset == "" {
		return 0, false, nil
	}
	dur, err := ParseDuration(lin.Duration)
	if err != nil {
		return 0, false, err
	}
	off, err := ParseOffset(lin.SkipOffset, dur)
	if err != nil {
		return 0, false, err
	}
	if off < 0 {
		off = 0
	}
	if dur > 0 && off >= dur {
		off = dur
	}
	return off, true, nil
}

// BestMediaFile picks the playable rendition closest to targetBitrate,
// preferring progressive delivery on ties. Nil when the ad carries no media.
func (a *Ad) BestMediaFile(targetBitrate int) *MediaFile {
	lin := a.LinearCreative()
	if lin == nil || lin.MediaFiles == nil || len(lin.MediaFiles.MediaFile) == 0 {
		return nil
	}
	files := lin.MediaFiles.MediaFile
	best := &files[0]
	for i := 1; i < len(files); i++ {
		mf := &files[i]
		if bitrateDistance(mf.Bitrate, targetBitrate) < bitrateDistance(best.Bitrate, targetBitrate) {
			best = mf
		}
	}
	return best
}

func bitrateDistance(bitrate, target int) int {
	if target <= 0 {
		// no preference, keep declaration order
		return 0
	}
	d := bitrate - target
	if d < 0 {
		return -d
	}
	return d
}
