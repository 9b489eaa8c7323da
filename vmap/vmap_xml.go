package vmap

import (
	"encoding/xml"
	"errors"
	"strings"

	"github.com/barbarian/madman-android/vast"
)

// ErrNotVMAP indicates the input does not appear to be a VMAP document.
var ErrNotVMAP = errors.New("input does not contain VMAP XML")

// ErrVMAPParseFailure indicates the VMAP XML could not be parsed.
var ErrVMAPParseFailure = errors.New("failed to parse VMAP XML")

// VMAP is the root of a VMAP 1.0 document: an ordered list of ad breaks
// positioned along the content timeline.
type VMAP struct {
	XMLName  xml.Name  `xml:"VMAP"`
	Version  string    `xml:"version,attr"`
	AdBreaks []AdBreak `xml:"AdBreak"`
}

// AdBreak is one scheduled break. A break with no AdSource is legal VMAP
// ("ad break with no ad") and schedules nothing.
type AdBreak struct {
	TimeOffset     string          `xml:"timeOffset,attr"`
	BreakType      string          `xml:"breakType,attr"`
	BreakID        string          `xml:"breakId,attr,omitempty"`
	RepeatAfter    string          `xml:"repeatAfter,attr,omitempty"`
	AdSource       *AdSource       `xml:"AdSource,omitempty"`
	TrackingEvents *TrackingEvents `xml:"TrackingEvents,omitempty"`
}

// AdSource supplies the break's ads, either inline (VASTAdData) or by
// reference (AdTagURI).
type AdSource struct {
	ID               string      `xml:"id,attr,omitempty"`
	AllowMultipleAds *bool       `xml:"allowMultipleAds,attr,omitempty"`
	FollowRedirects  *bool       `xml:"followRedirects,attr,omitempty"`
	AdTagURI         *AdTagURI   `xml:"AdTagURI,omitempty"`
	VASTAdData       *VASTAdData `xml:"VASTAdData,omitempty"`
}

type AdTagURI struct {
	TemplateType string `xml:"templateType,attr,omitempty"`
	Value        string `xml:",cdata"`
}

// VASTAdData embeds a complete VAST document inside the VMAP response.
type VASTAdData struct {
	VAST *vast.Vast `xml:"VAST"`
}

// TrackingEvents holds break-level events (breakStart, breakEnd, error).
type TrackingEvents struct {
	Tracking []Tracking `xml:"Tracking"`
}

type Tracking struct {
	Event string `xml:"event,attr"`
	Value string `xml:",cdata"`
}

// Unmarshal parses a raw VMAP response body. Strict about well-formedness,
// tolerant of unknown elements.
func Unmarshal(data []byte) (*VMAP, error) {
	if !strings.Contains(string(data), "VMAP") {
		return nil, ErrNotVMAP
	}

	var doc VMAP
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Join(ErrVMAPParseFailure, err)
	}

	return &doc, nil
}

// Repeatable reports whether the break re-arms after firing. VMAP expresses
// this through the repeatAfter attribute.
func (b *AdBreak) Repeatable() bool {
	return b.RepeatAfter != ""
}

// Empty reports whether the break carries no ad source at all.
func (b *AdBreak) Empty() bool {
	return b.AdSource == nil || (b.AdSource.AdTagURI == nil && b.AdSource.VASTAdData == nil)
}

// TrackingURLs returns the break-level beacon URLs for event.
func (b *AdBreak) TrackingURLs(event string) []string {
	if b.TrackingEvents == nil {
		return nil
	}
	var urls []string
	for _, tr := range b.TrackingEvents.Tracking {
		if tr.Event == event {
			urls = append(urls, tr.Value)
		}
	}
	return urls
}

// Identifier returns a stable human-readable handle for logs and validation
// messages: the breakId when present, else the time offset.
func (b *AdBreak) Identifier() string {
	if b.BreakID != "" {
		return b.BreakID
	}
	return b.TimeOffset
}
