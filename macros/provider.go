package macros

import (
	"math/rand"
	"strconv"
	"time"
)

// Standard VAST macro keys substituted into beacon URLs.
// https://interactiveadvertisingbureau.github.io/vast/vast4macros/vast4-macros-latest.html
const (
	MacroKeyCacheBusting    = "CACHEBUSTING"
	MacroKeyTimestamp       = "TIMESTAMP"
	MacroKeyContentPlayhead = "CONTENTPLAYHEAD"
	MacroKeyAdPlayhead      = "ADPLAYHEAD"
	MacroKeyAssetURI        = "ASSETURI"
	MacroKeyErrorCode       = "ERRORCODE"
)

// CustomMacroPrefix namespaces publisher-configured macro keys.
const CustomMacroPrefix = "MM-MACRO-"

const customMacroValueLimit = 100

// Provider resolves macro keys to their current values. One provider lives
// per session; playback and error macros are repopulated as state changes.
type Provider struct {
	macros map[string]string
}

// NewProvider builds a provider seeded with the request timestamp and the
// publisher's custom macros, each value truncated defensively.
func NewProvider(custom map[string]string) *Provider {
	p := &Provider{macros: map[string]string{}}
	p.macros[MacroKeyTimestamp] = strconv.FormatInt(time.Now().Unix(), 10)
	for key, value := range custom {
		p.macros[CustomMacroPrefix+key] = truncate(value, customMacroValueLimit)
	}
	return p
}

// GetMacro returns the value for key, or empty when unknown. CACHEBUSTING is
// generated fresh on every lookup so that repeated beacons never collide in
// intermediary caches.
func (p *Provider) GetMacro(key string) string {
	if key == MacroKeyCacheBusting {
		return strconv.Itoa(10000000 + rand.Intn(90000000))
	}
	return p.macros[key]
}

// PopulatePlaybackMacros refreshes the position-dependent macros ahead of a
// tracking dispatch.
func (p *Provider) PopulatePlaybackMacros(contentPosition, adPosition float64, assetURI string) {
	p.macros[MacroKeyContentPlayhead] = formatPlayhead(contentPosition)
	p.macros[MacroKeyAdPlayhead] = formatPlayhead(adPosition)
	if assetURI != "" {
		p.macros[MacroKeyAssetURI] = assetURI
	}
	p.macros[MacroKeyTimestamp] = strconv.FormatInt(time.Now().Unix(), 10)
}

// PopulateErrorMacros sets the IAB VAST error code ahead of an error-event
// dispatch.
func (p *Provider) PopulateErrorMacros(vastCode int) {
	p.macros[MacroKeyErrorCode] = strconv.Itoa(vastCode)
}

func formatPlayhead(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	whole := int(seconds)
	millis := int((seconds - float64(whole)) * 1000)
	h := whole / 3600
	m := (whole % 3600) / 60
	s := whole % 60
	return pad2(h) + ":" + pad2(m) + ":" + pad2(s) + "." + pad3(millis)
}

func pad2(v int) string {
	if v < 10 {
		return "0" + strconv.Itoa(v)
	}
	return strconv.Itoa(v)
}

func pad3(v int) string {
	s := strconv.Itoa(v)
	for len(s) < 3 {
		s = "0" + s
	}
	return s
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit]
}
