// Package validator checks parsed VMAP/VAST documents against the
// structural rules of their specs. Validation is fail-fast: the first
// violation found is reported with a message identifying the offending
// element, and no repair is attempted.
package validator

import (
	"fmt"

	"github.com/asaskevich/govalidator"

	"github.com/barbarian/madman-android/vast"
	"github.com/barbarian/madman-android/vmap"
)

// ValidationResult is the terminal verdict for one document. Immutable once
// produced.
type ValidationResult struct {
	IsValid bool
	Message string
}

func valid() ValidationResult {
	return ValidationResult{IsValid: true}
}

func invalid(format string, args ...any) ValidationResult {
	return ValidationResult{IsValid: false, Message: fmt.Sprintf(format, args...)}
}

var breakTypes = map[string]bool{
	"linear":    true,
	"nonlinear": true,
	"display":   true,
}

// ValidateVMAP checks a parsed VMAP document. Every ad break needs a
// resolvable timeOffset and a recognised breakType; breaks without any ad
// source are explicitly allowed. Positional offsets ("#n") are rejected
// since the client cannot place them on a time axis.
func ValidateVMAP(doc *vmap.VMAP) ValidationResult {
	if doc == nil {
		return invalid("nil VMAP document")
	}
	if len(doc.AdBreaks) == 0 {
		return invalid("VMAP document declares no ad breaks")
	}

	for i := range doc.AdBreaks {
		br := &doc.AdBreaks[i]

		if br.TimeOffset == "" {
			return invalid("adbreak[%d] (%s): missing timeOffset", i, br.Identifier())
		}
		off, err := vmap.ParseTimeOffset(br.TimeOffset)
		if err != nil {
			return invalid("adbreak[%d] (%s): %v", i, br.Identifier(), err)
		}
		if off.Kind == vmap.OffsetPosition {
			return invalid("adbreak[%d] (%s): positional offset %q is not supported", i, br.Identifier(), br.TimeOffset)
		}
		if off.Kind == vmap.OffsetTime && off.Seconds < 0 {
			return invalid("adbreak[%d] (%s): negative timeOffset", i, br.Identifier())
		}

		if br.BreakType != "" && !breakTypes[br.BreakType] {
			return invalid("adbreak[%d] (%s): unknown breakType %q", i, br.Identifier(), br.BreakType)
		}

		if res := validateBreakTracking(i, br); !res.IsValid {
			return res
		}

		if br.AdSource != nil && br.AdSource.VASTAdData != nil {
			inner := br.AdSource.VASTAdData.VAST
			if inner == nil {
				return invalid("adbreak[%d] (%s): VASTAdData carries no VAST document", i, br.Identifier())
			}
			if res := ValidateVAST(inner); !res.IsValid {
				return invalid("adbreak[%d] (%s): %s", i, br.Identifier(), res.Message)
			}
		}
		if br.AdSource != nil && br.AdSource.AdTagURI != nil && !isURL(br.AdSource.AdTagURI.Value) {
			return invalid("adbreak[%d] (%s): malformed AdTagURI %q", i, br.Identifier(), br.AdSource.AdTagURI.Value)
		}
	}

	return valid()
}

// ValidateVAST checks a parsed VAST document. An empty document (zero ads)
// is valid on its own: it is the standard "no ad" decision, and the empty
// case is escalated by the loader only where an ad was mandatory.
func ValidateVAST(doc *vast.Vast) ValidationResult {
	if doc == nil {
		return invalid("nil VAST document")
	}

	for i := range doc.Ads {
		ad := &doc.Ads[i]

		if ad.InLine == nil && ad.Wrapper == nil {
			return invalid("ad[%d] (%s): neither InLine nor Wrapper", i, adIdentifier(ad, i))
		}
		if ad.InLine != nil && ad.Wrapper != nil {
			return invalid("ad[%d] (%s): both InLine and Wrapper present", i, adIdentifier(ad, i))
		}

		if ad.Wrapper != nil {
			if !isURL(ad.Wrapper.VASTAdTagURI.Value) {
				return invalid("ad[%d] (%s): malformed VASTAdTagURI %q", i, adIdentifier(ad, i), ad.Wrapper.VASTAdTagURI.Value)
			}
			if res := validateTrackingURLs(ad, i, wrapperTracking(ad)); !res.IsValid {
				return res
			}
			continue
		}

		lin := ad.LinearCreative()
		if lin == nil {
			return invalid("ad[%d] (%s): no linear creative", i, adIdentifier(ad, i))
		}

		dur, err := vast.ParseDuration(lin.Duration)
		if err != nil {
			return invalid("ad[%d] (%s): %v", i, adIdentifier(ad, i), err)
		}

		if lin.SkipOffset != "" {
			off, err := vast.ParseOffset(lin.SkipOffset, dur)
			if err != nil {
				return invalid("ad[%d] (%s): invalid skipoffset: %v", i, adIdentifier(ad, i), err)
			}
			if off < 0 || off >= dur {
				return invalid("ad[%d] (%s): skipoffset %q outside [0, duration)", i, adIdentifier(ad, i), lin.SkipOffset)
			}
		}

		if lin.MediaFiles == nil || len(lin.MediaFiles.MediaFile) == 0 {
			return invalid("ad[%d] (%s): no media files", i, adIdentifier(ad, i))
		}
		for j, mf := range lin.MediaFiles.MediaFile {
			if !isURL(mf.Value) {
				return invalid("ad[%d] (%s): mediafile[%d] has malformed URL %q", i, adIdentifier(ad, i), j, mf.Value)
			}
		}

		if res := validateTrackingURLs(ad, i, lin.TrackingEvents); !res.IsValid {
			return res
		}
		if lin.VideoClicks != nil && lin.VideoClicks.ClickThrough != nil &&
			!isURL(lin.VideoClicks.ClickThrough.Value) {
			return invalid("ad[%d] (%s): malformed ClickThrough URL", i, adIdentifier(ad, i))
		}
	}

	return valid()
}

func validateTrackingURLs(ad *vast.Ad, idx int, events *vast.TrackingEvents) ValidationResult {
	if events == nil {
		return valid()
	}
	for _, tr := range events.Tracking {
		if tr.Event == "" {
			return invalid("ad[%d] (%s): tracking entry without event name", idx, adIdentifier(ad, idx))
		}
		if !isURL(tr.Value) {
			return invalid("ad[%d] (%s): tracking event %q has malformed URL %q", idx, adIdentifier(ad, idx), tr.Event, tr.Value)
		}
	}
	return valid()
}

func validateBreakTracking(idx int, br *vmap.AdBreak) ValidationResult {
	if br.TrackingEvents == nil {
		return valid()
	}
	for _, tr := range br.TrackingEvents.Tracking {
		if !isURL(tr.Value) {
			return invalid("adbreak[%d] (%s): tracking event %q has malformed URL %q", idx, br.Identifier(), tr.Event, tr.Value)
		}
	}
	return valid()
}

func wrapperTracking(ad *vast.Ad) *vast.TrackingEvents {
	if ad.Wrapper == nil || ad.Wrapper.Creatives == nil {
		return nil
	}
	for i := range ad.Wrapper.Creatives.Creative {
		if lin := ad.Wrapper.Creatives.Creative[i].Linear; lin != nil {
			return lin.TrackingEvents
		}
	}
	return nil
}

func adIdentifier(ad *vast.Ad, idx int) string {
	if ad.ID != "" {
		return ad.ID
	}
	return fmt.Sprintf("#%d", idx)
}

// isURL is a lightweight well-formedness check, not network validation.
func isURL(raw string) bool {
	return govalidator.IsRequestURL(raw)
}
