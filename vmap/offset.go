package vmap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/barbarian/madman-android/vast"
)

// OffsetKind discriminates the forms a VMAP timeOffset attribute can take.
type OffsetKind int

const (
	OffsetTime OffsetKind = iota
	OffsetStart
	OffsetEnd
	OffsetPercent
	OffsetPosition
)

// TimeOffset is a parsed timeOffset attribute. Seconds is meaningful for
// OffsetTime, Percent for OffsetPercent, Position for OffsetPosition ("#n").
type TimeOffset struct {
	Kind     OffsetKind
	Seconds  float64
	Percent  float64
	Position int
}

// ParseTimeOffset parses "start", "end", "hh:mm:ss(.mmm)", "n%" and "#n".
func ParseTimeOffset(s string) (TimeOffset, error) {
	switch {
	case s == "start":
		return TimeOffset{Kind: OffsetStart}, nil
	case s == "end":
		return TimeOffset{Kind: OffsetEnd}, nil
	case strings.HasPrefix(s, "#"):
		pos, err := strconv.Atoi(s[1:])
		if err != nil || pos < 1 {
			return TimeOffset{}, fmt.Errorf("invalid position offset %q", s)
		}
		return TimeOffset{Kind: OffsetPosition, Position: pos}, nil
	case strings.HasSuffix(s, "%"):
		pct, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil || pct < 0 || pct > 100 {
			return TimeOffset{}, fmt.Errorf("invalid percentage offset %q", s)
		}
		return TimeOffset{Kind: OffsetPercent, Percent: pct}, nil
	default:
		secs, err := vast.ParseDuration(s)
		if err != nil {
			return TimeOffset{}, fmt.Errorf("invalid time offset %q", s)
		}
		return TimeOffset{Kind: OffsetTime, Seconds: secs}, nil
	}
}

// Resolve maps the offset onto the content timeline. The second return is
// false while the offset cannot be resolved yet, i.e. percentage and "end"
// offsets before the content duration is known. Position offsets ("#n")
// never resolve here; the validator rejects them upfront.
func (o TimeOffset) Resolve(duration float64) (float64, bool) {
	switch o.Kind {
	case OffsetStart:
		return 0, true
	case OffsetTime:
		return o.Seconds, true
	case OffsetEnd:
		if duration <= 0 {
			return 0, false
		}
		return duration, true
	case OffsetPercent:
		if duration <= 0 {
			return 0, false
		}
		return duration * o.Percent / 100.0, true
	default:
		return 0, false
	}
}
