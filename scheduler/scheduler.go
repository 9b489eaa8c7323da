// Package scheduler positions validated ad breaks on the content timeline
// and answers "what break is due now" as playback advances. Duration can
// arrive late (live streams): percentage and end-anchored breaks stay
// unresolved, and therefore unqueryable, until it does.
package scheduler

import (
	"fmt"
	"sort"

	"github.com/barbarian/madman-android/logger"
	"github.com/barbarian/madman-android/vmap"
)

type scheduledBreak struct {
	adBreak  *vmap.AdBreak
	offset   vmap.TimeOffset
	index    int // declaration order, breaks position ties
	position float64
	resolved bool
	fired    bool
	// dropped marks a duplicate-position loser. Recomputed on every
	// resolve, so a duration update that separates the positions revives
	// the break; fired never is.
	dropped bool
}

// Schedule owns all playback-time break state. Parsed VMAP data is never
// mutated; firing state lives here only.
type Schedule struct {
	duration     float64
	endTolerance float64
	breaks       []*scheduledBreak
	lastPosition float64
}

type Option func(*Schedule)

// WithEndTolerance widens the window in which a position counts as "end",
// absorbing float jitter in player progress callbacks.
func WithEndTolerance(seconds float64) Option {
	return func(s *Schedule) {
		s.endTolerance = seconds
	}
}

// New builds a schedule from a validated VMAP document. Duration may be zero
// when unknown (live); call SetDuration once it is.
func New(doc *vmap.VMAP, duration float64, opts ...Option) (*Schedule, error) {
	s := &Schedule{
		duration:     duration,
		endTolerance: 0.25,
	}
	for _, opt := range opts {
		opt(s)
	}

	for i := range doc.AdBreaks {
		br := &doc.AdBreaks[i]
		offset, err := vmap.ParseTimeOffset(br.TimeOffset)
		if err != nil {
			// validation runs before scheduling, so this is a programmer error
			return nil, fmt.Errorf("break %s: %w", br.Identifier(), err)
		}
		s.breaks = append(s.breaks, &scheduledBreak{
			adBreak: br,
			offset:  offset,
			index:   i,
		})
	}

	s.resolve()
	return s, nil
}

// SetDuration installs or updates the content duration, resolving any
// pending percentage/end offsets. Already-fired breaks never re-fire from a
// duration change.
func (s *Schedule) SetDuration(duration float64) {
	if duration <= 0 || duration == s.duration {
		return
	}
	s.duration = duration
	s.resolve()
}

// resolve recomputes positions for every break and re-ranks duplicates:
// breaks are unique by resolved position, ties broken by declaration order,
// later duplicates dropped from contention until a duration update
// separates them again.
func (s *Schedule) resolve() {
	for _, sb := range s.breaks {
		sb.dropped = false
		pos, ok := sb.offset.Resolve(s.duration)
		if !ok {
			sb.resolved = false
			continue
		}
		if s.duration > 0 && pos > s.duration {
			pos = s.duration
		}
		sb.position = pos
		sb.resolved = true
	}

	ordered := make([]*scheduledBreak, len(s.breaks))
	copy(ordered, s.breaks)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].position != ordered[j].position {
			return ordered[i].position < ordered[j].position
		}
		return ordered[i].index < ordered[j].index
	})

	seen := map[float64]bool{}
	for _, sb := range ordered {
		if !sb.resolved {
			continue
		}
		if seen[sb.position] {
			logger.Debugf("scheduler: dropping duplicate break %s at %.3fs", sb.adBreak.Identifier(), sb.position)
			sb.dropped = true
			continue
		}
		seen[sb.position] = true
	}
}

// BreakDueAt returns the next break due at the given playback position, or
// nil. A returned break is consumed atomically: it will not be returned
// again this session unless it is repeatable. Queries are safe at arbitrary
// cadence. Seeking backward re-arms repeatable breaks only.
func (s *Schedule) BreakDueAt(position float64) *vmap.AdBreak {
	if position < s.lastPosition {
		// backward seek
		for _, sb := range s.breaks {
			if sb.fired && sb.adBreak.Repeatable() && sb.resolved && sb.position > position {
				sb.fired = false
			}
		}
	}
	s.lastPosition = position

	var due *scheduledBreak
	for _, sb := range s.breaks {
		if sb.fired || sb.dropped || !sb.resolved {
			continue
		}
		if !s.dueAt(sb, position) {
			continue
		}
		if due == nil || sb.position < due.position ||
			(sb.position == due.position && sb.index < due.index) {
			due = sb
		}
	}

	if due == nil {
		return nil
	}
	due.fired = true
	return due.adBreak
}

func (s *Schedule) dueAt(sb *scheduledBreak, position float64) bool {
	if sb.offset.Kind == vmap.OffsetEnd {
		return position >= s.duration-s.endTolerance
	}
	return position >= sb.position
}

// Pending counts breaks that are resolved, in contention and still unfired.
func (s *Schedule) Pending() int {
	n := 0
	for _, sb := range s.breaks {
		if sb.resolved && !sb.fired && !sb.dropped {
			n++
		}
	}
	return n
}

// Unresolved counts breaks whose offsets await a known content duration.
func (s *Schedule) Unresolved() int {
	n := 0
	for _, sb := range s.breaks {
		if !sb.resolved {
			n++
		}
	}
	return n
}
