package vast

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNotVAST indicates the input does not appear to be a VAST document at all.
var ErrNotVAST = errors.New("input does not contain VAST XML")

// ErrVASTParseFailure indicates the VAST XML could not be parsed.
var ErrVASTParseFailure = errors.New("failed to parse VAST XML")

// Unmarshal parses a raw VAST response body. Parsing is strict about XML
// well-formedness and tolerant of unknown elements. It is synchronous and
// side-effect free; classification of the failure (VMAP- vs VAST-typed
// request) is the loader's concern.
func Unmarshal(data []byte) (*Vast, error) {
	if !strings.Contains(string(data), "<VAST") {
		return nil, ErrNotVAST
	}

	var vast Vast
	if err := xml.Unmarshal(data, &vast); err != nil {
		return nil, errors.Join(ErrVASTParseFailure, err)
	}

	return &vast, nil
}

// ParseDuration parses a VAST duration string (HH:MM:SS or HH:MM:SS.mmm)
// into seconds.
func ParseDuration(duration string) (float64, error) {
	if duration == "" {
		return 0, fmt.Errorf("empty duration")
	}

	fraction := 0.0
	if idx := strings.Index(duration, "."); idx != -1 {
		digits := duration[idx+1:]
		n, err := strconv.Atoi(digits)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid duration %q", duration)
		}
		// scale by digit count: ".5" is half a second, ".500" the same
		scale := 1.0
		for range digits {
			scale *= 10
		}
		fraction = float64(n) / scale
		duration = duration[:idx]
	}

	parts := strings.Split(duration, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid duration %q", duration)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("invalid duration %q", duration)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid duration %q", duration)
	}
	seconds, err := strconv.Atoi(parts[2])
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("invalid duration %q", duration)
	}

	return float64(hours*3600+minutes*60+seconds) + fraction, nil
}

// ParseOffset parses an offset that may be a duration (HH:MM:SS[.mmm]) or a
// percentage ("n%") of the given total duration.
func ParseOffset(offset string, total float64) (float64, error) {
	if strings.HasSuffix(offset, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(offset, "%"), 64)
		if err != nil || pct < 0 || pct > 100 {
			return 0, fmt.Errorf("invalid percentage offset %q", offset)
		}
		return total * pct / 100.0, nil
	}
	return ParseDuration(offset)
}

// SecToHHMMSS formats whole seconds as HH:MM:SS. Negative input formats as
// zero.
func SecToHHMMSS(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, (seconds%3600)/60, seconds%60)
}

// BuildNoAdVast returns a serialized empty VAST document of the given
// version, the response shape ad servers use for "no ad" decisions.
func BuildNoAdVast(version string) []byte {
	if version == "" {
		version = "3.0"
	}
	v := &Vast{Version: version}
	out, err := v.Marshal()
	if err != nil {
		// marshal of a literal cannot fail
		return []byte(xml.Header + `<VAST version="` + version + `"/>`)
	}
	return out
}

// BuildSkeletonInlineVast returns a minimal single-ad inline VAST document,
// useful as a fixture and as a fallback shell.
func BuildSkeletonInlineVast(version string) *Vast {
	if version == "" {
		version = "3.0"
	}
	return &Vast{
		Version: version,
		Ads: []Ad{
			{
				ID:       "1",
				Sequence: 1,
				InLine: &InLine{
					AdSystem: &AdSystem{Value: "madman"},
					AdTitle:  "Ad",
					Creatives: &Creatives{
						Creative: []Creative{
							{
								ID:       "1",
								Sequence: 1,
								Linear:   &Linear{Duration: "00:00:00"},
							},
						},
					},
				},
			},
		},
	}
}
