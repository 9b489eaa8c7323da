// Package loader orchestrates ad document loading: fetch, parse, validate,
// and wrapper-chain resolution. Every failure surfaces as a typed
// errortypes error carrying the request-kind-appropriate code; nothing is
// thrown past this boundary.
package loader

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"

	"github.com/barbarian/madman-android/config"
	"github.com/barbarian/madman-android/errortypes"
	"github.com/barbarian/madman-android/injector"
	"github.com/barbarian/madman-android/logger"
	"github.com/barbarian/madman-android/metrics"
	"github.com/barbarian/madman-android/transport"
	"github.com/barbarian/madman-android/validator"
	"github.com/barbarian/madman-android/vast"
	"github.com/barbarian/madman-android/vmap"
)

// Kind is the document kind a request expects. It threads through the whole
// pipeline so that one parser serves both document kinds while failures
// classify to distinguishable error codes.
type Kind string

const (
	KindVMAP Kind = "vmap"
	KindVAST Kind = "vast"
)

// Request describes one ad document load. Raw short-circuits the fetch when
// the host already holds the response body.
type Request struct {
	Kind Kind
	URL  string
	Raw  []byte
}

// Document is the successful outcome of a load. Exactly one of VMAP/VAST is
// set, matching the request kind.
type Document struct {
	RequestID string
	Kind      Kind
	VMAP      *vmap.VMAP
	VAST      *vast.Vast
}

type Loader struct {
	transport transport.Transport
	cfg       *config.Configuration
	metrics   metrics.Engine
	injector  injector.Injector
}

func New(tr transport.Transport, cfg *config.Configuration, me metrics.Engine) *Loader {
	l := &Loader{
		transport: tr,
		cfg:       cfg,
		metrics:   me,
	}
	if cfg.Injection.Enabled {
		l.injector = injector.NewTrackerInjector(injector.VASTEvents{
			Errors:               cfg.Injection.ErrorURLs,
			Impressions:          cfg.Injection.ImpressionURLs,
			VideoClicks:          cfg.Injection.ClickURLs,
			LinearTrackingEvents: cfg.Injection.TrackingEvents,
		})
	}
	return l
}

// Load runs the fetch → parse → validate pipeline for one request and
// produces exactly one outcome: a validated document or a typed error.
func (l *Loader) Load(ctx context.Context, req Request) (*Document, error) {
	start := time.Now()
	kind := metrics.RequestKind(req.Kind)
	l.metrics.RecordRequest(kind)

	requestID := newRequestID()
	logger.Debugf("loader: request %s kind=%s url=%s", requestID, req.Kind, req.URL)

	doc, err := l.load(ctx, req, requestID)
	if err != nil {
		l.metrics.RecordFailure(kind, errortypes.ReadCode(err))
		logger.Warnf("loader: request %s failed: %v", requestID, err)
		return nil, err
	}

	l.metrics.RecordRequestTime(kind, time.Since(start))
	return doc, nil
}

func (l *Loader) load(ctx context.Context, req Request, requestID string) (*Document, error) {
	raw := req.Raw
	if raw == nil {
		body, err := l.transport.Fetch(ctx, req.URL)
		if err != nil {
			return nil, &errortypes.TransportError{Message: err.Error()}
		}
		raw = body
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, &errortypes.InternalError{Message: "unidentified"}
	}

	switch req.Kind {
	case KindVMAP:
		doc, err := vmap.Unmarshal(raw)
		if err != nil {
			return nil, &errortypes.VMAPParsingError{Message: err.Error()}
		}
		if doc == nil {
			return nil, &errortypes.InternalError{Message: "unidentified"}
		}
		if res := validator.ValidateVMAP(doc); !res.IsValid {
			return nil, &errortypes.VMAPValidationError{Message: res.Message}
		}
		return &Document{RequestID: requestID, Kind: req.Kind, VMAP: doc}, nil

	case KindVAST:
		if l.injector != nil {
			raw = []byte(l.injector.Build(string(raw)))
		}
		doc, err := vast.Unmarshal(raw)
		if err != nil {
			return nil, &errortypes.VASTParsingError{Message: err.Error()}
		}
		if doc == nil {
			return nil, &errortypes.InternalError{Message: "unidentified"}
		}
		if res := validator.ValidateVAST(doc); !res.IsValid {
			return nil, &errortypes.VASTValidationError{Message: res.Message}
		}
		return &Document{RequestID: requestID, Kind: req.Kind, VAST: doc}, nil

	default:
		return nil, &errortypes.InternalError{Message: fmt.Sprintf("unknown request kind %q", req.Kind)}
	}
}

// ResolveBreak turns one validated ad break into its playable inline ads,
// following wrapper redirects up to the configured ceiling. A failure here
// aborts this break only; sibling breaks stay schedulable. An empty break
// resolves to zero ads without error.
func (l *Loader) ResolveBreak(ctx context.Context, br *vmap.AdBreak) ([]vast.Ad, error) {
	if br.Empty() {
		logger.Debugf("loader: break %s carries no ad source", br.Identifier())
		return nil, nil
	}

	src := br.AdSource
	if src.VASTAdData != nil && src.VASTAdData.VAST != nil {
		return l.resolveAds(ctx, src.VASTAdData.VAST, 0)
	}

	doc, err := l.Load(ctx, Request{Kind: KindVAST, URL: src.AdTagURI.Value})
	if err != nil {
		return nil, err
	}
	return l.resolveAds(ctx, doc.VAST, 0)
}

// resolveAds flattens a VAST document at the given wrapper depth: inline ads
// are taken as-is, wrapper ads are fetched and recursed into, with the
// wrapper's own impressions, errors and trackers folded into whatever inline
// ads the chain produces.
func (l *Loader) resolveAds(ctx context.Context, doc *vast.Vast, depth int) ([]vast.Ad, error) {
	var resolved []vast.Ad

	for i := range doc.Ads {
		ad := doc.Ads[i]

		if ad.InLine != nil {
			resolved = append(resolved, ad)
			continue
		}

		if ad.Wrapper == nil {
			continue
		}

		if depth+1 > l.cfg.MaxWrapperDepth {
			return nil, &errortypes.WrapperDepthExceeded{
				Message: fmt.Sprintf("wrapper chain for ad %q exceeds %d redirects", ad.ID, l.cfg.MaxWrapperDepth),
			}
		}

		next, err := l.Load(ctx, Request{Kind: KindVAST, URL: ad.Wrapper.VASTAdTagURI.Value})
		if err != nil {
			return nil, err
		}

		chained, err := l.resolveAds(ctx, next.VAST, depth+1)
		if err != nil {
			return nil, err
		}

		for j := range chained {
			mergeWrapper(ad.Wrapper, &chained[j])
		}
		resolved = append(resolved, chained...)
	}

	l.metrics.RecordWrapperDepth(depth)
	return resolved, nil
}

// mergeWrapper folds a wrapper's trackers into a resolved inline ad, so that
// beacons registered at any hop of the chain fire for the creative that
// finally plays.
func mergeWrapper(w *vast.Wrapper, ad *vast.Ad) {
	if ad.InLine == nil {
		return
	}

	ad.InLine.Impressions = append(ad.InLine.Impressions, w.Impressions...)
	ad.InLine.Errors = append(ad.InLine.Errors, w.Errors...)

	events := wrapperTrackingEvents(w)
	if events == nil {
		return
	}
	lin := ad.LinearCreative()
	if lin == nil {
		return
	}
	if lin.TrackingEvents == nil {
		lin.TrackingEvents = &vast.TrackingEvents{}
	}
	lin.TrackingEvents.Tracking = append(lin.TrackingEvents.Tracking, events.Tracking...)
}

func wrapperTrackingEvents(w *vast.Wrapper) *vast.TrackingEvents {
	if w.Creatives == nil {
		return nil
	}
	for i := range w.Creatives.Creative {
		if lin := w.Creatives.Creative[i].Linear; lin != nil && lin.TrackingEvents != nil {
			return lin.TrackingEvents
		}
	}
	return nil
}

func newRequestID() string {
	id, err := uuid.NewV4()
	if err != nil {
		return "unknown"
	}
	return id.String()
}
