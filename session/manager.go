package session

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gofrs/uuid"

	"github.com/barbarian/madman-android/config"
	"github.com/barbarian/madman-android/errortypes"
	"github.com/barbarian/madman-android/loader"
	"github.com/barbarian/madman-android/logger"
	"github.com/barbarian/madman-android/macros"
	"github.com/barbarian/madman-android/metrics"
	"github.com/barbarian/madman-android/scheduler"
	"github.com/barbarian/madman-android/tracking"
	"github.com/barbarian/madman-android/transport"
	"github.com/barbarian/madman-android/vast"
	"github.com/barbarian/madman-android/vmap"
)

const skipCountdownInterval = 250 * time.Millisecond

// Config wires a Manager's collaborators. Transport and Renderer are
// mandatory; everything else has a working default.
type Config struct {
	Transport transport.Transport
	Renderer  Renderer
	Listener  Listener
	Client    *config.Configuration
	Metrics   metrics.Engine
	Clock     clock.Clock
}

func (c *Config) validate() error {
	if c.Transport == nil {
		return &errortypes.SetupError{Message: "transport not set"}
	}
	if c.Renderer == nil {
		return &errortypes.SetupError{Message: "renderer not set"}
	}
	return nil
}

// Manager runs a single ad session. Progress callbacks from the player and
// async load completions are serialized through an internal mutex; one
// Manager never outlives its content playback.
type Manager struct {
	id         string
	cfg        *config.Configuration
	clock      clock.Clock
	renderer   Renderer
	listener   Listener
	metrics    metrics.Engine
	loader     *loader.Loader
	dispatcher *tracking.Dispatcher
	provider   *macros.Provider

	ctx    context.Context
	cancel context.CancelFunc

	mu              sync.Mutex
	state           State
	doc             *vmap.VMAP
	schedule        *scheduler.Schedule
	contentDuration float64
	contentPosition float64
	loadGen         int

	currentBreak  *vmap.AdBreak
	ads           []vast.Ad
	adIndex       int
	adDuration    float64
	adSkipOffset  float64
	adSkippable   bool
	skipEnabled   bool
	fired         map[tracking.Event]bool
	countdown     *clock.Ticker
	countdownStop chan struct{}

	// host callbacks queued while the lock is held, run after release
	pending []func()
}

// NewManager validates the wiring eagerly and returns an idle session.
func NewManager(c Config) (*Manager, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.Client == nil {
		c.Client = config.NewDefault()
	}
	if c.Listener == nil {
		c.Listener = NopListener{}
	}
	if c.Metrics == nil {
		c.Metrics = metrics.NewEngine(c.Client.Metrics.Enabled)
	}
	if c.Clock == nil {
		c.Clock = clock.New()
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, &errortypes.InternalError{Message: "session id generation failed: " + err.Error()}
	}

	provider := macros.NewProvider(c.Client.Macros.Custom)
	replacer := macros.NewReplacer(macros.UnknownMacroPolicy(c.Client.Macros.UnknownMacroPolicy))

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		id:         id.String(),
		cfg:        c.Client,
		clock:      c.Clock,
		renderer:   c.Renderer,
		listener:   c.Listener,
		metrics:    c.Metrics,
		loader:     loader.New(c.Transport, c.Client, c.Metrics),
		dispatcher: tracking.NewDispatcher(c.Transport, replacer, provider, c.Metrics,
			time.Duration(c.Client.TrackingTimeout)*time.Millisecond),
		provider:   provider,
		ctx:        ctx,
		cancel:     cancel,
		state:      StateIdle,
	}
	return m, nil
}

// ID returns the session correlation id.
func (m *Manager) ID() string {
	return m.id
}

// State returns the current lifecycle phase.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// queueHostCall defers a renderer/listener invocation until the lock is
// released. Host callbacks may re-enter the Manager freely. Lock held.
func (m *Manager) queueHostCall(call func()) {
	m.pending = append(m.pending, call)
}

// unlockAndFlush releases the lock, then runs the queued host callbacks in
// order. Callbacks observe fully settled session state; anything they queue
// by re-entering is flushed by that re-entrant call.
func (m *Manager) unlockAndFlush() {
	calls := m.pending
	m.pending = nil
	m.mu.Unlock()
	for _, call := range calls {
		call()
	}
}

// RequestAds fetches and prepares the ad document at url. It returns
// immediately; the outcome arrives through the Listener, after which the
// session is ready (or back to idle on failure). Only one request may run
// per session.
func (m *Manager) RequestAds(url string, kind loader.Kind) {
	m.requestAds(loader.Request{Kind: kind, URL: url})
}

// RequestAdsFromData prepares an ad document the host already fetched.
func (m *Manager) RequestAdsFromData(raw []byte, kind loader.Kind) {
	m.requestAds(loader.Request{Kind: kind, Raw: raw})
}

func (m *Manager) requestAds(req loader.Request) {
	m.mu.Lock()
	if m.state != StateIdle {
		m.mu.Unlock()
		m.listener.OnError(&errortypes.SetupError{Message: "ad request rejected: session is not idle"})
		return
	}
	m.state = StateLoading
	m.loadGen++
	gen := m.loadGen
	m.mu.Unlock()

	go func() {
		doc, err := m.loader.Load(m.ctx, req)
		m.onLoaded(gen, doc, err)
	}()
}

func (m *Manager) onLoaded(gen int, doc *loader.Document, err error) {
	m.mu.Lock()
	if m.state == StateDestroyed || gen != m.loadGen {
		m.mu.Unlock()
		return
	}
	if err != nil {
		m.state = StateIdle
		m.mu.Unlock()
		m.listener.OnError(err)
		return
	}

	if doc.VMAP != nil {
		m.doc = doc.VMAP
	} else {
		m.doc = prerollVMAP(doc.VAST)
	}

	schedule, err := scheduler.New(m.doc, m.contentDuration,
		scheduler.WithEndTolerance(float64(m.cfg.EndTolerance)/1000))
	if err != nil {
		m.state = StateIdle
		m.mu.Unlock()
		m.listener.OnError(&errortypes.InternalError{Message: "schedule build failed: " + err.Error()})
		return
	}
	m.schedule = schedule
	m.state = StateReady
	m.mu.Unlock()
	logger.Infof("session %s: ready, %d breaks scheduled", m.id, schedule.Pending())
}

// prerollVMAP adapts a bare VAST response to the schedule model: one
// pre-roll break carrying the whole document inline.
func prerollVMAP(doc *vast.Vast) *vmap.VMAP {
	return &vmap.VMAP{
		Version: "1.0",
		AdBreaks: []vmap.AdBreak{{
			TimeOffset: "start",
			BreakType:  "linear",
			BreakID:    "preroll",
			AdSource:   &vmap.AdSource{VASTAdData: &vmap.VASTAdData{VAST: doc}},
		}},
	}
}

// OnContentProgress feeds the content playback position (both in seconds)
// into the schedule. Safe at any cadence. Duration may start at zero and
// settle later; percentage and end-anchored breaks resolve when it does.
func (m *Manager) OnContentProgress(position, duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.contentPosition = position
	if duration > 0 && duration != m.contentDuration {
		m.contentDuration = duration
		if m.schedule != nil {
			m.schedule.SetDuration(duration)
		}
	}

	if m.state != StateReady && m.state != StateContent {
		return
	}
	if m.schedule == nil {
		return
	}
	if br := m.schedule.BreakDueAt(position); br != nil {
		m.startBreak(br)
	}
}

// startBreak kicks off async resolution of the break's ads. Lock held.
func (m *Manager) startBreak(br *vmap.AdBreak) {
	m.currentBreak = br
	m.state = StateLoading
	gen := m.loadGen
	go func() {
		ads, err := m.loader.ResolveBreak(m.ctx, br)
		m.onBreakResolved(gen, br, ads, err)
	}()
}

func (m *Manager) onBreakResolved(gen int, br *vmap.AdBreak, ads []vast.Ad, err error) {
	m.mu.Lock()
	if m.state == StateDestroyed || gen != m.loadGen || m.currentBreak != br {
		m.mu.Unlock()
		return
	}

	if err != nil || len(ads) == 0 {
		m.currentBreak = nil
		m.state = StateContent
		m.mu.Unlock()

		code := errortypes.VASTErrorNoAds
		if err != nil {
			code = errortypes.ReadVASTCode(err)
		} else {
			err = &errortypes.Warning{Message: "break " + br.Identifier() + " resolved to no ads", WarningCode: errortypes.EmptyAdBreakWarningCode}
		}
		if errortypes.IsWarning(err) {
			logger.Warnf("session %s: break %s: %v", m.id, br.Identifier(), err)
		} else {
			logger.Errorf("session %s: break %s failed to resolve: %v", m.id, br.Identifier(), err)
		}
		m.dispatcher.TrackError(m.ctx, br.TrackingURLs(string(tracking.EventError)), br.Identifier(), code)
		m.listener.OnError(err)
		return
	}

	m.ads = ads
	m.adIndex = 0
	m.state = StatePlayingAd
	m.metrics.RecordBreakStarted()
	m.dispatcher.Track(m.ctx, br.TrackingURLs(string(tracking.EventBreakStart)), tracking.EventBreakStart, br.Identifier())
	m.queueHostCall(func() { m.listener.OnAdBreakStart(br) })
	m.playCurrentAd()
	m.unlockAndFlush()
}

// playCurrentAd renders ads[adIndex] and fires its render-time beacons.
// Lock held.
func (m *Manager) playCurrentAd() {
	ad := &m.ads[m.adIndex]

	duration, err := ad.DurationSeconds()
	if err != nil {
		logger.Warnf("session %s: skipping unplayable ad %s: %v", m.id, ad.ID, err)
		m.failCurrentAd(errortypes.VASTErrorUndefined)
		return
	}
	media := ad.BestMediaFile(m.cfg.PreferredBitrate)
	if media == nil {
		logger.Warnf("session %s: ad %s has no media files", m.id, ad.ID)
		m.failCurrentAd(errortypes.VASTErrorUndefined)
		return
	}

	m.adDuration = duration
	m.adSkipOffset, m.adSkippable, _ = ad.SkipOffsetSeconds()
	m.skipEnabled = m.adSkippable && SkipEnabledAt(0, m.adSkipOffset)
	m.fired = map[tracking.Event]bool{}

	m.provider.PopulatePlaybackMacros(m.contentPosition, 0, media.Value)
	m.queueHostCall(func() { m.renderer.Render(ad, media) })

	m.trackOnce(tracking.EventImpression, ad.ImpressionURLs(), ad.ID)
	m.trackOnce(tracking.EventCreativeView, ad.TrackingURLs(string(tracking.EventCreativeView)), ad.ID)

	if m.adSkippable && !m.skipEnabled {
		m.startSkipCountdown(m.adSkipOffset)
	}
}

// startSkipCountdown arms the skip control once skipOffset seconds of wall
// clock have passed, for hosts that do not poll ad progress while the
// player is buffering. Lock held.
func (m *Manager) startSkipCountdown(skipOffset float64) {
	m.stopCountdown()
	started := m.clock.Now()
	ticker := m.clock.Ticker(skipCountdownInterval)
	stop := make(chan struct{})
	m.countdown = ticker
	m.countdownStop = stop
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-stop:
				return
			case now := <-ticker.C:
				if !SkipEnabledAt(now.Sub(started).Seconds(), skipOffset) {
					continue
				}
				m.mu.Lock()
				if m.countdown == ticker {
					m.skipEnabled = true
					m.stopCountdown()
				}
				m.mu.Unlock()
				return
			}
		}
	}()
}

// stopCountdown releases the countdown ticker and its goroutine. Lock held.
func (m *Manager) stopCountdown() {
	if m.countdown != nil {
		m.countdown.Stop()
		m.countdown = nil
	}
	if m.countdownStop != nil {
		close(m.countdownStop)
		m.countdownStop = nil
	}
}

// OnAdProgress feeds the ad playback position in seconds. Quartile beacons
// fire exactly once per ad play-through no matter how often or unevenly the
// host calls this.
func (m *Manager) OnAdProgress(position float64) {
	m.mu.Lock()
	defer m.unlockAndFlush()
	if m.state != StatePlayingAd {
		return
	}

	ad := &m.ads[m.adIndex]
	adDuration := m.adDuration
	m.provider.PopulatePlaybackMacros(m.contentPosition, position, "")
	m.queueHostCall(func() {
		m.renderer.UpdateProgress(position, adDuration)
		m.listener.OnAdProgress(ad, position, adDuration)
	})

	if m.adSkippable && !m.skipEnabled && SkipEnabledAt(position, m.adSkipOffset) {
		m.skipEnabled = true
		m.stopCountdown()
	}

	for i, event := range tracking.QuartileEvents() {
		if event == tracking.EventComplete {
			continue
		}
		threshold := float64(i) * 0.25 * m.adDuration
		if position >= threshold {
			m.trackOnce(event, ad.TrackingURLs(string(event)), ad.ID)
		}
	}

	if m.adDuration > 0 && position >= m.adDuration {
		m.completeCurrentAd()
	}
}

// OnAdComplete signals that the player finished the current ad's media.
func (m *Manager) OnAdComplete() {
	m.mu.Lock()
	defer m.unlockAndFlush()
	if m.state != StatePlayingAd {
		return
	}
	m.completeCurrentAd()
}

// OnAdClick reports a tap on the ad surface and returns the click-through
// URL the host should open, or empty. Click beacons are not one-shot; every
// click dispatches.
func (m *Manager) OnAdClick() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StatePlayingAd {
		return ""
	}
	ad := &m.ads[m.adIndex]
	m.dispatcher.Track(m.ctx, ad.ClickTrackingURLs(), tracking.EventClickTracking, ad.ID)
	return ad.ClickThroughURL()
}

// OnSkip reports the user pressing the skip control. Returns false when the
// ad is not skippable yet.
func (m *Manager) OnSkip() bool {
	m.mu.Lock()
	defer m.unlockAndFlush()
	if m.state != StatePlayingAd || !m.adSkippable || !m.skipEnabled {
		return false
	}
	ad := &m.ads[m.adIndex]
	m.trackOnce(tracking.EventSkip, ad.TrackingURLs(string(tracking.EventSkip)), ad.ID)
	m.advance()
	return true
}

// OnAdPlaybackError reports a media-level failure (stalled rendition,
// decoder error) with an IAB VAST code. The ad's error beacons fire and the
// break moves on.
func (m *Manager) OnAdPlaybackError(vastCode int) {
	m.mu.Lock()
	defer m.unlockAndFlush()
	if m.state != StatePlayingAd {
		return
	}
	m.failCurrentAd(vastCode)
}

// SkipEnabled reports whether the skip control is currently active.
func (m *Manager) SkipEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == StatePlayingAd && m.skipEnabled
}

// Destroy tears the session down: in-flight timers stop, no beacon
// dispatches after return, the renderer is released. Idempotent.
func (m *Manager) Destroy() {
	m.mu.Lock()
	if m.state == StateDestroyed {
		m.mu.Unlock()
		return
	}
	m.state = StateDestroyed
	m.stopCountdown()
	m.mu.Unlock()

	m.cancel()
	m.renderer.Destroy()
	logger.Infof("session %s: destroyed", m.id)
}

// trackOnce dispatches event for the current ad unless it already fired
// this play-through. Lock held.
func (m *Manager) trackOnce(event tracking.Event, urls []string, adID string) {
	if m.fired[event] {
		return
	}
	m.fired[event] = true
	m.dispatcher.Track(m.ctx, urls, event, adID)
}

// completeCurrentAd fires the complete beacon and moves on. Lock held.
func (m *Manager) completeCurrentAd() {
	ad := &m.ads[m.adIndex]
	m.trackOnce(tracking.EventComplete, ad.TrackingURLs(string(tracking.EventComplete)), ad.ID)
	m.advance()
}

// failCurrentAd fires the ad's error beacons and moves on. Lock held.
func (m *Manager) failCurrentAd(vastCode int) {
	ad := &m.ads[m.adIndex]
	m.dispatcher.TrackError(m.ctx, ad.ErrorURLs(), ad.ID, vastCode)
	m.advance()
}

// advance steps to the next ad in the pod, or ends the break. Lock held.
func (m *Manager) advance() {
	m.stopCountdown()
	m.skipEnabled = false
	m.adIndex++
	if m.adIndex < len(m.ads) {
		m.playCurrentAd()
		return
	}
	m.endBreak()
}

// endBreak returns control to content. Lock held.
func (m *Manager) endBreak() {
	br := m.currentBreak
	m.dispatcher.Track(m.ctx, br.TrackingURLs(string(tracking.EventBreakEnd)), tracking.EventBreakEnd, br.Identifier())
	m.metrics.RecordBreakCompleted()
	m.queueHostCall(func() { m.listener.OnAdBreakEnd(br) })
	m.currentBreak = nil
	m.ads = nil
	m.adIndex = 0
	m.state = StateContent
}
