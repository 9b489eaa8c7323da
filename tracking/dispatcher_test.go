package tracking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/barbarian/madman-android/macros"
	"github.com/barbarian/madman-android/metrics"
)

type fakeTransport struct {
	mu     sync.Mutex
	posts  []string
	failAt map[string]bool
}

func (f *fakeTransport) Fetch(ctx context.Context, url string) ([]byte, error) {
	return nil, errors.New("not used")
}

func (f *fakeTransport) Post(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAt[url] {
		return errors.New("boom")
	}
	f.posts = append(f.posts, url)
	return nil
}

func (f *fakeTransport) posted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.posts...)
}

func newDispatcher(tr *fakeTransport) *Dispatcher {
	provider := macros.NewProvider(nil)
	return NewDispatcher(tr, macros.NewReplacer(macros.UnknownMacroKeep), provider, metrics.NewBlankMetrics(), 0)
}

type deadlineCapturingTransport struct {
	fakeTransport
	mu        sync.Mutex
	deadlines []bool
}

func (f *deadlineCapturingTransport) Post(ctx context.Context, url string) error {
	f.mu.Lock()
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
	f.mu.Unlock()
	return f.fakeTransport.Post(ctx, url)
}

func TestTrackAppliesBeaconTimeout(t *testing.T) {
	tr := &deadlineCapturingTransport{}
	provider := macros.NewProvider(nil)
	d := NewDispatcher(tr, macros.NewReplacer(macros.UnknownMacroKeep), provider, metrics.NewBlankMetrics(), 100*time.Millisecond)

	d.Track(context.Background(), []string{"https://t.example.com/b"}, EventStart, "ad1")
	d.Wait()

	tr.mu.Lock()
	defer tr.mu.Unlock()
	assert.Equal(t, []bool{true}, tr.deadlines)
}

func TestTrackFiresEachURL(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(tr)

	d.Track(context.Background(), []string{
		"https://t.example.com/start1",
		"https://t.example.com/start2",
	}, EventStart, "ad1")
	d.Wait()

	assert.ElementsMatch(t, []string{
		"https://t.example.com/start1",
		"https://t.example.com/start2",
	}, tr.posted())
}

func TestTrackHasNoDedup(t *testing.T) {
	// dedup is the session's contract, the dispatcher posts every call
	tr := &fakeTransport{}
	d := newDispatcher(tr)

	urls := []string{"https://t.example.com/q1"}
	d.Track(context.Background(), urls, EventFirstQuartile, "ad1")
	d.Track(context.Background(), urls, EventFirstQuartile, "ad1")
	d.Wait()

	assert.Len(t, tr.posted(), 2)
}

func TestTrackSwallowsFailures(t *testing.T) {
	tr := &fakeTransport{failAt: map[string]bool{"https://t.example.com/bad": true}}
	d := newDispatcher(tr)

	d.Track(context.Background(), []string{
		"https://t.example.com/bad",
		"https://t.example.com/good",
	}, EventComplete, "ad1")
	d.Wait()

	assert.Equal(t, []string{"https://t.example.com/good"}, tr.posted())
}

func TestTrackAfterCancelDispatchesNothing(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Track(ctx, []string{"https://t.example.com/start"}, EventStart, "ad1")
	d.Wait()

	assert.Empty(t, tr.posted())
}

func TestTrackErrorBindsErrorCode(t *testing.T) {
	tr := &fakeTransport{}
	d := newDispatcher(tr)

	d.TrackError(context.Background(), []string{"https://t.example.com/err?code=[ERRORCODE]"}, "ad1", 302)
	d.Wait()

	assert.Equal(t, []string{"https://t.example.com/err?code=302"}, tr.posted())
}

func TestOneShot(t *testing.T) {
	assert.True(t, EventStart.OneShot())
	assert.True(t, EventComplete.OneShot())
	assert.True(t, EventSkip.OneShot())
	assert.False(t, EventPause.OneShot())
	assert.False(t, EventClick.OneShot())
}
