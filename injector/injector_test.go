package injector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barbarian/madman-android/vast"
)

const inlineVAST = `<VAST version="3.0">
  <Ad id="a1">
    <InLine>
      <AdTitle>t</AdTitle>
      <Creatives>
        <Creative>
          <Linear>
            <Duration>00:00:10</Duration>
            <TrackingEvents>
              <Tracking event="start"><![CDATA[https://ads.example.com/start]]></Tracking>
            </TrackingEvents>
          </Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`

func TestBuildInjectsTrackers(t *testing.T) {
	inj := NewTrackerInjector(VASTEvents{
		Impressions: []string{"https://pub.example.com/imp"},
		Errors:      []string{"https://pub.example.com/err?code=[ERRORCODE]"},
		VideoClicks: []string{"https://pub.example.com/click"},
		LinearTrackingEvents: map[string][]string{
			"complete": {"https://pub.example.com/complete"},
		},
	})

	out := inj.Build(inlineVAST)

	doc, err := vast.Unmarshal([]byte(out))
	require.NoError(t, err)
	require.Len(t, doc.Ads, 1)

	ad := doc.Ads[0]
	assert.Contains(t, ad.ImpressionURLs(), "https://pub.example.com/imp")
	require.Len(t, ad.InLine.Errors, 1)
	assert.Equal(t, "https://pub.example.com/err?code=[ERRORCODE]", ad.InLine.Errors[0].Value)

	// existing trackers survive, injected ones are appended
	assert.Equal(t, []string{"https://ads.example.com/start"}, ad.TrackingURLs("start"))
	assert.Equal(t, []string{"https://pub.example.com/complete"}, ad.TrackingURLs("complete"))
	assert.Contains(t, ad.ClickTrackingURLs(), "https://pub.example.com/click")
}

func TestBuildLeavesWrapperAlone(t *testing.T) {
	wrapper := `<VAST version="3.0"><Ad id="w1"><Wrapper><VASTAdTagURI><![CDATA[https://ads.example.com/next.xml]]></VASTAdTagURI></Wrapper></Ad></VAST>`

	inj := NewTrackerInjector(VASTEvents{Impressions: []string{"https://pub.example.com/imp"}})
	out := inj.Build(wrapper)

	doc, err := vast.Unmarshal([]byte(out))
	require.NoError(t, err)
	require.NotNil(t, doc.Ads[0].Wrapper)
	assert.Empty(t, doc.Ads[0].Wrapper.Impressions)
}

func TestBuildNoEventsNoChange(t *testing.T) {
	inj := NewTrackerInjector(VASTEvents{})
	assert.Equal(t, inlineVAST, inj.Build(inlineVAST))
}

func TestBuildUnparseableInputUnchanged(t *testing.T) {
	inj := NewTrackerInjector(VASTEvents{Impressions: []string{"https://pub.example.com/imp"}})
	broken := `<VAST><Ad>`
	assert.Equal(t, broken, inj.Build(broken))
}
