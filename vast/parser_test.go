package vast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration string
		expected float64
		wantErr  bool
	}{
		{"zero", "00:00:00", 0, false},
		{"30 seconds", "00:00:30", 30, false},
		{"with millis", "00:00:30.500", 30.5, false},
		{"short fraction", "00:00:30.5", 30.5, false},
		{"long fraction", "00:00:30.5000", 30.5, false},
		{"small fraction", "00:00:30.025", 30.025, false},
		{"dot without digits", "00:00:30.", 0, true},
		{"1 minute 30", "00:01:30", 90, false},
		{"1 hour", "01:00:00", 3600, false},
		{"empty", "", 0, true},
		{"two fields", "00:30", 0, true},
		{"garbage", "abc", 0, true},
		{"minutes out of range", "00:61:00", 0, true},
		{"seconds out of range", "00:00:75", 0, true},
		{"negative", "-1:00:00", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDuration(tt.duration)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 0.0001)
		})
	}
}

func TestParseOffset(t *testing.T) {
	tests := []struct {
		name     string
		offset   string
		total    float64
		expected float64
		wantErr  bool
	}{
		{"time form", "00:00:05", 30, 5, false},
		{"percent", "50%", 30, 15, false},
		{"zero percent", "0%", 30, 0, false},
		{"over hundred", "150%", 30, 0, true},
		{"bad percent", "abc%", 30, 0, true},
		{"bad time", "5s", 30, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseOffset(tt.offset, tt.total)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 0.0001)
		})
	}
}

func TestSecToHHMMSS(t *testing.T) {
	assert.Equal(t, "00:00:00", SecToHHMMSS(0))
	assert.Equal(t, "00:00:00", SecToHHMMSS(-5))
	assert.Equal(t, "00:00:30", SecToHHMMSS(30))
	assert.Equal(t, "01:30:45", SecToHHMMSS(5445))
}

func TestUnmarshal_Inline(t *testing.T) {
	data := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<VAST version="3.0">
  <Ad id="test-ad" sequence="1">
    <InLine>
      <AdSystem version="2.0">TestAdServer</AdSystem>
      <AdTitle>Sample Ad</AdTitle>
      <Impression id="imp1"><![CDATA[https://example.com/imp]]></Impression>
      <Creatives>
        <Creative id="c1" sequence="1">
          <Linear skipoffset="00:00:05">
            <Duration>00:00:15</Duration>
            <TrackingEvents>
              <Tracking event="start"><![CDATA[https://example.com/start]]></Tracking>
              <Tracking event="firstQuartile"><![CDATA[https://example.com/q1]]></Tracking>
            </TrackingEvents>
            <VideoClicks>
              <ClickThrough><![CDATA[https://example.com/landing]]></ClickThrough>
              <ClickTracking><![CDATA[https://example.com/click]]></ClickTracking>
            </VideoClicks>
            <MediaFiles>
              <MediaFile delivery="progressive" type="video/mp4" width="1280" height="720" bitrate="2000"><![CDATA[https://example.com/ad.mp4]]></MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`)

	doc, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, doc.Ads, 1)

	ad := doc.Ads[0]
	assert.Equal(t, "test-ad", ad.ID)
	require.NotNil(t, ad.InLine)
	assert.Equal(t, "Sample Ad", ad.InLine.AdTitle)
	assert.Equal(t, []string{"https://example.com/imp"}, ad.ImpressionURLs())

	dur, err := ad.DurationSeconds()
	require.NoError(t, err)
	assert.Equal(t, 15.0, dur)

	off, skippable, err := ad.SkipOffsetSeconds()
	require.NoError(t, err)
	assert.True(t, skippable)
	assert.Equal(t, 5.0, off)

	assert.Equal(t, []string{"https://example.com/start"}, ad.TrackingURLs("start"))
	assert.Equal(t, []string{"https://example.com/q1"}, ad.TrackingURLs("firstQuartile"))
	assert.Empty(t, ad.TrackingURLs("complete"))

	assert.Equal(t, "https://example.com/landing", ad.ClickThroughURL())
	assert.Equal(t, []string{"https://example.com/click"}, ad.ClickTrackingURLs())

	mf := ad.BestMediaFile(0)
	require.NotNil(t, mf)
	assert.Equal(t, "https://example.com/ad.mp4", mf.Value)
}

func TestUnmarshal_Wrapper(t *testing.T) {
	data := []byte(`<VAST version="3.0">
  <Ad id="wrapper-ad">
    <Wrapper>
      <AdSystem>Wrapper System</AdSystem>
      <VASTAdTagURI><![CDATA[https://example.com/vast.xml]]></VASTAdTagURI>
      <Impression><![CDATA[https://example.com/track]]></Impression>
    </Wrapper>
  </Ad>
</VAST>`)

	doc, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, doc.Ads, 1)

	ad := doc.Ads[0]
	assert.Nil(t, ad.InLine)
	require.NotNil(t, ad.Wrapper)
	assert.Equal(t, "https://example.com/vast.xml", ad.Wrapper.VASTAdTagURI.Value)
	assert.Equal(t, "Wrapper System", ad.Wrapper.AdSystem.Value)
}

func TestUnmarshal_Malformed(t *testing.T) {
	_, err := Unmarshal([]byte(`<VAST version="3.0"><Ad><InLine></Ad></VAST>`))
	assert.ErrorIs(t, err, ErrVASTParseFailure)
}

func TestUnmarshal_NotVAST(t *testing.T) {
	_, err := Unmarshal([]byte(`<html>not an ad</html>`))
	assert.ErrorIs(t, err, ErrNotVAST)
}

func TestUnmarshal_IgnoresUnknownElements(t *testing.T) {
	data := []byte(`<VAST version="4.2">
  <SomeFutureElement foo="bar"/>
  <Ad id="a1">
    <InLine>
      <AdTitle>Forward Compatible</AdTitle>
      <NewShinyThing>ignored</NewShinyThing>
      <Creatives><Creative><Linear><Duration>00:00:10</Duration></Linear></Creative></Creatives>
    </InLine>
  </Ad>
</VAST>`)

	doc, err := Unmarshal(data)
	require.NoError(t, err)
	require.Len(t, doc.Ads, 1)
	assert.Equal(t, "Forward Compatible", doc.Ads[0].InLine.AdTitle)
}

func TestSkipOffsetPercent(t *testing.T) {
	data := []byte(`<VAST version="3.0"><Ad id="a1"><InLine><AdTitle>t</AdTitle>
<Creatives><Creative><Linear skipoffset="20%"><Duration>00:00:30</Duration></Linear></Creative></Creatives>
</InLine></Ad></VAST>`)

	doc, err := Unmarshal(data)
	require.NoError(t, err)
	off, skippable, err := doc.Ads[0].SkipOffsetSeconds()
	require.NoError(t, err)
	assert.True(t, skippable)
	assert.Equal(t, 6.0, off)
}

func TestBestMediaFile(t *testing.T) {
	lin := &Linear{
		Duration: "00:00:10",
		MediaFiles: &MediaFiles{MediaFile: []MediaFile{
			{Bitrate: 500, Value: "low"},
			{Bitrate: 2000, Value: "mid"},
			{Bitrate: 6000, Value: "high"},
		}},
	}
	ad := Ad{InLine: &InLine{Creatives: &Creatives{Creative: []Creative{{Linear: lin}}}}}

	assert.Equal(t, "mid", ad.BestMediaFile(1800).Value)
	assert.Equal(t, "high", ad.BestMediaFile(10000).Value)
	// no preference keeps declaration order
	assert.Equal(t, "low", ad.BestMediaFile(0).Value)
}

func TestBuildNoAdVast(t *testing.T) {
	out := BuildNoAdVast("")
	assert.True(t, strings.HasPrefix(string(out), "<?xml"))
	assert.Contains(t, string(out), `version="3.0"`)

	doc, err := Unmarshal(out)
	require.NoError(t, err)
	assert.Empty(t, doc.Ads)
}

func TestMarshalRoundTrip(t *testing.T) {
	original := BuildSkeletonInlineVast("4.0")
	out, err := original.Marshal()
	require.NoError(t, err)

	parsed, err := Unmarshal(out)
	require.NoError(t, err)
	assert.Equal(t, original.Version, parsed.Version)
	require.Len(t, parsed.Ads, 1)
	assert.Equal(t, original.Ads[0].ID, parsed.Ads[0].ID)
	assert.Equal(t, "Ad", parsed.Ads[0].InLine.AdTitle)
}
