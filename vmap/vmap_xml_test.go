package vmap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVMAP = `<?xml version="1.0" encoding="UTF-8"?>
<vmap:VMAP xmlns:vmap="http://www.iab.net/videosuite/vmap" version="1.0">
  <vmap:AdBreak timeOffset="start" breakType="linear" breakId="preroll">
    <vmap:AdSource id="preroll-ad" allowMultipleAds="false" followRedirects="true">
      <vmap:AdTagURI templateType="vast3"><![CDATA[https://ads.example.com/preroll.xml]]></vmap:AdTagURI>
    </vmap:AdSource>
    <vmap:TrackingEvents>
      <vmap:Tracking event="breakStart"><![CDATA[https://ads.example.com/breakstart]]></vmap:Tracking>
    </vmap:TrackingEvents>
  </vmap:AdBreak>
  <vmap:AdBreak timeOffset="00:00:30.000" breakType="linear" breakId="midroll-1">
    <vmap:AdSource>
      <vmap:VASTAdData>
        <VAST version="3.0">
          <Ad id="inline-1">
            <InLine>
              <AdTitle>Mid Roll</AdTitle>
              <Creatives><Creative><Linear><Duration>00:00:10</Duration></Linear></Creative></Creatives>
            </InLine>
          </Ad>
        </VAST>
      </vmap:VASTAdData>
    </vmap:AdSource>
  </vmap:AdBreak>
  <vmap:AdBreak timeOffset="end" breakType="linear" breakId="postroll"/>
</vmap:VMAP>`

func TestUnmarshal(t *testing.T) {
	doc, err := Unmarshal([]byte(sampleVMAP))
	require.NoError(t, err)
	assert.Equal(t, "1.0", doc.Version)
	require.Len(t, doc.AdBreaks, 3)

	pre := doc.AdBreaks[0]
	assert.Equal(t, "start", pre.TimeOffset)
	assert.Equal(t, "preroll", pre.BreakID)
	assert.False(t, pre.Empty())
	assert.False(t, pre.Repeatable())
	require.NotNil(t, pre.AdSource.AdTagURI)
	assert.Equal(t, "https://ads.example.com/preroll.xml", pre.AdSource.AdTagURI.Value)
	assert.Equal(t, []string{"https://ads.example.com/breakstart"}, pre.TrackingURLs("breakStart"))
	assert.Empty(t, pre.TrackingURLs("breakEnd"))

	mid := doc.AdBreaks[1]
	require.NotNil(t, mid.AdSource.VASTAdData)
	require.NotNil(t, mid.AdSource.VASTAdData.VAST)
	require.Len(t, mid.AdSource.VASTAdData.VAST.Ads, 1)
	assert.Equal(t, "Mid Roll", mid.AdSource.VASTAdData.VAST.Ads[0].InLine.AdTitle)

	post := doc.AdBreaks[2]
	assert.True(t, post.Empty())
	assert.Equal(t, "postroll", post.Identifier())
}

func TestUnmarshal_Malformed(t *testing.T) {
	_, err := Unmarshal([]byte(`<vmap:VMAP version="1.0"><vmap:AdBreak></vmap:VMAP>`))
	assert.ErrorIs(t, err, ErrVMAPParseFailure)
}

func TestUnmarshal_NotVMAP(t *testing.T) {
	_, err := Unmarshal([]byte(`<html/>`))
	assert.ErrorIs(t, err, ErrNotVMAP)
}

func TestParseTimeOffset(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		kind    OffsetKind
		wantErr bool
	}{
		{"start", "start", OffsetStart, false},
		{"end", "end", OffsetEnd, false},
		{"time", "00:00:30.000", OffsetTime, false},
		{"percent", "25%", OffsetPercent, false},
		{"position", "#2", OffsetPosition, false},
		{"bad position", "#0", 0, true},
		{"bad percent", "120%", 0, true},
		{"garbage", "whenever", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off, err := ParseTimeOffset(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, off.Kind)
		})
	}
}

func TestTimeOffsetResolve(t *testing.T) {
	tests := []struct {
		name     string
		offset   TimeOffset
		duration float64
		want     float64
		resolved bool
	}{
		{"start", TimeOffset{Kind: OffsetStart}, 0, 0, true},
		{"time without duration", TimeOffset{Kind: OffsetTime, Seconds: 30}, 0, 30, true},
		{"end with duration", TimeOffset{Kind: OffsetEnd}, 120, 120, true},
		{"end without duration", TimeOffset{Kind: OffsetEnd}, 0, 0, false},
		{"percent with duration", TimeOffset{Kind: OffsetPercent, Percent: 25}, 120, 30, true},
		{"percent without duration", TimeOffset{Kind: OffsetPercent, Percent: 25}, 0, 0, false},
		{"position never resolves", TimeOffset{Kind: OffsetPosition, Position: 1}, 120, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.offset.Resolve(tt.duration)
			assert.Equal(t, tt.resolved, ok)
			if ok {
				assert.InDelta(t, tt.want, got, 0.0001)
			}
		})
	}
}
