package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maskpipe/internal/detect"
)

func TestNoiseFilterDropsSymbolSpan(t *testing.T) {
	sink := &captureSink{}
	text := "~\n\n山田"
	f := NewNoiseFilter(0.5, sink)
	got := f.Filter([]rune(text), []detect.Candidate{
		{Start: 0, End: 3, Type: detect.TypePerson, RawType: "PERSON", Score: 0.8},
		{Start: 3, End: 5, Type: detect.TypePerson, RawType: "PERSON", Score: 0.8},
	})
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].Start)
	require.Len(t, sink.events, 1)
	assert.Equal(t, EventNoiseReject, sink.events[0].Kind)
	assert.Equal(t, ReasonNoiseContent, sink.events[0].Reason)
	assert.Equal(t, "~\n\n", sink.events[0].Value)
}

func TestNoiseFilterContentRatio(t *testing.T) {
	// One letter among four punctuation runes is below the 50% floor.
	text := "a.,;!"
	got := NewNoiseFilter(0.5, NopSink{}).Filter([]rune(text), []detect.Candidate{
		{Start: 0, End: 5, Type: detect.TypePerson},
	})
	assert.Empty(t, got)
}

func TestNoiseFilterKeepsRealContent(t *testing.T) {
	text := "東京都渋谷区1-2-3"
	got := NewNoiseFilter(0.5, NopSink{}).Filter([]rune(text), []detect.Candidate{
		{Start: 0, End: 11, Type: detect.TypeLocation},
	})
	assert.Len(t, got, 1)
}
