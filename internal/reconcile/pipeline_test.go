package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maskpipe/internal/detect"
)

func newTestPipeline(t *testing.T, sink Sink) *Pipeline {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Sink = sink
	p, err := New(cfg)
	require.NoError(t, err)
	return p
}

func TestNewRejectsEmptyMapping(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mapping = nil
	_, err := New(cfg)
	require.Error(t, err)
}

func TestPipelineEndToEndStrict(t *testing.T) {
	text := "氏名: 山田太郎 電話: 090-1234-5678"
	sink := &captureSink{}
	p := newTestPipeline(t, sink)

	in := Inputs{
		Pattern: []detect.RawCandidate{
			{Start: 13, End: 26, RawType: detect.RawPhoneJP, Score: 0.94, Source: detect.SourcePattern},
		},
		NER: []detect.RawCandidate{
			{Start: 4, End: 8, RawType: "B-PERSON", Score: 0.6, Source: detect.SourceNER},
		},
		Generative: []detect.TaggedValue{
			{Value: "山田太郎", Tag: "name"},
		},
	}
	got := p.Reconcile(text, in)
	require.Len(t, got, 2)

	assert.Equal(t, detect.TypePerson, got[0].Type)
	assert.Equal(t, detect.SourceConsensus, got[0].Source)
	assert.Equal(t, 4, got[0].Start)
	assert.Equal(t, 8, got[0].End)
	assert.Equal(t, 0.85, got[0].Score)

	assert.Equal(t, detect.TypePhone, got[1].Type)
	assert.Equal(t, 13, got[1].Start)
	assert.Equal(t, 26, got[1].End)
}

func TestPipelineStrictDropsUnconfirmedPerson(t *testing.T) {
	text := "担当: 佐藤さん"
	sink := &captureSink{}
	p := newTestPipeline(t, sink)
	got := p.Reconcile(text, Inputs{
		NER: []detect.RawCandidate{
			{Start: 4, End: 6, RawType: "PERSON", Score: 0.8, Source: detect.SourceNER},
		},
	})
	assert.Empty(t, got)
	require.Len(t, sink.events, 1)
	assert.Equal(t, EventConsensusReject, sink.events[0].Kind)
}

func TestPipelineMalformedOffsetsDiscarded(t *testing.T) {
	sink := &captureSink{}
	p := newTestPipeline(t, sink)
	got := p.Reconcile("短い", Inputs{
		Pattern: []detect.RawCandidate{
			{Start: 0, End: 99, RawType: detect.RawEmail, Score: 0.9, Source: detect.SourcePattern},
			{Start: 5, End: 3, RawType: detect.RawEmail, Score: 0.9, Source: detect.SourcePattern},
			{Start: -1, End: 1, RawType: detect.RawEmail, Score: 0.9, Source: detect.SourcePattern},
		},
	})
	assert.Empty(t, got)
	require.Len(t, sink.events, 3)
	for _, ev := range sink.events {
		assert.Equal(t, EventRecoveryDiscard, ev.Kind)
		assert.Equal(t, ReasonNoMatch, ev.Reason)
	}
}

func TestPipelineUnknownLabelPassesThroughAsUnknown(t *testing.T) {
	sink := &captureSink{}
	p := newTestPipeline(t, sink)
	got := p.Reconcile("XY-999 参照", Inputs{
		Pattern: []detect.RawCandidate{
			{Start: 0, End: 6, RawType: "WEIRD_LABEL", Score: 0.9, Source: detect.SourcePattern},
		},
	})
	require.Len(t, got, 1)
	assert.Equal(t, detect.TypeUnknown, got[0].Type)
	assert.Equal(t, "WEIRD_LABEL", got[0].RawType)
	require.Len(t, sink.events, 1)
	assert.Equal(t, EventMappingUnknown, sink.events[0].Kind)
	assert.Equal(t, ReasonUnknownLabel, sink.events[0].Reason)
}

func TestPipelineEmptyInputs(t *testing.T) {
	p := newTestPipeline(t, NopSink{})
	assert.Empty(t, p.Reconcile("何か書いてある", Inputs{}))
	assert.Empty(t, p.Reconcile("", Inputs{}))
}

func TestPipelineAllowList(t *testing.T) {
	text := "株式会社Example 御中"
	cfg := DefaultConfig()
	cfg.Consensus.Strict = false
	cfg.AllowList = []string{"株式会社Ｅｘａｍｐｌｅ"}
	sink := &captureSink{}
	cfg.Sink = sink
	p, err := New(cfg)
	require.NoError(t, err)

	got := p.Reconcile(text, Inputs{
		NER: []detect.RawCandidate{
			{Start: 0, End: 11, RawType: "ORG", Score: 0.9, Source: detect.SourceNER},
		},
	})
	assert.Empty(t, got)
	require.Len(t, sink.events, 1)
	assert.Equal(t, EventAllowListDrop, sink.events[0].Kind)
}

func TestPipelineMinScore(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Consensus.Strict = false
	cfg.MinScore = 0.6
	p, err := New(cfg)
	require.NoError(t, err)
	got := p.Reconcile("山田太郎", Inputs{
		NER: []detect.RawCandidate{
			{Start: 0, End: 4, RawType: "PERSON", Score: 0.4, Source: detect.SourceNER},
		},
	})
	assert.Empty(t, got)
}

func TestPipelinePanickingSinkDoesNotFail(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sink = panickingSink{}
	p, err := New(cfg)
	require.NoError(t, err)
	got := p.Reconcile("短い", Inputs{
		Pattern: []detect.RawCandidate{
			{Start: 0, End: 99, RawType: detect.RawEmail, Score: 0.9, Source: detect.SourcePattern},
		},
	})
	assert.Empty(t, got)
}

type panickingSink struct{}

func (panickingSink) Record(Event) error { panic("sink down") }

func TestPipelineDeterministic(t *testing.T) {
	text := "氏名: 山田太郎 電話: 090-1234-5678 住所: 東京都港区芝公園4-2-8"
	in := Inputs{
		Pattern: []detect.RawCandidate{
			{Start: 13, End: 26, RawType: detect.RawPhoneJP, Score: 0.94, Source: detect.SourcePattern},
			{Start: 31, End: 44, RawType: detect.RawAddressJP, Score: 0.75, Source: detect.SourcePattern},
		},
		NER: []detect.RawCandidate{
			{Start: 4, End: 8, RawType: "PERSON", Score: 0.6, Source: detect.SourceNER},
		},
		Generative: []detect.TaggedValue{
			{Value: "山田太郎", Tag: "name"},
			{Value: "東京都港区芝公園4-2-8", Tag: "address"},
		},
	}
	p := newTestPipeline(t, NopSink{})
	first := p.Reconcile(text, in)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, p.Reconcile(text, in))
	}
}
