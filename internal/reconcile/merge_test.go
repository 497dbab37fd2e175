package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maskpipe/internal/detect"
)

func TestMergeDifferentTypesNeverCompete(t *testing.T) {
	// "Contact John Smith, john@x.com": PERSON and EMAIL stay independent.
	in := []detect.Candidate{
		{Start: 21, End: 31, Type: detect.TypeEmail, RawType: detect.RawEmail, Score: 0.95},
		{Start: 8, End: 18, Type: detect.TypePerson, RawType: "PERSON", Score: 0.85},
	}
	got := NewMerger(nil, NopSink{}).Merge(in)
	require.Len(t, got, 2)
	assert.Equal(t, detect.TypePerson, got[0].Type)
	assert.Equal(t, detect.TypeEmail, got[1].Type)
}

func TestMergeSameTypeUnion(t *testing.T) {
	in := []detect.Candidate{
		{Start: 0, End: 5, Type: detect.TypeLocation, Score: 0.6},
		{Start: 3, End: 9, Type: detect.TypeLocation, Score: 0.8},
		{Start: 9, End: 12, Type: detect.TypeLocation, Score: 0.7}, // adjacent
	}
	got := NewMerger(nil, NopSink{}).Merge(in)
	require.Len(t, got, 1)
	assert.Equal(t, 0, got[0].Start)
	assert.Equal(t, 12, got[0].End)
	assert.Equal(t, 0.8, got[0].Score)
}

func TestMergeContainmentByPriority(t *testing.T) {
	sink := &captureSink{}
	phone := detect.Candidate{Start: 5, End: 20, Type: detect.TypePhone, RawType: detect.RawPhoneJP, Score: 0.9}
	person := detect.Candidate{Start: 8, End: 12, Type: detect.TypePerson, RawType: "PERSON", Score: 0.8}
	got := NewMerger(nil, sink).Merge([]detect.Candidate{phone, person})
	require.Len(t, got, 1)
	assert.Equal(t, detect.TypePhone, got[0].Type)
	require.Len(t, sink.events, 1)
	assert.Equal(t, EventMergeDrop, sink.events[0].Kind)
	assert.Equal(t, ReasonContained, sink.events[0].Reason)
}

func TestMergeContainedHigherPriorityKept(t *testing.T) {
	// An EMAIL inside a PERSON span outranks its container; both survive.
	person := detect.Candidate{Start: 0, End: 30, Type: detect.TypePerson, Score: 0.8}
	email := detect.Candidate{Start: 5, End: 15, Type: detect.TypeEmail, Score: 0.95}
	got := NewMerger(nil, NopSink{}).Merge([]detect.Candidate{person, email})
	assert.Len(t, got, 2)
}

func TestMergePartialCrossTypeOverlapRetained(t *testing.T) {
	a := detect.Candidate{Start: 0, End: 10, Type: detect.TypeLocation, Score: 0.8}
	b := detect.Candidate{Start: 8, End: 20, Type: detect.TypePerson, Score: 0.8}
	got := NewMerger(nil, NopSink{}).Merge([]detect.Candidate{a, b})
	assert.Len(t, got, 2)
}

func TestMergeIdempotent(t *testing.T) {
	in := []detect.Candidate{
		{Start: 0, End: 5, Type: detect.TypeLocation, Score: 0.6},
		{Start: 3, End: 9, Type: detect.TypeLocation, Score: 0.8},
		{Start: 5, End: 20, Type: detect.TypePhone, Score: 0.9},
		{Start: 6, End: 8, Type: detect.TypePerson, Score: 0.7},
		{Start: 25, End: 30, Type: detect.TypeEmail, Score: 0.95},
	}
	m := NewMerger(nil, NopSink{})
	once := m.Merge(in)
	twice := m.Merge(once)
	assert.Equal(t, once, twice)
}

func TestMergeNoSameTypeOverlapInOutput(t *testing.T) {
	in := []detect.Candidate{
		{Start: 0, End: 8, Type: detect.TypePerson, Score: 0.5},
		{Start: 2, End: 6, Type: detect.TypePerson, Score: 0.9},
		{Start: 7, End: 12, Type: detect.TypePerson, Score: 0.6},
		{Start: 20, End: 24, Type: detect.TypePerson, Score: 0.6},
	}
	got := NewMerger(nil, NopSink{}).Merge(in)
	for i := 0; i < len(got); i++ {
		for j := i + 1; j < len(got); j++ {
			if got[i].Type != got[j].Type {
				continue
			}
			assert.False(t, got[i].Start < got[j].End && got[j].Start < got[i].End,
				"overlap between %+v and %+v", got[i], got[j])
		}
	}
}
