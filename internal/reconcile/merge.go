package reconcile

import (
	"sort"

	"maskpipe/internal/detect"
)

// DefaultPriority orders canonical types for containment resolution. When a
// span sits wholly inside another span of a different type, the lower
// priority one is dropped. Structured, high-precision types outrank the
// fuzzy name/place classes.
var DefaultPriority = []detect.CanonicalType{
	detect.TypeEmail,
	detect.TypePhone,
	detect.TypeZipCode,
	detect.TypeCustomerID,
	detect.TypeLocation,
	detect.TypeOrganization,
	detect.TypePerson,
	detect.TypeDateOfBirth,
	detect.TypeAge,
	detect.TypeGender,
	detect.TypeUnknown,
}

// Merger deduplicates and coalesces reconciled candidates. Two passes: spans
// of the same type that touch or overlap are unioned, then a span fully
// contained in a higher-priority span of another type is dropped. The result
// has no same-type overlaps and is stable under re-merging.
type Merger struct {
	rank map[detect.CanonicalType]int
	sink Sink
}

func NewMerger(priority []detect.CanonicalType, sink Sink) *Merger {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	rank := make(map[detect.CanonicalType]int, len(priority))
	for i, t := range priority {
		rank[t] = i
	}
	return &Merger{rank: rank, sink: sink}
}

func (m *Merger) Merge(in []detect.Candidate) []detect.Candidate {
	if len(in) == 0 {
		return nil
	}
	merged := m.mergeSameType(in)
	return m.dropContained(merged)
}

// mergeSameType unions touching or overlapping spans of the same type. The
// union keeps the best score; the raw label comes from the highest-scoring
// contributor.
func (m *Merger) mergeSameType(in []detect.Candidate) []detect.Candidate {
	sorted := make([]detect.Candidate, len(in))
	copy(sorted, in)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		if sorted[i].End != sorted[j].End {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Score > sorted[j].Score
	})

	var out []detect.Candidate
	for _, c := range sorted {
		joined := false
		for i := range out {
			if out[i].Type != c.Type || c.Start > out[i].End || c.End < out[i].Start {
				continue
			}
			if c.Start < out[i].Start {
				out[i].Start = c.Start
			}
			if c.End > out[i].End {
				out[i].End = c.End
			}
			if c.Score > out[i].Score {
				out[i].Score = c.Score
				out[i].RawType = c.RawType
				out[i].Source = c.Source
			}
			joined = true
			break
		}
		if !joined {
			out = append(out, c)
		}
	}
	return out
}

// dropContained removes spans fully inside a different-type span of strictly
// higher priority. Partial cross-type overlaps are left alone: both spans
// carry signal and redaction handles the overlap.
func (m *Merger) dropContained(in []detect.Candidate) []detect.Candidate {
	out := make([]detect.Candidate, 0, len(in))
	for i, c := range in {
		dropped := false
		for j, other := range in {
			if i == j {
				continue
			}
			if other.Start <= c.Start && c.End <= other.End && m.outranks(other.Type, c.Type) {
				record(m.sink, Event{
					Kind: EventMergeDrop, Reason: ReasonContained,
					Start: c.Start, End: c.End,
					Source: c.Source, RawTypes: []string{c.RawType},
				})
				dropped = true
				break
			}
		}
		if !dropped {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func (m *Merger) outranks(a, b detect.CanonicalType) bool {
	ra, ok := m.rank[a]
	if !ok {
		ra = len(m.rank)
	}
	rb, ok := m.rank[b]
	if !ok {
		rb = len(m.rank)
	}
	return ra < rb
}
