package reconcile

import (
	"sort"

	"maskpipe/internal/detect"
)

// ConsensusConfig governs cross-detector agreement. Types in DualTypes only
// survive strict mode when a primary and a secondary candidate agree;
// structured types (emails, phones, zips) validate on their own and pass
// through from either side.
type ConsensusConfig struct {
	OverlapThreshold float64
	DualTypes        map[detect.CanonicalType]bool
	Strict           bool
}

func DefaultConsensusConfig() ConsensusConfig {
	return ConsensusConfig{
		OverlapThreshold: 0.5,
		DualTypes: map[detect.CanonicalType]bool{
			detect.TypePerson:       true,
			detect.TypeLocation:     true,
			detect.TypeOrganization: true,
		},
		Strict: true,
	}
}

// Consensus intersects a primary candidate set with a secondary one. A pair
// agrees when the canonical types match and the rune overlap is at least
// OverlapThreshold of the shorter span. Agreement produces one candidate
// covering the union span with the pair's best score.
type Consensus struct {
	cfg  ConsensusConfig
	sink Sink
}

func NewConsensus(cfg ConsensusConfig, sink Sink) *Consensus {
	if cfg.OverlapThreshold <= 0 {
		cfg.OverlapThreshold = 0.5
	}
	if cfg.DualTypes == nil {
		cfg.DualTypes = DefaultConsensusConfig().DualTypes
	}
	return &Consensus{cfg: cfg, sink: sink}
}

// Reconcile combines the two sides. Outside strict mode everything passes
// through untouched. In strict mode, dual-type candidates survive only as
// agreeing pairs; every unpaired dual-type candidate, on either side, is
// dropped with an event.
func (c *Consensus) Reconcile(primary, secondary []detect.Candidate) []detect.Candidate {
	var out []detect.Candidate
	if !c.cfg.Strict {
		out = append(out, primary...)
		out = append(out, secondary...)
		sortByStart(out)
		return out
	}

	paired := make([]bool, len(secondary))
	for _, p := range primary {
		if !c.cfg.DualTypes[p.Type] {
			out = append(out, p)
			continue
		}
		idx, sawType := c.bestMatch(p, secondary)
		if idx >= 0 {
			out = append(out, fuse(p, secondary[idx]))
			paired[idx] = true
			continue
		}
		reason := ReasonTypeMismatch
		if sawType {
			reason = ReasonInsufficientOverlap
		}
		record(c.sink, Event{
			Kind: EventConsensusReject, Reason: reason,
			Start: p.Start, End: p.End,
			Source: p.Source, RawTypes: []string{p.RawType},
		})
	}
	for i, s := range secondary {
		if !c.cfg.DualTypes[s.Type] {
			out = append(out, s)
			continue
		}
		if paired[i] {
			continue
		}
		reason := ReasonTypeMismatch
		if overlapsSameType(s, primary) {
			reason = ReasonInsufficientOverlap
		}
		record(c.sink, Event{
			Kind: EventConsensusReject, Reason: reason,
			Start: s.Start, End: s.End,
			Source: s.Source, RawTypes: []string{s.RawType},
		})
	}
	sortByStart(out)
	return out
}

// bestMatch returns the index of the highest-scoring agreeing secondary, or
// -1. sawType reports whether any overlapping secondary had the right type at
// all, which decides between the two rejection reasons.
func (c *Consensus) bestMatch(p detect.Candidate, secondary []detect.Candidate) (int, bool) {
	best := -1
	sawType := false
	bestOverlap := 0
	for i, s := range secondary {
		ov := overlap(p, s)
		if ov <= 0 {
			continue
		}
		if s.Type != p.Type {
			continue
		}
		sawType = true
		minLen := p.End - p.Start
		if l := s.End - s.Start; l < minLen {
			minLen = l
		}
		if minLen <= 0 || float64(ov) < c.cfg.OverlapThreshold*float64(minLen) {
			continue
		}
		better := best < 0 ||
			s.Score > secondary[best].Score ||
			(s.Score == secondary[best].Score && ov > bestOverlap) ||
			(s.Score == secondary[best].Score && ov == bestOverlap && s.Start < secondary[best].Start)
		if better {
			best, bestOverlap = i, ov
		}
	}
	return best, sawType
}

// overlapsSameType reports whether any candidate in others overlaps c with
// the same canonical type. Decides the rejection reason for an unpaired
// candidate: a same-type neighbor that overlapped too little is an overlap
// failure, not a type mismatch.
func overlapsSameType(c detect.Candidate, others []detect.Candidate) bool {
	for _, o := range others {
		if o.Type == c.Type && overlap(c, o) > 0 {
			return true
		}
	}
	return false
}

func overlap(a, b detect.Candidate) int {
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	end := a.End
	if b.End < end {
		end = b.End
	}
	return end - start
}

// fuse joins an agreeing pair into one consensus candidate: union span, max
// score, both raw labels kept for audit.
func fuse(p, s detect.Candidate) detect.Candidate {
	out := detect.Candidate{
		Start: p.Start, End: p.End,
		Type:   p.Type,
		Score:  p.Score,
		Source: detect.SourceConsensus,
	}
	if s.Start < out.Start {
		out.Start = s.Start
	}
	if s.End > out.End {
		out.End = s.End
	}
	if s.Score > out.Score {
		out.Score = s.Score
	}
	out.RawType = p.RawType + "|" + s.RawType
	return out
}

func sortByStart(cs []detect.Candidate) {
	sort.SliceStable(cs, func(i, j int) bool { return cs[i].Start < cs[j].Start })
}
