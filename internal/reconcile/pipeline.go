package reconcile

import (
	"errors"

	"go.uber.org/zap"

	"maskpipe/internal/detect"
)

// Config is the immutable configuration of one pipeline instance. The only
// construction-time failure is an empty mapping table; every per-request
// anomaly is an event, never an error.
type Config struct {
	Mapping   Mapping
	Recovery  RecoveryConfig
	Consensus ConsensusConfig
	// Priority orders canonical types for cross-type containment.
	Priority []detect.CanonicalType
	// NoiseRatio is the minimum letter/digit content share of a span.
	NoiseRatio float64
	// MinScore drops detector candidates below the threshold at intake.
	MinScore float64
	// AllowList holds values exempted from masking.
	AllowList []string
	Sink      Sink
	Logger    *zap.Logger
}

func DefaultConfig() Config {
	return Config{
		Mapping:    DefaultMapping(),
		Recovery:   DefaultRecoveryConfig(),
		Consensus:  DefaultConsensusConfig(),
		Priority:   DefaultPriority,
		NoiseRatio: 0.5,
	}
}

// Inputs carries one request's detector outputs. A detector that failed or
// timed out contributes an empty list; the pipeline produces correct output
// for any combination of empty inputs.
type Inputs struct {
	Pattern     []detect.RawCandidate
	NER         []detect.RawCandidate
	Transformer []detect.RawCandidate
	Generative  []detect.TaggedValue
}

// Pipeline reconciles heterogeneous detector outputs into one candidate
// list: normalize, recover generative spans, consensus, merge, filter. It is
// stateless per call and safe for concurrent use.
type Pipeline struct {
	cfg       Config
	recoverer *Recoverer
	consensus *Consensus
	merger    *Merger
	noise     *NoiseFilter
	allow     *AllowList
	log       *zap.Logger
}

func New(cfg Config) (*Pipeline, error) {
	if len(cfg.Mapping) == 0 {
		return nil, errors.New("reconcile: empty canonical mapping table")
	}
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Pipeline{
		cfg:       cfg,
		recoverer: NewRecoverer(cfg.Recovery, cfg.Sink),
		consensus: NewConsensus(cfg.Consensus, cfg.Sink),
		merger:    NewMerger(cfg.Priority, cfg.Sink),
		noise:     NewNoiseFilter(cfg.NoiseRatio, cfg.Sink),
		allow:     NewAllowList(cfg.AllowList, cfg.Sink),
		log:       cfg.Logger,
	}, nil
}

// Reconcile runs the fixed pipeline over one text. Offsets in the result are
// rune indices into text, left-inclusive/right-exclusive. It never fails;
// at worst it returns an empty list.
func (p *Pipeline) Reconcile(text string, in Inputs) []detect.Candidate {
	textRunes := []rune(text)

	primary := p.normalize(textRunes, in.Pattern)
	primary = append(primary, p.normalize(textRunes, in.NER)...)
	primary = append(primary, p.normalize(textRunes, in.Transformer)...)

	recovered := p.recoverer.Recover(text, in.Generative)
	secondary := p.normalize(textRunes, recovered)

	agreed := p.consensus.Reconcile(primary, secondary)
	merged := p.merger.Merge(agreed)
	merged = p.allow.Filter(textRunes, merged)
	final := p.noise.Filter(textRunes, merged)

	p.log.Debug("reconciled",
		zap.Int("primary", len(primary)),
		zap.Int("secondary", len(secondary)),
		zap.Int("agreed", len(agreed)),
		zap.Int("final", len(final)),
	)
	return final
}

// normalize validates offsets and resolves raw labels to canonical types.
// Malformed spans are discarded as NO_MATCH; unmapped labels pass through as
// UNKNOWN with an event.
func (p *Pipeline) normalize(textRunes []rune, in []detect.RawCandidate) []detect.Candidate {
	out := make([]detect.Candidate, 0, len(in))
	for _, rc := range in {
		if rc.Start < 0 || rc.End > len(textRunes) || rc.Start >= rc.End {
			record(p.cfg.Sink, Event{
				Kind: EventRecoveryDiscard, Reason: ReasonNoMatch,
				Start: rc.Start, End: rc.End,
				Source: rc.Source, RawTypes: []string{rc.RawType},
			})
			continue
		}
		if p.cfg.MinScore > 0 && rc.Score < p.cfg.MinScore {
			continue
		}
		t, known := p.cfg.Mapping.Normalize(rc.Source, rc.RawType)
		if !known {
			record(p.cfg.Sink, Event{
				Kind: EventMappingUnknown, Reason: ReasonUnknownLabel,
				Start: rc.Start, End: rc.End,
				Source: rc.Source, RawTypes: []string{rc.RawType},
			})
		}
		out = append(out, detect.Candidate{
			Start: rc.Start, End: rc.End,
			Type: t, RawType: rc.RawType,
			Score: rc.Score, Source: rc.Source,
		})
	}
	return out
}
