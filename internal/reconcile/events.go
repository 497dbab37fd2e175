package reconcile

import "maskpipe/internal/detect"

// EventKind groups the local, recoverable decisions the pipeline makes.
// None of them ever surface as an error to the caller.
type EventKind string

const (
	EventRecoveryDiscard EventKind = "RECOVERY_DISCARD"
	EventConsensusReject EventKind = "CONSENSUS_REJECT"
	EventNoiseReject     EventKind = "NOISE_REJECT"
	EventMappingUnknown  EventKind = "MAPPING_UNKNOWN"
	EventMergeDrop       EventKind = "MERGE_DROP"
	EventAllowListDrop   EventKind = "ALLOW_LIST_DROP"
)

type DiscardReason string

const (
	ReasonNoMatch             DiscardReason = "NO_MATCH"
	ReasonAmbiguousMatch      DiscardReason = "AMBIGUOUS_MATCH"
	ReasonAnchorMissing       DiscardReason = "ANCHOR_MISSING"
	ReasonLengthMismatch      DiscardReason = "LENGTH_MISMATCH"
	ReasonTagUnrecognized     DiscardReason = "TAG_UNRECOGNIZED"
	ReasonTypeMismatch        DiscardReason = "TYPE_MISMATCH"
	ReasonInsufficientOverlap DiscardReason = "INSUFFICIENT_OVERLAP"
	ReasonNoiseContent        DiscardReason = "NOISE_CONTENT"
	ReasonUnknownLabel        DiscardReason = "UNKNOWN_LABEL"
	ReasonContained           DiscardReason = "CONTAINED_LOWER_PRIORITY"
	ReasonAllowListed         DiscardReason = "ALLOW_LIST_MATCH"
)

// Event is one discard/rejection record for the observability sink. Start
// and End are rune offsets, or -1 when no span was ever established (span
// recovery failures carry the tagged value instead).
type Event struct {
	Kind     EventKind     `json:"kind"`
	Reason   DiscardReason `json:"reason"`
	Value    string        `json:"value,omitempty"`
	Start    int           `json:"start"`
	End      int           `json:"end"`
	Source   detect.Source `json:"source"`
	RawTypes []string      `json:"raw_types,omitempty"`
}

// Sink receives events synchronously. Errors (and panics) from a sink are
// swallowed: observability must never change the pipeline's result.
type Sink interface {
	Record(ev Event) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Record(Event) error { return nil }

func record(sink Sink, ev Event) {
	if sink == nil {
		return
	}
	defer func() { _ = recover() }()
	_ = sink.Record(ev)
}
