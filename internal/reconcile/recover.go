package reconcile

import (
	"maskpipe/internal/detect"
)

// RecoveryConfig tunes how tagged values from a generative rewrite are
// aligned back onto the original text. All lengths and offsets are runes.
type RecoveryConfig struct {
	// TagVocabulary maps generative tags to raw detector labels. Values with
	// tags outside the table are discarded, never guessed.
	TagVocabulary map[string]string
	// MinAnchorLen is the shortest anchor worth searching for. Short anchors
	// match everywhere and produce false alignments.
	MinAnchorLen int
	// SearchWindow bounds how far past the cursor anchors are searched.
	SearchWindow int
	// MaxSpan caps the recovered span length per raw label. Zero means the
	// DefaultMaxSpan entry, absent there too means unlimited.
	MaxSpan map[string]int
	// ExactScore and FuzzyScore are the confidences assigned to exact (or
	// width-folded) matches and anchor-bounded matches respectively.
	ExactScore float64
	FuzzyScore float64
	// LengthTolerance is the allowed relative deviation between a fuzzy span
	// and the tagged value's length.
	LengthTolerance float64
}

// DefaultMaxSpan caps recovered spans per raw label. Addresses run long,
// structured values do not.
var DefaultMaxSpan = map[string]int{
	detect.RawAddressJP:   200,
	detect.RawPersonJP:    40,
	detect.RawOrgJP:       80,
	detect.RawCustomerID:  40,
	detect.RawEmail:       80,
	detect.RawPhoneJP:     40,
	detect.RawZipJP:       20,
	detect.RawBirthDateJP: 30,
}

func DefaultRecoveryConfig() RecoveryConfig {
	return RecoveryConfig{
		TagVocabulary:   detect.DefaultTagVocabulary,
		MinAnchorLen:    6,
		SearchWindow:    700,
		MaxSpan:         DefaultMaxSpan,
		ExactScore:      0.85,
		FuzzyScore:      0.7,
		LengthTolerance: 0.3,
	}
}

// Recoverer aligns offset-free tagged values onto the original text. It
// consumes the text left to right: tagged values arrive in generation order,
// so each accepted span advances a cursor and later values only match after
// it. A value that cannot be placed unambiguously is discarded with an event;
// recovery never invents offsets.
type Recoverer struct {
	cfg  RecoveryConfig
	sink Sink
}

func NewRecoverer(cfg RecoveryConfig, sink Sink) *Recoverer {
	if cfg.TagVocabulary == nil {
		cfg.TagVocabulary = detect.DefaultTagVocabulary
	}
	if cfg.MinAnchorLen <= 0 {
		cfg.MinAnchorLen = 6
	}
	if cfg.SearchWindow <= 0 {
		cfg.SearchWindow = 700
	}
	if cfg.MaxSpan == nil {
		cfg.MaxSpan = DefaultMaxSpan
	}
	if cfg.ExactScore <= 0 {
		cfg.ExactScore = 0.85
	}
	if cfg.FuzzyScore <= 0 {
		cfg.FuzzyScore = 0.7
	}
	if cfg.LengthTolerance <= 0 {
		cfg.LengthTolerance = 0.3
	}
	return &Recoverer{cfg: cfg, sink: sink}
}

// Recover maps each tagged value to a span in text. The returned candidates
// carry Source GENERATIVE and rune offsets.
func (r *Recoverer) Recover(text string, values []detect.TaggedValue) []detect.RawCandidate {
	if len(values) == 0 {
		return nil
	}
	textRunes := []rune(text)
	folded := foldRunes(textRunes)

	var out []detect.RawCandidate
	cursor := 0
	for _, tv := range values {
		rawType, ok := r.cfg.TagVocabulary[tv.Tag]
		if !ok {
			record(r.sink, Event{
				Kind: EventRecoveryDiscard, Reason: ReasonTagUnrecognized,
				Value: tv.Value, Start: -1, End: -1,
				Source: detect.SourceGenerative, RawTypes: []string{tv.Tag},
			})
			continue
		}
		start, end, score, reason := r.locate(textRunes, folded, cursor, tv, rawType)
		if reason != "" {
			record(r.sink, Event{
				Kind: EventRecoveryDiscard, Reason: reason,
				Value: tv.Value, Start: -1, End: -1,
				Source: detect.SourceGenerative, RawTypes: []string{rawType},
			})
			continue
		}
		out = append(out, detect.RawCandidate{
			Start: start, End: end,
			RawType: rawType, Score: score,
			Source: detect.SourceGenerative,
		})
		if end > cursor {
			cursor = end
		}
	}
	return out
}

// locate tries, in order: exact match of the value, width-folded match, then
// anchor-bounded search. A non-empty reason means the value was not placed.
func (r *Recoverer) locate(textRunes, folded []rune, cursor int, tv detect.TaggedValue, rawType string) (start, end int, score float64, reason DiscardReason) {
	valueRunes := []rune(tv.Value)
	if len(valueRunes) == 0 {
		return 0, 0, 0, ReasonNoMatch
	}

	if i := indexRunes(textRunes, valueRunes, cursor); i >= 0 {
		return i, i + len(valueRunes), r.cfg.ExactScore, ""
	}
	if i := indexRunes(folded, foldRunes(valueRunes), cursor); i >= 0 {
		return i, i + len(valueRunes), r.cfg.ExactScore, ""
	}
	return r.locateByAnchors(folded, cursor, tv, valueRunes, rawType)
}

// locateByAnchors bounds the value between its generation-time neighbors. The
// rewrite may have reworded the value itself, but the surrounding text is
// usually carried over verbatim.
func (r *Recoverer) locateByAnchors(folded []rune, cursor int, tv detect.TaggedValue, valueRunes []rune, rawType string) (int, int, float64, DiscardReason) {
	left := foldRunes([]rune(tv.Left))
	right := foldRunes([]rune(tv.Right))
	hasLeft := len(left) >= r.cfg.MinAnchorLen
	hasRight := len(right) >= r.cfg.MinAnchorLen
	if !hasLeft && !hasRight {
		return 0, 0, 0, ReasonAnchorMissing
	}

	limit := cursor + r.cfg.SearchWindow
	if limit > len(folded) {
		limit = len(folded)
	}

	var spans [][2]int
	anchorFound := false
	switch {
	case hasLeft && hasRight:
		for _, li := range indexRunesAll(folded, left, cursor, limit) {
			anchorFound = true
			from := li + len(left)
			for _, ri := range indexRunesAll(folded, right, from, limit) {
				spans = append(spans, [2]int{from, ri})
			}
		}
	case hasLeft:
		for _, li := range indexRunesAll(folded, left, cursor, limit) {
			anchorFound = true
			from := li + len(left)
			if from+len(valueRunes) <= len(folded) {
				spans = append(spans, [2]int{from, from + len(valueRunes)})
			}
		}
	default:
		for _, ri := range indexRunesAll(folded, right, cursor, limit) {
			anchorFound = true
			from := ri - len(valueRunes)
			if from >= cursor {
				spans = append(spans, [2]int{from, ri})
			}
		}
	}
	if !anchorFound {
		return 0, 0, 0, ReasonNoMatch
	}

	spans = r.filterSpans(spans, len(valueRunes), rawType)
	switch len(spans) {
	case 0:
		return 0, 0, 0, ReasonLengthMismatch
	case 1:
		return spans[0][0], spans[0][1], r.cfg.FuzzyScore, ""
	default:
		return 0, 0, 0, ReasonAmbiguousMatch
	}
}

// filterSpans drops spans whose length is implausible for the value or the
// entity class.
func (r *Recoverer) filterSpans(spans [][2]int, valueLen int, rawType string) [][2]int {
	maxSpan, hasCap := r.cfg.MaxSpan[rawType]
	lo := int(float64(valueLen) * (1 - r.cfg.LengthTolerance))
	hi := int(float64(valueLen)*(1+r.cfg.LengthTolerance)) + 1
	if lo < 1 {
		lo = 1
	}
	out := spans[:0]
	for _, s := range spans {
		n := s[1] - s[0]
		if n < lo || n > hi {
			continue
		}
		if hasCap && n > maxSpan {
			continue
		}
		out = append(out, s)
	}
	return out
}
