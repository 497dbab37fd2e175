package reconcile

import (
	"unicode"

	"maskpipe/internal/detect"
)

// NoiseFilter drops spans whose content is not plausibly PII: no letter or
// digit at all, or mostly punctuation, symbols, and whitespace. Generative
// recovery occasionally lands on decoration like "~\n\n" between fields; this
// is the last gate before output.
type NoiseFilter struct {
	// MinContentRatio is the minimum share of letter/digit runes a span must
	// contain.
	MinContentRatio float64
	sink            Sink
}

func NewNoiseFilter(minContentRatio float64, sink Sink) *NoiseFilter {
	if minContentRatio <= 0 {
		minContentRatio = 0.5
	}
	return &NoiseFilter{MinContentRatio: minContentRatio, sink: sink}
}

func (f *NoiseFilter) Filter(textRunes []rune, in []detect.Candidate) []detect.Candidate {
	out := make([]detect.Candidate, 0, len(in))
	for _, c := range in {
		span := textRunes[c.Start:c.End]
		if isNoise(span, f.MinContentRatio) {
			record(f.sink, Event{
				Kind: EventNoiseReject, Reason: ReasonNoiseContent,
				Value: string(span), Start: c.Start, End: c.End,
				Source: c.Source, RawTypes: []string{c.RawType},
			})
			continue
		}
		out = append(out, c)
	}
	return out
}

func isNoise(span []rune, minRatio float64) bool {
	if len(span) == 0 {
		return true
	}
	content := 0
	for _, r := range span {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			content++
		}
	}
	if content == 0 {
		return true
	}
	return float64(content) < minRatio*float64(len(span))
}
