package reconcile

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"maskpipe/internal/detect"
)

// AllowList exempts known-safe values from masking: the operator's own
// company name, shared support addresses, template boilerplate. Matching is
// insensitive to case, width, and internal whitespace.
type AllowList struct {
	entries map[string]bool
	sink    Sink
}

func NewAllowList(values []string, sink Sink) *AllowList {
	entries := make(map[string]bool, len(values))
	for _, v := range values {
		if k := allowKey(v); k != "" {
			entries[k] = true
		}
	}
	return &AllowList{entries: entries, sink: sink}
}

func (a *AllowList) Filter(textRunes []rune, in []detect.Candidate) []detect.Candidate {
	if len(a.entries) == 0 {
		return in
	}
	out := make([]detect.Candidate, 0, len(in))
	for _, c := range in {
		span := string(textRunes[c.Start:c.End])
		if a.entries[allowKey(span)] {
			record(a.sink, Event{
				Kind: EventAllowListDrop, Reason: ReasonAllowListed,
				Value: span, Start: c.Start, End: c.End,
				Source: c.Source, RawTypes: []string{c.RawType},
			})
			continue
		}
		out = append(out, c)
	}
	return out
}

func allowKey(s string) string {
	s = norm.NFKC.String(s)
	var b strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
