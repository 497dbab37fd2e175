package redact

import (
	"sort"
	"strconv"
	"strings"

	"maskpipe/internal/detect"
)

// Item records one replacement so the masked text can be restored or
// reviewed. Placeholders are stable per (type, value) within one call: the
// same phone number masked twice gets the same placeholder.
type Item struct {
	Type        detect.CanonicalType
	Original    string
	Placeholder string
}

// Masker renders reconciled candidates into masked text. Offsets are rune
// indices, so splicing walks runes, never bytes.
type Masker struct {
	// Masks overrides the placeholder style per type, e.g. "***-****-****"
	// for PHONE. Types absent from the map get numbered placeholders.
	Masks map[detect.CanonicalType]string
	// MaxReplacements caps replacements per call; zero means unlimited.
	MaxReplacements int
}

func NewMasker() *Masker {
	return &Masker{}
}

func (m *Masker) WithMasks(masks map[detect.CanonicalType]string) *Masker {
	m.Masks = masks
	return m
}

func (m *Masker) WithMaxReplacements(v int) *Masker {
	m.MaxReplacements = v
	return m
}

// Mask replaces each candidate span with a placeholder. Overlapping spans
// are resolved first-wins after a (start asc, end desc) sort; candidates
// with out-of-range offsets are skipped.
func (m *Masker) Mask(text string, candidates []detect.Candidate) (string, []Item) {
	if len(candidates) == 0 || text == "" {
		return text, nil
	}
	textRunes := []rune(text)

	sorted := make([]detect.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Start < 0 || c.End > len(textRunes) || c.Start >= c.End {
			continue
		}
		sorted = append(sorted, c)
	}
	if len(sorted) == 0 {
		return text, nil
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Start == sorted[j].Start {
			return sorted[i].End > sorted[j].End
		}
		return sorted[i].Start < sorted[j].Start
	})

	typeCounters := map[detect.CanonicalType]int{}
	placeholdersByValue := map[string]string{}
	itemsByPlaceholder := map[string]Item{}

	var out strings.Builder
	cursor := 0
	lastEnd := -1
	replacements := 0
	for _, c := range sorted {
		if c.Start < lastEnd {
			continue
		}
		if m.MaxReplacements > 0 && replacements >= m.MaxReplacements {
			break
		}
		lastEnd = c.End
		value := string(textRunes[c.Start:c.End])

		placeholder := m.placeholderFor(c.Type, value, typeCounters, placeholdersByValue)
		if _, ok := itemsByPlaceholder[placeholder]; !ok {
			itemsByPlaceholder[placeholder] = Item{Type: c.Type, Original: value, Placeholder: placeholder}
		}

		out.WriteString(string(textRunes[cursor:c.Start]))
		out.WriteString(placeholder)
		cursor = c.End
		replacements++
	}
	out.WriteString(string(textRunes[cursor:]))

	items := make([]Item, 0, len(itemsByPlaceholder))
	for _, item := range itemsByPlaceholder {
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Placeholder < items[j].Placeholder })
	return out.String(), items
}

func (m *Masker) placeholderFor(t detect.CanonicalType, value string, counters map[detect.CanonicalType]int, byValue map[string]string) string {
	if mask, ok := m.Masks[t]; ok {
		return mask
	}
	key := string(t) + "|" + value
	if p, ok := byValue[key]; ok {
		return p
	}
	counters[t]++
	p := "[" + string(t) + "_" + strconv.Itoa(counters[t]) + "]"
	byValue[key] = p
	return p
}

// Restore substitutes original values back into a masked text. Fixed masks
// from Masks are not restorable and stay as-is.
func Restore(text string, items []Item) string {
	restored := text
	for _, item := range items {
		if !strings.HasPrefix(item.Placeholder, "[") {
			continue
		}
		restored = strings.ReplaceAll(restored, item.Placeholder, item.Original)
	}
	return restored
}
