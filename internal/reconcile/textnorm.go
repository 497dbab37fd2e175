package reconcile

import (
	"unicode"

	"golang.org/x/text/width"
)

// foldRunes normalizes a rune slice for matching while preserving its length:
// fullwidth and halfwidth forms fold to their canonical width, every
// whitespace rune becomes a plain space, letters lowercase. Generative models
// routinely flip widths and spacing when they rewrite, so exact matching on
// the raw bytes misses values that are plainly present.
func foldRunes(rs []rune) []rune {
	out := make([]rune, len(rs))
	for i, r := range rs {
		f := foldRune(r)
		if unicode.IsSpace(f) {
			out[i] = ' '
			continue
		}
		out[i] = unicode.ToLower(f)
	}
	return out
}

func foldRune(r rune) rune {
	p := width.LookupRune(r)
	if f := p.Folded(); f != 0 {
		return f
	}
	return r
}

// runesEqual reports whether two already-folded windows match.
func runesEqual(a, b []rune) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// indexRunes finds the first occurrence of needle in haystack at or after
// from, returning -1 when absent. Offsets are rune indices.
func indexRunes(haystack, needle []rune, from int) int {
	if len(needle) == 0 || from < 0 {
		return -1
	}
	for i := from; i+len(needle) <= len(haystack); i++ {
		if runesEqual(haystack[i:i+len(needle)], needle) {
			return i
		}
	}
	return -1
}

// indexRunesAll collects every occurrence of needle within
// haystack[from:until], as rune start offsets.
func indexRunesAll(haystack, needle []rune, from, until int) []int {
	var hits []int
	if until > len(haystack) {
		until = len(haystack)
	}
	for i := from; i >= 0 && i+len(needle) <= until; {
		j := indexRunes(haystack[:until], needle, i)
		if j < 0 {
			break
		}
		hits = append(hits, j)
		i = j + 1
	}
	return hits
}
