package detect

import (
	"context"
	"regexp"
	"strings"
)

// Tags the generative masking model may wrap extracted values in. The model
// rewrites the whole input and tags PII values inline, e.g.
// "連絡先: <name>山田太郎</name> <phone-number>090-1234-5678</phone-number>".
// It emits no offsets; the reconcile span recovery engine aligns values back
// onto the original text.
var GenerativeTags = []string{
	"name",
	"birthday",
	"phone-number",
	"mail-address",
	"customer-id",
	"address",
	"post-code",
	"company",
}

// DefaultTagVocabulary maps generative tags to the raw label vocabulary, for
// use as the GENERATIVE entry in the reconcile mapping tables.
var DefaultTagVocabulary = map[string]string{
	"name":         RawPersonJP,
	"birthday":     RawBirthDateJP,
	"phone-number": RawPhoneJP,
	"mail-address": RawEmail,
	"customer-id":  RawCustomerID,
	"address":      RawAddressJP,
	"post-code":    RawZipJP,
	"company":      RawOrgJP,
}

// maxAnchorRunes bounds the left/right context kept with each tagged value.
// Longer anchors only make exact anchor matching more brittle.
const maxAnchorRunes = 24

var tagSplitRegexp = regexp.MustCompile(`</?(?:` + strings.Join(GenerativeTags, "|") + `)>`)

// ParseTaggedOutput extracts ordered (value, tag) pairs from an inline-tagged
// rewrite, keeping the immediately surrounding untagged text as anchors.
// Unclosed or empty tags are dropped; unknown angle-bracket runs stay part of
// the plain text.
func ParseTaggedOutput(rewritten string) []TaggedValue {
	locs := tagSplitRegexp.FindAllStringIndex(rewritten, -1)
	if len(locs) == 0 {
		return nil
	}

	type piece struct {
		text  string
		tag   string // "" for plain text, "name" for <name>, "/name" for </name>
	}
	pieces := make([]piece, 0, 2*len(locs)+1)
	prev := 0
	for _, loc := range locs {
		if loc[0] > prev {
			pieces = append(pieces, piece{text: rewritten[prev:loc[0]]})
		}
		pieces = append(pieces, piece{tag: strings.Trim(rewritten[loc[0]:loc[1]], "<>")})
		prev = loc[1]
	}
	if prev < len(rewritten) {
		pieces = append(pieces, piece{text: rewritten[prev:]})
	}

	var out []TaggedValue
	for i := 0; i < len(pieces); i++ {
		p := pieces[i]
		if p.tag == "" || strings.HasPrefix(p.tag, "/") {
			continue
		}
		// Expect <tag> value </tag>.
		if i+2 >= len(pieces) || pieces[i+1].tag != "" || pieces[i+2].tag != "/"+p.tag {
			continue
		}
		value := pieces[i+1].text
		if strings.TrimSpace(value) == "" {
			i += 2
			continue
		}
		tv := TaggedValue{Value: value, Tag: p.tag}
		if i > 0 && pieces[i-1].tag == "" {
			tv.Left = tailRunes(pieces[i-1].text, maxAnchorRunes)
		}
		if i+3 < len(pieces) && pieces[i+3].tag == "" {
			tv.Right = headRunes(pieces[i+3].text, maxAnchorRunes)
		}
		out = append(out, tv)
		i += 2
	}
	return out
}

func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// StaticGenerative returns a fixed rewritten output. Tests and the CLI use it
// in place of a live model; production wires an adapter with the same
// contract.
type StaticGenerative struct {
	Rewritten string
}

func (s StaticGenerative) DetectTagged(ctx context.Context, _ string) ([]TaggedValue, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseTaggedOutput(s.Rewritten), nil
}
