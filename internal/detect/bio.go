package detect

import "strings"

// TokenLabel is one token-level tag from a sequence tagger, with the token's
// rune span in the original text.
type TokenLabel struct {
	Start int
	End   int
	Label string
	Score float64
}

// bioState makes the tag walk explicit: the decoder is either outside any
// entity or inside one of a known raw type.
type bioState int

const (
	bioOutside bioState = iota
	bioInside
)

// DecodeBIO folds a token label sequence into raw candidates. It handles
// BIO-prefixed labels (B-PER/I-PER) and the bare labels Japanese taggers
// emit (人名/地名). Transitions:
//
//	outside, O          -> outside
//	outside, B-X or I-X -> inside(X)        (orphan I- starts a new entity)
//	inside(X), I-X      -> inside(X), span extended
//	inside(X), B-Y      -> emit X, inside(Y)
//	inside(X), I-Y      -> emit X, inside(Y) (type change mid-entity)
//	inside(X), O        -> emit X, outside
//
// Bare labels behave like I- labels of their type. Scores are averaged over
// the entity's tokens.
func DecodeBIO(labels []TokenLabel, source Source) []RawCandidate {
	out := make([]RawCandidate, 0)

	state := bioOutside
	var cur RawCandidate
	var scoreSum float64
	var tokenCount int

	emit := func() {
		if state == bioInside && tokenCount > 0 {
			cur.Score = scoreSum / float64(tokenCount)
			out = append(out, cur)
		}
		state = bioOutside
		scoreSum, tokenCount = 0, 0
	}

	for _, tl := range labels {
		label := tl.Label
		if label == "O" || label == "" {
			emit()
			continue
		}

		begin := strings.HasPrefix(label, "B-")
		rawType := label
		if begin || strings.HasPrefix(label, "I-") {
			rawType = label[2:]
		}
		if rawType == "" {
			emit()
			continue
		}

		if state == bioInside && !begin && cur.RawType == rawType {
			cur.End = tl.End
			scoreSum += tl.Score
			tokenCount++
			continue
		}

		emit()
		state = bioInside
		cur = RawCandidate{Start: tl.Start, End: tl.End, RawType: rawType, Source: source}
		scoreSum = tl.Score
		tokenCount = 1
	}
	emit()
	return out
}
