package detect

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Token is a whitespace/punctuation-delimited word with its rune span.
type Token struct {
	Text       string
	Start, End int
}

// WordPieceTokenizer implements BERT-style subword tokenization over a
// tokenizer.json vocabulary. Word offsets are kept so token-level labels can
// be projected back onto the text.
type WordPieceTokenizer struct {
	vocab      map[string]int
	unkID      int
	clsID      int
	sepID      int
	maxWordLen int
	maxSeqLen  int
	lowercase  bool
}

type Encoding struct {
	InputIDs       []int64
	AttentionMask  []int64
	TokenTypeIDs   []int64
	TokenToWordIdx []int
	Words          []Token
}

type tokenizerJSON struct {
	Model struct {
		Vocab map[string]int `json:"vocab"`
	} `json:"model"`
	Normalizer struct {
		Lowercase *bool `json:"lowercase"`
	} `json:"normalizer"`
}

func NewWordPieceTokenizer(tokenizerPath string) (*WordPieceTokenizer, error) {
	vocab, lowercase, err := loadTokenizerConfig(tokenizerPath)
	if err != nil {
		return nil, err
	}
	unkID, ok := vocab["[UNK]"]
	if !ok {
		return nil, fmt.Errorf("tokenizer vocab is missing [UNK]")
	}
	clsID, ok := vocab["[CLS]"]
	if !ok {
		return nil, fmt.Errorf("tokenizer vocab is missing [CLS]")
	}
	sepID, ok := vocab["[SEP]"]
	if !ok {
		return nil, fmt.Errorf("tokenizer vocab is missing [SEP]")
	}
	return &WordPieceTokenizer{vocab: vocab, unkID: unkID, clsID: clsID, sepID: sepID, maxWordLen: 100, maxSeqLen: 512, lowercase: lowercase}, nil
}

func loadTokenizerConfig(path string) (map[string]int, bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}
	var cfg tokenizerJSON
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, false, err
	}
	if len(cfg.Model.Vocab) == 0 {
		return nil, false, fmt.Errorf("tokenizer.json model.vocab is empty")
	}
	lowercase := true
	if cfg.Normalizer.Lowercase != nil {
		lowercase = *cfg.Normalizer.Lowercase
	}
	return cfg.Model.Vocab, lowercase, nil
}

func (t *WordPieceTokenizer) Encode(text string) (*Encoding, error) {
	words := SplitWords(text)
	out := &Encoding{
		InputIDs:       []int64{int64(t.clsID)},
		AttentionMask:  []int64{1},
		TokenTypeIDs:   []int64{0},
		TokenToWordIdx: []int{-1},
		Words:          words,
	}
	for wi, word := range words {
		tokens := t.wordToPieces(word.Text)
		for _, pieceID := range tokens {
			if len(out.InputIDs) >= t.maxSeqLen-1 {
				break
			}
			out.InputIDs = append(out.InputIDs, int64(pieceID))
			out.AttentionMask = append(out.AttentionMask, 1)
			out.TokenTypeIDs = append(out.TokenTypeIDs, 0)
			out.TokenToWordIdx = append(out.TokenToWordIdx, wi)
		}
		if len(out.InputIDs) >= t.maxSeqLen-1 {
			break
		}
	}
	out.InputIDs = append(out.InputIDs, int64(t.sepID))
	out.AttentionMask = append(out.AttentionMask, 1)
	out.TokenTypeIDs = append(out.TokenTypeIDs, 0)
	out.TokenToWordIdx = append(out.TokenToWordIdx, -1)
	return out, nil
}

func (t *WordPieceTokenizer) wordToPieces(word string) []int {
	if word == "" {
		return []int{t.unkID}
	}
	normalized := word
	if t.lowercase {
		normalized = strings.ToLower(word)
	}
	runes := []rune(normalized)
	if len(runes) > t.maxWordLen {
		return []int{t.unkID}
	}
	if id, ok := t.vocab[string(runes)]; ok {
		return []int{id}
	}
	ids := make([]int, 0)
	start := 0
	for start < len(runes) {
		end := len(runes)
		found := -1
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				found = id
				break
			}
			end--
		}
		if found == -1 {
			return []int{t.unkID}
		}
		ids = append(ids, found)
		start = end
	}
	if len(ids) == 0 {
		return []int{t.unkID}
	}
	return ids
}

// SplitWords splits text into letter/digit runs with rune offsets. Ideographic
// characters are letters, so Japanese text yields one token per unbroken run.
func SplitWords(text string) []Token {
	tokens := make([]Token, 0)
	start := -1
	var sb strings.Builder
	ri := 0
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if start < 0 {
				start = ri
				sb.Reset()
			}
			sb.WriteRune(r)
			ri++
			continue
		}
		if start >= 0 {
			tokens = append(tokens, Token{Text: sb.String(), Start: start, End: ri})
			start = -1
		}
		ri++
	}
	if start >= 0 {
		tokens = append(tokens, Token{Text: sb.String(), Start: start, End: ri})
	}
	return tokens
}
