package detect

import "context"

// Source identifies which detector family produced a candidate.
type Source string

const (
	SourcePattern     Source = "PATTERN"
	SourceNER         Source = "NER"
	SourceTransformer Source = "TRANSFORMER"
	SourceGenerative  Source = "GENERATIVE"
	SourceConsensus   Source = "CONSENSUS"
)

// CanonicalType is the closed taxonomy used for cross-detector comparison.
// Raw detector labels are mapped onto it by the reconcile normalizer.
type CanonicalType string

const (
	TypePerson       CanonicalType = "PERSON"
	TypeLocation     CanonicalType = "LOCATION"
	TypeOrganization CanonicalType = "ORGANIZATION"
	TypePhone        CanonicalType = "PHONE"
	TypeEmail        CanonicalType = "EMAIL"
	TypeZipCode      CanonicalType = "ZIP_CODE"
	TypeDateOfBirth  CanonicalType = "DATE_OF_BIRTH"
	TypeAge          CanonicalType = "AGE"
	TypeGender       CanonicalType = "GENDER"
	TypeCustomerID   CanonicalType = "CUSTOMER_ID"
	TypeUnknown      CanonicalType = "UNKNOWN"
)

// RawCandidate is one detector's proposed span, before type normalization.
// Start and End are rune offsets into the original text,
// left-inclusive/right-exclusive. The snippet is always derived by slicing,
// never stored, so it cannot diverge from the text.
type RawCandidate struct {
	Start   int
	End     int
	RawType string
	Score   float64
	Source  Source
}

// Candidate is a reconciled span with its canonical type. RawType keeps the
// original detector label for audit.
type Candidate struct {
	Start   int
	End     int
	Type    CanonicalType
	RawType string
	Score   float64
	Source  Source
}

// TaggedValue is one extraction from a generative model that rewrites the
// whole text and tags values without emitting offsets. Left and Right hold
// the immediate untagged context from the generation, used as search anchors
// during span recovery.
type TaggedValue struct {
	Value string
	Tag   string
	Left  string
	Right string
}

// Detector produces offset-bearing candidates for a text.
type Detector interface {
	Detect(ctx context.Context, text string) ([]RawCandidate, error)
}

// GenerativeDetector produces ordered tagged values without offsets; the
// reconcile span recovery engine maps them back onto the text.
type GenerativeDetector interface {
	DetectTagged(ctx context.Context, text string) ([]TaggedValue, error)
}
