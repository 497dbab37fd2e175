package reconcile

import (
	"strings"

	"maskpipe/internal/detect"
)

// Vocabulary maps one detector family's raw labels to canonical types.
type Vocabulary map[string]detect.CanonicalType

// Mapping holds one vocabulary per detector source. The lookup is total:
// labels missing from the table normalize to UNKNOWN, never fail.
type Mapping map[detect.Source]Vocabulary

// Normalize strips a BIO prefix if present and resolves the label through
// the source's vocabulary. The second return reports whether the label was
// actually in the table.
func (m Mapping) Normalize(source detect.Source, rawLabel string) (detect.CanonicalType, bool) {
	label := StripBIO(rawLabel)
	vocab, ok := m[source]
	if !ok {
		return detect.TypeUnknown, false
	}
	if t, ok := vocab[label]; ok {
		return t, true
	}
	return detect.TypeUnknown, false
}

// StripBIO removes a leading B-/I- tag prefix.
func StripBIO(label string) string {
	if strings.HasPrefix(label, "B-") || strings.HasPrefix(label, "I-") {
		return label[2:]
	}
	return label
}

// DefaultMapping covers the raw vocabularies of the built-in detectors plus
// the common labels of public NER models (CoNLL abbreviations, the bare
// labels of Japanese taggers).
func DefaultMapping() Mapping {
	model := Vocabulary{
		"PERSON":       detect.TypePerson,
		"PER":          detect.TypePerson,
		"人名":           detect.TypePerson,
		"JP_PERSON":    detect.TypePerson,
		"LOCATION":     detect.TypeLocation,
		"LOC":          detect.TypeLocation,
		"GPE":          detect.TypeLocation,
		"地名":           detect.TypeLocation,
		"JP_ADDRESS":   detect.TypeLocation,
		"ORGANIZATION": detect.TypeOrganization,
		"ORG":          detect.TypeOrganization,
		"法人名":          detect.TypeOrganization,
		"組織名":          detect.TypeOrganization,
	}
	pattern := Vocabulary{
		detect.RawEmail:       detect.TypeEmail,
		detect.RawPhoneJP:     detect.TypePhone,
		detect.RawPhoneEN:     detect.TypePhone,
		detect.RawZipJP:       detect.TypeZipCode,
		detect.RawZipUS:       detect.TypeZipCode,
		detect.RawBirthDateJP: detect.TypeDateOfBirth,
		detect.RawAgeJP:       detect.TypeAge,
		detect.RawGenderJP:    detect.TypeGender,
		detect.RawAddressJP:   detect.TypeLocation,
		detect.RawPersonJP:    detect.TypePerson,
		detect.RawOrgJP:       detect.TypeOrganization,
		detect.RawCustomerID:  detect.TypeCustomerID,
	}
	generative := Vocabulary{}
	for k, v := range pattern {
		generative[k] = v
	}
	return Mapping{
		detect.SourcePattern:     pattern,
		detect.SourceNER:         model,
		detect.SourceTransformer: model,
		detect.SourceGenerative:  generative,
	}
}
