package detect

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Raw label vocabulary emitted by the pattern detector. The reconcile
// normalizer maps these onto the canonical taxonomy.
const (
	RawEmail       = "EMAIL_ADDRESS"
	RawPhoneJP     = "PHONE_NUMBER_JP"
	RawPhoneEN     = "PHONE_NUMBER"
	RawZipJP       = "JP_ZIP_CODE"
	RawZipUS       = "US_ZIP_CODE"
	RawBirthDateJP = "DATE_OF_BIRTH_JP"
	RawDate        = "DATE"
	RawAgeJP       = "JP_AGE"
	RawGenderJP    = "JP_GENDER"
	RawAddressJP   = "JP_ADDRESS"
	RawPersonJP    = "JP_PERSON"
	RawOrgJP       = "JP_ORGANIZATION"
	RawCustomerID  = "CUSTOMER_ID_JP"
)

var (
	emailRegexp = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	phoneJPRegexps = []*regexp.Regexp{
		regexp.MustCompile(`0[789]0-\d{4}-\d{4}`),
		regexp.MustCompile(`0\d{1,4}-\d{1,4}-\d{4}`),
		regexp.MustCompile(`\+81-?\d{1,4}-?\d{1,4}-?\d{4}`),
	}
	phoneENRegexps = []*regexp.Regexp{
		regexp.MustCompile(`\+1-?\d{3}-?\d{3}-?\d{4}`),
		regexp.MustCompile(`\(\d{3}\)\s?\d{3}-\d{4}`),
	}

	zipJPRegexp = regexp.MustCompile(`〒?\s*\d{3}-\d{4}`)
	zipUSRegexp = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)

	dateRegexps = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`),
		regexp.MustCompile(`\b\d{4}/\d{1,2}/\d{1,2}\b`),
		regexp.MustCompile(`\d{4}年\d{1,2}月\d{1,2}日`),
		regexp.MustCompile(`(?:令和|平成|昭和)\d{1,2}年\d{1,2}月\d{1,2}日`),
	}

	ageJPRegexp    = regexp.MustCompile(`(\d{1,3})\s*歳`)
	genderJPRegexp = regexp.MustCompile(`[（(]?\s*(男性|女性|男|女)\s*[）)]?`)

	customerIDRegexp = regexp.MustCompile(`(?i)(?:customer[ _-]?id|member[ _-]?id|会員番号|お客様番号|顧客番号)[:：]?\s*([A-Za-z0-9][A-Za-z0-9_\-]{3,})`)
)

var birthContextWords = []string{"birth", "生年月日", "誕生", "生まれ", "date of birth"}

var phoneContextWords = []string{"TEL", "Tel", "tel", "電話", "携帯", "自宅"}

var zipContextWords = []string{"〒", "郵便番号", "郵便", "zip", "ZIP"}

// jpPrefectures anchors Japanese address extraction. A prefecture name alone
// is not an address; the detector requires trailing content.
var jpPrefectures = []string{
	"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県",
	"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県",
	"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県",
	"静岡県", "愛知県", "三重県", "滋賀県", "京都府", "大阪府", "兵庫県",
	"奈良県", "和歌山県", "鳥取県", "島根県", "岡山県", "広島県", "山口県",
	"徳島県", "香川県", "愛媛県", "高知県", "福岡県", "佐賀県", "長崎県",
	"熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県",
}

var addressDelimiters = []string{"\n", "　", "  ", "Email", "email", "Phone", "phone", "TEL", "tel"}

// PatternDetector finds structured PII (emails, phones, postal codes, dates,
// ages, genders, addresses, labeled customer IDs) with regexes plus context
// keywords. Matches failing strict format validation are not emitted.
type PatternDetector struct{}

func (PatternDetector) Detect(_ context.Context, text string) ([]RawCandidate, error) {
	offs := runeOffsets(text)
	out := make([]RawCandidate, 0)
	out = append(out, findEmails(text, offs)...)
	out = append(out, findPhones(text, offs)...)
	out = append(out, findZipCodes(text, offs)...)
	out = append(out, findDates(text, offs)...)
	out = append(out, findAges(text, offs)...)
	out = append(out, findGenders(text, offs)...)
	out = append(out, findJPAddresses(text, offs)...)
	out = append(out, findCustomerIDs(text, offs)...)
	return out, nil
}

func findEmails(text string, offs []int) []RawCandidate {
	var out []RawCandidate
	for _, idx := range emailRegexp.FindAllStringIndex(text, -1) {
		if !ValidEmail(text[idx[0]:idx[1]]) {
			continue
		}
		out = append(out, RawCandidate{Start: offs[idx[0]], End: offs[idx[1]], RawType: RawEmail, Score: 0.95, Source: SourcePattern})
	}
	return out
}

func findPhones(text string, offs []int) []RawCandidate {
	var out []RawCandidate
	for _, re := range phoneJPRegexps {
		for _, idx := range re.FindAllStringIndex(text, -1) {
			if !ValidPhoneJP(text[idx[0]:idx[1]]) {
				continue
			}
			score := boostByContext(text, idx[0], phoneContextWords, 0.9)
			out = append(out, RawCandidate{Start: offs[idx[0]], End: offs[idx[1]], RawType: RawPhoneJP, Score: score, Source: SourcePattern})
		}
	}
	for _, re := range phoneENRegexps {
		for _, idx := range re.FindAllStringIndex(text, -1) {
			if !ValidPhoneEN(text[idx[0]:idx[1]]) {
				continue
			}
			score := boostByContext(text, idx[0], phoneContextWords, 0.9)
			out = append(out, RawCandidate{Start: offs[idx[0]], End: offs[idx[1]], RawType: RawPhoneEN, Score: score, Source: SourcePattern})
		}
	}
	return dedupeSameType(out)
}

func findZipCodes(text string, offs []int) []RawCandidate {
	var out []RawCandidate
	for _, idx := range zipJPRegexp.FindAllStringIndex(text, -1) {
		// Year ranges like 2016-2024 would otherwise match as 016-2024.
		if idx[0] > 0 && isASCIIDigit(text[idx[0]-1]) {
			continue
		}
		if !ValidZipJP(text[idx[0]:idx[1]]) {
			continue
		}
		score := boostByContext(text, idx[0], zipContextWords, 0.95)
		out = append(out, RawCandidate{Start: offs[idx[0]], End: offs[idx[1]], RawType: RawZipJP, Score: score, Source: SourcePattern})
	}
	for _, idx := range zipUSRegexp.FindAllStringIndex(text, -1) {
		val := text[idx[0]:idx[1]]
		if looksLikeYear(val) || !ValidZipUS(val) {
			continue
		}
		out = append(out, RawCandidate{Start: offs[idx[0]], End: offs[idx[1]], RawType: RawZipUS, Score: 0.7, Source: SourcePattern})
	}
	return out
}

func findDates(text string, offs []int) []RawCandidate {
	var out []RawCandidate
	for _, re := range dateRegexps {
		for _, idx := range re.FindAllStringIndex(text, -1) {
			if !ValidDate(text[idx[0]:idx[1]]) {
				continue
			}
			rawType, score := RawDate, 0.5
			if hasContextWord(text, idx[0], birthContextWords) {
				rawType, score = RawBirthDateJP, 0.9
			}
			out = append(out, RawCandidate{Start: offs[idx[0]], End: offs[idx[1]], RawType: rawType, Score: score, Source: SourcePattern})
		}
	}
	return dedupeSameType(out)
}

func findAges(text string, offs []int) []RawCandidate {
	var out []RawCandidate
	for _, idx := range ageJPRegexp.FindAllStringSubmatchIndex(text, -1) {
		age, err := strconv.Atoi(text[idx[2]:idx[3]])
		if err != nil || age < 0 || age > 120 {
			continue
		}
		out = append(out, RawCandidate{Start: offs[idx[0]], End: offs[idx[1]], RawType: RawAgeJP, Score: 0.85, Source: SourcePattern})
	}
	return out
}

func findGenders(text string, offs []int) []RawCandidate {
	var out []RawCandidate
	for _, idx := range genderJPRegexp.FindAllStringIndex(text, -1) {
		out = append(out, RawCandidate{Start: offs[idx[0]], End: offs[idx[1]], RawType: RawGenderJP, Score: 0.8, Source: SourcePattern})
	}
	return out
}

func findJPAddresses(text string, offs []int) []RawCandidate {
	var out []RawCandidate
	for _, pref := range jpPrefectures {
		from := 0
		for {
			rel := strings.Index(text[from:], pref)
			if rel < 0 {
				break
			}
			start := from + rel
			end := len(text)
			for _, delim := range addressDelimiters {
				if d := strings.Index(text[start:], delim); d >= 0 && start+d < end {
					end = start + d
				}
			}
			addr := strings.TrimRight(text[start:end], " \t")
			// Prefecture alone is not an address.
			if len(addr) > len(pref)+2 {
				out = append(out, RawCandidate{Start: offs[start], End: offs[start+len(addr)], RawType: RawAddressJP, Score: 0.75, Source: SourcePattern})
			}
			from = start + len(pref)
		}
	}
	return out
}

func findCustomerIDs(text string, offs []int) []RawCandidate {
	var out []RawCandidate
	for _, idx := range customerIDRegexp.FindAllStringSubmatchIndex(text, -1) {
		id := text[idx[2]:idx[3]]
		if ShannonEntropy(id) < 1.5 {
			continue
		}
		out = append(out, RawCandidate{Start: offs[idx[2]], End: offs[idx[3]], RawType: RawCustomerID, Score: 0.85, Source: SourcePattern})
	}
	return out
}

// boostByContext raises the base score when a context keyword appears shortly
// before the match.
func boostByContext(text string, matchStart int, words []string, base float64) float64 {
	if hasContextWord(text, matchStart, words) {
		if base+0.04 > 0.99 {
			return 0.99
		}
		return base + 0.04
	}
	return base
}

func hasContextWord(text string, matchStart int, words []string) bool {
	windowStart := matchStart - 60
	if windowStart < 0 {
		windowStart = 0
	}
	window := text[windowStart:matchStart]
	for _, w := range words {
		if strings.Contains(window, w) {
			return true
		}
	}
	return false
}

func looksLikeYear(s string) bool {
	if len(s) < 4 {
		return false
	}
	year, err := strconv.Atoi(s[:4])
	return err == nil && year >= 1900 && year <= 2100
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

// dedupeSameType drops candidates whose span is covered by another candidate
// in the same batch. Overlapping regexes (mobile vs general phone, ISO vs
// slash dates) otherwise report the same text twice.
func dedupeSameType(in []RawCandidate) []RawCandidate {
	out := make([]RawCandidate, 0, len(in))
	for i, c := range in {
		covered := false
		for j, other := range in {
			if i == j {
				continue
			}
			if other.Start <= c.Start && c.End <= other.End && (other.End-other.Start > c.End-c.Start || j < i) {
				covered = true
				break
			}
		}
		if !covered {
			out = append(out, c)
		}
	}
	return out
}
