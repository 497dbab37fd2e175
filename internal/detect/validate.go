package detect

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	emailValidRegexp   = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phoneJPValidRegexp = regexp.MustCompile(`^0\d{1,4}-?\d{1,4}-?\d{4}$|^\+81-?\d{1,4}-?\d{1,4}-?\d{4}$`)
	phoneENValidRegexp = regexp.MustCompile(`^\+1-?\d{3}-?\d{3}-?\d{4}$|^\(\d{3}\)\s?\d{3}-\d{4}$`)
	zipJPValidRegexp   = regexp.MustCompile(`^〒?\s*\d{3}-\d{4}$`)
	zipUSValidRegexp   = regexp.MustCompile(`^\d{5}(-\d{4})?$`)

	dateValidRegexps = []*regexp.Regexp{
		regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})$`),
		regexp.MustCompile(`^(\d{4})/(\d{1,2})/(\d{1,2})$`),
		regexp.MustCompile(`^(\d{4})年(\d{1,2})月(\d{1,2})日$`),
	}
	eraDateValidRegexp = regexp.MustCompile(`^(?:令和|平成|昭和)(\d{1,2})年(\d{1,2})月(\d{1,2})日$`)
)

// ValidEmail re-validates a regex hit against the full-string form.
func ValidEmail(s string) bool {
	return emailValidRegexp.MatchString(strings.TrimSpace(s))
}

func ValidPhoneJP(s string) bool {
	clean := strings.NewReplacer(" ", "", "　", "").Replace(s)
	return phoneJPValidRegexp.MatchString(clean)
}

func ValidPhoneEN(s string) bool {
	return phoneENValidRegexp.MatchString(strings.TrimSpace(s))
}

func ValidZipJP(s string) bool {
	return zipJPValidRegexp.MatchString(strings.TrimSpace(s))
}

func ValidZipUS(s string) bool {
	return zipUSValidRegexp.MatchString(strings.TrimSpace(s))
}

// ValidDate accepts ISO, slash, kanji and era forms with a plausible
// year/month/day. Era years are bounded loosely; the point is rejecting
// digit runs that only look like dates.
func ValidDate(s string) bool {
	s = strings.TrimSpace(s)
	for _, re := range dateValidRegexps {
		m := re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return year >= 1900 && year <= 2100 && month >= 1 && month <= 12 && day >= 1 && day <= 31
	}
	if m := eraDateValidRegexp.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		return month >= 1 && month <= 12 && day >= 1 && day <= 31
	}
	return false
}
