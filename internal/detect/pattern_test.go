package detect

import (
	"context"
	"testing"
)

func detectAll(t *testing.T, text string) []RawCandidate {
	t.Helper()
	out, err := PatternDetector{}.Detect(context.Background(), text)
	if err != nil {
		t.Fatalf("Detect: %v", err)
	}
	return out
}

func findByType(cands []RawCandidate, rawType string) []RawCandidate {
	var out []RawCandidate
	for _, c := range cands {
		if c.RawType == rawType {
			out = append(out, c)
		}
	}
	return out
}

func TestPatternDetectorEmail(t *testing.T) {
	text := "連絡先: taro.yamada@example.co.jp まで"
	got := findByType(detectAll(t, text), RawEmail)
	if len(got) != 1 {
		t.Fatalf("expected 1 email, got %d", len(got))
	}
	runes := []rune(text)
	if s := string(runes[got[0].Start:got[0].End]); s != "taro.yamada@example.co.jp" {
		t.Errorf("wrong span %q", s)
	}
	if got[0].Score != 0.95 {
		t.Errorf("score = %v, want 0.95", got[0].Score)
	}
}

func TestPatternDetectorPhoneRuneOffsets(t *testing.T) {
	// Multibyte prefix shifts byte offsets away from rune offsets.
	text := "電話番号は090-1234-5678です"
	got := findByType(detectAll(t, text), RawPhoneJP)
	if len(got) != 1 {
		t.Fatalf("expected 1 phone, got %d", len(got))
	}
	if got[0].Start != 5 || got[0].End != 18 {
		t.Errorf("span = [%d,%d), want [5,18)", got[0].Start, got[0].End)
	}
	if got[0].Score <= 0.9 {
		t.Errorf("score = %v, want context boost above 0.9", got[0].Score)
	}
}

func TestPatternDetectorZipSkipsYearRange(t *testing.T) {
	got := detectAll(t, "在籍期間 2016-2024 の記録")
	if zips := findByType(got, RawZipJP); len(zips) != 0 {
		t.Errorf("year range matched as zip: %+v", zips)
	}
	got = detectAll(t, "〒150-0002 渋谷区")
	if zips := findByType(got, RawZipJP); len(zips) != 1 {
		t.Fatalf("expected 1 zip, got %d", len(zips))
	}
}

func TestPatternDetectorBirthDateNeedsContext(t *testing.T) {
	plain := findByType(detectAll(t, "納品日は2020年4月1日です"), RawBirthDateJP)
	if len(plain) != 0 {
		t.Errorf("date without birth context classified as birth date")
	}
	birth := findByType(detectAll(t, "生年月日: 1985年12月3日"), RawBirthDateJP)
	if len(birth) != 1 {
		t.Fatalf("expected 1 birth date, got %d", len(birth))
	}
	if birth[0].Score != 0.9 {
		t.Errorf("score = %v, want 0.9", birth[0].Score)
	}
}

func TestPatternDetectorAgeBounds(t *testing.T) {
	if got := findByType(detectAll(t, "山田さん（42歳）"), RawAgeJP); len(got) != 1 {
		t.Fatalf("expected 1 age, got %d", len(got))
	}
	if got := findByType(detectAll(t, "資料は500歳の樹木について"), RawAgeJP); len(got) != 0 {
		t.Errorf("implausible age matched: %+v", got)
	}
}

func TestPatternDetectorJPAddress(t *testing.T) {
	text := "住所: 東京都渋谷区神南1-19-11\n電話: 03-1234-5678"
	got := findByType(detectAll(t, text), RawAddressJP)
	if len(got) != 1 {
		t.Fatalf("expected 1 address, got %d", len(got))
	}
	runes := []rune(text)
	if s := string(runes[got[0].Start:got[0].End]); s != "東京都渋谷区神南1-19-11" {
		t.Errorf("wrong span %q", s)
	}

	// A bare prefecture name is not an address.
	if got := findByType(detectAll(t, "東京都"), RawAddressJP); len(got) != 0 {
		t.Errorf("bare prefecture matched: %+v", got)
	}
}

func TestPatternDetectorCustomerID(t *testing.T) {
	got := findByType(detectAll(t, "お客様番号: AB12-9983X でお問い合わせください"), RawCustomerID)
	if len(got) != 1 {
		t.Fatalf("expected 1 customer id, got %d", len(got))
	}
	// Low-entropy values are rejected even with the label present.
	if got := findByType(detectAll(t, "会員番号: 1111111111"), RawCustomerID); len(got) != 0 {
		t.Errorf("low-entropy id matched: %+v", got)
	}
}

func TestPatternDetectorPhoneDedupe(t *testing.T) {
	// Mobile and general regexes both match; one candidate must survive.
	got := findByType(detectAll(t, "TEL: 090-1234-5678"), RawPhoneJP)
	if len(got) != 1 {
		t.Fatalf("expected 1 phone after dedupe, got %d", len(got))
	}
}
