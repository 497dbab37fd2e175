package redact

import (
	"strings"
	"testing"

	"maskpipe/internal/detect"
)

func TestMaskRuneOffsets(t *testing.T) {
	text := "氏名: 山田太郎 電話: 090-1234-5678"
	masked, items := NewMasker().Mask(text, []detect.Candidate{
		{Start: 4, End: 8, Type: detect.TypePerson},
		{Start: 13, End: 26, Type: detect.TypePhone},
	})
	want := "氏名: [PERSON_1] 電話: [PHONE_1]"
	if masked != want {
		t.Fatalf("masked = %q, want %q", masked, want)
	}
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Original != "山田太郎" && items[1].Original != "山田太郎" {
		t.Errorf("original value lost: %+v", items)
	}
}

func TestMaskStablePlaceholderForRepeatedValue(t *testing.T) {
	text := "a@b.co と a@b.co"
	masked, items := NewMasker().Mask(text, []detect.Candidate{
		{Start: 0, End: 6, Type: detect.TypeEmail},
		{Start: 9, End: 15, Type: detect.TypeEmail},
	})
	if masked != "[EMAIL_1] と [EMAIL_1]" {
		t.Fatalf("masked = %q", masked)
	}
	if len(items) != 1 {
		t.Fatalf("repeated value produced %d items", len(items))
	}
}

func TestMaskFixedMaskPerType(t *testing.T) {
	text := "TEL 090-1234-5678"
	masked, _ := NewMasker().
		WithMasks(map[detect.CanonicalType]string{detect.TypePhone: "***-****-****"}).
		Mask(text, []detect.Candidate{{Start: 4, End: 17, Type: detect.TypePhone}})
	if masked != "TEL ***-****-****" {
		t.Fatalf("masked = %q", masked)
	}
}

func TestMaskSkipsInvalidSpans(t *testing.T) {
	text := "短い"
	masked, items := NewMasker().Mask(text, []detect.Candidate{
		{Start: 0, End: 99, Type: detect.TypePerson},
		{Start: 1, End: 1, Type: detect.TypePerson},
	})
	if masked != text || len(items) != 0 {
		t.Fatalf("masked = %q items = %+v", masked, items)
	}
}

func TestRestore(t *testing.T) {
	text := "氏名: 山田太郎"
	masked, items := NewMasker().Mask(text, []detect.Candidate{
		{Start: 4, End: 8, Type: detect.TypePerson},
	})
	if strings.Contains(masked, "山田太郎") {
		t.Fatalf("value leaked: %q", masked)
	}
	if got := Restore(masked, items); got != text {
		t.Fatalf("Restore = %q, want %q", got, text)
	}
}

func TestMaskOverlapFirstWins(t *testing.T) {
	text := "abcdefghij"
	masked, _ := NewMasker().Mask(text, []detect.Candidate{
		{Start: 0, End: 6, Type: detect.TypePerson},
		{Start: 4, End: 9, Type: detect.TypeLocation},
	})
	if masked != "[PERSON_1]ghij" {
		t.Fatalf("masked = %q", masked)
	}
}
