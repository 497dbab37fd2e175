package audit

import (
	"os"
	"path/filepath"
	"testing"

	"maskpipe/internal/reconcile"
)

func TestJSONLSinkRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	sink, err := NewJSONLSink(path)
	if err != nil {
		t.Fatalf("NewJSONLSink: %v", err)
	}
	sink.WithTraceID(func() string { return "trace-1" })

	events := []reconcile.Event{
		{Kind: reconcile.EventRecoveryDiscard, Reason: reconcile.ReasonNoMatch, Value: "山田", Start: -1, End: -1, Source: "GENERATIVE"},
		{Kind: reconcile.EventConsensusReject, Reason: reconcile.ReasonTypeMismatch, Start: 4, End: 8, Source: "NER"},
		{Kind: reconcile.EventConsensusReject, Reason: reconcile.ReasonTypeMismatch, Start: 9, End: 12, Source: "NER"},
	}
	for _, ev := range events {
		if err := sink.Record(ev); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	entries, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != len(events) {
		t.Fatalf("parsed %d entries, want %d", len(entries), len(events))
	}
	if entries[0].TraceID != "trace-1" {
		t.Errorf("trace id = %q", entries[0].TraceID)
	}
	if entries[0].Event.Value != "山田" || entries[0].Event.Reason != reconcile.ReasonNoMatch {
		t.Errorf("first event = %+v", entries[0].Event)
	}

	s := Summarize(entries)
	if s.Total != 3 {
		t.Errorf("total = %d", s.Total)
	}
	if s.ByKind[reconcile.EventConsensusReject] != 2 {
		t.Errorf("consensus rejects = %d", s.ByKind[reconcile.EventConsensusReject])
	}
	if s.ByReason["CONSENSUS_REJECT/TYPE_MISMATCH"] != 2 {
		t.Errorf("by reason = %+v", s.ByReason)
	}
}

func TestParseFileMissing(t *testing.T) {
	entries, err := ParseFile(filepath.Join(t.TempDir(), "nope.log"))
	if err != nil || entries != nil {
		t.Fatalf("entries=%v err=%v", entries, err)
	}
}

func TestParseFileSkipsGarbageLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	sink, err := NewJSONLSink(path)
	if err != nil {
		t.Fatalf("NewJSONLSink: %v", err)
	}
	if err := sink.Record(reconcile.Event{Kind: reconcile.EventNoiseReject, Reason: reconcile.ReasonNoiseContent}); err != nil {
		t.Fatalf("Record: %v", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := f.WriteString("not json\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	f.Close()

	entries, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("parsed %d entries, want 1", len(entries))
	}
}
