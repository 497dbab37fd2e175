package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"maskpipe/internal/reconcile"
)

// Entry is one audit record: a pipeline event plus request correlation.
type Entry struct {
	Timestamp string          `json:"timestamp"`
	TraceID   string          `json:"trace_id,omitempty"`
	Event     reconcile.Event `json:"event"`
}

// JSONLSink appends events to a JSON-lines file. It implements
// reconcile.Sink; the pipeline swallows its errors, so a full disk degrades
// to lost audit lines, never to failed requests.
type JSONLSink struct {
	path    string
	traceID func() string
	mu      sync.Mutex
}

func NewJSONLSink(path string) (*JSONLSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create audit dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create audit log: %w", err)
	}
	_ = f.Close()
	return &JSONLSink{path: path}, nil
}

// WithTraceID sets a callback supplying the current trace ID per event.
func (s *JSONLSink) WithTraceID(fn func() string) *JSONLSink {
	s.traceID = fn
	return s
}

func (s *JSONLSink) Record(ev reconcile.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Event:     ev,
	}
	if s.traceID != nil {
		entry.TraceID = s.traceID()
	}

	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(entry); err != nil {
		return fmt.Errorf("write audit log: %w", err)
	}
	return nil
}
