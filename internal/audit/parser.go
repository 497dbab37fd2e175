package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"maskpipe/internal/reconcile"
)

func ParseFile(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 64*1024)
	s.Buffer(buf, 2*1024*1024)
	for s.Scan() {
		var entry Entry
		if err := json.Unmarshal(s.Bytes(), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return entries, nil
}

// Summary aggregates event counts per kind and per (kind, reason).
type Summary struct {
	Total    int
	ByKind   map[reconcile.EventKind]int
	ByReason map[string]int
}

func Summarize(entries []Entry) Summary {
	s := Summary{
		ByKind:   make(map[reconcile.EventKind]int),
		ByReason: make(map[string]int),
	}
	for _, e := range entries {
		s.Total++
		s.ByKind[e.Event.Kind]++
		s.ByReason[string(e.Event.Kind)+"/"+string(e.Event.Reason)]++
	}
	return s
}

// ReasonKeys returns the ByReason keys in stable order for reporting.
func (s Summary) ReasonKeys() []string {
	keys := make([]string, 0, len(s.ByReason))
	for k := range s.ByReason {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
