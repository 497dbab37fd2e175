package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"maskpipe/internal/audit"
	"maskpipe/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "maskaudit: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var (
		logPath = flag.String("log", "", "audit log path (default from config)")
		tail    = flag.Int("tail", 0, "show the last N raw entries after the summary")
	)
	flag.Parse()

	path := *logPath
	if path == "" {
		cfgPath, err := config.ConfigPath()
		if err != nil {
			return err
		}
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return err
		}
		path = cfg.AuditLog
	}

	entries, err := audit.ParseFile(path)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("no audit entries")
		return nil
	}

	s := audit.Summarize(entries)
	fmt.Printf("entries: %d\n", s.Total)
	for _, key := range s.ReasonKeys() {
		fmt.Printf("  %-50s %d\n", key, s.ByReason[key])
	}

	if *tail > 0 {
		from := len(entries) - *tail
		if from < 0 {
			from = 0
		}
		fmt.Println()
		for _, e := range entries[from:] {
			fmt.Printf("%s trace=%s %s/%s source=%s span=[%d,%d) value=%q\n",
				e.Timestamp, e.TraceID,
				e.Event.Kind, e.Event.Reason, e.Event.Source,
				e.Event.Start, e.Event.End, e.Event.Value)
		}
	}
	return nil
}
