package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"maskpipe/internal/audit"
	"maskpipe/internal/config"
	"maskpipe/internal/detect"
	"maskpipe/internal/reconcile"
	"maskpipe/internal/redact"
	"maskpipe/internal/trace"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "maskpipe: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	var (
		cfgPath    = flag.String("config", "", "config file path (default ~/.maskpipe/config.yaml)")
		inPath     = flag.String("in", "-", "input text file, - for stdin")
		genPath    = flag.String("generative", "", "file holding the generative model's tagged rewrite")
		jsonOut    = flag.Bool("json", false, "emit candidates as JSON instead of masked text")
		strictFlag = flag.Bool("strict", true, "require dual-detector agreement for name-like types")
		debug      = flag.Bool("debug", false, "verbose logging")
	)
	flag.Parse()

	logger, err := newLogger(*debug)
	if err != nil {
		return err
	}
	defer logger.Sync()

	path := *cfgPath
	if path == "" {
		if path, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg.Strict = *strictFlag

	text, err := readInput(*inPath)
	if err != nil {
		return err
	}
	if text == "" {
		return errors.New("empty input text")
	}

	sink, err := audit.NewJSONLSink(cfg.AuditLog)
	if err != nil {
		return err
	}
	tr := trace.NewPipelineTrace()
	sink.WithTraceID(func() string { return tr.ID })

	pipeline, err := reconcile.New(cfg.Pipeline(sink))
	if err != nil {
		return err
	}
	detectors, err := buildDetectors(cfg, *genPath, logger)
	if err != nil {
		return err
	}
	analyzer := reconcile.NewAnalyzer(pipeline, detectors,
		time.Duration(cfg.DetectorTimeoutSec)*time.Second, logger)

	ctx := trace.WithContext(context.Background(), tr)
	candidates := analyzer.Analyze(ctx, text)

	tr.RedactStart = time.Now()
	masked, items := redact.NewMasker().WithMasks(cfg.EntityMasks()).Mask(text, candidates)
	tr.RedactEnd = time.Now()
	tr.LogAt(logger, tr.RedactEnd)

	if *jsonOut {
		return writeJSON(os.Stdout, text, candidates, items)
	}
	_, err = fmt.Println(masked)
	return err
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildDetectors(cfg config.Config, genPath string, logger *zap.Logger) (reconcile.Detectors, error) {
	det := reconcile.Detectors{
		Pattern: detect.PatternDetector{},
	}
	if cfg.NERModelDir != "" {
		det.NER = detect.NewONNXNERDetector(detect.ONNXNERConfig{
			ModelDir: cfg.NERModelDir,
			Source:   detect.SourceNER,
		})
	}
	if genPath != "" {
		rewritten, err := os.ReadFile(genPath)
		if err != nil {
			return reconcile.Detectors{}, fmt.Errorf("read generative output: %w", err)
		}
		det.Generative = detect.StaticGenerative{Rewritten: string(rewritten)}
	}
	logger.Debug("detectors ready",
		zap.Bool("ner", det.NER != nil),
		zap.Bool("generative", det.Generative != nil),
	)
	return det, nil
}

func readInput(path string) (string, error) {
	if path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(data), nil
}

type result struct {
	Candidates []candidateJSON `json:"candidates"`
	Items      []itemJSON      `json:"items,omitempty"`
}

type candidateJSON struct {
	Start   int     `json:"start"`
	End     int     `json:"end"`
	Type    string  `json:"type"`
	RawType string  `json:"raw_type"`
	Score   float64 `json:"score"`
	Source  string  `json:"source"`
	Text    string  `json:"text"`
}

type itemJSON struct {
	Type        string `json:"type"`
	Placeholder string `json:"placeholder"`
}

func writeJSON(w io.Writer, text string, candidates []detect.Candidate, items []redact.Item) error {
	textRunes := []rune(text)
	out := result{Candidates: make([]candidateJSON, 0, len(candidates))}
	for _, c := range candidates {
		out.Candidates = append(out.Candidates, candidateJSON{
			Start: c.Start, End: c.End,
			Type: string(c.Type), RawType: c.RawType,
			Score: c.Score, Source: string(c.Source),
			Text: string(textRunes[c.Start:c.End]),
		})
	}
	for _, it := range items {
		out.Items = append(out.Items, itemJSON{Type: string(it.Type), Placeholder: it.Placeholder})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
