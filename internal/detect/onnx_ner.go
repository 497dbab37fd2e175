package detect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

var ErrNERUnavailable = errors.New("onnx ner unavailable")

// nerBackend runs token classification over one encoded sequence and returns
// a raw label and score per word. Implementations are selected at build time:
// the onnxruntime build tag enables the native runtime, otherwise a
// deterministic stub stands in so the pipeline contract stays testable
// without model files.
type nerBackend interface {
	Infer(ctx context.Context, enc *Encoding) (labels []string, scores []float64, err error)
	Close() error
}

type ONNXNERConfig struct {
	ModelDir string
	MaxBytes int
	Source   Source
}

// ONNXNERDetector tags named entities with an ONNX token-classification
// model. The model, labels and tokenizer are loaded once on first use; if
// loading fails the detector reports ErrNERUnavailable and the orchestrator
// degrades to the remaining detectors.
type ONNXNERDetector struct {
	cfg       ONNXNERConfig
	once      sync.Once
	loadErr   error
	labels    map[int]string
	tokenizer *WordPieceTokenizer
	backend   nerBackend
}

func NewONNXNERDetector(cfg ONNXNERConfig) *ONNXNERDetector {
	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 32 * 1024
	}
	if cfg.Source == "" {
		cfg.Source = SourceTransformer
	}
	return &ONNXNERDetector{cfg: cfg}
}

func (d *ONNXNERDetector) init() error {
	d.once.Do(func() {
		modelPath := filepath.Join(d.cfg.ModelDir, "model.onnx")
		labelsPath := filepath.Join(d.cfg.ModelDir, "labels.json")
		tokenizerPath := filepath.Join(d.cfg.ModelDir, "tokenizer.json")
		labelsRaw, err := os.ReadFile(labelsPath)
		if err != nil {
			d.loadErr = fmt.Errorf("labels missing: %w", err)
			return
		}
		var labels map[string]string
		if err := json.Unmarshal(labelsRaw, &labels); err != nil {
			d.loadErr = fmt.Errorf("parse labels: %w", err)
			return
		}
		d.labels = map[int]string{}
		for k, v := range labels {
			var idx int
			_, _ = fmt.Sscanf(k, "%d", &idx)
			d.labels[idx] = v
		}
		d.tokenizer, d.loadErr = NewWordPieceTokenizer(tokenizerPath)
		if d.loadErr != nil {
			return
		}
		d.backend, d.loadErr = newNERBackend(modelPath, d.labels)
	})
	return d.loadErr
}

// Close releases backend resources. Safe to call before first Detect.
func (d *ONNXNERDetector) Close() error {
	if d.backend != nil {
		return d.backend.Close()
	}
	return nil
}

func (d *ONNXNERDetector) Detect(ctx context.Context, text string) ([]RawCandidate, error) {
	if len(text) == 0 || len(text) > d.cfg.MaxBytes {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := d.init(); err != nil {
		return nil, ErrNERUnavailable
	}
	enc, err := d.tokenizer.Encode(text)
	if err != nil {
		return nil, err
	}
	labels, scores, err := d.backend.Infer(ctx, enc)
	if err != nil {
		return nil, err
	}
	if len(labels) != len(enc.Words) || len(scores) != len(enc.Words) {
		return nil, fmt.Errorf("backend returned %d labels for %d words", len(labels), len(enc.Words))
	}
	tls := make([]TokenLabel, len(enc.Words))
	for i, w := range enc.Words {
		tls[i] = TokenLabel{Start: w.Start, End: w.End, Label: labels[i], Score: scores[i]}
	}
	return DecodeBIO(tls, d.cfg.Source), nil
}
