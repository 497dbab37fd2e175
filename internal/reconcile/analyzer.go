package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"maskpipe/internal/detect"
	"maskpipe/internal/trace"
)

// Detectors is the set a request fans out to. Any field may be nil; a nil or
// failing detector contributes an empty list.
type Detectors struct {
	Pattern     detect.Detector
	NER         detect.Detector
	Transformer detect.Detector
	Generative  detect.GenerativeDetector
}

// Analyzer runs the detectors concurrently and feeds their outputs through
// the pipeline. Detector failures and timeouts degrade to empty inputs; the
// reconciliation itself never fails.
type Analyzer struct {
	pipeline *Pipeline
	det      Detectors
	timeout  time.Duration
	log      *zap.Logger
}

func NewAnalyzer(pipeline *Pipeline, det Detectors, timeout time.Duration, log *zap.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Analyzer{pipeline: pipeline, det: det, timeout: timeout, log: log}
}

// Analyze fans out to all configured detectors, fans their candidate lists
// in, and reconciles. Offsets in the result are rune indices into text.
func (a *Analyzer) Analyze(ctx context.Context, text string) []detect.Candidate {
	tr, _ := trace.FromContext(ctx)
	if tr != nil {
		tr.DetectStart = time.Now()
	}

	var in Inputs
	var wg sync.WaitGroup
	run := func(name string, d detect.Detector, dst *[]detect.RawCandidate) {
		if d == nil {
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			dctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			cands, err := d.Detect(dctx, text)
			if err != nil {
				a.log.Warn("detector failed", zap.String("detector", name), zap.Error(err))
				return
			}
			*dst = cands
		}()
	}
	run("pattern", a.det.Pattern, &in.Pattern)
	run("ner", a.det.NER, &in.NER)
	run("transformer", a.det.Transformer, &in.Transformer)
	if a.det.Generative != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dctx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()
			values, err := a.det.Generative.DetectTagged(dctx, text)
			if err != nil {
				a.log.Warn("detector failed", zap.String("detector", "generative"), zap.Error(err))
				return
			}
			in.Generative = values
		}()
	}
	wg.Wait()

	if tr != nil {
		tr.DetectEnd = time.Now()
		tr.ReconcileStart = tr.DetectEnd
	}
	out := a.pipeline.Reconcile(text, in)
	if tr != nil {
		tr.ReconcileEnd = time.Now()
	}
	return out
}
