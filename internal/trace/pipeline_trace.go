package trace

import (
	"context"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type pipelineTraceContextKey string

const traceContextKey pipelineTraceContextKey = "trace"

// PipelineTrace tracks one masking request through its stages. Sampling
// keeps the timing log affordable at volume; unsampled traces still carry an
// ID for correlation.
type PipelineTrace struct {
	ID string

	Start time.Time

	DetectStart time.Time
	DetectEnd   time.Time

	ReconcileStart time.Time
	ReconcileEnd   time.Time

	RedactStart time.Time
	RedactEnd   time.Time

	Sampled bool

	logOnce sync.Once
}

func NewPipelineTrace() *PipelineTrace {
	return &PipelineTrace{
		ID:      uuid.NewString(),
		Start:   time.Now(),
		Sampled: mathrand.Float64() <= 0.1,
	}
}

func WithContext(ctx context.Context, tr *PipelineTrace) context.Context {
	if tr == nil {
		return ctx
	}
	return context.WithValue(ctx, traceContextKey, tr)
}

func FromContext(ctx context.Context) (*PipelineTrace, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(traceContextKey).(*PipelineTrace)
	return tr, ok
}

func (t *PipelineTrace) LogAt(log *zap.Logger, end time.Time) {
	if t == nil || !t.Sampled || log == nil {
		return
	}
	t.logOnce.Do(func() {
		log.Info("pipeline timing",
			zap.String("trace", t.ID),
			zap.Duration("total", durationBetween(t.Start, end)),
			zap.Duration("detect", durationBetween(t.DetectStart, t.DetectEnd)),
			zap.Duration("reconcile", durationBetween(t.ReconcileStart, t.ReconcileEnd)),
			zap.Duration("redact", durationBetween(t.RedactStart, t.RedactEnd)),
		)
	})
}

func durationBetween(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}
