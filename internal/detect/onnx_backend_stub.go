//go:build !onnxruntime

package detect

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// stubNERBackend labels capitalized non-leading words as B-PERSON. It keeps
// the detector contract exercisable in builds without the native runtime.
type stubNERBackend struct{}

func newNERBackend(modelPath string, _ map[int]string) (nerBackend, error) {
	backend := strings.ToLower(strings.TrimSpace(os.Getenv("MASKPIPE_ONNX_BACKEND")))
	if backend == "native" {
		return nil, fmt.Errorf("native ONNX backend requires build tag 'onnxruntime'")
	}
	_ = modelPath
	return stubNERBackend{}, nil
}

func (stubNERBackend) Infer(ctx context.Context, enc *Encoding) ([]string, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	labels := make([]string, len(enc.Words))
	scores := make([]float64, len(enc.Words))
	for i, w := range enc.Words {
		labels[i] = "O"
		if i > 0 && looksCapitalized(w.Text) && len(w.Text) > 2 {
			labels[i] = "B-PERSON"
			scores[i] = 0.71
		}
	}
	return labels, scores, nil
}

func (stubNERBackend) Close() error { return nil }

func looksCapitalized(s string) bool {
	r := []rune(s)
	if len(r) == 0 {
		return false
	}
	if r[0] < 'A' || r[0] > 'Z' {
		return false
	}
	for _, ch := range r[1:] {
		if ch >= 'A' && ch <= 'Z' {
			return false
		}
	}
	return true
}
