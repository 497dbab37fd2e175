//go:build onnxruntime

package detect

import (
	"context"
	"fmt"
	"math"
	"os"

	ort "github.com/yalue/onnxruntime_go"
)

// nativeNERBackend runs the model through the ONNX runtime shared library.
// Environment init is process-wide and refcounted by the library.
type nativeNERBackend struct {
	modelPath string
	labels    map[int]string
	session   *ort.DynamicAdvancedSession
}

func newNERBackend(modelPath string, labels map[int]string) (nerBackend, error) {
	if lib := os.Getenv("MASKPIPE_ONNX_LIB"); lib != "" {
		ort.SetSharedLibraryPath(lib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("init onnxruntime: %w", err)
	}
	session, err := ort.NewDynamicAdvancedSession(modelPath,
		[]string{"input_ids", "attention_mask"}, []string{"logits"}, nil)
	if err != nil {
		return nil, fmt.Errorf("open onnx session: %w", err)
	}
	return &nativeNERBackend{modelPath: modelPath, labels: labels, session: session}, nil
}

func (b *nativeNERBackend) Close() error {
	if b.session != nil {
		if err := b.session.Destroy(); err != nil {
			return err
		}
		b.session = nil
	}
	return ort.DestroyEnvironment()
}

func (b *nativeNERBackend) Infer(ctx context.Context, enc *Encoding) ([]string, []float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	seqLen := int64(len(enc.InputIDs))
	shape := ort.NewShape(1, seqLen)
	inputIDs, err := ort.NewTensor(shape, enc.InputIDs)
	if err != nil {
		return nil, nil, err
	}
	defer inputIDs.Destroy()
	mask, err := ort.NewTensor(shape, enc.AttentionMask)
	if err != nil {
		return nil, nil, err
	}
	defer mask.Destroy()

	outputs := []ort.Value{nil}
	if err := b.session.Run([]ort.Value{inputIDs, mask}, outputs); err != nil {
		return nil, nil, fmt.Errorf("onnx inference: %w", err)
	}
	logitsTensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("unexpected logits tensor type %T", outputs[0])
	}
	defer logitsTensor.Destroy()

	logits := logitsTensor.GetData()
	numLabels := len(logits) / int(seqLen)
	if numLabels == 0 {
		return nil, nil, fmt.Errorf("empty logits from model")
	}

	// Per-word label: argmax over the word's first subword token, softmaxed
	// for a usable confidence.
	labels := make([]string, len(enc.Words))
	scores := make([]float64, len(enc.Words))
	seen := make(map[int]bool, len(enc.Words))
	for ti, wi := range enc.TokenToWordIdx {
		if wi < 0 || seen[wi] {
			continue
		}
		seen[wi] = true
		row := logits[ti*numLabels : (ti+1)*numLabels]
		best, prob := argmaxSoftmax(row)
		label, ok := b.labels[best]
		if !ok {
			label = "O"
		}
		labels[wi] = label
		scores[wi] = prob
	}
	for i := range labels {
		if labels[i] == "" {
			labels[i] = "O"
		}
	}
	return labels, scores, nil
}

func argmaxSoftmax(row []float32) (int, float64) {
	best := 0
	for i, v := range row {
		if v > row[best] {
			best = i
		}
	}
	var sum float64
	for _, v := range row {
		sum += math.Exp(float64(v - row[best]))
	}
	if sum == 0 {
		return best, 0
	}
	return best, 1 / sum
}
