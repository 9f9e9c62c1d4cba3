package model

import (
	"errors"
	"math"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/Brownie44l1/leaf-api/internal/logger"
)

type stubClassifier struct {
	logits []float32
	err    error
}

func (s *stubClassifier) Forward(*Tensor) ([]float32, error) { return s.logits, s.err }
func (s *stubClassifier) Device() string                     { return "stub" }
func (s *stubClassifier) Close() error                       { return nil }

func TestPredict_TopThreeDescending(t *testing.T) {
	p := NewPredictorWith(DefaultCatalog(), &stubClassifier{
		logits: []float32{0, 1, 5, 0, 3, 0, 0, 4, 0, 0},
	})

	got, err := p.Predict(NewTensor())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	names := make([]string, len(got))
	for i, pr := range got {
		names[i] = pr.ClassName
	}
	want := []string{"Tomato_Late_blight", "Tomato_Tomato_Yellow_Leaf_Curl_Virus", "Tomato_Septoria_leaf_spot"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("labels mismatch:\n%s", diff)
	}

	var sum float64
	for i, pr := range got {
		if pr.Probability < 0 || pr.Probability > 1 {
			t.Errorf("probability %v out of range", pr.Probability)
		}
		if i > 0 && pr.Probability > got[i-1].Probability {
			t.Errorf("entry %d not descending", i)
		}
		sum += pr.Probability
	}
	if sum > 1+1e-9 {
		t.Errorf("sum of top probabilities = %v, want <= 1", sum)
	}
}

func TestPredict_TiesPreferLowerIndex(t *testing.T) {
	p := NewPredictorWith(DefaultCatalog(), &stubClassifier{logits: make([]float32, 10)})

	got, err := p.Predict(NewTensor())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	want := []Prediction{
		{ClassName: "Tomato_Bacterial_spot", Probability: 0.1},
		{ClassName: "Tomato_Early_blight", Probability: 0.1},
		{ClassName: "Tomato_Late_blight", Probability: 0.1},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("predictions mismatch:\n%s", diff)
	}
}

func TestPredict_FewerClassesThanK(t *testing.T) {
	p := NewPredictorWith(Catalog{"0": "a", "1": "b"}, &stubClassifier{logits: []float32{1, 2}})
	got, err := p.Predict(NewTensor())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ClassName != "b" {
		t.Errorf("top = %q, want b", got[0].ClassName)
	}
	if math.Abs(got[0].Probability+got[1].Probability-1) > 1e-9 {
		t.Errorf("full distribution should sum to 1")
	}
}

func TestPredict_Errors(t *testing.T) {
	bad := NewTensor()
	bad.Data = bad.Data[:10]

	tests := []struct {
		name   string
		p      *Predictor
		tensor *Tensor
		want   error
	}{
		{"nil predictor", nil, NewTensor(), ErrModelNotReady},
		{"no classifier", NewPredictorWith(DefaultCatalog(), nil), NewTensor(), ErrModelNotReady},
		{"short data", NewPredictorWith(DefaultCatalog(), &stubClassifier{}), bad, ErrInvalidInput},
		{"wrong shape", NewPredictorWith(DefaultCatalog(), &stubClassifier{}), &Tensor{Shape: [4]int64{1, 1, 224, 224}}, ErrInvalidInput},
		{"nil tensor", NewPredictorWith(DefaultCatalog(), &stubClassifier{}), nil, ErrInvalidInput},
		{"logit count", NewPredictorWith(DefaultCatalog(), &stubClassifier{logits: []float32{1, 2}}), NewTensor(), ErrCatalogMismatch},
		{"positive infinity", NewPredictorWith(DefaultCatalog(), &stubClassifier{logits: withLogit(4, float32(math.Inf(1)))}), NewTensor(), ErrNonFiniteLogit},
		{"negative infinity", NewPredictorWith(DefaultCatalog(), &stubClassifier{logits: withLogit(0, float32(math.Inf(-1)))}), NewTensor(), ErrNonFiniteLogit},
		{"nan", NewPredictorWith(DefaultCatalog(), &stubClassifier{logits: withLogit(9, float32(math.NaN()))}), NewTensor(), ErrNonFiniteLogit},
		{"sparse catalog", NewPredictorWith(Catalog{"0": "a", "5": "b"}, &stubClassifier{logits: []float32{1, 2}}), NewTensor(), ErrCatalogMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.Predict(tt.tensor)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func withLogit(idx int, v float32) []float32 {
	logits := make([]float32, 10)
	logits[idx] = v
	return logits
}

func TestPredict_ClassifierFailure(t *testing.T) {
	boom := errors.New("boom")
	p := NewPredictorWith(DefaultCatalog(), &stubClassifier{err: boom})
	if _, err := p.Predict(NewTensor()); !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped boom", err)
	}
}

func TestNewPredictor_NoWeightsUsesUntrained(t *testing.T) {
	dir := t.TempDir()
	p := NewPredictor(Options{
		ModelPath:   filepath.Join(dir, "missing.onnx"),
		CatalogPath: filepath.Join(dir, "class_mapping.json"),
		Device:      "auto",
	}, logger.Nop())

	if p.Device() != "cpu" {
		t.Errorf("Device() = %q, want cpu", p.Device())
	}
	got, err := p.Predict(NewTensor())
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
}

func TestNewPredictor_EmptyCatalogNotReady(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "class_mapping.json")
	if err := WriteCatalog(catalogPath, Catalog{}); err != nil {
		t.Fatal(err)
	}
	p := NewPredictor(Options{
		ModelPath:   filepath.Join(dir, "missing.onnx"),
		CatalogPath: catalogPath,
	}, logger.Nop())

	if _, err := p.Predict(NewTensor()); !errors.Is(err, ErrModelNotReady) {
		t.Errorf("err = %v, want ErrModelNotReady", err)
	}
}

func TestUntrainedClassifier_Deterministic(t *testing.T) {
	in := NewTensor()
	for i := range in.Data {
		in.Data[i] = float32(i%97) / 97
	}
	a, err := newUntrainedClassifier(10).Forward(in)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := newUntrainedClassifier(10).Forward(in)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("untrained classifier not deterministic:\n%s", diff)
	}
	if len(a) != 10 {
		t.Errorf("len = %d, want 10", len(a))
	}
}

func TestLazy_BuildsOnce(t *testing.T) {
	var builds atomic.Int32
	lazy := NewLazy(func() *Predictor {
		builds.Add(1)
		return NewPredictorWith(DefaultCatalog(), &stubClassifier{logits: make([]float32, 10)})
	})

	var wg sync.WaitGroup
	seen := make([]*Predictor, 16)
	for i := range seen {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			seen[i] = lazy.Get()
		}(i)
	}
	wg.Wait()

	if n := builds.Load(); n != 1 {
		t.Fatalf("built %d times, want 1", n)
	}
	for i, p := range seen {
		if p != seen[0] {
			t.Errorf("caller %d saw a different predictor", i)
		}
	}
	if err := lazy.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}

func TestLazy_CloseBeforeGet(t *testing.T) {
	lazy := NewLazy(func() *Predictor {
		t.Fatal("build should not run after Close")
		return nil
	})
	if err := lazy.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if p := lazy.Get(); p != nil {
		t.Errorf("Get after Close = %v, want nil", p)
	}
}
