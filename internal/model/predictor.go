package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/Brownie44l1/leaf-api/internal/logger"
)

// Options locate the predictor's side files and select the runtime device.
type Options struct {
	ModelPath      string
	CatalogPath    string
	Device         string
	RuntimeLibrary string
	InputName      string
	OutputName     string
}

// Predictor pairs a Classifier with the Catalog that names its outputs.
// It is read-only after construction and safe for concurrent use.
type Predictor struct {
	catalog    Catalog
	classifier Classifier
}

// NewPredictor loads the catalog and builds the classifier. Loading problems
// degrade instead of failing: a missing or unusable weight file yields an
// untrained classifier, and an empty catalog leaves the predictor without a
// classifier so that Predict reports ErrModelNotReady.
func NewPredictor(opts Options, log logger.Logger) *Predictor {
	ctx := context.Background()
	p := &Predictor{catalog: LoadCatalog(opts.CatalogPath, log)}

	n := p.catalog.Len()
	if n == 0 {
		log.Errorf(ctx, "class catalog %s is empty, predictor not ready", opts.CatalogPath)
		return p
	}

	if _, err := os.Stat(opts.ModelPath); err != nil {
		log.Warnf(ctx, "model file not available (%v), using untrained weights", err)
		p.classifier = newUntrainedClassifier(n)
		return p
	}

	c, err := newONNXClassifier(opts, n, log)
	if err != nil {
		log.Errorf(ctx, "failed to load model %s, using untrained weights: %v", opts.ModelPath, err)
		p.classifier = newUntrainedClassifier(n)
		return p
	}
	log.Infof(ctx, "loaded model %s on %s (%d classes)", opts.ModelPath, c.Device(), n)
	p.classifier = c
	return p
}

// NewPredictorWith assembles a predictor from an existing classifier.
func NewPredictorWith(catalog Catalog, classifier Classifier) *Predictor {
	return &Predictor{catalog: catalog, classifier: classifier}
}

// Device reports where inference runs, or "" when no classifier is loaded.
func (p *Predictor) Device() string {
	if p == nil || p.classifier == nil {
		return ""
	}
	return p.classifier.Device()
}

// Predict returns up to TopK labels ordered by descending probability.
// Equal probabilities keep the lower class index first.
func (p *Predictor) Predict(t *Tensor) ([]Prediction, error) {
	if p == nil || p.classifier == nil {
		return nil, ErrModelNotReady
	}
	if err := t.validate(); err != nil {
		return nil, err
	}

	logits, err := p.classifier.Forward(t)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	if len(logits) != p.catalog.Len() {
		return nil, fmt.Errorf("%w: %d logits for %d classes", ErrCatalogMismatch, len(logits), p.catalog.Len())
	}
	for i, v := range logits {
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return nil, fmt.Errorf("inference failed: %w at %d", ErrNonFiniteLogit, i)
		}
	}

	probs := softmax(logits)
	top := topK(probs, TopK)

	predictions := make([]Prediction, 0, len(top))
	for _, idx := range top {
		label, err := p.catalog.Label(idx)
		if err != nil {
			return nil, err
		}
		predictions = append(predictions, Prediction{
			ClassName:   label,
			Probability: probs[idx],
		})
	}
	return predictions, nil
}

func (p *Predictor) Close() error {
	if p == nil || p.classifier == nil {
		return nil
	}
	return p.classifier.Close()
}

func softmax(logits []float32) []float64 {
	maxVal := math.Inf(-1)
	for _, v := range logits {
		maxVal = math.Max(maxVal, float64(v))
	}

	probs := make([]float64, len(logits))
	var sum float64
	for i, v := range logits {
		probs[i] = math.Exp(float64(v) - maxVal)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func topK(probs []float64, k int) []int {
	idx := make([]int, len(probs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return probs[idx[a]] > probs[idx[b]]
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	return idx
}

// Lazy builds a Predictor on first use. Concurrent first callers block on the
// same construction and all observe the finished Predictor.
type Lazy struct {
	once      sync.Once
	build     func() *Predictor
	predictor *Predictor
}

func NewLazy(build func() *Predictor) *Lazy {
	return &Lazy{build: build}
}

// Get returns the predictor, constructing it on the first call.
func (l *Lazy) Get() *Predictor {
	l.once.Do(func() {
		l.predictor = l.build()
	})
	return l.predictor
}

// Close releases the predictor if it was ever built. Get never builds after Close.
func (l *Lazy) Close() error {
	l.once.Do(func() {})
	return l.predictor.Close()
}
