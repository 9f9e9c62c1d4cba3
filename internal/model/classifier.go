package model

import (
	"math"
	"math/rand"
)

// Classifier maps one normalized image tensor to a vector of class logits.
// Implementations always run in evaluation mode.
type Classifier interface {
	Forward(t *Tensor) ([]float32, error)
	// Device names where inference runs, e.g. "cpu" or "cuda:0".
	Device() string
	Close() error
}

const (
	poolGrid      = 4
	pooledFeature = Channels * poolGrid * poolGrid
	untrainedSeed = 42
)

// untrainedClassifier stands in for the backbone when no weight file can be
// loaded. It average-pools the image over a 4x4 grid per channel and feeds
// those features to a randomly initialized linear head. The head's dropout(0.5)
// is the identity in evaluation mode, so it is not materialized.
type untrainedClassifier struct {
	weights [][]float32 // [numClasses][pooledFeature]
	bias    []float32
}

func newUntrainedClassifier(numClasses int) *untrainedClassifier {
	rng := rand.New(rand.NewSource(untrainedSeed))
	bound := 1 / math.Sqrt(pooledFeature)
	uniform := func() float32 { return float32((rng.Float64()*2 - 1) * bound) }

	c := &untrainedClassifier{
		weights: make([][]float32, numClasses),
		bias:    make([]float32, numClasses),
	}
	for i := range c.weights {
		row := make([]float32, pooledFeature)
		for j := range row {
			row[j] = uniform()
		}
		c.weights[i] = row
		c.bias[i] = uniform()
	}
	return c
}

func (c *untrainedClassifier) Forward(t *Tensor) ([]float32, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	features := make([]float32, 0, pooledFeature)
	cell := ImageSize / poolGrid
	plane := ImageSize * ImageSize
	for ch := 0; ch < Channels; ch++ {
		for gy := 0; gy < poolGrid; gy++ {
			for gx := 0; gx < poolGrid; gx++ {
				var sum float64
				for y := gy * cell; y < (gy+1)*cell; y++ {
					row := t.Data[ch*plane+y*ImageSize:]
					for x := gx * cell; x < (gx+1)*cell; x++ {
						sum += float64(row[x])
					}
				}
				features = append(features, float32(sum/float64(cell*cell)))
			}
		}
	}

	logits := make([]float32, len(c.weights))
	for i, row := range c.weights {
		acc := c.bias[i]
		for j, w := range row {
			acc += w * features[j]
		}
		logits[i] = acc
	}
	return logits, nil
}

func (c *untrainedClassifier) Device() string { return "cpu" }

func (c *untrainedClassifier) Close() error { return nil }
