package model

import (
	"errors"
	"fmt"
)

const (
	Channels  = 3
	ImageSize = 224
	TopK      = 3
)

var (
	ErrModelNotReady   = errors.New("model not ready")
	ErrInvalidInput    = errors.New("invalid input tensor")
	ErrCatalogMismatch = errors.New("class index not found in catalog")
	ErrNonFiniteLogit  = errors.New("non-finite logit")
)

// InputShape is the NCHW shape every classifier accepts.
var InputShape = [4]int64{1, Channels, ImageSize, ImageSize}

// Tensor is a dense float32 array in NCHW layout.
type Tensor struct {
	Shape [4]int64
	Data  []float32
}

// NewTensor allocates a zeroed tensor with InputShape.
func NewTensor() *Tensor {
	return &Tensor{
		Shape: InputShape,
		Data:  make([]float32, Channels*ImageSize*ImageSize),
	}
}

func (t *Tensor) validate() error {
	if t == nil {
		return ErrInvalidInput
	}
	if t.Shape != InputShape {
		return fmt.Errorf("%w: shape %v, want %v", ErrInvalidInput, t.Shape, InputShape)
	}
	if want := Channels * ImageSize * ImageSize; len(t.Data) != want {
		return fmt.Errorf("%w: %d values, want %d", ErrInvalidInput, len(t.Data), want)
	}
	return nil
}

type Prediction struct {
	ClassName   string  `json:"class_name"`
	Probability float64 `json:"probability"`
}
