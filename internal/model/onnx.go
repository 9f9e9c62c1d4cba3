package model

import (
	"context"
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/leaf-api/internal/logger"
)

// onnxClassifier runs an exported backbone through ONNX Runtime. The exported
// graph is an inference graph, so dropout is inert and no gradients exist.
type onnxClassifier struct {
	mu           sync.Mutex
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	device       string
}

var envMu sync.Mutex

func initEnvironment(libraryPath string) error {
	envMu.Lock()
	defer envMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}
	if libraryPath != "" {
		ort.SetSharedLibraryPath(libraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

// sessionOptions attaches the CUDA execution provider when requested or when
// device is "auto" and CUDA is usable; otherwise the session stays on CPU.
func sessionOptions(device string, log logger.Logger) (*ort.SessionOptions, string, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create session options: %w", err)
	}
	if device == "cpu" {
		return opts, "cpu", nil
	}

	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err == nil {
		defer cudaOpts.Destroy()
		err = opts.AppendExecutionProviderCUDA(cudaOpts)
	}
	if err != nil {
		if device == "cuda" {
			opts.Destroy()
			return nil, "", fmt.Errorf("failed to enable CUDA: %w", err)
		}
		log.Infof(context.Background(), "CUDA unavailable, running inference on CPU: %v", err)
		return opts, "cpu", nil
	}
	return opts, "cuda:0", nil
}

func newONNXClassifier(opts Options, numClasses int, log logger.Logger) (*onnxClassifier, error) {
	if err := initEnvironment(opts.RuntimeLibrary); err != nil {
		return nil, err
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(InputShape[:]...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(numClasses)))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	sessOpts, device, err := sessionOptions(opts.Device, log)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, err
	}
	defer sessOpts.Destroy()

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{opts.InputName}, []string{opts.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		sessOpts)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &onnxClassifier{
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		device:       device,
	}, nil
}

// Forward copies t into the session's bound input and runs one batch.
// The bound tensors are shared, so calls are serialized.
func (c *onnxClassifier) Forward(t *Tensor) ([]float32, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	copy(c.inputTensor.GetData(), t.Data)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := c.outputTensor.GetData()
	logits := make([]float32, len(out))
	copy(logits, out)
	return logits, nil
}

func (c *onnxClassifier) Device() string { return c.device }

func (c *onnxClassifier) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.inputTensor != nil {
		c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	if c.session != nil {
		c.session.Destroy()
		c.session = nil
	}

	envMu.Lock()
	defer envMu.Unlock()
	if ort.IsInitialized() {
		return ort.DestroyEnvironment()
	}
	return nil
}
