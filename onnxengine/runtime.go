// Package onnxengine runs inception models exported to ONNX with
// onnxruntime. The model takes a float [1 224 224 3] tensor named "input"
// and produces a [1 N] tensor named "output".
package onnxengine

import (
	"fmt"

	"github.com/sdeoras/inception/inception"
	ort "github.com/yalue/onnxruntime_go"
)

const (
	DefaultInput  = "input"
	DefaultOutput = "output"
	// DefaultGraphFile is the model file name in an ONNX model directory.
	DefaultGraphFile = "model.onnx"
)

// Runtime creates onnxruntime sessions. It implements inception.Runtime.
type Runtime struct {
	input, output string
}

// New initializes the onnxruntime environment, loading the shared library
// from libraryPath when it is not empty. Close the Runtime to tear the
// environment down again.
func New(libraryPath string) (*Runtime, error) {
	if !ort.IsInitialized() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}
	return &Runtime{input: DefaultInput, output: DefaultOutput}, nil
}

// WithOperations returns a copy of r binding different input and output names.
func (r *Runtime) WithOperations(input, output string) *Runtime {
	return &Runtime{input: input, output: output}
}

// Close destroys the onnxruntime environment.
func (r *Runtime) Close() error {
	return ort.DestroyEnvironment()
}

// Load creates a session from serialized ONNX bytes.
func (r *Runtime) Load(graphDef []byte) (inception.Graph, error) {
	session, err := ort.NewDynamicAdvancedSessionWithONNXData(graphDef,
		[]string{r.input}, []string{r.output}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}
	return &model{session: session}, nil
}

type model struct {
	session *ort.DynamicAdvancedSession
}

// Run binds image to the session input. The output tensor is allocated by
// onnxruntime; both tensors are destroyed before returning.
func (m *model) Run(image *inception.Tensor) (*inception.Tensor, error) {
	input, err := ort.NewTensor(ort.NewShape(image.Shape...), image.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil}
	defer func() {
		if outputs[0] != nil {
			outputs[0].Destroy()
		}
	}()
	if err := m.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, err
	}

	output, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("expected float32 output, got %T", outputs[0])
	}

	data := output.GetData()
	return &inception.Tensor{
		Shape: append([]int64(nil), output.GetShape()...),
		Data:  append([]float32(nil), data...),
	}, nil
}

func (m *model) Close() error {
	return m.session.Destroy()
}
