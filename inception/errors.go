package inception

import (
	"fmt"
)

// ModelLoadError is returned when a model directory cannot be turned into a
// usable Model: a missing or unreadable graph or label file, or a graph the
// runtime refuses to import.
type ModelLoadError struct {
	Dir  string
	Path string
	Err  error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model %s from %s: %v", e.Dir, e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// DecodeError is returned when the input bytes are not a decodable image.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ShapeMismatchError is returned when the model output is not a [1 N] tensor.
type ShapeMismatchError struct {
	Shape []int64
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("expected model to produce a [1 N] shaped tensor where N is the number of labels, instead it produced one with shape %v", e.Shape)
}

// InferenceRuntimeError wraps a failure of the underlying inference runtime.
type InferenceRuntimeError struct {
	Err error
}

func (e *InferenceRuntimeError) Error() string {
	return fmt.Sprintf("inference failed: %v", e.Err)
}

func (e *InferenceRuntimeError) Unwrap() error { return e.Err }
