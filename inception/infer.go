package inception

import (
	"errors"
	"fmt"
)

// Infer runs graph on a normalized image and returns the probability vector.
// The graph output must be a [1 N] tensor.
func Infer(graph Graph, image *Tensor) ([]float32, error) {
	output, err := graph.Run(image)
	if err != nil {
		var shapeErr *ShapeMismatchError
		var runtimeErr *InferenceRuntimeError
		if errors.As(err, &shapeErr) || errors.As(err, &runtimeErr) {
			return nil, err
		}
		return nil, &InferenceRuntimeError{Err: err}
	}
	if output == nil {
		return nil, &InferenceRuntimeError{Err: errors.New("graph produced no output")}
	}

	shape := output.Shape
	if len(shape) != 2 || shape[0] != 1 {
		return nil, &ShapeMismatchError{Shape: append([]int64(nil), shape...)}
	}
	if int64(len(output.Data)) != shape[1] {
		return nil, &InferenceRuntimeError{
			Err: fmt.Errorf("output holds %d values for shape %v", len(output.Data), shape),
		}
	}

	return output.Data, nil
}
