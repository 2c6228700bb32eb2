// Package tfengine runs inception graphs with the TensorFlow Go bindings.
package tfengine

import (
	"fmt"

	"github.com/sdeoras/inception/inception"
	tf "github.com/tensorflow/tensorflow/tensorflow/go"
)

const (
	DefaultInput  = "input"
	DefaultOutput = "output"
)

// Runtime imports serialized GraphDefs. It implements inception.Runtime.
type Runtime struct {
	input, output string
	options       *tf.SessionOptions
}

// Option configures a Runtime.
type Option func(*Runtime)

// WithOperations sets the names of the graph's input and output operations.
func WithOperations(input, output string) Option {
	return func(r *Runtime) {
		r.input = input
		r.output = output
	}
}

// WithSessionOptions sets the options every session is created with.
func WithSessionOptions(options *tf.SessionOptions) Option {
	return func(r *Runtime) { r.options = options }
}

// New returns a Runtime feeding "input" and fetching "output".
func New(opts ...Option) *Runtime {
	r := &Runtime{input: DefaultInput, output: DefaultOutput}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load imports graphDef and opens one session on it. The session is shared
// by every Run call on the returned graph.
func (r *Runtime) Load(graphDef []byte) (inception.Graph, error) {
	graph := tf.NewGraph()
	if err := graph.Import(graphDef, ""); err != nil {
		return nil, err
	}

	input := graph.Operation(r.input)
	if input == nil {
		return nil, fmt.Errorf("graph has no operation named %q", r.input)
	}
	output := graph.Operation(r.output)
	if output == nil {
		return nil, fmt.Errorf("graph has no operation named %q", r.output)
	}

	session, err := tf.NewSession(graph, r.options)
	if err != nil {
		return nil, err
	}

	return &model{
		session: session,
		input:   input.Output(0),
		output:  output.Output(0),
	}, nil
}

type model struct {
	session *tf.Session
	input   tf.Output
	output  tf.Output
}

// Run feeds image to the input operation and fetches the output operation.
// tf.Session is safe for concurrent Run calls.
func (m *model) Run(image *inception.Tensor) (*inception.Tensor, error) {
	tensor, err := tf.NewTensor(nest(image))
	if err != nil {
		return nil, err
	}

	output, err := m.session.Run(
		map[tf.Output]*tf.Tensor{
			m.input: tensor,
		},
		[]tf.Output{
			m.output,
		},
		nil)
	if err != nil {
		return nil, err
	}

	return flatten(output[0])
}

func (m *model) Close() error {
	return m.session.Close()
}

// nest reshapes a flat [1 h w c] tensor into the nested slices tf.NewTensor
// expects.
func nest(t *inception.Tensor) [][][][]float32 {
	n, h, w, c := int(t.Shape[0]), int(t.Shape[1]), int(t.Shape[2]), int(t.Shape[3])
	out := make([][][][]float32, n)
	i := 0
	for b := range out {
		out[b] = make([][][]float32, h)
		for y := range out[b] {
			out[b][y] = make([][]float32, w)
			for x := range out[b][y] {
				out[b][y][x] = t.Data[i : i+c : i+c]
				i += c
			}
		}
	}
	return out
}

// flatten copies a rank 2 float tensor. Other ranks come back with their
// shape only, which inception.Infer reports as a shape mismatch.
func flatten(t *tf.Tensor) (*inception.Tensor, error) {
	shape := t.Shape()
	if len(shape) != 2 {
		return &inception.Tensor{Shape: shape}, nil
	}

	rows, ok := t.Value().([][]float32)
	if !ok {
		return nil, fmt.Errorf("expected float output, got %v", t.DataType())
	}

	out := &inception.Tensor{Shape: shape, Data: make([]float32, 0, shape[0]*shape[1])}
	for _, row := range rows {
		out.Data = append(out.Data, row...)
	}
	return out, nil
}
