package tfengine

// code snippets were taken from: https://outcrawl.com/image-recognition-api-go-tensorflow/

import (
	"net/http"
	"sync"

	"github.com/sdeoras/inception/inception"
	tf "github.com/tensorflow/tensorflow/tensorflow/go"
	"github.com/tensorflow/tensorflow/tensorflow/go/op"
)

// Normalizer decodes and resizes images with a TensorFlow graph. The graph
// never changes, so it is built once per image format and its session reused.
type Normalizer struct {
	height, width int32
	mean, scale   float32

	jpeg, png transform
}

type transform struct {
	once    sync.Once
	session *tf.Session
	input   tf.Output
	output  tf.Output
	err     error
}

// NewNormalizer returns a Normalizer with the inception defaults.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		height: inception.Height,
		width:  inception.Width,
		mean:   inception.Mean,
		scale:  inception.Scale,
	}
}

// Normalize implements inception.Normalizer.
func (n *Normalizer) Normalize(image []byte) (*inception.Tensor, error) {
	format := "jpg"
	t := &n.jpeg
	if http.DetectContentType(image) == "image/png" {
		format = "png"
		t = &n.png
	}

	t.once.Do(func() {
		var graph *tf.Graph
		graph, t.input, t.output, t.err = n.makeTransformImageGraph(format)
		if t.err != nil {
			return
		}
		t.session, t.err = tf.NewSession(graph, nil)
	})
	if t.err != nil {
		return nil, &inception.InferenceRuntimeError{Err: t.err}
	}

	tensor, err := tf.NewTensor(string(image))
	if err != nil {
		return nil, &inception.DecodeError{Err: err}
	}
	normalized, err := t.session.Run(
		map[tf.Output]*tf.Tensor{t.input: tensor},
		[]tf.Output{t.output},
		nil)
	if err != nil {
		return nil, &inception.DecodeError{Err: err}
	}

	return flattenImage(normalized[0]), nil
}

// Close releases the sessions of the graphs built so far.
func (n *Normalizer) Close() error {
	for _, t := range []*transform{&n.jpeg, &n.png} {
		if t.session == nil {
			continue
		}
		if err := t.session.Close(); err != nil {
			return err
		}
	}
	return nil
}

func (n *Normalizer) makeTransformImageGraph(imageFormat string) (graph *tf.Graph, input, output tf.Output, err error) {
	s := op.NewScope()
	input = op.Placeholder(s, tf.String)
	// Decode PNG or JPEG
	var decode tf.Output
	if imageFormat == "png" {
		decode = op.DecodePng(s, input, op.DecodePngChannels(3))
	} else {
		decode = op.DecodeJpeg(s, input, op.DecodeJpegChannels(3))
	}
	// Div and Sub perform (value-Mean)/Scale for each pixel
	output = op.Div(s,
		op.Sub(s,
			// Resize to HxW with bilinear interpolation
			op.ResizeBilinear(s,
				// Create a batch containing a single image
				op.ExpandDims(s,
					// Use decoded pixel values
					op.Cast(s, decode, tf.Float),
					op.Const(s.SubScope("make_batch"), int32(0))),
				op.Const(s.SubScope("size"), []int32{n.height, n.width})),
			op.Const(s.SubScope("mean"), n.mean)),
		op.Const(s.SubScope("scale"), n.scale))
	graph, err = s.Finalize()
	return graph, input, output, err
}

func flattenImage(t *tf.Tensor) *inception.Tensor {
	shape := t.Shape()
	out := &inception.Tensor{Shape: shape}
	for _, b := range t.Value().([][][][]float32) {
		for _, row := range b {
			for _, px := range row {
				out.Data = append(out.Data, px...)
			}
		}
	}
	return out
}
