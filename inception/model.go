// Package inception classifies images with a pretrained inception style
// network. A Store loads and caches models by directory, a Normalizer turns
// compressed image bytes into the model's input tensor, Infer runs the
// compiled graph and TopK ranks the resulting scores against the label
// vocabulary. Service strings these together and is safe for concurrent use.
package inception

const (
	// Height and Width of the image the model was trained on.
	Height = 224
	Width  = 224
	// Channels is the number of color channels fed to the model.
	Channels = 3

	// Mean and Scale convert an 8 bit color value into the model's input
	// range: (value - Mean) / Scale.
	Mean  = float32(117)
	Scale = float32(1)

	DefaultGraphFile = "graph.pb"
	DefaultLabelFile = "label.txt"
	// AlternateLabelFile is the label file name shipped with the inception5h
	// archive.
	AlternateLabelFile = "imagenet_comp_graph_label_strings.txt"

	// DefaultTopK is the number of labels returned when none is requested.
	DefaultTopK = 10
)

// Tensor is a dense float tensor with its data laid out in row major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// NewImageTensor allocates a zeroed [1 h w c] tensor.
func NewImageTensor(h, w, c int) *Tensor {
	return &Tensor{
		Shape: []int64{1, int64(h), int64(w), int64(c)},
		Data:  make([]float32, h*w*c),
	}
}

// Normalizer converts compressed image bytes into the model's input tensor.
// Implementations return a *DecodeError for input that is not an image.
type Normalizer interface {
	Normalize(image []byte) (*Tensor, error)
}

// Runtime compiles a serialized graph into an executable Graph.
type Runtime interface {
	Load(graphDef []byte) (Graph, error)
}

// Graph is a compiled model ready to run. Run must be safe for concurrent use.
type Graph interface {
	Run(input *Tensor) (*Tensor, error)
	Close() error
}

// Model is a compiled graph together with its label vocabulary.
type Model struct {
	Dir    string
	Labels []string
	Graph  Graph
}
