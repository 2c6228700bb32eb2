package inception_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sdeoras/inception/inception"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type fakeGraph struct {
	output *inception.Tensor
	err    error
	runs   int64
	closed int32
}

func (g *fakeGraph) Run(input *inception.Tensor) (*inception.Tensor, error) {
	atomic.AddInt64(&g.runs, 1)
	if g.err != nil {
		return nil, g.err
	}
	return &inception.Tensor{
		Shape: append([]int64(nil), g.output.Shape...),
		Data:  append([]float32(nil), g.output.Data...),
	}, nil
}

func (g *fakeGraph) Close() error {
	atomic.AddInt32(&g.closed, 1)
	return nil
}

func probabilities(p ...float32) *fakeGraph {
	return &fakeGraph{output: &inception.Tensor{Shape: []int64{1, int64(len(p))}, Data: p}}
}

type fakeRuntime struct {
	graph *fakeGraph
	err   error
	loads int64
}

func (r *fakeRuntime) Load(graphDef []byte) (inception.Graph, error) {
	atomic.AddInt64(&r.loads, 1)
	if r.err != nil {
		return nil, r.err
	}
	return r.graph, nil
}

// countingReader wraps ioutil.ReadFile, counting reads per path.
type countingReader struct {
	mu    sync.Mutex
	reads map[string]int
	delay time.Duration
}

func newCountingReader(delay time.Duration) *countingReader {
	return &countingReader{reads: make(map[string]int), delay: delay}
}

func (c *countingReader) ReadFile(name string) ([]byte, error) {
	time.Sleep(c.delay)
	c.mu.Lock()
	c.reads[name]++
	c.mu.Unlock()
	return ioutil.ReadFile(name)
}

func (c *countingReader) Reads(name string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reads[name]
}

// writeModel creates a model directory holding a dummy graph and labels.
func writeModel(t *testing.T, labels string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, inception.DefaultGraphFile), []byte("graph"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, inception.DefaultLabelFile), []byte(labels), 0644))
	return dir
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = ioutil.Discard
	return log
}

// testImage encodes a w x h PNG.
func testImage(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, img))
	return b.Bytes()
}

// panicRuntime panics on its first Load and succeeds afterwards.
type panicRuntime struct {
	graph *fakeGraph
	loads int64
}

func (r *panicRuntime) Load(graphDef []byte) (inception.Graph, error) {
	if atomic.AddInt64(&r.loads, 1) == 1 {
		panic("graph import crashed")
	}
	return r.graph, nil
}

// failingNormalizer returns err from every Normalize call.
type failingNormalizer struct {
	err error
}

func (n failingNormalizer) Normalize([]byte) (*inception.Tensor, error) {
	return nil, n.err
}
