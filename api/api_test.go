package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/ioutil"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sdeoras/inception/api"
	"github.com/sdeoras/inception/inception"
	"github.com/sdeoras/inception/preprocess"
	"github.com/sdeoras/inception/proto"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type graph struct {
	output *inception.Tensor
	err    error
}

func (g *graph) Run(*inception.Tensor) (*inception.Tensor, error) {
	if g.err != nil {
		return nil, g.err
	}
	return g.output, nil
}

func (g *graph) Close() error { return nil }

type runtime struct {
	graph *graph
}

func (r *runtime) Load([]byte) (inception.Graph, error) {
	return r.graph, nil
}

type result struct {
	RequestID   string           `json:"request_id"`
	Predictions inception.Result `json:"predictions"`
	Error       string           `json:"error"`
	Code        string           `json:"code"`
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.Out = ioutil.Discard
	return log
}

func writeModel(t *testing.T, labels string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, inception.DefaultGraphFile), []byte("graph"), 0644))
	require.NoError(t, ioutil.WriteFile(filepath.Join(dir, inception.DefaultLabelFile), []byte(labels), 0644))
	return dir
}

func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for i := 0; i < 8; i++ {
		img.Set(i, i, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
	}
	var b bytes.Buffer
	require.NoError(t, png.Encode(&b, img))
	return b.Bytes()
}

// newServer returns a server whose model emits the given graph output.
func newServer(t *testing.T, g *graph) (*api.Server, string) {
	t.Helper()
	dir := writeModel(t, "L0\nL1\n")
	store := inception.NewStore(&runtime{graph: g}, inception.WithStoreLogger(quietLogger()))
	svc := inception.NewService(store, preprocess.New(), inception.WithLogger(quietLogger()))
	t.Cleanup(func() { _ = svc.Close() })
	return api.NewServer(svc, dir, quietLogger()), dir
}

func twoLabels() *graph {
	return &graph{output: &inception.Tensor{Shape: []int64{1, 2}, Data: []float32{0.82, 0.18}}}
}

func dialGRPC(t *testing.T, srv *api.Server) proto.ClassifierClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(api.ServerOptions()...)
	srv.Register(gs)
	go func() { _ = gs.Serve(lis) }()
	t.Cleanup(gs.Stop)

	conn, err := grpc.Dial("bufnet",
		grpc.WithDialer(func(string, time.Duration) (net.Conn, error) { return lis.Dial() }),
		grpc.WithInsecure(),
		grpc.WithDefaultCallOptions(api.CallOptions()...))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return proto.NewClassifierClient(conn)
}

func TestGRPCClassify(t *testing.T) {
	srv, dir := newServer(t, twoLabels())
	client := dialGRPC(t, srv)
	ctx := context.Background()

	resp, err := client.Classify(ctx, &proto.ClassifyRequest{Image: testImage(t)})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.RequestId)

	got := resp.Result()
	require.Len(t, got, 2)
	assert.Equal(t, "L0", got[0].Label)
	assert.Equal(t, "82.00%", got[0].Probability)
	assert.Equal(t, "L1", got[1].Label)
	assert.Equal(t, "18.00%", got[1].Probability)

	resp, err = client.Classify(ctx, &proto.ClassifyRequest{Image: testImage(t), ModelDir: dir, TopK: 1})
	require.NoError(t, err)
	assert.Len(t, resp.Predictions, 1)

	models, err := client.Models(ctx, &proto.Empty{})
	require.NoError(t, err)
	assert.Equal(t, []string{dir}, models.ModelDirs)
}

func TestGRPCStatusCodes(t *testing.T) {
	ctx := context.Background()

	t.Run("decode", func(t *testing.T) {
		srv, _ := newServer(t, twoLabels())
		_, err := dialGRPC(t, srv).Classify(ctx, &proto.ClassifyRequest{Image: []byte("not an image")})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("empty image", func(t *testing.T) {
		srv, _ := newServer(t, twoLabels())
		_, err := dialGRPC(t, srv).Classify(ctx, &proto.ClassifyRequest{})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("missing model", func(t *testing.T) {
		srv, dir := newServer(t, twoLabels())
		_, err := dialGRPC(t, srv).Classify(ctx, &proto.ClassifyRequest{
			Image:    testImage(t),
			ModelDir: filepath.Join(dir, "missing"),
		})
		assert.Equal(t, codes.FailedPrecondition, status.Code(err))
	})

	t.Run("model dir outside the root", func(t *testing.T) {
		srv, dir := newServer(t, twoLabels())
		client := dialGRPC(t, srv)
		for _, modelDir := range []string{t.TempDir(), filepath.Join(dir, ".."), "../etc", "/etc"} {
			_, err := client.Classify(ctx, &proto.ClassifyRequest{Image: testImage(t), ModelDir: modelDir})
			assert.Equal(t, codes.InvalidArgument, status.Code(err), modelDir)
		}
		models, err := client.Models(ctx, &proto.Empty{})
		require.NoError(t, err)
		assert.Empty(t, models.ModelDirs)
	})

	t.Run("image larger than the grpc default limit", func(t *testing.T) {
		srv, _ := newServer(t, twoLabels())
		_, err := dialGRPC(t, srv).Classify(ctx, &proto.ClassifyRequest{Image: make([]byte, 5<<20)})
		assert.Equal(t, codes.InvalidArgument, status.Code(err))
	})

	t.Run("shape", func(t *testing.T) {
		srv, _ := newServer(t, &graph{output: &inception.Tensor{Shape: []int64{2, 1}, Data: []float32{0.5, 0.5}}})
		_, err := dialGRPC(t, srv).Classify(ctx, &proto.ClassifyRequest{Image: testImage(t)})
		assert.Equal(t, codes.Internal, status.Code(err))
	})

	t.Run("runtime", func(t *testing.T) {
		srv, _ := newServer(t, &graph{err: errors.New("session closed")})
		_, err := dialGRPC(t, srv).Classify(ctx, &proto.ClassifyRequest{Image: testImage(t)})
		assert.Equal(t, codes.Internal, status.Code(err))
	})
}

func TestGRPCPreload(t *testing.T) {
	srv, dir := newServer(t, twoLabels())
	client := dialGRPC(t, srv)
	ctx := context.Background()

	ack, err := client.Preload(ctx, &proto.PreloadRequest{})
	require.NoError(t, err)
	assert.True(t, ack.Status)
	assert.Equal(t, dir, ack.ModelDir)

	_, err = client.Preload(ctx, &proto.PreloadRequest{ModelDir: filepath.Join(dir, "missing")})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))

	_, err = client.Preload(ctx, &proto.PreloadRequest{ModelDir: t.TempDir()})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestHTTPClassify(t *testing.T) {
	srv, _ := newServer(t, twoLabels())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	t.Run("raw body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/classify?top_k=1", "image/png", bytes.NewReader(testImage(t)))
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.NotEmpty(t, got.RequestID)
		require.Len(t, got.Predictions, 1)
		assert.Equal(t, "L0", got.Predictions[0].Label)
	})

	t.Run("multipart", func(t *testing.T) {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		fw, err := mw.CreateFormFile("image", "cat.png")
		require.NoError(t, err)
		_, err = fw.Write(testImage(t))
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		resp, err := http.Post(ts.URL+"/classify", mw.FormDataContentType(), &body)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var got result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
		assert.Len(t, got.Predictions, 2)
	})

	t.Run("errors", func(t *testing.T) {
		for _, tc := range []struct {
			url    string
			body   []byte
			status int
		}{
			{url: "/classify", body: []byte("garbage"), status: http.StatusBadRequest},
			{url: "/classify?top_k=zero", body: testImage(t), status: http.StatusBadRequest},
			{url: "/classify?model_dir=missing", body: testImage(t), status: http.StatusPreconditionFailed},
			{url: "/classify?model_dir=/etc", body: testImage(t), status: http.StatusBadRequest},
			{url: "/classify?model_dir=../..", body: testImage(t), status: http.StatusBadRequest},
		} {
			resp, err := http.Post(ts.URL+tc.url, "image/png", bytes.NewReader(tc.body))
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode, tc.url)
		}

		resp, err := http.Get(ts.URL + "/classify")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestHTTPHealthAndModels(t *testing.T) {
	srv, dir := newServer(t, twoLabels())
	h := srv.Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/models", nil))
	assert.JSONEq(t, `{"model_dirs":[]}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/classify", bytes.NewReader(testImage(t))))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/models", nil))
	var models map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &models))
	assert.Equal(t, []string{dir}, models["model_dirs"])
}

func TestModelRoot(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "inception")
	other := filepath.Join(root, "other")
	for _, d := range []string{dir, other} {
		require.NoError(t, os.MkdirAll(d, 0755))
		require.NoError(t, ioutil.WriteFile(filepath.Join(d, inception.DefaultGraphFile), []byte("graph"), 0644))
		require.NoError(t, ioutil.WriteFile(filepath.Join(d, inception.DefaultLabelFile), []byte("L0\nL1\n"), 0644))
	}

	store := inception.NewStore(&runtime{graph: twoLabels()}, inception.WithStoreLogger(quietLogger()))
	svc := inception.NewService(store, preprocess.New(), inception.WithLogger(quietLogger()))
	defer svc.Close()
	srv := api.NewServer(svc, dir, quietLogger(), api.WithModelRoot(root))
	client := dialGRPC(t, srv)
	ctx := context.Background()

	_, err := client.Classify(ctx, &proto.ClassifyRequest{Image: testImage(t), ModelDir: other})
	require.NoError(t, err)
	_, err = client.Classify(ctx, &proto.ClassifyRequest{Image: testImage(t), ModelDir: "other"})
	require.NoError(t, err)
	assert.Equal(t, []string{other}, svc.Loaded())

	_, err = client.Classify(ctx, &proto.ClassifyRequest{Image: testImage(t), ModelDir: filepath.Dir(root)})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestWebsocket(t *testing.T) {
	srv, _ := newServer(t, twoLabels())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?top_k=2"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	for i := 0; i < 3; i++ {
		require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, testImage(t)))

		var got result
		require.NoError(t, conn.ReadJSON(&got))
		assert.Empty(t, got.Error)
		require.Len(t, got.Predictions, 2)
		assert.Equal(t, "82.00%", got.Predictions[0].Probability)
	}

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte("garbage")))
	var got result
	require.NoError(t, conn.ReadJSON(&got))
	assert.NotEmpty(t, got.Error)
	assert.Equal(t, codes.InvalidArgument.String(), got.Code)
	assert.Empty(t, got.Predictions)
}

func TestWebsocketRejects(t *testing.T) {
	srv, _ := newServer(t, twoLabels())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url+"?model_dir=/etc", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	_, resp, err = websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebsocketAllowedOrigins(t *testing.T) {
	_, dir := newServer(t, twoLabels())
	store := inception.NewStore(&runtime{graph: twoLabels()}, inception.WithStoreLogger(quietLogger()))
	srv := api.NewServer(inception.NewService(store, preprocess.New(), inception.WithLogger(quietLogger())),
		dir, quietLogger(), api.WithAllowedOrigins([]string{"http://dashboard.example"}))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://dashboard.example"}})
	require.NoError(t, err)
	conn.Close()

	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"http://evil.example"}})
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
