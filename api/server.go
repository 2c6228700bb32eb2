// Package api exposes a classification service over gRPC, HTTP and
// websockets.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sdeoras/inception/inception"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
)

// MaxImageBytes caps the size of an uploaded image.
const MaxImageBytes = 32 << 20

// maxMessageBytes leaves room for the request fields around the image.
const maxMessageBytes = MaxImageBytes + 64<<10

// Classifier is the part of inception.Service served by the api.
type Classifier interface {
	ClassifyTopK(image []byte, modelDir string, k int) (inception.Result, error)
	TopK() int
	Preload(modelDir string) error
	Loaded() []string
}

// Server implements proto.ClassifierServer and the HTTP endpoints.
type Server struct {
	classifier Classifier
	modelDir   string
	modelRoot  string
	log        logrus.FieldLogger
	upgrader   websocket.Upgrader
}

// Option configures a Server.
type Option func(*Server)

// WithModelRoot lets requests name any model directory under root. Without
// it only the default model directory and its subdirectories are served.
func WithModelRoot(root string) Option {
	return func(s *Server) {
		if root != "" {
			s.modelRoot = filepath.Clean(root)
		}
	}
}

// WithAllowedOrigins accepts websocket upgrades from the listed origins in
// addition to same origin requests, which are always accepted.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		if len(origins) == 0 {
			return
		}
		allowed := make(map[string]bool, len(origins))
		for _, o := range origins {
			allowed[strings.ToLower(o)] = true
		}
		s.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed[strings.ToLower(origin)] {
				return true
			}
			u, err := url.Parse(origin)
			return err == nil && strings.EqualFold(u.Host, r.Host)
		}
	}
}

// NewServer returns a Server classifying against modelDir unless a request
// names another directory under the model root.
func NewServer(classifier Classifier, modelDir string, log logrus.FieldLogger, opts ...Option) *Server {
	s := &Server{
		classifier: classifier,
		modelDir:   modelDir,
		modelRoot:  filepath.Clean(modelDir),
		log:        log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1 << 16,
			WriteBufferSize: 1 << 12,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServerOptions are the grpc.Server options matching the HTTP upload limit.
func ServerOptions() []grpc.ServerOption {
	return []grpc.ServerOption{grpc.MaxRecvMsgSize(maxMessageBytes)}
}

// CallOptions are the client call options matching the HTTP upload limit.
func CallOptions() []grpc.CallOption {
	return []grpc.CallOption{
		grpc.MaxCallSendMsgSize(maxMessageBytes),
		grpc.MaxCallRecvMsgSize(maxMessageBytes),
	}
}

// modelDirError rejects a requested directory outside the model root.
type modelDirError struct {
	dir, root string
}

func (e *modelDirError) Error() string {
	return fmt.Sprintf("model dir %s is outside %s", e.dir, e.root)
}

// resolve maps a requested model directory to a path under the model root.
// Relative paths are taken relative to the root.
func (s *Server) resolve(dir string) (string, error) {
	if dir == "" {
		return s.modelDir, nil
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(s.modelRoot, dir)
	}
	dir = filepath.Clean(dir)

	rel, err := filepath.Rel(s.modelRoot, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &modelDirError{dir: dir, root: s.modelRoot}
	}
	return dir, nil
}

type classification struct {
	RequestID   string           `json:"request_id"`
	Predictions inception.Result `json:"predictions"`
}

// classify runs one request under a fresh request id. Zero values of
// modelDir and k take the server defaults.
func (s *Server) classify(image []byte, modelDir string, k int) (*classification, error) {
	t := time.Now()
	modelDir, err := s.resolve(modelDir)
	if err != nil {
		s.log.WithError(err).Warn("classify request rejected")
		return nil, err
	}
	if k <= 0 {
		k = s.classifier.TopK()
	}

	requestID := uuid.New().String()
	log := s.log.WithFields(logrus.Fields{
		"requestID": requestID,
		"modelDir":  modelDir,
		"topK":      k,
	})

	result, err := s.classifier.ClassifyTopK(image, modelDir, k)
	if err != nil {
		log.WithError(err).WithField("code", code(err)).Error("classify request failed")
		return nil, err
	}

	fields := logrus.Fields{"duration": time.Since(t)}
	if best, ok := result.Best(); ok {
		fields["label"] = best.Label
		fields["probability"] = best.Probability
	}
	log.WithFields(fields).Info("classify request")

	return &classification{RequestID: requestID, Predictions: result}, nil
}

// code maps an error kind to a gRPC status code.
func code(err error) codes.Code {
	var (
		dirErr     *modelDirError
		decodeErr  *inception.DecodeError
		loadErr    *inception.ModelLoadError
		shapeErr   *inception.ShapeMismatchError
		runtimeErr *inception.InferenceRuntimeError
	)
	switch {
	case err == nil:
		return codes.OK
	case errors.As(err, &dirErr), errors.As(err, &decodeErr):
		return codes.InvalidArgument
	case errors.As(err, &loadErr):
		return codes.FailedPrecondition
	case errors.As(err, &shapeErr), errors.As(err, &runtimeErr):
		return codes.Internal
	}
	return codes.Unknown
}

// httpStatus maps an error kind to an HTTP status code.
func httpStatus(err error) int {
	switch code(err) {
	case codes.OK:
		return http.StatusOK
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusPreconditionFailed
	}
	return http.StatusInternalServerError
}
