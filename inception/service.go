package inception

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"
)

// Service classifies images against models held in a Store.
type Service struct {
	store      *Store
	normalizer Normalizer
	topK       int
	log        logrus.FieldLogger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTopK sets the number of labels returned by Classify.
func WithTopK(k int) ServiceOption {
	return func(s *Service) { s.topK = k }
}

// WithLogger sets the logger.
func WithLogger(log logrus.FieldLogger) ServiceOption {
	return func(s *Service) { s.log = log }
}

// NewService returns a Service reading models from store and preparing
// images with normalizer.
func NewService(store *Store, normalizer Normalizer, opts ...ServiceOption) *Service {
	s := &Service{
		store:      store,
		normalizer: normalizer,
		topK:       DefaultTopK,
		log:        logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TopK is the number of labels Classify returns.
func (s *Service) TopK() int {
	return s.topK
}

// Classify returns the service's configured number of best labels for image
// using the model in modelDir.
func (s *Service) Classify(image []byte, modelDir string) (Result, error) {
	return s.ClassifyTopK(image, modelDir, s.topK)
}

// ClassifyTopK returns the k best labels for image using the model in
// modelDir. Errors are one of *DecodeError, *ModelLoadError,
// *ShapeMismatchError or *InferenceRuntimeError. A model without labels
// yields an empty Result and no error.
func (s *Service) ClassifyTopK(image []byte, modelDir string, k int) (Result, error) {
	t := time.Now()
	log := s.log.WithFields(logrus.Fields{
		"modelDir": modelDir,
		"bytes":    len(image),
	})

	// normalize before touching the store, undecodable input never loads a model
	tensor, err := s.normalizer.Normalize(image)
	if err != nil {
		if !isTyped(err) {
			err = &DecodeError{Err: err}
		}
		log.WithError(err).Error("error on normalizing image")
		return nil, err
	}
	preprocessTime := time.Since(t)

	model, err := s.store.Load(modelDir)
	if err != nil {
		log.WithError(err).Error("error on loading model")
		return nil, err
	}

	probabilities, err := Infer(model.Graph, tensor)
	if err != nil {
		log.WithError(err).Error("error in running graph")
		return nil, err
	}

	result := TopK(probabilities, model.Labels, k)

	log.WithFields(logrus.Fields{
		"labels":         len(result),
		"preprocessTime": preprocessTime,
		"duration":       time.Since(t),
	}).Debug("classified")

	return result, nil
}

// Preload loads the model in dir without classifying anything.
func (s *Service) Preload(dir string) error {
	_, err := s.store.Load(dir)
	return err
}

// Loaded lists the cached model directories.
func (s *Service) Loaded() []string {
	return s.store.Loaded()
}

// Close releases every cached model.
func (s *Service) Close() error {
	return s.store.Close()
}

// isTyped reports whether err already carries one of the package's error kinds.
func isTyped(err error) bool {
	var (
		decodeErr  *DecodeError
		loadErr    *ModelLoadError
		shapeErr   *ShapeMismatchError
		runtimeErr *InferenceRuntimeError
	)
	return errors.As(err, &decodeErr) || errors.As(err, &loadErr) ||
		errors.As(err, &shapeErr) || errors.As(err, &runtimeErr)
}
