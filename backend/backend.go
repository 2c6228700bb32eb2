// Package backend builds a classification service from a config.
package backend

import (
	"errors"
	"fmt"

	"github.com/sdeoras/inception/config"
	"github.com/sdeoras/inception/inception"
	"github.com/sdeoras/inception/onnxengine"
	"github.com/sdeoras/inception/preprocess"
	"github.com/sdeoras/inception/tfengine"
	"github.com/sirupsen/logrus"
)

// Backend is a Service plus the native resources behind it.
type Backend struct {
	*inception.Service
	closers []func() error
}

// New wires the runtime and normalizer named in cfg into a Service.
func New(cfg *config.Config, log logrus.FieldLogger) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := new(Backend)

	var runtime inception.Runtime
	switch cfg.Backend {
	case config.BackendTensorFlow:
		runtime = tfengine.New(tfengine.WithOperations(cfg.InputName, cfg.OutputName))
	case config.BackendONNX:
		r, err := onnxengine.New(cfg.ONNXLibrary)
		if err != nil {
			return nil, err
		}
		runtime = r.WithOperations(cfg.InputName, cfg.OutputName)
		b.closers = append(b.closers, r.Close)
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}

	var normalizer inception.Normalizer
	switch cfg.ImagePreprocess() {
	case config.PreprocessGraph:
		n := tfengine.NewNormalizer()
		normalizer = n
		b.closers = append(b.closers, n.Close)
	default:
		normalizer = preprocess.New()
	}

	store := inception.NewStore(runtime,
		inception.WithGraphFile(cfg.ModelGraphFile()),
		inception.WithLabelFile(cfg.LabelFile),
		inception.WithStoreLogger(log))

	// graphs go before the environment they were created in
	b.closers = append([]func() error{store.Close}, b.closers...)

	b.Service = inception.NewService(store, normalizer,
		inception.WithTopK(cfg.TopK),
		inception.WithLogger(log))

	log.WithFields(logrus.Fields{
		"backend":    cfg.Backend,
		"preprocess": cfg.ImagePreprocess(),
		"graphFile":  cfg.ModelGraphFile(),
		"labelFile":  cfg.LabelFile,
		"topK":       cfg.TopK,
	}).Info("classification backend ready")

	return b, nil
}

// Close releases cached models, then the runtime.
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
