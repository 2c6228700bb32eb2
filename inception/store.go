package inception

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// Store loads models from directories and keeps them for its lifetime.
//
// The entries map is guarded by mu, which is only held for map access. A
// load runs outside the lock; callers asking for a directory that is being
// loaded wait on the entry's done channel, so every directory is read at most
// once while loads of different directories proceed in parallel. Failed loads
// are dropped from the map and retried by the next caller.
type Store struct {
	runtime   Runtime
	graphFile string
	labelFile string
	readFile  func(string) ([]byte, error)
	log       logrus.FieldLogger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	done  chan struct{}
	model *Model
	err   error
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithGraphFile sets the graph file name looked up in each model directory.
func WithGraphFile(name string) StoreOption {
	return func(s *Store) { s.graphFile = name }
}

// WithLabelFile sets the label file name looked up in each model directory.
func WithLabelFile(name string) StoreOption {
	return func(s *Store) { s.labelFile = name }
}

// WithReadFile replaces the function used to read model files.
func WithReadFile(fn func(string) ([]byte, error)) StoreOption {
	return func(s *Store) { s.readFile = fn }
}

// WithStoreLogger sets the logger.
func WithStoreLogger(log logrus.FieldLogger) StoreOption {
	return func(s *Store) { s.log = log }
}

// NewStore returns an empty store compiling graphs with runtime.
func NewStore(runtime Runtime, opts ...StoreOption) *Store {
	s := &Store{
		runtime:   runtime,
		graphFile: DefaultGraphFile,
		labelFile: DefaultLabelFile,
		readFile:  ioutil.ReadFile,
		log:       logrus.StandardLogger(),
		entries:   make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns the model stored in dir, reading it from disk on first use.
// Repeated calls for the same directory return the same *Model.
func (s *Store) Load(dir string) (*Model, error) {
	key := filepath.Clean(dir)

	s.mu.Lock()
	e, present := s.entries[key]
	if !present {
		e = &entry{done: make(chan struct{})}
		s.entries[key] = e
	}
	s.mu.Unlock()

	if present {
		<-e.done
		return e.model, e.err
	}

	// a panicking load still releases waiters and leaves the path retryable
	e.err = &ModelLoadError{Dir: key, Path: key, Err: errLoadPanicked}
	defer func() {
		if e.err != nil {
			s.mu.Lock()
			delete(s.entries, key)
			s.mu.Unlock()
		}
		close(e.done)
	}()

	e.model, e.err = s.load(key)
	return e.model, e.err
}

var errLoadPanicked = errors.New("model load panicked")

func (s *Store) load(dir string) (*Model, error) {
	t := time.Now()
	log := s.log.WithField("modelDir", dir)
	log.Info("loading model")

	graphPath := filepath.Join(dir, s.graphFile)
	graphDef, err := s.readFile(graphPath)
	if err != nil {
		return nil, &ModelLoadError{Dir: dir, Path: graphPath, Err: err}
	}

	labelPath := filepath.Join(dir, s.labelFile)
	labelBytes, err := s.readFile(labelPath)
	if err != nil {
		return nil, &ModelLoadError{Dir: dir, Path: labelPath, Err: err}
	}
	labels, err := parseLabels(labelBytes)
	if err != nil {
		return nil, &ModelLoadError{Dir: dir, Path: labelPath, Err: err}
	}

	graph, err := s.runtime.Load(graphDef)
	if err != nil {
		return nil, &ModelLoadError{Dir: dir, Path: graphPath, Err: err}
	}

	log.WithFields(logrus.Fields{
		"labels":    len(labels),
		"graphSize": len(graphDef),
		"duration":  time.Since(t),
	}).Info("model loaded")

	return &Model{Dir: dir, Labels: labels, Graph: graph}, nil
}

// parseLabels splits a newline delimited UTF-8 label file.
func parseLabels(b []byte) ([]string, error) {
	if !utf8.Valid(b) {
		return nil, errors.New("label file is not valid UTF-8")
	}

	labels := make([]string, 0)
	scanner := bufio.NewScanner(bytes.NewReader(b))
	scanner.Buffer(make([]byte, 0, 4096), len(b)+1)
	for scanner.Scan() {
		labels = append(labels, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return labels, nil
}

// Loaded lists the directories whose models are cached, sorted.
func (s *Store) Loaded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirs := make([]string, 0, len(s.entries))
	for dir, e := range s.entries {
		select {
		case <-e.done:
			if e.err == nil {
				dirs = append(dirs, dir)
			}
		default:
			// still loading
		}
	}
	sort.Strings(dirs)
	return dirs
}

// Close releases every cached graph. The store must not be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	entries := s.entries
	s.entries = make(map[string]*entry)
	s.mu.Unlock()

	var errs []error
	for dir, e := range entries {
		<-e.done
		if e.model == nil {
			continue
		}
		if err := e.model.Graph.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", dir, err))
		}
	}
	return errors.Join(errs...)
}
