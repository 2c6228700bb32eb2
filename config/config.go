package config

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/sdeoras/inception/inception"
	"gopkg.in/yaml.v3"
)

type Backend string

const (
	BackendTensorFlow Backend = "tensorflow"
	BackendONNX       Backend = "onnx"
)

type Preprocess string

const (
	// PreprocessGraph decodes and resizes with a TensorFlow graph.
	PreprocessGraph Preprocess = "graph"
	// PreprocessGo decodes and resizes in Go.
	PreprocessGo Preprocess = "go"
)

const (
	DefaultConfigPath  = "inception.yaml"
	DefaultModelDir    = "/models"
	DefaultGRPCAddress = ":7001"
	DefaultHTTPAddress = ":8080"
)

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type Config struct {
	GRPCAddress string `yaml:"grpc_address"`
	HTTPAddress string `yaml:"http_address"`

	ModelDir  string `yaml:"model_dir"`
	// ModelRoot bounds the model dirs remote requests may name. Empty means
	// ModelDir and its subdirectories only.
	ModelRoot string `yaml:"model_root"`
	GraphFile string `yaml:"graph_file"`
	LabelFile string `yaml:"label_file"`
	TopK      int    `yaml:"top_k"`

	Backend     Backend    `yaml:"backend"`
	Preprocess  Preprocess `yaml:"preprocess"`
	InputName   string     `yaml:"input_name"`
	OutputName  string     `yaml:"output_name"`
	ONNXLibrary string     `yaml:"onnx_library"`

	// AllowedOrigins are accepted on /ws besides same origin requests.
	AllowedOrigins []string `yaml:"allowed_origins"`

	Log LogConfig `yaml:"log"`
}

func NewDefaultConfig() *Config {
	return &Config{
		GRPCAddress: DefaultGRPCAddress,
		HTTPAddress: DefaultHTTPAddress,
		ModelDir:    DefaultModelDir,
		LabelFile:   inception.DefaultLabelFile,
		TopK:        inception.DefaultTopK,
		Backend:     BackendTensorFlow,
		InputName:   "input",
		OutputName:  "output",
		Log:         LogConfig{Level: "info", Format: "text"},
	}
}

// LoadConfigFile reads a YAML config over the defaults. A missing file is not
// an error; the defaults are returned.
func LoadConfigFile(path string) (*Config, error) {
	cfg := NewDefaultConfig()
	if path == "" {
		return cfg, nil
	}

	b, err := ioutil.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks for values no component can run with.
func (c *Config) Validate() error {
	if c.TopK <= 0 {
		return fmt.Errorf("top_k has to be a positive integer, got %d", c.TopK)
	}
	switch c.Backend {
	case BackendTensorFlow, BackendONNX:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.Preprocess {
	case "", PreprocessGo:
	case PreprocessGraph:
		if c.Backend != BackendTensorFlow {
			return fmt.Errorf("preprocess %q requires the %s backend", c.Preprocess, BackendTensorFlow)
		}
	default:
		return fmt.Errorf("unknown preprocess %q", c.Preprocess)
	}
	if c.LabelFile == "" {
		return fmt.Errorf("label_file must not be empty")
	}
	return nil
}

// ImagePreprocess is the configured preprocessing, defaulting to the graph
// for the TensorFlow backend and to Go otherwise.
func (c *Config) ImagePreprocess() Preprocess {
	if c.Preprocess != "" {
		return c.Preprocess
	}
	if c.Backend == BackendTensorFlow {
		return PreprocessGraph
	}
	return PreprocessGo
}

// ModelGraphFile is the graph file name for the configured backend.
func (c *Config) ModelGraphFile() string {
	if c.GraphFile != "" {
		return c.GraphFile
	}
	if c.Backend == BackendONNX {
		return "model.onnx"
	}
	return inception.DefaultGraphFile
}
