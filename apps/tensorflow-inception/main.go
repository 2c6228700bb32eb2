package main

import (
	"flag"

	"github.com/sdeoras/inception/backend"
	"github.com/sdeoras/inception/config"
	"github.com/sdeoras/inception/flow"
	"github.com/sirupsen/logrus"
)

var (
	configFile *string
	inDir      *string
	outDir     *string
	modelDir   *string
	jobID      *string
	topK       *int
	batchSize  *int
	numBatches *int
)

func main() {
	// flag management
	configFile = flag.String("config", config.DefaultConfigPath, "YAML config file")
	inDir = flag.String("input-dir", "/tf/images", "input dir")
	outDir = flag.String("out-dir", "/tf/out", "output dir")
	modelDir = flag.String("model-dir", "", "model dir, overrides config")
	jobID = flag.String("job-id", "default", "job id")
	topK = flag.Int("top-k", 5, "number of labels per image")
	batchSize = flag.Int("batch-size", 100, "batch size")
	numBatches = flag.Int("num-batches", 25, "number of batches to run")
	flag.Parse()

	if *topK <= 0 {
		logrus.Fatal("--top-k has to be a positive integer")
	}
	if *batchSize <= 0 {
		logrus.Fatal("--batch-size has to be a positive integer")
	}
	if *numBatches <= 0 {
		logrus.Fatal("--num-batches has to be a positive integer")
	}

	cfg, err := config.LoadConfigFile(*configFile)
	if err != nil {
		logrus.Fatal(err)
	}
	if *modelDir != "" {
		cfg.ModelDir = *modelDir
	}

	log := logrus.StandardLogger()
	if err := cfg.Log.ConfigureLogger(log); err != nil {
		logrus.Fatal(err)
	}

	// load the model and build the processor
	logrus.Info("loading graph")
	b, err := backend.New(cfg, log)
	if err != nil {
		logrus.Fatal(err)
	}
	defer b.Close()
	if err := b.Preload(cfg.ModelDir); err != nil {
		logrus.Fatal(err)
	}
	logrus.Info("graph loaded")

	processor := flow.NewProcessor(b, flow.Properties{
		ModelDir: cfg.ModelDir,
		TopK:     *topK,
		Output:   flow.OutputJSON,
	}, log)

	if err := run(processor); err != nil {
		logrus.Fatal(err)
	}
}
