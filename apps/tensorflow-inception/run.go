package main

import (
	"bufio"
	"bytes"
	"io"
	"io/ioutil"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sdeoras/inception/flow"
	"github.com/sirupsen/logrus"
)

func run(processor *flow.Processor) error {
	t0 := time.Now()
	var b bytes.Buffer
	bw := bufio.NewWriter(&b)

	if *jobID == "default" {
		*jobID = uuid.New().String()
		logrus.Info("using job id:", *jobID)
	}

	filenames, err := getFileList(*inDir)
	if err != nil {
		return err
	}

	// loop over number of batches
	for i := 0; i < *numBatches; i++ {
		start := i * (*batchSize)
		if start >= len(filenames) {
			break
		}

		end := (i + 1) * (*batchSize)
		if end > len(filenames) {
			end = len(filenames)
		}

		tokens := filenames[start:end]
		logrus.Info("computing batch: ", i, ", images: ", len(tokens))

		t := time.Now()
		if n := runBatch(processor, *inDir, tokens, bw); n < len(tokens) {
			logrus.Warn("classified ", n, " of ", len(tokens), " images in batch: ", i)
		}
		logrus.Info("looping over tokens took: ", time.Since(t), ", for jobID: ", *jobID, ", batch: ", i)
	}

	// output
	timeStamp := strconv.FormatInt(time.Now().UnixNano(), 16)
	dirName := filepath.Join(*outDir, *jobID)
	fileName := filepath.Join(dirName, *jobID+"_"+timeStamp+".json")

	if err := os.MkdirAll(dirName, 0755); err != nil {
		return err
	}

	if err := bw.Flush(); err != nil {
		return err
	}
	jb := b.Bytes()
	if len(jb) > 0 {
		if err := ioutil.WriteFile(fileName, jb, 0644); err != nil {
			return err
		}
		logrus.Info("writing output: ", fileName)
	}

	// all done
	logrus.Info("all done: ", time.Since(t0))

	return nil
}

// runBatch classifies tokens from dirName, writing one JSON line per image to
// w. Images that fail are logged and skipped. It returns the number of lines
// written.
func runBatch(processor *flow.Processor, dirName string, tokens []string, w io.Writer) int {
	var n int
	for _, token := range tokens {
		fileName := filepath.Join(dirName, token)

		result, err := classifyFile(processor, fileName)
		if err != nil {
			logrus.Error("error on classifying image: ", err, ", ", fileName)
			continue
		}

		if err := writeLine(w, result); err != nil {
			logrus.Error("could not write result: ", err, ", ", fileName)
			continue
		}
		n++
	}
	return n
}
