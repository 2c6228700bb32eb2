package main

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"path/filepath"
	"strings"
	"time"

	"github.com/sdeoras/inception/flow"
	"github.com/sdeoras/inception/inception"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

func getFileList(inputDir string) ([]string, error) {
	var tokens []string

	files, err := ioutil.ReadDir(inputDir)
	if err != nil {
		return nil, err
	}

	for _, f := range files {
		if !f.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(f.Name()))] {
			tokens = append(tokens, f.Name())
		}
	}

	return tokens, nil
}

// classifyFile reads fileName and routes it through the processor as one
// FlowFile. Failure routes come back as errors; nomatch is a result with no
// labels.
func classifyFile(processor *flow.Processor, fileName string) (*ClassifyResult, error) {
	tLoop := time.Now()
	image, err := ioutil.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	fileIOTime := time.Since(tLoop)
	tLoop = time.Now()

	ff := flow.NewFlowFile(image, map[string]string{"filename": filepath.Base(fileName)})
	rel, out, err := processor.OnTrigger(ff)
	if err != nil {
		return nil, err
	}
	computeTime := time.Since(tLoop)

	result := &ClassifyResult{
		Filename:    filepath.Base(fileName),
		FlowFileID:  out.ID,
		Route:       rel,
		FileSize:    uint64(len(image)),
		FileIOTime:  fileIOTime,
		ComputeTime: computeTime,
		Labels:      inception.Result{},
	}

	if v, ok := out.Attribute(flow.AttributeProbabilities); ok {
		if err := json.Unmarshal([]byte(v), &result.Labels); err != nil {
			return nil, err
		}
	}
	if best, ok := result.Labels.Best(); ok {
		result.Label = best.Label
		result.Probability = best.Probability
	}

	return result, nil
}

func writeLine(w io.Writer, result *ClassifyResult) error {
	jb, err := json.Marshal(result)
	if err != nil {
		return err
	}
	_, err = w.Write(append(jb, '\n'))
	return err
}
