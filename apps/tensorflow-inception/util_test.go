package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/sdeoras/inception/flow"
	"github.com/sdeoras/inception/inception"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type classifier map[string]inception.Result

func (c classifier) ClassifyTopK(image []byte, modelDir string, k int) (inception.Result, error) {
	r, ok := c[string(image)]
	if !ok {
		return nil, &inception.DecodeError{Err: errors.New("unknown image")}
	}
	return r, nil
}

func newProcessor() *flow.Processor {
	log := logrus.New()
	log.Out = ioutil.Discard
	return flow.NewProcessor(classifier{
		"cat":   {{Label: "tabby", Probability: "91.00%", Score: 0.91}, {Label: "lynx", Probability: "9.00%", Rank: 1, Score: 0.09}},
		"blank": {},
	}, flow.Properties{}, log)
}

func writeImages(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
	}
	return dir
}

func TestGetFileList(t *testing.T) {
	dir := writeImages(t, map[string]string{
		"a.jpg":     "",
		"b.JPEG":    "",
		"c.png":     "",
		"notes.txt": "",
	})

	files, err := getFileList(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.JPEG", "c.png"}, files)

	_, err = getFileList(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestClassifyFile(t *testing.T) {
	dir := writeImages(t, map[string]string{"cat.jpg": "cat", "blank.jpg": "blank"})
	p := newProcessor()

	result, err := classifyFile(p, filepath.Join(dir, "cat.jpg"))
	require.NoError(t, err)
	assert.Equal(t, flow.RelSuccess, result.Route)
	assert.Equal(t, "cat.jpg", result.Filename)
	assert.Equal(t, "tabby", result.Label)
	assert.Equal(t, "91.00%", result.Probability)
	assert.Equal(t, uint64(3), result.FileSize)
	assert.Len(t, result.Labels, 2)
	assert.NotEmpty(t, result.FlowFileID)

	result, err = classifyFile(p, filepath.Join(dir, "blank.jpg"))
	require.NoError(t, err)
	assert.Equal(t, flow.RelNoMatch, result.Route)
	assert.Empty(t, result.Label)
	assert.Empty(t, result.Labels)
}

func TestRunBatch(t *testing.T) {
	dir := writeImages(t, map[string]string{"cat.jpg": "cat", "bad.jpg": "garbage"})

	var b bytes.Buffer
	n := runBatch(newProcessor(), dir, []string{"cat.jpg", "bad.jpg", "missing.jpg"}, &b)
	assert.Equal(t, 1, n)

	scanner := bufio.NewScanner(&b)
	require.True(t, scanner.Scan())
	var line ClassifyResult
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
	assert.Equal(t, "cat.jpg", line.Filename)
	assert.Equal(t, "tabby", line.Label)
	assert.False(t, scanner.Scan())
}
