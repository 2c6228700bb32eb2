package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sdeoras/inception/api"
	"github.com/sdeoras/inception/proto"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

// Results compares the round trip of one image over gRPC and HTTP.
type Results struct {
	Filename     string
	FileSize     uint64
	FileIOTime   time.Duration
	GRPCTime     time.Duration
	HTTPTime     time.Duration
	Label        string
	LabelsAgreed bool
}

func main() {
	t0 := time.Now()
	host := flag.String("host", "0.0.0.0:7001", "grpc server host:port")
	httpHost := flag.String("http", "0.0.0.0:8080", "http server host:port")
	outDir := flag.String("out-dir", "/tf/output", "output dir")
	inputDir := flag.String("input-dir", "/tf/images", "input folder")
	jobID := flag.String("job-id", "default", "job id")
	batchSize := flag.Int("batch-size", 100, "batch size")
	flag.Parse()

	if !strings.Contains(*host, ":") {
		logrus.Fatal("--host needs a port number")
	}
	if !strings.Contains(*httpHost, ":") {
		logrus.Fatal("--http needs a port number")
	}

	if *jobID == "default" {
		*jobID = uuid.New().String()
		logrus.Info("using job id:", *jobID)
	}

	logrus.Info("dialing grpc server: ", *host)
	ctx := context.Background()
	conn, err := grpc.Dial(*host, grpc.WithInsecure(),
		grpc.WithDefaultCallOptions(api.CallOptions()...))
	if err != nil {
		logrus.Fatal(err)
	}
	defer conn.Close()
	client := proto.NewClassifierClient(conn)
	logrus.Info("connected to grpc server: ", *host)

	files, err := ioutil.ReadDir(*inputDir)
	if err != nil {
		logrus.Fatal(err)
	}
	var tokens []string
	for _, f := range files {
		if !f.IsDir() {
			tokens = append(tokens, f.Name())
		}
	}
	if len(tokens) >= *batchSize {
		tokens = tokens[:*batchSize]
	}
	logrus.Info("working on tokens: ", len(tokens))

	var b bytes.Buffer
	bw := bufio.NewWriter(&b)
	classifyURL := "http://" + *httpHost + "/classify?top_k=1"
	for _, token := range tokens {
		t := time.Now()

		image, err := ioutil.ReadFile(filepath.Join(*inputDir, token))
		if err != nil {
			logrus.Fatal(err)
		}
		Out := new(Results)
		Out.Filename = token
		Out.FileSize = uint64(len(image))
		Out.FileIOTime = time.Since(t)
		t = time.Now()

		resp, err := client.Classify(ctx, &proto.ClassifyRequest{Image: image, TopK: 1})
		if err != nil {
			logrus.WithField("fileName", token).Error(err)
			continue
		}
		Out.GRPCTime = time.Since(t)
		t = time.Now()

		label, err := classifyHTTP(classifyURL, image)
		if err != nil {
			logrus.WithField("fileName", token).Error(err)
			continue
		}
		Out.HTTPTime = time.Since(t)

		if best, ok := resp.Result().Best(); ok {
			Out.Label = best.Label
		}
		Out.LabelsAgreed = Out.Label == label

		jb, err := json.Marshal(Out)
		if err != nil {
			logrus.Fatal(err)
		}

		fmt.Fprintln(bw, string(jb))
	}

	if err := bw.Flush(); err != nil {
		logrus.Fatal(err)
	}

	timeStamp := strconv.FormatInt(time.Now().UnixNano(), 16)
	dirName := filepath.Join(*outDir, *jobID)
	fileName := filepath.Join(dirName, *jobID+"_"+timeStamp+".json")

	if err := os.MkdirAll(dirName, 0755); err != nil {
		logrus.Fatal(err)
	}
	if err := ioutil.WriteFile(fileName, b.Bytes(), 0644); err != nil {
		logrus.Fatal(err)
	}
	logrus.Info("writing output: ", fileName)
	logrus.Info("all done: ", time.Since(t0))
}

func classifyHTTP(url string, image []byte) (string, error) {
	resp, err := http.Post(url, "application/octet-stream", bytes.NewReader(image))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out struct {
		Predictions []struct {
			Label string `json:"label"`
		} `json:"predictions"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("http %d: %s", resp.StatusCode, out.Error)
	}
	if len(out.Predictions) == 0 {
		return "", nil
	}
	return out.Predictions[0].Label, nil
}
