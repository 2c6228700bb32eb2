package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io/ioutil"
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

type output struct {
	FileName  string      `json:"fileName"`
	RequestID string      `json:"requestID"`
	Result    interface{} `json:"result"`
	Duration  string      `json:"duration"`
}

func main() {
	t := time.Now()
	var b bytes.Buffer
	bw := bufio.NewWriter(&b)

	// flag management
	host := flag.String("host", "0.0.0.0:7001", "grpc server host:port")
	outDir := flag.String("out-dir", "", "output dir, stdout when empty")
	jobID := flag.String("job-id", "default", "job id")
	modelDir := flag.String("model-dir", "", "model dir on the server, server default when empty")
	topK := flag.Int("top-k", 0, "number of labels per image, server default when 0")
	timeout := flag.Duration("timeout", time.Minute, "timeout per request")
	flag.Parse()

	if !strings.Contains(*host, ":") {
		logrus.Fatal("--host requires a port number")
	}

	if *jobID == "default" {
		*jobID = uuid.New().String()
		logrus.Info("job id: ", *jobID)
	}

	if *topK < 0 {
		logrus.Fatal("--top-k has to be a positive integer")
	}

	if flag.NArg() == 0 {
		logrus.Fatal("usage: client [flags] image...")
	}

	// dial GRPC server
	logrus.Info("dialing grpc: ", *host)
	conn, err := grpc.Dial(*host, grpc.WithInsecure(),
		grpc.WithDefaultCallOptions(api.CallOptions()...))
	if err != nil {
		logrus.Fatal(err)
	}
	defer conn.Close()
	client := proto.NewClassifierClient(conn)
	logrus.Info("connected to grpc server: ", *host)

	for _, fileName := range flag.Args() {
		image, err := ioutil.ReadFile(fileName)
		if err != nil {
			logrus.Fatal(err)
		}

		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), *timeout)
		resp, err := client.Classify(ctx, &proto.ClassifyRequest{
			Image:    image,
			ModelDir: *modelDir,
			TopK:     int32(*topK),
		})
		cancel()
		if err != nil {
			logrus.WithField("fileName", fileName).Fatal(err)
		}

		result := resp.Result()
		if best, ok := result.Best(); ok {
			logrus.WithField("fileName", fileName).
				WithField("label", best.Label).
				WithField("probability", best.Probability).
				Info("classified")
		}

		line, err := json.Marshal(output{
			FileName:  fileName,
			RequestID: resp.RequestId,
			Result:    result,
			Duration:  time.Since(start).String(),
		})
		if err != nil {
			logrus.Fatal(err)
		}
		fmt.Fprintln(bw, string(line))
	}

	if err := bw.Flush(); err != nil {
		logrus.Fatal(err)
	}

	// write output
	if *outDir == "" {
		os.Stdout.Write(b.Bytes())
	} else {
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
	}

	// all done
	logrus.Info("all done: ", time.Since(t))
}
