package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/sdeoras/inception/api"
	"github.com/sdeoras/inception/proto"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
)

func main() {
	t := time.Now()
	host := flag.String("host", "0.0.0.0:7001", "host")
	action := flag.String("action", "models",
		"action to perform: models, preload")
	modelDir := flag.String("model-dir", "", "model dir to preload, server default when empty")
	flag.Parse()

	if !strings.Contains(*host, ":") {
		logrus.Fatal("--host needs a port number")
	}

	logrus.Info("dialing grpc:", *host)
	ctx := context.Background()
	conn, err := grpc.Dial(*host, grpc.WithInsecure(),
		grpc.WithDefaultCallOptions(api.CallOptions()...))
	if err != nil {
		logrus.Fatal(err)
	}
	defer conn.Close()
	client := proto.NewClassifierClient(conn)
	logrus.Info("connected to grpc: ", *host)

	switch strings.ToLower(*action) {
	case "models":
		logrus.Info("sending models request to: ", *host)
		list, err := client.Models(ctx, &proto.Empty{})
		if err != nil {
			logrus.Fatal(err)
		}
		logrus.Info("models request completed: ", len(list.ModelDirs))

		for _, dir := range list.ModelDirs {
			fmt.Println(dir)
		}
	case "preload":
		logrus.Info("sending preload request to: ", *host)
		ack, err := client.Preload(ctx, &proto.PreloadRequest{ModelDir: *modelDir})
		if err != nil {
			logrus.Fatal(err)
		}
		logrus.Info("preload request completed: ", ack.ModelDir)
	default:
		logrus.Fatal("unknown action: ", *action)
	}

	logrus.Info("all done: ", time.Since(t))
}
