package main

import (
	"context"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sdeoras/inception/api"
	"github.com/sdeoras/inception/backend"
	"github.com/sdeoras/inception/config"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

const shutdownTimeout = 30 * time.Second

func main() {
	configFile := flag.String("config", config.DefaultConfigPath, "YAML config file")
	grpcHost := flag.String("host", "", "gRPC host in host:port format, overrides config")
	httpHost := flag.String("http", "", "HTTP host in host:port format, overrides config")
	modelDir := flag.String("model-dir", "", "default model dir, overrides config")
	preload := flag.Bool("preload", true, "load the default model before serving")
	flag.Parse()

	cfg, err := config.LoadConfigFile(*configFile)
	if err != nil {
		logrus.Fatal(err)
	}
	if *grpcHost != "" {
		cfg.GRPCAddress = *grpcHost
	}
	if *httpHost != "" {
		cfg.HTTPAddress = *httpHost
	}
	if *modelDir != "" {
		cfg.ModelDir = *modelDir
	}

	if !strings.Contains(cfg.GRPCAddress, ":") {
		logrus.Fatal("--host requires a port number")
	}
	if !strings.Contains(cfg.HTTPAddress, ":") {
		logrus.Fatal("--http requires a port number")
	}

	log := logrus.StandardLogger()
	if err := cfg.Log.ConfigureLogger(log); err != nil {
		logrus.Fatal(err)
	}

	b, err := backend.New(cfg, log)
	if err != nil {
		logrus.Fatal(err)
	}
	defer func() {
		if err := b.Close(); err != nil {
			logrus.WithError(err).Error("error closing backend")
		}
	}()

	if *preload {
		if err := b.Preload(cfg.ModelDir); err != nil {
			logrus.Fatal(err)
		}
		logrus.WithField("modelDir", cfg.ModelDir).Info("model preloaded")
	}

	srv := api.NewServer(b, cfg.ModelDir, log,
		api.WithModelRoot(cfg.ModelRoot),
		api.WithAllowedOrigins(cfg.AllowedOrigins))

	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		logrus.Fatal(err)
	}
	s := grpc.NewServer(api.ServerOptions()...)
	srv.Register(s)
	reflection.Register(s)

	hs := &http.Server{Addr: cfg.HTTPAddress, Handler: srv.Handler()}

	cerr := make(chan error, 2)
	go func(c chan error) {
		logrus.Info("starting grpc server on ", cfg.GRPCAddress)
		c <- s.Serve(lis)
	}(cerr)
	go func(c chan error) {
		logrus.Info("starting http server on ", cfg.HTTPAddress)
		c <- hs.ListenAndServe()
	}(cerr)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	logrus.Info("ctrl-c to exit")
	select {
	case err := <-cerr:
		logrus.WithError(err).Error("server stopped")
	case <-sig:
		logrus.Info("shutting down")
	}

	if err := stop(hs, s, shutdownTimeout); err != nil {
		logrus.WithError(err).Error("http shutdown")
	}
}

// stop drains both servers, letting in flight requests finish. HTTP
// requests still running after timeout are dropped.
func stop(hs *http.Server, gs *grpc.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		gs.GracefulStop()
		close(done)
	}()

	err := hs.Shutdown(ctx)
	<-done
	return err
}
