package api

import (
	"context"

	"github.com/sdeoras/inception/proto"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Register adds the Classifier service to s.
func (s *Server) Register(gs *grpc.Server) {
	proto.RegisterClassifierServer(gs, s)
}

func (s *Server) Classify(ctx context.Context, req *proto.ClassifyRequest) (*proto.ClassifyResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.Error(codes.Canceled, err.Error())
	}

	c, err := s.classify(req.GetImage(), req.GetModelDir(), int(req.GetTopK()))
	if err != nil {
		return nil, status.Error(code(err), err.Error())
	}

	return proto.NewClassifyResponse(c.RequestID, c.Predictions), nil
}

func (s *Server) Models(ctx context.Context, empty *proto.Empty) (*proto.ModelList, error) {
	loaded := s.classifier.Loaded()
	s.log.WithField("signal", "models").
		WithField("count", len(loaded)).
		Info("listing models")
	return &proto.ModelList{ModelDirs: loaded}, nil
}

func (s *Server) Preload(ctx context.Context, req *proto.PreloadRequest) (*proto.Ack, error) {
	log := s.log.WithFields(logrus.Fields{
		"signal":   "preload",
		"modelDir": req.GetModelDir(),
	})

	dir, err := s.resolve(req.GetModelDir())
	if err != nil {
		log.WithError(err).Warn("preload rejected")
		return nil, status.Error(code(err), err.Error())
	}
	if err := s.classifier.Preload(dir); err != nil {
		log.WithError(err).Error("preload failed")
		return nil, status.Error(code(err), err.Error())
	}
	log.Info("model loaded")

	return &proto.Ack{Status: true, ModelDir: dir}, nil
}
