package proto

import (
	protobuf "github.com/golang/protobuf/proto"
	context "golang.org/x/net/context"
	grpc "google.golang.org/grpc"
)

// Messages and service stubs for classifier.proto.

type ClassifyRequest struct {
	Image                []byte   `protobuf:"bytes,1,opt,name=image,proto3" json:"image,omitempty"`
	ModelDir             string   `protobuf:"bytes,2,opt,name=model_dir,json=modelDir,proto3" json:"model_dir,omitempty"`
	TopK                 int32    `protobuf:"varint,3,opt,name=top_k,json=topK,proto3" json:"top_k,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *ClassifyRequest) Reset()         { *m = ClassifyRequest{} }
func (m *ClassifyRequest) String() string { return protobuf.CompactTextString(m) }
func (*ClassifyRequest) ProtoMessage()    {}

func (m *ClassifyRequest) GetImage() []byte {
	if m != nil {
		return m.Image
	}
	return nil
}

func (m *ClassifyRequest) GetModelDir() string {
	if m != nil {
		return m.ModelDir
	}
	return ""
}

func (m *ClassifyRequest) GetTopK() int32 {
	if m != nil {
		return m.TopK
	}
	return 0
}

type Prediction struct {
	Label                string   `protobuf:"bytes,1,opt,name=label,proto3" json:"label,omitempty"`
	Probability          string   `protobuf:"bytes,2,opt,name=probability,proto3" json:"probability,omitempty"`
	Rank                 int32    `protobuf:"varint,3,opt,name=rank,proto3" json:"rank,omitempty"`
	Score                float32  `protobuf:"fixed32,4,opt,name=score,proto3" json:"score,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Prediction) Reset()         { *m = Prediction{} }
func (m *Prediction) String() string { return protobuf.CompactTextString(m) }
func (*Prediction) ProtoMessage()    {}

type ClassifyResponse struct {
	RequestId            string        `protobuf:"bytes,1,opt,name=request_id,json=requestId,proto3" json:"request_id,omitempty"`
	Predictions          []*Prediction `protobuf:"bytes,2,rep,name=predictions,proto3" json:"predictions,omitempty"`
	XXX_NoUnkeyedLiteral struct{}      `json:"-"`
	XXX_unrecognized     []byte        `json:"-"`
	XXX_sizecache        int32         `json:"-"`
}

func (m *ClassifyResponse) Reset()         { *m = ClassifyResponse{} }
func (m *ClassifyResponse) String() string { return protobuf.CompactTextString(m) }
func (*ClassifyResponse) ProtoMessage()    {}

func (m *ClassifyResponse) GetPredictions() []*Prediction {
	if m != nil {
		return m.Predictions
	}
	return nil
}

type Empty struct {
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Empty) Reset()         { *m = Empty{} }
func (m *Empty) String() string { return protobuf.CompactTextString(m) }
func (*Empty) ProtoMessage()    {}

type ModelList struct {
	ModelDirs            []string `protobuf:"bytes,1,rep,name=model_dirs,json=modelDirs,proto3" json:"model_dirs,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *ModelList) Reset()         { *m = ModelList{} }
func (m *ModelList) String() string { return protobuf.CompactTextString(m) }
func (*ModelList) ProtoMessage()    {}

type PreloadRequest struct {
	ModelDir             string   `protobuf:"bytes,1,opt,name=model_dir,json=modelDir,proto3" json:"model_dir,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *PreloadRequest) Reset()         { *m = PreloadRequest{} }
func (m *PreloadRequest) String() string { return protobuf.CompactTextString(m) }
func (*PreloadRequest) ProtoMessage()    {}

func (m *PreloadRequest) GetModelDir() string {
	if m != nil {
		return m.ModelDir
	}
	return ""
}

type Ack struct {
	Status               bool     `protobuf:"varint,1,opt,name=status,proto3" json:"status,omitempty"`
	ModelDir             string   `protobuf:"bytes,2,opt,name=model_dir,json=modelDir,proto3" json:"model_dir,omitempty"`
	XXX_NoUnkeyedLiteral struct{} `json:"-"`
	XXX_unrecognized     []byte   `json:"-"`
	XXX_sizecache        int32    `json:"-"`
}

func (m *Ack) Reset()         { *m = Ack{} }
func (m *Ack) String() string { return protobuf.CompactTextString(m) }
func (*Ack) ProtoMessage()    {}

func init() {
	protobuf.RegisterType((*ClassifyRequest)(nil), "inception.ClassifyRequest")
	protobuf.RegisterType((*Prediction)(nil), "inception.Prediction")
	protobuf.RegisterType((*ClassifyResponse)(nil), "inception.ClassifyResponse")
	protobuf.RegisterType((*Empty)(nil), "inception.Empty")
	protobuf.RegisterType((*ModelList)(nil), "inception.ModelList")
	protobuf.RegisterType((*PreloadRequest)(nil), "inception.PreloadRequest")
	protobuf.RegisterType((*Ack)(nil), "inception.Ack")
}

// ClassifierClient is the client API for Classifier service.
type ClassifierClient interface {
	Classify(ctx context.Context, in *ClassifyRequest, opts ...grpc.CallOption) (*ClassifyResponse, error)
	Models(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ModelList, error)
	Preload(ctx context.Context, in *PreloadRequest, opts ...grpc.CallOption) (*Ack, error)
}

type classifierClient struct {
	cc *grpc.ClientConn
}

func NewClassifierClient(cc *grpc.ClientConn) ClassifierClient {
	return &classifierClient{cc}
}

func (c *classifierClient) Classify(ctx context.Context, in *ClassifyRequest, opts ...grpc.CallOption) (*ClassifyResponse, error) {
	out := new(ClassifyResponse)
	err := c.cc.Invoke(ctx, "/inception.Classifier/Classify", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *classifierClient) Models(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*ModelList, error) {
	out := new(ModelList)
	err := c.cc.Invoke(ctx, "/inception.Classifier/Models", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *classifierClient) Preload(ctx context.Context, in *PreloadRequest, opts ...grpc.CallOption) (*Ack, error) {
	out := new(Ack)
	err := c.cc.Invoke(ctx, "/inception.Classifier/Preload", in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ClassifierServer is the server API for Classifier service.
type ClassifierServer interface {
	Classify(context.Context, *ClassifyRequest) (*ClassifyResponse, error)
	Models(context.Context, *Empty) (*ModelList, error)
	Preload(context.Context, *PreloadRequest) (*Ack, error)
}

func RegisterClassifierServer(s *grpc.Server, srv ClassifierServer) {
	s.RegisterService(&_Classifier_serviceDesc, srv)
}

func _Classifier_Classify_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClassifyRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierServer).Classify(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/inception.Classifier/Classify",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClassifierServer).Classify(ctx, req.(*ClassifyRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Classifier_Models_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierServer).Models(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/inception.Classifier/Models",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClassifierServer).Models(ctx, req.(*Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func _Classifier_Preload_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PreloadRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ClassifierServer).Preload(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: "/inception.Classifier/Preload",
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ClassifierServer).Preload(ctx, req.(*PreloadRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var _Classifier_serviceDesc = grpc.ServiceDesc{
	ServiceName: "inception.Classifier",
	HandlerType: (*ClassifierServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Classify",
			Handler:    _Classifier_Classify_Handler,
		},
		{
			MethodName: "Models",
			Handler:    _Classifier_Models_Handler,
		},
		{
			MethodName: "Preload",
			Handler:    _Classifier_Preload_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "classifier.proto",
}
