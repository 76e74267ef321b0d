package rpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// serviceName is the gRPC service path every method hangs off, matching
// the "/package.Service/method" convention protoc-gen-go-grpc emits.
const serviceName = "coldvault.trainer.Trainer"

// TrainerServer is the interface a protoc-gen-go-grpc run would have
// generated from the RPC surface in §6. It is hand-written here and wired
// through the ServiceDesc below instead, since this workspace has no
// protobuf compiler available.
type TrainerServer interface {
	GetChallenge(context.Context, *Empty) (*ChallengeResponse, error)
	CreateSession(context.Context, *ClientInfo) (*SessionInfo, error)
	RefreshSession(context.Context, *Empty) (*Empty, error)
	DeleteModule(context.Context, *Reference) (*Empty, error)
	DeleteDataset(context.Context, *Reference) (*Empty, error)
	Train(context.Context, *TrainConfig) (*Reference, error)
	Test(context.Context, *TestConfig) (*Reference, error)
	GetMetric(context.Context, *Reference) (*Metric, error)
	ListModels(context.Context, *Empty) (*ReferenceList, error)
	ListDatasets(context.Context, *Empty) (*ReferenceList, error)
	ListDevices(context.Context, *Empty) (*DeviceList, error)
	ListOptimizers(context.Context, *Empty) (*OptimizerList, error)
	ModifyTensor(context.Context, *ModifyTensorRequest) (*Reference, error)

	SendModel(Trainer_SendModelServer) error
	SendDataset(Trainer_SendDatasetServer) error
	SendTensor(Trainer_SendTensorServer) error
	FetchModule(*Reference, Trainer_FetchModuleServer) error
	FetchDataset(*Reference, Trainer_FetchDatasetServer) error
}

// UnimplementedTrainerServer gives every method an Unimplemented stub, so
// embedding it satisfies TrainerServer as new RPCs are added — the same
// forward-compatibility idiom protoc-gen-go-grpc generates.
type UnimplementedTrainerServer struct{}

func (UnimplementedTrainerServer) GetChallenge(context.Context, *Empty) (*ChallengeResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetChallenge not implemented")
}
func (UnimplementedTrainerServer) CreateSession(context.Context, *ClientInfo) (*SessionInfo, error) {
	return nil, status.Error(codes.Unimplemented, "method CreateSession not implemented")
}
func (UnimplementedTrainerServer) RefreshSession(context.Context, *Empty) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method RefreshSession not implemented")
}
func (UnimplementedTrainerServer) DeleteModule(context.Context, *Reference) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteModule not implemented")
}
func (UnimplementedTrainerServer) DeleteDataset(context.Context, *Reference) (*Empty, error) {
	return nil, status.Error(codes.Unimplemented, "method DeleteDataset not implemented")
}
func (UnimplementedTrainerServer) Train(context.Context, *TrainConfig) (*Reference, error) {
	return nil, status.Error(codes.Unimplemented, "method Train not implemented")
}
func (UnimplementedTrainerServer) Test(context.Context, *TestConfig) (*Reference, error) {
	return nil, status.Error(codes.Unimplemented, "method Test not implemented")
}
func (UnimplementedTrainerServer) GetMetric(context.Context, *Reference) (*Metric, error) {
	return nil, status.Error(codes.Unimplemented, "method GetMetric not implemented")
}
func (UnimplementedTrainerServer) ListModels(context.Context, *Empty) (*ReferenceList, error) {
	return nil, status.Error(codes.Unimplemented, "method ListModels not implemented")
}
func (UnimplementedTrainerServer) ListDatasets(context.Context, *Empty) (*ReferenceList, error) {
	return nil, status.Error(codes.Unimplemented, "method ListDatasets not implemented")
}
func (UnimplementedTrainerServer) ListDevices(context.Context, *Empty) (*DeviceList, error) {
	return nil, status.Error(codes.Unimplemented, "method ListDevices not implemented")
}
func (UnimplementedTrainerServer) ListOptimizers(context.Context, *Empty) (*OptimizerList, error) {
	return nil, status.Error(codes.Unimplemented, "method ListOptimizers not implemented")
}
func (UnimplementedTrainerServer) ModifyTensor(context.Context, *ModifyTensorRequest) (*Reference, error) {
	return nil, status.Error(codes.Unimplemented, "method ModifyTensor not implemented")
}
func (UnimplementedTrainerServer) SendModel(Trainer_SendModelServer) error {
	return status.Error(codes.Unimplemented, "method SendModel not implemented")
}
func (UnimplementedTrainerServer) SendDataset(Trainer_SendDatasetServer) error {
	return status.Error(codes.Unimplemented, "method SendDataset not implemented")
}
func (UnimplementedTrainerServer) SendTensor(Trainer_SendTensorServer) error {
	return status.Error(codes.Unimplemented, "method SendTensor not implemented")
}
func (UnimplementedTrainerServer) FetchModule(*Reference, Trainer_FetchModuleServer) error {
	return status.Error(codes.Unimplemented, "method FetchModule not implemented")
}
func (UnimplementedTrainerServer) FetchDataset(*Reference, Trainer_FetchDatasetServer) error {
	return status.Error(codes.Unimplemented, "method FetchDataset not implemented")
}

// Trainer_SendModelServer, Trainer_SendDatasetServer and
// Trainer_SendTensorServer are the client-streaming ingest RPCs: the client
// sends a sequence of Chunks and the server replies once with a reference.
type Trainer_SendModelServer interface {
	Recv() (*Chunk, error)
	SendAndClose(*Reference) error
	grpc.ServerStream
}

type Trainer_SendDatasetServer interface {
	Recv() (*Chunk, error)
	SendAndClose(*RemoteDatasetReference) error
	grpc.ServerStream
}

type Trainer_SendTensorServer interface {
	Recv() (*Chunk, error)
	SendAndClose(*Reference) error
	grpc.ServerStream
}

// Trainer_FetchModuleServer and Trainer_FetchDatasetServer are the
// server-streaming egress RPCs.
type Trainer_FetchModuleServer interface {
	Send(*Chunk) error
	grpc.ServerStream
}

type Trainer_FetchDatasetServer interface {
	Send(*Chunk) error
	grpc.ServerStream
}

type trainerSendModelServer struct{ grpc.ServerStream }

func (x *trainerSendModelServer) Recv() (*Chunk, error) {
	m := new(Chunk)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
func (x *trainerSendModelServer) SendAndClose(m *Reference) error { return x.ServerStream.SendMsg(m) }

type trainerSendDatasetServer struct{ grpc.ServerStream }

func (x *trainerSendDatasetServer) Recv() (*Chunk, error) {
	m := new(Chunk)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
func (x *trainerSendDatasetServer) SendAndClose(m *RemoteDatasetReference) error {
	return x.ServerStream.SendMsg(m)
}

type trainerSendTensorServer struct{ grpc.ServerStream }

func (x *trainerSendTensorServer) Recv() (*Chunk, error) {
	m := new(Chunk)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
func (x *trainerSendTensorServer) SendAndClose(m *Reference) error { return x.ServerStream.SendMsg(m) }

type trainerFetchModuleServer struct{ grpc.ServerStream }

func (x *trainerFetchModuleServer) Send(m *Chunk) error { return x.ServerStream.SendMsg(m) }

type trainerFetchDatasetServer struct{ grpc.ServerStream }

func (x *trainerFetchDatasetServer) Send(m *Chunk) error { return x.ServerStream.SendMsg(m) }

func unaryHandler(name string, newReq func() interface{}, call func(ctx context.Context, srv TrainerServer, req interface{}) (interface{}, error)) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(ctx, srv.(TrainerServer), in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/" + name}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(ctx, srv.(TrainerServer), req)
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Trainer_ServiceDesc plays the role protoc-gen-go-grpc's generated
// ServiceDesc would: it is what the real grpc.Server dispatches on for
// every inbound call, method name lookup included.
var Trainer_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*TrainerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "get_challenge", Handler: unaryHandler("get_challenge", func() interface{} { return new(Empty) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.GetChallenge(ctx, req.(*Empty))
		})},
		{MethodName: "create_session", Handler: unaryHandler("create_session", func() interface{} { return new(ClientInfo) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.CreateSession(ctx, req.(*ClientInfo))
		})},
		{MethodName: "refresh_session", Handler: unaryHandler("refresh_session", func() interface{} { return new(Empty) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.RefreshSession(ctx, req.(*Empty))
		})},
		{MethodName: "delete_module", Handler: unaryHandler("delete_module", func() interface{} { return new(Reference) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.DeleteModule(ctx, req.(*Reference))
		})},
		{MethodName: "delete_dataset", Handler: unaryHandler("delete_dataset", func() interface{} { return new(Reference) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.DeleteDataset(ctx, req.(*Reference))
		})},
		{MethodName: "train", Handler: unaryHandler("train", func() interface{} { return new(TrainConfig) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.Train(ctx, req.(*TrainConfig))
		})},
		{MethodName: "test", Handler: unaryHandler("test", func() interface{} { return new(TestConfig) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.Test(ctx, req.(*TestConfig))
		})},
		{MethodName: "get_metric", Handler: unaryHandler("get_metric", func() interface{} { return new(Reference) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.GetMetric(ctx, req.(*Reference))
		})},
		{MethodName: "list_models", Handler: unaryHandler("list_models", func() interface{} { return new(Empty) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.ListModels(ctx, req.(*Empty))
		})},
		{MethodName: "list_datasets", Handler: unaryHandler("list_datasets", func() interface{} { return new(Empty) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.ListDatasets(ctx, req.(*Empty))
		})},
		{MethodName: "list_devices", Handler: unaryHandler("list_devices", func() interface{} { return new(Empty) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.ListDevices(ctx, req.(*Empty))
		})},
		{MethodName: "list_optimizers", Handler: unaryHandler("list_optimizers", func() interface{} { return new(Empty) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.ListOptimizers(ctx, req.(*Empty))
		})},
		{MethodName: "modify_tensor", Handler: unaryHandler("modify_tensor", func() interface{} { return new(ModifyTensorRequest) }, func(ctx context.Context, s TrainerServer, req interface{}) (interface{}, error) {
			return s.ModifyTensor(ctx, req.(*ModifyTensorRequest))
		})},
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "send_model",
			Handler: func(srv interface{}, stream grpc.ServerStream) error {
				return srv.(TrainerServer).SendModel(&trainerSendModelServer{stream})
			},
			ClientStreams: true,
		},
		{
			StreamName: "send_dataset",
			Handler: func(srv interface{}, stream grpc.ServerStream) error {
				return srv.(TrainerServer).SendDataset(&trainerSendDatasetServer{stream})
			},
			ClientStreams: true,
		},
		{
			StreamName: "send_tensor",
			Handler: func(srv interface{}, stream grpc.ServerStream) error {
				return srv.(TrainerServer).SendTensor(&trainerSendTensorServer{stream})
			},
			ClientStreams: true,
		},
		{
			StreamName: "fetch_module",
			Handler: func(srv interface{}, stream grpc.ServerStream) error {
				m := new(Reference)
				if err := stream.RecvMsg(m); err != nil {
					return err
				}
				return srv.(TrainerServer).FetchModule(m, &trainerFetchModuleServer{stream})
			},
			ServerStreams: true,
		},
		{
			StreamName: "fetch_dataset",
			Handler: func(srv interface{}, stream grpc.ServerStream) error {
				m := new(Reference)
				if err := stream.RecvMsg(m); err != nil {
					return err
				}
				return srv.(TrainerServer).FetchDataset(m, &trainerFetchDatasetServer{stream})
			},
			ServerStreams: true,
		},
	},
	Metadata: "coldvault/trainer.proto",
}

// RegisterTrainerServer attaches srv's implementation to s, mirroring the
// pb.RegisterXServer helper protoc-gen-go-grpc generates.
func RegisterTrainerServer(s grpc.ServiceRegistrar, srv TrainerServer) {
	s.RegisterService(&Trainer_ServiceDesc, srv)
}
