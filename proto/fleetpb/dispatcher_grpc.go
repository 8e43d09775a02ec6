package fleetpb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	Dispatcher_RegisterRunner_FullMethodName   = "/fleet.v1.Dispatcher/RegisterRunner"
	Dispatcher_PollTrajectory_FullMethodName   = "/fleet.v1.Dispatcher/PollTrajectory"
	Dispatcher_ReportTrajectory_FullMethodName = "/fleet.v1.Dispatcher/ReportTrajectory"
	Dispatcher_SubmitEnsemble_FullMethodName   = "/fleet.v1.Dispatcher/SubmitEnsemble"
	Dispatcher_Status_FullMethodName           = "/fleet.v1.Dispatcher/Status"
)

// DispatcherClient is the client API for the Dispatcher service.
type DispatcherClient interface {
	RegisterRunner(ctx context.Context, in *RegisterRunnerRequest, opts ...grpc.CallOption) (*RegisterRunnerResponse, error)
	PollTrajectory(ctx context.Context, in *PollTrajectoryRequest, opts ...grpc.CallOption) (*PollTrajectoryResponse, error)
	ReportTrajectory(ctx context.Context, in *ReportTrajectoryRequest, opts ...grpc.CallOption) (*ReportTrajectoryResponse, error)
	SubmitEnsemble(ctx context.Context, in *SubmitEnsembleRequest, opts ...grpc.CallOption) (*SubmitEnsembleResponse, error)
	Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error)
}

type dispatcherClient struct {
	cc grpc.ClientConnInterface
}

func NewDispatcherClient(cc grpc.ClientConnInterface) DispatcherClient {
	return &dispatcherClient{cc}
}

func (c *dispatcherClient) RegisterRunner(ctx context.Context, in *RegisterRunnerRequest, opts ...grpc.CallOption) (*RegisterRunnerResponse, error) {
	out := new(RegisterRunnerResponse)
	err := c.cc.Invoke(ctx, Dispatcher_RegisterRunner_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dispatcherClient) PollTrajectory(ctx context.Context, in *PollTrajectoryRequest, opts ...grpc.CallOption) (*PollTrajectoryResponse, error) {
	out := new(PollTrajectoryResponse)
	err := c.cc.Invoke(ctx, Dispatcher_PollTrajectory_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dispatcherClient) ReportTrajectory(ctx context.Context, in *ReportTrajectoryRequest, opts ...grpc.CallOption) (*ReportTrajectoryResponse, error) {
	out := new(ReportTrajectoryResponse)
	err := c.cc.Invoke(ctx, Dispatcher_ReportTrajectory_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dispatcherClient) SubmitEnsemble(ctx context.Context, in *SubmitEnsembleRequest, opts ...grpc.CallOption) (*SubmitEnsembleResponse, error) {
	out := new(SubmitEnsembleResponse)
	err := c.cc.Invoke(ctx, Dispatcher_SubmitEnsemble_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *dispatcherClient) Status(ctx context.Context, in *StatusRequest, opts ...grpc.CallOption) (*StatusResponse, error) {
	out := new(StatusResponse)
	err := c.cc.Invoke(ctx, Dispatcher_Status_FullMethodName, in, out, opts...)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DispatcherServer is the server API for the Dispatcher service.
type DispatcherServer interface {
	RegisterRunner(ctx context.Context, in *RegisterRunnerRequest) (*RegisterRunnerResponse, error)
	PollTrajectory(ctx context.Context, in *PollTrajectoryRequest) (*PollTrajectoryResponse, error)
	ReportTrajectory(ctx context.Context, in *ReportTrajectoryRequest) (*ReportTrajectoryResponse, error)
	SubmitEnsemble(ctx context.Context, in *SubmitEnsembleRequest) (*SubmitEnsembleResponse, error)
	Status(ctx context.Context, in *StatusRequest) (*StatusResponse, error)
}

type UnimplementedDispatcherServer struct{}

func (UnimplementedDispatcherServer) RegisterRunner(context.Context, *RegisterRunnerRequest) (*RegisterRunnerResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RegisterRunner not implemented")
}

func (UnimplementedDispatcherServer) PollTrajectory(context.Context, *PollTrajectoryRequest) (*PollTrajectoryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method PollTrajectory not implemented")
}

func (UnimplementedDispatcherServer) ReportTrajectory(context.Context, *ReportTrajectoryRequest) (*ReportTrajectoryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ReportTrajectory not implemented")
}

func (UnimplementedDispatcherServer) SubmitEnsemble(context.Context, *SubmitEnsembleRequest) (*SubmitEnsembleResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitEnsemble not implemented")
}

func (UnimplementedDispatcherServer) Status(context.Context, *StatusRequest) (*StatusResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Status not implemented")
}

func RegisterDispatcherServer(s grpc.ServiceRegistrar, srv DispatcherServer) {
	s.RegisterService(&Dispatcher_ServiceDesc, srv)
}

func _Dispatcher_RegisterRunner_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegisterRunnerRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatcherServer).RegisterRunner(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Dispatcher_RegisterRunner_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DispatcherServer).RegisterRunner(ctx, req.(*RegisterRunnerRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Dispatcher_PollTrajectory_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PollTrajectoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatcherServer).PollTrajectory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Dispatcher_PollTrajectory_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DispatcherServer).PollTrajectory(ctx, req.(*PollTrajectoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Dispatcher_ReportTrajectory_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReportTrajectoryRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatcherServer).ReportTrajectory(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Dispatcher_ReportTrajectory_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DispatcherServer).ReportTrajectory(ctx, req.(*ReportTrajectoryRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Dispatcher_SubmitEnsemble_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(SubmitEnsembleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatcherServer).SubmitEnsemble(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Dispatcher_SubmitEnsemble_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DispatcherServer).SubmitEnsemble(ctx, req.(*SubmitEnsembleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _Dispatcher_Status_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(DispatcherServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: Dispatcher_Status_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(DispatcherServer).Status(ctx, req.(*StatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var Dispatcher_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "fleet.v1.Dispatcher",
	HandlerType: (*DispatcherServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "RegisterRunner",
			Handler:    _Dispatcher_RegisterRunner_Handler,
		},
		{
			MethodName: "PollTrajectory",
			Handler:    _Dispatcher_PollTrajectory_Handler,
		},
		{
			MethodName: "ReportTrajectory",
			Handler:    _Dispatcher_ReportTrajectory_Handler,
		},
		{
			MethodName: "SubmitEnsemble",
			Handler:    _Dispatcher_SubmitEnsemble_Handler,
		},
		{
			MethodName: "Status",
			Handler:    _Dispatcher_Status_Handler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fleet/v1/dispatcher",
}
