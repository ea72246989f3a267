// Package rpc serves the simulator over gRPC. Requests and responses are
// google.protobuf.Struct values holding the HTTP API's JSON documents; the
// service descriptor matches api/enhancesim/v1/simulator.proto.
package rpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "enhancesim.v1.Simulator"

const (
	MethodComputePool       = "ComputePool"
	MethodRollOption        = "RollOption"
	MethodSimulateSingleRun = "SimulateSingleRun"
	MethodPredictOutcome    = "PredictOutcome"
	MethodRankStrategies    = "RankStrategies"
	MethodListComboPresets  = "ListComboPresets"
)

// SimulatorServer is the server API for the Simulator service.
type SimulatorServer interface {
	ComputePool(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RollOption(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SimulateSingleRun(context.Context, *structpb.Struct) (*structpb.Struct, error)
	PredictOutcome(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RankStrategies(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListComboPresets(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(SimulatorServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call unaryCall) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SimulatorServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SimulatorServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FullMethod returns the wire name of a method, e.g. /enhancesim.v1.Simulator/ComputePool.
func FullMethod(name string) string { return "/" + ServiceName + "/" + name }

// SimulatorServiceDesc describes the Simulator service for grpc.Server.
var SimulatorServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SimulatorServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodComputePool, SimulatorServer.ComputePool),
		unary(MethodRollOption, SimulatorServer.RollOption),
		unary(MethodSimulateSingleRun, SimulatorServer.SimulateSingleRun),
		unary(MethodPredictOutcome, SimulatorServer.PredictOutcome),
		unary(MethodRankStrategies, SimulatorServer.RankStrategies),
		unary(MethodListComboPresets, SimulatorServer.ListComboPresets),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: protoFile,
}

// RegisterSimulatorServer registers srv on s.
func RegisterSimulatorServer(s grpc.ServiceRegistrar, srv SimulatorServer) {
	s.RegisterService(&SimulatorServiceDesc, srv)
}

// SimulatorClient calls the Simulator service.
type SimulatorClient struct {
	cc grpc.ClientConnInterface
}

func NewSimulatorClient(cc grpc.ClientConnInterface) *SimulatorClient {
	return &SimulatorClient{cc: cc}
}

// Call invokes method with in.
func (c *SimulatorClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	if in == nil {
		in = &structpb.Struct{}
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
