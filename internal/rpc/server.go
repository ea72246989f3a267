package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/enhance-sim/internal/enhance"
	"github.com/xtding233/enhance-sim/internal/logger"
	"github.com/xtding233/enhance-sim/internal/metrics"
	"github.com/xtding233/enhance-sim/internal/service"
)

// Server implements SimulatorServer on top of the service layer.
type Server struct {
	svc *service.Service
}

func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) ComputePool(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.svc.Pool)
}

func (s *Server) RollOption(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.svc.Roll)
}

func (s *Server) SimulateSingleRun(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.svc.SimulateRun)
}

func (s *Server) PredictOutcome(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.svc.Predict)
}

func (s *Server) RankStrategies(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, s.svc.RankStrategies)
}

func (s *Server) ListComboPresets(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, in, func(context.Context, struct{}) (map[string][]string, error) {
		return map[string][]string{"presets": s.svc.ComboPresets()}, nil
	})
}

// handle decodes in as Req, runs fn and encodes its result.
func handle[Req, Resp any](ctx context.Context, in *structpb.Struct, fn func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid request: %v", err)
	}
	resp, err := fn(ctx, req)
	if err != nil {
		return nil, status.Error(CodeFor(err), err.Error())
	}
	out, err := ToStruct(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// FromStruct decodes a Struct into v through its JSON form.
func FromStruct(in *structpb.Struct, v any) error {
	if in == nil {
		return nil
	}
	b, err := in.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

// ToStruct encodes v, which must marshal to a JSON object, as a Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, err
	}
	return out, nil
}

// CodeFor maps service errors to gRPC codes.
func CodeFor(err error) codes.Code {
	switch {
	case errors.Is(err, service.ErrNoTarget),
		errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrUnknownOption),
		errors.Is(err, service.ErrTooManyFixed),
		errors.Is(err, enhance.ErrUnknownMetric):
		return codes.InvalidArgument
	case errors.Is(err, service.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, service.ErrTooMany):
		return codes.ResourceExhausted
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}

// UnaryInterceptor logs each call and records it in m when m is non-nil.
func UnaryInterceptor(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)
		if m != nil {
			m.ObserveGRPC(info.FullMethod, code.String(), time.Since(start))
		}
		logger.Info(ctx, "gRPC call completed", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
		return resp, err
	}
}

// NewGRPCServer builds a grpc.Server with the simulator registered.
func NewGRPCServer(svc *service.Service, m *metrics.Metrics, opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts, grpc.ChainUnaryInterceptor(UnaryInterceptor(m)))
	srv := grpc.NewServer(opts...)
	RegisterSimulatorServer(srv, NewServer(svc))
	return srv
}
