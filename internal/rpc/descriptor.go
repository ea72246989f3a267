package rpc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

const protoFile = "enhancesim/v1/simulator.proto"

// File is the descriptor of api/enhancesim/v1/simulator.proto, registered in
// protoregistry.GlobalFiles so server reflection can resolve the service.
var File protoreflect.FileDescriptor

func init() {
	const structType = ".google.protobuf.Struct"
	methods := make([]*descriptorpb.MethodDescriptorProto, 0, len(SimulatorServiceDesc.Methods))
	for _, m := range SimulatorServiceDesc.Methods {
		methods = append(methods, &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(m.MethodName),
			InputType:  proto.String(structType),
			OutputType: proto.String(structType),
		})
	}
	fdp := &descriptorpb.FileDescriptorProto{
		Name:       proto.String(protoFile),
		Package:    proto.String("enhancesim.v1"),
		Dependency: []string{"google/protobuf/struct.proto"},
		Syntax:     proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/xtding233/enhance-sim/internal/rpc"),
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name:   proto.String("Simulator"),
			Method: methods,
		}},
	}
	fd, err := protodesc.NewFile(fdp, protoregistry.GlobalFiles)
	if err != nil {
		panic("rpc: build descriptor: " + err.Error())
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic("rpc: register descriptor: " + err.Error())
	}
	File = fd
}
