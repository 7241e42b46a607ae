package handlers

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// AttributeServiceName is the fully qualified gRPC service name
const AttributeServiceName = "alekseon.eav.v1.AttributeService"

// Full method names
const (
	GetAttributeMethod    = "/" + AttributeServiceName + "/GetAttribute"
	SaveAttributeMethod   = "/" + AttributeServiceName + "/SaveAttribute"
	DeleteAttributeMethod = "/" + AttributeServiceName + "/DeleteAttribute"
	ListOptionsMethod     = "/" + AttributeServiceName + "/ListOptions"
)

// AttributeServer is the server API for the attribute service.
// Requests and responses are google.protobuf.Struct documents.
type AttributeServer interface {
	GetAttribute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	SaveAttribute(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	DeleteAttribute(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error)
	ListOptions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterAttributeServer registers srv on s
func RegisterAttributeServer(s grpc.ServiceRegistrar, srv AttributeServer) {
	s.RegisterService(&attributeServiceDesc, srv)
}

var attributeServiceDesc = grpc.ServiceDesc{
	ServiceName: AttributeServiceName,
	HandlerType: (*AttributeServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetAttribute", Handler: structHandler(GetAttributeMethod, func(srv AttributeServer, ctx context.Context, req *structpb.Struct) (interface{}, error) {
			return srv.GetAttribute(ctx, req)
		})},
		{MethodName: "SaveAttribute", Handler: structHandler(SaveAttributeMethod, func(srv AttributeServer, ctx context.Context, req *structpb.Struct) (interface{}, error) {
			return srv.SaveAttribute(ctx, req)
		})},
		{MethodName: "DeleteAttribute", Handler: structHandler(DeleteAttributeMethod, func(srv AttributeServer, ctx context.Context, req *structpb.Struct) (interface{}, error) {
			return srv.DeleteAttribute(ctx, req)
		})},
		{MethodName: "ListOptions", Handler: structHandler(ListOptionsMethod, func(srv AttributeServer, ctx context.Context, req *structpb.Struct) (interface{}, error) {
			return srv.ListOptions(ctx, req)
		})},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "alekseon/eav/v1/attribute.proto",
}

type structCall func(srv AttributeServer, ctx context.Context, req *structpb.Struct) (interface{}, error)

// structHandler adapts call to a grpc.MethodHandler decoding a Struct request
func structHandler(fullMethod string, call structCall) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(AttributeServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(AttributeServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// AttributeClient is the client API for the attribute service
type AttributeClient struct {
	cc grpc.ClientConnInterface
}

// NewAttributeClient creates a client on cc
func NewAttributeClient(cc grpc.ClientConnInterface) *AttributeClient {
	return &AttributeClient{cc: cc}
}

// GetAttribute calls GetAttribute
func (c *AttributeClient) GetAttribute(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetAttributeMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveAttribute calls SaveAttribute
func (c *AttributeClient) SaveAttribute(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, SaveAttributeMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteAttribute calls DeleteAttribute
func (c *AttributeClient) DeleteAttribute(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, DeleteAttributeMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOptions calls ListOptions
func (c *AttributeClient) ListOptions(ctx context.Context, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListOptionsMethod, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
