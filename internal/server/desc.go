package server

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// SessionServiceName is the fully-qualified gRPC service name.
const SessionServiceName = "ledger.v1.SessionService"

// SessionServiceServer is the server API for ledger.v1.SessionService. The
// messages are protobuf well-known types, so no generated code is needed.
type SessionServiceServer interface {
	Extract(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Snapshot(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	EditProduct(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditCustomer(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ExportXLSX(context.Context, *emptypb.Empty) (*wrapperspb.BytesValue, error)
}

// SessionServiceDesc describes ledger.v1.SessionService.
var SessionServiceDesc = grpc.ServiceDesc{
	ServiceName: SessionServiceName,
	HandlerType: (*SessionServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Extract", Handler: unary("Extract", newStruct, SessionServiceServer.Extract)},
		{MethodName: "Snapshot", Handler: unary("Snapshot", newEmpty, SessionServiceServer.Snapshot)},
		{MethodName: "EditProduct", Handler: unary("EditProduct", newStruct, SessionServiceServer.EditProduct)},
		{MethodName: "EditCustomer", Handler: unary("EditCustomer", newStruct, SessionServiceServer.EditCustomer)},
		{MethodName: "ExportXLSX", Handler: unary("ExportXLSX", newEmpty, SessionServiceServer.ExportXLSX)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/v1/session.proto",
}

// RegisterSessionServiceServer registers srv on s.
func RegisterSessionServiceServer(s grpc.ServiceRegistrar, srv SessionServiceServer) {
	s.RegisterService(&SessionServiceDesc, srv)
}

func newStruct() *structpb.Struct { return &structpb.Struct{} }
func newEmpty() *emptypb.Empty    { return &emptypb.Empty{} }

func unary[Req proto.Message, Resp proto.Message](
	method string,
	newReq func() Req,
	call func(SessionServiceServer, context.Context, Req) (Resp, error),
) grpc.MethodHandler {
	fullMethod := "/" + SessionServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := newReq()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(SessionServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(SessionServiceServer), ctx, req.(Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// SessionServiceClient is the client API for ledger.v1.SessionService.
type SessionServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewSessionServiceClient(cc grpc.ClientConnInterface) *SessionServiceClient {
	return &SessionServiceClient{cc: cc}
}

func (c *SessionServiceClient) Extract(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/"+SessionServiceName+"/Extract", in, out, opts...)
	return out, err
}

func (c *SessionServiceClient) Snapshot(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/"+SessionServiceName+"/Snapshot", &emptypb.Empty{}, out, opts...)
	return out, err
}

func (c *SessionServiceClient) EditProduct(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/"+SessionServiceName+"/EditProduct", in, out, opts...)
	return out, err
}

func (c *SessionServiceClient) EditCustomer(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	err := c.cc.Invoke(ctx, "/"+SessionServiceName+"/EditCustomer", in, out, opts...)
	return out, err
}

func (c *SessionServiceClient) ExportXLSX(ctx context.Context, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	out := new(wrapperspb.BytesValue)
	err := c.cc.Invoke(ctx, "/"+SessionServiceName+"/ExportXLSX", &emptypb.Empty{}, out, opts...)
	return out, err
}
