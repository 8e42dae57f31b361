package grpcserver

import (
	"context"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/patric-chuzhbe/userprofiles/internal/grpcserver/interceptor"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "profiles.ProfileService"

// ProfileServiceServer is the server API of profiles.ProfileService.
//
// Records travel as google.protobuf.Struct values shaped like the HTTP JSON
// bodies, so no generated message types are needed.
type ProfileServiceServer interface {
	CreateUser(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ListUsers(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	FindByTag(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error)
	Search(ctx context.Context, req *wrapperspb.StringValue) (*structpb.ListValue, error)
	MostUsedTags(ctx context.Context, req *emptypb.Empty) (*structpb.ListValue, error)
	Ping(ctx context.Context, req *emptypb.Empty) (*emptypb.Empty, error)
}

// ServiceDesc describes profiles.ProfileService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ProfileServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("CreateUser", ProfileServiceServer.CreateUser),
		unaryMethod("ListUsers", ProfileServiceServer.ListUsers),
		unaryMethod("FindByTag", ProfileServiceServer.FindByTag),
		unaryMethod("Search", ProfileServiceServer.Search),
		unaryMethod("MostUsedTags", ProfileServiceServer.MostUsedTags),
		unaryMethod("Ping", ProfileServiceServer.Ping),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "profiles.proto",
}

// FullMethod returns the "/service/method" path of a ProfileService method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryMethod[Req any, Resp any](
	name string,
	call func(ProfileServiceServer, context.Context, *Req) (Resp, error),
) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(
			srv interface{},
			ctx context.Context,
			dec func(interface{}) error,
			unaryInterceptor grpc.UnaryServerInterceptor,
		) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}

			if unaryInterceptor == nil {
				resp, err := call(srv.(ProfileServiceServer), ctx, in)
				return resp, err
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				resp, err := call(srv.(ProfileServiceServer), ctx, req.(*Req))
				return resp, err
			}

			return unaryInterceptor(ctx, in, info, handler)
		},
	}
}

func newServer(handler ProfileServiceServer) *grpc.Server {
	methods := make([]string, 0, len(ServiceDesc.Methods))
	for _, method := range ServiceDesc.Methods {
		methods = append(methods, FullMethod(method.MethodName))
	}

	server := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptor.UnaryLoggingInterceptor(methods),
		),
	)
	server.RegisterService(&ServiceDesc, handler)

	return server
}

// NewGRPCServer listens on addr and returns a server with ProfileService registered.
func NewGRPCServer(addr string, handler ProfileServiceServer) (*grpc.Server, net.Listener, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	return newServer(handler), lis, nil
}
