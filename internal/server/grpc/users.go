package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// UsersServiceName is the fully qualified name of the account service.
// Messages are google.protobuf.Struct; field names match the JSON tags of
// the models package.
const UsersServiceName = "cdn.users.v1.Users"

const (
	MethodRegister = "/" + UsersServiceName + "/Register"
	MethodProfile  = "/" + UsersServiceName + "/Profile"
	MethodMe       = "/" + UsersServiceName + "/Me"
	MethodUpdate   = "/" + UsersServiceName + "/Update"
)

// usersServer is the handler set registered under UsersServiceName.
type usersServer interface {
	Register(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Profile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Me(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	Update(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

var usersServiceDesc = grpc.ServiceDesc{
	ServiceName: UsersServiceName,
	HandlerType: (*usersServer)(nil),
	Methods: []grpc.MethodDesc{
		usersMethod("Register", usersServer.Register),
		usersMethod("Profile", usersServer.Profile),
		usersMethod("Me", usersServer.Me),
		usersMethod("Update", usersServer.Update),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cdn/users/v1/users.proto",
}

type usersCall func(usersServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// usersMethod builds the unary dispatcher protoc-gen-go-grpc would generate
// for name.
func usersMethod(name string, call usersCall) grpc.MethodDesc {
	fullMethod := "/" + UsersServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(usersServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(usersServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
