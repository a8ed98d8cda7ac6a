package grpc

import (
	"context"

	gogrpc "google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The service is described by hand over well-known types, so callers need no
// generated stubs; any client can speak it with the default proto codec.
const (
	TokenServiceName              = "clubs.auth.v1.TokenService"
	validateAccessTokenFullMethod = "/" + TokenServiceName + "/ValidateAccessToken"
	revokeSessionsFullMethod      = "/" + TokenServiceName + "/RevokeSessions"
)

type TokenServiceServer interface {
	ValidateAccessToken(ctx context.Context, token *wrapperspb.StringValue) (*structpb.Struct, error)
	RevokeSessions(ctx context.Context, userID *wrapperspb.UInt64Value) (*emptypb.Empty, error)
}

func RegisterTokenServiceServer(s gogrpc.ServiceRegistrar, srv TokenServiceServer) {
	s.RegisterService(&TokenServiceDesc, srv)
}

var TokenServiceDesc = gogrpc.ServiceDesc{
	ServiceName: TokenServiceName,
	HandlerType: (*TokenServiceServer)(nil),
	Methods: []gogrpc.MethodDesc{
		{MethodName: "ValidateAccessToken", Handler: validateAccessTokenHandler},
		{MethodName: "RevokeSessions", Handler: revokeSessionsHandler},
	},
	Streams:  []gogrpc.StreamDesc{},
	Metadata: "clubs/auth/v1/token_service.proto",
}

func validateAccessTokenHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).ValidateAccessToken(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: validateAccessTokenFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).ValidateAccessToken(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func revokeSessionsHandler(srv any, ctx context.Context, dec func(any) error, interceptor gogrpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.UInt64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(TokenServiceServer).RevokeSessions(ctx, in)
	}
	info := &gogrpc.UnaryServerInfo{Server: srv, FullMethod: revokeSessionsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(TokenServiceServer).RevokeSessions(ctx, req.(*wrapperspb.UInt64Value))
	}
	return interceptor(ctx, in, info, handler)
}

// TokenServiceClient is the calling side used by sibling services.
type TokenServiceClient struct {
	cc gogrpc.ClientConnInterface
}

func NewTokenServiceClient(cc gogrpc.ClientConnInterface) *TokenServiceClient {
	return &TokenServiceClient{cc: cc}
}

func (c *TokenServiceClient) ValidateAccessToken(ctx context.Context, token string, opts ...gogrpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, validateAccessTokenFullMethod, wrapperspb.String(token), out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TokenServiceClient) RevokeSessions(ctx context.Context, userID uint64, opts ...gogrpc.CallOption) error {
	return c.cc.Invoke(ctx, revokeSessionsFullMethod, wrapperspb.UInt64(userID), new(emptypb.Empty), opts...)
}
