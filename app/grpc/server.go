package grpc

import (
	"context"
	"errors"
	"net"

	"github.com/vibast-solutions/ms-go-clubs/app/service"

	"github.com/sirupsen/logrus"
	gogrpc "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type tokenSessions interface {
	ValidateAccessToken(tokenString string) (*service.AccessClaims, error)
	RevokeSessions(ctx context.Context, userID uint64) error
}

type TokenServer struct {
	sessions tokenSessions
}

func NewTokenServer(sessions tokenSessions) *TokenServer {
	return &TokenServer{sessions: sessions}
}

func (s *TokenServer) ValidateAccessToken(_ context.Context, req *wrapperspb.StringValue) (*structpb.Struct, error) {
	if req.GetValue() == "" {
		return nil, status.Error(codes.InvalidArgument, "token is required")
	}

	claims, err := s.sessions.ValidateAccessToken(req.GetValue())
	if err != nil {
		reason := "invalid"
		if errors.Is(err, service.ErrTokenExpired) {
			reason = "expired"
		}
		logrus.WithField("reason", reason).Debug("Access token rejected (grpc)")
		return structpb.NewStruct(map[string]any{
			"valid":  false,
			"reason": reason,
		})
	}

	return structpb.NewStruct(map[string]any{
		"valid": true,
		"id":    claims.ID,
		"name":  claims.Name,
		"email": claims.Email,
	})
}

func (s *TokenServer) RevokeSessions(ctx context.Context, req *wrapperspb.UInt64Value) (*emptypb.Empty, error) {
	if req.GetValue() == 0 {
		return nil, status.Error(codes.InvalidArgument, "user id is required")
	}

	if err := s.sessions.RevokeSessions(ctx, req.GetValue()); err != nil {
		logrus.WithError(err).WithField("user_id", req.GetValue()).Error("Session revocation failed (grpc)")
		return nil, status.Error(codes.Internal, "internal server error")
	}

	logrus.WithField("user_id", req.GetValue()).Info("Sessions revoked (grpc)")
	return &emptypb.Empty{}, nil
}

// NewServer builds a gRPC server exposing the token service behind the API key check.
func NewServer(sessions tokenSessions, apiKey string) *gogrpc.Server {
	server := gogrpc.NewServer(
		gogrpc.ChainUnaryInterceptor(APIKeyUnaryInterceptor(apiKey)),
		gogrpc.ChainStreamInterceptor(APIKeyStreamInterceptor(apiKey)),
	)
	RegisterTokenServiceServer(server, NewTokenServer(sessions))
	return server
}

// Serve blocks until the listener fails or the server is stopped.
func Serve(server *gogrpc.Server, lis net.Listener) error {
	logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
	if err := server.Serve(lis); err != nil && !errors.Is(err, gogrpc.ErrServerStopped) {
		return err
	}
	return nil
}
