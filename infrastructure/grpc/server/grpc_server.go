package server

import (
	"agora/auth"
	pb "agora/infrastructure/grpc/agorav1"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// NewGrpcServer registers the agora service and the standard health service
// behind the authentication interceptors.
func NewGrpcServer(agoraServer pb.AgoraServiceServer, tokens auth.TokenManager,
	opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	interceptor := auth.NewInterceptor(tokens, PublicMethods...)
	opts = append(opts,
		grpc.ChainUnaryInterceptor(interceptor.Unary),
		grpc.ChainStreamInterceptor(interceptor.Stream),
	)
	s := grpc.NewServer(opts...)
	pb.RegisterAgoraServiceServer(s, agoraServer)

	healthServer := health.NewServer()
	healthServer.SetServingStatus(pb.AgoraService_ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, healthServer)
	return s, healthServer
}
