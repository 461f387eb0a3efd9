package rpc

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/breezechat/breeze/pkg/log"
	"github.com/breezechat/breeze/pkg/metrics"
)

// Server hosts breeze gRPC services on a single TCP listener.
type Server struct {
	grpc *grpc.Server
}

// NewServer creates a server with the logging interceptor installed first in
// the chain.
func NewServer(opts ...grpc.ServerOption) *Server {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(UnaryLoggingInterceptor())}, opts...)
	return &Server{grpc: grpc.NewServer(opts...)}
}

// RegisterService implements grpc.ServiceRegistrar so the per-service
// Register helpers accept a *Server directly.
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.grpc.RegisterService(desc, impl)
}

// Start listens on addr and serves until Stop is called. It blocks.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %v", err)
	}
	log.Logger.Info().Str("addr", addr).Msg("rpc server listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the server, draining in-flight requests.
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// UnaryLoggingInterceptor creates a gRPC unary interceptor that logs every
// call with its duration and records it in the request metrics.
func UnaryLoggingInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		timer := metrics.NewTimer()
		resp, err := handler(ctx, req)
		elapsed := timer.Duration()

		code := status.Code(err)
		metrics.RecordRPC(info.FullMethod, code.String(), elapsed)

		evt := log.Logger.Debug()
		if err != nil {
			evt = log.Logger.Error().Err(err)
		}
		evt.Str("method", info.FullMethod).
			Str("code", code.String()).
			Dur("elapsed", elapsed).
			Msg("rpc handled")
		return resp, err
	}
}
