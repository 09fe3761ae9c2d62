// Package grpc runs the side-port gRPC endpoint every binary exposes for
// orchestration: the standard health service and server reflection.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/formkeeper/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

type HealthServer struct {
	address string
	service string
	logger  logging.Logger
	health  *health.Server
}

// NewHealthServer creates a server that reports the status of service
// (and of the overall server, ""). Both start as NOT_SERVING.
func NewHealthServer(address, service string, l logging.Logger) *HealthServer {
	h := health.NewServer()
	h.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	h.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)

	return &HealthServer{
		address: address,
		service: service,
		logger:  l.With("module", "grpc_server"),
		health:  h,
	}
}

// SetServing flips the reported status of the server and its service.
func (s *HealthServer) SetServing(serving bool) {
	st := healthpb.HealthCheckResponse_NOT_SERVING
	if serving {
		st = healthpb.HealthCheckResponse_SERVING
	}
	s.health.SetServingStatus("", st)
	s.health.SetServingStatus(s.service, st)
}

func (s *HealthServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *HealthServer) Serve(ctx context.Context, lis net.Listener) error {

	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.loggingUnaryInterceptor),
		grpc.ChainStreamInterceptor(s.loggingStreamInterceptor),
	)

	healthpb.RegisterHealthServer(srv, s.health)
	reflection.Register(srv)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
