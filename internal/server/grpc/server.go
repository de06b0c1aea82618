package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/cdn/internal/logging"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// DefaultCheckInterval is how often the storage probe refreshes the health status.
const DefaultCheckInterval = 15 * time.Second

// Pinger probes storage; *database.Manager satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type GRPCServer struct {
	address       string
	logger        logging.Logger
	pinger        Pinger
	users         UserService
	health        *health.Server
	checkInterval time.Duration
}

func NewGRPCServer(a string, l logging.Logger, p Pinger, u UserService) (*GRPCServer, error) {
	return &GRPCServer{
		address:       a,
		logger:        logging.ForModule(l, "grpc_server"),
		pinger:        p,
		users:         u,
		health:        health.NewServer(),
		checkInterval: DefaultCheckInterval,
	}, nil
}

// CheckNow probes storage once and publishes the result as the overall
// serving status.
func (s *GRPCServer) CheckNow(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	st := healthpb.HealthCheckResponse_SERVING
	if err := s.pinger.Ping(ctx); err != nil {
		st = healthpb.HealthCheckResponse_NOT_SERVING
		s.logger.Warn(ctx, "storage probe failed", "error", err.Error())
	}

	s.health.SetServingStatus("", st)
	return st
}

func (s *GRPCServer) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.CheckNow(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.CheckNow(ctx)
		}
	}
}

// newServer builds the gRPC server with the health and users services.
// requestInterceptor is outermost so authentication failures are mapped too.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestInterceptor, s.accessTokenInterceptor))

	healthpb.RegisterHealthServer(srv, s.health)
	srv.RegisterService(&usersServiceDesc, s)

	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := s.newServer()

	go s.watchHealth(ctx)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
