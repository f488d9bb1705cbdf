package workers

import (
	"context"
	"log/slog"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthServiceName is the service reported by the gRPC health endpoint besides the overall "" status.
const HealthServiceName = "chatdm.Messaging"

// GRPCHealthWorker exposes the standard gRPC health and reflection services
// for orchestrators and grpcurl. It carries no business RPC.
type GRPCHealthWorker struct {
	log    *slog.Logger
	addr   string
	health *health.Server
}

func NewGRPCHealthWorker(log *slog.Logger, addr string) *GRPCHealthWorker {
	return &GRPCHealthWorker{log: log, addr: addr, health: health.NewServer()}
}

func (w *GRPCHealthWorker) Run(ctx context.Context) error {
	lis, err := net.Listen("tcp", w.addr)
	if err != nil {
		return err
	}
	return w.serve(ctx, lis)
}

func (w *GRPCHealthWorker) serve(ctx context.Context, lis net.Listener) error {
	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, w.health)
	reflection.Register(gs)

	w.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	w.health.SetServingStatus(HealthServiceName, healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 1)
	go func() {
		w.log.Info("gRPC health server listening", "addr", lis.Addr().String())
		errCh <- gs.Serve(lis)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		// Clients watching the status see NOT_SERVING before the listener goes away.
		w.health.Shutdown()
		gs.GracefulStop()
		w.log.Info("gRPC health server stopped")
		return nil
	}
}
