package probe

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GRPC is ready when the standard health service reports SERVING for
// Service ("" checks the server as a whole).
type GRPC struct {
	Target  string
	Service string

	// DialOptions default to plaintext transport.
	DialOptions []grpc.DialOption
}

func (g *GRPC) Probe(ctx context.Context) error {
	opts := g.DialOptions
	if len(opts) == 0 {
		opts = []grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}
	}

	conn, err := grpc.NewClient(g.Target, opts...)
	if err != nil {
		return fmt.Errorf("grpc probe %s: %w", g.Target, err)
	}
	defer conn.Close()

	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: g.Service})
	if err != nil {
		return fmt.Errorf("grpc probe %s: %w", g.Target, err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: grpc service %q is %s", ErrNotReady, g.Service, resp.GetStatus())
	}
	return nil
}
