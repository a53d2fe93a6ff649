package grpcx

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

type toggleStore struct {
	mu sync.Mutex
	up bool
}

func (s *toggleStore) Available() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.up
}

func (s *toggleStore) Ping(context.Context) error {
	if !s.Available() {
		return errors.New("no reachable servers")
	}
	return nil
}

func (s *toggleStore) set(up bool) {
	s.mu.Lock()
	s.up = up
	s.mu.Unlock()
}

func TestServer_ReflectsStoreAvailability(t *testing.T) {
	store := &toggleStore{up: true}
	srv := NewServer(store, "catalog-api")

	lis := bufconn.Listen(1 << 20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = srv.Serve(lis)
	}()
	defer func() {
		srv.GracefulStop()
		<-done
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()
	client := healthpb.NewHealthClient(conn)
	ctx := context.Background()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: "catalog-api"})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	store.set(false)
	srv.Refresh(ctx)

	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}
