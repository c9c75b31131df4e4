package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/ingestgate/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

func startServer(t *testing.T, s *GRPCServer) (healthpb.HealthClient, context.CancelFunc) {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, lis) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("server did not stop")
		}
	})

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return healthpb.NewHealthClient(conn), cancel
}

func TestHealth_ServingTransitions(t *testing.T) {
	s := NewGRPCServer("", logging.NewNop())
	client, _ := startServer(t, s)
	ctx := context.Background()

	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	s.SetServing(true)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	s.SetServing(false)
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func TestHealth_UnknownService(t *testing.T) {
	s := NewGRPCServer("", logging.NewNop())
	client, _ := startServer(t, s)

	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{Service: "nope"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestInterceptors_RequestIDAndLogging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	s := NewGRPCServer("", logging.NewZapLogger(zap.New(core).Sugar()))
	s.SetServing(true)
	client, _ := startServer(t, s)

	ctx := metadata.AppendToOutgoingContext(context.Background(), RequestIDKey, "req-42")
	var header metadata.MD
	_, err := client.Check(ctx, &healthpb.HealthCheckRequest{}, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"req-42"}, header.Get(RequestIDKey))

	entries := logs.FilterMessage("grpc call").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "req-42", fields["request_id"])
	assert.Equal(t, healthpb.Health_Check_FullMethodName, fields["method"])
	assert.Equal(t, "OK", fields["code"])
}

func TestInterceptors_GeneratesRequestID(t *testing.T) {
	s := NewGRPCServer("", logging.NewNop())
	client, _ := startServer(t, s)

	var header metadata.MD
	_, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{}, grpc.Header(&header))
	require.NoError(t, err)
	require.Len(t, header.Get(RequestIDKey), 1)
	assert.NotEmpty(t, header.Get(RequestIDKey)[0])
}

func TestRun_ListenError(t *testing.T) {
	s := NewGRPCServer("256.0.0.1:bad", logging.NewNop())
	assert.Error(t, s.Run(context.Background()))
}
