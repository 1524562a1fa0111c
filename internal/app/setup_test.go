package app

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/abgdnv/produce/internal/config"
	"github.com/abgdnv/produce/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.API.PatchMode = "strict"
	cfg.HTTPServer.Port = 3008
	cfg.HTTPServer.Timeout.Read = time.Second
	return cfg
}

func Test_SetupHttpHandler(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := SetupDependencies(store.NewMemoryStore(), nil, logger, testConfig())
	handler := SetupHttpHandler(deps)
	// when
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	// then
	assert.Equal(t, http.StatusOK, rr.Code)
}

func Test_SetupHttpServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := SetupDependencies(store.NewMemoryStore(), nil, logger, testConfig())

	srv := SetupHttpServer(deps, testConfig())

	assert.Equal(t, ":3008", srv.Addr)
	assert.Equal(t, time.Second, srv.ReadTimeout)
}

func Test_SetupGrpcServer_Health(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	deps := SetupDependencies(store.NewMemoryStore(), nil, logger, testConfig())
	grpcServer := SetupGrpcServer(deps, true)
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = grpcServer.Serve(lis) }()
	defer grpcServer.Stop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer func() { _ = conn.Close() }()
	client := healthpb.NewHealthClient(conn)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// when
	resp, err := client.Check(ctx, &healthpb.HealthCheckRequest{Service: GrpcServiceName})
	// then
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())

	// when shutting down
	deps.Health.Shutdown()
	resp, err = client.Check(ctx, &healthpb.HealthCheckRequest{Service: GrpcServiceName})
	// then
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())
}

func Test_SetupHttpHandler_Metrics(t *testing.T) {
	// given
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := SetupHttpHandler(SetupDependencies(store.NewMemoryStore(), nil, logger, testConfig()))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	// when
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "http_requests_total")
}
