// Package app contains the application setup for the product service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/produce/internal/config"
	"github.com/abgdnv/produce/internal/service"
	"github.com/abgdnv/produce/internal/store"
	"github.com/abgdnv/produce/internal/transport/rest"
	"github.com/abgdnv/produce/pkg/messaging"
	"github.com/abgdnv/produce/pkg/server"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// GrpcServiceName is the name under which the health service reports the product API.
const GrpcServiceName = "product.v1.ProductService"

type Dependencies struct {
	ProductService service.ProductService
	Health         *health.Server
	Logger         *slog.Logger
	PatchMode      string
	Tracing        bool
}

// SetupDependencies builds the service layer on top of productStore.
// A nil publisher drops every event.
func SetupDependencies(productStore store.ProductStore, publisher messaging.Publisher, logger *slog.Logger, cfg *config.Config) *Dependencies {
	pService := service.NewService(productStore, publisher, logger)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(GrpcServiceName, healthpb.HealthCheckResponse_SERVING)

	return &Dependencies{
		ProductService: pService,
		Health:         hs,
		Logger:         logger,
		PatchMode:      cfg.API.PatchMode,
		Tracing:        cfg.Telemetry.Enabled,
	}
}

// SetupHttpHandler initializes the routes and middleware of the product API.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	if deps.Tracing {
		return server.Instrument(mux, "product-api")
	}
	return mux
}

// wireRoutes sets up the HTTP routes for the product service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Logger, deps.PatchMode)
	productHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())
}

// SetupHttpServer creates and configures an HTTP server for the product service.
func SetupHttpServer(deps *Dependencies, cfg *config.Config) *http.Server {

	mux := SetupHttpHandler(deps)

	httpCfg := server.HTTPConfig{
		Port:           cfg.HTTPServer.Port,
		MaxHeaderBytes: cfg.HTTPServer.MaxHeaderBytes,
		ReadTimeout:    cfg.HTTPServer.Timeout.Read,
		WriteTimeout:   cfg.HTTPServer.Timeout.Write,
		IdleTimeout:    cfg.HTTPServer.Timeout.Idle,
		ReadHeader:     cfg.HTTPServer.Timeout.ReadHeader,
	}

	return server.NewHTTPServer(httpCfg, mux)
}

// SetupGrpcServer initializes the gRPC server that carries the health service.
func SetupGrpcServer(deps *Dependencies, reflectionEnabled bool) *grpc.Server {
	// create a new gRPC server with reflection if enabled
	return server.NewGRPCServer(reflectionEnabled, deps.Tracing, server.HealthRegistration(deps.Health))
}
