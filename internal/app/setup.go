// Package app contains the application setup for the product service.
package app

import (
	"log/slog"
	"net/http"

	"github.com/abgdnv/gostore/internal/config"
	"github.com/abgdnv/gostore/internal/product/service"
	"github.com/abgdnv/gostore/internal/product/store"
	"github.com/abgdnv/gostore/internal/product/transport/rest"
	pkgconfig "github.com/abgdnv/gostore/pkg/config"
	"github.com/abgdnv/gostore/pkg/messaging"
	"github.com/abgdnv/gostore/pkg/server"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
)

type Dependencies struct {
	ProductService service.ProductService
	Store          store.ProductStore
	Metrics        http.Handler
	Logger         *slog.Logger
}

// SetupDependencies builds the store, guarded by a circuit breaker, and the service on top of it.
// metrics may be nil, in which case /metrics is not served.
func SetupDependencies(db *mongo.Database, publisher messaging.Publisher, breakerCfg pkgconfig.CircuitBreakerConfig, metrics http.Handler, logger *slog.Logger) *Dependencies {
	productStore := store.NewBreakerStore(store.NewMongoStore(db), breakerCfg)

	return &Dependencies{
		ProductService: service.NewService(productStore, publisher),
		Store:          productStore,
		Metrics:        metrics,
		Logger:         logger,
	}
}

// SetupHttpHandler initializes the routes and middleware of the product service.
// Used by E2E tests to set up the HTTP server with the necessary routes and middleware.
func SetupHttpHandler(deps *Dependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	wireRoutes(mux, deps)
	return mux
}

// wireRoutes sets up the HTTP routes for the product service.
func wireRoutes(mux *chi.Mux, deps *Dependencies) {
	productHandler := rest.NewHandler(deps.ProductService, deps.Store, deps.Logger)
	productHandler.RegisterRoutes(mux)
	if deps.Metrics != nil {
		mux.Method(http.MethodGet, "/metrics", deps.Metrics)
	}
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

	return server.NewHTTPServer(httpCfg, mux, "product-http")
}

// SetupGrpcServer creates the gRPC server exposing the standard health service.
func SetupGrpcServer(healthServer *health.Server, reflectionEnabled bool) *grpc.Server {
	return server.NewGRPCServer(reflectionEnabled, server.HealthRegistration(healthServer))
}
