package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/app"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/core/ports"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/infra/adapters/memstore"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/infra/adapters/mongostore"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/infra/grpcx"
	"github.com/jcmexdev/ecommerce-catalog/internal/catalog-api/infra/httpx"
	"github.com/jcmexdev/ecommerce-catalog/internal/coordinator/sagalog"
	sagalogsqlite "github.com/jcmexdev/ecommerce-catalog/internal/coordinator/sagalog/sqlite"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/cache"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/config"
	"github.com/jcmexdev/ecommerce-catalog/internal/pkg/telemetry"
)

const (
	shutdownTimeout     = 10 * time.Second
	storeWatchInterval  = 15 * time.Second
	startupProbeTimeout = 5 * time.Second
)

type stores struct {
	products ports.ProductRepository
	orders   ports.OrderRepository
	health   ports.StoreHealth
	close    func(ctx context.Context) error
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		telemetry.InitLogger("info")
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	telemetry.InitLogger(cfg.LogLevel)

	if err := run(cfg); err != nil {
		slog.Error("catalog-api stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.SetupTracer(ctx, cfg.ServiceName, cfg.OTelEnabled)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			slog.Error("tracer shutdown error", "error", err)
		}
	}()

	st, err := openStores(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := st.close(closeCtx); err != nil {
			slog.Error("store disconnect error", "error", err)
		}
	}()

	// sagaRepo stays nil when the saga log is disabled; the orchestrator
	// skips persistence in that case.
	var sagaRepo sagalog.Repository
	if cfg.SagaLogPath != "" {
		repo, err := sagalogsqlite.Open(cfg.SagaLogPath)
		if err != nil {
			return err
		}
		defer repo.Close()
		sagaRepo = repo
		slog.Info("saga log enabled", "path", cfg.SagaLogPath)
	}

	var idem cache.Cache
	if cfg.RedisAddr != "" {
		idem = cache.NewRedisCache(cfg.RedisAddr, cfg.ServiceName)
		defer idem.Close()

		pingCtx, cancel := context.WithTimeout(ctx, startupProbeTimeout)
		if err := idem.Ping(pingCtx); err != nil {
			slog.Warn("idempotency cache not reachable, requests will not be deduplicated until it is", "addr", cfg.RedisAddr, "error", err)
		}
		cancel()
	}

	settings := app.Settings{
		MaxOrderItems:      cfg.Limits.MaxOrderItems,
		MaxItemQuantity:    cfg.Limits.MaxItemQuantity,
		MaxPageSize:        cfg.Limits.MaxPageSize,
		AllowPriceOverride: cfg.Limits.AllowPriceOverride,
	}
	productService := app.NewProductService(st.products, settings)
	orderService := app.NewOrderService(st.products, st.orders, sagaRepo, settings)

	handler := httpx.NewHandler(productService, orderService, st.health, cfg.Version, cfg.Limits.DefaultPageSize)
	if repo, ok := sagaRepo.(httpx.SagaHistory); ok {
		handler.WithSagaHistory(repo)
	}
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           httpx.NewRouter(handler, idem, cfg.IdempotencyTTL),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var (
		grpcServer *grpcx.Server
		grpcLis    net.Listener
	)
	if cfg.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return err
		}
		grpcServer = grpcx.NewServer(st.health, cfg.ServiceName)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("catalog-api HTTP running", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if grpcServer != nil {
		g.Go(func() error {
			slog.Info("catalog-api gRPC health running", "addr", cfg.GRPCAddr)
			return grpcServer.Serve(grpcLis)
		})
		g.Go(func() error {
			grpcServer.Watch(gctx, storeWatchInterval)
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openStores(ctx context.Context, cfg config.Config) (*stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		slog.Warn("using the in-memory store, data is lost on restart")
		return &stores{
			products: memstore.NewProductRepository(),
			orders:   memstore.NewOrderRepository(),
			health:   memstore.Health{},
			close:    func(context.Context) error { return nil },
		}, nil
	}

	store, err := mongostore.Connect(ctx, cfg.Mongo)
	if err != nil {
		return nil, err
	}
	return &stores{
		products: store.Products(),
		orders:   store.Orders(),
		health:   store,
		close:    store.Disconnect,
	}, nil
}
