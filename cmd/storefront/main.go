package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/api"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/cart"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/checkout"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/config"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/domain"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/geo"
	h "github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/http"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/live"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/media"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/settings"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/internal/storage"
	"github.com/Ravindu200232/ArtisanConnect-Mobile-sub000/pkg/logger"
)

const serviceName = "storefront"

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(serviceName, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Fatal("storefront stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	kv, err := openKV(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()
	log.Info("storage ready", zap.String("backend", cfg.StorageBackend))

	ledger, err := checkout.NewRepository(cfg.LedgerDriver, cfg.LedgerDSN)
	if err != nil {
		return fmt.Errorf("open order ledger: %w", err)
	}
	defer ledger.Close()
	if err := ledger.RunMigrations(); err != nil {
		return fmt.Errorf("migrate order ledger: %w", err)
	}

	profile := settings.NewStore(kv, log)
	client := api.NewClient(cfg.BackendURL,
		api.WithTokenSource(profile),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(log),
	)

	var geocoder geo.Geocoder
	if cfg.GeocoderURL != "" {
		geocoder = geo.NewHTTPGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, nil)
	}

	store := cart.NewStore(kv, log)
	reconciler := cart.NewReconciler(store, client, cart.Pricing{Threshold: cfg.ShippingThreshold, Fee: cfg.ShippingFee}, log)
	view := cart.NewView(store, reconciler)
	submitter := checkout.NewSubmitter(store, client, ledger, checkout.NewAddressResolver(profile, geocoder), log)

	messages, deliveries := liveFeeds(cfg, client, log)

	handler := h.NewRouter(h.RouterConfig{
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	}, h.Handlers{
		Cart:     h.NewCartHandler(view, reconciler, cfg.RequestTimeout),
		Checkout: h.NewCheckoutHandler(submitter, view, cfg.RequestTimeout),
		Orders:   h.NewOrdersHandler(client, cfg.RequestTimeout),
		Catalog:  h.NewCatalogHandler(client, cfg.RequestTimeout),
		Account:  h.NewAccountHandler(client, profile, geocoder, cfg.RequestTimeout),
		Live:     h.NewLiveHandler(messages, deliveries, client, cfg.RequestTimeout),
		Media:    h.NewMediaHandler(media.NewUploader(client, log), cfg.MaxRequestBodySize, cfg.RequestTimeout),
		Tokens:   profile,
	}, log)

	srv := &http.Server{
		Addr:        ":" + cfg.HTTPPort,
		Handler:     handler,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: live streams stay open
		IdleTimeout: 60 * time.Second,
	}

	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	// Enable reflection for grpcurl/grpcui
	reflection.Register(grpcServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	errCh := make(chan error, 2)
	go func() {
		log.Info("HTTP server starting", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()
	go func() {
		log.Info("gRPC health server starting", zap.String("port", cfg.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc server: %w", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		log.Error("server failed, shutting down", zap.Error(runErr))
	}

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server forced to shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()

	log.Info("storefront exited")
	return runErr
}

func openKV(ctx context.Context, cfg *config.Config) (storage.KV, error) {
	switch cfg.StorageBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		return storage.NewRedisKV(client), nil
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		db, err := storage.ConnectMongoDB(connectCtx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		return storage.NewMongoKV(db), nil
	default:
		kv, err := storage.NewSQLiteKV(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		return kv, nil
	}
}

func liveFeeds(cfg *config.Config, client *api.Client, log *zap.Logger) (live.Feed[[]domain.Message], live.Feed[*domain.Delivery]) {
	if cfg.LiveSource == "kafka" {
		messages := live.NewKafkaSource[domain.Message](func() live.MessageReader {
			return live.NewKafkaReader(cfg.KafkaBrokers, live.TopicMessages)
		}, log)
		deliveries := live.NewKafkaSource[*domain.Delivery](func() live.MessageReader {
			return live.NewKafkaReader(cfg.KafkaBrokers, live.TopicDeliveries)
		}, log)
		return live.Map[domain.Message, []domain.Message](messages, func(m domain.Message) []domain.Message {
			return []domain.Message{m}
		}), deliveries
	}

	opts := live.Options{Interval: cfg.PollInterval}
	return live.NewPollFeed(client.ListMessages, opts), live.NewPollFeed(client.GetDelivery, opts)
}
