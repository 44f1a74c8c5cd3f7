package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/artel-market/api/internal/handlers"
	"github.com/artel-market/api/internal/platform/auth"
	"github.com/artel-market/api/internal/platform/config"
	"github.com/artel-market/api/internal/platform/events"
	pfirestore "github.com/artel-market/api/internal/platform/firestore"
	"github.com/artel-market/api/internal/platform/observability"
	platformstorage "github.com/artel-market/api/internal/platform/storage"
	firestoreRepo "github.com/artel-market/api/internal/repositories/firestore"
	"github.com/artel-market/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	cfg, err := config.Load()
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := firestoreProvider.Close(closeCtx); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	repos, err := firestoreRepo.NewRegistry(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise repositories", zap.Error(err))
	}

	bus := events.NewBus()
	readinessChecks := []handlers.ReadinessCheck{
		{Name: "firestore", Ping: firestorePing(firestoreClient)},
	}

	if cfg.Events.Enabled {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Events.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()

		topic := pubsubClient.Topic(cfg.Events.Topic)
		defer topic.Stop()

		publisher, err := events.NewPubSubPublisher(topic)
		if err != nil {
			logger.Fatal("failed to initialise event publisher", zap.Error(err))
		}
		eventsLogger := logger.Named("events")
		bus.Subscribe(publisher.Bridge(func(ctx context.Context, event events.Event, err error) {
			eventsLogger.Error("event publish failed",
				zap.String("type", event.Type),
				zap.String("entityId", event.EntityID),
				zap.Error(err),
			)
		}))

		readinessChecks = append(readinessChecks, handlers.ReadinessCheck{
			Name: "pubsub",
			Ping: func(ctx context.Context) error {
				exists, err := topic.Exists(ctx)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("topic %q does not exist", cfg.Events.Topic)
				}
				return nil
			},
		})
	}
	sink := services.EventSink(bus.Publish)

	firebaseVerifier, err := auth.NewFirebaseVerifier(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase verifier", zap.Error(err))
	}
	authenticator := auth.NewAuthenticator(firebaseVerifier, auth.WithUserGetter(firebaseVerifier))

	signerKeyFile := strings.TrimSpace(cfg.Storage.SignerKeyFile)
	if signerKeyFile == "" {
		logger.Fatal("storage signer key file is required")
	}
	signer, err := platformstorage.NewServiceAccountSignerFromFile(signerKeyFile)
	if err != nil {
		logger.Fatal("failed to load storage signer key", zap.Error(err))
	}
	uploadClient, err := platformstorage.NewClient(signer, cfg.Storage.AssetsBucket,
		platformstorage.WithUploadExpiry(cfg.Storage.UploadURLExpiry),
	)
	if err != nil {
		logger.Fatal("failed to initialise signed upload client", zap.Error(err))
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Catalog: repos.Catalog(),
		Uploads: uploadClient,
		Events:  sink,
		Clock:   time.Now,
		Logger:  serviceLogger(logger.Named("catalog")),
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}

	cartService, err := services.NewCartService(services.CartServiceDeps{
		Carts:      repos.Carts(),
		Catalog:    repos.Catalog(),
		SavedItems: repos.SavedItems(),
		Events:     sink,
		Clock:      time.Now,
		Logger:     serviceLogger(logger.Named("cart")),
	})
	if err != nil {
		logger.Fatal("failed to initialise cart service", zap.Error(err))
	}

	checkoutService, err := services.NewCheckoutService(services.CheckoutServiceDeps{
		Carts:  repos.Carts(),
		Orders: repos.Orders(),
		Events: sink,
		Clock:  time.Now,
		Logger: serviceLogger(logger.Named("checkout")),
	})
	if err != nil {
		logger.Fatal("failed to initialise checkout service", zap.Error(err))
	}

	orderService, err := services.NewOrderService(services.OrderServiceDeps{
		Orders: repos.Orders(),
		Clock:  time.Now,
		Logger: serviceLogger(logger.Named("orders")),
	})
	if err != nil {
		logger.Fatal("failed to initialise order service", zap.Error(err))
	}

	wishlistService, err := services.NewWishlistService(services.WishlistServiceDeps{
		Wishlists: repos.Wishlists(),
		Catalog:   repos.Catalog(),
		Clock:     time.Now,
		Logger:    serviceLogger(logger.Named("wishlist")),
	})
	if err != nil {
		logger.Fatal("failed to initialise wishlist service", zap.Error(err))
	}

	productHandlers := handlers.NewProductHandlers(catalogService)
	cartHandlers := handlers.NewCartHandlers(authenticator, cartService)
	checkoutHandlers := handlers.NewCheckoutHandlers(authenticator, checkoutService,
		handlers.WithCouponsEnabled(cfg.Features.EnableCoupons),
	)
	orderHandlers := handlers.NewOrderHandlers(authenticator, orderService)
	adminHandlers := handlers.NewAdminHandlers(authenticator, catalogService, orderService)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo(startedAt)),
		handlers.WithHealthChecks(readinessChecks...),
	)

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger),
		observability.TraceMiddleware(cfg.Firebase.ProjectID),
		observability.RecoveryMiddleware(logger),
		observability.RequestLoggerMiddleware(cfg.Firebase.ProjectID),
	}

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithProductRoutes(productHandlers.Routes),
		handlers.WithCartRoutes(cartHandlers.Routes),
		handlers.WithCheckoutRoutes(checkoutHandlers.Routes),
		handlers.WithOrderRoutes(orderHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	}
	if cfg.Features.EnableWishlist {
		wishlistHandlers := handlers.NewWishlistHandlers(authenticator, wishlistService)
		opts = append(opts, handlers.WithWishlistRoutes(wishlistHandlers.Routes))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("artel market api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// serviceLogger adapts a zap logger to the map-based logging hook the services expect.
func serviceLogger(named *zap.Logger) func(context.Context, string, map[string]any) {
	return func(_ context.Context, event string, fields map[string]any) {
		zFields := make([]zap.Field, 0, len(fields)+1)
		zFields = append(zFields, zap.String("event", event))
		for k, v := range fields {
			zFields = append(zFields, zap.Any(k, v))
		}
		named.Debug("service log", zFields...)
	}
}

func firestorePing(client *firestore.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		iter := client.Collections(ctx)
		if _, err := iter.Next(); err != nil && !errors.Is(err, iterator.Done) {
			return err
		}
		return nil
	}
}

func buildInfo(started time.Time) handlers.BuildInfo {
	version := strings.TrimSpace(os.Getenv("API_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("API_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(os.Getenv("API_ENVIRONMENT"))
	if environment == "" {
		environment = "local"
	}
	return handlers.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}
