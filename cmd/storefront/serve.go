package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront/internal/cart"
	"github.com/fjod/go_cart/storefront/internal/catalog"
	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/config"
	h "github.com/fjod/go_cart/storefront/internal/http"
	"github.com/fjod/go_cart/storefront/internal/kvstore"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/poller"
	"github.com/fjod/go_cart/storefront/internal/publisher"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

// closers run in reverse order on shutdown
type closers []func()

func (c *closers) add(f func()) {
	*c = append(*c, f)
}

func (c closers) run() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cleanup closers
	defer cleanup.run()

	store, err := openStore(ctx, cfg, log, &cleanup)
	if err != nil {
		return err
	}
	log.Info("key-value store ready", zap.String("backend", cfg.KVBackend))

	provider, addresses, err := openCatalog(cfg, &cleanup)
	if err != nil {
		return err
	}
	log.Info("catalog ready", zap.String("source", cfg.CatalogSource))

	registry := cart.NewRegistry(store, cfg.CartCacheSize, cart.WithLogger(log.Named("cart")))

	instanceID := uuid.NewString()
	var pub checkout.Publisher
	if cfg.KafkaEnabled() {
		kafkaPub := publisher.NewKafkaPublisher(instanceID, cfg.CheckoutTopic, cfg.KafkaBrokers...)
		cleanup.add(func() {
			if err := kafkaPub.Close(); err != nil {
				log.Warn("error closing kafka writer", zap.Error(err))
			}
		})
		pub = kafkaPub

		group := cfg.ConsumerGroup
		if group == "" {
			// every instance has to see every checkout
			group = "storefront-" + instanceID
		}
		p := poller.NewPoller(registry, log.Named("poller"), instanceID, cfg.CheckoutTopic, group, cfg.KafkaBrokers...)
		done := make(chan struct{})
		go func() {
			defer close(done)
			p.Run(ctx)
		}()
		cleanup.add(func() {
			stop()
			<-done
			p.Close()
		})
		log.Info("checkout events enabled", zap.Strings("brokers", cfg.KafkaBrokers), zap.String("topic", cfg.CheckoutTopic))
	}

	router := h.NewRouter(h.Deps{
		Carts:          registry,
		Store:          store,
		Catalog:        provider,
		Addresses:      addresses,
		Checkout:       checkout.NewService(store, pub, log.Named("checkout")),
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "storefront"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("storefront starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	stop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info("server exited")
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger, cleanup *closers) (kvstore.Store, error) {
	switch cfg.KVBackend {
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		cleanup.add(func() { client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis connection failed: %w", err)
		}
		return kvstore.NewRedisStore(client, kvstore.WithTTL(cfg.RedisTTL)), nil

	case config.BackendMongo:
		db, err := kvstore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		cleanup.add(func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				log.Warn("error disconnecting mongo", zap.Error(err))
			}
		})
		store := kvstore.NewMongoStore(db)
		if err := store.CreateIndexes(ctx); err != nil {
			return nil, err
		}
		return store, nil

	case config.BackendPostgres:
		store, err := kvstore.NewPostgresStore(&kvstore.Credentials{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			DBName:   cfg.Postgres.DBName,
		})
		if err != nil {
			return nil, err
		}
		cleanup.add(func() { store.Close() })
		if err := store.RunMigrations(); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return kvstore.NewMemoryStore(), nil
	}
}

func openCatalog(cfg *config.Config, cleanup *closers) (catalog.Provider, catalog.AddressBook, error) {
	if cfg.CatalogSource == config.CatalogAPI {
		client := catalog.NewAPIClient(cfg.StoreAPIURL, cfg.RequestTimeout)
		return client, client, nil
	}

	repo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		return nil, nil, err
	}
	cleanup.add(func() { repo.Close() })
	if err := repo.RunMigrations(); err != nil {
		return nil, nil, err
	}
	return repo, repo, nil
}
