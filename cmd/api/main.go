package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/storefront/api/controllers"
	"github.com/angelmondragon/storefront/api/routes"
	"github.com/angelmondragon/storefront/internal/address"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/cron"
	"github.com/angelmondragon/storefront/internal/orders"
	"github.com/angelmondragon/storefront/internal/profile"
	"github.com/angelmondragon/storefront/internal/voucher"
	"github.com/angelmondragon/storefront/pkg/auth/session"
	"github.com/angelmondragon/storefront/pkg/commerce"
	"github.com/angelmondragon/storefront/pkg/config"
	"github.com/angelmondragon/storefront/pkg/db"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	"github.com/angelmondragon/storefront/pkg/migrate"
	"github.com/angelmondragon/storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "storefront-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "storefront-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	cartMetrics := metrics.NewCartMetrics(registry)

	readiness := map[string]controllers.Pinger{"redis": redisClient}
	jobs := cron.NewRegistry()

	var guests cart.GuestStore
	switch cfg.GuestStore.Normalized() {
	case config.GuestStoreRedis:
		store, storeErr := cart.NewRedisGuestStore(redisClient, cfg.GuestStore.TTL)
		if storeErr != nil {
			return storeErr
		}
		guests = store
	default:
		cfg.DB.Driver = cfg.GuestStore.Normalized()
		dbClient, dbErr := db.New(ctx, cfg.DB, logg)
		if dbErr != nil {
			return dbErr
		}
		defer func() {
			err = multierr.Append(err, dbClient.Close())
		}()
		if err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			return err
		}
		readiness["database"] = dbClient

		repo := cart.NewRepository(dbClient.DB(), cfg.GuestStore.TTL)
		guests = repo

		lock, lockErr := cron.NewRedisLock(redisClient, redisClient.LockKey("guest-cart-purge"), 0)
		if lockErr != nil {
			return lockErr
		}
		purge, jobErr := cron.NewGuestCartPurgeJob(logg, repo, lock)
		if jobErr != nil {
			return jobErr
		}
		jobs.Register(purge)
	}

	sessions, err := session.NewManager(redisClient, cfg.Session)
	if err != nil {
		return err
	}

	backend := commerce.NewClient(
		commerce.WithBaseURL(cfg.Backend.BaseURL),
		commerce.WithTimeout(cfg.Backend.Timeout),
		commerce.WithObserver(cartMetrics),
	)

	catalogSvc, err := catalog.NewService(backend, logg, cfg.Cart.CatalogTTL)
	if err != nil {
		return err
	}
	voucherSvc, err := voucher.NewService(backend, logg, voucher.LoadLocation(cfg.Cart.VoucherTimezone), cfg.Cart.VoucherTTL)
	if err != nil {
		return err
	}

	engine, err := cart.NewService(cart.Config{
		Currency:    cfg.Cart.Currency,
		ShippingFee: cfg.Cart.ShippingFee,
		ToastLimit:  cfg.Session.ToastLimit,
	}, cart.Dependencies{
		Guests:   guests,
		Server:   backend,
		Sessions: sessions,
		Pricer:   catalogSvc,
		Vouchers: voucherSvc,
		Metrics:  cartMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	addressSvc, err := address.NewService(backend)
	if err != nil {
		return err
	}
	checkoutSvc, err := checkout.NewService(sessions, engine, addressSvc, backend, logg)
	if err != nil {
		return err
	}
	orderSvc, err := orders.NewService(backend, cfg.Cart.Currency, voucher.LoadLocation(cfg.Cart.VoucherTimezone), logg)
	if err != nil {
		return err
	}
	profileSvc, err := profile.NewService(backend)
	if err != nil {
		return err
	}

	evict, err := cron.NewSessionEvictionJob(logg, engine, cfg.Session.IdleTTL)
	if err != nil {
		return err
	}
	jobs.Register(evict)
	housekeeping, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: jobs,
		Metrics:  cartMetrics,
		Interval: cfg.Session.SweepInterval,
	})
	if err != nil {
		return err
	}
	go func() {
		_ = housekeeping.Run(ctx)
	}()

	addr := ":" + cfg.App.Port
	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Services{
			Cart:      engine,
			Catalog:   catalogSvc,
			Addresses: addressSvc,
			Checkout:  checkoutSvc,
			Orders:    orderSvc,
			Profiles:  profileSvc,
			Sessions:  sessions,
			Readiness: readiness,
			Metrics:   metrics.Handler(registry),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	logCtx := logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"addr":        addr,
		"guest_store": cfg.GuestStore.Normalized(),
		"backend":     backend.BaseURL(),
	})
	logg.Info(logCtx, "starting storefront api")

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down storefront api")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
