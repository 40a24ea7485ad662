package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "invoice-system/docs"
	"invoice-system/internal/config"
	"invoice-system/internal/domain/auth"
	"invoice-system/internal/domain/invoice"
	"invoice-system/internal/domain/stats"
	"invoice-system/internal/domain/user"
	"invoice-system/internal/events"
	api "invoice-system/internal/http"
	"invoice-system/internal/metrics"
	"invoice-system/internal/platform/cache"
	"invoice-system/internal/platform/database"
	jwtpkg "invoice-system/internal/platform/jwt"
	"invoice-system/internal/platform/logger"
	"invoice-system/internal/repository/memory"
	"invoice-system/internal/repository/postgres"
	"invoice-system/internal/worker"
)

type stores struct {
	users    user.Repository
	invoices invoice.Repository
	stats    stats.Repository
	db       api.Pinger
	close    func() error
}

// @title           Invoice Management System API
// @version         1.0
// @description     Multi-tenant invoice management with JWT auth
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config: " + err.Error())
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		panic("logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	metrics.Register()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("storage init failed", zap.Error(err))
	}
	defer func() { _ = st.close() }()

	var statsCache stats.Cache
	if cfg.RedisAddr != "" {
		rc := cache.New(cfg.RedisAddr, cfg.RedisPassword, "invoice")
		if err := rc.Ping(ctx); err != nil {
			log.Warn("redis unavailable, stats cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(err))
			_ = rc.Close()
		} else {
			statsCache = rc
			defer rc.Close()
		}
	}

	var publisher events.Publisher
	if cfg.NATSURL != "" {
		np, err := events.NewNatsPublisher(cfg.NATSURL, cfg.EventsSubject)
		if err != nil {
			log.Warn("nats unavailable, events stay local", zap.String("url", cfg.NATSURL), zap.Error(err))
		} else {
			publisher = np
			defer np.Close()
		}
	}

	userStore := user.NewStore(st.users)
	jwtMgr := jwtpkg.NewManager(cfg.JWTSecret, cfg.JWTIssuer)

	statsSvc := stats.NewService(st.stats, statsCache, cfg.StatsCacheTTL, log)
	invoiceSvc := invoice.NewService(st.invoices, statsSvc)
	authSvc := auth.NewService(userStore, jwtMgr, cfg.TokenTTL, log)

	if err := authSvc.EnsureSuperAdmin(ctx, cfg.AdminName, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal("seed admin failed", zap.Error(err))
	}

	eventCh := make(chan events.InvoiceEvent, 100)
	eventWorker := worker.NewEventWorker(eventCh, publisher, log)

	router := api.NewRouter(api.Deps{
		Auth:              authSvc,
		Invoices:          invoiceSvc,
		Stats:             statsSvc,
		Tokens:            jwtMgr,
		Events:            eventCh,
		DB:                st.db,
		Logger:            log,
		CORSOrigins:       cfg.CORSOrigins,
		AuthRatePerMinute: cfg.AuthRatePerMinute,
		AuthRateBurst:     cfg.AuthRateBurst,
		TrustProxy:        cfg.TrustProxy,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	workerDone := eventWorker.Start(ctx)

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("listen error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	}

	// The worker may be mid-publish; the publisher and stores close only
	// after it has returned.
	cancel()
	select {
	case <-workerDone:
	case <-shutdownCtx.Done():
		log.Warn("event worker did not stop in time")
	}

	log.Info("server stopped")
}

func openStores(ctx context.Context, cfg config.Config, log *zap.Logger) (stores, error) {
	if cfg.DatabaseDSN == config.MemoryDSN {
		log.Warn("using in-memory storage, data is lost on restart")
		invoices := memory.NewInvoiceRepo()
		return stores{
			users:    memory.NewUserRepo(),
			invoices: invoices,
			stats:    invoices,
			close:    func() error { return nil },
		}, nil
	}

	db, err := database.NewPostgres(ctx, cfg.DatabaseDSN, log)
	if err != nil {
		return stores{}, err
	}

	if cfg.MigrateOnStart {
		if err := database.Migrate(ctx, db.DB); err != nil {
			_ = db.Close()
			return stores{}, err
		}
		log.Info("migrations applied")
	}

	return stores{
		users:    postgres.NewUserRepo(db),
		invoices: postgres.NewInvoiceRepo(db),
		stats:    postgres.NewStatsRepo(db),
		db:       db,
		close:    db.Close,
	}, nil
}
