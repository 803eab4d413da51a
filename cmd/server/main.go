package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"restodash/backend/internal/aggregate"
	"restodash/backend/internal/cache"
	"restodash/backend/internal/config"
	"restodash/backend/internal/httpapi"
	"restodash/backend/internal/kvstore"
	"restodash/backend/internal/kvstore/memory"
	pgkv "restodash/backend/internal/kvstore/postgres"
	"restodash/backend/internal/kvstore/redisstore"
	"restodash/backend/internal/mirror"
	"restodash/backend/internal/records"
	"restodash/backend/internal/report"
	"restodash/backend/internal/salary"
	"restodash/backend/internal/scheduler"
	"restodash/backend/internal/service"
)

func main() {
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	if err := validateSecurityConfig(cfg); err != nil {
		logger.Fatal("invalid security configuration", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	closers := make([]func(context.Context) error, 0, 3)

	var kv kvstore.Store
	switch {
	case cfg.DatabaseURL != "":
		pg, err := pgkv.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("postgres unavailable and DATABASE_URL is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		kv = pg
		closers = append(closers, pg.Close)
		logger.Info("store: postgres")
	case cfg.RedisAddr != "":
		rs := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			logger.Fatal("redis unavailable and REDIS_ADDR is set; refusing to start with in-memory fallback", zap.Error(err))
		}
		kv = rs
		closers = append(closers, rs.Close)
		logger.Info("store: redis")
	default:
		bus := memory.NewBus()
		kv = bus.Open()
		closers = append(closers, func(context.Context) error { bus.Close(); return nil })
		logger.Info("store: in-memory")
	}

	stats := cache.StatsCache(cache.NoopStatsCache{})
	if cfg.RedisAddr != "" {
		redisStats := cache.NewRedisStatsCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisStats.Ping(ctx); err != nil {
			logger.Warn("redis stats cache unavailable, using noop cache", zap.Error(err))
		} else {
			stats = redisStats
			closers = append(closers, func(context.Context) error { return redisStats.Close() })
			logger.Info("stats cache: redis")
		}
	} else {
		logger.Info("stats cache: noop")
	}

	mir := mirror.Mirror(mirror.Noop{})
	if cfg.MongoURI != "" {
		mongo, err := mirror.NewMongo(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			logger.Warn("mongo mirror unavailable, continuing without it", zap.Error(err))
		} else {
			mir = mongo
			closers = append(closers, mongo.Close)
			logger.Info("mirror: mongo", zap.String("db", cfg.MongoDB))
		}
	} else {
		logger.Info("mirror: noop")
	}

	repo := records.New(kv, logger)
	engine := aggregate.New(logger)
	ledger := salary.New(repo, logger)
	composer := report.NewComposer(repo, engine, ledger)
	svc := service.New(repo, engine, ledger, composer, mir, stats,
		time.Duration(cfg.StatsCacheTTLSeconds)*time.Second, logger)

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if feed, err := kv.Watch(watchCtx); err != nil {
		logger.Warn("store change feed unavailable", zap.Error(err))
	} else {
		go svc.WatchStore(watchCtx, feed)
	}

	sched := scheduler.New(svc, time.Duration(cfg.RefreshIntervalSeconds)*time.Second, logger)
	sched.Start()

	auth := httpapi.NewAuthManager(cfg.AuthSecret, time.Duration(cfg.AccessTokenTTLMinutes)*time.Minute, cfg.DashboardPIN)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin, logger)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("dashboard backend listening", zap.String("addr", cfg.Address()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	sched.Stop()
	watchCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}

	for _, closeFn := range closers {
		if err := closeFn(shutdownCtx); err != nil {
			logger.Warn("close error", zap.Error(err))
		}
	}

	logger.Info("server stopped")
}

func validateSecurityConfig(cfg config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	if len(cfg.DashboardPIN) < 4 {
		return fmt.Errorf("DASHBOARD_PIN must be set and at least 4 digits")
	}
	if err := validatePINStrength(cfg.DashboardPIN); err != nil {
		return fmt.Errorf("DASHBOARD_PIN is too weak: %w", err)
	}
	return nil
}

// validatePINStrength rejects PINs that are all the same digit,
// sequential (ascending or descending), or from a known-weak list.
func validatePINStrength(pin string) error {
	known := map[string]bool{
		"1234": true, "4321": true, "0000": true, "1111": true,
		"2222": true, "3333": true, "4444": true, "5555": true,
		"6666": true, "7777": true, "8888": true, "9999": true,
		"1212": true, "1122": true, "2580": true, "123456": true,
		"654321": true, "000000": true, "111111": true,
	}
	if known[pin] {
		return fmt.Errorf("common PIN not allowed")
	}

	// Reject all-same-digit PINs.
	allSame := true
	for i := 1; i < len(pin); i++ {
		if pin[i] != pin[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return fmt.Errorf("all-same-digit PIN not allowed")
	}

	// Reject ascending or descending sequential PINs (e.g. 1234, 9876).
	ascending, descending := true, true
	for i := 1; i < len(pin); i++ {
		diff := int(pin[i]) - int(pin[i-1])
		if diff != 1 {
			ascending = false
		}
		if diff != -1 {
			descending = false
		}
	}
	if ascending || descending {
		return fmt.Errorf("sequential PIN not allowed")
	}

	return nil
}
