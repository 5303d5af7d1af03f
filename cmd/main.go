package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	_ "github.com/EvgenyiK/pulsefit-service/cmd/docs"
	"github.com/EvgenyiK/pulsefit-service/internal/config"
	"github.com/EvgenyiK/pulsefit-service/internal/handlers"
	"github.com/EvgenyiK/pulsefit-service/internal/logger"
	"github.com/EvgenyiK/pulsefit-service/internal/repository"
	"github.com/EvgenyiK/pulsefit-service/internal/server"
	"github.com/EvgenyiK/pulsefit-service/internal/subscription"
)

// @title PulseFit Membership API
// @version 1.0
// @description API фитнес-клуба: участники, подписки и их состояние.
// @host localhost:8080

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	zl, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = zl.Sync() }()

	clock := subscription.SystemClock{}

	store, err := openStore(cfg, clock, zl)
	if err != nil {
		zl.Fatal("failed to open store", zap.String("driver", cfg.StorageDriver), zap.Error(err))
	}
	defer store.Close()

	h := handlers.NewHandler(store, clock, zl)
	router := server.NewRouter(h, server.Options{
		MetricsEnabled: cfg.MetricsEnabled,
		RateLimiter:    server.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	})

	serverAddr := ":" + cfg.ServerPort
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		zl.Info("server starting", zap.String("addr", serverAddr), zap.String("storage", cfg.StorageDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("could not listen", zap.String("addr", serverAddr), zap.Error(err))
		}
	}()

	// Ждем системного сигнала
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigs
	zl.Info("graceful shutdown", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	} else {
		zl.Info("server stopped")
	}
}

func openStore(cfg *config.Config, clock subscription.Clock, zl *zap.Logger) (repository.Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.StorageDriver == config.StorageMemory {
		store := repository.NewMemory()
		if err := repository.Seed(ctx, store, clock.Today()); err != nil {
			return nil, err
		}
		zl.Warn("using in-memory storage with demo members, data is lost on restart")
		return store, nil
	}

	if cfg.RunMigrations {
		if err := repository.Migrate(cfg.DSN()); err != nil {
			return nil, err
		}
		zl.Info("migrations applied")
	}
	return repository.NewPostgres(ctx, cfg.DSN())
}
