// Command avbv запускает HTTP и gRPC серверы преобразования идентификаторов видео.
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

	"github.com/tempizhere/avbv/internal/app"
	"github.com/tempizhere/avbv/internal/config"
	grpcserver "github.com/tempizhere/avbv/internal/grpc"
	"github.com/tempizhere/avbv/internal/log"
	"github.com/tempizhere/avbv/internal/repository"
	"github.com/tempizhere/avbv/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

// shutdownTimeout ограничивает ожидание активных запросов при остановке
const shutdownTimeout = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx); err != nil {
		panic(err)
	}
}

// run поднимает зависимости и серверы и блокируется до отмены ctx
func run(ctx context.Context) error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	db, err := app.NewDB(cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if db != nil {
		defer db.Close()
	}

	repo, err := newRepository(cfg, db, logger)
	if err != nil {
		return fmt.Errorf("repository: %w", err)
	}

	svc := service.NewService(repo, cfg.BaseURL, cfg.JWTSecret, logger, service.WithTokenTTL(cfg.CookieTTL))
	defer svc.Close()

	httpServer := &http.Server{
		Addr:              cfg.RunAddr,
		Handler:           app.NewRouter(cfg, svc, db, logger),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer := grpcserver.NewGRPCServer(svc, db, cfg.TrustedSubnet, logger)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", zap.String("address", cfg.RunAddr), zap.String("base_url", cfg.BaseURL))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		lis, err := net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		logger.Info("Starting gRPC server", zap.String("address", cfg.GRPCAddr))
		if err := grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down servers")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		grpcServer.GracefulStop()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", zap.Error(err))
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Servers stopped")
	return nil
}

// newRepository выбирает хранилище: PostgreSQL, если задан DSN, иначе файл, иначе память
func newRepository(cfg *config.Config, db repository.Database, logger *zap.Logger) (repository.Repository, error) {
	switch {
	case db != nil:
		logger.Info("Using PostgreSQL storage")
		return repository.NewPostgresRepository(db, logger)
	case cfg.FileStoragePath != "":
		logger.Info("Using file storage", zap.String("path", cfg.FileStoragePath))
		return repository.NewFileRepository(cfg.FileStoragePath, logger)
	default:
		logger.Info("Using in-memory storage")
		return repository.NewMemoryRepository(), nil
	}
}
