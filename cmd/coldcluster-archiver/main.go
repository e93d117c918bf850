// Coldcluster Archiver — сохраняет историю поисков в Postgres.
//
// Archiver:
//   - Потребляет события координатора из очереди archive.events
//   - Записывает поиски, завершения, решения и срезы прогресса
//   - Отдаёт архив по HTTP (/api/v1/searches)
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Coldcluster/internal/api"
	"github.com/shaiso/Coldcluster/internal/archive"
	"github.com/shaiso/Coldcluster/internal/config"
	"github.com/shaiso/Coldcluster/internal/mq"
	"github.com/shaiso/Coldcluster/internal/repo"
	"github.com/shaiso/Coldcluster/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting coldcluster-archiver")

	cfg, err := config.LoadArchiver()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.DBURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	// Создаём репозитории
	searchRepo := repo.NewSearchRepo(pool)
	completionRepo := repo.NewCompletionRepo(pool)
	snapshotRepo := repo.NewSnapshotRepo(pool)

	// RabbitMQ
	mqURL := cfg.RabbitMQURL
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}
	mqConn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer mqConn.Close()
	logger.Info("RabbitMQ connected")

	if err := mq.SetupTopology(ctx, mqConn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}
	logger.Debug("topology ready", "topology", mq.TopologyInfo())

	arch := archive.New(archive.Config{
		Searches:    searchRepo,
		Completions: completionRepo,
		Snapshots:   snapshotRepo,
		Conn:        mqConn,
		Logger:      logger,
	})
	if err := arch.Start(ctx); err != nil {
		logger.Error("failed to start archiver", "error", err)
		os.Exit(1)
	}

	// HTTP: /healthz + /metrics + read API
	handler := api.NewArchiveHandler(api.ArchiveConfig{
		Searches:  searchRepo,
		Solutions: completionRepo,
		Snapshots: snapshotRepo,
		Logger:    logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := pool.Ping(r.Context()); err != nil || !mqConn.IsConnected() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("degraded"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	handler.RegisterRoutes(mux)

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	arch.Stop()
	logger.Info("coldcluster-archiver stopped")
}
