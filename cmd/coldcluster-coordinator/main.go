// Coldcluster Coordinator — раздаёт assemblies workers и собирает результаты.
//
// Coordinator:
//   - Загружает solver из каталога и держит состояние кластера в памяти
//   - Принимает check-in workers и команды оператора по HTTP
//   - Периодически снимает срезы прогресса (cron)
//   - Публикует события кластера в RabbitMQ для архива (опционально)
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Coldcluster/internal/api"
	"github.com/shaiso/Coldcluster/internal/cluster"
	"github.com/shaiso/Coldcluster/internal/config"
	"github.com/shaiso/Coldcluster/internal/journal"
	"github.com/shaiso/Coldcluster/internal/mq"
	"github.com/shaiso/Coldcluster/internal/reporter"
	"github.com/shaiso/Coldcluster/internal/solvers"
	"github.com/shaiso/Coldcluster/internal/telemetry"
)

var startTime = time.Now()

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting coldcluster-coordinator")

	cfg, err := config.LoadCoordinator()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Каталог solver
	catalog := solvers.NewCatalog(cfg.SolversDir, logger)
	if err := catalog.Load(); err != nil {
		logger.Warn("solver catalog not loaded", "dir", cfg.SolversDir, "error", err)
	}
	go func() {
		if err := catalog.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("solver catalog watch stopped", "error", err)
		}
	}()

	// RabbitMQ (опционально)
	jcfg := journal.Config{
		Buffer: cfg.EventBuffer,
		Logger: logger,
	}
	if cfg.RabbitMQURL != "" {
		mqConn, err := mq.NewConnection(cfg.RabbitMQURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, events will only be logged", "error", err)
		} else {
			defer mqConn.Close()
			logger.Info("RabbitMQ connected")

			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			jcfg.Publisher = mq.NewPublisher(mqConn, logger)
		}
	}

	events := journal.New(jcfg)
	events.Start(ctx)

	// Controller
	controller := cluster.New(cluster.Config{
		Sink:           events,
		LivenessWindow: cfg.LivenessWindow,
		Logger:         logger,
	})

	solverText := ""
	if s, err := catalog.Get(cfg.DefaultSolver); err != nil {
		logger.Warn("default solver unavailable, starting with an empty search", "solver", cfg.DefaultSolver, "error", err)
	} else {
		solverText = s.Text
	}
	if err := controller.Reset(solverText); err != nil {
		logger.Error("failed to load default solver", "solver", cfg.DefaultSolver, "error", err)
		os.Exit(1)
	}
	telemetry.SetClusterStatus(controller.Status())

	// Reporter
	rep, err := reporter.New(reporter.Config{
		Source:   controller,
		Schedule: cfg.SnapshotCron,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("invalid snapshot schedule", "error", err)
		os.Exit(1)
	}
	rep.Start()

	// HTTP
	handler := api.NewHandler(api.Config{
		Controller:      controller,
		Catalog:         catalog,
		WorkerToken:     cfg.WorkerToken,
		ConsoleUser:     cfg.ConsoleUser,
		ConsolePassword: cfg.ConsolePassword,
		Logger:          logger,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
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
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	rep.Stop(shutdownCtx)
	events.Stop()

	logger.Info("coldcluster-coordinator stopped")
}
