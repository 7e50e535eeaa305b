package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/mguerin/docpilot/internal/bootstrap"
	"github.com/mguerin/docpilot/internal/config"
	"github.com/mguerin/docpilot/internal/observability/logging"
	"github.com/mguerin/docpilot/internal/observability/metrics"
)

const (
	serviceName    = "docpilot-worker"
	processTimeout = 5 * time.Minute
)

type processJob struct {
	ctx  context.Context
	id   string
	done chan error
}

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger(serviceName, cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		slog.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	pipelineMetrics := metrics.NewPipelineMetrics(serviceName)
	metricsServer := startMetricsServer(cfg.WorkerMetricsPort, pipelineMetrics)
	defer shutdownMetricsServer(metricsServer)

	pool, err := ants.NewPoolWithFunc(cfg.WorkerConcurrency, func(args any) {
		job, ok := args.(*processJob)
		if !ok {
			panic("process pool args type error")
		}
		job.done <- processOne(job.ctx, app, pipelineMetrics, job.id)
	})
	if err != nil {
		slog.Error("create worker pool failed", "error", err)
		os.Exit(1)
	}
	defer pool.Release()

	slog.Info("worker started",
		"subject", cfg.NATSSubject,
		"concurrency", cfg.WorkerConcurrency,
		"metrics_port", cfg.WorkerMetricsPort)

	err = app.Queue.SubscribeDocumentIngested(ctx, func(handlerCtx context.Context, documentID string) error {
		job := &processJob{ctx: handlerCtx, id: documentID, done: make(chan error, 1)}
		if err := pool.Invoke(job); err != nil {
			return err
		}
		return <-job.done
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("subscription failed", "error", err)
		os.Exit(1)
	}
	slog.Info("worker stopped")
}

func processOne(ctx context.Context, app *bootstrap.App, m *metrics.PipelineMetrics, documentID string) error {
	processCtx, cancel := context.WithTimeout(ctx, processTimeout)
	defer cancel()

	if doc, err := app.Repo.GetByID(processCtx, documentID); err == nil {
		m.ObserveQueueLag(time.Since(doc.CreatedAt))
	}

	m.StartRun()
	start := time.Now()
	outcome, err := app.ProcessUC.ProcessByID(processCtx, documentID)
	m.FinishRun(serviceName, time.Since(start), outcome, err)
	if err != nil {
		slog.Error("document processing failed", "document_id", documentID, "error", err)
	}
	return err
}

func startMetricsServer(port string, m *metrics.PipelineMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	server := &http.Server{Addr: ":" + port, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", "error", err)
		}
	}()
	return server
}

func shutdownMetricsServer(server *http.Server) {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
}
