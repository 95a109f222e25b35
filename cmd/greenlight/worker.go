package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.temporal.io/sdk/client"
	sdkworker "go.temporal.io/sdk/worker"

	"github.com/ahrav/go-greenlight/internal/metrics"
	"github.com/ahrav/go-greenlight/internal/review"
	"github.com/ahrav/go-greenlight/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the approval workflow worker",
	RunE:  runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	cfg := worker.ConfigFromViper()

	items, err := worker.InitializeItemStore(cfg.StoreDSN)
	if err != nil {
		return err
	}
	mediaStore, err := worker.InitializeMediaStore(cfg.MediaDir)
	if err != nil {
		return err
	}

	c, err := client.Dial(client.Options{
		HostPort:  cfg.TemporalHostPort,
		Namespace: cfg.TemporalNamespace,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to Temporal: %w", err)
	}
	defer c.Close()

	m := serveMetrics(cfg.MetricsAddr, log)

	w := sdkworker.New(c, cfg.TaskQueue, sdkworker.Options{})
	worker.RegisterAll(w, worker.Dependencies{
		Items:     items,
		Media:     mediaStore,
		Completer: review.NewTemporalCompleter(c),
		Metrics:   m,
		Config:    cfg,
	})

	log.Info("worker_started",
		"task_queue", cfg.TaskQueue,
		"namespace", cfg.TemporalNamespace,
		"store", storeKind(cfg.StoreDSN),
	)
	return w.Run(sdkworker.InterruptCh())
}

// serveMetrics exposes the Prometheus endpoint when an address is configured
// and returns the registered workflow metrics, or nil when disabled.
func serveMetrics(addr string, log *slog.Logger) *metrics.Metrics {
	if addr == "" {
		return nil
	}
	reg := prometheus.NewRegistry()
	m := worker.NewMetrics(reg)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("metrics_listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics_server_error", "error", err.Error())
		}
	}()
	return m
}

func storeKind(dsn string) string {
	if dsn == "" {
		return "memory"
	}
	return "sqlite"
}
