package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/arloliu/tablemix"
	"github.com/arloliu/tablemix/internal/kvutil"
	"github.com/arloliu/tablemix/internal/logging"
	"github.com/arloliu/tablemix/internal/metrics"
	"github.com/arloliu/tablemix/sink"
	"github.com/arloliu/tablemix/source"
)

// publishTimeout bounds result publishing, which also runs after cancellation.
const publishTimeout = 30 * time.Second

func runOptimize(cmd *cobra.Command, _ []string) error {
	cfg, err := loadCLIConfig(configPath)
	if err != nil {
		return err
	}

	level, err := logging.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	var logFile io.Writer
	if cfg.LogFile != "" {
		f, err := os.Create(cfg.LogFile)
		if err != nil {
			return fmt.Errorf("create log file: %w", err)
		}
		defer f.Close()
		logFile = f
	}
	log := logging.NewTee(level, cmd.OutOrStdout(), logFile)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	collector := metrics.NewPrometheus(registry, cfg.Metrics.Namespace)
	if cfg.Metrics.Listen != "" {
		srv := serveMetrics(cfg.Metrics.Listen, registry, log)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	var status *sink.Status
	if cfg.StatusFile != "" {
		status = sink.NewStatus(cfg.StatusFile)
		if err := status.Start(); err != nil {
			return err
		}
	}

	sinks := []tablemix.ResultSink{
		sink.NewLog(log),
		sink.NewCSV(cfg.Output.Dir,
			sink.WithAssignmentsFile(cfg.Output.AssignmentsFile),
			sink.WithSummaryFile(cfg.Output.SummaryFile),
		),
	}
	if cfg.NATS.URL != "" {
		kvSink, closeNATS, err := connectKV(ctx, cfg.NATS, log)
		if err != nil {
			return err
		}
		defer closeNATS()
		sinks = append(sinks, kvSink)
	}
	if status != nil {
		// Last, so FINISHED is only written once every other sink has run.
		sinks = append(sinks, status)
	}
	out := sink.NewMulti(log, collector, sinks...)

	src := source.NewCSV(source.CSVConfig{
		Path:       cfg.Input,
		IDField:    cfg.IDField,
		NameField:  cfg.NameField,
		Attributes: cfg.Attributes,
	})

	opt, err := tablemix.NewOptimizer(&cfg.Config, src,
		tablemix.WithLogger(log),
		tablemix.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	result, err := opt.Run(ctx)
	if err != nil {
		return err
	}
	if result.State == tablemix.StateCancelled {
		log.Warn("interrupted, writing best arrangement found so far")
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	return out.Publish(publishCtx, result)
}

func serveMetrics(addr string, registry *prometheus.Registry, log tablemix.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	log.Info("metrics server listening", "addr", addr)

	return srv
}

func connectKV(ctx context.Context, cfg natsConfig, log tablemix.Logger) (*sink.KV, func(), error) {
	nc, err := nats.Connect(cfg.URL, nats.Name("tablemix"))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("init JetStream: %w", err)
	}

	bucket, err := kvutil.EnsureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      cfg.Bucket,
		Description: "tablemix seating results",
	}, 3)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("ensure KV bucket %q: %w", cfg.Bucket, err)
	}
	log.Info("publishing results to NATS", "url", cfg.URL, "bucket", cfg.Bucket, "prefix", cfg.Prefix)

	return sink.NewKV(bucket, cfg.Prefix, log), nc.Close, nil
}
