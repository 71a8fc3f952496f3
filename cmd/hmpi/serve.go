package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	httpadapter "github.com/couchcryptid/groundwater-hmpi-service/internal/adapter/http"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/adapter/influx"
	kafkaadapter "github.com/couchcryptid/groundwater-hmpi-service/internal/adapter/kafka"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/adapter/mongo"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/adapter/postgres"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/adapter/sqlite"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/config"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/observability"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/pipeline"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HMPI HTTP API",
	Long: `Serve starts the HTTP API on HTTP_ADDR with the configured sample store.
Scored samples are published to Kafka and batch summaries written to InfluxDB
when those sinks are enabled. SIGINT or SIGTERM drains in-flight requests
before exiting.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		cfg, err := config.LoadFile(cfgFile)
		if err != nil {
			slog.Error("failed to load config", "error", err)
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, cfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg *config.Config) error {
	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.StoreDriver, "error", err)
		return err
	}
	logger.Info("sample store opened", "driver", cfg.StoreDriver)

	var svcStore store.Store = st
	if cfg.BatchCacheSize > 0 {
		svcStore = store.NewCachedStore(st, cfg.BatchCacheSize, metrics)
	}

	opts := pipeline.Options{
		Workers:        cfg.NormalizeWorkers,
		MaxRetries:     cfg.PublishMaxRetries,
		PublishTimeout: cfg.PublishTimeout,
	}

	var publisher *kafkaadapter.Publisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, logger)
		opts.Publisher = publisher
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaScoredTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	var recorder *influx.Recorder
	if cfg.InfluxEnabled {
		recorder, err = influx.NewRecorder(ctx, cfg, logger)
		if err != nil {
			logger.Error("failed to connect to influxdb", "error", err)
			closeAll(logger, st, publisher, nil)
			return err
		}
		opts.Summaries = recorder
		logger.Info("influxdb summaries enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	}

	svc := pipeline.New(svcStore, logger, metrics, opts)
	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, cfg.MaxUploadBytes, logger)

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case runErr = <-serveErr:
		logger.Error("http server error", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := svc.Drain(shutdownCtx); err != nil {
		logger.Error("sink delivery drain incomplete", "error", err)
	}
	closeAll(logger, st, publisher, recorder)

	logger.Info("shutdown complete")
	return runErr
}

// openStore connects the backend named by cfg.StoreDriver.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return store.NewMemory(), nil
	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverPostgres:
		st, err := postgres.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.DriverMongo:
		st, err := mongo.New(ctx, cfg.MongoURI, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

func closeAll(logger *slog.Logger, st store.Store, publisher *kafkaadapter.Publisher, recorder *influx.Recorder) {
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if recorder != nil {
		recorder.Close()
	}
	if err := st.Close(); err != nil {
		logger.Error("store close error", "error", err)
	}
}
