// Package influx records analysis summaries as InfluxDB time series.
package influx

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/config"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
)

const measurement = "hmpi_summary"

type pointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

// Recorder writes one point per analysis. It implements pipeline.SummaryRecorder.
type Recorder struct {
	client influxdb2.Client
	writer pointWriter
	logger *slog.Logger
}

// NewRecorder connects to InfluxDB and verifies the server is healthy.
func NewRecorder(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Recorder, error) {
	client := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)

	if _, err := client.Health(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to influxdb: %w", err)
	}

	logger.Info("influxdb summary recording enabled", "url", cfg.InfluxURL, "bucket", cfg.InfluxBucket)
	return &Recorder{
		client: client,
		writer: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		logger: logger,
	}, nil
}

// RecordSummary writes the status counts and average index of one analysis.
func (r *Recorder) RecordSummary(ctx context.Context, scope string, summary domain.Summary, analyzedAt time.Time) error {
	if err := r.writer.WritePoint(ctx, summaryPoint(scope, summary, analyzedAt)); err != nil {
		return fmt.Errorf("write summary point: %w", err)
	}
	return nil
}

// Close flushes and releases the client.
func (r *Recorder) Close() {
	if r.client != nil {
		r.client.Close()
	}
}

func summaryPoint(scope string, summary domain.Summary, analyzedAt time.Time) *write.Point {
	return write.NewPoint(
		measurement,
		map[string]string{
			"scope": scope,
		},
		map[string]interface{}{
			"total_samples": summary.TotalSamples,
			"safe":          summary.SafeSamples,
			"moderate_risk": summary.ModerateRisk,
			"high_risk":     summary.HighRisk,
			"average_hmpi":  summary.AverageHMPI,
		},
		analyzedAt,
	)
}
