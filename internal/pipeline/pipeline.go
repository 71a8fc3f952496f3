package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/groundwater-hmpi-service/internal/domain"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/observability"
	"github.com/couchcryptid/groundwater-hmpi-service/internal/store"
)

// Analysis messages.
const (
	MessageCompleted   = "Analysis completed"
	MessageNoData      = "No data found in database"
	MessageNoBatchData = "No valid data found in file"
)

// Scopes passed to sinks alongside scored output.
const (
	ScopeAll   = "all"
	ScopeAdhoc = "adhoc"
)

// ErrNoData is returned by Report when there is nothing to report.
var ErrNoData = errors.New("no data found")

// Publisher delivers scored samples downstream.
type Publisher interface {
	PublishScored(ctx context.Context, scope string, scored []domain.ScoredSample, analyzedAt time.Time) error
}

// SummaryRecorder stores the aggregate of one analysis.
type SummaryRecorder interface {
	RecordSummary(ctx context.Context, scope string, summary domain.Summary, analyzedAt time.Time) error
}

// IngestResult describes a persisted upload.
type IngestResult struct {
	BatchID string `json:"batchId" yaml:"batchId"`
	Name    string `json:"filename" yaml:"filename"`
	Count   int    `json:"count" yaml:"count"`
}

// Analysis is the scored view of a set of samples.
type Analysis struct {
	Message    string                `json:"message" yaml:"message"`
	Count      int                   `json:"count" yaml:"count"`
	Results    []domain.ScoredSample `json:"results" yaml:"results"`
	Summary    domain.Summary        `json:"summary" yaml:"summary"`
	AnalyzedAt time.Time             `json:"analyzedAt" yaml:"analyzedAt"`
}

// Options tunes a Service. Zero values select defaults; nil sinks are disabled.
type Options struct {
	Workers        int
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	PublishTimeout time.Duration
	Publisher      Publisher
	Summaries      SummaryRecorder
}

// Service normalizes uploads into the store and scores stored samples.
type Service struct {
	store     store.Store
	publisher Publisher
	summaries SummaryRecorder
	logger    *slog.Logger
	metrics   *observability.Metrics

	workers        int
	maxRetries     int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	publishTimeout time.Duration

	inflight sync.WaitGroup
}

// New creates a Service over st.
func New(st store.Store, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Service {
	s := &Service{
		store:          st,
		publisher:      opts.Publisher,
		summaries:      opts.Summaries,
		logger:         logger,
		metrics:        metrics,
		workers:        opts.Workers,
		maxRetries:     opts.MaxRetries,
		initialBackoff: opts.InitialBackoff,
		maxBackoff:     opts.MaxBackoff,
		publishTimeout: opts.PublishTimeout,
	}
	if s.workers < 1 {
		s.workers = 1
	}
	if s.maxRetries < 0 {
		s.maxRetries = 0
	}
	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	if s.initialBackoff <= 0 {
		s.initialBackoff = 200 * time.Millisecond
	}
	if s.maxBackoff < s.initialBackoff {
		s.maxBackoff = max(5*time.Second, s.initialBackoff)
	}
	if s.publishTimeout <= 0 {
		s.publishTimeout = 30 * time.Second
	}
	return s
}

// CheckReadiness returns nil when the store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("store unavailable: %w", err)
	}
	return nil
}

// Normalize converts rows to canonical samples without storing them.
func (s *Service) Normalize(ctx context.Context, rows []domain.RawRow) ([]domain.Sample, error) {
	samples, err := domain.NormalizeAll(ctx, rows, s.workers)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			s.metrics.InvalidInputs.Inc()
		}
		return nil, err
	}
	s.metrics.RowsNormalized.Add(float64(len(samples)))
	return samples, nil
}

// Ingest normalizes rows and persists them as a new batch named name.
func (s *Service) Ingest(ctx context.Context, name string, rows []domain.RawRow) (IngestResult, error) {
	samples, err := s.Normalize(ctx, rows)
	if err != nil {
		return IngestResult{}, err
	}

	batch := store.Batch{
		ID:        uuid.NewString(),
		Name:      name,
		Count:     len(samples),
		CreatedAt: clock.Now().UTC(),
	}
	if err := s.store.SaveBatch(ctx, batch, samples); err != nil {
		return IngestResult{}, fmt.Errorf("save batch: %w", err)
	}

	s.metrics.BatchesIngested.Inc()
	s.logger.Info("batch ingested", "batch_id", batch.ID, "filename", name, "count", batch.Count)
	return IngestResult{BatchID: batch.ID, Name: name, Count: batch.Count}, nil
}

// Analyze scores every stored sample.
func (s *Service) Analyze(ctx context.Context) (Analysis, error) {
	samples, err := s.store.Samples(ctx)
	if err != nil {
		return Analysis{}, fmt.Errorf("load samples: %w", err)
	}
	return s.analyze(ctx, ScopeAll, samples, MessageNoData), nil
}

// AnalyzeBatch scores the samples of one batch. Unknown ids return store.ErrNotFound.
func (s *Service) AnalyzeBatch(ctx context.Context, batchID string) (Analysis, error) {
	samples, err := s.store.BatchSamples(ctx, batchID)
	if err != nil {
		return Analysis{}, fmt.Errorf("load batch %s: %w", batchID, err)
	}
	return s.analyze(ctx, batchID, samples, MessageNoBatchData), nil
}

// AnalyzeRows normalizes and scores rows without persisting them.
func (s *Service) AnalyzeRows(ctx context.Context, rows []domain.RawRow) (Analysis, error) {
	samples, err := s.Normalize(ctx, rows)
	if err != nil {
		return Analysis{}, err
	}
	return s.analyze(ctx, ScopeAdhoc, samples, MessageNoBatchData), nil
}

// Report renders the CSV report for one batch, or for every stored sample
// when batchID is empty.
func (s *Service) Report(ctx context.Context, batchID string) (string, error) {
	var (
		samples []domain.Sample
		err     error
	)
	if batchID == "" {
		samples, err = s.store.Samples(ctx)
	} else {
		samples, err = s.store.BatchSamples(ctx, batchID)
	}
	if err != nil {
		return "", fmt.Errorf("load samples: %w", err)
	}
	if len(samples) == 0 {
		return "", ErrNoData
	}

	scored, _ := domain.Score(samples)
	return domain.RenderReport(scored)
}

// Batches lists stored batches, oldest first.
func (s *Service) Batches(ctx context.Context) ([]store.Batch, error) {
	return s.store.Batches(ctx)
}

// DeleteBatch removes a batch and its samples.
func (s *Service) DeleteBatch(ctx context.Context, batchID string) error {
	if err := s.store.DeleteBatch(ctx, batchID); err != nil {
		return fmt.Errorf("delete batch %s: %w", batchID, err)
	}
	s.logger.Info("batch deleted", "batch_id", batchID)
	return nil
}

func (s *Service) analyze(ctx context.Context, scope string, samples []domain.Sample, emptyMessage string) Analysis {
	start := clock.Now()
	scored, summary := domain.Score(samples)

	a := Analysis{
		Message:    MessageCompleted,
		Count:      len(scored),
		Results:    scored,
		Summary:    summary,
		AnalyzedAt: start.UTC(),
	}
	if len(scored) == 0 {
		a.Message = emptyMessage
		return a
	}

	for _, r := range scored {
		s.metrics.SamplesScored.WithLabelValues(string(r.Status)).Inc()
	}
	s.metrics.AnalysisSize.Observe(float64(len(scored)))

	s.publishAsync(ctx, scope, a)

	s.metrics.AnalysisDuration.Observe(clock.Since(start).Seconds())
	s.logger.Debug("analysis completed", "scope", scope, "count", a.Count,
		"high_risk", summary.HighRisk, "average_hmpi", summary.AverageHMPI)
	return a
}
