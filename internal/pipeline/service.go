package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/internal/config"
	"github.com/agrisense/agridata/internal/ingestion"
	"github.com/agrisense/agridata/internal/observability/metrics"
	"github.com/agrisense/agridata/internal/storage"
	"github.com/agrisense/agridata/pkg/interfaces"
)

// Service runs the engine over pending raw files and hands the outputs to
// the configured sinks. Each day file is one independent batch; batches
// share no intermediate state.
type Service struct {
	logger     *logrus.Logger
	engine     *Engine
	reader     *ingestion.Reader
	checkpoint interfaces.CheckpointStore
	sink       interfaces.CuratedSink
	reportSink interfaces.ReportSink
	metrics    *metrics.PipelineMetrics

	mu         sync.RWMutex
	lastResult *Result
}

// RunSummary is the externally visible outcome of processing one file.
type RunSummary struct {
	RunID      string        `json:"run_id"`
	ReportID   string        `json:"report_id"`
	SourceFile string        `json:"source_file"`
	RowsRead   int           `json:"rows_read"`
	Records    int           `json:"records"`
	Rejected   int           `json:"rejected"`
	Imputed    int           `json:"imputed"`
	Anomalies  int           `json:"anomalies"`
	Duration   time.Duration `json:"duration"`
}

// NewService builds the full pipeline from configuration. Rule table
// problems surface here, before any file is read.
func NewService(cfg *config.Config, m *metrics.PipelineMetrics, logger *logrus.Logger) (*Service, error) {
	if logger == nil {
		logger = logrus.New()
	}

	calibration, err := cfg.CalibrationTable()
	if err != nil {
		return nil, err
	}
	ranges, err := cfg.RangeTable()
	if err != nil {
		return nil, err
	}
	engine, err := NewEngine(calibration, ranges, logger)
	if err != nil {
		return nil, err
	}

	checkpoint, err := storage.NewCheckpointStore(&cfg.Ingestion.Checkpoint, logger)
	if err != nil {
		return nil, err
	}
	sink, err := storage.NewCuratedSink(&cfg.Sink, logger)
	if err != nil {
		checkpoint.Close()
		return nil, err
	}
	reportSink, err := storage.NewReportSink(&cfg.Report, logger)
	if err != nil {
		checkpoint.Close()
		sink.Close()
		return nil, err
	}

	return &Service{
		logger:     logger,
		engine:     engine,
		reader:     ingestion.NewReader(cfg.Ingestion.RawDir, checkpoint, logger),
		checkpoint: checkpoint,
		sink:       sink,
		reportSink: reportSink,
		metrics:    m,
	}, nil
}

// ProcessPending runs every not-yet-processed raw file in discovery order.
// A failed file stops the invocation; files already completed stay marked.
func (s *Service) ProcessPending(ctx context.Context) ([]*RunSummary, error) {
	files, err := s.reader.ListNew(ctx)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		s.logger.Info("No new raw files to process")
		return nil, nil
	}

	if err := s.sink.Connect(ctx); err != nil {
		return nil, err
	}

	summaries := make([]*RunSummary, 0, len(files))
	for _, name := range files {
		summary, err := s.ProcessFile(ctx, name)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// ProcessFile runs the pipeline over a single raw file and persists the
// curated batch and quality report. The file is marked processed only after
// both sinks succeed.
func (s *Service) ProcessFile(ctx context.Context, name string) (*RunSummary, error) {
	start := time.Now()

	raw, err := s.reader.ReadFile(ctx, name)
	if err != nil {
		s.observeRun("failed", start)
		return nil, err
	}

	result, err := s.engine.Run(ctx, raw)
	if err != nil {
		s.observeRun("failed", start)
		return nil, err
	}

	if err := s.sink.WriteBatch(ctx, result.Batch.PartitionKey(), result.Batch); err != nil {
		s.observeRun("failed", start)
		return nil, err
	}
	if err := s.reportSink.WriteReport(ctx, result.Report); err != nil {
		s.observeRun("failed", start)
		return nil, err
	}
	if err := s.checkpoint.Mark(ctx, name); err != nil {
		s.observeRun("failed", start)
		return nil, err
	}

	s.recordBatchMetrics(result)
	s.observeRun("completed", start)

	s.mu.Lock()
	s.lastResult = result
	s.mu.Unlock()

	return &RunSummary{
		RunID:      result.RunID,
		ReportID:   result.Report.ID,
		SourceFile: name,
		RowsRead:   raw.RowsRead,
		Records:    len(result.Batch.Readings),
		Rejected:   result.Batch.Rejected,
		Imputed:    result.CleanStats.Imputed,
		Anomalies:  result.AnomalyStats.Flagged,
		Duration:   time.Since(start),
	}, nil
}

// LastResult returns the most recent successful run, or nil.
func (s *Service) LastResult() *Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastResult
}

// Close releases sink and checkpoint resources.
func (s *Service) Close() {
	s.checkpoint.Close()
	s.sink.Close()
	s.reportSink.Close()
}

func (s *Service) observeRun(status string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRun(status, time.Since(start))
	}
}

func (s *Service) recordBatchMetrics(result *Result) {
	if s.metrics == nil {
		return
	}
	processed := make(map[string]int)
	anomalies := make(map[string]int)
	for _, r := range result.Batch.Readings {
		processed[string(r.ReadingType)]++
		if r.IsAnomalous {
			anomalies[string(r.ReadingType)]++
		}
	}
	s.metrics.RecordCounts(processed, anomalies,
		result.Batch.Rejected, result.CleanStats.Imputed, result.CleanStats.Deduplicated)
}
