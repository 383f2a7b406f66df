package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/internal/quality"
	"github.com/agrisense/agridata/internal/transform"
	"github.com/agrisense/agridata/pkg/models"
)

// Engine is the transformation and validation core. It processes one raw
// batch end to end, synchronously:
//
//	validate -> clean -> normalize -> calibrate -> detect -> enrich
//
// and profiles the resulting batch into a quality report. The engine holds
// no state between runs beyond the rule tables, which are read-only after
// construction; every statistic is batch-local.
type Engine struct {
	logger     *logrus.Logger
	validator  *transform.SchemaValidator
	cleaner    *transform.Cleaner
	normalizer *transform.TimestampNormalizer
	calibrator *transform.Calibrator
	detector   *transform.AnomalyDetector
	enricher   *transform.Enricher
	profiler   *quality.Profiler
}

// Result bundles everything one run produces.
type Result struct {
	RunID        string                  `json:"run_id"`
	Batch        *models.Batch           `json:"-"`
	Report       *models.QualityReport   `json:"report"`
	CleanStats   *transform.CleanStats   `json:"clean_stats"`
	AnomalyStats *transform.AnomalyStats `json:"anomaly_stats"`
	Duration     time.Duration           `json:"duration"`
}

// NewEngine builds the engine from explicit rule tables. Incomplete tables
// are rejected here, before any batch is touched: calibration and range
// rules are assumed complete for all five reading types by construction.
func NewEngine(calibration models.CalibrationTable, ranges models.RangeTable, logger *logrus.Logger) (*Engine, error) {
	if logger == nil {
		logger = logrus.New()
	}

	calibrator, err := transform.NewCalibrator(calibration, logger)
	if err != nil {
		return nil, err
	}
	detector, err := transform.NewAnomalyDetector(ranges, logger)
	if err != nil {
		return nil, err
	}

	return &Engine{
		logger:     logger,
		validator:  transform.NewSchemaValidator(logger),
		cleaner:    transform.NewCleaner(logger),
		normalizer: transform.NewTimestampNormalizer(logger),
		calibrator: calibrator,
		detector:   detector,
		enricher:   transform.NewEnricher(logger),
		profiler:   quality.NewProfiler(ranges, logger),
	}, nil
}

// Run processes one raw batch. Record-level problems degrade to exclusion
// and show up in the report; the returned report always reflects the full
// processed batch.
func (e *Engine) Run(ctx context.Context, raw *models.RawBatch) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	start := time.Now()

	e.logger.WithFields(logrus.Fields{
		"run_id":      runID,
		"source_file": raw.SourceFile,
		"rows_read":   raw.RowsRead,
	}).Info("Pipeline run started")

	batch := e.validator.Validate(raw)
	cleanStats := e.cleaner.Clean(batch)
	e.normalizer.NormalizeBatch(batch)
	e.calibrator.Apply(batch)
	anomalyStats := e.detector.Detect(batch)
	e.enricher.Enrich(batch)
	report := e.profiler.Profile(batch)

	result := &Result{
		RunID:        runID,
		Batch:        batch,
		Report:       report,
		CleanStats:   cleanStats,
		AnomalyStats: anomalyStats,
		Duration:     time.Since(start),
	}

	e.logger.WithFields(logrus.Fields{
		"run_id":   runID,
		"records":  len(batch.Readings),
		"rejected": batch.Rejected,
		"flagged":  anomalyStats.Flagged,
		"duration": result.Duration,
	}).Info("Pipeline run completed")

	return result, nil
}
