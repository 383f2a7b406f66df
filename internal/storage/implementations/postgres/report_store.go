package postgres

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// ReportStore persists quality reports in PostgreSQL, one row per table
// entry, keyed by report ID. Reports are write-once; the store only ever
// inserts.
type ReportStore struct {
	db     *sql.DB
	logger *logrus.Logger
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS quality_reports (
		id TEXT PRIMARY KEY,
		source_file TEXT NOT NULL,
		generated_at TIMESTAMPTZ NOT NULL,
		records_profiled INTEGER NOT NULL,
		records_rejected INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS report_range_checks (
		report_id TEXT NOT NULL REFERENCES quality_reports(id),
		reading_type TEXT NOT NULL,
		min_value DOUBLE PRECISION NOT NULL,
		max_value DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS report_missing (
		report_id TEXT NOT NULL REFERENCES quality_reports(id),
		reading_type TEXT NOT NULL,
		total_count INTEGER NOT NULL,
		missing_count INTEGER NOT NULL,
		missing_fraction DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS report_gaps (
		report_id TEXT NOT NULL REFERENCES quality_reports(id),
		sensor_id TEXT NOT NULL,
		reading_type TEXT NOT NULL,
		expected_hour_count INTEGER NOT NULL,
		actual_hour_count INTEGER NOT NULL,
		missing_hour_count INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS report_profile (
		report_id TEXT NOT NULL REFERENCES quality_reports(id),
		reading_type TEXT NOT NULL,
		total_count INTEGER NOT NULL,
		null_count INTEGER NOT NULL,
		null_fraction DOUBLE PRECISION NOT NULL
	)`,
}

// NewReportStore opens a connection pool and ensures the report schema
// exists.
func NewReportStore(dsn string, logger *logrus.Logger) (*ReportStore, error) {
	if dsn == "" {
		return nil, errors.NewConfigurationError("INVALID_CONFIG", "postgres dsn is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage,
			"POSTGRES_OPEN_FAILED", "cannot open postgres connection")
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.WrapError(err, errors.ErrorTypeStorage,
			"POSTGRES_UNREACHABLE", "cannot reach postgres")
	}
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, errors.WrapError(err, errors.ErrorTypeStorage,
				"POSTGRES_SCHEMA_FAILED", "cannot ensure report schema")
		}
	}

	logger.Info("Connected to postgres report store")

	return &ReportStore{db: db, logger: logger}, nil
}

// WriteReport inserts the report header and the four tables in one
// transaction.
func (s *ReportStore) WriteReport(ctx context.Context, report *models.QualityReport) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"POSTGRES_TX_FAILED", "cannot begin transaction")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO quality_reports (id, source_file, generated_at, records_profiled, records_rejected)
		 VALUES ($1, $2, $3, $4, $5)`,
		report.ID, report.SourceFile, report.GeneratedAt,
		report.RecordsProfiled, report.RecordsRejected); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"POSTGRES_WRITE_FAILED", "cannot insert report header")
	}

	for _, e := range report.RangeChecks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_range_checks (report_id, reading_type, min_value, max_value)
			 VALUES ($1, $2, $3, $4)`,
			report.ID, e.ReadingType, e.Min, e.Max); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"POSTGRES_WRITE_FAILED", "cannot insert range check row")
		}
	}
	for _, e := range report.Missing {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_missing (report_id, reading_type, total_count, missing_count, missing_fraction)
			 VALUES ($1, $2, $3, $4, $5)`,
			report.ID, e.ReadingType, e.TotalCount, e.MissingCount, e.MissingFraction); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"POSTGRES_WRITE_FAILED", "cannot insert missing row")
		}
	}
	for _, e := range report.Gaps {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_gaps (report_id, sensor_id, reading_type, expected_hour_count, actual_hour_count, missing_hour_count)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			report.ID, e.SensorID, e.ReadingType,
			e.ExpectedHourCount, e.ActualHourCount, e.MissingHourCount); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"POSTGRES_WRITE_FAILED", "cannot insert gap row")
		}
	}
	for _, e := range report.Profile {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO report_profile (report_id, reading_type, total_count, null_count, null_fraction)
			 VALUES ($1, $2, $3, $4, $5)`,
			report.ID, e.ReadingType, e.TotalCount, e.NullCount, e.NullFraction); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"POSTGRES_WRITE_FAILED", "cannot insert profile row")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"POSTGRES_TX_FAILED", "cannot commit report")
	}

	s.logger.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"source_file": report.SourceFile,
	}).Info("Quality report stored in postgres")

	return nil
}

// Close closes the connection pool.
func (s *ReportStore) Close() error {
	return s.db.Close()
}
