package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// ReportWriter serializes a quality report as a flat sectioned CSV file:
// each table is preceded by a "## <name>" marker and written as a CSV block.
type ReportWriter struct {
	logger *logrus.Logger
	path   string
}

// NewReportWriter creates a CSV report sink writing to path.
func NewReportWriter(path string, logger *logrus.Logger) (*ReportWriter, error) {
	if path == "" {
		return nil, errors.NewConfigurationError("INVALID_CONFIG", "report path is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ReportWriter{logger: logger, path: path}, nil
}

// WriteReport writes the four report tables. The file is replaced wholesale;
// reports are write-once per run and never merged.
func (w *ReportWriter) WriteReport(ctx context.Context, report *models.QualityReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(w.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"REPORT_UNWRITABLE", "cannot create report directory")
		}
	}
	f, err := os.Create(w.path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"REPORT_UNWRITABLE", "cannot create report file")
	}
	defer f.Close()

	sections := []struct {
		name   string
		header []string
		rows   [][]string
	}{
		{"range_checks", []string{"reading_type", "min", "max"}, rangeRows(report)},
		{"missing", []string{"reading_type", "total_count", "missing_count", "missing_fraction"}, missingRows(report)},
		{"gaps", []string{"sensor_id", "reading_type", "expected_hour_count", "actual_hour_count", "missing_hour_count"}, gapRows(report)},
		{"profile", []string{"reading_type", "total_count", "null_count", "null_fraction"}, profileRows(report)},
	}

	for _, section := range sections {
		if _, err := fmt.Fprintf(f, "## %s\n", section.name); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"REPORT_WRITE_FAILED", "cannot write section marker")
		}
		cw := csv.NewWriter(f)
		if err := cw.Write(section.header); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"REPORT_WRITE_FAILED", "cannot write section header")
		}
		for _, row := range section.rows {
			if err := cw.Write(row); err != nil {
				return errors.WrapError(err, errors.ErrorTypeStorage,
					"REPORT_WRITE_FAILED", "cannot write section row")
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"REPORT_WRITE_FAILED", "section flush failed")
		}
		if _, err := fmt.Fprintln(f); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"REPORT_WRITE_FAILED", "cannot write section separator")
		}
	}

	w.logger.WithFields(logrus.Fields{
		"report_id": report.ID,
		"path":      w.path,
	}).Info("Quality report persisted")

	return nil
}

// Close is a no-op for the CSV backend.
func (w *ReportWriter) Close() error {
	return nil
}

func rangeRows(report *models.QualityReport) [][]string {
	rows := make([][]string, 0, len(report.RangeChecks))
	for _, e := range report.RangeChecks {
		rows = append(rows, []string{
			string(e.ReadingType),
			strconv.FormatFloat(e.Min, 'f', -1, 64),
			strconv.FormatFloat(e.Max, 'f', -1, 64),
		})
	}
	return rows
}

func missingRows(report *models.QualityReport) [][]string {
	rows := make([][]string, 0, len(report.Missing))
	for _, e := range report.Missing {
		rows = append(rows, []string{
			string(e.ReadingType),
			strconv.Itoa(e.TotalCount),
			strconv.Itoa(e.MissingCount),
			strconv.FormatFloat(e.MissingFraction, 'f', 6, 64),
		})
	}
	return rows
}

func gapRows(report *models.QualityReport) [][]string {
	rows := make([][]string, 0, len(report.Gaps))
	for _, e := range report.Gaps {
		rows = append(rows, []string{
			e.SensorID,
			string(e.ReadingType),
			strconv.Itoa(e.ExpectedHourCount),
			strconv.Itoa(e.ActualHourCount),
			strconv.Itoa(e.MissingHourCount),
		})
	}
	return rows
}

func profileRows(report *models.QualityReport) [][]string {
	rows := make([][]string, 0, len(report.Profile))
	for _, e := range report.Profile {
		rows = append(rows, []string{
			string(e.ReadingType),
			strconv.Itoa(e.TotalCount),
			strconv.Itoa(e.NullCount),
			strconv.FormatFloat(e.NullFraction, 'f', 6, 64),
		})
	}
	return rows
}
