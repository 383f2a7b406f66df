package transform

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// timestampLayouts are the accepted raw timestamp formats, tried in order.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// SchemaValidator checks that raw records conform to the expected column
// types: non-empty sensor_id, a parseable timestamp, a known reading type
// and a numeric-or-null value. Records failing validation are excluded from
// downstream stages and counted; validation itself never fails a run.
type SchemaValidator struct {
	logger *logrus.Logger
}

// NewSchemaValidator creates a new schema validator.
func NewSchemaValidator(logger *logrus.Logger) *SchemaValidator {
	if logger == nil {
		logger = logrus.New()
	}
	return &SchemaValidator{logger: logger}
}

// Validate annotates every raw record with a validity flag and returns the
// batch of parsed readings built from the valid records, with the rejected
// count recorded on the batch.
func (v *SchemaValidator) Validate(raw *models.RawBatch) *models.Batch {
	batch := &models.Batch{
		SourceFile: raw.SourceFile,
		RowsRead:   raw.RowsRead,
		Readings:   make([]*models.Reading, 0, len(raw.Records)),
	}

	for _, rec := range raw.Records {
		reading, err := v.validateRecord(rec)
		rec.Valid = err == nil
		if err != nil {
			batch.Rejected++
			v.logger.WithError(err).WithFields(logrus.Fields{
				"source_file": raw.SourceFile,
				"sensor_id":   rec.SensorID,
			}).Debug("Record rejected")
			continue
		}
		reading.SourceFile = raw.SourceFile
		batch.Readings = append(batch.Readings, reading)
	}

	v.logger.WithFields(logrus.Fields{
		"source_file": raw.SourceFile,
		"rows_read":   raw.RowsRead,
		"valid":       len(batch.Readings),
		"rejected":    batch.Rejected,
	}).Info("Schema validation completed")

	return batch
}

// validateRecord returns the parsed reading, or the sentinel naming why the
// record was rejected.
func (v *SchemaValidator) validateRecord(rec *models.RawRecord) (*models.Reading, error) {
	if rec.SensorID == "" {
		return nil, errors.ErrMissingSensorID
	}
	if rec.Timestamp == "" {
		return nil, errors.ErrMissingTimestamp
	}

	ts, ok := parseTimestamp(rec.Timestamp)
	if !ok {
		return nil, errors.ErrUnparseableTime
	}

	rt := models.ReadingType(rec.ReadingType)
	if !rt.IsValid() {
		return nil, errors.ErrUnknownReadingType
	}

	value, ok := coerceNumeric(rec.Value)
	if !ok {
		return nil, errors.ErrNonNumericValue
	}

	return &models.Reading{
		SensorID:    rec.SensorID,
		ReadingType: rt,
		Timestamp:   ts,
		RawValue:    value,
	}, nil
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// coerceNumeric accepts the numeric shapes raw files produce (float, integer,
// json.Number) and null. Anything else, including strings that failed the
// ingestion parser, fails validation.
func coerceNumeric(v interface{}) (*float64, bool) {
	switch val := v.(type) {
	case nil:
		return nil, true
	case float64:
		return models.Float64Ptr(val), true
	case float32:
		return models.Float64Ptr(float64(val)), true
	case int:
		return models.Float64Ptr(float64(val)), true
	case int64:
		return models.Float64Ptr(float64(val)), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, false
		}
		return models.Float64Ptr(f), true
	default:
		return nil, false
	}
}
