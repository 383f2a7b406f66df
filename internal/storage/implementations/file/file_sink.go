package file

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/constants"
	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// SinkConfig configures the partitioned directory sink.
type SinkConfig struct {
	BasePath          string `json:"base_path"`
	Format            string `json:"format"` // "csv" or "json"
	PartitionBySensor bool   `json:"partition_by_sensor"`
}

// Sink persists curated batches as a partitioned directory tree:
//
//	<base>/<partition>/sensor_id=<id>/<reading_type>.<ext>
//
// mirroring the layout analytics jobs expect. Physical layout is this sink's
// concern alone; the engine hands over a tabular batch and a partition key.
type Sink struct {
	config *SinkConfig
	logger *logrus.Logger
}

// NewSink creates a file sink.
func NewSink(config *SinkConfig, logger *logrus.Logger) (*Sink, error) {
	if config == nil {
		return nil, errors.NewConfigurationError("INVALID_CONFIG", "file sink config cannot be nil")
	}
	if config.BasePath == "" {
		return nil, errors.NewConfigurationError("INVALID_CONFIG", "file sink base path is required")
	}
	if config.Format == "" {
		config.Format = constants.FormatCSV
	}
	if config.Format != constants.FormatCSV && config.Format != constants.FormatJSON {
		return nil, errors.NewConfigurationError("INVALID_CONFIG",
			fmt.Sprintf("unsupported file sink format %q", config.Format))
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Sink{config: config, logger: logger}, nil
}

// Connect ensures the base directory exists.
func (s *Sink) Connect(ctx context.Context) error {
	if err := os.MkdirAll(s.config.BasePath, 0o755); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"SINK_UNWRITABLE", "cannot create sink base directory")
	}
	return nil
}

// Close is a no-op for the file backend.
func (s *Sink) Close() error {
	return nil
}

// WriteBatch writes one curated batch under the partition key.
func (s *Sink) WriteBatch(ctx context.Context, partition string, batch *models.Batch) error {
	if len(batch.Readings) == 0 {
		s.logger.WithField("source_file", batch.SourceFile).Info("Empty batch; nothing to persist")
		return nil
	}

	files := 0
	for dir, byType := range s.partition(partition, batch) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"SINK_UNWRITABLE", "cannot create partition directory")
		}
		for rt, readings := range byType {
			if err := ctx.Err(); err != nil {
				return err
			}
			path := filepath.Join(dir, fmt.Sprintf("%s.%s", rt, s.config.Format))
			if err := s.writeFile(path, readings); err != nil {
				return err
			}
			files++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"partition": partition,
		"records":   len(batch.Readings),
		"files":     files,
	}).Info("Curated batch persisted")

	return nil
}

// partition groups readings into directory -> reading type -> rows.
func (s *Sink) partition(partition string, batch *models.Batch) map[string]map[models.ReadingType][]*models.Reading {
	out := make(map[string]map[models.ReadingType][]*models.Reading)
	for _, r := range batch.Readings {
		dir := filepath.Join(s.config.BasePath, partition)
		if s.config.PartitionBySensor {
			dir = filepath.Join(dir, fmt.Sprintf("sensor_id=%s", r.SensorID))
		}
		byType, ok := out[dir]
		if !ok {
			byType = make(map[models.ReadingType][]*models.Reading)
			out[dir] = byType
		}
		byType[r.ReadingType] = append(byType[r.ReadingType], r)
	}
	return out
}

func (s *Sink) writeFile(path string, readings []*models.Reading) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"SINK_UNWRITABLE", "cannot create partition file").WithContext("path", path)
	}
	defer f.Close()

	switch s.config.Format {
	case constants.FormatJSON:
		enc := json.NewEncoder(f)
		for _, r := range readings {
			if err := enc.Encode(r); err != nil {
				return errors.WrapError(err, errors.ErrorTypeStorage,
					"SINK_WRITE_FAILED", "cannot encode reading")
			}
		}
	default:
		w := csv.NewWriter(f)
		if err := w.Write(curatedHeader); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"SINK_WRITE_FAILED", "cannot write csv header")
		}
		for _, r := range readings {
			if err := w.Write(curatedRow(r)); err != nil {
				return errors.WrapError(err, errors.ErrorTypeStorage,
					"SINK_WRITE_FAILED", "cannot write csv row")
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"SINK_WRITE_FAILED", "csv flush failed")
		}
	}
	return nil
}

var curatedHeader = []string{
	"sensor_id", "reading_type", "timestamp_iso", "raw_value",
	"corrected_value", "is_anomalous", "daily_avg", "rolling_avg_7d", "source_file",
}

func curatedRow(r *models.Reading) []string {
	return []string{
		r.SensorID,
		string(r.ReadingType),
		r.TimestampISO,
		formatNullable(r.RawValue),
		formatNullable(r.CorrectedValue),
		strconv.FormatBool(r.IsAnomalous),
		formatNullable(r.DailyAvg),
		formatNullable(r.RollingAvg7d),
		r.SourceFile,
	}
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
