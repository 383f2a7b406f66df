package influxdb

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// Config contains InfluxDB-specific sink configuration.
type Config struct {
	URL          string        `json:"url"`
	Token        string        `json:"token"`
	Organization string        `json:"organization"`
	Bucket       string        `json:"bucket"`
	Measurement  string        `json:"measurement"`
	Timeout      time.Duration `json:"timeout"`
}

// Sink writes curated readings to InfluxDB as points tagged by sensor and
// reading type, with the derived columns as fields.
type Sink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	config   *Config
	logger   *logrus.Logger
}

// NewSink creates an InfluxDB sink.
func NewSink(config *Config, logger *logrus.Logger) (*Sink, error) {
	if config == nil {
		return nil, errors.NewConfigurationError("INVALID_CONFIG", "influxdb config cannot be nil")
	}
	if config.URL == "" || config.Bucket == "" {
		return nil, errors.NewConfigurationError("INVALID_CONFIG", "influxdb url and bucket are required")
	}
	if config.Measurement == "" {
		config.Measurement = "sensor_reading"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}

	client := influxdb2.NewClientWithOptions(config.URL, config.Token,
		influxdb2.DefaultOptions().SetPrecision(time.Second))

	return &Sink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(config.Organization, config.Bucket),
		config:   config,
		logger:   logger,
	}, nil
}

// Connect verifies the server is reachable.
func (s *Sink) Connect(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	ok, err := s.client.Ping(ctx)
	if err != nil || !ok {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"INFLUXDB_UNREACHABLE", "cannot connect to influxdb")
	}
	s.logger.WithFields(logrus.Fields{
		"url":    s.config.URL,
		"bucket": s.config.Bucket,
	}).Info("Connected to influxdb sink")
	return nil
}

// Close shuts the client down.
func (s *Sink) Close() error {
	s.client.Close()
	return nil
}

// WriteBatch writes every reading of the batch as one point. The partition
// key travels as a tag so downstream queries can select a single day file.
func (s *Sink) WriteBatch(ctx context.Context, partition string, batch *models.Batch) error {
	if len(batch.Readings) == 0 {
		return nil
	}

	points := make([]*write.Point, 0, len(batch.Readings))
	for _, r := range batch.Readings {
		fields := map[string]interface{}{
			"is_anomalous": r.IsAnomalous,
		}
		if r.RawValue != nil {
			fields["raw_value"] = *r.RawValue
		}
		if r.CorrectedValue != nil {
			fields["corrected_value"] = *r.CorrectedValue
		}
		if r.DailyAvg != nil {
			fields["daily_avg"] = *r.DailyAvg
		}
		if r.RollingAvg7d != nil {
			fields["rolling_avg_7d"] = *r.RollingAvg7d
		}

		point := influxdb2.NewPoint(
			s.config.Measurement,
			map[string]string{
				"sensor_id":    r.SensorID,
				"reading_type": string(r.ReadingType),
				"partition":    partition,
				"source_file":  r.SourceFile,
			},
			fields,
			r.Timestamp,
		)
		points = append(points, point)
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()
	if err := s.writeAPI.WritePoint(ctx, points...); err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"INFLUXDB_WRITE_FAILED", "batch write to influxdb failed")
	}

	s.logger.WithFields(logrus.Fields{
		"partition": partition,
		"points":    len(points),
	}).Info("Curated batch written to influxdb")

	return nil
}
