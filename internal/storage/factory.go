package storage

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/internal/config"
	"github.com/agrisense/agridata/internal/ingestion"
	filesink "github.com/agrisense/agridata/internal/storage/implementations/file"
	"github.com/agrisense/agridata/internal/storage/implementations/influxdb"
	"github.com/agrisense/agridata/internal/storage/implementations/postgres"
	"github.com/agrisense/agridata/internal/storage/implementations/s3"
	"github.com/agrisense/agridata/pkg/constants"
	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/interfaces"
)

// NewCuratedSink builds the configured curated data sink.
func NewCuratedSink(cfg *config.SinkConfig, logger *logrus.Logger) (interfaces.CuratedSink, error) {
	switch cfg.Type {
	case constants.SinkTypeFile:
		return filesink.NewSink(&filesink.SinkConfig{
			BasePath:          cfg.File.BasePath,
			Format:            cfg.File.Format,
			PartitionBySensor: cfg.File.PartitionBySensor,
		}, logger)
	case constants.SinkTypeInfluxDB:
		return influxdb.NewSink(&influxdb.Config{
			URL:          cfg.InfluxDB.URL,
			Token:        cfg.InfluxDB.Token,
			Organization: cfg.InfluxDB.Organization,
			Bucket:       cfg.InfluxDB.Bucket,
			Measurement:  cfg.InfluxDB.Measurement,
			Timeout:      cfg.InfluxDB.Timeout,
		}, logger)
	case constants.SinkTypeS3:
		return s3.NewSink(&s3.Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Prefix:          cfg.S3.Prefix,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			ForcePathStyle:  cfg.S3.ForcePathStyle,
			UseCompression:  cfg.S3.UseCompression,
		}, logger)
	default:
		return nil, errors.WrapError(errors.ErrUnknownBackend, errors.ErrorTypeConfiguration,
			"UNKNOWN_SINK", fmt.Sprintf("unknown curated sink type %q", cfg.Type))
	}
}

// NewReportSink builds the configured quality report sink.
func NewReportSink(cfg *config.ReportConfig, logger *logrus.Logger) (interfaces.ReportSink, error) {
	switch cfg.Type {
	case constants.ReportSinkTypeCSV:
		return filesink.NewReportWriter(cfg.Path, logger)
	case constants.ReportSinkTypePostgres:
		return postgres.NewReportStore(cfg.Postgres.DSN, logger)
	default:
		return nil, errors.WrapError(errors.ErrUnknownBackend, errors.ErrorTypeConfiguration,
			"UNKNOWN_REPORT_SINK", fmt.Sprintf("unknown report sink type %q", cfg.Type))
	}
}

// NewCheckpointStore builds the configured checkpoint store.
func NewCheckpointStore(cfg *config.CheckpointConfig, logger *logrus.Logger) (interfaces.CheckpointStore, error) {
	switch cfg.Type {
	case constants.CheckpointTypeFile:
		return ingestion.NewFileCheckpoint(cfg.Path, logger), nil
	case constants.CheckpointTypeRedis:
		return ingestion.NewRedisCheckpoint(&ingestion.RedisCheckpointConfig{
			Addr:        cfg.Redis.Addr,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			KeyPrefix:   cfg.Redis.KeyPrefix,
			DialTimeout: cfg.Redis.DialTimeout,
		}, logger)
	default:
		return nil, errors.WrapError(errors.ErrUnknownBackend, errors.ErrorTypeConfiguration,
			"UNKNOWN_CHECKPOINT", fmt.Sprintf("unknown checkpoint store type %q", cfg.Type))
	}
}
