package s3

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"path"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	awss3 "github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// Config holds configuration for the S3 curated sink.
type Config struct {
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
	Endpoint        string `json:"endpoint,omitempty"`
	AccessKeyID     string `json:"access_key_id"`
	SecretAccessKey string `json:"secret_access_key"`
	ForcePathStyle  bool   `json:"force_path_style"`
	UseCompression  bool   `json:"use_compression"`
}

// Sink uploads curated batches to S3 using the same partitioned object
// layout as the file sink, one CSV object per sensor and reading type.
type Sink struct {
	config   *Config
	s3Client *awss3.S3
	uploader *s3manager.Uploader
	logger   *logrus.Logger
}

// NewSink creates an S3 sink.
func NewSink(config *Config, logger *logrus.Logger) (*Sink, error) {
	if config == nil {
		return nil, errors.NewConfigurationError("INVALID_CONFIG", "s3 config cannot be nil")
	}
	if config.Bucket == "" {
		return nil, errors.NewConfigurationError("INVALID_CONFIG", "s3 bucket is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	awsConfig := &aws.Config{
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(config.ForcePathStyle),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(config.Endpoint)
	}
	if config.AccessKeyID != "" {
		awsConfig.Credentials = credentials.NewStaticCredentials(
			config.AccessKeyID, config.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage,
			"S3_SESSION_FAILED", "cannot create aws session")
	}

	return &Sink{
		config:   config,
		s3Client: awss3.New(sess),
		uploader: s3manager.NewUploader(sess),
		logger:   logger,
	}, nil
}

// Connect verifies the bucket is reachable.
func (s *Sink) Connect(ctx context.Context) error {
	_, err := s.s3Client.HeadBucketWithContext(ctx, &awss3.HeadBucketInput{
		Bucket: aws.String(s.config.Bucket),
	})
	if err != nil {
		return errors.WrapError(err, errors.ErrorTypeStorage,
			"S3_UNREACHABLE", "cannot reach s3 bucket").WithContext("bucket", s.config.Bucket)
	}
	s.logger.WithField("bucket", s.config.Bucket).Info("Connected to s3 sink")
	return nil
}

// Close is a no-op; sessions hold no persistent connection.
func (s *Sink) Close() error {
	return nil
}

// WriteBatch uploads one curated batch under the partition key.
func (s *Sink) WriteBatch(ctx context.Context, partition string, batch *models.Batch) error {
	if len(batch.Readings) == 0 {
		return nil
	}

	type objectKey struct {
		sensorID    string
		readingType models.ReadingType
	}
	objects := make(map[objectKey][]*models.Reading)
	for _, r := range batch.Readings {
		key := objectKey{sensorID: r.SensorID, readingType: r.ReadingType}
		objects[key] = append(objects[key], r)
	}

	uploaded := 0
	for key, readings := range objects {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := renderCSV(readings)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("%s.csv", key.readingType)
		contentEncoding := ""
		if s.config.UseCompression {
			body, err = compress(body)
			if err != nil {
				return err
			}
			name += ".gz"
			contentEncoding = "gzip"
		}

		input := &s3manager.UploadInput{
			Bucket: aws.String(s.config.Bucket),
			Key: aws.String(path.Join(s.config.Prefix, partition,
				fmt.Sprintf("sensor_id=%s", key.sensorID), name)),
			Body: bytes.NewReader(body),
		}
		if contentEncoding != "" {
			input.ContentEncoding = aws.String(contentEncoding)
		}

		if _, err := s.uploader.UploadWithContext(ctx, input); err != nil {
			return errors.WrapError(err, errors.ErrorTypeStorage,
				"S3_UPLOAD_FAILED", "object upload failed").WithContext("key", *input.Key)
		}
		uploaded++
	}

	s.logger.WithFields(logrus.Fields{
		"bucket":    s.config.Bucket,
		"partition": partition,
		"objects":   uploaded,
	}).Info("Curated batch uploaded to s3")

	return nil
}

func renderCSV(readings []*models.Reading) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"sensor_id", "reading_type", "timestamp_iso", "raw_value",
		"corrected_value", "is_anomalous", "daily_avg", "rolling_avg_7d", "source_file",
	}
	if err := w.Write(header); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage,
			"S3_ENCODE_FAILED", "cannot write csv header")
	}
	for _, r := range readings {
		row := []string{
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
		if err := w.Write(row); err != nil {
			return nil, errors.WrapError(err, errors.ErrorTypeStorage,
				"S3_ENCODE_FAILED", "cannot write csv row")
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage,
			"S3_ENCODE_FAILED", "csv flush failed")
	}
	return buf.Bytes(), nil
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write(data); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage,
			"S3_ENCODE_FAILED", "gzip write failed")
	}
	if err := gz.Close(); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeStorage,
			"S3_ENCODE_FAILED", "gzip close failed")
	}
	return buf.Bytes(), nil
}

func formatNullable(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
