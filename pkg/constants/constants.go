package constants

import "time"

// Application metadata
const (
	AppName    = "agridata"
	AppVersion = "0.1.0"
	EnvPrefix  = "AGRIDATA"
)

// Canonical timestamp handling. All timestamps are normalized to a fixed
// UTC+5:30 offset and rendered as ISO 8601 for persistence.
const (
	CanonicalZoneName   = "UTC+05:30"
	CanonicalZoneOffset = 5*60*60 + 30*60 // seconds east of UTC
	ISOTimestampLayout  = "2006-01-02T15:04:05-07:00"
	DateLayout          = "2006-01-02"
)

// Sink backend types
const (
	SinkTypeFile     = "file"
	SinkTypeInfluxDB = "influxdb"
	SinkTypeS3       = "s3"

	ReportSinkTypeCSV      = "csv"
	ReportSinkTypePostgres = "postgres"

	CheckpointTypeFile  = "file"
	CheckpointTypeRedis = "redis"
)

// Output formats for file-based sinks
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

// Anomaly detection
const (
	// ZScoreThreshold is the number of population standard deviations past
	// which a value is a statistical outlier within its peer group.
	ZScoreThreshold = 3.0

	// MinGroupSizeForZScore is the minimum number of non-null observations a
	// peer group needs before a z-score is defined.
	MinGroupSizeForZScore = 2
)

// Enrichment
const (
	// RollingWindowDays is the trailing window, in calendar days inclusive of
	// the current record's day, for the rolling average.
	RollingWindowDays = 7
)

// Server defaults
const (
	DefaultHTTPPort       = 8080
	DefaultReadTimeout    = 30 * time.Second
	DefaultWriteTimeout   = 60 * time.Second
	DefaultShutdownPeriod = 10 * time.Second
	MetricsPath           = "/metrics"
	HealthPath            = "/health"
	APIPrefix             = "/api/v1"
)
