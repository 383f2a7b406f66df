package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/agrisense/agridata/pkg/constants"
	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// Config is the full pipeline configuration. Calibration and range rule
// tables are explicit values here and are passed into component constructors,
// never read from package-level state.
type Config struct {
	LogLevel    string                     `mapstructure:"log_level"`
	Ingestion   IngestionConfig            `mapstructure:"ingestion"`
	Calibration map[string]CalibrationRule `mapstructure:"calibration"`
	Ranges      map[string]RangeRule       `mapstructure:"ranges"`
	Sink        SinkConfig                 `mapstructure:"sink"`
	Report      ReportConfig               `mapstructure:"report"`
	Server      ServerConfig               `mapstructure:"server"`
	Metrics     MetricsConfig              `mapstructure:"metrics"`
}

// CalibrationRule mirrors models.CalibrationRule for config unmarshaling.
type CalibrationRule struct {
	Multiplier float64 `mapstructure:"multiplier"`
	Offset     float64 `mapstructure:"offset"`
}

// RangeRule mirrors models.RangeRule for config unmarshaling.
type RangeRule struct {
	Min float64 `mapstructure:"min"`
	Max float64 `mapstructure:"max"`
}

// IngestionConfig configures raw file discovery and checkpointing.
type IngestionConfig struct {
	RawDir     string           `mapstructure:"raw_dir"`
	Checkpoint CheckpointConfig `mapstructure:"checkpoint"`
}

// CheckpointConfig selects and configures the checkpoint store backend.
type CheckpointConfig struct {
	Type  string      `mapstructure:"type"` // "file" or "redis"
	Path  string      `mapstructure:"path"`
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the Redis checkpoint backend.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// SinkConfig selects and configures the curated data sink.
type SinkConfig struct {
	Type     string         `mapstructure:"type"` // "file", "influxdb" or "s3"
	File     FileSinkConfig `mapstructure:"file"`
	InfluxDB InfluxDBConfig `mapstructure:"influxdb"`
	S3       S3Config       `mapstructure:"s3"`
}

// FileSinkConfig configures the partitioned local directory sink.
type FileSinkConfig struct {
	BasePath          string `mapstructure:"base_path"`
	Format            string `mapstructure:"format"` // "csv" or "json"
	PartitionBySensor bool   `mapstructure:"partition_by_sensor"`
}

// InfluxDBConfig configures the InfluxDB curated sink.
type InfluxDBConfig struct {
	URL          string        `mapstructure:"url"`
	Token        string        `mapstructure:"token"`
	Organization string        `mapstructure:"organization"`
	Bucket       string        `mapstructure:"bucket"`
	Measurement  string        `mapstructure:"measurement"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// S3Config configures the S3 curated sink.
type S3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Prefix          string `mapstructure:"prefix"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	ForcePathStyle  bool   `mapstructure:"force_path_style"`
	UseCompression  bool   `mapstructure:"use_compression"`
}

// ReportConfig selects and configures the quality report sink.
type ReportConfig struct {
	Type     string         `mapstructure:"type"` // "csv" or "postgres"
	Path     string         `mapstructure:"path"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig configures the PostgreSQL report sink.
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// MetricsConfig configures Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// Load reads configuration from the given file (optional), environment
// variables with the AGRIDATA prefix, and built-in defaults, in that order of
// precedence.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.SetConfigName("agridata")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(constants.EnvPrefix)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errors.WrapError(err, errors.ErrorTypeConfiguration,
				"CONFIG_READ_FAILED", "error reading config file")
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeConfiguration,
			"CONFIG_UNMARSHAL_FAILED", "error unmarshaling config")
	}

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("ingestion.raw_dir", "data/raw")
	v.SetDefault("ingestion.checkpoint.type", constants.CheckpointTypeFile)
	v.SetDefault("ingestion.checkpoint.path", "data/.checkpoint.json")
	v.SetDefault("ingestion.checkpoint.redis.key_prefix", "agridata")

	for rt, rule := range models.DefaultCalibrationTable() {
		v.SetDefault(fmt.Sprintf("calibration.%s.multiplier", rt), rule.Multiplier)
		v.SetDefault(fmt.Sprintf("calibration.%s.offset", rt), rule.Offset)
	}
	for rt, rule := range models.DefaultRangeTable() {
		v.SetDefault(fmt.Sprintf("ranges.%s.min", rt), rule.Min)
		v.SetDefault(fmt.Sprintf("ranges.%s.max", rt), rule.Max)
	}

	v.SetDefault("sink.type", constants.SinkTypeFile)
	v.SetDefault("sink.file.base_path", "data/processed")
	v.SetDefault("sink.file.format", constants.FormatCSV)
	v.SetDefault("sink.file.partition_by_sensor", true)
	v.SetDefault("sink.influxdb.measurement", "sensor_reading")
	v.SetDefault("sink.influxdb.timeout", 30*time.Second)

	v.SetDefault("report.type", constants.ReportSinkTypeCSV)
	v.SetDefault("report.path", "data/data_quality_report.csv")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", constants.DefaultHTTPPort)
	v.SetDefault("server.read_timeout", constants.DefaultReadTimeout)
	v.SetDefault("server.write_timeout", constants.DefaultWriteTimeout)

	v.SetDefault("metrics.enabled", true)
}

// CalibrationTable converts the configured calibration entries into the
// model table, rejecting unknown reading types.
func (c *Config) CalibrationTable() (models.CalibrationTable, error) {
	table := models.CalibrationTable{}
	for name, rule := range c.Calibration {
		rt := models.ReadingType(name)
		if !rt.IsValid() {
			return nil, errors.NewConfigurationError("UNKNOWN_READING_TYPE",
				fmt.Sprintf("calibration rule for unknown reading type %q", name))
		}
		table[rt] = models.CalibrationRule{Multiplier: rule.Multiplier, Offset: rule.Offset}
	}
	return table, nil
}

// RangeTable converts the configured range entries into the model table,
// rejecting unknown reading types.
func (c *Config) RangeTable() (models.RangeTable, error) {
	table := models.RangeTable{}
	for name, rule := range c.Ranges {
		rt := models.ReadingType(name)
		if !rt.IsValid() {
			return nil, errors.NewConfigurationError("UNKNOWN_READING_TYPE",
				fmt.Sprintf("range rule for unknown reading type %q", name))
		}
		table[rt] = models.RangeRule{Min: rule.Min, Max: rule.Max}
	}
	return table, nil
}
