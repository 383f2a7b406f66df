package models

import (
	"fmt"
	"time"
)

// ReadingType identifies the physical quantity a sensor reports.
type ReadingType string

const (
	ReadingTemperature    ReadingType = "temperature"
	ReadingHumidity       ReadingType = "humidity"
	ReadingSoilMoisture   ReadingType = "soil_moisture"
	ReadingLightIntensity ReadingType = "light_intensity"
	ReadingBatteryLevel   ReadingType = "battery_level"
)

// AllReadingTypes lists every reading type the pipeline understands, in a
// stable order used for report output.
var AllReadingTypes = []ReadingType{
	ReadingTemperature,
	ReadingHumidity,
	ReadingSoilMoisture,
	ReadingLightIntensity,
	ReadingBatteryLevel,
}

// IsValid reports whether t is one of the known reading types.
func (t ReadingType) IsValid() bool {
	switch t {
	case ReadingTemperature, ReadingHumidity, ReadingSoilMoisture,
		ReadingLightIntensity, ReadingBatteryLevel:
		return true
	}
	return false
}

// RawRecord is a single row as parsed from a raw input file, before schema
// validation. Value is untyped because raw files carry arbitrary column types.
type RawRecord struct {
	SensorID    string      `json:"sensor_id"`
	Timestamp   string      `json:"timestamp"`
	ReadingType string      `json:"reading_type"`
	Value       interface{} `json:"value"`
	Valid       bool        `json:"valid"`
}

// RawBatch is the full content of one raw input file plus ingestion metadata.
type RawBatch struct {
	SourceFile string       `json:"source_file"`
	RowsRead   int          `json:"rows_read"`
	Records    []*RawRecord `json:"records"`
}

// Reading is a validated sensor observation flowing through the pipeline.
// Nullable numeric columns are pointers; nil means the value is absent.
type Reading struct {
	SensorID     string      `json:"sensor_id"`
	ReadingType  ReadingType `json:"reading_type"`
	Timestamp    time.Time   `json:"timestamp"`
	TimestampISO string      `json:"timestamp_iso,omitempty"`
	RawValue     *float64    `json:"raw_value"`
	// RawMissing records the pre-imputation null state of RawValue so the
	// quality profiler can report missingness after the cleaner has filled
	// the value in.
	RawMissing     bool     `json:"raw_missing"`
	CorrectedValue *float64 `json:"corrected_value"`
	IsAnomalous    bool     `json:"is_anomalous"`
	DailyAvg       *float64 `json:"daily_avg"`
	RollingAvg7d   *float64 `json:"rolling_avg_7d"`
	SourceFile     string   `json:"source_file,omitempty"`
}

// Key returns the natural key of a reading: sensor, type and instant.
func (r *Reading) Key() string {
	return fmt.Sprintf("%s|%s|%d", r.SensorID, r.ReadingType, r.Timestamp.UnixNano())
}

// GroupKey returns the peer-group key (sensor and type) used for imputation,
// statistical outlier detection and rolling aggregates.
func (r *Reading) GroupKey() string {
	return fmt.Sprintf("%s|%s", r.SensorID, r.ReadingType)
}

// Batch holds the readings of one pipeline run after validation.
type Batch struct {
	SourceFile string     `json:"source_file"`
	RowsRead   int        `json:"rows_read"`
	Rejected   int        `json:"rejected"`
	Readings   []*Reading `json:"readings"`
}

// PartitionKey returns the batch-level partition used by curated sinks: the
// calendar date (canonical offset) of the earliest reading.
func (b *Batch) PartitionKey() string {
	if len(b.Readings) == 0 {
		return ""
	}
	min := b.Readings[0].Timestamp
	for _, r := range b.Readings[1:] {
		if r.Timestamp.Before(min) {
			min = r.Timestamp
		}
	}
	return min.Format("2006-01-02")
}

// Float64Ptr returns a pointer to v. Helper for building readings in tests
// and ingestion code.
func Float64Ptr(v float64) *float64 {
	return &v
}
