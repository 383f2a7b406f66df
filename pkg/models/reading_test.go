package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestReadingKeys(t *testing.T) {
	ts := time.Date(2024, 3, 10, 6, 0, 0, 0, time.UTC)
	r := &Reading{SensorID: "sensor_001", ReadingType: ReadingTemperature, Timestamp: ts}

	assert.Equal(t, "sensor_001|temperature", r.GroupKey())

	same := &Reading{SensorID: "sensor_001", ReadingType: ReadingTemperature, Timestamp: ts}
	assert.Equal(t, r.Key(), same.Key())

	later := &Reading{SensorID: "sensor_001", ReadingType: ReadingTemperature, Timestamp: ts.Add(time.Second)}
	assert.NotEqual(t, r.Key(), later.Key())

	// The natural key compares instants, not rendered offsets.
	shifted := &Reading{SensorID: "sensor_001", ReadingType: ReadingTemperature,
		Timestamp: ts.In(time.FixedZone("UTC+05:30", 5*3600+1800))}
	assert.Equal(t, r.Key(), shifted.Key())
}

func TestReadingTypeIsValid(t *testing.T) {
	for _, rt := range AllReadingTypes {
		assert.True(t, rt.IsValid(), string(rt))
	}
	assert.False(t, ReadingType("wind_speed").IsValid())
	assert.False(t, ReadingType("").IsValid())
}

func TestBatchPartitionKeyUsesEarliestReading(t *testing.T) {
	zone := time.FixedZone("UTC+05:30", 5*3600+1800)
	batch := &Batch{Readings: []*Reading{
		{Timestamp: time.Date(2024, 3, 11, 9, 0, 0, 0, zone)},
		{Timestamp: time.Date(2024, 3, 10, 23, 30, 0, 0, zone)},
		{Timestamp: time.Date(2024, 3, 11, 6, 0, 0, 0, zone)},
	}}

	assert.Equal(t, "2024-03-10", batch.PartitionKey())
}

func TestBatchPartitionKeyEmptyBatch(t *testing.T) {
	assert.Equal(t, "", (&Batch{}).PartitionKey())
}

func TestRuleTableCompleteness(t *testing.T) {
	assert.Empty(t, DefaultCalibrationTable().MissingTypes())
	assert.Empty(t, DefaultRangeTable().MissingTypes())

	partial := CalibrationTable{ReadingTemperature: {Multiplier: 1.0}}
	missing := partial.MissingTypes()
	assert.Len(t, missing, 4)
	assert.NotContains(t, missing, ReadingTemperature)
}
