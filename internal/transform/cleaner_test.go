package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/agridata/pkg/models"
)

func TestCleanerDeduplicateLastWriteWins(t *testing.T) {
	cleaner := NewCleaner(nil)

	first := testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", f(24.0))
	second := testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", f(26.0))
	other := testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T07:00:00Z", f(25.0))
	batch := testBatch(first, second, other)

	stats := cleaner.Clean(batch)

	assert.Equal(t, 1, stats.Deduplicated)
	require.Len(t, batch.Readings, 2)

	// The later record survives in the position of the first occurrence.
	require.NotNil(t, batch.Readings[0].RawValue)
	assert.InDelta(t, 26.0, *batch.Readings[0].RawValue, 1e-9)
	require.NotNil(t, batch.Readings[1].RawValue)
	assert.InDelta(t, 25.0, *batch.Readings[1].RawValue, 1e-9)
}

func TestCleanerIsIdempotent(t *testing.T) {
	cleaner := NewCleaner(nil)

	batch := testBatch(
		testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", f(24.0)),
		testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", f(24.5)),
		testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T07:00:00Z", nil),
	)

	cleaner.Clean(batch)
	require.Len(t, batch.Readings, 2)
	imputed := batch.Readings[1]
	require.True(t, imputed.RawMissing)
	require.NotNil(t, imputed.RawValue)

	again := cleaner.Clean(batch)

	assert.Equal(t, 0, again.Deduplicated)
	assert.Equal(t, 0, again.Imputed)
	assert.Len(t, batch.Readings, 2)

	// The second pass sees a filled-in value; it must not erase the
	// pre-imputation null state the first pass recorded.
	assert.True(t, imputed.RawMissing)
	assert.InDelta(t, 24.5, *imputed.RawValue, 1e-9)
	assert.False(t, batch.Readings[0].RawMissing)
}

func TestCleanerForwardFillThenBackwardFill(t *testing.T) {
	cleaner := NewCleaner(nil)

	batch := testBatch(
		testReading(t, "sensor_001", models.ReadingHumidity, "2024-03-10T06:00:00Z", nil),
		testReading(t, "sensor_001", models.ReadingHumidity, "2024-03-10T07:00:00Z", f(60.0)),
		testReading(t, "sensor_001", models.ReadingHumidity, "2024-03-10T08:00:00Z", nil),
		testReading(t, "sensor_001", models.ReadingHumidity, "2024-03-10T09:00:00Z", f(64.0)),
		testReading(t, "sensor_001", models.ReadingHumidity, "2024-03-10T10:00:00Z", nil),
	)

	stats := cleaner.Clean(batch)

	assert.Equal(t, 3, stats.Imputed)
	for _, r := range batch.Readings {
		require.NotNil(t, r.RawValue, "no nulls remain after imputation")
	}

	// Leading gap backward-fills, interior and trailing gaps forward-fill.
	assert.InDelta(t, 60.0, *batch.Readings[0].RawValue, 1e-9)
	assert.InDelta(t, 60.0, *batch.Readings[2].RawValue, 1e-9)
	assert.InDelta(t, 64.0, *batch.Readings[4].RawValue, 1e-9)
}

func TestCleanerBatteryLevelUsesGroupMean(t *testing.T) {
	cleaner := NewCleaner(nil)

	batch := testBatch(
		testReading(t, "sensor_001", models.ReadingBatteryLevel, "2024-03-10T06:00:00Z", f(90.0)),
		testReading(t, "sensor_001", models.ReadingBatteryLevel, "2024-03-10T07:00:00Z", nil),
		testReading(t, "sensor_001", models.ReadingBatteryLevel, "2024-03-10T08:00:00Z", f(80.0)),
	)

	stats := cleaner.Clean(batch)

	assert.Equal(t, 1, stats.Imputed)
	require.NotNil(t, batch.Readings[1].RawValue)
	assert.InDelta(t, 85.0, *batch.Readings[1].RawValue, 1e-9)
}

func TestCleanerPreservesPreImputationNullState(t *testing.T) {
	cleaner := NewCleaner(nil)

	observed := testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", f(24.0))
	missing := testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T07:00:00Z", nil)
	batch := testBatch(observed, missing)

	cleaner.Clean(batch)

	require.NotNil(t, missing.RawValue, "missing value was imputed")
	assert.True(t, missing.RawMissing)
	assert.False(t, observed.RawMissing)
}

func TestCleanerAllNullGroupStaysNull(t *testing.T) {
	cleaner := NewCleaner(nil)

	batch := testBatch(
		testReading(t, "sensor_009", models.ReadingSoilMoisture, "2024-03-10T06:00:00Z", nil),
		testReading(t, "sensor_009", models.ReadingSoilMoisture, "2024-03-10T07:00:00Z", nil),
	)

	stats := cleaner.Clean(batch)

	assert.Equal(t, 0, stats.Imputed)
	require.Len(t, stats.AllNullGroups, 1)
	assert.Equal(t, "sensor_009|soil_moisture", stats.AllNullGroups[0])
	for _, r := range batch.Readings {
		assert.Nil(t, r.RawValue)
	}
}

func TestCleanerImputationIsGroupLocal(t *testing.T) {
	cleaner := NewCleaner(nil)

	// A humidity observation must never fill a temperature gap, and sensor
	// boundaries are never crossed.
	batch := testBatch(
		testReading(t, "sensor_001", models.ReadingHumidity, "2024-03-10T06:00:00Z", f(60.0)),
		testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", nil),
		testReading(t, "sensor_002", models.ReadingTemperature, "2024-03-10T06:00:00Z", f(22.0)),
	)

	cleaner.Clean(batch)

	assert.Nil(t, batch.Readings[1].RawValue)
}
