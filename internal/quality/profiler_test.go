package quality

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/agridata/pkg/models"
)

func reading(t *testing.T, sensor string, rt models.ReadingType, ts string) *models.Reading {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t.Fatalf("bad fixture timestamp %q: %v", ts, err)
	}
	return &models.Reading{
		SensorID:    sensor,
		ReadingType: rt,
		Timestamp:   parsed,
		RawValue:    models.Float64Ptr(1.0),
	}
}

func findGap(t *testing.T, gaps []models.GapEntry, sensor string, rt models.ReadingType) models.GapEntry {
	t.Helper()
	for _, g := range gaps {
		if g.SensorID == sensor && g.ReadingType == rt {
			return g
		}
	}
	t.Fatalf("no gap entry for %s/%s", sensor, rt)
	return models.GapEntry{}
}

func TestProfilerRangeChecksEchoActiveRules(t *testing.T) {
	profiler := NewProfiler(models.DefaultRangeTable(), nil)

	report := profiler.Profile(&models.Batch{SourceFile: "2024-03-10.csv"})

	require.Len(t, report.RangeChecks, 5)
	assert.Equal(t, models.ReadingTemperature, report.RangeChecks[0].ReadingType)
	assert.InDelta(t, -10.0, report.RangeChecks[0].Min, 1e-9)
	assert.InDelta(t, 60.0, report.RangeChecks[0].Max, 1e-9)
	assert.Equal(t, models.ReadingBatteryLevel, report.RangeChecks[4].ReadingType)
}

func TestProfilerMissingnessReflectsPreImputationState(t *testing.T) {
	profiler := NewProfiler(models.DefaultRangeTable(), nil)

	imputed := reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00+05:30")
	imputed.RawMissing = true // cleaner filled the value in
	observed := reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T07:00:00+05:30")

	report := profiler.Profile(&models.Batch{
		SourceFile: "2024-03-10.csv",
		Readings:   []*models.Reading{imputed, observed},
	})

	require.Len(t, report.Missing, 1)
	entry := report.Missing[0]
	assert.Equal(t, models.ReadingTemperature, entry.ReadingType)
	assert.Equal(t, 2, entry.TotalCount)
	assert.Equal(t, 1, entry.MissingCount)
	assert.InDelta(t, 0.5, entry.MissingFraction, 1e-9)

	// The post-imputation profile sees no nulls: the value was filled in.
	require.Len(t, report.Profile, 1)
	assert.Equal(t, 0, report.Profile[0].NullCount)
	assert.InDelta(t, 0.0, report.Profile[0].NullFraction, 1e-9)
}

func TestProfilerNullProfileCountsRemainingNulls(t *testing.T) {
	profiler := NewProfiler(models.DefaultRangeTable(), nil)

	stillNull := reading(t, "sensor_001", models.ReadingSoilMoisture, "2024-03-10T06:00:00+05:30")
	stillNull.RawValue = nil
	stillNull.RawMissing = true

	report := profiler.Profile(&models.Batch{
		SourceFile: "2024-03-10.csv",
		Readings:   []*models.Reading{stillNull},
	})

	require.Len(t, report.Profile, 1)
	assert.Equal(t, 1, report.Profile[0].NullCount)
	assert.InDelta(t, 1.0, report.Profile[0].NullFraction, 1e-9)
}

func TestProfilerGapAnalysisCountsMissingHourSlots(t *testing.T) {
	profiler := NewProfiler(models.DefaultRangeTable(), nil)

	// sensor_002 stretches the batch window to ten hourly slots (00..09);
	// sensor_001 reports temperature only at hours 0 and 3.
	report := profiler.Profile(&models.Batch{
		SourceFile: "2024-03-10.csv",
		Readings: []*models.Reading{
			reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T00:15:00+05:30"),
			reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T03:40:00+05:30"),
			reading(t, "sensor_002", models.ReadingHumidity, "2024-03-10T09:10:00+05:30"),
		},
	})

	gap := findGap(t, report.Gaps, "sensor_001", models.ReadingTemperature)
	assert.Equal(t, 10, gap.ExpectedHourCount)
	assert.Equal(t, 2, gap.ActualHourCount)
	assert.Equal(t, 8, gap.MissingHourCount)
}

func TestProfilerGapAnalysisCoversSensorsWithoutObservations(t *testing.T) {
	profiler := NewProfiler(models.DefaultRangeTable(), nil)

	report := profiler.Profile(&models.Batch{
		SourceFile: "2024-03-10.csv",
		Readings: []*models.Reading{
			reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T00:00:00+05:30"),
			reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T04:00:00+05:30"),
		},
	})

	// Every (sensor, reading type) pair appears, including pairs the sensor
	// never reported: those get the full expected window with zero actuals.
	require.Len(t, report.Gaps, len(models.AllReadingTypes))

	battery := findGap(t, report.Gaps, "sensor_001", models.ReadingBatteryLevel)
	assert.Equal(t, 5, battery.ExpectedHourCount)
	assert.Equal(t, 0, battery.ActualHourCount)
	assert.Equal(t, 5, battery.MissingHourCount)
}

func TestProfilerGapAnalysisCollapsesSameHourObservations(t *testing.T) {
	profiler := NewProfiler(models.DefaultRangeTable(), nil)

	report := profiler.Profile(&models.Batch{
		SourceFile: "2024-03-10.csv",
		Readings: []*models.Reading{
			reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:05:00+05:30"),
			reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:55:00+05:30"),
		},
	})

	gap := findGap(t, report.Gaps, "sensor_001", models.ReadingTemperature)
	assert.Equal(t, 1, gap.ExpectedHourCount)
	assert.Equal(t, 1, gap.ActualHourCount)
	assert.Equal(t, 0, gap.MissingHourCount)
}

func TestProfilerGapEntriesAreSortedBySensorThenType(t *testing.T) {
	profiler := NewProfiler(models.DefaultRangeTable(), nil)

	report := profiler.Profile(&models.Batch{
		SourceFile: "2024-03-10.csv",
		Readings: []*models.Reading{
			reading(t, "sensor_002", models.ReadingHumidity, "2024-03-10T06:00:00+05:30"),
			reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00+05:30"),
		},
	})

	require.Len(t, report.Gaps, 2*len(models.AllReadingTypes))
	assert.Equal(t, "sensor_001", report.Gaps[0].SensorID)
	assert.Equal(t, models.ReadingTemperature, report.Gaps[0].ReadingType)
	assert.Equal(t, "sensor_002", report.Gaps[len(models.AllReadingTypes)].SensorID)
}

func TestProfilerReportMetadata(t *testing.T) {
	profiler := NewProfiler(models.DefaultRangeTable(), nil)

	report := profiler.Profile(&models.Batch{
		SourceFile: "2024-03-10.csv",
		RowsRead:   3,
		Rejected:   1,
		Readings: []*models.Reading{
			reading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00+05:30"),
			reading(t, "sensor_001", models.ReadingHumidity, "2024-03-10T06:00:00+05:30"),
		},
	})

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "2024-03-10.csv", report.SourceFile)
	assert.Equal(t, 2, report.RecordsProfiled)
	assert.Equal(t, 1, report.RecordsRejected)
	assert.False(t, report.GeneratedAt.IsZero())
}
