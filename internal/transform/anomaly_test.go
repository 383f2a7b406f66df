package transform

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// corrected builds a reading whose corrected value is already set, as the
// detector runs after calibration.
func corrected(t *testing.T, sensor string, rt models.ReadingType, ts string, value float64) *models.Reading {
	t.Helper()
	r := testReading(t, sensor, rt, ts, f(value))
	r.CorrectedValue = f(value)
	return r
}

func TestAnomalyDetectorFlagsRangeViolations(t *testing.T) {
	detector, err := NewAnomalyDetector(models.DefaultRangeTable(), nil)
	require.NoError(t, err)

	outside := corrected(t, "sensor_001", models.ReadingSoilMoisture, "2024-03-10T06:00:00Z", 1.5)
	inside := corrected(t, "sensor_001", models.ReadingSoilMoisture, "2024-03-10T07:00:00Z", 0.4)
	batch := testBatch(outside, inside)

	stats := detector.Detect(batch)

	assert.True(t, outside.IsAnomalous)
	assert.False(t, inside.IsAnomalous)
	assert.Equal(t, 1, stats.RangeViolations)
	assert.Equal(t, 1, stats.Flagged)
}

func TestAnomalyDetectorRangeBoundsAreInclusive(t *testing.T) {
	detector, err := NewAnomalyDetector(models.DefaultRangeTable(), nil)
	require.NoError(t, err)

	atMin := corrected(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", -10.0)
	atMax := corrected(t, "sensor_001", models.ReadingTemperature, "2024-03-10T07:00:00Z", 60.0)
	batch := testBatch(atMin, atMax)

	stats := detector.Detect(batch)

	assert.False(t, atMin.IsAnomalous)
	assert.False(t, atMax.IsAnomalous)
	assert.Equal(t, 0, stats.RangeViolations)
}

func TestAnomalyDetectorFlagsStatisticalOutliers(t *testing.T) {
	detector, err := NewAnomalyDetector(models.DefaultRangeTable(), nil)
	require.NoError(t, err)

	// Twenty in-range humidity readings at 50% plus one at 100%: the outlier
	// sits about 4.5 population standard deviations from the group mean while
	// staying inside [0, 100], so only the statistical check can catch it.
	var readings []*models.Reading
	for i := 0; i < 20; i++ {
		ts := fmt.Sprintf("2024-03-10T%02d:00:00Z", i)
		readings = append(readings, corrected(t, "sensor_001", models.ReadingHumidity, ts, 50.0))
	}
	outlier := corrected(t, "sensor_001", models.ReadingHumidity, "2024-03-10T20:00:00Z", 100.0)
	readings = append(readings, outlier)

	batch := testBatch(readings...)
	stats := detector.Detect(batch)

	assert.True(t, outlier.IsAnomalous)
	assert.Equal(t, 0, stats.RangeViolations)
	assert.Equal(t, 1, stats.StatisticalOutliers)
	assert.Equal(t, 1, stats.Flagged)
	for _, r := range readings[:20] {
		assert.False(t, r.IsAnomalous)
	}
}

func TestAnomalyDetectorSkipsSmallGroups(t *testing.T) {
	detector, err := NewAnomalyDetector(models.DefaultRangeTable(), nil)
	require.NoError(t, err)

	single := corrected(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", 24.0)
	batch := testBatch(single)

	stats := detector.Detect(batch)

	assert.False(t, single.IsAnomalous)
	assert.Equal(t, 1, stats.SkippedGroups)
	assert.Equal(t, 0, stats.StatisticalOutliers)
}

func TestAnomalyDetectorSkipsZeroVarianceGroups(t *testing.T) {
	detector, err := NewAnomalyDetector(models.DefaultRangeTable(), nil)
	require.NoError(t, err)

	batch := testBatch(
		corrected(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", 24.0),
		corrected(t, "sensor_001", models.ReadingTemperature, "2024-03-10T07:00:00Z", 24.0),
		corrected(t, "sensor_001", models.ReadingTemperature, "2024-03-10T08:00:00Z", 24.0),
	)

	stats := detector.Detect(batch)

	assert.Equal(t, 1, stats.SkippedGroups)
	assert.Equal(t, 0, stats.Flagged)
}

func TestAnomalyDetectorGroupsBySensorAndType(t *testing.T) {
	detector, err := NewAnomalyDetector(models.DefaultRangeTable(), nil)
	require.NoError(t, err)

	// sensor_002 runs hot but is internally consistent. Its statistics must
	// come from its own peer group, never pooled with sensor_001.
	var readings []*models.Reading
	for i := 0; i < 10; i++ {
		ts := fmt.Sprintf("2024-03-10T%02d:00:00Z", i)
		readings = append(readings,
			corrected(t, "sensor_001", models.ReadingTemperature, ts, 20.0+float64(i%3)),
			corrected(t, "sensor_002", models.ReadingTemperature, ts, 45.0+float64(i%3)),
		)
	}

	batch := testBatch(readings...)
	stats := detector.Detect(batch)

	assert.Equal(t, 0, stats.Flagged)
}

func TestAnomalyDetectorIgnoresNullCorrectedValues(t *testing.T) {
	detector, err := NewAnomalyDetector(models.DefaultRangeTable(), nil)
	require.NoError(t, err)

	null := testReading(t, "sensor_001", models.ReadingTemperature, "2024-03-10T06:00:00Z", nil)
	batch := testBatch(
		null,
		corrected(t, "sensor_001", models.ReadingTemperature, "2024-03-10T07:00:00Z", 24.0),
	)

	stats := detector.Detect(batch)

	assert.False(t, null.IsAnomalous)
	// One non-null value is below the minimum group size for the z-score.
	assert.Equal(t, 1, stats.SkippedGroups)
	assert.Equal(t, 0, stats.Flagged)
}

func TestAnomalyDetectorRejectsIncompleteRangeTable(t *testing.T) {
	table := models.DefaultRangeTable()
	delete(table, models.ReadingLightIntensity)

	_, err := NewAnomalyDetector(table, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "RANGE_RULE_MISSING")
	assert.ErrorIs(t, err, apperrors.ErrRangeRuleMissing)
}
