package file

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/agridata/pkg/models"
)

func sampleReport() *models.QualityReport {
	return &models.QualityReport{
		ID:              "report-1",
		SourceFile:      "2024-03-10.csv",
		GeneratedAt:     time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
		RecordsProfiled: 10,
		RecordsRejected: 2,
		RangeChecks: []models.RangeCheckEntry{
			{ReadingType: models.ReadingTemperature, Min: -10, Max: 60},
		},
		Missing: []models.MissingEntry{
			{ReadingType: models.ReadingTemperature, TotalCount: 10, MissingCount: 1, MissingFraction: 0.1},
		},
		Gaps: []models.GapEntry{
			{SensorID: "sensor_001", ReadingType: models.ReadingTemperature, ExpectedHourCount: 10, ActualHourCount: 2, MissingHourCount: 8},
		},
		Profile: []models.ProfileEntry{
			{ReadingType: models.ReadingTemperature, TotalCount: 10, NullCount: 0, NullFraction: 0},
		},
	}
}

func TestReportWriterWritesSectionedCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reports", "data_quality_report.csv")
	writer, err := NewReportWriter(path, nil)
	require.NoError(t, err)

	require.NoError(t, writer.WriteReport(context.Background(), sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	for _, section := range []string{"## range_checks", "## missing", "## gaps", "## profile"} {
		assert.Contains(t, content, section)
	}

	// Section order is fixed.
	assert.Less(t,
		strings.Index(content, "## range_checks"),
		strings.Index(content, "## missing"))
	assert.Less(t,
		strings.Index(content, "## gaps"),
		strings.Index(content, "## profile"))

	assert.Contains(t, content, "temperature,-10,60")
	assert.Contains(t, content, "temperature,10,1,0.100000")
	assert.Contains(t, content, "sensor_001,temperature,10,2,8")
	assert.Contains(t, content, "temperature,10,0,0.000000")
}

func TestReportWriterReplacesPriorReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.csv")
	writer, err := NewReportWriter(path, nil)
	require.NoError(t, err)

	first := sampleReport()
	first.Gaps[0].SensorID = "sensor_zzz"
	require.NoError(t, writer.WriteReport(context.Background(), first))
	require.NoError(t, writer.WriteReport(context.Background(), sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sensor_zzz")
	assert.Contains(t, string(data), "sensor_001")
}

func TestNewReportWriterRequiresPath(t *testing.T) {
	_, err := NewReportWriter("", nil)
	assert.Error(t, err)
}
