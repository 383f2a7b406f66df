package transform

import (
	"testing"
	"time"

	"github.com/agrisense/agridata/pkg/models"
)

// testReading builds a reading fixture from an RFC 3339 timestamp. A nil
// value models a missing raw observation.
func testReading(t *testing.T, sensor string, rt models.ReadingType, ts string, value *float64) *models.Reading {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		t.Fatalf("bad fixture timestamp %q: %v", ts, err)
	}
	return &models.Reading{
		SensorID:    sensor,
		ReadingType: rt,
		Timestamp:   parsed,
		RawValue:    value,
	}
}

// testBatch wraps readings into a batch fixture.
func testBatch(readings ...*models.Reading) *models.Batch {
	return &models.Batch{
		SourceFile: "2024-03-10.csv",
		RowsRead:   len(readings),
		Readings:   readings,
	}
}

func f(v float64) *float64 {
	return models.Float64Ptr(v)
}
