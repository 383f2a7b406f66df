package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRawFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestReaderParsesCSV(t *testing.T) {
	dir := t.TempDir()
	writeRawFile(t, dir, "2024-03-10.csv",
		"sensor_id,timestamp,reading_type,value\n"+
			"sensor_001,2024-03-10T06:00:00Z,temperature,24.5\n"+
			"sensor_001,2024-03-10T06:00:00Z,humidity,\n"+
			"sensor_002,2024-03-10T06:00:00Z,soil_moisture,not-a-number\n")

	reader := NewReader(dir, nil, nil)
	batch, err := reader.ReadFile(context.Background(), "2024-03-10.csv")
	require.NoError(t, err)

	assert.Equal(t, "2024-03-10.csv", batch.SourceFile)
	assert.Equal(t, 3, batch.RowsRead)
	require.Len(t, batch.Records, 3)

	assert.Equal(t, "sensor_001", batch.Records[0].SensorID)
	assert.Equal(t, "temperature", batch.Records[0].ReadingType)
	assert.Equal(t, 24.5, batch.Records[0].Value)

	// Empty cells become null, unparseable cells stay strings so schema
	// validation can reject them.
	assert.Nil(t, batch.Records[1].Value)
	assert.Equal(t, "not-a-number", batch.Records[2].Value)
}

func TestReaderParsesCSVWithReorderedColumns(t *testing.T) {
	dir := t.TempDir()
	writeRawFile(t, dir, "reordered.csv",
		"value,reading_type,sensor_id,timestamp\n"+
			"24.5,temperature,sensor_001,2024-03-10T06:00:00Z\n")

	reader := NewReader(dir, nil, nil)
	batch, err := reader.ReadFile(context.Background(), "reordered.csv")
	require.NoError(t, err)

	require.Len(t, batch.Records, 1)
	assert.Equal(t, "sensor_001", batch.Records[0].SensorID)
	assert.Equal(t, "2024-03-10T06:00:00Z", batch.Records[0].Timestamp)
	assert.Equal(t, 24.5, batch.Records[0].Value)
}

func TestReaderParsesJSONLines(t *testing.T) {
	dir := t.TempDir()
	writeRawFile(t, dir, "2024-03-10.jsonl",
		`{"sensor_id":"sensor_001","timestamp":"2024-03-10T06:00:00Z","reading_type":"temperature","value":24.5}`+"\n"+
			"\n"+ // blank lines are skipped
			`{"sensor_id":"sensor_002","timestamp":"2024-03-10T06:00:00Z","reading_type":"battery_level","value":null}`+"\n")

	reader := NewReader(dir, nil, nil)
	batch, err := reader.ReadFile(context.Background(), "2024-03-10.jsonl")
	require.NoError(t, err)

	require.Len(t, batch.Records, 2)
	assert.Equal(t, 24.5, batch.Records[0].Value)
	assert.Nil(t, batch.Records[1].Value)
}

func TestReaderReadFileMissing(t *testing.T) {
	reader := NewReader(t.TempDir(), nil, nil)

	_, err := reader.ReadFile(context.Background(), "absent.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FILE_UNREADABLE")
}

func TestReaderListNewSkipsProcessedAndForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writeRawFile(t, dir, "2024-03-11.csv", "sensor_id,timestamp,reading_type,value\n")
	writeRawFile(t, dir, "2024-03-10.csv", "sensor_id,timestamp,reading_type,value\n")
	writeRawFile(t, dir, "2024-03-12.jsonl", "")
	writeRawFile(t, dir, "notes.txt", "not a batch file")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	checkpoint := NewFileCheckpoint(filepath.Join(t.TempDir(), "checkpoint.json"), nil)
	ctx := context.Background()
	require.NoError(t, checkpoint.Mark(ctx, "2024-03-10.csv"))

	reader := NewReader(dir, checkpoint, nil)
	files, err := reader.ListNew(ctx)
	require.NoError(t, err)

	// Sorted by name; processed files, non-data extensions and directories
	// are excluded.
	assert.Equal(t, []string{"2024-03-11.csv", "2024-03-12.jsonl"}, files)
}
