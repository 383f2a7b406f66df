package ingestion

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/interfaces"
	"github.com/agrisense/agridata/pkg/models"
)

// Reader discovers raw batch files in a source directory and parses them
// into in-memory raw batches. Already-processed files are skipped via the
// checkpoint store. One file holds one day's readings.
type Reader struct {
	logger     *logrus.Logger
	rawDir     string
	checkpoint interfaces.CheckpointStore
}

// NewReader creates a reader over the given directory.
func NewReader(rawDir string, checkpoint interfaces.CheckpointStore, logger *logrus.Logger) *Reader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Reader{logger: logger, rawDir: rawDir, checkpoint: checkpoint}
}

// ListNew returns the raw files not yet recorded in the checkpoint store,
// sorted by name so day files process in date order.
func (r *Reader) ListNew(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.rawDir)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIngestion,
			"RAW_DIR_UNREADABLE", "cannot list raw directory")
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		switch strings.ToLower(filepath.Ext(name)) {
		case ".csv", ".json", ".jsonl":
		default:
			continue
		}
		processed, err := r.checkpoint.Contains(ctx, name)
		if err != nil {
			return nil, err
		}
		if processed {
			r.logger.WithField("file", name).Info("Skipping already processed file")
			continue
		}
		files = append(files, name)
	}
	sort.Strings(files)
	return files, nil
}

// ReadFile parses one raw file into a batch. Row-level parse problems do not
// fail the read: malformed values are carried through untyped so schema
// validation can count them as rejections.
func (r *Reader) ReadFile(ctx context.Context, name string) (*models.RawBatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := filepath.Join(r.rawDir, name)
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIngestion,
			"FILE_UNREADABLE", "cannot open raw file").WithContext("file", name)
	}
	defer f.Close()

	var records []*models.RawRecord
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		records, err = parseCSV(f)
	default:
		records, err = parseJSONLines(f)
	}
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrorTypeIngestion,
			"FILE_MALFORMED", "cannot parse raw file").WithContext("file", name)
	}

	batch := &models.RawBatch{
		SourceFile: name,
		RowsRead:   len(records),
		Records:    records,
	}

	r.logger.WithFields(logrus.Fields{
		"file":      name,
		"rows_read": batch.RowsRead,
	}).Info("Raw file ingested")

	return batch, nil
}

// parseCSV expects a header of sensor_id,timestamp,reading_type,value in any
// column order. Empty value cells become null; non-numeric cells stay as
// strings and fail schema validation downstream.
func parseCSV(reader io.Reader) ([]*models.RawRecord, error) {
	cr := csv.NewReader(reader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, err
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(row []string, name string) string {
		idx, ok := col[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var records []*models.RawRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec := &models.RawRecord{
			SensorID:    field(row, "sensor_id"),
			Timestamp:   field(row, "timestamp"),
			ReadingType: field(row, "reading_type"),
		}
		if raw := field(row, "value"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				rec.Value = v
			} else {
				rec.Value = raw
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// parseJSONLines reads one JSON object per line.
func parseJSONLines(reader io.Reader) ([]*models.RawRecord, error) {
	var records []*models.RawRecord
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		rec := &models.RawRecord{}
		if err := json.Unmarshal([]byte(line), rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, scanner.Err()
}
