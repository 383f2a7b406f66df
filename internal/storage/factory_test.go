package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agrisense/agridata/internal/config"
	apperrors "github.com/agrisense/agridata/pkg/errors"
)

func TestNewCuratedSinkFileBackend(t *testing.T) {
	sink, err := NewCuratedSink(&config.SinkConfig{
		Type: "file",
		File: config.FileSinkConfig{BasePath: t.TempDir(), Format: "csv"},
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, sink)
	assert.NoError(t, sink.Close())
}

func TestNewCuratedSinkUnknownType(t *testing.T) {
	_, err := NewCuratedSink(&config.SinkConfig{Type: "tape"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_SINK")
	assert.ErrorIs(t, err, apperrors.ErrUnknownBackend)
}

func TestNewReportSinkCSVBackend(t *testing.T) {
	sink, err := NewReportSink(&config.ReportConfig{
		Type: "csv",
		Path: filepath.Join(t.TempDir(), "report.csv"),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, sink)
	assert.NoError(t, sink.Close())
}

func TestNewReportSinkUnknownType(t *testing.T) {
	_, err := NewReportSink(&config.ReportConfig{Type: "xml"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_REPORT_SINK")
	assert.ErrorIs(t, err, apperrors.ErrUnknownBackend)
}

func TestNewCheckpointStoreFileBackend(t *testing.T) {
	store, err := NewCheckpointStore(&config.CheckpointConfig{
		Type: "file",
		Path: filepath.Join(t.TempDir(), "checkpoint.json"),
	}, nil)
	require.NoError(t, err)
	require.NotNil(t, store)
	assert.NoError(t, store.Close())
}

func TestNewCheckpointStoreUnknownType(t *testing.T) {
	_, err := NewCheckpointStore(&config.CheckpointConfig{Type: "zookeeper"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UNKNOWN_CHECKPOINT")
	assert.ErrorIs(t, err, apperrors.ErrUnknownBackend)
}
