package interfaces

import (
	"context"

	"github.com/agrisense/agridata/pkg/models"
)

// CuratedSink receives the cleaned, calibrated and enriched batch of one
// pipeline run together with its partition key. The sink decides physical
// layout and compression; the engine treats it as opaque.
type CuratedSink interface {
	// Connect establishes the connection to the sink backend.
	Connect(ctx context.Context) error

	// WriteBatch persists one curated batch under the given partition key.
	WriteBatch(ctx context.Context, partition string, batch *models.Batch) error

	// Close releases backend resources.
	Close() error
}

// ReportSink persists the four-table quality report of one run. Reports are
// write-once; sinks never merge a report with prior runs.
type ReportSink interface {
	WriteReport(ctx context.Context, report *models.QualityReport) error
	Close() error
}

// CheckpointStore tracks which raw files have already been processed so
// ingestion can skip them on subsequent invocations.
type CheckpointStore interface {
	// Contains reports whether the named file was already processed.
	Contains(ctx context.Context, name string) (bool, error)

	// Mark records the named file as processed.
	Mark(ctx context.Context, name string) error

	// List returns all processed file names.
	List(ctx context.Context) ([]string, error)

	// Clear forgets all processed files.
	Clear(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
