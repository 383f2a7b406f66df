package models

import "time"

// QualityReport bundles the four data-quality tables produced for one
// pipeline run. A report is write-once: it reflects exactly the batch it was
// generated from and is never merged with prior runs.
type QualityReport struct {
	ID              string            `json:"id"`
	SourceFile      string            `json:"source_file"`
	GeneratedAt     time.Time         `json:"generated_at"`
	RecordsProfiled int               `json:"records_profiled"`
	RecordsRejected int               `json:"records_rejected"`
	RangeChecks     []RangeCheckEntry `json:"range_checks"`
	Missing         []MissingEntry    `json:"missing"`
	Gaps            []GapEntry        `json:"gaps"`
	Profile         []ProfileEntry    `json:"profile"`
}

// RangeCheckEntry echoes one configured range rule for audit.
type RangeCheckEntry struct {
	ReadingType ReadingType `json:"reading_type"`
	Min         float64     `json:"min"`
	Max         float64     `json:"max"`
}

// MissingEntry reports pre-imputation missingness per reading type.
type MissingEntry struct {
	ReadingType     ReadingType `json:"reading_type"`
	TotalCount      int         `json:"total_count"`
	MissingCount    int         `json:"missing_count"`
	MissingFraction float64     `json:"missing_fraction"`
}

// GapEntry reports hourly completeness for one sensor and reading type over
// the batch's first-to-last observed hour window, inclusive.
type GapEntry struct {
	SensorID          string      `json:"sensor_id"`
	ReadingType       ReadingType `json:"reading_type"`
	ExpectedHourCount int         `json:"expected_hour_count"`
	ActualHourCount   int         `json:"actual_hour_count"`
	MissingHourCount  int         `json:"missing_hour_count"`
}

// ProfileEntry reports post-imputation null fractions per reading type.
// A non-zero null fraction here means an entire peer group had no non-null
// observation to impute from.
type ProfileEntry struct {
	ReadingType  ReadingType `json:"reading_type"`
	TotalCount   int         `json:"total_count"`
	NullCount    int         `json:"null_count"`
	NullFraction float64     `json:"null_fraction"`
}
