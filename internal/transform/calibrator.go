package transform

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// Calibrator applies the per-reading-type linear correction
// corrected = raw*multiplier + offset. It is stateless and deterministic;
// null raw values stay null.
type Calibrator struct {
	logger *logrus.Logger
	table  models.CalibrationTable
}

// NewCalibrator creates a calibrator from an explicit rule table. The table
// must cover every known reading type; an incomplete table is a fatal
// configuration error, not a per-record skip.
func NewCalibrator(table models.CalibrationTable, logger *logrus.Logger) (*Calibrator, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if missing := table.MissingTypes(); len(missing) > 0 {
		return nil, errors.WrapError(errors.ErrCalibrationRuleMissing, errors.ErrorTypeConfiguration,
			"CALIBRATION_RULE_MISSING", fmt.Sprintf("no calibration rule for reading types %v", missing))
	}
	return &Calibrator{logger: logger, table: table}, nil
}

// Apply computes the corrected value for every reading with a non-null raw
// value.
func (c *Calibrator) Apply(batch *models.Batch) {
	calibrated := 0
	for _, r := range batch.Readings {
		if r.RawValue == nil {
			continue
		}
		rule := c.table[r.ReadingType]
		r.CorrectedValue = models.Float64Ptr(*r.RawValue*rule.Multiplier + rule.Offset)
		calibrated++
	}
	c.logger.WithFields(logrus.Fields{
		"source_file": batch.SourceFile,
		"calibrated":  calibrated,
	}).Debug("Calibration applied")
}
