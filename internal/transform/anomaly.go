package transform

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/agrisense/agridata/pkg/constants"
	"github.com/agrisense/agridata/pkg/errors"
	"github.com/agrisense/agridata/pkg/models"
)

// AnomalyDetector flags implausible corrected values. Two independent checks
// are OR-ed into is_anomalous:
//
//   - range check: the corrected value falls outside the configured
//     [min, max] for its reading type;
//   - statistical check: within the (sensor_id, reading_type) peer group,
//     |value-mean|/stddev exceeds the z-score threshold, using the population
//     standard deviation over the batch in scope.
//
// The statistical check is skipped for groups with fewer than two non-null
// values or zero variance, where the z-score is undefined; only the range
// check applies there. All statistics are batch-local, never streaming.
type AnomalyDetector struct {
	logger *logrus.Logger
	ranges models.RangeTable
}

// AnomalyStats summarizes detection over one batch.
type AnomalyStats struct {
	RangeViolations     int `json:"range_violations"`
	StatisticalOutliers int `json:"statistical_outliers"`
	Flagged             int `json:"flagged"`
	SkippedGroups       int `json:"skipped_groups"`
}

// NewAnomalyDetector creates a detector from an explicit range table. The
// table must cover every known reading type.
func NewAnomalyDetector(ranges models.RangeTable, logger *logrus.Logger) (*AnomalyDetector, error) {
	if logger == nil {
		logger = logrus.New()
	}
	if missing := ranges.MissingTypes(); len(missing) > 0 {
		return nil, errors.WrapError(errors.ErrRangeRuleMissing, errors.ErrorTypeConfiguration,
			"RANGE_RULE_MISSING", fmt.Sprintf("no range rule for reading types %v", missing))
	}
	return &AnomalyDetector{logger: logger, ranges: ranges}, nil
}

// Detect computes is_anomalous for every reading in the batch.
func (d *AnomalyDetector) Detect(batch *models.Batch) *AnomalyStats {
	stats := &AnomalyStats{}

	for _, r := range batch.Readings {
		if r.CorrectedValue == nil {
			continue
		}
		rule := d.ranges[r.ReadingType]
		if *r.CorrectedValue < rule.Min || *r.CorrectedValue > rule.Max {
			r.IsAnomalous = true
			stats.RangeViolations++
		}
	}

	for key, group := range groupByPeer(batch.Readings) {
		if !d.flagOutliers(group, stats) {
			stats.SkippedGroups++
			d.logger.WithField("group", key).Debug("Statistical outlier check skipped: insufficient data or zero variance")
		}
	}

	for _, r := range batch.Readings {
		if r.IsAnomalous {
			stats.Flagged++
		}
	}

	d.logger.WithFields(logrus.Fields{
		"source_file":          batch.SourceFile,
		"range_violations":     stats.RangeViolations,
		"statistical_outliers": stats.StatisticalOutliers,
		"flagged":              stats.Flagged,
		"skipped_groups":       stats.SkippedGroups,
	}).Info("Anomaly detection completed")

	return stats
}

// flagOutliers runs the z-score check over one peer group. It returns false
// when the check is undefined for the group.
func (d *AnomalyDetector) flagOutliers(group []*models.Reading, stats *AnomalyStats) bool {
	var values []float64
	for _, r := range group {
		if r.CorrectedValue != nil {
			values = append(values, *r.CorrectedValue)
		}
	}
	if len(values) < constants.MinGroupSizeForZScore {
		return false
	}

	mean := stat.Mean(values, nil)
	stddev := popStdDev(values, mean)
	if stddev == 0 {
		return false
	}

	for _, r := range group {
		if r.CorrectedValue == nil {
			continue
		}
		if math.Abs(*r.CorrectedValue-mean)/stddev > constants.ZScoreThreshold {
			if !r.IsAnomalous {
				r.IsAnomalous = true
			}
			stats.StatisticalOutliers++
		}
	}
	return true
}

// popStdDev is the population (biased) standard deviation, matching how the
// peer-group statistics are defined for a complete batch.
func popStdDev(values []float64, mean float64) float64 {
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}
