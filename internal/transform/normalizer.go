package transform

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/constants"
	"github.com/agrisense/agridata/pkg/models"
)

// canonicalZone is the fixed UTC+5:30 offset every timestamp is normalized
// to before persistence.
var canonicalZone = time.FixedZone(constants.CanonicalZoneName, constants.CanonicalZoneOffset)

// TimestampNormalizer converts timestamps to the canonical fixed UTC offset
// and renders the ISO 8601 textual form. The conversion is total and
// deterministic: unparseable timestamps were already excluded at validation,
// and normalizing an already-normalized timestamp is a no-op.
type TimestampNormalizer struct {
	logger *logrus.Logger
}

// NewTimestampNormalizer creates a new timestamp normalizer.
func NewTimestampNormalizer(logger *logrus.Logger) *TimestampNormalizer {
	if logger == nil {
		logger = logrus.New()
	}
	return &TimestampNormalizer{logger: logger}
}

// Normalize converts a single timestamp to the canonical offset. The instant
// is preserved exactly; only the rendered offset changes.
func (n *TimestampNormalizer) Normalize(ts time.Time) time.Time {
	return ts.In(canonicalZone)
}

// NormalizeBatch converts every reading's timestamp to the canonical offset
// and fills in the ISO 8601 text column.
func (n *TimestampNormalizer) NormalizeBatch(batch *models.Batch) {
	for _, r := range batch.Readings {
		r.Timestamp = n.Normalize(r.Timestamp)
		r.TimestampISO = r.Timestamp.Format(constants.ISOTimestampLayout)
	}
	n.logger.WithFields(logrus.Fields{
		"source_file": batch.SourceFile,
		"records":     len(batch.Readings),
		"zone":        constants.CanonicalZoneName,
	}).Debug("Timestamps normalized")
}

// ISOString renders a timestamp in the canonical ISO 8601 form used for
// persistence, with one-second precision.
func (n *TimestampNormalizer) ISOString(ts time.Time) string {
	return ts.In(canonicalZone).Format(constants.ISOTimestampLayout)
}

// CanonicalDate returns the calendar date of the instant in the canonical
// zone, used as the partition and aggregation day.
func CanonicalDate(ts time.Time) string {
	return ts.In(canonicalZone).Format(constants.DateLayout)
}

// CanonicalDay truncates the instant to its calendar day in the canonical
// zone and returns the day as a count of days since the Unix epoch in that
// zone, for window arithmetic.
func CanonicalDay(ts time.Time) int {
	local := ts.In(canonicalZone)
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, canonicalZone)
	return int(midnight.Unix() / 86400)
}

// CanonicalHour floors the instant to the start of its wall-clock hour in
// the canonical zone. The half-hour offset means UTC hour boundaries do not
// line up with canonical ones, so flooring happens on wall-clock fields.
func CanonicalHour(ts time.Time) time.Time {
	local := ts.In(canonicalZone)
	return time.Date(local.Year(), local.Month(), local.Day(), local.Hour(), 0, 0, 0, canonicalZone)
}
