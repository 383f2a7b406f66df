package transform

import (
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/agrisense/agridata/pkg/models"
)

// Cleaner deduplicates a batch on the natural key and imputes missing raw
// values per peer group.
//
// Deduplication policy: last-write-wins by ingestion order. When several
// records share (sensor_id, reading_type, timestamp), the record appearing
// latest in the raw batch survives, collapsed into the position of the first
// occurrence. The policy is deterministic for a fixed input file.
//
// Imputation policy, per (sensor_id, reading_type) group ordered by
// timestamp: forward-fill then backward-fill for temperature, humidity,
// soil_moisture and light_intensity; group arithmetic mean for battery_level,
// where fill propagation would mask depletion trends. A group with no
// non-null observation stays null and is surfaced in the quality report.
type Cleaner struct {
	logger *logrus.Logger
}

// CleanStats summarizes what the cleaner did to a batch.
type CleanStats struct {
	Deduplicated  int      `json:"deduplicated"`
	Imputed       int      `json:"imputed"`
	AllNullGroups []string `json:"all_null_groups,omitempty"`
}

// NewCleaner creates a new cleaner.
func NewCleaner(logger *logrus.Logger) *Cleaner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Cleaner{logger: logger}
}

// Clean deduplicates and imputes the batch in place and returns the cleaning
// stats. Running Clean on an already-clean batch is a no-op.
func (c *Cleaner) Clean(batch *models.Batch) *CleanStats {
	stats := &CleanStats{}

	c.deduplicate(batch, stats)

	// The pre-imputation null state must survive imputation for the
	// missingness statistics, including across repeated cleans: a record
	// imputed on an earlier pass stays missing.
	for _, r := range batch.Readings {
		if r.RawValue == nil {
			r.RawMissing = true
		}
	}

	for key, group := range groupByPeer(batch.Readings) {
		c.impute(key, group, stats)
	}

	c.logger.WithFields(logrus.Fields{
		"source_file":     batch.SourceFile,
		"deduplicated":    stats.Deduplicated,
		"imputed":         stats.Imputed,
		"all_null_groups": len(stats.AllNullGroups),
	}).Info("Batch cleaned")

	for _, key := range stats.AllNullGroups {
		c.logger.WithField("group", key).Warn("Peer group has no non-null observations; values stay null")
	}

	return stats
}

func (c *Cleaner) deduplicate(batch *models.Batch, stats *CleanStats) {
	seen := make(map[string]int, len(batch.Readings))
	deduped := batch.Readings[:0]
	for _, r := range batch.Readings {
		key := r.Key()
		if idx, ok := seen[key]; ok {
			deduped[idx] = r
			stats.Deduplicated++
			continue
		}
		seen[key] = len(deduped)
		deduped = append(deduped, r)
	}
	batch.Readings = deduped
}

func (c *Cleaner) impute(key string, group []*models.Reading, stats *CleanStats) {
	var observed []float64
	for _, r := range group {
		if r.RawValue != nil {
			observed = append(observed, *r.RawValue)
		}
	}
	if len(observed) == 0 {
		stats.AllNullGroups = append(stats.AllNullGroups, key)
		return
	}

	if group[0].ReadingType == models.ReadingBatteryLevel {
		mean := stat.Mean(observed, nil)
		for _, r := range group {
			if r.RawValue == nil {
				r.RawValue = models.Float64Ptr(mean)
				stats.Imputed++
			}
		}
		return
	}

	// Forward-fill, then backward-fill the leading gap.
	var last *float64
	for _, r := range group {
		if r.RawValue != nil {
			last = r.RawValue
			continue
		}
		if last != nil {
			r.RawValue = models.Float64Ptr(*last)
			stats.Imputed++
		}
	}
	var next *float64
	for i := len(group) - 1; i >= 0; i-- {
		r := group[i]
		if r.RawValue != nil {
			next = r.RawValue
			continue
		}
		if next != nil {
			r.RawValue = models.Float64Ptr(*next)
			stats.Imputed++
		}
	}
}

// groupByPeer groups readings by (sensor_id, reading_type), each group sorted
// by timestamp. The sort is stable so records with equal timestamps keep
// their ingestion order.
func groupByPeer(readings []*models.Reading) map[string][]*models.Reading {
	groups := make(map[string][]*models.Reading)
	for _, r := range readings {
		key := r.GroupKey()
		groups[key] = append(groups[key], r)
	}
	for _, group := range groups {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Timestamp.Before(group[j].Timestamp)
		})
	}
	return groups
}
