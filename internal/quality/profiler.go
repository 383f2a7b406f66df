package quality

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/internal/transform"
	"github.com/agrisense/agridata/pkg/models"
)

// Profiler produces the four-table data-quality report for one cleaned and
// enriched batch:
//
//   - range_checks echoes the active range rule table for audit;
//   - missing reports the pre-imputation null fraction per reading type,
//     taken from the null state the cleaner preserved on each record;
//   - gaps reports hourly completeness per (sensor_id, reading_type) over
//     the hourly series between the batch's first and last observed hour,
//     inclusive;
//   - profile reports the post-imputation null fraction per reading type.
//
// Report generation is pure: it reads the batch and writes nothing but the
// returned report.
type Profiler struct {
	logger *logrus.Logger
	ranges models.RangeTable
}

// NewProfiler creates a profiler that audits against the given range table.
func NewProfiler(ranges models.RangeTable, logger *logrus.Logger) *Profiler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Profiler{logger: logger, ranges: ranges}
}

// Profile builds the quality report for the batch.
func (p *Profiler) Profile(batch *models.Batch) *models.QualityReport {
	report := &models.QualityReport{
		ID:              uuid.New().String(),
		SourceFile:      batch.SourceFile,
		GeneratedAt:     time.Now().UTC(),
		RecordsProfiled: len(batch.Readings),
		RecordsRejected: batch.Rejected,
		RangeChecks:     p.rangeChecks(),
		Missing:         p.missingness(batch),
		Gaps:            p.gaps(batch),
		Profile:         p.nullProfile(batch),
	}

	p.logger.WithFields(logrus.Fields{
		"report_id":   report.ID,
		"source_file": batch.SourceFile,
		"records":     report.RecordsProfiled,
		"rejected":    report.RecordsRejected,
		"gap_groups":  len(report.Gaps),
	}).Info("Quality report generated")

	return report
}

func (p *Profiler) rangeChecks() []models.RangeCheckEntry {
	entries := make([]models.RangeCheckEntry, 0, len(p.ranges))
	for _, rt := range models.AllReadingTypes {
		rule, ok := p.ranges[rt]
		if !ok {
			continue
		}
		entries = append(entries, models.RangeCheckEntry{
			ReadingType: rt,
			Min:         rule.Min,
			Max:         rule.Max,
		})
	}
	return entries
}

func (p *Profiler) missingness(batch *models.Batch) []models.MissingEntry {
	totals := make(map[models.ReadingType]int)
	missing := make(map[models.ReadingType]int)
	for _, r := range batch.Readings {
		totals[r.ReadingType]++
		if r.RawMissing {
			missing[r.ReadingType]++
		}
	}

	entries := make([]models.MissingEntry, 0, len(totals))
	for _, rt := range models.AllReadingTypes {
		total, ok := totals[rt]
		if !ok {
			continue
		}
		entries = append(entries, models.MissingEntry{
			ReadingType:     rt,
			TotalCount:      total,
			MissingCount:    missing[rt],
			MissingFraction: float64(missing[rt]) / float64(total),
		})
	}
	return entries
}

func (p *Profiler) nullProfile(batch *models.Batch) []models.ProfileEntry {
	totals := make(map[models.ReadingType]int)
	nulls := make(map[models.ReadingType]int)
	for _, r := range batch.Readings {
		totals[r.ReadingType]++
		if r.RawValue == nil {
			nulls[r.ReadingType]++
		}
	}

	entries := make([]models.ProfileEntry, 0, len(totals))
	for _, rt := range models.AllReadingTypes {
		total, ok := totals[rt]
		if !ok {
			continue
		}
		entries = append(entries, models.ProfileEntry{
			ReadingType:  rt,
			TotalCount:   total,
			NullCount:    nulls[rt],
			NullFraction: float64(nulls[rt]) / float64(total),
		})
	}
	return entries
}

// gaps generates the hourly series between the batch's first and last
// observed hour and counts, for every observed sensor crossed with every
// known reading type, the slots with no observation. A pair with no records
// at all still gets the full expected window with zero actual hours.
func (p *Profiler) gaps(batch *models.Batch) []models.GapEntry {
	if len(batch.Readings) == 0 {
		return nil
	}

	minHour := transform.CanonicalHour(batch.Readings[0].Timestamp)
	maxHour := minHour
	sensors := make(map[string]struct{})
	observed := make(map[string]map[int64]struct{})

	for _, r := range batch.Readings {
		hour := transform.CanonicalHour(r.Timestamp)
		if hour.Before(minHour) {
			minHour = hour
		}
		if hour.After(maxHour) {
			maxHour = hour
		}
		sensors[r.SensorID] = struct{}{}
		key := r.GroupKey()
		if observed[key] == nil {
			observed[key] = make(map[int64]struct{})
		}
		observed[key][hour.Unix()] = struct{}{}
	}

	expected := int(maxHour.Sub(minHour)/time.Hour) + 1

	sensorIDs := make([]string, 0, len(sensors))
	for id := range sensors {
		sensorIDs = append(sensorIDs, id)
	}
	sort.Strings(sensorIDs)

	entries := make([]models.GapEntry, 0, len(sensorIDs)*len(models.AllReadingTypes))
	for _, id := range sensorIDs {
		for _, rt := range models.AllReadingTypes {
			actual := len(observed[id+"|"+string(rt)])
			entries = append(entries, models.GapEntry{
				SensorID:          id,
				ReadingType:       rt,
				ExpectedHourCount: expected,
				ActualHourCount:   actual,
				MissingHourCount:  expected - actual,
			})
		}
	}
	return entries
}
