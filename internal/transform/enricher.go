package transform

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/agrisense/agridata/pkg/constants"
	"github.com/agrisense/agridata/pkg/models"
)

// Enricher computes the derived temporal aggregates:
//
//   - daily_avg: mean of non-null corrected values per
//     (sensor_id, reading_type, canonical-zone calendar day);
//   - rolling_avg_7d: mean of non-null corrected values in the trailing
//     seven-day window ending at the record's day, inclusive. The window
//     never looks forward past the record's day and has no warm-up
//     suppression: a single observation is enough.
//
// The windows are computed with an index-based slide over day-ordered
// aggregates, not a query engine, and are strictly batch-local.
type Enricher struct {
	logger *logrus.Logger
}

// NewEnricher creates a new enricher.
func NewEnricher(logger *logrus.Logger) *Enricher {
	if logger == nil {
		logger = logrus.New()
	}
	return &Enricher{logger: logger}
}

type dayAggregate struct {
	day   int
	sum   float64
	count int
}

// Enrich fills daily_avg and rolling_avg_7d for every reading in the batch.
func (e *Enricher) Enrich(batch *models.Batch) {
	for _, group := range groupByPeer(batch.Readings) {
		e.enrichGroup(group)
	}
	e.logger.WithFields(logrus.Fields{
		"source_file": batch.SourceFile,
		"records":     len(batch.Readings),
	}).Debug("Temporal aggregates computed")
}

func (e *Enricher) enrichGroup(group []*models.Reading) {
	perDay := make(map[int]*dayAggregate)
	for _, r := range group {
		day := CanonicalDay(r.Timestamp)
		agg, ok := perDay[day]
		if !ok {
			agg = &dayAggregate{day: day}
			perDay[day] = agg
		}
		if r.CorrectedValue != nil {
			agg.sum += *r.CorrectedValue
			agg.count++
		}
	}

	days := make([]*dayAggregate, 0, len(perDay))
	for _, agg := range perDay {
		days = append(days, agg)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].day < days[j].day })

	// Slide a [day-6, day] window over the ordered day aggregates.
	rolling := make(map[int]*float64, len(days))
	windowSum, windowCount := 0.0, 0
	left := 0
	for _, agg := range days {
		windowSum += agg.sum
		windowCount += agg.count
		for days[left].day < agg.day-(constants.RollingWindowDays-1) {
			windowSum -= days[left].sum
			windowCount -= days[left].count
			left++
		}
		if windowCount > 0 {
			rolling[agg.day] = models.Float64Ptr(windowSum / float64(windowCount))
		} else {
			rolling[agg.day] = nil
		}
	}

	for _, r := range group {
		day := CanonicalDay(r.Timestamp)
		agg := perDay[day]
		if agg.count > 0 {
			r.DailyAvg = models.Float64Ptr(agg.sum / float64(agg.count))
		}
		if avg := rolling[day]; avg != nil {
			r.RollingAvg7d = models.Float64Ptr(*avg)
		}
	}
}
