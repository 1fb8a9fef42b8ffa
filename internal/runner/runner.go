// Package runner sequences the analysis pipeline. It is pure computation:
// results come back as values and all file writing is left to the report
// layer.
package runner

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"conversion-analytics/internal/analysis"
	"conversion-analytics/internal/dataset"
)

// SegmentColumns lists the user attributes segmented in every run, in
// output order.
var SegmentColumns = []string{
	analysis.SegmentByCountry,
	analysis.SegmentByDevice,
	analysis.SegmentBySource,
}

type Options struct {
	RetentionWeeks    int
	UpgradeWindowDays int
	SessionGap        time.Duration
	HighIntentEvents  []string
}

func (o *Options) applyDefaults() {
	if o.RetentionWeeks <= 0 {
		o.RetentionWeeks = 12
	}
	if o.UpgradeWindowDays <= 0 {
		o.UpgradeWindowDays = 30
	}
	if o.SessionGap <= 0 {
		o.SessionGap = analysis.DefaultSessionGap
	}
	if len(o.HighIntentEvents) == 0 {
		o.HighIntentEvents = analysis.DefaultHighIntentEvents
	}
}

// Results collects every table the pipeline produces for one run.
type Results struct {
	Validation        *dataset.ValidationReport
	Funnel            []analysis.FunnelStep
	Retention         []analysis.RetentionWeek
	UpgradeWindow     analysis.UpgradeWindow
	Segments          map[string][]analysis.SegmentRow
	Behavior          []analysis.UserMetrics
	Engagement        []analysis.EngagementScore
	ScoreDistribution analysis.ScoreDistribution
	Sessions          []analysis.SessionMetrics
	Intent            []analysis.IntentSignal
}

// Run executes the full pipeline over one immutable snapshot of the three
// tables. Data-quality findings are logged and reported, never corrected.
func Run(tables *dataset.Tables, opts Options, log *logrus.Logger) (*Results, error) {
	opts.applyDefaults()

	log.WithFields(logrus.Fields{
		"users":    len(tables.Users),
		"events":   len(tables.Events),
		"payments": len(tables.Payments),
	}).Info("tables loaded")

	validation := dataset.Validate(tables)
	if !validation.Clean() {
		log.WithField("report", validation.String()).Warn("data quality issues found")
	}

	results := &Results{
		Validation:    validation,
		Funnel:        analysis.BuildFunnel(tables),
		Retention:     analysis.CalculateRetention(tables, opts.RetentionWeeks),
		UpgradeWindow: analysis.UpgradeRateWithin(tables, opts.UpgradeWindowDays),
		Segments:      make(map[string][]analysis.SegmentRow, len(SegmentColumns)),
	}

	for _, column := range SegmentColumns {
		rows, err := analysis.SegmentBy(tables, column)
		if err != nil {
			return nil, fmt.Errorf("segmentation: %w", err)
		}
		results.Segments[column] = rows
	}

	results.Behavior = analysis.BehavioralMetrics(tables)
	results.Engagement = analysis.EngagementScores(tables)
	results.ScoreDistribution = analysis.DistributeScores(results.Engagement)
	results.Sessions = analysis.Sessions(tables, opts.SessionGap)
	results.Intent = analysis.HighIntentSignals(tables, opts.HighIntentEvents)

	log.WithFields(logrus.Fields{
		"funnel_steps":   len(results.Funnel),
		"intent_signals": len(results.Intent),
	}).Info("analysis complete")

	return results, nil
}
