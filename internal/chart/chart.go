// Package chart renders the computed tables as PNG figures. It depends only
// on the analysis result types, matching the contract that rendering
// consumes tables and never the raw inputs.
package chart

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"conversion-analytics/internal/analysis"
)

const (
	chartWidth  = 10 * vg.Inch
	chartHeight = 6 * vg.Inch
)

// Funnel draws the conversion funnel as a horizontal bar chart, first step
// on top.
func Funnel(steps []analysis.FunnelStep, path string) error {
	p := plot.New()
	p.Title.Text = "Conversion Funnel - User Drop-off by Stage"
	p.X.Label.Text = "Number of Users"

	// Rows are added bottom-up, so reverse to put step 1 on top.
	values := make(plotter.Values, len(steps))
	labels := make([]string, len(steps))
	for i, step := range steps {
		j := len(steps) - 1 - i
		values[j] = float64(step.Users)
		labels[j] = step.Step
	}

	bars, err := plotter.NewBarChart(values, vg.Points(24))
	if err != nil {
		return fmt.Errorf("funnel chart: %w", err)
	}
	bars.Horizontal = true
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalY(labels...)

	return p.Save(chartWidth, chartHeight, path)
}

// RetentionCurve draws weekly retention percentage over weeks since signup.
func RetentionCurve(weeks []analysis.RetentionWeek, path string) error {
	p := plot.New()
	p.Title.Text = "Weekly Retention Curve"
	p.X.Label.Text = "Weeks Since Signup"
	p.Y.Label.Text = "Retention Rate (%)"
	p.Y.Min = 0

	points := make(plotter.XYs, len(weeks))
	for i, w := range weeks {
		points[i].X = float64(w.Week)
		points[i].Y = w.RetentionPct
	}

	if err := plotutil.AddLinePoints(p, "Retention", points); err != nil {
		return fmt.Errorf("retention chart: %w", err)
	}
	return p.Save(chartWidth, chartHeight, path)
}

// SegmentComparison draws grouped view/return/upgrade rate bars per segment
// value.
func SegmentComparison(rows []analysis.SegmentRow, column, path string) error {
	p := plot.New()
	p.Title.Text = "Funnel Rates by " + column
	p.Y.Label.Text = "Rate (%)"
	p.Y.Min = 0
	p.Legend.Top = true

	series := []struct {
		name   string
		pick   func(analysis.SegmentRow) float64
		offset vg.Length
	}{
		{"View Rate", func(r analysis.SegmentRow) float64 { return r.ViewRate }, -vg.Points(16)},
		{"Return Rate", func(r analysis.SegmentRow) float64 { return r.ReturnRate }, 0},
		{"Upgrade Rate", func(r analysis.SegmentRow) float64 { return r.UpgradeRate }, vg.Points(16)},
	}

	for i, s := range series {
		values := make(plotter.Values, len(rows))
		for j, row := range rows {
			values[j] = s.pick(row)
		}
		bars, err := plotter.NewBarChart(values, vg.Points(14))
		if err != nil {
			return fmt.Errorf("segment chart: %w", err)
		}
		bars.Color = plotutil.Color(i)
		bars.Offset = s.offset
		p.Add(bars)
		p.Legend.Add(s.name, bars)
	}

	labels := make([]string, len(rows))
	for i, row := range rows {
		labels[i] = row.Value
	}
	p.NominalX(labels...)

	return p.Save(chartWidth, chartHeight, path)
}

// BehavioralComparison draws mean per-user behavior metrics as grouped bars,
// upgraded users next to everyone else. Nil day deltas are excluded from the
// mean rather than counted as zero.
func BehavioralComparison(metrics []analysis.UserMetrics, path string) error {
	p := plot.New()
	p.Title.Text = "Behavioral Profile - Upgraded vs Not Upgraded"
	p.Y.Label.Text = "Mean per User"
	p.Y.Min = 0
	p.Legend.Top = true

	categories := []struct {
		label string
		pick  func(analysis.UserMetrics) (float64, bool)
	}{
		{"Total Events", func(m analysis.UserMetrics) (float64, bool) {
			return float64(m.TotalEvents), true
		}},
		{"Distinct Event Types", func(m analysis.UserMetrics) (float64, bool) {
			return float64(m.DistinctEvents), true
		}},
		{"Days Active", func(m analysis.UserMetrics) (float64, bool) {
			return float64(m.DaysActive), true
		}},
		{"Days to Feature", func(m analysis.UserMetrics) (float64, bool) {
			if m.DaysToFeature == nil {
				return 0, false
			}
			return float64(*m.DaysToFeature), true
		}},
	}

	groups := []struct {
		name     string
		upgraded bool
		offset   vg.Length
	}{
		{"Not Upgraded", false, -vg.Points(12)},
		{"Upgraded", true, vg.Points(12)},
	}

	for i, g := range groups {
		values := make(plotter.Values, len(categories))
		for j, c := range categories {
			var sum float64
			var n int
			for _, m := range metrics {
				if m.IsUpgraded != g.upgraded {
					continue
				}
				if v, ok := c.pick(m); ok {
					sum += v
					n++
				}
			}
			if n > 0 {
				values[j] = sum / float64(n)
			}
		}
		bars, err := plotter.NewBarChart(values, vg.Points(20))
		if err != nil {
			return fmt.Errorf("behavior chart: %w", err)
		}
		bars.Color = plotutil.Color(i)
		bars.Offset = g.offset
		p.Add(bars)
		p.Legend.Add(g.name, bars)
	}

	labels := make([]string, len(categories))
	for i, c := range categories {
		labels[i] = c.label
	}
	p.NominalX(labels...)

	return p.Save(chartWidth, chartHeight, path)
}

// IntentSignals draws conversion rate per high-intent behavior with the
// overall upgrade rate as a baseline.
func IntentSignals(signals []analysis.IntentSignal, baselinePct float64, path string) error {
	p := plot.New()
	p.Title.Text = "High-Intent Behaviors vs Baseline Conversion"
	p.Y.Label.Text = "Conversion Rate (%)"
	p.Y.Min = 0

	values := make(plotter.Values, len(signals))
	labels := make([]string, len(signals))
	for i, s := range signals {
		values[i] = s.ConversionRate
		labels[i] = s.Behavior
	}

	bars, err := plotter.NewBarChart(values, vg.Points(30))
	if err != nil {
		return fmt.Errorf("intent chart: %w", err)
	}
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.NominalX(labels...)

	if len(signals) > 0 {
		baseline := plotter.XYs{
			{X: -0.5, Y: baselinePct},
			{X: float64(len(signals)) - 0.5, Y: baselinePct},
		}
		line, err := plotter.NewLine(baseline)
		if err != nil {
			return fmt.Errorf("intent chart: %w", err)
		}
		line.Color = plotutil.Color(1)
		line.Dashes = plotutil.Dashes(1)
		p.Add(line)
		p.Legend.Add("Baseline upgrade rate", line)
		p.Legend.Top = true
	}

	return p.Save(chartWidth, chartHeight, path)
}
