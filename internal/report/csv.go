// Package report writes the computed tables to disk. It consumes only the
// runner's results; nothing here feeds back into the analysis.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"conversion-analytics/internal/runner"
)

func formatPct(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatOptionalPct renders a nil rate as an empty cell, keeping the
// null-versus-zero distinction in the output.
func formatOptionalPct(v *float64) string {
	if v == nil {
		return ""
	}
	return formatPct(*v)
}

func formatOptionalDays(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func writeCSV(path string, header []string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// ExportTables writes every analysis table as CSV under dir.
func ExportTables(dir string, results *runner.Results) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	type table struct {
		name  string
		write func(string) error
	}
	tables := []table{
		{"funnel_metrics.csv", func(p string) error { return exportFunnel(p, results) }},
		{"retention_metrics.csv", func(p string) error { return exportRetention(p, results) }},
	}
	for _, column := range runner.SegmentColumns {
		column := column
		tables = append(tables, table{"segment_" + column + ".csv", func(p string) error {
			return exportSegment(p, column, results)
		}})
	}
	tables = append(tables,
		table{"behavioral_metrics.csv", func(p string) error { return exportBehavior(p, results) }},
		table{"engagement_scores.csv", func(p string) error { return exportEngagement(p, results) }},
		table{"session_metrics.csv", func(p string) error { return exportSessions(p, results) }},
		table{"high_intent_signals.csv", func(p string) error { return exportIntent(p, results) }},
		table{"summary.csv", func(p string) error { return exportSummary(p, results) }},
	)

	for _, tbl := range tables {
		if err := tbl.write(filepath.Join(dir, tbl.name)); err != nil {
			return fmt.Errorf("export %s: %w", tbl.name, err)
		}
	}
	return nil
}

func exportFunnel(path string, results *runner.Results) error {
	rows := make([][]string, 0, len(results.Funnel))
	for _, step := range results.Funnel {
		rows = append(rows, []string{
			step.Step,
			strconv.Itoa(step.Users),
			formatOptionalPct(step.ConversionRate),
			formatPct(step.PctOfSignups),
		})
	}
	return writeCSV(path, []string{"Step", "Users", "Conversion_Rate", "Pct_of_Signups"}, rows)
}

func exportRetention(path string, results *runner.Results) error {
	rows := make([][]string, 0, len(results.Retention))
	for _, week := range results.Retention {
		rows = append(rows, []string{
			strconv.Itoa(week.Week),
			strconv.Itoa(week.ActiveUsers),
			formatPct(week.RetentionPct),
		})
	}
	return writeCSV(path, []string{"Week", "Active_Users", "Retention_Pct"}, rows)
}

func exportSegment(path, column string, results *runner.Results) error {
	rows := make([][]string, 0, len(results.Segments[column]))
	for _, s := range results.Segments[column] {
		rows = append(rows, []string{
			s.Value,
			strconv.Itoa(s.Signups),
			strconv.Itoa(s.ViewedFeature),
			strconv.Itoa(s.Returned7d),
			strconv.Itoa(s.Upgraded),
			formatPct(s.ViewRate),
			formatPct(s.ReturnRate),
			formatPct(s.UpgradeRate),
		})
	}
	header := []string{column, "Signups", "Viewed_Feature", "Returned_7d", "Upgraded",
		"View_Rate", "Return_Rate", "Upgrade_Rate"}
	return writeCSV(path, header, rows)
}

func exportBehavior(path string, results *runner.Results) error {
	rows := make([][]string, 0, len(results.Behavior))
	for _, m := range results.Behavior {
		rows = append(rows, []string{
			m.UserID,
			strconv.FormatBool(m.IsUpgraded),
			strconv.Itoa(m.TotalEvents),
			strconv.Itoa(m.DistinctEvents),
			strconv.Itoa(m.DaysActive),
			formatOptionalDays(m.DaysToFirstEvent),
			formatOptionalDays(m.DaysToFeature),
		})
	}
	header := []string{"user_id", "is_upgraded", "total_events", "distinct_events",
		"days_active", "days_to_first_event", "days_to_feature"}
	return writeCSV(path, header, rows)
}

func exportEngagement(path string, results *runner.Results) error {
	rows := make([][]string, 0, len(results.Engagement))
	for _, s := range results.Engagement {
		rows = append(rows, []string{s.UserID, strconv.FormatFloat(s.Score, 'f', 2, 64)})
	}
	return writeCSV(path, []string{"user_id", "engagement_score"}, rows)
}

func exportSessions(path string, results *runner.Results) error {
	rows := make([][]string, 0, len(results.Sessions))
	for _, s := range results.Sessions {
		rows = append(rows, []string{
			s.UserID,
			strconv.Itoa(s.TotalSessions),
			strconv.Itoa(s.TotalEvents),
			strconv.FormatFloat(s.AvgEventsPerSession, 'f', 2, 64),
		})
	}
	header := []string{"user_id", "total_sessions", "total_events", "avg_events_per_session"}
	return writeCSV(path, header, rows)
}

func exportIntent(path string, results *runner.Results) error {
	rows := make([][]string, 0, len(results.Intent))
	for _, s := range results.Intent {
		rows = append(rows, []string{
			s.Behavior,
			strconv.Itoa(s.Users),
			strconv.Itoa(s.Converted),
			formatPct(s.ConversionRate),
		})
	}
	return writeCSV(path, []string{"Behavior", "Users", "Converted", "Conversion_Rate"}, rows)
}

func exportSummary(path string, results *runner.Results) error {
	w := results.UpgradeWindow
	d := results.ScoreDistribution
	v := results.Validation
	rows := [][]string{
		{fmt.Sprintf("upgrade_rate_%dd", w.WindowDays), formatPct(w.UpgradeRate)},
		{fmt.Sprintf("upgraded_%dd", w.WindowDays), strconv.Itoa(w.Upgraded)},
		{"total_users", strconv.Itoa(w.TotalUsers)},
		{"engagement_score_min", strconv.FormatFloat(d.Min, 'f', 2, 64)},
		{"engagement_score_mean", strconv.FormatFloat(d.Mean, 'f', 2, 64)},
		{"engagement_score_p50", strconv.FormatFloat(d.P50, 'f', 2, 64)},
		{"engagement_score_p90", strconv.FormatFloat(d.P90, 'f', 2, 64)},
		{"engagement_score_p99", strconv.FormatFloat(d.P99, 'f', 2, 64)},
		{"engagement_score_max", strconv.FormatFloat(d.Max, 'f', 2, 64)},
		{"duplicate_users", strconv.Itoa(v.DuplicateUsers)},
		{"duplicate_events", strconv.Itoa(v.DuplicateEvents)},
		{"duplicate_payments", strconv.Itoa(v.DuplicatePayments)},
		{"empty_user_fields", strconv.Itoa(v.EmptyUserFields)},
		{"empty_event_fields", strconv.Itoa(v.EmptyEventFields)},
		{"empty_payment_fields", strconv.Itoa(v.EmptyPaymentFields)},
		{"events_from_unknown_users", strconv.Itoa(v.UnknownEventUsers)},
		{"payments_from_unknown_users", strconv.Itoa(v.UnknownPaymentUsers)},
		{"events_before_signup", strconv.Itoa(v.EventsBeforeSignup)},
	}
	return writeCSV(path, []string{"metric", "value"}, rows)
}
