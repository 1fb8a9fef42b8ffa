package report

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"conversion-analytics/internal/runner"
)

const reportCSS = `
body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; line-height: 1.6;
       color: #333; max-width: 800px; margin: 0 auto; padding: 40px; }
h1 { color: #2c3e50; border-bottom: 2px solid #eee; padding-bottom: 10px; }
h2 { color: #34495e; margin-top: 30px; border-bottom: 1px solid #eee; padding-bottom: 5px; }
table { border-collapse: collapse; width: 100%; margin: 20px 0; }
th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
th { background-color: #f8f9fa; font-weight: bold; color: #2c3e50; }
tr:nth-child(even) { background-color: #f9f9f9; }
`

// NewRunID returns a short unique identifier for one pipeline run, used in
// output directory names and the report header.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// RunDir creates and returns a timestamped run directory under base.
func RunDir(base, runID string) (string, error) {
	dir := filepath.Join(base, time.Now().Format("20060102_150405")+"_"+runID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// WriteHTML renders the run summary as a standalone HTML report.
func WriteHTML(path, runID string, results *runner.Results) error {
	md := buildMarkdown(runID, results)

	var body bytes.Buffer
	renderer := goldmark.New(goldmark.WithExtensions(extension.Table))
	if err := renderer.Convert([]byte(md), &body); err != nil {
		return fmt.Errorf("render report: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	page.WriteString("<title>User Conversion Analysis Report</title>\n")
	page.WriteString("<style>" + reportCSS + "</style>\n</head>\n<body>\n")
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")

	return os.WriteFile(path, page.Bytes(), 0o644)
}

func buildMarkdown(runID string, results *runner.Results) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# User Conversion Analysis\n\n")
	fmt.Fprintf(&b, "Run `%s`, generated %s.\n\n", runID, time.Now().Format("2006-01-02 15:04"))

	b.WriteString("## Conversion Funnel\n\n")
	writeTable(&b, []string{"Step", "Users", "Conversion Rate", "% of Signups"}, func(add func(...string)) {
		for _, step := range results.Funnel {
			add(step.Step, fmt.Sprint(step.Users),
				pctOrDash(step.ConversionRate), formatPct(step.PctOfSignups)+"%")
		}
	})

	w := results.UpgradeWindow
	fmt.Fprintf(&b, "## %d-Day Upgrade Rate\n\n%s%% (%d out of %d users)\n\n",
		w.WindowDays, formatPct(w.UpgradeRate), w.Upgraded, w.TotalUsers)

	b.WriteString("## Weekly Retention\n\n")
	writeTable(&b, []string{"Week", "Active Users", "Retention %"}, func(add func(...string)) {
		for _, week := range results.Retention {
			add(fmt.Sprint(week.Week), fmt.Sprint(week.ActiveUsers), formatPct(week.RetentionPct))
		}
	})

	for _, column := range runner.SegmentColumns {
		fmt.Fprintf(&b, "## Segmentation by %s\n\n", column)
		writeTable(&b, []string{column, "Signups", "View Rate", "Return Rate", "Upgrade Rate"},
			func(add func(...string)) {
				for _, s := range results.Segments[column] {
					add(s.Value, fmt.Sprint(s.Signups), formatPct(s.ViewRate),
						formatPct(s.ReturnRate), formatPct(s.UpgradeRate))
				}
			})
	}

	b.WriteString("## High-Intent Signals\n\n")
	writeTable(&b, []string{"Behavior", "Users", "Converted", "Conversion Rate"}, func(add func(...string)) {
		for _, s := range results.Intent {
			add(s.Behavior, fmt.Sprint(s.Users), fmt.Sprint(s.Converted), formatPct(s.ConversionRate)+"%")
		}
	})

	d := results.ScoreDistribution
	b.WriteString("## Engagement Score Distribution\n\n")
	writeTable(&b, []string{"Min", "Mean", "P50", "P90", "P99", "Max"}, func(add func(...string)) {
		add(fmt.Sprintf("%.2f", d.Min), fmt.Sprintf("%.2f", d.Mean), fmt.Sprintf("%.2f", d.P50),
			fmt.Sprintf("%.2f", d.P90), fmt.Sprintf("%.2f", d.P99), fmt.Sprintf("%.2f", d.Max))
	})

	if v := results.Validation; v != nil && !v.Clean() {
		fmt.Fprintf(&b, "## Data Quality\n\n%s\n", v.String())
	}

	return b.String()
}

func pctOrDash(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return formatPct(*v) + "%"
}

func writeTable(b *strings.Builder, header []string, fill func(add func(...string))) {
	b.WriteString("| " + strings.Join(header, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat(" --- |", len(header)) + "\n")
	fill(func(cells ...string) {
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	})
	b.WriteString("\n")
}
