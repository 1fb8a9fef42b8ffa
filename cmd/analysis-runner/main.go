package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"conversion-analytics/internal/chart"
	"conversion-analytics/internal/config"
	"conversion-analytics/internal/report"
	"conversion-analytics/internal/runner"
	"conversion-analytics/internal/source"
)

func main() {
	var exitCode int
	defer func() {
		os.Exit(exitCode)
	}()

	configPath := flag.String("config", "config.yaml", "path to the yaml config file")
	sourceName := flag.String("source", "", "input source override (csv, postgres, mysql, or mongo)")
	weeks := flag.Int("weeks", 0, "retention weeks override")
	outDir := flag.String("out", "", "output directory override")
	flag.Parse()

	log := logrus.New()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		exitCode = 1
		return
	}
	if *sourceName != "" {
		cfg.Source = *sourceName
	}
	if *weeks > 0 {
		cfg.Analysis.RetentionWeeks = *weeks
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	sources := map[string]source.Source{
		"csv": &source.CSVSource{
			UsersPath:    cfg.CSV.Users,
			EventsPath:   cfg.CSV.Events,
			PaymentsPath: cfg.CSV.Payments,
		},
		"postgres": &source.PostgresSource{DSN: cfg.Databases.Postgres},
		"mysql":    &source.MySQLSource{DSN: cfg.Databases.MySQL},
		"mongo": &source.MongoSource{
			DSN:      cfg.Databases.Mongo.URI,
			Database: cfg.Databases.Mongo.Database,
		},
	}

	src, ok := sources[cfg.Source]
	if !ok {
		log.WithField("source", cfg.Source).Error("unsupported input source")
		exitCode = 1
		return
	}

	ctx := context.Background()
	if err := src.Connect(ctx); err != nil {
		log.WithError(err).WithField("source", cfg.Source).Error("failed to connect to source")
		exitCode = 1
		return
	}
	defer src.Close()

	tables, err := src.Load(ctx)
	if err != nil {
		log.WithError(err).Error("failed to load tables")
		exitCode = 1
		return
	}

	opts := runner.Options{
		RetentionWeeks:    cfg.Analysis.RetentionWeeks,
		UpgradeWindowDays: cfg.Analysis.UpgradeWindowDays,
		SessionGap:        time.Duration(cfg.Analysis.SessionGapMinutes) * time.Minute,
		HighIntentEvents:  cfg.Analysis.HighIntentEvents,
	}
	results, err := runner.Run(tables, opts, log)
	if err != nil {
		log.WithError(err).Error("analysis failed")
		exitCode = 1
		return
	}

	runID := report.NewRunID()
	runDir, err := report.RunDir(cfg.Output.Dir, runID)
	if err != nil {
		log.WithError(err).Error("failed to create run directory")
		exitCode = 1
		return
	}

	tablesDir := filepath.Join(runDir, "tables")
	if err := report.ExportTables(tablesDir, results); err != nil {
		log.WithError(err).Error("failed to export tables")
		exitCode = 1
		return
	}

	figuresDir := filepath.Join(runDir, "figures")
	if err := renderCharts(figuresDir, results); err != nil {
		log.WithError(err).Error("failed to render charts")
		exitCode = 1
		return
	}

	if err := report.WriteHTML(filepath.Join(runDir, "report.html"), runID, results); err != nil {
		log.WithError(err).Error("failed to write report")
		exitCode = 1
		return
	}

	log.WithFields(logrus.Fields{"run_id": runID, "dir": runDir}).Info("run complete")
}

func renderCharts(dir string, results *runner.Results) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	if err := chart.Funnel(results.Funnel, filepath.Join(dir, "funnel_chart.png")); err != nil {
		return err
	}
	if err := chart.RetentionCurve(results.Retention, filepath.Join(dir, "retention_curve.png")); err != nil {
		return err
	}
	for _, column := range runner.SegmentColumns {
		path := filepath.Join(dir, "segment_"+column+".png")
		if err := chart.SegmentComparison(results.Segments[column], column, path); err != nil {
			return err
		}
	}
	if err := chart.BehavioralComparison(results.Behavior, filepath.Join(dir, "behavioral_comparison.png")); err != nil {
		return err
	}

	// Baseline for the intent chart is the end-to-end upgrade share of
	// signups, the last funnel step.
	baseline := results.Funnel[len(results.Funnel)-1].PctOfSignups
	return chart.IntentSignals(results.Intent, baseline, filepath.Join(dir, "high_intent_signals.png"))
}
