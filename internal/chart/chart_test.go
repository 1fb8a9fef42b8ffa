package chart

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversion-analytics/internal/analysis"
)

func assertPNG(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestFunnel(t *testing.T) {
	rate := 50.0
	steps := []analysis.FunnelStep{
		{Step: "1. Signed Up", Users: 100, PctOfSignups: 100},
		{Step: "2. Viewed Feature", Users: 50, ConversionRate: &rate, PctOfSignups: 50},
		{Step: "3. Returned 7d", Users: 40, ConversionRate: &rate, PctOfSignups: 40},
		{Step: "4. Upgraded", Users: 10, ConversionRate: &rate, PctOfSignups: 10},
	}

	path := filepath.Join(t.TempDir(), "funnel.png")
	require.NoError(t, Funnel(steps, path))
	assertPNG(t, path)
}

func TestRetentionCurve(t *testing.T) {
	weeks := []analysis.RetentionWeek{
		{Week: 0, ActiveUsers: 80, RetentionPct: 80},
		{Week: 1, ActiveUsers: 40, RetentionPct: 40},
		{Week: 2, ActiveUsers: 25, RetentionPct: 25},
	}

	path := filepath.Join(t.TempDir(), "retention.png")
	require.NoError(t, RetentionCurve(weeks, path))
	assertPNG(t, path)
}

func TestSegmentComparison(t *testing.T) {
	rows := []analysis.SegmentRow{
		{Value: "US", Signups: 60, ViewRate: 55, ReturnRate: 42, UpgradeRate: 12},
		{Value: "UK", Signups: 40, ViewRate: 48, ReturnRate: 38, UpgradeRate: 9},
	}

	path := filepath.Join(t.TempDir(), "segment.png")
	require.NoError(t, SegmentComparison(rows, "country", path))
	assertPNG(t, path)
}

func TestBehavioralComparison(t *testing.T) {
	three := 3
	metrics := []analysis.UserMetrics{
		{UserID: "u1", IsUpgraded: true, TotalEvents: 12, DistinctEvents: 5, DaysActive: 6, DaysToFeature: &three},
		{UserID: "u2", IsUpgraded: false, TotalEvents: 2, DistinctEvents: 1, DaysActive: 1},
		{UserID: "u3", IsUpgraded: false, TotalEvents: 4, DistinctEvents: 2, DaysActive: 2, DaysToFeature: &three},
	}

	path := filepath.Join(t.TempDir(), "behavior.png")
	require.NoError(t, BehavioralComparison(metrics, path))
	assertPNG(t, path)
}

func TestIntentSignals(t *testing.T) {
	signals := []analysis.IntentSignal{
		{Behavior: "clicked_upgrade", Users: 20, Converted: 12, ConversionRate: 60},
		{Behavior: "browsed_pricing", Users: 30, Converted: 9, ConversionRate: 30},
	}

	path := filepath.Join(t.TempDir(), "intent.png")
	require.NoError(t, IntentSignals(signals, 10.5, path))
	assertPNG(t, path)
}

func TestIntentSignalsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "intent.png")
	require.NoError(t, IntentSignals(nil, 0, path))
	assertPNG(t, path)
}
