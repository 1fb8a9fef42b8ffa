package analysis

import (
	"sort"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"conversion-analytics/internal/dataset"
)

// UserMetrics is the per-user behavioral summary. The day-delta fields are
// nil when the user has no qualifying event: zero activity is not the same
// as instant activity.
type UserMetrics struct {
	UserID           string
	IsUpgraded       bool
	TotalEvents      int
	DistinctEvents   int
	DaysActive       int
	DaysToFirstEvent *int
	DaysToFeature    *int
}

// BehavioralMetrics computes one UserMetrics row per user, in users-table
// order. Users with zero events get zero counts and nil day deltas.
func BehavioralMetrics(tables *dataset.Tables) []UserMetrics {
	upgraded := tables.Upgraded()
	eventsByUser := tables.EventsByUser()

	metrics := make([]UserMetrics, 0, len(tables.Users))
	for _, u := range tables.Users {
		events := eventsByUser[u.ID]

		m := UserMetrics{
			UserID:         u.ID,
			IsUpgraded:     upgraded.Contains(u.ID),
			TotalEvents:    len(events),
			DistinctEvents: distinctNames(events),
			DaysActive:     distinctDates(events),
		}

		if first, ok := earliestEvent(events, ""); ok {
			days := daysBetween(first, u.SignupDate)
			m.DaysToFirstEvent = &days
		}
		if first, ok := earliestEvent(events, ViewedFeatureEvent); ok {
			days := daysBetween(first, u.SignupDate)
			m.DaysToFeature = &days
		}

		metrics = append(metrics, m)
	}
	return metrics
}

func distinctNames(events []dataset.Event) int {
	names := make(map[string]struct{})
	for _, e := range events {
		names[e.Name] = struct{}{}
	}
	return len(names)
}

func distinctDates(events []dataset.Event) int {
	dates := make(map[string]struct{})
	for _, e := range events {
		dates[e.Time.Format("2006-01-02")] = struct{}{}
	}
	return len(dates)
}

// earliestEvent returns the time of the user's first event, optionally
// restricted to one event name. name == "" matches every event.
func earliestEvent(events []dataset.Event, name string) (time.Time, bool) {
	var first time.Time
	found := false
	for _, e := range events {
		if name != "" && e.Name != name {
			continue
		}
		if !found || e.Time.Before(first) {
			first = e.Time
			found = true
		}
	}
	return first, found
}

// Engagement score weights. Fixed design constants, not fitted values.
const (
	weightTotalEvents    = 0.4
	weightDistinctEvents = 5 * 0.3
	weightDaysActive     = 3 * 0.3
)

// EngagementScore is the weighted activity score for one user.
type EngagementScore struct {
	UserID string
	Score  float64
}

// EngagementScores computes the fixed-weight linear engagement score per
// user, in users-table order. Users with no events score zero.
func EngagementScores(tables *dataset.Tables) []EngagementScore {
	eventsByUser := tables.EventsByUser()

	scores := make([]EngagementScore, 0, len(tables.Users))
	for _, u := range tables.Users {
		events := eventsByUser[u.ID]
		score := 0.0
		if len(events) > 0 {
			score = float64(len(events))*weightTotalEvents +
				float64(distinctNames(events))*weightDistinctEvents +
				float64(distinctDates(events))*weightDaysActive
		}
		scores = append(scores, EngagementScore{UserID: u.ID, Score: score})
	}
	return scores
}

// ScoreDistribution summarizes the spread of engagement scores across the
// user base.
type ScoreDistribution struct {
	Users int
	Min   float64
	Mean  float64
	P50   float64
	P90   float64
	P99   float64
	Max   float64
}

// scorePrecision fixes two decimal places when recording scores into the
// integer-valued histogram.
const scorePrecision = 100

// DistributeScores feeds the engagement scores through an HDR histogram and
// reports the usual percentile summary. Scores are recorded at fixed-point
// precision since the histogram tracks integers.
func DistributeScores(scores []EngagementScore) ScoreDistribution {
	if len(scores) == 0 {
		return ScoreDistribution{}
	}

	maxScore := int64(scorePrecision)
	for _, s := range scores {
		if v := int64(s.Score * scorePrecision); v > maxScore {
			maxScore = v
		}
	}

	histogram := hdrhistogram.New(1, maxScore, 3)
	for _, s := range scores {
		_ = histogram.RecordValue(int64(s.Score * scorePrecision))
	}

	fromFixed := func(v int64) float64 { return float64(v) / scorePrecision }
	return ScoreDistribution{
		Users: len(scores),
		Min:   fromFixed(histogram.Min()),
		Mean:  histogram.Mean() / scorePrecision,
		P50:   fromFixed(histogram.ValueAtQuantile(50)),
		P90:   fromFixed(histogram.ValueAtQuantile(90)),
		P99:   fromFixed(histogram.ValueAtQuantile(99)),
		Max:   fromFixed(histogram.Max()),
	}
}

// DefaultSessionGap is the inactivity gap that closes a session.
const DefaultSessionGap = 30 * time.Minute

// SessionMetrics is the per-user session summary. Only users with at least
// one event have sessions, so users without events do not appear.
type SessionMetrics struct {
	UserID              string
	TotalSessions       int
	TotalEvents         int
	AvgEventsPerSession float64
}

// Sessions splits each user's event stream into sessions separated by more
// than gap of inactivity. Rows are ordered by user ID.
func Sessions(tables *dataset.Tables, gap time.Duration) []SessionMetrics {
	eventsByUser := tables.EventsByUser()

	userIDs := make([]string, 0, len(eventsByUser))
	for id := range eventsByUser {
		userIDs = append(userIDs, id)
	}
	sort.Strings(userIDs)

	metrics := make([]SessionMetrics, 0, len(userIDs))
	for _, id := range userIDs {
		events := eventsByUser[id]
		sort.Slice(events, func(i, j int) bool {
			return events[i].Time.Before(events[j].Time)
		})

		sessions := 1
		for i := 1; i < len(events); i++ {
			if events[i].Time.Sub(events[i-1].Time) > gap {
				sessions++
			}
		}

		metrics = append(metrics, SessionMetrics{
			UserID:              id,
			TotalSessions:       sessions,
			TotalEvents:         len(events),
			AvgEventsPerSession: float64(len(events)) / float64(sessions),
		})
	}
	return metrics
}
