package analysis

import (
	"sort"

	"conversion-analytics/internal/dataset"
)

// DefaultHighIntentEvents is the stock catalogue of behaviors that tend to
// precede an upgrade. The catalogue is configuration, not derived from data.
var DefaultHighIntentEvents = []string{
	"clicked_upgrade",
	"browsed_pricing",
	"used_advanced_feature",
}

// earlyEngagementLabel names the derived multi-event signal in the output.
const earlyEngagementLabel = "3+ distinct events in first 3 days"

const (
	earlyEngagementMaxDays     = 2
	earlyEngagementMinDistinct = 3
)

// IntentSignal is the conversion summary for one high-intent behavior.
type IntentSignal struct {
	Behavior       string
	Users          int
	Converted      int
	ConversionRate float64
}

// HighIntentSignals computes upgrade conversion per catalogued behavior plus
// the derived early-engagement signal. Behaviors nobody exhibited are
// omitted entirely so a 0/0 rate never shows up as 0%. Results are sorted
// by conversion rate descending.
func HighIntentSignals(tables *dataset.Tables, catalogue []string) []IntentSignal {
	upgraded := tables.Upgraded()

	var signals []IntentSignal
	appendSignal := func(label string, cohort dataset.Cohort) {
		if cohort.Len() == 0 {
			return
		}
		converted := cohort.Intersect(upgraded).Len()
		signals = append(signals, IntentSignal{
			Behavior:       label,
			Users:          cohort.Len(),
			Converted:      converted,
			ConversionRate: rate(converted, cohort.Len()),
		})
	}

	for _, name := range catalogue {
		appendSignal(name, tables.UsersWithEvent(name))
	}
	appendSignal(earlyEngagementLabel, earlyEngaged(tables))

	sort.SliceStable(signals, func(i, j int) bool {
		return signals[i].ConversionRate > signals[j].ConversionRate
	})
	return signals
}

// earlyEngaged flags users logging three or more distinct event types within
// two days of signup.
func earlyEngaged(tables *dataset.Tables) dataset.Cohort {
	signups := tables.SignupDates()

	earlyNames := make(map[string]map[string]struct{})
	for _, e := range tables.Events {
		signup, ok := signups[e.UserID]
		if !ok {
			continue
		}
		if daysBetween(e.Time, signup) > earlyEngagementMaxDays {
			continue
		}
		if earlyNames[e.UserID] == nil {
			earlyNames[e.UserID] = make(map[string]struct{})
		}
		earlyNames[e.UserID][e.Name] = struct{}{}
	}

	flagged := dataset.NewCohort()
	for userID, names := range earlyNames {
		if len(names) >= earlyEngagementMinDistinct {
			flagged.Add(userID)
		}
	}
	return flagged
}
