package analysis

import (
	"math"
	"time"

	"conversion-analytics/internal/dataset"
)

// ViewedFeatureEvent is the event name marking the activation step of the
// funnel.
const ViewedFeatureEvent = "viewed_feature"

// FunnelStep is one row of the conversion funnel.
type FunnelStep struct {
	Step           string
	Users          int
	ConversionRate *float64
	PctOfSignups   float64
}

// daysBetween returns the whole-day offset of t from base, flooring so a
// negative offset stays negative.
func daysBetween(t, base time.Time) int {
	return int(math.Floor(t.Sub(base).Hours() / 24))
}

// returnedBetween builds the cohort of users with at least one event whose
// day offset from signup falls in the inclusive range [from, to]. Events of
// users missing from the users table have no signup date and are skipped.
func returnedBetween(tables *dataset.Tables, from, to int) dataset.Cohort {
	signups := tables.SignupDates()
	c := dataset.NewCohort()
	for _, e := range tables.Events {
		signup, ok := signups[e.UserID]
		if !ok {
			continue
		}
		if days := daysBetween(e.Time, signup); days >= from && days <= to {
			c.Add(e.UserID)
		}
	}
	return c
}

// floorDiv divides flooring toward negative infinity, so an event before
// signup buckets into a negative week instead of week zero.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

func rate(numerator, denominator int) float64 {
	if denominator == 0 {
		return 0
	}
	return float64(numerator) / float64(denominator) * 100
}

// BuildFunnel computes the four-step conversion funnel. The conversion rate
// of the first step is nil (there is no previous step), and any step whose
// previous step is empty also gets a nil rate rather than a division by zero.
func BuildFunnel(tables *dataset.Tables) []FunnelStep {
	cohorts := []struct {
		label  string
		cohort dataset.Cohort
	}{
		{"1. Signed Up", tables.SignedUp()},
		{"2. Viewed Feature", tables.UsersWithEvent(ViewedFeatureEvent)},
		{"3. Returned 7d", returnedBetween(tables, 1, 7)},
		{"4. Upgraded", tables.Upgraded()},
	}

	totalSignups := cohorts[0].cohort.Len()

	steps := make([]FunnelStep, 0, len(cohorts))
	for i, c := range cohorts {
		step := FunnelStep{
			Step:         c.label,
			Users:        c.cohort.Len(),
			PctOfSignups: rate(c.cohort.Len(), totalSignups),
		}
		if i > 0 && cohorts[i-1].cohort.Len() > 0 {
			r := rate(c.cohort.Len(), cohorts[i-1].cohort.Len())
			step.ConversionRate = &r
		}
		steps = append(steps, step)
	}
	return steps
}

// RetentionWeek is one row of the weekly retention table.
type RetentionWeek struct {
	Week         int
	ActiveUsers  int
	RetentionPct float64
}

// CalculateRetention buckets each event into a signup-relative week number
// and reports, for every week in [0, weeks], the share of the full signup
// cohort active that week. Events before signup land in negative weeks and
// fall outside the reported range; they are surfaced by validation instead.
func CalculateRetention(tables *dataset.Tables, weeks int) []RetentionWeek {
	signups := tables.SignupDates()
	totalUsers := len(tables.Users)

	activeByWeek := make(map[int]dataset.Cohort)
	for _, e := range tables.Events {
		signup, ok := signups[e.UserID]
		if !ok {
			continue
		}
		week := floorDiv(daysBetween(e.Time, signup), 7)
		if activeByWeek[week] == nil {
			activeByWeek[week] = dataset.NewCohort()
		}
		activeByWeek[week].Add(e.UserID)
	}

	rows := make([]RetentionWeek, 0, weeks+1)
	for week := 0; week <= weeks; week++ {
		active := activeByWeek[week].Len()
		rows = append(rows, RetentionWeek{
			Week:         week,
			ActiveUsers:  active,
			RetentionPct: rate(active, totalUsers),
		})
	}
	return rows
}

// UpgradeWindow summarizes how many users upgraded within a fixed number of
// days of signing up.
type UpgradeWindow struct {
	WindowDays  int
	Upgraded    int
	TotalUsers  int
	UpgradeRate float64
}

// UpgradeRateWithin counts distinct users with a payment at most windowDays
// after signup. Payments referencing unknown users have no signup date to
// anchor the window and are skipped.
func UpgradeRateWithin(tables *dataset.Tables, windowDays int) UpgradeWindow {
	signups := tables.SignupDates()
	upgraded := dataset.NewCohort()
	for _, p := range tables.Payments {
		signup, ok := signups[p.UserID]
		if !ok {
			continue
		}
		if daysBetween(p.Date, signup) <= windowDays {
			upgraded.Add(p.UserID)
		}
	}

	return UpgradeWindow{
		WindowDays:  windowDays,
		Upgraded:    upgraded.Len(),
		TotalUsers:  len(tables.Users),
		UpgradeRate: rate(upgraded.Len(), len(tables.Users)),
	}
}
