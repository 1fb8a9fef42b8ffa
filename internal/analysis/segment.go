package analysis

import (
	"fmt"
	"sort"

	"conversion-analytics/internal/dataset"
)

// Segment columns supported by SegmentBy.
const (
	SegmentByCountry = "country"
	SegmentByDevice  = "device"
	SegmentBySource  = "source"
)

// SegmentRow is the funnel summary for one value of a categorical user
// attribute.
type SegmentRow struct {
	Value         string
	Signups       int
	ViewedFeature int
	Returned7d    int
	Upgraded      int
	ViewRate      float64
	ReturnRate    float64
	UpgradeRate   float64
}

func segmentAttribute(column string) (func(dataset.User) string, error) {
	switch column {
	case SegmentByCountry:
		return func(u dataset.User) string { return u.Country }, nil
	case SegmentByDevice:
		return func(u dataset.User) string { return u.Device }, nil
	case SegmentBySource:
		return func(u dataset.User) string { return u.Source }, nil
	}
	return nil, fmt.Errorf("unknown segment column %q", column)
}

// SegmentBy repeats the funnel cohort intersections once per distinct
// non-empty value of the given user column. Users with an empty attribute
// value are left out of every segment. Rows are ordered by upgrade rate
// descending, ties keeping first-appearance order.
func SegmentBy(tables *dataset.Tables, column string) ([]SegmentRow, error) {
	attr, err := segmentAttribute(column)
	if err != nil {
		return nil, err
	}

	viewed := tables.UsersWithEvent(ViewedFeatureEvent)
	returned := returnedBetween(tables, 1, 7)
	upgraded := tables.Upgraded()

	segments := make(map[string]dataset.Cohort)
	var order []string
	for _, u := range tables.Users {
		value := attr(u)
		if value == "" {
			continue
		}
		if segments[value] == nil {
			segments[value] = dataset.NewCohort()
			order = append(order, value)
		}
		segments[value].Add(u.ID)
	}

	rows := make([]SegmentRow, 0, len(order))
	for _, value := range order {
		users := segments[value]
		signups := users.Len()
		viewedCount := users.Intersect(viewed).Len()
		returnedCount := users.Intersect(returned).Len()
		upgradedCount := users.Intersect(upgraded).Len()

		rows = append(rows, SegmentRow{
			Value:         value,
			Signups:       signups,
			ViewedFeature: viewedCount,
			Returned7d:    returnedCount,
			Upgraded:      upgradedCount,
			ViewRate:      rate(viewedCount, signups),
			ReturnRate:    rate(returnedCount, signups),
			UpgradeRate:   rate(upgradedCount, signups),
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].UpgradeRate > rows[j].UpgradeRate
	})
	return rows, nil
}
