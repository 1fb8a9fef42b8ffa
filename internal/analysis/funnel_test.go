package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"conversion-analytics/internal/dataset"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func twoUserTables() *dataset.Tables {
	return &dataset.Tables{
		Users: []dataset.User{
			{ID: "u1", SignupDate: day(2024, 1, 1), Country: "US", Device: "ios", Source: "ads"},
			{ID: "u2", SignupDate: day(2024, 1, 1), Country: "UK", Device: "android", Source: "organic"},
		},
		Events: []dataset.Event{
			{UserID: "u1", Name: "viewed_feature", Time: day(2024, 1, 3)},
		},
		Payments: []dataset.Payment{
			{UserID: "u1", Date: day(2024, 1, 10)},
		},
	}
}

func TestBuildFunnelWorkedExample(t *testing.T) {
	steps := BuildFunnel(twoUserTables())
	require.Len(t, steps, 4)

	assert.Equal(t, "1. Signed Up", steps[0].Step)
	assert.Equal(t, 2, steps[0].Users)
	assert.Nil(t, steps[0].ConversionRate, "first step has no previous step")
	assert.Equal(t, 100.0, steps[0].PctOfSignups)

	assert.Equal(t, 1, steps[1].Users)
	require.NotNil(t, steps[1].ConversionRate)
	assert.Equal(t, 50.0, *steps[1].ConversionRate)

	// The viewed_feature event is 2 days after signup, inside [1, 7].
	assert.Equal(t, 1, steps[2].Users)
	require.NotNil(t, steps[2].ConversionRate)
	assert.Equal(t, 100.0, *steps[2].ConversionRate)

	assert.Equal(t, 1, steps[3].Users)
	require.NotNil(t, steps[3].ConversionRate)
	assert.Equal(t, 100.0, *steps[3].ConversionRate)
	assert.Equal(t, 50.0, steps[3].PctOfSignups)
}

func TestBuildFunnelSubsetRelationships(t *testing.T) {
	tables := &dataset.Tables{
		Users: []dataset.User{
			{ID: "u1", SignupDate: day(2024, 1, 1)},
			{ID: "u2", SignupDate: day(2024, 1, 1)},
			{ID: "u3", SignupDate: day(2024, 1, 1)},
		},
		Events: []dataset.Event{
			// u2 returns without ever viewing the feature: step 3 is not a
			// subset of step 2.
			{UserID: "u2", Name: "login", Time: day(2024, 1, 4)},
			{UserID: "u1", Name: "viewed_feature", Time: day(2024, 1, 1)},
		},
		Payments: []dataset.Payment{{UserID: "u3", Date: day(2024, 1, 5)}},
	}

	signedUp := tables.SignedUp()
	viewed := tables.UsersWithEvent(ViewedFeatureEvent)
	returned := returnedBetween(tables, 1, 7)
	upgraded := tables.Upgraded()

	for id := range viewed {
		assert.True(t, signedUp.Contains(id))
	}
	for id := range upgraded {
		assert.True(t, signedUp.Contains(id))
	}
	assert.True(t, returned.Contains("u2"))
	assert.False(t, viewed.Contains("u2"))
}

func TestBuildFunnelEmptyPreviousStep(t *testing.T) {
	// Nobody viewed the feature, so step 3's rate against an empty step 2
	// must be the defined sentinel, not a division by zero.
	tables := &dataset.Tables{
		Users: []dataset.User{{ID: "u1", SignupDate: day(2024, 1, 1)}},
		Events: []dataset.Event{
			{UserID: "u1", Name: "login", Time: day(2024, 1, 2)},
		},
	}

	steps := BuildFunnel(tables)
	assert.Equal(t, 0, steps[1].Users)
	assert.Equal(t, 1, steps[2].Users)
	assert.Nil(t, steps[2].ConversionRate)
}

func TestBuildFunnelNoUsers(t *testing.T) {
	steps := BuildFunnel(&dataset.Tables{})
	require.Len(t, steps, 4)
	for _, step := range steps {
		assert.Equal(t, 0, step.Users)
		assert.Equal(t, 0.0, step.PctOfSignups)
	}
}

func TestReturnedBetweenBoundaries(t *testing.T) {
	tests := []struct {
		name     string
		event    time.Time
		returned bool
	}{
		{"same day excluded", at(2024, 1, 1, 12), false},
		{"day one included", day(2024, 1, 2), true},
		{"day seven included", day(2024, 1, 8), true},
		{"day eight excluded", day(2024, 1, 9), false},
		{"before signup excluded", day(2023, 12, 30), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tables := &dataset.Tables{
				Users:  []dataset.User{{ID: "u1", SignupDate: day(2024, 1, 1)}},
				Events: []dataset.Event{{UserID: "u1", Name: "login", Time: tt.event}},
			}
			assert.Equal(t, tt.returned, returnedBetween(tables, 1, 7).Contains("u1"))
		})
	}
}

func TestCalculateRetention(t *testing.T) {
	tables := &dataset.Tables{
		Users: []dataset.User{
			{ID: "u1", SignupDate: day(2024, 1, 1)},
			{ID: "u2", SignupDate: day(2024, 1, 1)},
		},
		Events: []dataset.Event{
			{UserID: "u1", Name: "login", Time: day(2024, 1, 2)},  // week 0
			{UserID: "u1", Name: "login", Time: day(2024, 1, 3)},  // week 0, same user
			{UserID: "u2", Name: "login", Time: day(2024, 1, 10)}, // week 1
			{UserID: "u2", Name: "login", Time: day(2024, 2, 20)}, // week 7
		},
	}

	rows := CalculateRetention(tables, 12)
	require.Len(t, rows, 13)

	assert.Equal(t, 1, rows[0].ActiveUsers)
	assert.Equal(t, 50.0, rows[0].RetentionPct)
	assert.Equal(t, 1, rows[1].ActiveUsers)
	assert.Equal(t, 0, rows[2].ActiveUsers)
	assert.Equal(t, 1, rows[7].ActiveUsers)

	for _, row := range rows {
		assert.GreaterOrEqual(t, row.RetentionPct, 0.0)
		assert.LessOrEqual(t, row.RetentionPct, 100.0)
	}
}

func TestCalculateRetentionDropsPreSignupEvents(t *testing.T) {
	tables := &dataset.Tables{
		Users: []dataset.User{{ID: "u1", SignupDate: day(2024, 1, 10)}},
		Events: []dataset.Event{
			// An event six days before signup lands in week -1, not week 0.
			{UserID: "u1", Name: "login", Time: day(2024, 1, 4)},
		},
	}

	rows := CalculateRetention(tables, 4)
	assert.Equal(t, 0, rows[0].ActiveUsers)
}

func TestCalculateRetentionNoUsers(t *testing.T) {
	rows := CalculateRetention(&dataset.Tables{}, 2)
	require.Len(t, rows, 3)
	for _, row := range rows {
		assert.Equal(t, 0.0, row.RetentionPct)
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, 0, floorDiv(3, 7))
	assert.Equal(t, 1, floorDiv(7, 7))
	assert.Equal(t, -1, floorDiv(-3, 7))
	assert.Equal(t, -1, floorDiv(-7, 7))
	assert.Equal(t, -2, floorDiv(-8, 7))
}

func TestUpgradeRateWithin(t *testing.T) {
	tables := &dataset.Tables{
		Users: []dataset.User{
			{ID: "u1", SignupDate: day(2024, 1, 1)},
			{ID: "u2", SignupDate: day(2024, 1, 1)},
			{ID: "u3", SignupDate: day(2024, 1, 1)},
		},
		Payments: []dataset.Payment{
			{UserID: "u1", Date: day(2024, 1, 15)}, // inside window
			{UserID: "u2", Date: day(2024, 3, 1)},  // outside window
			{UserID: "u1", Date: day(2024, 1, 20)}, // same user, still one upgrade
			{UserID: "ghost", Date: day(2024, 1, 5)},
		},
	}

	window := UpgradeRateWithin(tables, 30)
	assert.Equal(t, 30, window.WindowDays)
	assert.Equal(t, 1, window.Upgraded)
	assert.Equal(t, 3, window.TotalUsers)
	assert.InDelta(t, 33.33, window.UpgradeRate, 0.01)
}
