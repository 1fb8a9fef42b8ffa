package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testCSVSource(t *testing.T, users, events, payments string) *CSVSource {
	t.Helper()
	dir := t.TempDir()
	return &CSVSource{
		UsersPath:    writeFile(t, dir, "users.csv", users),
		EventsPath:   writeFile(t, dir, "events.csv", events),
		PaymentsPath: writeFile(t, dir, "payments.csv", payments),
	}
}

const (
	usersCSV = `user_id,signup_date,country,device,source
u1,2024-01-01,US,ios,ads
u2,2024-01-02 09:30:00,UK,android,organic
`
	eventsCSV = `user_id,event_name,event_time
u1,viewed_feature,2024-01-03 14:00:00
u1,login,2024-01-04
`
	paymentsCSV = `user_id,payment_date
u1,2024-01-10
`
)

func TestCSVSourceLoad(t *testing.T) {
	src := testCSVSource(t, usersCSV, eventsCSV, paymentsCSV)
	ctx := context.Background()

	require.NoError(t, src.Connect(ctx))
	defer src.Close()

	tables, err := src.Load(ctx)
	require.NoError(t, err)

	require.Len(t, tables.Users, 2)
	assert.Equal(t, "u1", tables.Users[0].ID)
	assert.Equal(t, "US", tables.Users[0].Country)
	assert.Equal(t, time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC), tables.Users[1].SignupDate)

	require.Len(t, tables.Events, 2)
	assert.Equal(t, "viewed_feature", tables.Events[0].Name)
	assert.Equal(t, time.Date(2024, 1, 3, 14, 0, 0, 0, time.UTC), tables.Events[0].Time)

	require.Len(t, tables.Payments, 1)
	assert.Equal(t, "u1", tables.Payments[0].UserID)
}

func TestCSVSourceMissingColumn(t *testing.T) {
	src := testCSVSource(t,
		"user_id,signup_date,country,device\nu1,2024-01-01,US,ios\n",
		eventsCSV, paymentsCSV)

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "users")
	assert.Contains(t, err.Error(), "source")
}

func TestCSVSourceBadTimestamp(t *testing.T) {
	src := testCSVSource(t, usersCSV,
		"user_id,event_name,event_time\nu1,login,yesterday\n",
		paymentsCSV)

	_, err := src.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "events")
	assert.Contains(t, err.Error(), "event_time")
	assert.Contains(t, err.Error(), "yesterday")
}

func TestCSVSourceConnectMissingFile(t *testing.T) {
	src := &CSVSource{
		UsersPath:    filepath.Join(t.TempDir(), "nope.csv"),
		EventsPath:   "events.csv",
		PaymentsPath: "payments.csv",
	}
	assert.Error(t, src.Connect(context.Background()))
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		value string
		want  time.Time
	}{
		{"2024-01-02", time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{"2024-01-02 15:04:05", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"2024-01-02T15:04:05", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
		{"2024-01-02T15:04:05Z", time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := ParseTimestamp(tt.value)
			require.NoError(t, err)
			assert.True(t, got.Equal(tt.want))
		})
	}

	_, err := ParseTimestamp("01/02/2024")
	assert.Error(t, err)
}
