// Package source loads the three input tables from one of several backends.
// Every backend produces the same dataset.Tables snapshot; the analysis
// layer never knows where the rows came from.
package source

import (
	"context"
	"fmt"
	"time"

	"conversion-analytics/internal/dataset"
)

// Source is a backend able to produce the users, events and payments tables.
type Source interface {
	Connect(ctx context.Context) error
	Close() error
	Load(ctx context.Context) (*dataset.Tables, error)
}

// Required column sets per table. Backends report these names in errors so
// a broken input is traceable to the dataset and column.
const (
	ColUserID      = "user_id"
	ColSignupDate  = "signup_date"
	ColCountry     = "country"
	ColDevice      = "device"
	ColSource      = "source"
	ColEventName   = "event_name"
	ColEventTime   = "event_time"
	ColPaymentDate = "payment_date"
)

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02",
}

// ParseTimestamp parses a timestamp column value, accepting the common
// date-time layouts the exporters produce.
func ParseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

// columnError wraps err with the dataset, column and row it came from.
func columnError(table, column string, row int, err error) error {
	return fmt.Errorf("%s: row %d: column %q: %w", table, row, column, err)
}
