package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"

	"conversion-analytics/internal/dataset"
)

// CSVSource reads the three tables from delimited files.
type CSVSource struct {
	UsersPath    string
	EventsPath   string
	PaymentsPath string
}

func (s *CSVSource) Connect(ctx context.Context) error {
	for _, path := range []string{s.UsersPath, s.EventsPath, s.PaymentsPath} {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("csv source: %w", err)
		}
	}
	return nil
}

func (s *CSVSource) Close() error {
	return nil
}

func (s *CSVSource) Load(ctx context.Context) (*dataset.Tables, error) {
	users, err := s.loadUsers()
	if err != nil {
		return nil, err
	}
	events, err := s.loadEvents()
	if err != nil {
		return nil, err
	}
	payments, err := s.loadPayments()
	if err != nil {
		return nil, err
	}
	return &dataset.Tables{Users: users, Events: events, Payments: payments}, nil
}

// table is one parsed delimited file: a header index plus the data records.
type table struct {
	name    string
	columns map[string]int
	records [][]string
}

func readTable(name, path string, required ...string) (*table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: missing header row", name)
	}

	columns := make(map[string]int, len(rows[0]))
	for i, col := range rows[0] {
		columns[col] = i
	}
	for _, col := range required {
		if _, ok := columns[col]; !ok {
			return nil, fmt.Errorf("%s: missing required column %q", name, col)
		}
	}

	return &table{name: name, columns: columns, records: rows[1:]}, nil
}

func (t *table) value(record []string, column string) string {
	return record[t.columns[column]]
}

func (s *CSVSource) loadUsers() ([]dataset.User, error) {
	t, err := readTable("users", s.UsersPath,
		ColUserID, ColSignupDate, ColCountry, ColDevice, ColSource)
	if err != nil {
		return nil, err
	}

	users := make([]dataset.User, 0, len(t.records))
	for i, record := range t.records {
		signup, err := ParseTimestamp(t.value(record, ColSignupDate))
		if err != nil {
			return nil, columnError("users", ColSignupDate, i+1, err)
		}
		users = append(users, dataset.User{
			ID:         t.value(record, ColUserID),
			SignupDate: signup,
			Country:    t.value(record, ColCountry),
			Device:     t.value(record, ColDevice),
			Source:     t.value(record, ColSource),
		})
	}
	return users, nil
}

func (s *CSVSource) loadEvents() ([]dataset.Event, error) {
	t, err := readTable("events", s.EventsPath, ColUserID, ColEventName, ColEventTime)
	if err != nil {
		return nil, err
	}

	events := make([]dataset.Event, 0, len(t.records))
	for i, record := range t.records {
		ts, err := ParseTimestamp(t.value(record, ColEventTime))
		if err != nil {
			return nil, columnError("events", ColEventTime, i+1, err)
		}
		events = append(events, dataset.Event{
			UserID: t.value(record, ColUserID),
			Name:   t.value(record, ColEventName),
			Time:   ts,
		})
	}
	return events, nil
}

func (s *CSVSource) loadPayments() ([]dataset.Payment, error) {
	t, err := readTable("payments", s.PaymentsPath, ColUserID, ColPaymentDate)
	if err != nil {
		return nil, err
	}

	payments := make([]dataset.Payment, 0, len(t.records))
	for i, record := range t.records {
		ts, err := ParseTimestamp(t.value(record, ColPaymentDate))
		if err != nil {
			return nil, columnError("payments", ColPaymentDate, i+1, err)
		}
		payments = append(payments, dataset.Payment{
			UserID: t.value(record, ColUserID),
			Date:   ts,
		})
	}
	return payments, nil
}
