package source

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"conversion-analytics/internal/dataset"
)

// PostgresSource loads the three tables from a Postgres database.
type PostgresSource struct {
	DSN  string
	conn *pgx.Conn
}

func (s *PostgresSource) Connect(ctx context.Context) error {
	conn, err := pgx.Connect(ctx, s.DSN)
	if err != nil {
		return fmt.Errorf("postgres source: %w", err)
	}
	s.conn = conn
	return nil
}

func (s *PostgresSource) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close(context.Background())
}

func (s *PostgresSource) Load(ctx context.Context) (*dataset.Tables, error) {
	tables := &dataset.Tables{}

	rows, err := s.conn.Query(ctx,
		"SELECT user_id, signup_date, country, device, source FROM users")
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	for rows.Next() {
		var u dataset.User
		if err := rows.Scan(&u.ID, &u.SignupDate, &u.Country, &u.Device, &u.Source); err != nil {
			rows.Close()
			return nil, fmt.Errorf("users: %w", err)
		}
		tables.Users = append(tables.Users, u)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}

	rows, err = s.conn.Query(ctx,
		"SELECT user_id, event_name, event_time FROM events")
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	for rows.Next() {
		var e dataset.Event
		if err := rows.Scan(&e.UserID, &e.Name, &e.Time); err != nil {
			rows.Close()
			return nil, fmt.Errorf("events: %w", err)
		}
		tables.Events = append(tables.Events, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}

	rows, err = s.conn.Query(ctx,
		"SELECT user_id, payment_date FROM payments")
	if err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}
	for rows.Next() {
		var p dataset.Payment
		if err := rows.Scan(&p.UserID, &p.Date); err != nil {
			rows.Close()
			return nil, fmt.Errorf("payments: %w", err)
		}
		tables.Payments = append(tables.Payments, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}

	return tables, nil
}
