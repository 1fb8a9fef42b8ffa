package source

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"

	"conversion-analytics/internal/dataset"
)

// MySQLSource loads the three tables from a MySQL database. The DSN must
// carry parseTime=true so timestamp columns scan into time.Time.
type MySQLSource struct {
	DSN string
	db  *sql.DB
}

func (s *MySQLSource) Connect(ctx context.Context) error {
	db, err := sql.Open("mysql", s.DSN)
	if err != nil {
		return fmt.Errorf("mysql source: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("mysql source: %w", err)
	}
	s.db = db
	return nil
}

func (s *MySQLSource) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *MySQLSource) Load(ctx context.Context) (*dataset.Tables, error) {
	tables := &dataset.Tables{}

	err := s.queryRows(ctx, "users",
		"SELECT user_id, signup_date, country, device, source FROM users",
		func(rows *sql.Rows) error {
			var u dataset.User
			if err := rows.Scan(&u.ID, &u.SignupDate, &u.Country, &u.Device, &u.Source); err != nil {
				return err
			}
			tables.Users = append(tables.Users, u)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = s.queryRows(ctx, "events",
		"SELECT user_id, event_name, event_time FROM events",
		func(rows *sql.Rows) error {
			var e dataset.Event
			if err := rows.Scan(&e.UserID, &e.Name, &e.Time); err != nil {
				return err
			}
			tables.Events = append(tables.Events, e)
			return nil
		})
	if err != nil {
		return nil, err
	}

	err = s.queryRows(ctx, "payments",
		"SELECT user_id, payment_date FROM payments",
		func(rows *sql.Rows) error {
			var p dataset.Payment
			if err := rows.Scan(&p.UserID, &p.Date); err != nil {
				return err
			}
			tables.Payments = append(tables.Payments, p)
			return nil
		})
	if err != nil {
		return nil, err
	}

	return tables, nil
}

func (s *MySQLSource) queryRows(ctx context.Context, tableName, query string, scan func(*sql.Rows) error) error {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: %w", tableName, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("%s: %w", tableName, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%s: %w", tableName, err)
	}
	return nil
}
