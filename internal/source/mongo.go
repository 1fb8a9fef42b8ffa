package source

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"conversion-analytics/internal/dataset"
)

// MongoSource loads the three tables from users, events and payments
// collections of one database.
type MongoSource struct {
	DSN      string
	Database string
	client   *mongo.Client
}

type mongoUser struct {
	UserID     string    `bson:"user_id"`
	SignupDate time.Time `bson:"signup_date"`
	Country    string    `bson:"country"`
	Device     string    `bson:"device"`
	Source     string    `bson:"source"`
}

type mongoEvent struct {
	UserID    string    `bson:"user_id"`
	EventName string    `bson:"event_name"`
	EventTime time.Time `bson:"event_time"`
}

type mongoPayment struct {
	UserID      string    `bson:"user_id"`
	PaymentDate time.Time `bson:"payment_date"`
}

func (s *MongoSource) Connect(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.DSN))
	if err != nil {
		return fmt.Errorf("mongo source: %w", err)
	}
	s.client = client
	return nil
}

func (s *MongoSource) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

func (s *MongoSource) collection(name string) *mongo.Collection {
	return s.client.Database(s.Database).Collection(name)
}

func (s *MongoSource) Load(ctx context.Context) (*dataset.Tables, error) {
	tables := &dataset.Tables{}

	cursor, err := s.collection("users").Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	var users []mongoUser
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("users: %w", err)
	}
	for _, u := range users {
		tables.Users = append(tables.Users, dataset.User{
			ID:         u.UserID,
			SignupDate: u.SignupDate,
			Country:    u.Country,
			Device:     u.Device,
			Source:     u.Source,
		})
	}

	cursor, err = s.collection("events").Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	var events []mongoEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("events: %w", err)
	}
	for _, e := range events {
		tables.Events = append(tables.Events, dataset.Event{
			UserID: e.UserID,
			Name:   e.EventName,
			Time:   e.EventTime,
		})
	}

	cursor, err = s.collection("payments").Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}
	var payments []mongoPayment
	if err := cursor.All(ctx, &payments); err != nil {
		return nil, fmt.Errorf("payments: %w", err)
	}
	for _, p := range payments {
		tables.Payments = append(tables.Payments, dataset.Payment{
			UserID: p.UserID,
			Date:   p.PaymentDate,
		})
	}

	return tables, nil
}
