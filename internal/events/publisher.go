// Package events publishes account lifecycle notifications for downstream
// consumers such as welcome mailers. Delivery is best effort.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
)

type Type string

const (
	UserRegistered   Type = "user.registered"
	UserLogin        Type = "user.login"
	UserGoogleLogin  Type = "user.google_login"
	UserGoogleLinked Type = "user.google_linked"
)

type Event struct {
	Type       Type      `json:"type"`
	UserID     string    `json:"user_id"`
	Email      string    `json:"email"`
	Provider   string    `json:"provider,omitempty"`
	NewAccount bool      `json:"new_account,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) error { return nil }
func (Noop) Close() error                         { return nil }

// RedisStream appends events to a Redis stream.
type RedisStream struct {
	client *redis.Client
	stream string
}

func NewRedisStream(client *redis.Client, stream string) *RedisStream {
	return &RedisStream{client: client, stream: stream}
}

func (p *RedisStream) Publish(ctx context.Context, event Event) error {
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: 100000,
		Approx: true,
		Values: map[string]any{
			"type":        string(event.Type),
			"user_id":     event.UserID,
			"email":       event.Email,
			"provider":    event.Provider,
			"new_account": event.NewAccount,
			"occurred_at": event.OccurredAt.UTC().Format(time.RFC3339),
		},
	}).Err()
}

func (p *RedisStream) Close() error { return nil }

// Kafka writes events as JSON keyed by event type.
type Kafka struct {
	writer *kafka.Writer
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			WriteTimeout: 10 * time.Second,
		},
	}
}

func (p *Kafka) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
		Time:  event.OccurredAt,
	})
}

func (p *Kafka) Close() error {
	return p.writer.Close()
}
