// Package events publishes user lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"

	"github.com/patric-chuzhbe/userprofiles/internal/models"
)

// EventUserCreated is the value of the event-type header of a create event.
const EventUserCreated = "user_created"

// ErrPublisherClosed is returned by Publish calls made after Close.
var ErrPublisherClosed = errors.New("event publisher is closed")

// Publisher sends one event per stored user record.
type Publisher interface {
	PublishUsersCreated(ctx context.Context, users []models.User) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes create events to a single topic. Messages are keyed
// by the store identifier so every record lands on a stable partition.
type KafkaPublisher struct {
	writer messageWriter
	mu     sync.Mutex
	closed bool
}

// New returns a Kafka publisher, or a no-op publisher when brokers is empty.
func New(brokers []string, topic string) Publisher {
	if len(brokers) == 0 {
		return NopPublisher{}
	}

	return newKafkaPublisher(&kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	})
}

func newKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

// PublishUsersCreated sends every record of users as a JSON message in a
// single write.
func (p *KafkaPublisher) PublishUsersCreated(ctx context.Context, users []models.User) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return ErrPublisherClosed
	}

	if len(users) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(users))
	for _, usr := range users {
		msg, err := userCreatedMessage(usr)
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	return p.writer.WriteMessages(ctx, msgs...)
}

func userCreatedMessage(usr models.User) (kafka.Message, error) {
	value, err := json.Marshal(usr)
	if err != nil {
		return kafka.Message{}, err
	}

	return kafka.Message{
		Key:   []byte(usr.StoreID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(EventUserCreated)},
		},
	}, nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	return p.writer.Close()
}

// NopPublisher discards every event.
type NopPublisher struct{}

func (NopPublisher) PublishUsersCreated(ctx context.Context, users []models.User) error {
	return nil
}

func (NopPublisher) Close() error {
	return nil
}
