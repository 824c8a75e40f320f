package pubsub

import (
	"context"
	"encoding/json"
)

// Event wraps a topic name and provides type-safe publishing.
type Event[T any] struct {
	topic string
}

// NewEvent creates a typed event on topic.
func NewEvent[T any](topic string) Event[T] {
	return Event[T]{topic: topic}
}

// Name returns the topic name.
func (e Event[T]) Name() string {
	return e.topic
}

// Publish sends a typed event. The compiler ensures payload matches T.
func Publish[T any](ctx context.Context, p Publisher, event Event[T], match string, payload T) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, Message{
		Topic:   event.Name(),
		Match:   match,
		Payload: data,
	})
}

// Decode unmarshals the payload of a message published for e.
func (e Event[T]) Decode(msg Message) (T, error) {
	var v T
	err := json.Unmarshal(msg.Payload, &v)
	return v, err
}
