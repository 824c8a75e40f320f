// Package pubsub is the in-process message bus the relay publishes its
// traffic on. Observers such as spectators or a match recorder subscribe
// to topics without touching the relay's sockets.
package pubsub

import (
	"context"
)

// Relay topics.
const (
	// TopicFrames carries every frame forwarded between two players.
	TopicFrames = "relay.frames"
	// TopicMatches carries match lifecycle events.
	TopicMatches = "relay.matches"
)

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to.
	Topic string
	// Match identifies the match the message belongs to.
	Match string
	// Payload contains the raw message data.
	Payload []byte
	// Metadata can contain arbitrary key-value pairs for context.
	Metadata map[string]string
}

// Handler defines the function signature for processing a received message.
type Handler func(ctx context.Context, msg Message) error

// Publisher defines the contract for sending messages to the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber defines the contract for receiving messages from the bus.
type Subscriber interface {
	// Subscribe starts listening to the given topic, processing messages
	// with the handler in the background until ctx is canceled.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
