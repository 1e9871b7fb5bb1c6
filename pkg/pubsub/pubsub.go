package pubsub

import (
	"context"
	"encoding/json"
	"time"
)

// Event represents a pub/sub event
type Event struct {
	Topic   string          `json:"topic"`   // Subscription topic (e.g., "graph")
	Type    string          `json:"type"`    // Event type (e.g., "extracted", "reloading")
	Data    json.RawMessage `json:"data"`    // Event payload
	Version int             `json:"version"` // Version number for ordering
}

// Subscription represents a client subscription to a topic
type Subscription interface {
	// Topic returns the subscription topic
	Topic() string

	// Events returns a channel for receiving events
	Events() <-chan Event

	// Close closes the subscription
	Close() error
}

// Publisher manages pub/sub subscriptions and event publishing
type Publisher interface {
	// Subscribe creates a new subscription to a topic
	// Context cancellation will close the subscription
	Subscribe(ctx context.Context, topic string) (Subscription, error)

	// Publish sends an event to all subscribers of a topic
	Publish(topic string, eventType string, data interface{}) error

	// Close shuts down the publisher and all subscriptions
	Close() error
}

// GraphUpdate summarizes a fresh extraction for web subscribers. The
// full subgraph is fetched from the API endpoints.
type GraphUpdate struct {
	Target      int64     `json:"target"`
	Nodes       int       `json:"nodes"`
	Edges       int       `json:"edges"`
	Dropped     int       `json:"dropped"` // dangling references dropped at index build
	GeneratedAt time.Time `json:"generated_at"`
}
