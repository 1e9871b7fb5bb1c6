package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/tbakker/sno-graph/pkg/logging"
)

// TopicConfig controls what a new subscriber sees of a topic's history.
type TopicConfig struct {
	BufferSize int  // events retained for replay; 0 disables buffering
	ReplayAll  bool // replay the whole buffer instead of only the latest event
}

// topicState is everything the publisher tracks per topic. Versions and
// buffers survive the last subscriber leaving, so a reconnecting client
// still gets the current extraction replayed.
type topicState struct {
	config  TopicConfig
	version int
	buffer  []Event
	subs    map[*sseSubscription]struct{}
}

// SSEPublisher implements Publisher for Server-Sent Events delivery.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topicState
	closed bool
}

// NewSSEPublisher creates an SSE-backed publisher.
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topicState)}
}

// topic returns the state for name, creating it on first use. Callers
// hold p.mu.
func (p *SSEPublisher) topic(name string) *topicState {
	st := p.topics[name]
	if st == nil {
		st = &topicState{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = st
	}
	return st
}

// ConfigureTopic sets the replay behavior for a topic. Unconfigured
// topics deliver live events only.
func (p *SSEPublisher) ConfigureTopic(topic string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(topic).config = config
}

// Subscribe registers a subscriber on a topic, replays the buffered
// history per the topic's config, and closes the subscription when the
// context is canceled.
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("publisher is closed")
	}

	st := p.topic(topic)
	sub := &sseSubscription{
		topic: topic,
		// Buffered so a slow reader stalls itself, not the pipeline.
		events: make(chan Event, 100),
		owner:  p,
	}
	st.subs[sub] = struct{}{}

	replay := make([]Event, len(st.buffer))
	copy(replay, st.buffer)
	if !st.config.ReplayAll && len(replay) > 1 {
		replay = replay[len(replay)-1:]
	}

	p.mu.Unlock()

	for _, event := range replay {
		select {
		case sub.events <- event:
		default:
			logging.Warn("could not replay event to new subscriber", "topic", topic)
		}
	}
	if len(replay) > 0 {
		logging.Debug("replayed buffered events to new subscriber", "topic", topic, "count", len(replay))
	}

	go func() {
		<-ctx.Done()
		sub.Close()
	}()

	return sub, nil
}

// Publish versions the payload, buffers it per the topic config, and
// fans it out to the topic's subscribers without blocking on any of
// them.
func (p *SSEPublisher) Publish(topic string, eventType string, data interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return fmt.Errorf("publisher is closed")
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	st := p.topic(topic)
	st.version++
	event := Event{
		Topic:   topic,
		Type:    eventType,
		Data:    jsonData,
		Version: st.version,
	}

	if st.config.BufferSize > 0 {
		st.buffer = append(st.buffer, event)
		if len(st.buffer) > st.config.BufferSize {
			st.buffer = st.buffer[len(st.buffer)-st.config.BufferSize:]
		}
	}

	for sub := range st.subs {
		select {
		case sub.events <- event:
		default:
			logging.Warn("subscription channel full, dropping event", "topic", topic)
		}
	}

	return nil
}

// Close shuts down the publisher and every subscription.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, st := range p.topics {
		for sub := range st.subs {
			close(sub.events)
		}
		st.subs = make(map[*sseSubscription]struct{})
	}

	return nil
}

func (p *SSEPublisher) unsubscribe(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if st := p.topics[sub.topic]; st != nil {
		delete(st.subs, sub)
	}
}

type sseSubscription struct {
	topic  string
	events chan Event
	owner  *SSEPublisher
	mu     sync.Mutex
	closed bool
}

func (s *sseSubscription) Topic() string {
	return s.topic
}

func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

func (s *sseSubscription) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.owner.unsubscribe(s)

	return nil
}

// WriteSSE writes one event as an SSE data frame: "data: {json}\n\n".
func WriteSSE(w io.Writer, event Event) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	_, err = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	return err
}
