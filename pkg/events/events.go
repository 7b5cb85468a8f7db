package events

import (
	"sync"
	"time"
)

// EventType represents the type of domain event
type EventType string

const (
	EventJobSubmitted      EventType = "job.submitted"
	EventJobScheduled      EventType = "job.scheduled"
	EventJobRunning        EventType = "job.running"
	EventJobCompleted      EventType = "job.completed"
	EventJobFailed         EventType = "job.failed"
	EventJobCancelled      EventType = "job.cancelled"
	EventJobRequeued       EventType = "job.requeued"
	EventPoolScaledUp      EventType = "pool.scaled_up"
	EventPoolScaledDown    EventType = "pool.scaled_down"
	EventWorkerRegistered  EventType = "worker.registered"
	EventWorkerLost        EventType = "worker.lost"
	EventQuotaViolated     EventType = "quota.violated"
	EventQuotaAlert        EventType = "quota.alert"
	EventArtifactCached    EventType = "artifact.cached"
	EventArtifactTransfer  EventType = "artifact.transferred"
)

// Event represents a domain event published by the orchestrator
type Event struct {
	ID        string
	Type      EventType
	Timestamp time.Time
	Message   string
	Metadata  map[string]string
}

// Publisher is the fire-and-forget domain event port consumed by the core
type Publisher interface {
	Publish(event *Event)
}

// Broker fans out values of one type to all subscribers. It is used for
// domain events as well as the quota alert, violation and utilization
// broadcast streams.
type Broker[T any] struct {
	subscribers map[chan T]bool
	mu          sync.RWMutex
	eventCh     chan T
	stopCh      chan struct{}
	stopOnce    sync.Once
}

// NewBroker creates a new broker with a buffered ingress channel
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{
		subscribers: make(map[chan T]bool),
		eventCh:     make(chan T, 100),
		stopCh:      make(chan struct{}),
	}
}

// Start begins the broker's distribution loop
func (b *Broker[T]) Start() {
	go b.run()
}

// Stop stops the broker and closes all subscriber channels
func (b *Broker[T]) Stop() {
	b.stopOnce.Do(func() {
		close(b.stopCh)

		b.mu.Lock()
		defer b.mu.Unlock()
		for sub := range b.subscribers {
			close(sub)
		}
		b.subscribers = make(map[chan T]bool)
	})
}

// Subscribe creates a new subscription and returns its channel
func (b *Broker[T]) Subscribe() chan T {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(chan T, 50)
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription and closes its channel
func (b *Broker[T]) Unsubscribe(sub chan T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Publish sends a value to all subscribers
func (b *Broker[T]) Publish(v T) {
	select {
	case b.eventCh <- v:
	case <-b.stopCh:
	}
}

func (b *Broker[T]) run() {
	for {
		select {
		case v := <-b.eventCh:
			b.broadcast(v)
		case <-b.stopCh:
			return
		}
	}
}

func (b *Broker[T]) broadcast(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for sub := range b.subscribers {
		select {
		case sub <- v:
		default:
			// Subscriber buffer full, skip
		}
	}
}

// SubscriberCount returns the number of active subscribers
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}

// EventBroker broadcasts domain events; it satisfies Publisher
type EventBroker struct {
	*Broker[*Event]
}

// NewEventBroker creates a started domain event broker
func NewEventBroker() *EventBroker {
	b := &EventBroker{Broker: NewBroker[*Event]()}
	b.Start()
	return b
}

// Publish stamps the event timestamp if unset and broadcasts it
func (b *EventBroker) Publish(event *Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	b.Broker.Publish(event)
}
