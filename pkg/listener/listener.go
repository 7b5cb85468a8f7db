package listener

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/rs/zerolog"

	"github.com/hodei/pipelines/pkg/log"
	"github.com/hodei/pipelines/pkg/resource"
	"github.com/hodei/pipelines/pkg/types"
)

// DeliveryMode selects how a subscriber receives execution traffic.
type DeliveryMode string

const (
	DeliveryPushStream DeliveryMode = "push_stream"
	DeliveryWebhook    DeliveryMode = "webhook"
)

// DefaultInboxSize bounds a push-stream subscriber's inbox. A subscriber
// that falls this far behind is disconnected with types.ErrOverflow.
const DefaultInboxSize = 256

const (
	webhookAttempts = 3
	webhookBackoff  = 500 * time.Millisecond
	webhookTimeout  = 10 * time.Second
)

// Options filters what a subscription receives.
type Options struct {
	IncludeEvents bool
	IncludeOutput bool
	InboxSize     int
}

// Item is one delivery: either a lifecycle event or an output chunk.
type Item struct {
	Event  *types.ExecutionEvent
	Output *types.LogChunk
}

// Subscription is one registered listener on an execution.
type Subscription struct {
	ID          string
	ExecutionID string
	Mode        DeliveryMode
	WebhookURL  string

	opts  Options
	inbox chan *Item
	err   error
	done  chan struct{}
	once  sync.Once
}

// Items returns the subscriber's delivery channel. It is closed when the
// execution finishes, the subscriber overflows or the registry shuts down.
func (s *Subscription) Items() <-chan *Item {
	return s.inbox
}

// Err reports why the subscription ended. types.ErrOverflow means the
// subscriber could not keep up.
func (s *Subscription) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

func (s *Subscription) close(err error) {
	s.once.Do(func() {
		s.err = err
		close(s.done)
		close(s.inbox)
	})
}

// Registry fans execution events and output out to per-execution listeners.
// Delivery order within one execution follows Notify order for every mode:
// push streams get an ordered inbox and each webhook subscription drains a
// dedicated queue sequentially.
type Registry struct {
	mu       sync.Mutex
	byExec   map[string]map[string]*Subscription
	webhooks map[string]*webhookWorker
	client   *http.Client
	logger   zerolog.Logger
	wg       sync.WaitGroup
	closed   bool
}

// NewRegistry creates an empty listener registry.
func NewRegistry() *Registry {
	return &Registry{
		byExec:   make(map[string]map[string]*Subscription),
		webhooks: make(map[string]*webhookWorker),
		client:   &http.Client{Timeout: webhookTimeout},
		logger:   log.WithComponent("listener"),
	}
}

// SubscribeStream registers a push-stream listener on an execution.
func (r *Registry) SubscribeStream(executionID string, opts Options) (*Subscription, error) {
	if executionID == "" {
		return nil, &types.ValidationError{Field: "execution_id", Reason: "must not be empty"}
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}

	sub := &Subscription{
		ID:          resource.NewID(),
		ExecutionID: executionID,
		Mode:        DeliveryPushStream,
		opts:        opts,
		inbox:       make(chan *Item, opts.InboxSize),
		done:        make(chan struct{}),
	}
	return sub, r.register(sub)
}

// SubscribeWebhook registers a webhook listener on an execution. Every
// delivery is a JSON POST to url, retried with exponential backoff.
func (r *Registry) SubscribeWebhook(executionID, url string, opts Options) (*Subscription, error) {
	if executionID == "" {
		return nil, &types.ValidationError{Field: "execution_id", Reason: "must not be empty"}
	}
	if url == "" {
		return nil, &types.ValidationError{Field: "webhook_url", Reason: "must not be empty"}
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}

	sub := &Subscription{
		ID:          resource.NewID(),
		ExecutionID: executionID,
		Mode:        DeliveryWebhook,
		WebhookURL:  url,
		opts:        opts,
		inbox:       make(chan *Item, opts.InboxSize),
		done:        make(chan struct{}),
	}
	if err := r.register(sub); err != nil {
		return nil, err
	}

	w := &webhookWorker{registry: r, sub: sub}
	r.mu.Lock()
	r.webhooks[sub.ID] = w
	r.mu.Unlock()

	r.wg.Add(1)
	go w.run()
	return sub, nil
}

func (r *Registry) register(sub *Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return fmt.Errorf("listener registry is shut down")
	}
	subs, ok := r.byExec[sub.ExecutionID]
	if !ok {
		subs = make(map[string]*Subscription)
		r.byExec[sub.ExecutionID] = subs
	}
	subs[sub.ID] = sub
	return nil
}

// Unsubscribe removes one subscription.
func (r *Registry) Unsubscribe(executionID, subID string) {
	r.mu.Lock()
	sub := r.remove(executionID, subID)
	r.mu.Unlock()
	if sub != nil {
		sub.close(nil)
	}
}

// remove must be called with the lock held.
func (r *Registry) remove(executionID, subID string) *Subscription {
	subs := r.byExec[executionID]
	sub, ok := subs[subID]
	if !ok {
		return nil
	}
	delete(subs, subID)
	if len(subs) == 0 {
		delete(r.byExec, executionID)
	}
	delete(r.webhooks, subID)
	return sub
}

// NotifyEvent delivers a lifecycle event to all listeners of the execution.
func (r *Registry) NotifyEvent(ev *types.ExecutionEvent) {
	r.deliver(ev.ExecutionID, &Item{Event: ev}, func(o Options) bool { return o.IncludeEvents })
}

// NotifyOutput delivers an output chunk to all listeners of the execution.
func (r *Registry) NotifyOutput(chunk *types.LogChunk) {
	r.deliver(chunk.ExecutionID, &Item{Output: chunk}, func(o Options) bool { return o.IncludeOutput })
}

func (r *Registry) deliver(executionID string, item *Item, wants func(Options) bool) {
	r.mu.Lock()
	var overflowed []*Subscription
	for _, sub := range r.byExec[executionID] {
		if !wants(sub.opts) {
			continue
		}
		select {
		case sub.inbox <- item:
		default:
			overflowed = append(overflowed, sub)
		}
	}
	for _, sub := range overflowed {
		r.remove(executionID, sub.ID)
	}
	r.mu.Unlock()

	for _, sub := range overflowed {
		r.logger.Warn().
			Str("execution_id", executionID).
			Str("subscription_id", sub.ID).
			Msg("subscriber overflowed, disconnecting")
		sub.close(types.ErrOverflow)
	}
}

// CleanupExecution closes every subscription on a finished execution.
func (r *Registry) CleanupExecution(executionID string) {
	r.mu.Lock()
	subs := r.byExec[executionID]
	delete(r.byExec, executionID)
	for id := range subs {
		delete(r.webhooks, id)
	}
	r.mu.Unlock()

	for _, sub := range subs {
		sub.close(nil)
	}
}

// Shutdown closes all subscriptions and waits for webhook workers to drain.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	r.closed = true
	all := r.byExec
	r.byExec = make(map[string]map[string]*Subscription)
	r.webhooks = make(map[string]*webhookWorker)
	r.mu.Unlock()

	for _, subs := range all {
		for _, sub := range subs {
			sub.close(nil)
		}
	}
	r.wg.Wait()
}

// webhookWorker drains one webhook subscription's queue in order.
type webhookWorker struct {
	registry *Registry
	sub      *Subscription
}

func (w *webhookWorker) run() {
	defer w.registry.wg.Done()
	for item := range w.sub.inbox {
		if err := w.post(item); err != nil {
			w.registry.logger.Error().Err(err).
				Str("execution_id", w.sub.ExecutionID).
				Str("url", w.sub.WebhookURL).
				Msg("webhook delivery failed, dropping item")
		}
	}
}

// webhookPayload is the JSON body of one webhook delivery.
type webhookPayload struct {
	ExecutionID string    `json:"execution_id"`
	Kind        string    `json:"kind"`
	EventType   string    `json:"event_type,omitempty"`
	Message     string    `json:"message,omitempty"`
	ExitCode    int       `json:"exit_code,omitempty"`
	Output      []byte    `json:"output,omitempty"`
	Stderr      bool      `json:"stderr,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func (w *webhookWorker) post(item *Item) error {
	payload := webhookPayload{ExecutionID: w.sub.ExecutionID}
	switch {
	case item.Event != nil:
		payload.Kind = "event"
		payload.EventType = string(item.Event.Type)
		payload.Message = item.Event.Message
		payload.ExitCode = item.Event.ExitCode
		payload.Timestamp = item.Event.Timestamp
	case item.Output != nil:
		payload.Kind = "output"
		payload.Output = item.Output.Data
		payload.Stderr = item.Output.IsStderr
		payload.Timestamp = item.Output.Timestamp
	default:
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	return retry.Do(
		func() error {
			ctx, cancel := context.WithTimeout(context.Background(), webhookTimeout)
			defer cancel()

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.sub.WebhookURL, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := w.registry.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				return fmt.Errorf("webhook returned %d", resp.StatusCode)
			}
			return nil
		},
		retry.Attempts(webhookAttempts),
		retry.Delay(webhookBackoff),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}
