package stream

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNotSubscribed is returned by Attach for a subscription that has not
// completed the handshake.
var ErrNotSubscribed = errors.New("stream: subscription is not in subscribed state")

// Broker is the cross-process transport for board topics.
// *redis.PubSub from internal/store/redis satisfies this interface.
type Broker interface {
	PublishBoard(ctx context.Context, boardID uuid.UUID, payload []byte) (int64, error)
	SubscribeBoard(ctx context.Context, boardID uuid.UUID) (<-chan []byte, func(), error)
}

// Registry maps a board to the set of listeners attached in this process.
// A board's topic, and its broker subscription, is opened by the first
// listener and torn down when the last one detaches.
type Registry struct {
	broker     Broker
	bufferSize int
	nextID     atomic.Uint64

	mu     sync.Mutex
	topics map[uuid.UUID]*topic
}

type topic struct {
	boardID uuid.UUID
	ready   chan struct{}
	err     error // set before ready is closed

	mu        sync.Mutex
	listeners map[uint64]*Listener
	cancel    context.CancelFunc
	cleanup   func()
	stopOnce  sync.Once
}

// Listener receives the serialized events of one board. Events are dropped
// for a listener whose buffer is full.
type Listener struct {
	id      uint64
	boardID uuid.UUID
	topic   *topic
	events  chan []byte
}

func (l *Listener) BoardID() uuid.UUID { return l.boardID }

// Events yields payloads in publish order. The channel is closed when the
// listener is detached or the topic's broker subscription ends.
func (l *Listener) Events() <-chan []byte { return l.events }

// NewRegistry creates an empty registry. bufferSize bounds each listener's
// queue of undelivered events.
func NewRegistry(broker Broker, bufferSize int) *Registry {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Registry{
		broker:     broker,
		bufferSize: bufferSize,
		topics:     make(map[uuid.UUID]*topic),
	}
}

// Publish sends payload to every listener of boardID across all processes.
func (r *Registry) Publish(ctx context.Context, boardID uuid.UUID, payload []byte) error {
	if _, err := r.broker.PublishBoard(ctx, boardID, payload); err != nil {
		return fmt.Errorf("stream.Registry.Publish: %w", err)
	}
	return nil
}

// Attach registers a listener for a subscribed connection. The listener only
// sees events published after Attach returns.
func (r *Registry) Attach(ctx context.Context, sub *Subscription) (*Listener, error) {
	if sub.State() != Subscribed {
		return nil, fmt.Errorf("stream.Registry.Attach: %w", ErrNotSubscribed)
	}

	boardID := sub.BoardID()
	l := &Listener{
		id:      r.nextID.Add(1),
		boardID: boardID,
		events:  make(chan []byte, r.bufferSize),
	}

	r.mu.Lock()
	t, exists := r.topics[boardID]
	if !exists {
		t = &topic{
			boardID:   boardID,
			ready:     make(chan struct{}),
			listeners: make(map[uint64]*Listener),
		}
		r.topics[boardID] = t
	}
	l.topic = t
	t.mu.Lock()
	t.listeners[l.id] = l
	t.mu.Unlock()
	r.mu.Unlock()

	if !exists {
		r.open(t)
	}

	select {
	case <-t.ready:
	case <-ctx.Done():
		r.Detach(l)
		return nil, fmt.Errorf("stream.Registry.Attach: %w", ctx.Err())
	}
	if t.err != nil {
		r.Detach(l)
		return nil, fmt.Errorf("stream.Registry.Attach: %w", t.err)
	}

	return l, nil
}

// Detach removes the listener and closes its channel. Detaching the last
// listener of a board releases the board's broker subscription.
func (r *Registry) Detach(l *Listener) {
	t := l.topic

	r.mu.Lock()
	t.mu.Lock()
	if _, ok := t.listeners[l.id]; ok {
		delete(t.listeners, l.id)
		close(l.events)
	}
	empty := len(t.listeners) == 0
	if empty {
		if r.topics[t.boardID] == t {
			delete(r.topics, t.boardID)
		}
	}
	t.mu.Unlock()
	r.mu.Unlock()

	if empty {
		t.stop()
	}
}

// Topics returns the number of boards with at least one local listener.
func (r *Registry) Topics() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.topics)
}

// Listeners returns the number of local listeners attached to boardID.
func (r *Registry) Listeners(boardID uuid.UUID) int {
	r.mu.Lock()
	t, ok := r.topics[boardID]
	r.mu.Unlock()
	if !ok {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.listeners)
}

// Close detaches every listener and releases all broker subscriptions.
func (r *Registry) Close() {
	r.mu.Lock()
	topics := make([]*topic, 0, len(r.topics))
	for _, t := range r.topics {
		topics = append(topics, t)
	}
	r.topics = make(map[uuid.UUID]*topic)
	r.mu.Unlock()

	for _, t := range topics {
		t.closeListeners()
		t.stop()
	}
}

func (r *Registry) open(t *topic) {
	ctx, cancel := context.WithCancel(context.Background())
	messages, cleanup, err := r.broker.SubscribeBoard(ctx, t.boardID)

	t.mu.Lock()
	t.cancel = cancel
	t.cleanup = cleanup
	t.mu.Unlock()

	if err != nil {
		t.err = err
		r.mu.Lock()
		if r.topics[t.boardID] == t {
			delete(r.topics, t.boardID)
		}
		r.mu.Unlock()
		close(t.ready)
		log.Error().Err(err).Str("board_id", t.boardID.String()).Msg("stream: open topic")
		return
	}

	close(t.ready)
	go r.pump(t, messages)
}

// pump fans broker messages out to the topic's listeners until the broker
// channel closes.
func (r *Registry) pump(t *topic, messages <-chan []byte) {
	for msg := range messages {
		t.mu.Lock()
		for _, l := range t.listeners {
			select {
			case l.events <- msg:
			default:
				log.Debug().Str("board_id", t.boardID.String()).Uint64("listener", l.id).Msg("stream: listener buffer full, event dropped")
			}
		}
		t.mu.Unlock()
	}

	// The broker subscription ended underneath us; listeners must reconnect.
	r.mu.Lock()
	if r.topics[t.boardID] == t {
		delete(r.topics, t.boardID)
	}
	r.mu.Unlock()
	t.closeListeners()
	t.stop()
}

func (t *topic) closeListeners() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, l := range t.listeners {
		close(l.events)
		delete(t.listeners, id)
	}
}

func (t *topic) stop() {
	t.stopOnce.Do(func() {
		t.mu.Lock()
		cancel, cleanup := t.cancel, t.cleanup
		t.mu.Unlock()
		if cancel != nil {
			cancel()
		}
		if cleanup != nil {
			cleanup()
		}
	})
}
