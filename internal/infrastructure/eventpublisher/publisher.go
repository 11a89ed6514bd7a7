package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/expensetracker/internal/domain"
)

var (
	// ErrQueueFull is returned by Dispatcher.Publish when the buffer has no room.
	ErrQueueFull = errors.New("event queue full")
	// ErrStopped is returned by Dispatcher.Publish after the worker has shut down.
	ErrStopped = errors.New("event dispatcher stopped")
)

// Publisher defines the interface for publishing events to external systems.
type Publisher interface {
	Publish(ctx context.Context, event *domain.ExpenseRecordedEvent) error
}

// Dispatcher decouples recording from delivery. Publish only enqueues; a single
// worker started with Start hands events to the sink in enqueue order.
type Dispatcher struct {
	sink         Publisher
	logger       zerolog.Logger
	queue        chan *domain.ExpenseRecordedEvent
	stopped      chan struct{}
	maxRetries   uint64
	retryBackoff time.Duration
	drainTimeout time.Duration
}

// Config for Dispatcher.
type Config struct {
	Sink         Publisher
	Logger       zerolog.Logger
	BufferSize   int           // Number of events held before Publish fails
	MaxRetries   uint64        // Delivery attempts per event after the first
	RetryBackoff time.Duration // Initial delay between attempts
	DrainTimeout time.Duration // Time allowed to flush the buffer on shutdown
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(cfg Config) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 256
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 5 * time.Second
	}

	return &Dispatcher{
		sink:         cfg.Sink,
		logger:       cfg.Logger,
		queue:        make(chan *domain.ExpenseRecordedEvent, cfg.BufferSize),
		stopped:      make(chan struct{}),
		maxRetries:   cfg.MaxRetries,
		retryBackoff: cfg.RetryBackoff,
		drainTimeout: cfg.DrainTimeout,
	}
}

// Publish enqueues the event without blocking.
func (d *Dispatcher) Publish(ctx context.Context, event *domain.ExpenseRecordedEvent) error {
	select {
	case <-d.stopped:
		return ErrStopped
	default:
	}

	select {
	case d.queue <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Pending returns the number of queued events.
func (d *Dispatcher) Pending() int {
	return len(d.queue)
}

// Start delivers queued events until ctx is cancelled, then flushes what is
// left within the drain timeout. It must be called at most once.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.logger.Info().Int("buffer_size", cap(d.queue)).Msg("event dispatcher started")

	for {
		select {
		case <-ctx.Done():
			close(d.stopped)
			d.drain()
			d.logger.Info().Msg("event dispatcher shutting down")
			return nil
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), d.drainTimeout)
	defer cancel()

	for {
		select {
		case event := <-d.queue:
			d.deliver(ctx, event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event *domain.ExpenseRecordedEvent) {
	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(d.retryBackoff), d.maxRetries),
		ctx,
	)

	err := backoff.Retry(func() error {
		return d.sink.Publish(ctx, event)
	}, b)
	if err != nil {
		d.logger.Error().Err(err).
			Str("event_id", event.ID).
			Str("event_type", event.Type).
			Msg("failed to publish event")
		return
	}

	d.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Msg("event published")
}

// LogPublisher is a simple publisher that logs events.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.ExpenseRecordedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.Type).
		Int64("expense_id", event.ExpenseID).
		RawJSON("payload", payload).
		Msg("EVENT PUBLISHED")

	return nil
}
