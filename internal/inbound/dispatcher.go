// Package inbound runs router events on a fixed worker pool, keeping per-member arrival order.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"

	"github.com/memohai/valentines/internal/logger"
	"github.com/memohai/valentines/internal/members"
	"github.com/memohai/valentines/internal/router"
)

var (
	ErrQueueFull = errors.New("inbound queue full")
	ErrStopped   = errors.New("inbound dispatcher stopped")
)

const (
	defaultWorkers   = 4
	defaultQueueSize = 256
)

// Processor turns an event into actions.
type Processor interface {
	Handle(ctx context.Context, ev router.Event) ([]router.Action, error)
}

// Sender delivers one action through the transport.
type Sender interface {
	Send(ctx context.Context, action router.Action) error
}

// DoneFunc is called once an event is fully handled, with the first error met (or nil).
type DoneFunc func(ctx context.Context, err error)

// Config sizes the pool. QueueSize is per worker.
type Config struct {
	Workers   int
	QueueSize int
}

type task struct {
	ctx    context.Context
	event  router.Event
	onDone DoneFunc
}

// Dispatcher shards events by sender external identity so events of one member run in order.
type Dispatcher struct {
	processor Processor
	sender    Sender
	logger    *slog.Logger
	queues    []chan task

	startOnce sync.Once
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Workers start on Start or on the first Submit.
func NewDispatcher(log *slog.Logger, processor Processor, sender Sender, cfg Config) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}
	queues := make([]chan task, cfg.Workers)
	for i := range queues {
		queues[i] = make(chan task, cfg.QueueSize)
	}
	return &Dispatcher{
		processor: processor,
		sender:    sender,
		logger:    log.With(slog.String("component", "inbound")),
		queues:    queues,
	}
}

// Start launches the workers. It is safe to call more than once.
func (d *Dispatcher) Start(ctx context.Context) {
	d.startOnce.Do(func() {
		if ctx == nil {
			ctx = context.Background()
		}
		d.mu.Lock()
		d.ctx, d.cancel = context.WithCancel(ctx)
		d.mu.Unlock()
		for i, queue := range d.queues {
			d.wg.Add(1)
			go d.runWorker(d.ctx, i, queue)
		}
		d.logger.Info("workers started", slog.Int("workers", len(d.queues)))
	})
}

// Stop cancels the workers and waits for the in-flight events. Queued events are dropped.
func (d *Dispatcher) Stop() {
	d.Start(context.Background())
	d.mu.RLock()
	cancel := d.cancel
	d.mu.RUnlock()
	cancel()
	d.wg.Wait()
}

// Submit enqueues ev on the worker owning its sender.
func (d *Dispatcher) Submit(ctx context.Context, ev router.Event, onDone DoneFunc) error {
	if d.processor == nil || d.sender == nil {
		return errors.New("inbound dispatcher not configured")
	}
	if ev == nil {
		return errors.New("event is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	d.Start(ctx)
	d.mu.RLock()
	stopped := d.ctx.Err() != nil
	d.mu.RUnlock()
	if stopped {
		return ErrStopped
	}

	key := strings.TrimSpace(router.EnvelopeOf(ev).From.ExternalID)
	t := task{
		ctx:    context.WithoutCancel(ctx),
		event:  ev,
		onDone: onDone,
	}
	select {
	case d.queues[d.shard(key)] <- t:
		return nil
	default:
		d.logger.Warn("inbound queue full", slog.String("external_id", key))
		return ErrQueueFull
	}
}

func (d *Dispatcher) shard(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(d.queues)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, queue <-chan task) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-queue:
			env := router.EnvelopeOf(t.event)
			evCtx := logger.WithContext(t.ctx, d.logger.With(
				slog.Int("worker", id),
				slog.String("chat_id", env.ChatID),
				slog.String("external_id", env.From.ExternalID),
			))
			err := d.process(evCtx, t.event)
			if t.onDone != nil {
				t.onDone(evCtx, err)
			}
			if err != nil {
				d.logFailure(evCtx, t.event, err)
			}
		}
	}
}

// process runs one event and sends its actions in order, stopping at the first send error.
func (d *Dispatcher) process(ctx context.Context, ev router.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("inbound handler panic: %v", r)
		}
	}()
	actions, err := d.processor.Handle(ctx, ev)
	if err != nil {
		return err
	}
	for i, action := range actions {
		if err := d.sender.Send(ctx, action); err != nil {
			return fmt.Errorf("send action %d/%d: %w", i+1, len(actions), err)
		}
	}
	return nil
}

func (d *Dispatcher) logFailure(ctx context.Context, ev router.Event, err error) {
	log := logger.FromContext(ctx)
	attrs := []any{
		slog.String("event", fmt.Sprintf("%T", ev)),
		slog.Any("error", err),
	}
	if errors.Is(err, members.ErrNotFound) {
		log.Warn("inbound event aborted", attrs...)
		return
	}
	log.Error("inbound processing failed", attrs...)
}
