package queue

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/taskboard/taskboard-api/internal/api/metrics"
	"github.com/taskboard/taskboard-api/internal/core/domain"
	"github.com/taskboard/taskboard-api/internal/core/ports"
)

const channelBuffer = 256

// ErrDispatcherStopped is returned by Publish once Run has returned.
var ErrDispatcherStopped = errors.New("broadcast dispatcher stopped")

type delivery struct {
	ctx  context.Context
	evt  domain.Event
	done chan error
}

// Dispatcher serializes board events in front of a broadcast backend. A single
// worker delivers them in the order Publish was called, so every subscriber
// sees one sequence regardless of which task an event belongs to.
type Dispatcher struct {
	queue   chan delivery
	stopped chan struct{}
	backend ports.EventPublisher
	log     zerolog.Logger
}

var _ ports.EventPublisher = (*Dispatcher)(nil)

func NewDispatcher(backend ports.EventPublisher, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		queue:   make(chan delivery, channelBuffer),
		stopped: make(chan struct{}),
		backend: backend,
		log:     log,
	}
}

// Run delivers events until ctx is cancelled, then delivers whatever is still
// queued and returns. Cancel ctx only after the last publisher is done.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer close(d.stopped)
	for {
		select {
		case <-ctx.Done():
			d.drain()
			metrics.BroadcastQueueDepth.Set(0)
			return nil
		case job := <-d.queue:
			metrics.BroadcastQueueDepth.Set(float64(len(d.queue)))
			job.done <- d.deliver(job)
		}
	}
}

// Publish queues evt and waits until the backend has accepted or rejected it.
func (d *Dispatcher) Publish(ctx context.Context, evt domain.Event) error {
	job := delivery{ctx: ctx, evt: evt, done: make(chan error, 1)}

	select {
	case d.queue <- job:
		metrics.BroadcastQueueDepth.Set(float64(len(d.queue)))
	case <-d.stopped:
		return ErrDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-job.done:
		return err
	case <-d.stopped:
		// Run may have delivered the job while draining.
		select {
		case err := <-job.done:
			return err
		default:
			return ErrDispatcherStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) drain() {
	for {
		select {
		case job := <-d.queue:
			job.done <- d.deliver(job)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(job delivery) error {
	if err := job.ctx.Err(); err != nil {
		metrics.BroadcastEventsTotal.WithLabelValues(string(job.evt.Name), "dropped").Inc()
		return err
	}
	if err := d.backend.Publish(job.ctx, job.evt); err != nil {
		metrics.BroadcastEventsTotal.WithLabelValues(string(job.evt.Name), "error").Inc()
		return err
	}
	metrics.BroadcastEventsTotal.WithLabelValues(string(job.evt.Name), "ok").Inc()
	d.log.Debug().Str("event", string(job.evt.Name)).Str("key", job.evt.Key).Msg("event broadcast")
	return nil
}
