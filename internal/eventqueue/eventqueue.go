// Package eventqueue decouples event publication from request handling.
// Created records are buffered and handed to the publisher in batches by a
// single background goroutine.
package eventqueue

import (
	"context"
	"time"

	"github.com/patric-chuzhbe/userprofiles/internal/logger"
	"github.com/patric-chuzhbe/userprofiles/internal/models"
)

const flushTimeout = 5 * time.Second

type batchPublisher interface {
	PublishUsersCreated(ctx context.Context, users []models.User) error
}

// Queue collects user_created events and publishes them on every tick of
// the flush interval. A failed batch is kept and retried on the next tick;
// at most capacity events are kept pending, the oldest are dropped first.
type Queue struct {
	queue         chan models.User
	publisher     batchPublisher
	capacity      int
	flushInterval time.Duration
	errorChannel  chan error
	done          chan struct{}
}

func New(
	publisher batchPublisher,
	capacity int,
	flushInterval time.Duration,
) *Queue {
	return &Queue{
		queue:         make(chan models.User, capacity),
		publisher:     publisher,
		capacity:      capacity,
		flushInterval: flushInterval,
		errorChannel:  make(chan error, capacity),
		done:          make(chan struct{}),
	}
}

// Enqueue schedules the event for usr. It never blocks and reports false
// when the queue is full.
func (q *Queue) Enqueue(usr models.User) bool {
	select {
	case q.queue <- usr:
		return true
	default:
		return false
	}
}

// ListenErrors calls callback for every failed flush until the queue stops.
func (q *Queue) ListenErrors(callback func(error)) {
	go func() {
		for err := range q.errorChannel {
			callback(err)
		}
	}()
}

// Run starts the background loop. When ctx is done the loop drains the
// queue, makes a last flush attempt and closes Done.
func (q *Queue) Run(ctx context.Context) {
	go func() {
		defer close(q.done)
		defer close(q.errorChannel)

		ticker := time.NewTicker(q.flushInterval)
		defer ticker.Stop()

		var pending []models.User

		for {
			select {
			case usr := <-q.queue:
				pending = q.keep(append(pending, usr))
			case <-ticker.C:
				pending = q.flush(pending)
			case <-ctx.Done():
				pending = q.drain(pending)
				if left := q.flush(pending); len(left) > 0 {
					logger.Log.Warnw("user_created events dropped on shutdown", "count", len(left))
				}
				return
			}
		}
	}()
}

// Done is closed once Run has returned after its context was cancelled.
func (q *Queue) Done() <-chan struct{} {
	return q.done
}

func (q *Queue) drain(pending []models.User) []models.User {
	for {
		select {
		case usr := <-q.queue:
			pending = q.keep(append(pending, usr))
		default:
			return pending
		}
	}
}

func (q *Queue) keep(pending []models.User) []models.User {
	if len(pending) <= q.capacity {
		return pending
	}

	dropped := len(pending) - q.capacity
	logger.Log.Warnw("user_created events dropped", "count", dropped)

	return pending[dropped:]
}

// flush returns the events still pending after a publish attempt.
func (q *Queue) flush(pending []models.User) []models.User {
	if len(pending) == 0 {
		return pending
	}

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()

	if err := q.publisher.PublishUsersCreated(ctx, pending); err != nil {
		select {
		case q.errorChannel <- err:
		default:
		}
		return pending
	}

	logger.Log.Debugf("published %d user_created events", len(pending))

	return nil
}
