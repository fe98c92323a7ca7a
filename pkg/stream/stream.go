// Package stream provides cold, cancellable asynchronous streams whose values
// are delivered over channels.
//
// A Stream does nothing until it is subscribed. Subscribing runs the
// producer, which registers whatever callback or goroutine feeds the stream
// and returns a Teardown. The teardown runs exactly once when the
// subscription terminates, whether the producer completed, failed, or the
// consumer unsubscribed.
package stream

import (
	"context"
	"errors"
	"sync"
)

// ErrEmpty is returned by Await and First when the stream completed without
// emitting a value.
var ErrEmpty = errors.New("stream: completed without a value")

// Teardown releases whatever a producer registered. It may be nil.
type Teardown func()

// Producer starts feeding e and returns the teardown for what it started.
// It runs on the subscribing goroutine and must not block: long running work
// belongs in a goroutine of its own. ctx is cancelled when the subscription
// terminates.
type Producer[T any] func(ctx context.Context, e *Emitter[T]) Teardown

// Stream is a cold asynchronous sequence of values terminated by completion
// or failure.
type Stream[T any] struct {
	produce Producer[T]
}

// Create returns a stream backed by produce.
func Create[T any](produce Producer[T]) *Stream[T] {
	return &Stream[T]{produce: produce}
}

// Subscribe runs the producer and returns the consumer's handle. Cancelling
// ctx has the same effect as Unsubscribe.
func (s *Stream[T]) Subscribe(ctx context.Context) *Subscription[T] {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription[T]{
		values: make(chan T),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		<-ctx.Done()
		sub.terminate(ctx.Err())
	}()

	td := s.produce(ctx, &Emitter[T]{sub: sub, ctx: ctx})
	sub.setTeardown(td)
	return sub
}

// Subscription is the consumer side of a subscribed stream.
type Subscription[T any] struct {
	values chan T
	done   chan struct{}
	cancel context.CancelFunc

	sendMu     sync.Mutex
	terminated bool
	err        error

	tdMu     sync.Mutex
	teardown Teardown
	tdReady  bool
	tdRan    bool
}

// Values returns the channel carrying the stream's values. It is closed when
// the subscription terminates.
func (s *Subscription[T]) Values() <-chan T {
	return s.values
}

// Done is closed when the subscription terminates.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Err returns the terminal error once Done is closed: nil after completion,
// the producer's error after a failure, context.Canceled after Unsubscribe,
// or the subscribing context's error.
func (s *Subscription[T]) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Unsubscribe cancels the subscription. It is safe to call more than once
// and after termination.
func (s *Subscription[T]) Unsubscribe() {
	s.cancel()
}

func (s *Subscription[T]) terminate(err error) {
	s.sendMu.Lock()
	if s.terminated {
		s.sendMu.Unlock()
		return
	}
	s.terminated = true
	s.err = err
	close(s.values)
	close(s.done)
	s.sendMu.Unlock()

	s.cancel()
	s.runTeardown()
}

func (s *Subscription[T]) setTeardown(td Teardown) {
	s.tdMu.Lock()
	s.teardown = td
	s.tdReady = true
	s.tdMu.Unlock()

	select {
	case <-s.done:
		s.runTeardown()
	default:
	}
}

func (s *Subscription[T]) runTeardown() {
	s.tdMu.Lock()
	if !s.tdReady || s.tdRan {
		s.tdMu.Unlock()
		return
	}
	s.tdRan = true
	td := s.teardown
	s.tdMu.Unlock()

	if td != nil {
		td()
	}
}

// Emitter is the producer side of a subscription. Notifications after a
// terminal one are dropped.
type Emitter[T any] struct {
	sub *Subscription[T]
	ctx context.Context
}

// Next delivers v, blocking until the consumer receives it. It reports false
// when the subscription terminated before delivery.
func (e *Emitter[T]) Next(v T) bool {
	e.sub.sendMu.Lock()
	defer e.sub.sendMu.Unlock()

	if e.sub.terminated {
		return false
	}
	select {
	case e.sub.values <- v:
		return true
	case <-e.ctx.Done():
		return false
	}
}

// Error fails the subscription with err. A nil err completes it.
func (e *Emitter[T]) Error(err error) {
	e.sub.terminate(err)
}

// Complete terminates the subscription successfully.
func (e *Emitter[T]) Complete() {
	e.sub.terminate(nil)
}

// Done is closed once the subscription terminates.
func (e *Emitter[T]) Done() <-chan struct{} {
	return e.ctx.Done()
}

// Context returns the subscription's context.
func (e *Emitter[T]) Context() context.Context {
	return e.ctx
}
