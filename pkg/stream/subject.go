package stream

import (
	"context"
	"sync"
)

// Mailbox hands values to a handler running on its own goroutine, in the
// order they were posted, without ever blocking the poster.
type Mailbox[T any] struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []T
	closed bool
}

// NewMailbox starts the delivery goroutine for handle.
func NewMailbox[T any](handle func(T)) *Mailbox[T] {
	m := &Mailbox[T]{}
	m.cond = sync.NewCond(&m.mu)
	go m.run(handle)
	return m
}

// Post queues v. It reports false once the mailbox is closed.
func (m *Mailbox[T]) Post(v T) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.queue = append(m.queue, v)
	m.cond.Signal()
	return true
}

// Close stops delivery. Values still queued are dropped.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.queue = nil
	m.mu.Unlock()
	m.cond.Broadcast()
}

func (m *Mailbox[T]) run(handle func(T)) {
	var zero T
	for {
		m.mu.Lock()
		for len(m.queue) == 0 && !m.closed {
			m.cond.Wait()
		}
		if m.closed {
			m.mu.Unlock()
			return
		}
		v := m.queue[0]
		m.queue[0] = zero
		m.queue = m.queue[1:]
		m.mu.Unlock()

		handle(v)
	}
}

// Subject is a hot stream: every subscriber receives the values published
// after it subscribed. Publishing never blocks on slow subscribers.
type Subject[T any] struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]*Mailbox[T]
}

// NewSubject returns a subject without subscribers.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{subs: make(map[uint64]*Mailbox[T])}
}

// Publish delivers v to every current subscriber.
func (s *Subject[T]) Publish(v T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, mb := range s.subs {
		mb.Post(v)
	}
}

// Subscribers returns the number of live subscriptions.
func (s *Subject[T]) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}

// Stream returns a stream over the subject's future values. It never
// completes on its own.
func (s *Subject[T]) Stream() *Stream[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) Teardown {
		mb := NewMailbox(func(v T) { e.Next(v) })

		s.mu.Lock()
		id := s.nextID
		s.nextID++
		s.subs[id] = mb
		s.mu.Unlock()

		return func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
			mb.Close()
		}
	})
}
