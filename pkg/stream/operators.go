package stream

import (
	"context"
)

// Just emits v and completes.
func Just[T any](v T) *Stream[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) Teardown {
		go func() {
			if e.Next(v) {
				e.Complete()
			}
		}()
		return nil
	})
}

// Fail terminates every subscription with err without emitting.
func Fail[T any](err error) *Stream[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) Teardown {
		e.Error(err)
		return nil
	})
}

// Empty completes every subscription without emitting.
func Empty[T any]() *Stream[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) Teardown {
		e.Complete()
		return nil
	})
}

// Map transforms each value of s with fn. An error from fn fails the stream
// and unsubscribes from s.
func Map[T, U any](s *Stream[T], fn func(T) (U, error)) *Stream[U] {
	return Create(func(ctx context.Context, e *Emitter[U]) Teardown {
		src := s.Subscribe(ctx)
		go func() {
			for v := range src.Values() {
				u, err := fn(v)
				if err != nil {
					e.Error(err)
					return
				}
				if !e.Next(u) {
					return
				}
			}
			e.Error(src.Err())
		}()
		return src.Unsubscribe
	})
}

// Filter forwards only the values of s for which keep reports true.
func Filter[T any](s *Stream[T], keep func(T) bool) *Stream[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) Teardown {
		src := s.Subscribe(ctx)
		go func() {
			for v := range src.Values() {
				if keep(v) && !e.Next(v) {
					return
				}
			}
			e.Error(src.Err())
		}()
		return src.Unsubscribe
	})
}

// Take forwards the first n values of s, then completes and unsubscribes
// from s.
func Take[T any](s *Stream[T], n int) *Stream[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) Teardown {
		if n <= 0 {
			e.Complete()
			return nil
		}
		src := s.Subscribe(ctx)
		go func() {
			seen := 0
			for v := range src.Values() {
				if !e.Next(v) {
					return
				}
				seen++
				if seen == n {
					e.Complete()
					return
				}
			}
			e.Error(src.Err())
		}()
		return src.Unsubscribe
	})
}

// Last emits the final value of s once s completes. It completes without a
// value when s did not emit.
func Last[T any](s *Stream[T]) *Stream[T] {
	return Create(func(ctx context.Context, e *Emitter[T]) Teardown {
		src := s.Subscribe(ctx)
		go func() {
			var last T
			got := false
			for v := range src.Values() {
				last, got = v, true
			}
			if err := src.Err(); err != nil {
				e.Error(err)
				return
			}
			if got && !e.Next(last) {
				return
			}
			e.Complete()
		}()
		return src.Unsubscribe
	})
}

// Await subscribes and blocks until the stream terminates. It returns the
// last value emitted, ErrEmpty when there was none, or the terminal error.
// Await never returns for a stream that does not terminate unless ctx is
// cancelled.
func (s *Stream[T]) Await(ctx context.Context) (T, error) {
	var zero T
	sub := s.Subscribe(ctx)

	var last T
	got := false
	for v := range sub.Values() {
		last, got = v, true
	}
	if err := sub.Err(); err != nil {
		return zero, err
	}
	if !got {
		return zero, ErrEmpty
	}
	return last, nil
}

// First returns the first value and unsubscribes.
func (s *Stream[T]) First(ctx context.Context) (T, error) {
	var zero T
	sub := s.Subscribe(ctx)
	defer sub.Unsubscribe()

	v, ok := <-sub.Values()
	if !ok {
		if err := sub.Err(); err != nil {
			return zero, err
		}
		return zero, ErrEmpty
	}
	return v, nil
}

// Collect gathers every value until the stream terminates.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	sub := s.Subscribe(ctx)

	var out []T
	for v := range sub.Values() {
		out = append(out, v)
	}
	return out, sub.Err()
}

// ForEach calls fn for every value. An error from fn unsubscribes and is
// returned.
func (s *Stream[T]) ForEach(ctx context.Context, fn func(T) error) error {
	sub := s.Subscribe(ctx)
	defer sub.Unsubscribe()

	for v := range sub.Values() {
		if err := fn(v); err != nil {
			return err
		}
	}
	return sub.Err()
}
