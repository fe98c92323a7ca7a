package usecase

import (
	"context"

	"rxfirebase/pkg/errors"
	"rxfirebase/pkg/stream"
)

// single runs call once per subscription on its own goroutine. An error
// fails the stream with the translated vendor error; a result is emitted and
// the stream completes. Unsubscribing cancels the context handed to call.
func single[T any](call func(ctx context.Context) (T, error)) *stream.Stream[T] {
	return stream.Create(func(ctx context.Context, e *stream.Emitter[T]) stream.Teardown {
		ctx, cancel := context.WithCancel(ctx)
		go func() {
			v, err := call(ctx)
			if err != nil {
				e.Error(errors.Translate(err))
				return
			}
			if e.Next(v) {
				e.Complete()
			}
		}()
		return stream.Teardown(cancel)
	})
}
