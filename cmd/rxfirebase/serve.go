package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"rxfirebase/internal/adapter/api"
	"rxfirebase/internal/infrastructure/ratelimit"
	ws "rxfirebase/internal/infrastructure/websocket"
	"rxfirebase/internal/usecase"
	"rxfirebase/pkg/logger"
)

const (
	authRequestsPerMinute  = 20
	authBurst              = 5
	limiterCleanupInterval = 10 * time.Minute
	shutdownTimeout        = 10 * time.Second
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and websocket gateway",
		Args:  cobra.NoArgs,
		RunE: withRuntime(func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			limiter := ratelimit.NewRateLimiter(authRequestsPerMinute, authBurst)
			limiter.StartCleanupRoutine(ctx, limiterCleanupInterval)

			watchers := ws.NewManager()
			e := api.NewServer(api.ServerDeps{
				Session: rt.session,
				NewSession: func() *usecase.Session {
					return usecase.NewSession(rt.auth, nil, nil, sessionOptions(rt.cfg))
				},
				Auth:        rt.auth,
				AuthLimiter: limiter,
				Watchers:    watchers,
			})

			errCh := make(chan error, 1)
			go func() {
				logger.Info("Starting server on port %s...", rt.cfg.ServerPort)
				errCh <- e.Start(":" + rt.cfg.ServerPort)
			}()

			select {
			case err := <-errCh:
				if !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down, closing %d watchers", watchers.Count())
			watchers.CloseAll()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return e.Shutdown(shutdownCtx)
		}),
	}
}
