package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"firebase.google.com/go/v4/db"
	fbstorage "firebase.google.com/go/v4/storage"
	"google.golang.org/api/option"

	"rxfirebase/pkg/config"
	"rxfirebase/pkg/logger"
)

// App holds the initialised Firebase app and the client options it was
// built with, which the REST clients reuse.
type App struct {
	app     *fbapp.App
	cfg     *config.Config
	options []option.ClientOption
}

// ClientOptions picks the credentials: service account JSON from the
// environment first, then a file path, then application default
// credentials.
func ClientOptions(cfg *config.Config) ([]option.ClientOption, error) {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return []option.ClientOption{option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))}, nil
	}
	if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); err != nil {
			return nil, fmt.Errorf("service account file %s: %w", cfg.ServiceAccountPath, err)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		return []option.ClientOption{option.WithCredentialsFile(cfg.ServiceAccountPath)}, nil
	}
	logger.Info("Using application default credentials")
	return nil, nil
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	opts, err := ClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		DatabaseURL:   cfg.DatabaseURL,
		StorageBucket: cfg.StorageBucket,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	return &App{app: app, cfg: cfg, options: opts}, nil
}

func (a *App) Auth(ctx context.Context) (*auth.Client, error) {
	client, err := a.app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase Auth: %w", err)
	}
	return client, nil
}

// Database returns nil without an error when no database URL is configured.
func (a *App) Database(ctx context.Context) (*db.Client, error) {
	if a.cfg.DatabaseURL == "" {
		return nil, nil
	}
	client, err := a.app.DatabaseWithURL(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Realtime Database: %w", err)
	}
	return client, nil
}

func (a *App) Firestore(ctx context.Context) (*firestore.Client, error) {
	client, err := a.app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// Storage returns nil without an error when no bucket is configured.
func (a *App) Storage(ctx context.Context) (*fbstorage.Client, error) {
	if a.cfg.StorageBucket == "" {
		return nil, nil
	}
	client, err := a.app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloud Storage: %w", err)
	}
	return client, nil
}

// Options returns the client options the app was built with.
func (a *App) Options() []option.ClientOption {
	return a.options
}
