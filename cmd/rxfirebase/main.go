package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"rxfirebase/internal/domain/service"
	"rxfirebase/internal/infrastructure/firebase"
	"rxfirebase/internal/infrastructure/storage"
	"rxfirebase/internal/usecase"
	"rxfirebase/pkg/config"
	"rxfirebase/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "rxfirebase",
	Short: "Stream based access to Firebase auth, database and storage",
	Long: `rxfirebase exposes Firebase authentication, the realtime database (or
Firestore) and Cloud Storage as streams, from the command line or through an
HTTP and websocket gateway.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(
		signInCmd(), signUpCmd(), resetPasswordCmd(),
		getCmd(), setCmd(), pushCmd(), updateCmd(), removeCmd(), watchCmd(),
		uploadCmd(), downloadCmd(), urlCmd(), deleteCmd(),
		serveCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runtime holds the wired session and the clients that need closing.
type runtime struct {
	cfg     *config.Config
	auth    *firebase.FirebaseAuthClient
	session *usecase.Session
	closers []func() error
}

func (rt *runtime) Close() {
	for _, closeFn := range rt.closers {
		if err := closeFn(); err != nil {
			logger.Warn("Failed to close client: %v", err)
		}
	}
	logger.Sync()
}

func bootstrap(ctx context.Context) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Configure(cfg.Environment, cfg.LogLevel)

	app, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		return nil, err
	}

	adminAuth, err := app.Auth(ctx)
	if err != nil {
		return nil, err
	}
	authClient, err := firebase.NewFirebaseAuthClient(ctx, adminAuth, cfg.FirebaseApiKey)
	if err != nil {
		return nil, err
	}

	rt := &runtime{cfg: cfg, auth: authClient}

	var database service.DatabaseBackend
	switch cfg.DatabaseBackend {
	case config.BackendFirestore:
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, client.Close)
		database = firebase.NewFirestoreDatabase(client)
		logger.Info("Using Firestore for project %s", cfg.FirebaseProject)
	default:
		client, err := app.Database(ctx)
		if err != nil {
			return nil, err
		}
		if client != nil {
			database = firebase.NewRealtimeDatabase(client, cfg.DatabasePollInterval)
			logger.Info("Using Realtime Database at %s", cfg.DatabaseURL)
		} else {
			logger.Warn("FIREBASE_DATABASE_URL not set, database operations are disabled")
		}
	}

	var objects service.ObjectStore
	storageClient, err := app.Storage(ctx)
	if err != nil {
		rt.Close()
		return nil, err
	}
	if storageClient != nil {
		gcs, err := storage.NewCloudStorageClient(ctx, storageClient, cfg.StorageCORSOrigins)
		if err != nil {
			rt.Close()
			return nil, err
		}
		objects = gcs
	} else {
		logger.Warn("FIREBASE_STORAGE_BUCKET not set, storage operations are disabled")
	}

	rt.session = usecase.NewSession(authClient, database, objects, sessionOptions(cfg))
	return rt, nil
}

func sessionOptions(cfg *config.Config) usecase.SessionOptions {
	return usecase.SessionOptions{
		ClientID:        cfg.ClientID,
		RevokeOnSignOut: cfg.RevokeOnSignOut,
		DownloadMaxSize: cfg.StorageDownloadMaxSize,
	}
}

// withRuntime wraps a command body with bootstrap and cleanup.
func withRuntime(run func(ctx context.Context, rt *runtime, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		rt, err := bootstrap(ctx)
		if err != nil {
			return err
		}
		defer rt.Close()
		return run(ctx, rt, cmd, args)
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func stdout(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
