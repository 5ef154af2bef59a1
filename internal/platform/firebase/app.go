package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// Config selects the Firebase project and credentials.
type Config struct {
	ProjectID string
	// CredentialsFile is a service account JSON path. Empty means
	// application default credentials (or the emulators when
	// FIREBASE_AUTH_EMULATOR_HOST / FIRESTORE_EMULATOR_HOST are set).
	CredentialsFile string
	// WithFirestore is false when profiles are kept in memory.
	WithFirestore bool
}

// Clients holds the Firebase clients the service needs. Firestore is nil
// unless Config.WithFirestore was set.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// InitializeClients creates the Firebase app and its clients.
func InitializeClients(ctx context.Context, cfg Config) (*Clients, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		creds, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read firebase credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}

	ac, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth: %w", err)
	}
	clients := &Clients{Auth: ac}

	if cfg.WithFirestore {
		fc, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("init firestore: %w", err)
		}
		clients.Firestore = fc
	}
	return clients, nil
}

// Close releases the Firestore connection, if any.
func (c *Clients) Close() error {
	if c == nil || c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}
