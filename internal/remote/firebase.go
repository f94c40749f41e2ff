package remote

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"
)

// Clients bundles the three remote collaborator implementations built from
// one Firebase app.
type Clients struct {
	Docs     *FirestoreDocStore
	Blobs    *CloudBlobStore
	Identity *FirebaseIdentity
}

// NewClients initializes the Firebase app and the Firestore, Storage and Auth
// clients. credentialsFile may be empty to use application default credentials.
func NewClients(ctx context.Context, projectID, storageBucket, credentialsFile string) (*Clients, error) {
	conf := &firebase.Config{
		ProjectID:     projectID,
		StorageBucket: storageBucket,
	}
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("firestore client: %w", err)
	}

	storageClient, err := app.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}
	bucket, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("default bucket: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth client: %w", err)
	}

	return &Clients{
		Docs:     NewFirestoreDocStore(fsClient),
		Blobs:    NewCloudBlobStore(bucket, storageBucket),
		Identity: NewFirebaseIdentity(authClient),
	}, nil
}
