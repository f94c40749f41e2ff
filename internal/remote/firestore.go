package remote

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreDocStore implements DocStore on a Cloud Firestore client.
type FirestoreDocStore struct {
	client *firestore.Client
}

func NewFirestoreDocStore(client *firestore.Client) *FirestoreDocStore {
	return &FirestoreDocStore{client: client}
}

func (s *FirestoreDocStore) GetDoc(ctx context.Context, path string) (map[string]interface{}, bool, error) {
	snap, err := s.client.Doc(path).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get %s: %w", path, err)
	}
	return snap.Data(), true, nil
}

func (s *FirestoreDocStore) SetDoc(ctx context.Context, path string, data map[string]interface{}) error {
	if _, err := s.client.Doc(path).Set(ctx, data); err != nil {
		return fmt.Errorf("set %s: %w", path, err)
	}
	return nil
}

func (s *FirestoreDocStore) DeleteDoc(ctx context.Context, path string) error {
	if _, err := s.client.Doc(path).Delete(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

func (s *FirestoreDocStore) ListDocIDs(ctx context.Context, collection string) ([]string, error) {
	var ids []string
	it := s.client.Collection(collection).Documents(ctx)
	defer it.Stop()
	for {
		snap, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", collection, err)
		}
		ids = append(ids, snap.Ref.ID)
	}
	return ids, nil
}

func (s *FirestoreDocStore) QueryFirst(ctx context.Context, collection, field, value string) (string, map[string]interface{}, bool, error) {
	it := s.client.Collection(collection).Where(field, "==", value).Limit(1).Documents(ctx)
	defer it.Stop()
	snap, err := it.Next()
	if err == iterator.Done {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("query %s where %s == %q: %w", collection, field, value, err)
	}
	return snap.Ref.ID, snap.Data(), true, nil
}

func (s *FirestoreDocStore) ListenCollection(ctx context.Context, collection string) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(collection).Snapshots(ctx)
	ch := make(chan Batch)

	go func() {
		defer close(ch)
		for {
			snap, err := it.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					// A stream failure stops delivery for this subscription
					// until it is re-registered; it must not crash the engine.
					log.Printf("[remote] collection stream %s ended: %v", collection, err)
				}
				return
			}
			batch := make(Batch, 0, len(snap.Changes))
			for _, dc := range snap.Changes {
				batch = append(batch, Change{
					Kind: changeKind(dc.Kind),
					ID:   dc.Doc.Ref.ID,
					Data: dc.Doc.Data(),
				})
			}
			if len(batch) == 0 {
				continue
			}
			select {
			case ch <- batch:
			case <-ctx.Done():
				return
			}
		}
	}()

	return NewSubscription(ch, func() {
		cancel()
		it.Stop()
	}), nil
}

func (s *FirestoreDocStore) ListenDoc(ctx context.Context, path string) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	it := s.client.Doc(path).Snapshots(ctx)
	ch := make(chan Batch)

	go func() {
		defer close(ch)
		for {
			snap, err := it.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled {
					log.Printf("[remote] doc stream %s ended: %v", path, err)
				}
				return
			}
			var change Change
			if snap.Exists() {
				change = Change{Kind: Modified, ID: snap.Ref.ID, Data: snap.Data()}
			} else {
				change = Change{Kind: Removed, ID: snap.Ref.ID}
			}
			select {
			case ch <- Batch{change}:
			case <-ctx.Done():
				return
			}
		}
	}()

	return NewSubscription(ch, func() {
		cancel()
		it.Stop()
	}), nil
}

func changeKind(k firestore.DocumentChangeKind) ChangeKind {
	switch k {
	case firestore.DocumentAdded:
		return Added
	case firestore.DocumentModified:
		return Modified
	default:
		return Removed
	}
}
