package remote

import (
	"context"
	"sync"

	"github.com/simpleshare/client/internal/models"
)

// ChangeKind classifies one change-stream event.
type ChangeKind int

const (
	Added ChangeKind = iota
	Modified
	Removed
)

func (k ChangeKind) String() string {
	switch k {
	case Added:
		return "added"
	case Modified:
		return "modified"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Change is one document-level event inside a change-stream batch.
type Change struct {
	Kind ChangeKind
	ID   string
	Data map[string]interface{}
}

// Batch is the ordered set of changes delivered by one stream tick. Ordering
// within a batch is the store's natural iteration order; it does not reflect
// remote write order.
type Batch []Change

// Subscription is a live change stream. Batches arrive on C until Stop is
// called or the stream fails; C is closed when delivery ends. Stop is
// idempotent and safe to call on an already-closed stream.
type Subscription struct {
	C    <-chan Batch
	stop func()
	once sync.Once
}

func NewSubscription(c <-chan Batch, stop func()) *Subscription {
	return &Subscription{C: c, stop: stop}
}

func (s *Subscription) Stop() {
	s.once.Do(s.stop)
}

// DocStore is the document-store side of the remote collaborator. Paths are
// slash-separated collection/doc alternations, e.g. "accounts/u1/profiles/p1".
type DocStore interface {
	GetDoc(ctx context.Context, path string) (map[string]interface{}, bool, error)
	SetDoc(ctx context.Context, path string, data map[string]interface{}) error
	DeleteDoc(ctx context.Context, path string) error
	// ListDocIDs returns the ids of every document in a collection.
	ListDocIDs(ctx context.Context, collection string) ([]string, error)
	// QueryFirst returns the first document whose field equals value.
	QueryFirst(ctx context.Context, collection, field, value string) (string, map[string]interface{}, bool, error)
	ListenCollection(ctx context.Context, collection string) (*Subscription, error)
	ListenDoc(ctx context.Context, path string) (*Subscription, error)
}

// BlobStore is the blob side of the remote collaborator.
type BlobStore interface {
	// Upload stores the source bytes at objectPath and returns a stable
	// download URL for the object.
	Upload(ctx context.Context, objectPath string, src models.UploadSource, meta map[string]string) (string, error)
	// DeleteByURL removes the object a previously minted download URL points at.
	DeleteByURL(ctx context.Context, fileURL string) error
}

// Identity is the identity-provider side of the remote collaborator.
type Identity interface {
	// VerifyIDToken validates a credential obtained by the host application's
	// sign-in flow and resolves the signed-in user.
	VerifyIDToken(ctx context.Context, idToken string) (*models.User, error)
	UserByUID(ctx context.Context, uid string) (*models.User, error)
}
