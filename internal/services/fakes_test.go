package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/simpleshare/client/internal/models"
	"github.com/simpleshare/client/internal/remote"
	"github.com/simpleshare/client/internal/state"
	"github.com/simpleshare/client/internal/storage"
)

// fakeDocStore is an in-memory DocStore. Documents are keyed by full path.
// Every write is appended to an op log so tests can assert ordering.
type fakeDocStore struct {
	mu   sync.Mutex
	docs map[string]map[string]interface{}
	ops  []string

	// getGate, when set, blocks every GetDoc until the channel is closed.
	getGate chan struct{}

	setErr map[string]error

	activeSubs map[string]int
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{
		docs:       make(map[string]map[string]interface{}),
		setErr:     make(map[string]error),
		activeSubs: make(map[string]int),
	}
}

func (f *fakeDocStore) put(path string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.docs[path] = data
}

func (f *fakeDocStore) has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[path]
	return ok
}

func (f *fakeDocStore) doc(path string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[path]
}

func (f *fakeDocStore) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.ops...)
}

func (f *fakeDocStore) GetDoc(ctx context.Context, path string) (map[string]interface{}, bool, error) {
	f.mu.Lock()
	gate := f.getGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.docs[path]
	return data, ok, nil
}

func (f *fakeDocStore) SetDoc(ctx context.Context, path string, data map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for prefix, err := range f.setErr {
		if strings.HasPrefix(path, prefix) {
			return err
		}
	}
	f.docs[path] = data
	f.ops = append(f.ops, "set "+path)
	return nil
}

func (f *fakeDocStore) DeleteDoc(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, path)
	f.ops = append(f.ops, "delete "+path)
	return nil
}

func (f *fakeDocStore) ListDocIDs(ctx context.Context, collection string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ids []string
	prefix := collection + "/"
	for path := range f.docs {
		if strings.HasPrefix(path, prefix) && !strings.Contains(path[len(prefix):], "/") {
			ids = append(ids, path[len(prefix):])
		}
	}
	return ids, nil
}

func (f *fakeDocStore) QueryFirst(ctx context.Context, collection, field, value string) (string, map[string]interface{}, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := collection + "/"
	for path, data := range f.docs {
		if !strings.HasPrefix(path, prefix) || strings.Contains(path[len(prefix):], "/") {
			continue
		}
		if v, ok := data[field].(string); ok && v == value {
			return path[len(prefix):], data, true, nil
		}
	}
	return "", nil, false, nil
}

func (f *fakeDocStore) listen(key string) (*remote.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.activeSubs[key]++
	ch := make(chan remote.Batch, 16)
	return remote.NewSubscription(ch, func() {
		f.mu.Lock()
		f.activeSubs[key]--
		f.mu.Unlock()
		close(ch)
	}), nil
}

func (f *fakeDocStore) ListenCollection(ctx context.Context, collection string) (*remote.Subscription, error) {
	return f.listen(collection)
}

func (f *fakeDocStore) ListenDoc(ctx context.Context, path string) (*remote.Subscription, error) {
	return f.listen(path)
}

// activeShareSubs counts live subscriptions on share collections.
func (f *fakeDocStore) activeShareSubs() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for key, count := range f.activeSubs {
		if strings.HasPrefix(key, "shares/") {
			n += count
		}
	}
	return n
}

type fakeBlobStore struct {
	mu        sync.Mutex
	uploads   []string
	deleted   []string
	uploadErr error
	deleteErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{}
}

func (f *fakeBlobStore) Upload(ctx context.Context, objectPath string, src models.UploadSource, meta map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.uploads = append(f.uploads, objectPath)
	return "https://blobs.test/" + objectPath, nil
}

func (f *fakeBlobStore) DeleteByURL(ctx context.Context, fileURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.deleted = append(f.deleted, fileURL)
	return nil
}

func (f *fakeBlobStore) deletedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type fakeIdentity struct {
	user *models.User
	err  error
}

func (f *fakeIdentity) VerifyIDToken(ctx context.Context, idToken string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.user == nil {
		return nil, errors.New("no user configured")
	}
	return f.user, nil
}

func (f *fakeIdentity) UserByUID(ctx context.Context, uid string) (*models.User, error) {
	if f.user != nil && f.user.UID == uid {
		return f.user, nil
	}
	return nil, errors.New("user not found")
}

func newTestEngine(t *testing.T) (*Engine, *fakeDocStore, *fakeBlobStore) {
	t.Helper()
	docs := newFakeDocStore()
	blobs := newFakeBlobStore()
	prefs, err := storage.NewPrefStore(t.TempDir())
	if err != nil {
		t.Fatalf("pref store: %v", err)
	}
	st := state.NewStore()
	e := NewEngine(context.Background(), docs, blobs, &fakeIdentity{}, st, prefs)
	return e, docs, blobs
}

func signedInEngine(t *testing.T) (*Engine, *fakeDocStore, *fakeBlobStore) {
	t.Helper()
	e, docs, blobs := newTestEngine(t)
	e.state.SetUser(&models.User{UID: "u1", DisplayName: "Me"})
	return e, docs, blobs
}

// eventually polls cond until it holds or the deadline passes.
func eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never held: %s", msg)
}

func addedProfile(id, name string) remote.Change {
	return remote.Change{
		Kind: remote.Added,
		ID:   id,
		Data: map[string]interface{}{"name": name},
	}
}

func addedShare(id, fromUID, fromProfileID, toUID, toProfileID, text string) remote.Change {
	return remote.Change{
		Kind: remote.Added,
		ID:   id,
		Data: map[string]interface{}{
			"textContent":   text,
			"fromUid":       fromUID,
			"fromProfileId": fromProfileID,
			"toUid":         toUID,
			"toProfileId":   toProfileID,
		},
	}
}
