package services

import (
	"sync"

	"github.com/simpleshare/client/internal/remote"
)

type trackedListener struct {
	uid       string
	profileID string
	sub       *remote.Subscription
}

// ListenerRegistry tracks the engine's live subscriptions: at most one
// profile listener and one general-info listener per user, and at most one
// share listener per (user, profile). Setting a listener discards any
// previously tracked listener of the same kind before recording the new one.
// All mutations are serialized by the registry mutex.
type ListenerRegistry struct {
	mu          sync.Mutex
	profile     *trackedListener
	share       *trackedListener
	generalInfo *trackedListener
}

func NewListenerRegistry() *ListenerRegistry {
	return &ListenerRegistry{}
}

func (r *ListenerRegistry) SetProfileListener(uid string, sub *remote.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.profile != nil {
		// Stopping an already-stopped subscription is a no-op.
		r.profile.sub.Stop()
	}
	r.profile = &trackedListener{uid: uid, sub: sub}
}

func (r *ListenerRegistry) SetShareListener(uid, profileID string, sub *remote.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.share != nil {
		r.share.sub.Stop()
	}
	r.share = &trackedListener{uid: uid, profileID: profileID, sub: sub}
}

func (r *ListenerRegistry) SetGeneralInfoListener(uid string, sub *remote.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.generalInfo != nil {
		r.generalInfo.sub.Stop()
	}
	r.generalInfo = &trackedListener{uid: uid, sub: sub}
}

// ShareTarget reports the (user, profile) pair the live share listener is
// subscribed to.
func (r *ListenerRegistry) ShareTarget() (uid, profileID string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.share == nil {
		return "", "", false
	}
	return r.share.uid, r.share.profileID, true
}

// ShareListenerCount is 0 or 1; it exists so the at-most-one invariant is
// directly observable.
func (r *ListenerRegistry) ShareListenerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.share == nil {
		return 0
	}
	return 1
}

// TeardownAll stops every tracked subscription and clears the registry.
// Called on sign-out.
func (r *ListenerRegistry) TeardownAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range []*trackedListener{r.profile, r.share, r.generalInfo} {
		if l != nil {
			l.sub.Stop()
		}
	}
	r.profile = nil
	r.share = nil
	r.generalInfo = nil
}
