package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/simpleshare/client/internal/models"
	"github.com/simpleshare/client/internal/remote"
	"github.com/simpleshare/client/internal/state"
	"github.com/simpleshare/client/internal/storage"
)

// Engine is the realtime synchronization and listener-lifecycle core. It owns
// the listener registry, consumes change-stream batches into the local state
// store, and runs the profile/share flows. One Engine instance exists per
// process, constructed at startup and passed explicitly to its consumers.
type Engine struct {
	ctx      context.Context
	docs     remote.DocStore
	blobs    remote.BlobStore
	identity remote.Identity
	state    *state.Store
	prefs    *storage.PrefStore
	registry *ListenerRegistry
	resolver *Resolver

	// mu serializes profile switches and listener starts so two
	// registrations of the same kind never race.
	mu sync.Mutex

	// lastMu guards the last-selected snapshot. The id persisted by a
	// previous run is read once per session: SwitchProfile overwrites the
	// stored preference as soon as the first profile auto-selects, so
	// comparing later added events against a fresh read would never match
	// the remembered profile.
	lastMu           sync.Mutex
	lastSelected     string
	lastSelectedRead bool
}

// NewEngine builds the engine. ctx bounds the lifetime of every subscription
// the engine registers.
func NewEngine(ctx context.Context, docs remote.DocStore, blobs remote.BlobStore, identity remote.Identity, st *state.Store, prefs *storage.PrefStore) *Engine {
	return &Engine{
		ctx:      ctx,
		docs:     docs,
		blobs:    blobs,
		identity: identity,
		state:    st,
		prefs:    prefs,
		registry: NewListenerRegistry(),
		resolver: NewResolver(docs),
	}
}

func (e *Engine) State() *state.Store {
	return e.state
}

func (e *Engine) Registry() *ListenerRegistry {
	return e.registry
}

// SignIn verifies a credential from the host application's sign-in flow,
// loads the account documents and starts the per-user listeners.
func (e *Engine) SignIn(ctx context.Context, idToken string) (*models.User, error) {
	user, err := e.identity.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if err := e.beginSession(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// beginSession records the signed-in user, fetches the account documents and
// registers the profile and general-info listeners.
func (e *Engine) beginSession(ctx context.Context, user *models.User) error {
	e.state.SetUser(user)

	if info, err := e.resolver.AccountInfo(ctx, user.UID); err != nil {
		log.Printf("[engine] load account info uid=%s: %v", user.UID, err)
	} else {
		e.state.SetAccountInfo(info)
	}
	if info, err := e.resolver.GeneralInfo(ctx, user.UID); err != nil {
		log.Printf("[engine] load general info uid=%s: %v", user.UID, err)
	} else {
		e.state.SetGeneralInfo(info)
	}

	if err := e.startGeneralInfoListener(user.UID); err != nil {
		return err
	}
	return e.startProfileListener(user.UID)
}

// SignOut tears down every listener and clears all local state. The persisted
// last-selected-profile preference survives sign-out.
func (e *Engine) SignOut(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.registry.TeardownAll()
	e.state.Reset()

	e.lastMu.Lock()
	e.lastSelected = ""
	e.lastSelectedRead = false
	e.lastMu.Unlock()
}

func (e *Engine) startProfileListener(uid string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub, err := e.docs.ListenCollection(e.ctx, profilesCollection(uid))
	if err != nil {
		return fmt.Errorf("profile listener for %s: %w", uid, err)
	}
	e.registry.SetProfileListener(uid, sub)
	go e.runProfileLoop(uid, sub)
	return nil
}

func (e *Engine) startGeneralInfoListener(uid string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	sub, err := e.docs.ListenDoc(e.ctx, generalInfoDoc(uid))
	if err != nil {
		return fmt.Errorf("general info listener for %s: %w", uid, err)
	}
	e.registry.SetGeneralInfoListener(uid, sub)
	go e.runGeneralInfoLoop(sub)
	return nil
}

// sessionLastSelected returns the profile id that was active when the app
// last ran, snapshotted on first use so the persist inside SwitchProfile
// cannot replace it mid-session.
func (e *Engine) sessionLastSelected(uid string) string {
	e.lastMu.Lock()
	defer e.lastMu.Unlock()
	if !e.lastSelectedRead {
		last, err := e.prefs.LastSelectedProfile(uid)
		if err != nil {
			log.Printf("[engine] read last selected profile: %v", err)
		}
		e.lastSelected = last
		e.lastSelectedRead = true
	}
	return e.lastSelected
}

func (e *Engine) runProfileLoop(uid string, sub *remote.Subscription) {
	for batch := range sub.C {
		e.applyProfileBatch(uid, batch)
	}
}

// applyProfileBatch reconciles one profile change-stream tick. Added profiles
// may trigger a switch: the first profile observed in the session is
// auto-selected, as is the profile persisted as last selected on a previous
// run. Removing the selected profile forces a reselection when any profile
// remains.
func (e *Engine) applyProfileBatch(uid string, batch remote.Batch) {
	for _, change := range batch {
		switch change.Kind {
		case remote.Added:
			profile := models.ProfileFromDoc(change.ID, change.Data)
			if !e.state.AddProfile(profile) {
				continue
			}
			if e.state.ProfileCount() == 1 || profile.ID == e.sessionLastSelected(uid) {
				if err := e.SwitchProfile(e.ctx, profile.ID); err != nil {
					log.Printf("[engine] auto-select profile %s: %v", profile.ID, err)
				}
			}
		case remote.Modified:
			e.state.UpdateProfile(models.ProfileFromDoc(change.ID, change.Data))
		case remote.Removed:
			wasCurrent, remaining := e.state.RemoveProfile(change.ID)
			if wasCurrent && len(remaining) > 0 {
				if err := e.SwitchProfile(e.ctx, remaining[0].ID); err != nil {
					log.Printf("[engine] reselect after remote delete: %v", err)
				}
			}
		}
	}
}

func (e *Engine) runGeneralInfoLoop(sub *remote.Subscription) {
	for batch := range sub.C {
		for _, change := range batch {
			if change.Kind == remote.Removed {
				e.state.SetGeneralInfo(nil)
				continue
			}
			info := models.PublicGeneralInfoFromDoc(change.Data)
			e.state.SetGeneralInfo(&info)
		}
	}
}

func (e *Engine) runShareLoop(profileID string, sub *remote.Subscription) {
	for batch := range sub.C {
		e.applyShareBatch(profileID, batch)
	}
}

// applyShareBatch reconciles one share change-stream tick. Adds are two-step:
// the bare record lands immediately for fast visible feedback, then a
// goroutine resolves the sender's display fields and merges them in. The
// store's staleness guard drops adds and enrichments whose destination
// profile is no longer selected.
func (e *Engine) applyShareBatch(profileID string, batch remote.Batch) {
	for _, change := range batch {
		switch change.Kind {
		case remote.Added:
			share := models.ShareFromDoc(change.ID, change.Data)
			if share.ToProfileID == "" {
				// Legacy records carry no destination; the subscription
				// target is authoritative.
				share.ToProfileID = profileID
			}
			if !e.state.AddShare(share) {
				continue
			}
			go e.enrichShare(share)
		case remote.Modified:
			e.state.UpdateShare(models.ShareFromDoc(change.ID, change.Data))
		case remote.Removed:
			e.state.RemoveShare(change.ID)
		}
	}
}

// enrichShare resolves the sender's display name and profile name and emits
// the follow-up update for a just-added share.
func (e *Engine) enrichShare(share models.Share) {
	var enr models.ShareEnrichment

	name, nameErr := e.resolver.DisplayName(e.ctx, share.FromUID)
	if nameErr != nil {
		log.Printf("[engine] resolve sender display name share=%s: %v", share.ID, nameErr)
	}
	enr.FromDisplayName = name

	profileName, profErr := e.resolver.ProfileName(e.ctx, share.FromUID, share.FromProfileID)
	if profErr != nil {
		log.Printf("[engine] resolve sender profile name share=%s: %v", share.ID, profErr)
	}
	enr.FromProfileName = profileName

	if nameErr != nil && profErr != nil {
		return
	}
	e.state.EnrichShare(share.ID, enr)
}

// SwitchProfile re-points the share listener at the target profile. Selection
// updates before the new listener is registered so the staleness guard never
// admits a batch from the outgoing target, then the chosen profile id is
// persisted for the next session.
func (e *Engine) SwitchProfile(ctx context.Context, profileID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	user := e.state.User()
	if user == nil {
		return ErrNotSignedIn
	}

	e.state.BeginProfileSwitch(profileID)

	sub, err := e.docs.ListenCollection(e.ctx, sharesCollection(user.UID, profileID))
	if err != nil {
		return fmt.Errorf("share listener for %s/%s: %w", user.UID, profileID, err)
	}
	e.registry.SetShareListener(user.UID, profileID, sub)
	go e.runShareLoop(profileID, sub)

	if err := e.prefs.SetLastSelectedProfile(user.UID, profileID); err != nil {
		// Selection only degrades to the default on next startup.
		log.Printf("[engine] persist selected profile: %v", err)
	}
	return nil
}
