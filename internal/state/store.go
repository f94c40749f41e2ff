package state

import (
	"sync"

	"github.com/simpleshare/client/internal/models"
)

// Store is the local state container: the ordered collections the engine
// reconciles remote changes into, guarded by one RWMutex. Mutations are
// fanned out to subscribers (the gateway's websocket hub) as they land.
type Store struct {
	mu sync.RWMutex

	user        *models.User
	accountInfo *models.AccountInfo
	generalInfo *models.PublicGeneralInfo

	profiles         []models.Profile
	currentProfileID string

	shares []models.Share
	outbox []models.OutboxEntry

	subs   map[int]chan Mutation
	nextID int
}

func NewStore() *Store {
	return &Store{
		subs: make(map[int]chan Mutation),
	}
}

// Snapshot is a point-in-time copy of all local state.
type Snapshot struct {
	User             *models.User              `json:"user,omitempty"`
	AccountInfo      *models.AccountInfo       `json:"account_info,omitempty"`
	GeneralInfo      *models.PublicGeneralInfo `json:"general_info,omitempty"`
	Profiles         []models.Profile          `json:"profiles"`
	CurrentProfileID string                    `json:"current_profile_id,omitempty"`
	Shares           []models.Share            `json:"shares"`
	Outbox           []models.OutboxEntry      `json:"outbox"`
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Profiles:         append([]models.Profile(nil), s.profiles...),
		CurrentProfileID: s.currentProfileID,
		Shares:           append([]models.Share(nil), s.shares...),
		Outbox:           append([]models.OutboxEntry(nil), s.outbox...),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	if s.accountInfo != nil {
		a := *s.accountInfo
		snap.AccountInfo = &a
	}
	if s.generalInfo != nil {
		g := *s.generalInfo
		snap.GeneralInfo = &g
	}
	return snap
}

func (s *Store) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

func (s *Store) SetUser(user *models.User) {
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityUser, Op: OpUpdate, Data: user})
}

func (s *Store) SetAccountInfo(info *models.AccountInfo) {
	s.mu.Lock()
	s.accountInfo = info
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityAccount, Op: OpUpdate, Data: info})
}

func (s *Store) AccountInfo() *models.AccountInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.accountInfo == nil {
		return nil
	}
	a := *s.accountInfo
	return &a
}

func (s *Store) SetGeneralInfo(info *models.PublicGeneralInfo) {
	s.mu.Lock()
	s.generalInfo = info
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityGeneralInfo, Op: OpUpdate, Data: info})
}

func (s *Store) GeneralInfo() *models.PublicGeneralInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.generalInfo == nil {
		return nil
	}
	g := *s.generalInfo
	return &g
}

// Reset clears all local state. Called on sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.user = nil
	s.accountInfo = nil
	s.generalInfo = nil
	s.profiles = nil
	s.currentProfileID = ""
	s.shares = nil
	s.outbox = nil
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityUser, Op: OpClear})
}
