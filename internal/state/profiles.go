package state

import "github.com/simpleshare/client/internal/models"

// AddProfile appends a profile unless one with the same id is already present.
// Returns false for the duplicate-delivery no-op.
func (s *Store) AddProfile(p models.Profile) bool {
	s.mu.Lock()
	if s.profileIndex(p.ID) != -1 {
		s.mu.Unlock()
		return false
	}
	s.profiles = append(s.profiles, p)
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityProfile, Op: OpAdd, Data: p})
	return true
}

// UpdateProfile reapplies mutable fields onto an existing profile. Unknown ids
// are ignored.
func (s *Store) UpdateProfile(p models.Profile) {
	s.mu.Lock()
	i := s.profileIndex(p.ID)
	if i == -1 {
		s.mu.Unlock()
		return
	}
	s.profiles[i].Name = p.Name
	s.profiles[i].PFP = p.PFP
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityProfile, Op: OpUpdate, Data: p})
}

// RemoveProfile deletes a profile by id and reports whether it was the
// currently selected one, plus the profiles that remain.
func (s *Store) RemoveProfile(id string) (wasCurrent bool, remaining []models.Profile) {
	s.mu.Lock()
	i := s.profileIndex(id)
	if i == -1 {
		s.mu.Unlock()
		return false, nil
	}
	s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
	wasCurrent = s.currentProfileID == id
	remaining = append([]models.Profile(nil), s.profiles...)
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityProfile, Op: OpRemove, Data: models.Profile{ID: id}})
	return wasCurrent, remaining
}

func (s *Store) Profiles() []models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Profile(nil), s.profiles...)
}

func (s *Store) ProfileByID(id string) (models.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.profileIndex(id)
	if i == -1 {
		return models.Profile{}, false
	}
	return s.profiles[i], true
}

func (s *Store) ProfileCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.profiles)
}

func (s *Store) CurrentProfileID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentProfileID
}

// BeginProfileSwitch marks the target profile as selected and clears the share
// collection in one step. The selection marker must be visible before the new
// share listener is registered, so the staleness guard reads consistent state.
func (s *Store) BeginProfileSwitch(profileID string) {
	s.mu.Lock()
	s.currentProfileID = profileID
	s.shares = nil
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityShare, Op: OpClear})
	s.publish(Mutation{Entity: EntityProfile, Op: OpSelect, Data: profileID})
}

func (s *Store) profileIndex(id string) int {
	for i := range s.profiles {
		if s.profiles[i].ID == id {
			return i
		}
	}
	return -1
}
