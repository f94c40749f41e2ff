package state

import "github.com/simpleshare/client/internal/models"

// AddShare appends an incoming share. The add is dropped when the share does
// not target the currently selected profile (the staleness guard: a replaced
// listener may deliver one more batch after a switch has begun) or when a
// share with the same id is already present (duplicate delivery on replay).
// The guard runs under the store lock so selection cannot move between check
// and apply.
func (s *Store) AddShare(share models.Share) bool {
	s.mu.Lock()
	if share.ToProfileID != s.currentProfileID {
		s.mu.Unlock()
		return false
	}
	if s.shareIndex(share.ID) != -1 {
		s.mu.Unlock()
		return false
	}
	s.shares = append(s.shares, share)
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityShare, Op: OpAdd, Data: share})
	return true
}

// EnrichShare merges resolved display fields onto a stored share by id. The
// enrichment is dropped unless the share still exists and still belongs to the
// currently selected profile; completions may arrive after a profile switch
// and must re-check selection at emission time.
func (s *Store) EnrichShare(id string, enr models.ShareEnrichment) bool {
	s.mu.Lock()
	i := s.shareIndex(id)
	if i == -1 || s.shares[i].ToProfileID != s.currentProfileID {
		s.mu.Unlock()
		return false
	}
	s.shares[i].FromDisplayName = enr.FromDisplayName
	s.shares[i].FromProfileName = enr.FromProfileName
	updated := s.shares[i]
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityShare, Op: OpUpdate, Data: updated})
	return true
}

// UpdateShare reapplies all mutable fields, including previously resolved
// display fields when the payload carries them.
func (s *Store) UpdateShare(share models.Share) {
	s.mu.Lock()
	i := s.shareIndex(share.ID)
	if i == -1 {
		s.mu.Unlock()
		return
	}
	if share.FromDisplayName == "" {
		share.FromDisplayName = s.shares[i].FromDisplayName
	}
	if share.FromProfileName == "" {
		share.FromProfileName = s.shares[i].FromProfileName
	}
	s.shares[i] = share
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityShare, Op: OpUpdate, Data: share})
}

func (s *Store) RemoveShare(id string) {
	s.mu.Lock()
	i := s.shareIndex(id)
	if i == -1 {
		s.mu.Unlock()
		return
	}
	s.shares = append(s.shares[:i], s.shares[i+1:]...)
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityShare, Op: OpRemove, Data: models.Share{ID: id}})
}

func (s *Store) Shares() []models.Share {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Share(nil), s.shares...)
}

func (s *Store) ShareByID(id string) (models.Share, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.shareIndex(id)
	if i == -1 {
		return models.Share{}, false
	}
	return s.shares[i], true
}

func (s *Store) AddOutboxEntry(entry models.OutboxEntry) {
	s.mu.Lock()
	s.outbox = append(s.outbox, entry)
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityOutbox, Op: OpAdd, Data: entry})
}

func (s *Store) Outbox() []models.OutboxEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.OutboxEntry(nil), s.outbox...)
}

func (s *Store) ClearOutbox() {
	s.mu.Lock()
	s.outbox = nil
	s.mu.Unlock()
	s.publish(Mutation{Entity: EntityOutbox, Op: OpClear})
}

func (s *Store) shareIndex(id string) int {
	for i := range s.shares {
		if s.shares[i].ID == id {
			return i
		}
	}
	return -1
}
