package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// PrefStore persists small local preferences (the last selected profile per
// user) to a JSON file. Writes go to a temp file first and are renamed into
// place so a crash never leaves a half-written file.
type PrefStore struct {
	mu       sync.RWMutex
	filePath string
}

type prefsFile struct {
	// LastSelectedProfiles maps user id to the profile id that was active
	// when the app last ran, so the same profile is re-selected on startup.
	LastSelectedProfiles map[string]string `json:"last_selected_profiles"`
}

func NewPrefStore(dataDir string) (*PrefStore, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	return &PrefStore{
		filePath: filepath.Join(dataDir, "prefs.json"),
	}, nil
}

// LastSelectedProfile returns the persisted profile id for a user, or "" when
// none was recorded.
func (s *PrefStore) LastSelectedProfile(uid string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefs, err := s.load()
	if err != nil {
		return "", err
	}
	return prefs.LastSelectedProfiles[uid], nil
}

// SetLastSelectedProfile records the active profile id for a user.
func (s *PrefStore) SetLastSelectedProfile(uid, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefs, err := s.load()
	if err != nil {
		return err
	}
	if prefs.LastSelectedProfiles == nil {
		prefs.LastSelectedProfiles = make(map[string]string)
	}
	prefs.LastSelectedProfiles[uid] = profileID
	return s.save(prefs)
}

func (s *PrefStore) load() (*prefsFile, error) {
	var prefs prefsFile
	file, err := os.Open(s.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			// No prefs yet, not an error.
			return &prefs, nil
		}
		return nil, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(&prefs); err != nil {
		return nil, err
	}
	return &prefs, nil
}

func (s *PrefStore) save(prefs *prefsFile) error {
	tempFile := s.filePath + ".tmp"
	file, err := os.Create(tempFile)
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(prefs); err != nil {
		file.Close()
		os.Remove(tempFile)
		return err
	}
	if err := file.Close(); err != nil {
		os.Remove(tempFile)
		return err
	}

	return os.Rename(tempFile, s.filePath)
}
