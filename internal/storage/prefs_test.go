package storage

import (
	"os"
	"testing"

	"github.com/go-playground/assert/v2"
)

func TestLastSelectedProfileRoundTrip(t *testing.T) {
	store, err := NewPrefStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	got, err := store.LastSelectedProfile("u1")
	assert.Equal(t, nil, err)
	assert.Equal(t, "", got)

	if err := store.SetLastSelectedProfile("u1", "p1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetLastSelectedProfile("u2", "p9"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, _ = store.LastSelectedProfile("u1")
	assert.Equal(t, "p1", got)
	got, _ = store.LastSelectedProfile("u2")
	assert.Equal(t, "p9", got)
}

func TestSetLastSelectedProfileOverwrites(t *testing.T) {
	store, err := NewPrefStore(t.TempDir())
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	if err := store.SetLastSelectedProfile("u1", "p1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.SetLastSelectedProfile("u1", "p2"); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, _ := store.LastSelectedProfile("u1")
	assert.Equal(t, "p2", got)
}

func TestPrefsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPrefStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := store.SetLastSelectedProfile("u1", "p1"); err != nil {
		t.Fatalf("set: %v", err)
	}

	reopened, err := NewPrefStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ := reopened.LastSelectedProfile("u1")
	assert.Equal(t, "p1", got)
}

func TestCorruptPrefsFileSurfacesError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPrefStore(dir)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	if err := os.WriteFile(dir+"/prefs.json", []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := store.LastSelectedProfile("u1"); err == nil {
		t.Fatal("expected decode error")
	}
}
