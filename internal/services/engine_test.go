package services

import (
	"context"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"

	"github.com/simpleshare/client/internal/models"
	"github.com/simpleshare/client/internal/remote"
	"github.com/simpleshare/client/internal/state"
)

func drainMutations(ch <-chan state.Mutation) []state.Mutation {
	var out []state.Mutation
	for {
		select {
		case m := <-ch:
			out = append(out, m)
		default:
			return out
		}
	}
}

func countShareMutations(ms []state.Mutation, op state.Op) int {
	n := 0
	for _, m := range ms {
		if m.Entity == state.EntityShare && m.Op == op {
			n++
		}
	}
	return n
}

func TestRapidSwitchesKeepOneShareListener(t *testing.T) {
	e, docs, _ := signedInEngine(t)

	for _, id := range []string{"p1", "p2", "p3", "p2", "p1", "p3"} {
		if err := e.SwitchProfile(context.Background(), id); err != nil {
			t.Fatalf("switch to %s: %v", id, err)
		}
	}

	assert.Equal(t, 1, e.Registry().ShareListenerCount())
	assert.Equal(t, 1, docs.activeShareSubs())

	_, profileID, ok := e.Registry().ShareTarget()
	assert.Equal(t, true, ok)
	assert.Equal(t, "p3", profileID)
	assert.Equal(t, "p3", e.State().CurrentProfileID())
}

func TestStaleShareBatchIsDropped(t *testing.T) {
	e, _, _ := signedInEngine(t)
	if err := e.SwitchProfile(context.Background(), "p1"); err != nil {
		t.Fatalf("switch: %v", err)
	}

	ch, cancel := e.State().Subscribe()
	defer cancel()

	// A batch from the replaced listener, targeting the old profile.
	e.applyShareBatch("p2", remote.Batch{
		addedShare("s1", "u2", "p9", "u1", "p2", "hello"),
	})

	assert.Equal(t, 0, len(e.State().Shares()))
	assert.Equal(t, 0, countShareMutations(drainMutations(ch), state.OpAdd))
}

func TestShareAddThenEnrichment(t *testing.T) {
	e, docs, _ := signedInEngine(t)
	if err := e.SwitchProfile(context.Background(), "p1"); err != nil {
		t.Fatalf("switch: %v", err)
	}

	docs.put(generalInfoDoc("u2"), map[string]interface{}{"displayName": "Alice"})
	docs.put(profileDoc("u2", "p9"), map[string]interface{}{"name": "Work"})

	ch, cancel := e.State().Subscribe()
	defer cancel()

	e.applyShareBatch("p1", remote.Batch{
		addedShare("s1", "u2", "p9", "u1", "p1", "hello"),
	})

	// The bare record lands first.
	shares := e.State().Shares()
	assert.Equal(t, 1, len(shares))
	assert.Equal(t, "hello", shares[0].TextContent)

	eventually(t, func() bool {
		s, ok := e.State().ShareByID("s1")
		return ok && s.FromDisplayName == "Alice" && s.FromProfileName == "Work"
	}, "enrichment applied")

	ms := drainMutations(ch)
	assert.Equal(t, 1, countShareMutations(ms, state.OpAdd))
	assert.Equal(t, 1, countShareMutations(ms, state.OpUpdate))
}

func TestEnrichmentAfterSwitchIsDropped(t *testing.T) {
	e, docs, _ := signedInEngine(t)
	if err := e.SwitchProfile(context.Background(), "p1"); err != nil {
		t.Fatalf("switch: %v", err)
	}

	docs.put(generalInfoDoc("u2"), map[string]interface{}{"displayName": "Alice"})
	docs.put(profileDoc("u2", "p9"), map[string]interface{}{"name": "Work"})

	// Hold the resolver's round-trips until after the switch.
	gate := make(chan struct{})
	docs.mu.Lock()
	docs.getGate = gate
	docs.mu.Unlock()

	e.applyShareBatch("p1", remote.Batch{
		addedShare("s1", "u2", "p9", "u1", "p1", "hello"),
	})
	assert.Equal(t, 1, len(e.State().Shares()))

	if err := e.SwitchProfile(context.Background(), "p2"); err != nil {
		t.Fatalf("switch: %v", err)
	}

	ch, cancel := e.State().Subscribe()
	defer cancel()
	close(gate)
	time.Sleep(50 * time.Millisecond)

	// The enrichment completion re-checks selection at emission time and
	// must not resurrect the cleared share.
	assert.Equal(t, 0, len(drainMutations(ch)))
	assert.Equal(t, 0, len(e.State().Shares()))
}

func TestDuplicateShareDeliveryIsNoOp(t *testing.T) {
	e, _, _ := signedInEngine(t)
	if err := e.SwitchProfile(context.Background(), "p1"); err != nil {
		t.Fatalf("switch: %v", err)
	}

	batch := remote.Batch{addedShare("s1", "u2", "p9", "u1", "p1", "hello")}
	e.applyShareBatch("p1", batch)
	e.applyShareBatch("p1", batch)

	assert.Equal(t, 1, len(e.State().Shares()))
}

func TestShareModifiedAndRemoved(t *testing.T) {
	e, _, _ := signedInEngine(t)
	if err := e.SwitchProfile(context.Background(), "p1"); err != nil {
		t.Fatalf("switch: %v", err)
	}

	e.applyShareBatch("p1", remote.Batch{
		addedShare("s1", "u2", "p9", "u1", "p1", "hello"),
	})

	modified := addedShare("s1", "u2", "p9", "u1", "p1", "edited")
	modified.Kind = remote.Modified
	e.applyShareBatch("p1", remote.Batch{modified})

	s, ok := e.State().ShareByID("s1")
	assert.Equal(t, true, ok)
	assert.Equal(t, "edited", s.TextContent)

	e.applyShareBatch("p1", remote.Batch{{Kind: remote.Removed, ID: "s1"}})
	assert.Equal(t, 0, len(e.State().Shares()))
}

func TestFirstProfileIsAutoSelected(t *testing.T) {
	e, _, _ := signedInEngine(t)

	e.applyProfileBatch("u1", remote.Batch{addedProfile("p1", "Personal")})

	assert.Equal(t, "p1", e.State().CurrentProfileID())
	assert.Equal(t, 1, e.Registry().ShareListenerCount())

	last, err := e.prefs.LastSelectedProfile("u1")
	assert.Equal(t, nil, err)
	assert.Equal(t, "p1", last)
}

func TestLastSelectedProfileWinsOverFirst(t *testing.T) {
	e, _, _ := signedInEngine(t)
	if err := e.prefs.SetLastSelectedProfile("u1", "p2"); err != nil {
		t.Fatalf("seed prefs: %v", err)
	}

	// p1 arrives first and auto-selects (which re-persists p1); the
	// remembered id must still win when p2 arrives in the same batch.
	e.applyProfileBatch("u1", remote.Batch{
		addedProfile("p1", "Personal"),
		addedProfile("p2", "Work"),
	})

	assert.Equal(t, "p2", e.State().CurrentProfileID())
	_, profileID, _ := e.Registry().ShareTarget()
	assert.Equal(t, "p2", profileID)

	// A later profile matching only the mid-session persist does not
	// steal the selection.
	e.applyProfileBatch("u1", remote.Batch{addedProfile("p3", "Gaming")})
	assert.Equal(t, "p2", e.State().CurrentProfileID())
}

func TestLastSelectedProfileWinsAcrossBatches(t *testing.T) {
	e, _, _ := signedInEngine(t)
	if err := e.prefs.SetLastSelectedProfile("u1", "p2"); err != nil {
		t.Fatalf("seed prefs: %v", err)
	}

	e.applyProfileBatch("u1", remote.Batch{addedProfile("p1", "Personal")})
	assert.Equal(t, "p1", e.State().CurrentProfileID())

	e.applyProfileBatch("u1", remote.Batch{addedProfile("p2", "Work")})
	assert.Equal(t, "p2", e.State().CurrentProfileID())
}

func TestRemoteDeleteOfCurrentProfileReselects(t *testing.T) {
	e, _, _ := signedInEngine(t)

	e.applyProfileBatch("u1", remote.Batch{
		addedProfile("p1", "Personal"),
		addedProfile("p2", "Work"),
	})
	assert.Equal(t, "p1", e.State().CurrentProfileID())

	e.applyProfileBatch("u1", remote.Batch{{Kind: remote.Removed, ID: "p1"}})

	assert.Equal(t, "p2", e.State().CurrentProfileID())
	assert.Equal(t, 1, e.Registry().ShareListenerCount())
	assert.Equal(t, 1, len(e.State().Profiles()))
}

func TestDuplicateProfileDeliveryIsNoOp(t *testing.T) {
	e, _, _ := signedInEngine(t)

	e.applyProfileBatch("u1", remote.Batch{addedProfile("p1", "Personal")})
	e.applyProfileBatch("u1", remote.Batch{addedProfile("p1", "Personal")})

	assert.Equal(t, 1, e.State().ProfileCount())
}

func TestSignOutTearsDownAndClears(t *testing.T) {
	e, docs, _ := signedInEngine(t)

	e.applyProfileBatch("u1", remote.Batch{addedProfile("p1", "Personal")})
	e.applyShareBatch("p1", remote.Batch{
		addedShare("s1", "u2", "p9", "u1", "p1", "hello"),
	})

	e.SignOut(context.Background())

	assert.Equal(t, 0, e.Registry().ShareListenerCount())
	assert.Equal(t, 0, docs.activeShareSubs())
	assert.Equal(t, nil, e.State().User())
	assert.Equal(t, 0, e.State().ProfileCount())
	assert.Equal(t, 0, len(e.State().Shares()))
}

func TestGeneralInfoLoopUpdatesState(t *testing.T) {
	e, _, _ := signedInEngine(t)

	ch := make(chan remote.Batch, 1)
	sub := remote.NewSubscription(ch, func() { close(ch) })
	go e.runGeneralInfoLoop(sub)

	ch <- remote.Batch{{
		Kind: remote.Modified,
		ID:   "GeneralInfo",
		Data: map[string]interface{}{
			"displayName":      "Me",
			"defaultProfileId": "p1",
			"profilePositions": []interface{}{"p1", "p2"},
			"isComplete":       true,
		},
	}}

	eventually(t, func() bool {
		info := e.State().GeneralInfo()
		return info != nil && info.DefaultProfileID == "p1" && len(info.ProfilePositions) == 2
	}, "general info applied")
	assert.Equal(t, true, models.IsGeneralInfoComplete(*e.State().GeneralInfo()))
	sub.Stop()
}
