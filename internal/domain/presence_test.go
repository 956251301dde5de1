package domain

import (
	"testing"
	"time"
)

const staleThreshold = 7 * time.Second

func record(roomID, userID string, at time.Time) LocationRecord {
	return LocationRecord{RoomID: roomID, UserID: userID, Lat: 35.6, Lng: 139.7, UpdatedAt: at}
}

func TestViewNeverContainsSelf(t *testing.T) {
	now := time.Now()
	v := NewPresenceView("me")

	if _, ok := v.ApplyUpsert(record("r1", "me", now), now, staleThreshold); ok {
		t.Fatal("own record must never enter the view")
	}
	if v.Has("me") || v.Len() != 0 {
		t.Fatalf("view should be empty, has %d entries", v.Len())
	}
}

func TestUpsertAddsThenMoves(t *testing.T) {
	now := time.Now()
	v := NewPresenceView("me")

	change, ok := v.ApplyUpsert(record("r1", "u1", now), now, staleThreshold)
	if !ok || change.Kind != ParticipantAdded || change.UserID != "u1" {
		t.Fatalf("first upsert: got %+v ok=%v, want added u1", change, ok)
	}

	change, ok = v.ApplyUpsert(record("r1", "u1", now.Add(time.Second)), now.Add(time.Second), staleThreshold)
	if !ok || change.Kind != ParticipantMoved {
		t.Fatalf("second upsert: got %+v ok=%v, want moved", change, ok)
	}
	if v.Len() != 1 {
		t.Fatalf("upsert must overwrite in place, got %d entries", v.Len())
	}
}

func TestStaleUpsertActsAsDelete(t *testing.T) {
	now := time.Now()
	v := NewPresenceView("me")

	v.ApplyUpsert(record("r1", "u1", now), now, staleThreshold)

	// A record already older than the threshold at delivery time removes
	// the entry instead of refreshing it.
	change, ok := v.ApplyUpsert(record("r1", "u1", now.Add(-8*time.Second)), now, staleThreshold)
	if !ok || change.Kind != ParticipantRemoved {
		t.Fatalf("stale upsert: got %+v ok=%v, want removed", change, ok)
	}
	if v.Has("u1") {
		t.Fatal("entry should be gone after stale upsert")
	}

	// And for a user not present it is a silent no-op.
	if _, ok := v.ApplyUpsert(record("r1", "u2", now.Add(-8*time.Second)), now, staleThreshold); ok {
		t.Fatal("stale upsert of absent user should emit nothing")
	}
}

func TestDeleteRemovesImmediately(t *testing.T) {
	now := time.Now()
	v := NewPresenceView("me")

	v.ApplyUpsert(record("r1", "u1", now), now, staleThreshold)

	change, ok := v.ApplyDelete("u1")
	if !ok || change.Kind != ParticipantRemoved {
		t.Fatalf("delete: got %+v ok=%v, want removed", change, ok)
	}
	if _, ok := v.ApplyDelete("u1"); ok {
		t.Fatal("double delete should be a no-op")
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	now := time.Now()
	v := NewPresenceView("me")

	v.ApplyUpsert(record("r1", "fresh", now), now, staleThreshold)
	v.ApplyUpsert(record("r1", "old", now), now, staleThreshold)

	later := now.Add(8 * time.Second)
	v.ApplyUpsert(record("r1", "fresh", later), later, staleThreshold)

	removed := v.Sweep(later, staleThreshold)
	if len(removed) != 1 || removed[0].UserID != "old" {
		t.Fatalf("sweep removed %+v, want just old", removed)
	}
	if !v.Has("fresh") {
		t.Fatal("fresh entry must survive the sweep")
	}

	if again := v.Sweep(later, staleThreshold); len(again) != 0 {
		t.Fatalf("second sweep with no new events removed %+v", again)
	}
}

func TestClearReportsEveryRemoval(t *testing.T) {
	now := time.Now()
	v := NewPresenceView("me")

	v.ApplyUpsert(record("r1", "u1", now), now, staleThreshold)
	v.ApplyUpsert(record("r1", "u2", now), now, staleThreshold)

	removed := v.Clear()
	if len(removed) != 2 {
		t.Fatalf("clear reported %d removals, want 2", len(removed))
	}
	if v.Len() != 0 {
		t.Fatal("view should be empty after clear")
	}
}

func TestEntriesReturnsCopy(t *testing.T) {
	now := time.Now()
	v := NewPresenceView("me")
	v.ApplyUpsert(record("r1", "u1", now), now, staleThreshold)

	entries := v.Entries()
	delete(entries, "u1")
	if !v.Has("u1") {
		t.Fatal("mutating the copy must not touch the view")
	}
}
