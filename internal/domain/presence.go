package domain

import "time"

// PresenceEntry is what an observer currently believes about one other
// participant.
type PresenceEntry struct {
	Position   Fix       `json:"position"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

type ChangeKind string

const (
	ParticipantAdded   ChangeKind = "added"
	ParticipantMoved   ChangeKind = "moved"
	ParticipantRemoved ChangeKind = "removed"
)

// PresenceChange is one diff emitted by the view. The rendering layer keys
// its visual resources by UserID and applies these one-way; the view itself
// never touches rendering state.
type PresenceChange struct {
	Kind     ChangeKind
	UserID   string
	Position Fix
}

// PresenceView holds an observer's local belief about who else is in the
// room. It is owned and mutated by a single goroutine; all invariants live
// here: the owner's own id never appears, and entries older than the
// staleness threshold are dropped whether or not a delete event arrived.
type PresenceView struct {
	self    string
	entries map[string]PresenceEntry
}

func NewPresenceView(selfID string) *PresenceView {
	return &PresenceView{
		self:    selfID,
		entries: make(map[string]PresenceEntry),
	}
}

// ApplyUpsert folds one upsert into the view. A record that is already stale
// at delivery time counts as a deletion. Out-of-order deliveries are not
// reordered: last-delivered-wins, since the sweep bounds the damage of a
// stale overwrite to the threshold window.
func (v *PresenceView) ApplyUpsert(rec LocationRecord, now time.Time, stale time.Duration) (PresenceChange, bool) {
	if rec.UserID == v.self || rec.UserID == "" {
		return PresenceChange{}, false
	}

	if now.Sub(rec.UpdatedAt) > stale {
		return v.ApplyDelete(rec.UserID)
	}

	_, existed := v.entries[rec.UserID]
	v.entries[rec.UserID] = PresenceEntry{
		Position:   rec.Position(),
		LastSeenAt: now,
	}

	kind := ParticipantAdded
	if existed {
		kind = ParticipantMoved
	}
	return PresenceChange{Kind: kind, UserID: rec.UserID, Position: rec.Position()}, true
}

// ApplyDelete removes an entry immediately, regardless of staleness
// bookkeeping. Deleting an absent entry is a no-op.
func (v *PresenceView) ApplyDelete(userID string) (PresenceChange, bool) {
	if _, ok := v.entries[userID]; !ok {
		return PresenceChange{}, false
	}
	delete(v.entries, userID)
	return PresenceChange{Kind: ParticipantRemoved, UserID: userID}, true
}

// Sweep drops every entry not refreshed within the staleness threshold.
// This is what hides participants that vanished without a clean departure.
// Running it twice with no intervening events yields the same view.
func (v *PresenceView) Sweep(now time.Time, stale time.Duration) []PresenceChange {
	var removed []PresenceChange
	for uid, e := range v.entries {
		if now.Sub(e.LastSeenAt) > stale {
			delete(v.entries, uid)
			removed = append(removed, PresenceChange{Kind: ParticipantRemoved, UserID: uid})
		}
	}
	return removed
}

// Clear empties the view at teardown, reporting each removal so the
// rendering layer can destroy its resources.
func (v *PresenceView) Clear() []PresenceChange {
	var removed []PresenceChange
	for uid := range v.entries {
		delete(v.entries, uid)
		removed = append(removed, PresenceChange{Kind: ParticipantRemoved, UserID: uid})
	}
	return removed
}

func (v *PresenceView) Has(userID string) bool {
	_, ok := v.entries[userID]
	return ok
}

func (v *PresenceView) Len() int {
	return len(v.entries)
}

// Entries returns a copy safe to hand across goroutines.
func (v *PresenceView) Entries() map[string]PresenceEntry {
	out := make(map[string]PresenceEntry, len(v.entries))
	for k, e := range v.entries {
		out[k] = e
	}
	return out
}
