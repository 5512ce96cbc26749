package state

import (
	"sync"
)

// Views is the read side of the store: narrow projections so consumers
// depend only on the slice they render. No view mutates, and everything
// a view returns is read-only by contract.
type Views struct {
	store *Store

	mu       sync.Mutex
	cacheRev uint64
	cached   []Message
}

// NewViews creates a view layer over the store
func NewViews(store *Store) *Views {
	return &Views{store: store}
}

// Session returns the session slice
func (v *Views) Session() Session {
	return v.store.State().Session
}

// UI returns the ephemeral view-state slice
func (v *Views) UI() UI {
	return v.store.State().UI
}

// IsLoading reports the loading flag for one async operation category
func (v *Views) IsLoading(category string) bool {
	return v.store.State().UI.Loading[category]
}

// Character returns the character, or nil before creation
func (v *Views) Character() *Character {
	return v.store.State().Character
}

// World returns the world slice
func (v *Views) World() World {
	return v.store.State().World
}

// ActiveQuests returns the active quests in index order
func (v *Views) ActiveQuests() []Quest {
	return questsByIndex(v.store.State().Quests, true)
}

// CompletedQuests returns the completed quests in index order
func (v *Views) CompletedQuests() []Quest {
	return questsByIndex(v.store.State().Quests, false)
}

func questsByIndex(q Quests, active bool) []Quest {
	ids := q.CompletedIDs
	if active {
		ids = q.ActiveIDs
	}
	out := make([]Quest, 0, len(ids))
	for _, id := range ids {
		if quest, ok := q.ByID[id]; ok {
			out = append(out, quest)
		}
	}
	return out
}

// Combat returns the combat slice
func (v *Views) Combat() Combat {
	return v.store.State().Combat
}

// PendingCheck returns the outstanding check, or nil
func (v *Views) PendingCheck() *Check {
	return v.store.State().Checks.Pending
}

// CheckHistory returns resolved checks oldest-first
func (v *Views) CheckHistory() []CheckResult {
	return v.store.State().Checks.History
}

// Audio returns the audio slice
func (v *Views) Audio() Audio {
	return v.store.State().Audio
}

// Persistence returns the dirty-tracking slice
func (v *Views) Persistence() Persistence {
	return v.store.State().Persistence
}

// Derived returns the computed slice
func (v *Views) Derived() Derived {
	return v.store.State().Derived
}

// MessageList returns the conversation in order. The returned slice is
// referentially stable: as long as the message slice has not changed,
// repeated calls return the identical slice value rather than a fresh
// projection. The adventure log polls this on every frame, and a fresh
// slice per call would re-render the whole log each time.
func (v *Views) MessageList() []Message {
	rev := v.store.messagesRevision()

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.cached != nil && v.cacheRev == rev {
		return v.cached
	}

	v.cached = v.store.State().Messages.All()
	v.cacheRev = rev
	return v.cached
}

// MessageCount returns the number of stored messages without
// projecting the list
func (v *Views) MessageCount() int {
	return v.store.State().Messages.Count()
}
