package state

import (
	"time"
)

// snapshot is the persisted subset of the aggregate: every slice except
// Derived, which is recomputed on load. Messages are truncated to the
// persisted ceiling on the way out.
type snapshot struct {
	Version     string    `json:"version"`
	LastUpdated time.Time `json:"last_updated,omitzero"`

	Session     Session     `json:"session"`
	UI          UI          `json:"ui"`
	Character   *Character  `json:"character,omitempty"`
	World       World       `json:"world"`
	Quests      Quests      `json:"quests"`
	Combat      Combat      `json:"combat"`
	Checks      Checks      `json:"checks"`
	Messages    Messages    `json:"messages"`
	Audio       Audio       `json:"audio"`
	Persistence Persistence `json:"persistence"`
}

func newSnapshot(gs *GameState) snapshot {
	return snapshot{
		Version:     gs.Version,
		LastUpdated: gs.LastUpdated,
		Session:     gs.Session,
		UI:          gs.UI,
		Character:   gs.Character,
		World:       gs.World,
		Quests:      gs.Quests,
		Combat:      gs.Combat,
		Checks:      gs.Checks,
		Messages:    gs.Messages.truncated(PersistedMessageLimit),
		Audio:       gs.Audio,
		Persistence: gs.Persistence,
	}
}

func (s snapshot) toGameState() *GameState {
	gs := NewGameState()
	gs.Version = s.Version
	if gs.Version == "" {
		gs.Version = SchemaVersion
	}
	gs.LastUpdated = s.LastUpdated
	gs.Session = s.Session
	gs.UI = s.UI
	if gs.UI.Loading == nil {
		gs.UI.Loading = make(map[string]bool)
	}
	gs.Character = s.Character
	gs.World = s.World
	if s.Quests.ByID != nil {
		gs.Quests = s.Quests
	}
	gs.Combat = s.Combat
	gs.Checks = s.Checks
	if s.Messages.Count() > 0 {
		gs.Messages = s.Messages
	}
	gs.Audio = s.Audio
	gs.Persistence = s.Persistence
	return gs
}
