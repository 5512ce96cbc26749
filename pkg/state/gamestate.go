package state

import (
	"fmt"
	"time"
)

// SchemaVersion identifies the persisted snapshot layout. Bump when the
// aggregate shape changes in a way old snapshots cannot decode.
const SchemaVersion = "2.0"

// MessageLimit is the in-memory ceiling for the conversation log.
// Crossing it evicts the oldest message (FIFO).
const MessageLimit = 500

// PersistedMessageLimit bounds how many messages survive the
// persistence and legacy-import boundaries.
const PersistedMessageLimit = 200

// Session identifies which backend conversation and campaign this
// client instance is bound to. SessionID is generated by the caller,
// typically via NewSessionID; the store only records it.
type Session struct {
	SessionID   string    `json:"session_id,omitempty"`
	CampaignID  string    `json:"campaign_id,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitzero"`
	LastSavedAt time.Time `json:"last_saved_at,omitzero"`
}

// NewSessionID derives the client-generated session id. Campaign-bound
// sessions derive from the campaign id so a reconnect binds to the same
// session; free sessions fall back to the creation timestamp.
func NewSessionID(campaignID string) string {
	if campaignID != "" {
		return "sess-" + campaignID
	}
	return fmt.Sprintf("sess-%d", time.Now().UnixMilli())
}

// UI is ephemeral view state. It never holds entity data; entities live
// in their own slices.
type UI struct {
	ActiveScreen  string          `json:"active_screen,omitempty"`
	Loading       map[string]bool `json:"loading,omitempty"` // keyed by async operation category
	SelectedNPC   string          `json:"selected_npc,omitempty"`
	PendingIntent string          `json:"pending_intent,omitempty"`
	InputDraft    string          `json:"input_draft,omitempty"`
}

// Audio tracks narration playback state. The queue is FIFO and owned
// here; actual synthesis and playback belong to the TTS collaborator.
type Audio struct {
	TTSEnabled bool     `json:"tts_enabled"`
	NowPlaying string   `json:"now_playing,omitempty"`
	Queue      []string `json:"queue,omitempty"` // pending narration message ids
}

// Persistence tracks dirty state and save capabilities. The capability
// flags are recomputed from slice presence, never set directly.
type Persistence struct {
	HasUnsavedChanges bool      `json:"has_unsaved_changes"`
	LastLocalSaveAt   time.Time `json:"last_local_save_at,omitzero"`
	LastDBSaveAt      time.Time `json:"last_db_save_at,omitzero"`
	CanSave           bool      `json:"can_save"`
	CanContinue       bool      `json:"can_continue"`
	CanLoadFromDB     bool      `json:"can_load_from_db"`
}

// Derived holds values computed from the other slices. It is
// recalculated after every entity mutation and never mutated directly.
type Derived struct {
	IsGameReady     bool    `json:"is_game_ready"`
	IsInCombat      bool    `json:"is_in_combat"`
	HasPendingCheck bool    `json:"has_pending_check"`
	CharacterLevel  int     `json:"character_level"`
	NextLevelXP     int     `json:"next_level_xp"`
	XPProgress      float64 `json:"xp_progress"`
}

// GameState is the root aggregate: the single source of truth for one
// adventure session on this client.
type GameState struct {
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
	Derived     Derived     `json:"derived"`
}

// NewGameState creates an empty aggregate with current-schema defaults
func NewGameState() *GameState {
	return &GameState{
		Version:  SchemaVersion,
		UI:       UI{Loading: make(map[string]bool)},
		Quests:   NewQuests(),
		Messages: NewMessages(),
	}
}
