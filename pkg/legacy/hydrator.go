// Package legacy migrates the previous client generation's scattered
// storage keys into the current versioned schema. The hydrator runs
// once at startup, before anything reads the game state store; after
// its result is merged and cleanup has run, a second run finds nothing
// and returns an empty result.
package legacy

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-client/internal/storage"
	"github.com/jwebster45206/adventure-client/pkg/notify"
	"github.com/jwebster45206/adventure-client/pkg/state"
)

// Legacy storage keys. Each was written ad hoc by a prior client
// generation; none carries a schema version.
const (
	KeySessionID  = "dm_session_id"
	KeyCampaignID = "dm_campaign_id"
	KeyCharacter  = "dm_character"
	KeyGameState  = "dm_game_state"
	KeyIntroFlag  = "dm_intro_played"

	keyMessagesPrefix = "dm_messages_"
	keyOptionsPrefix  = "dm_options_"
)

// Defaults used when legacy character data omits a required field
const (
	defaultHP       = 10
	defaultXPToNext = 150
)

// MessagesKey returns the per-session legacy message-list key
func MessagesKey(sessionID string) string {
	return keyMessagesPrefix + sessionID
}

// OptionsKey returns the per-session legacy option-list key
func OptionsKey(sessionID string) string {
	return keyOptionsPrefix + sessionID
}

// Result is what hydration recovered. State is built over current
// defaults, so a caller can feed it straight through SetGlobalState.
type Result struct {
	State *state.GameState

	SessionID         string
	HydratedSession   bool
	HydratedCharacter bool
	HydratedWorld     bool
	IntroPlayed       bool
	MessageCount      int

	// Skipped is set when Migrate found a current-schema snapshot and
	// left the legacy keys untouched
	Skipped bool
}

// Empty reports whether nothing was recovered
func (r *Result) Empty() bool {
	return !r.HydratedSession && !r.HydratedCharacter &&
		!r.HydratedWorld && r.MessageCount == 0
}

// Hydrator reads the legacy keys through the storage adapter
type Hydrator struct {
	adapter *storage.Adapter
	logger  *slog.Logger
}

// NewHydrator creates a hydrator
func NewHydrator(adapter *storage.Adapter, logger *slog.Logger) *Hydrator {
	return &Hydrator{adapter: adapter, logger: logger}
}

// legacyCharacter is the loosely-typed shape the old client wrote
type legacyCharacter struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Race       string         `json:"race"`
	Class      string         `json:"class"`
	Level      int            `json:"level"`
	Background string         `json:"background"`
	Stats      map[string]int `json:"stats"`
	HP         *int           `json:"hp"`
	MaxHP      *int           `json:"max_hp"`
	AC         int            `json:"ac"`
	CurrentXP  int            `json:"current_xp"`
	XPToNext   *int           `json:"xp_to_next"`
	Inventory  []string       `json:"inventory"`
	Conditions []string       `json:"conditions"`
	Flags      []string       `json:"flags"`
}

// legacyGameState is the old free-form game-state blob. Only the
// fields the current schema can house are extracted.
type legacyGameState struct {
	CurrentLocation string   `json:"current_location"`
	Inventory       []string `json:"inventory"`
}

// legacyMessage is one entry of the old per-session message list
type legacyMessage struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	Text      string   `json:"text"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
	Options   []string `json:"options"`
}

// Run reads every legacy key and projects what it finds onto current
// defaults. Each parse step is isolated: one corrupt key never blocks
// recovery of the others, and no failure propagates — errors are
// logged and the affected slice is treated as having no legacy data.
func (h *Hydrator) Run(ctx context.Context) *Result {
	result := &Result{State: state.NewGameState()}
	gs := result.State

	// Session identity
	sessionID := h.adapter.GetString(ctx, KeySessionID, "")
	campaignID := h.adapter.GetString(ctx, KeyCampaignID, "")
	if sessionID != "" || campaignID != "" {
		gs.Session = state.Session{SessionID: sessionID, CampaignID: campaignID}
		result.SessionID = sessionID
		result.HydratedSession = true
	}

	// Character blob
	var hadCharacterBlob bool
	var legacyChar legacyCharacter
	found, err := h.adapter.GetJSON(ctx, KeyCharacter, &legacyChar)
	hadCharacterBlob = found
	if err != nil {
		h.logger.Warn("Skipping corrupt legacy character blob", "key", KeyCharacter, "error", err)
	} else if found {
		gs.Character = projectCharacter(legacyChar)
		result.HydratedCharacter = true
	}

	// Game-state blob
	var hadStateBlob bool
	var legacyGS legacyGameState
	found, err = h.adapter.GetJSON(ctx, KeyGameState, &legacyGS)
	hadStateBlob = found
	if err != nil {
		h.logger.Warn("Skipping corrupt legacy game-state blob", "key", KeyGameState, "error", err)
	} else if found {
		if legacyGS.CurrentLocation != "" {
			gs.World.State = &state.WorldState{CurrentLocation: legacyGS.CurrentLocation}
			result.HydratedWorld = true
		}
		// Inventory can only land on an already-hydrated character
		if gs.Character != nil && len(legacyGS.Inventory) > 0 {
			gs.Character.Inventory = projectInventory(legacyGS.Inventory)
		}
	}

	// Per-session message and option lists
	if sessionID != "" {
		result.MessageCount = h.hydrateMessages(ctx, sessionID, gs)
	}

	// Intro flag steers the first screen; the key itself is preserved
	// for collaborators that still read it
	result.IntroPlayed = h.adapter.GetString(ctx, KeyIntroFlag, "") == "true"
	if result.IntroPlayed {
		gs.UI.ActiveScreen = "adventure"
	}

	// Capability flags from what actually hydrated
	gs.Persistence.CanSave = campaignID != "" && gs.Character != nil
	gs.Persistence.CanContinue = hadCharacterBlob && hadStateBlob

	if !result.Empty() {
		h.logger.Info("Hydrated legacy state",
			"session", result.HydratedSession,
			"character", result.HydratedCharacter,
			"world", result.HydratedWorld,
			"messages", result.MessageCount)
		notify.Notify(notify.LevelSuccess, "Previous adventure restored")
	}
	return result
}

// hydrateMessages re-keys the legacy message list into normalized form,
// keeping the newest entries within the persisted ceiling. Returns the
// number of messages recovered.
func (h *Hydrator) hydrateMessages(ctx context.Context, sessionID string, gs *state.GameState) int {
	var legacyMsgs []legacyMessage
	found, err := h.adapter.GetJSON(ctx, MessagesKey(sessionID), &legacyMsgs)
	if err != nil {
		h.logger.Warn("Skipping corrupt legacy message list", "session_id", sessionID, "error", err)
		return 0
	}
	if !found || len(legacyMsgs) == 0 {
		return 0
	}

	if len(legacyMsgs) > state.PersistedMessageLimit {
		legacyMsgs = legacyMsgs[len(legacyMsgs)-state.PersistedMessageLimit:]
	}

	msgs := make([]state.Message, 0, len(legacyMsgs))
	seen := make(map[string]bool, len(legacyMsgs))
	for _, lm := range legacyMsgs {
		msg := state.Message{
			ID:      lm.ID,
			Type:    lm.Type,
			Text:    lm.Text,
			Options: lm.Options,
		}
		if msg.Type == "" {
			msg.Type = state.MessageTypeDM
		}
		if lm.Timestamp > 0 {
			msg.Timestamp = time.UnixMilli(lm.Timestamp)
		}
		// Old clients did not always assign ids; synthesize from the
		// timestamp, falling back to a fresh uuid on collision
		if msg.ID == "" && lm.Timestamp > 0 {
			msg.ID = fmt.Sprintf("legacy-%d", lm.Timestamp)
		}
		if msg.ID == "" || seen[msg.ID] {
			msg.ID = uuid.NewString()
		}
		seen[msg.ID] = true
		msgs = append(msgs, msg)
	}

	gs.AddMessagesUnbounded(msgs)

	// The old client kept the current suggested responses in a separate
	// per-session list; they belong to the newest message
	var options []string
	if found, err := h.adapter.GetJSON(ctx, OptionsKey(sessionID), &options); err != nil {
		h.logger.Warn("Skipping corrupt legacy option list", "session_id", sessionID, "error", err)
	} else if found && len(options) > 0 && len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		last.Options = options
		gs.SetMessage(last)
	}

	return len(msgs)
}

// Migrate is the full migration sequence: hydrate, merge, clean up.
// A store that already holds progress wins over the legacy keys —
// keys left behind by an interrupted cleanup, or found after the
// current client has accumulated its own state, must never replace
// newer data — so hydration is skipped and the keys are left in place
// for inspection.
func (h *Hydrator) Migrate(ctx context.Context, store *state.Store) (*Result, error) {
	if snap := store.State(); snap.Session.SessionID != "" ||
		snap.Character != nil || snap.Messages.Count() > 0 {
		h.logger.Info("Current snapshot present; skipping legacy hydration",
			"session_id", snap.Session.SessionID,
			"messages", snap.Messages.Count())
		return &Result{State: state.NewGameState(), Skipped: true}, nil
	}

	result := h.Run(ctx)
	if result.Empty() {
		return result, nil
	}

	if err := store.SetGlobalState(ctx, result.State); err != nil {
		return result, fmt.Errorf("failed to persist hydrated state: %w", err)
	}
	if err := h.Cleanup(ctx, result.SessionID); err != nil {
		return result, err
	}
	return result, nil
}

// Cleanup deletes the superseded legacy keys. The intro-played flag is
// preserved: collaborators still read it, and its presence does not
// cause a re-run to hydrate anything.
func (h *Hydrator) Cleanup(ctx context.Context, sessionID string) error {
	keys := []string{KeySessionID, KeyCampaignID, KeyCharacter, KeyGameState}
	if sessionID != "" {
		keys = append(keys, MessagesKey(sessionID), OptionsKey(sessionID))
	}
	if err := h.adapter.Remove(ctx, keys...); err != nil {
		return fmt.Errorf("failed to remove legacy keys: %w", err)
	}
	return nil
}

func projectCharacter(lc legacyCharacter) *state.Character {
	c := &state.Character{
		ID:         lc.ID,
		Name:       lc.Name,
		Race:       lc.Race,
		Class:      lc.Class,
		Level:      lc.Level,
		Background: lc.Background,
		AC:         lc.AC,
		Stats:      projectStats(lc.Stats),
		Inventory:  projectInventory(lc.Inventory),
		Conditions: lc.Conditions,
		Flags:      lc.Flags,
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Level == 0 {
		c.Level = 1
	}

	c.HP = state.HP{Current: defaultHP, Max: defaultHP}
	if lc.MaxHP != nil {
		c.HP.Max = *lc.MaxHP
		c.HP.Current = *lc.MaxHP
	}
	if lc.HP != nil {
		c.HP.Current = *lc.HP
	}

	c.XP = state.XP{Current: lc.CurrentXP, ToNext: defaultXPToNext}
	if lc.XPToNext != nil {
		c.XP.ToNext = *lc.XPToNext
	}
	return c
}

func projectStats(raw map[string]int) state.Stats {
	stats := state.DefaultStats()
	if raw == nil {
		return stats
	}
	if v, ok := raw["strength"]; ok {
		stats.Strength = v
	}
	if v, ok := raw["dexterity"]; ok {
		stats.Dexterity = v
	}
	if v, ok := raw["constitution"]; ok {
		stats.Constitution = v
	}
	if v, ok := raw["intelligence"]; ok {
		stats.Intelligence = v
	}
	if v, ok := raw["wisdom"]; ok {
		stats.Wisdom = v
	}
	if v, ok := raw["charisma"]; ok {
		stats.Charisma = v
	}
	return stats
}

func projectInventory(items []string) []state.Item {
	if len(items) == 0 {
		return nil
	}
	out := make([]state.Item, 0, len(items))
	for _, name := range items {
		out = append(out, state.Item{Name: name, Quantity: 1})
	}
	return out
}
