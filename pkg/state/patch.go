package state

import (
	"time"
)

// PatchResult reports what a patch actually did, making the silent
// no-op cases of the update actions observable.
type PatchResult int

const (
	// PatchIgnored means the target entity did not exist; nothing changed
	PatchIgnored PatchResult = iota
	// PatchApplied means the patch merged normally
	PatchApplied
	// PatchOverwrote means the patch replaced a value that is normally
	// write-once (currently only Session.SessionID)
	PatchOverwrote
)

func (r PatchResult) String() string {
	switch r {
	case PatchIgnored:
		return "ignored"
	case PatchApplied:
		return "applied"
	case PatchOverwrote:
		return "overwrote"
	default:
		return "unknown"
	}
}

// SessionPatch is a partial update to the Session slice
type SessionPatch struct {
	SessionID   *string
	CampaignID  *string
	CreatedAt   *time.Time
	LastSavedAt *time.Time
}

// apply merges the patch and reports whether a non-empty session id was
// replaced with a different value
func (p SessionPatch) apply(s *Session) (overwroteSessionID bool) {
	if p.SessionID != nil {
		if s.SessionID != "" && s.SessionID != *p.SessionID {
			overwroteSessionID = true
		}
		s.SessionID = *p.SessionID
	}
	if p.CampaignID != nil {
		s.CampaignID = *p.CampaignID
	}
	if p.CreatedAt != nil {
		s.CreatedAt = *p.CreatedAt
	}
	if p.LastSavedAt != nil {
		s.LastSavedAt = *p.LastSavedAt
	}
	return overwroteSessionID
}

// UIPatch is a partial update to the UI slice. Loading merges key-wise.
type UIPatch struct {
	ActiveScreen  *string
	Loading       map[string]bool
	SelectedNPC   *string
	PendingIntent *string
	InputDraft    *string
}

func (p UIPatch) apply(u *UI) {
	if p.ActiveScreen != nil {
		u.ActiveScreen = *p.ActiveScreen
	}
	for category, loading := range p.Loading {
		if u.Loading == nil {
			u.Loading = make(map[string]bool)
		}
		u.Loading[category] = loading
	}
	if p.SelectedNPC != nil {
		u.SelectedNPC = *p.SelectedNPC
	}
	if p.PendingIntent != nil {
		u.PendingIntent = *p.PendingIntent
	}
	if p.InputDraft != nil {
		u.InputDraft = *p.InputDraft
	}
}

// CharacterPatch is a partial update to the character. List fields
// replace wholesale; a patch cannot create a character.
type CharacterPatch struct {
	Name             *string
	Race             *string
	Class            *string
	Level            *int
	Background       *string
	Stats            *Stats
	HPCurrent        *int
	HPMax            *int
	AC               *int
	ProficiencyBonus *int
	CurrentXP        *int
	XPToNext         *int
	Inventory        *[]Item
	Conditions       *[]string
	Flags            *[]string
	Virtues          *[]string
}

func (p CharacterPatch) apply(c *Character) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Race != nil {
		c.Race = *p.Race
	}
	if p.Class != nil {
		c.Class = *p.Class
	}
	if p.Level != nil {
		c.Level = *p.Level
	}
	if p.Background != nil {
		c.Background = *p.Background
	}
	if p.Stats != nil {
		c.Stats = *p.Stats
	}
	if p.HPCurrent != nil {
		c.HP.Current = *p.HPCurrent
	}
	if p.HPMax != nil {
		c.HP.Max = *p.HPMax
	}
	if p.AC != nil {
		c.AC = *p.AC
	}
	if p.ProficiencyBonus != nil {
		c.ProficiencyBonus = *p.ProficiencyBonus
	}
	if p.CurrentXP != nil {
		c.XP.Current = *p.CurrentXP
	}
	if p.XPToNext != nil {
		c.XP.ToNext = *p.XPToNext
	}
	if p.Inventory != nil {
		c.Inventory = *p.Inventory
	}
	if p.Conditions != nil {
		c.Conditions = *p.Conditions
	}
	if p.Flags != nil {
		c.Flags = *p.Flags
	}
	if p.Virtues != nil {
		c.Virtues = *p.Virtues
	}
}

// WorldStatePatch is a partial update to World.State. NPCActivity
// merges key-wise.
type WorldStatePatch struct {
	CurrentLocation *string
	TimeOfDay       *string
	Weather         *string
	NPCActivity     map[string]string
}

func (p WorldStatePatch) apply(ws *WorldState) {
	if p.CurrentLocation != nil {
		ws.CurrentLocation = *p.CurrentLocation
	}
	if p.TimeOfDay != nil {
		ws.TimeOfDay = *p.TimeOfDay
	}
	if p.Weather != nil {
		ws.Weather = *p.Weather
	}
	for npc, activity := range p.NPCActivity {
		if ws.NPCActivity == nil {
			ws.NPCActivity = make(map[string]string)
		}
		ws.NPCActivity[npc] = activity
	}
}

// CombatPatch is a partial update to the combat record
type CombatPatch struct {
	IsActive         *bool
	CombatID         *string
	Participants     *[]Combatant
	TurnOrder        *[]string
	CurrentTurnIndex *int
	RoundNumber      *int
	Outcome          *string
}

func (p CombatPatch) apply(c *Combat) {
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
	if p.CombatID != nil {
		c.CombatID = *p.CombatID
	}
	if p.Participants != nil {
		c.Participants = *p.Participants
	}
	if p.TurnOrder != nil {
		c.TurnOrder = *p.TurnOrder
	}
	if p.CurrentTurnIndex != nil {
		c.CurrentTurnIndex = *p.CurrentTurnIndex
	}
	if p.RoundNumber != nil {
		c.RoundNumber = *p.RoundNumber
	}
	if p.Outcome != nil {
		c.Outcome = *p.Outcome
	}
}

// AudioPatch is a partial update to the audio slice. Queue replaces
// wholesale; use the store's enqueue/dequeue actions for FIFO edits.
type AudioPatch struct {
	TTSEnabled *bool
	NowPlaying *string
	Queue      *[]string
}

func (p AudioPatch) apply(a *Audio) {
	if p.TTSEnabled != nil {
		a.TTSEnabled = *p.TTSEnabled
	}
	if p.NowPlaying != nil {
		a.NowPlaying = *p.NowPlaying
	}
	if p.Queue != nil {
		a.Queue = *p.Queue
	}
}

// PersistencePatch updates dirty tracking. Capability flags are
// recomputed from slice presence and cannot be patched.
type PersistencePatch struct {
	HasUnsavedChanges *bool
	LastLocalSaveAt   *time.Time
	LastDBSaveAt      *time.Time
}

func (p PersistencePatch) apply(pe *Persistence) {
	if p.HasUnsavedChanges != nil {
		pe.HasUnsavedChanges = *p.HasUnsavedChanges
	}
	if p.LastLocalSaveAt != nil {
		pe.LastLocalSaveAt = *p.LastLocalSaveAt
	}
	if p.LastDBSaveAt != nil {
		pe.LastDBSaveAt = *p.LastDBSaveAt
	}
}

// MessagePatch is a partial update to a stored message
type MessagePatch struct {
	Type     *string
	Text     *string
	AudioURL *string
	Options  *[]string
}

func (p MessagePatch) apply(m *Message) {
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.Text != nil {
		m.Text = *p.Text
	}
	if p.AudioURL != nil {
		m.AudioURL = *p.AudioURL
	}
	if p.Options != nil {
		m.Options = *p.Options
	}
}
