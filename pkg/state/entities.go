package state

import (
	"time"
)

// Stats represents the six core ability scores
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

// DefaultStats returns the baseline score used when legacy data omits
// an ability
func DefaultStats() Stats {
	return Stats{
		Strength:     10,
		Dexterity:    10,
		Constitution: 10,
		Intelligence: 10,
		Wisdom:       10,
		Charisma:     10,
	}
}

// HP is a current/max hit point pair
type HP struct {
	Current int `json:"current"`
	Max     int `json:"max"`
}

// XP tracks experience toward the next level
type XP struct {
	Current int `json:"current"`
	ToNext  int `json:"to_next"`
}

// Item is an inventory stub; full item data lives server-side
type Item struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity,omitempty"`
}

// Character is the single player character for this session. It is
// optional on the aggregate: nil until creation completes.
type Character struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Race       string `json:"race,omitempty"`
	Class      string `json:"class,omitempty"`
	Level      int    `json:"level,omitempty"`
	Background string `json:"background,omitempty"`

	Stats            Stats `json:"stats"`
	HP               HP    `json:"hp"`
	AC               int   `json:"ac,omitempty"`
	ProficiencyBonus int   `json:"proficiency_bonus,omitempty"`
	XP               XP    `json:"xp"`

	Inventory  []Item   `json:"inventory,omitempty"`
	Conditions []string `json:"conditions,omitempty"`
	Flags      []string `json:"flags,omitempty"`
	Virtues    []string `json:"virtues,omitempty"`
}

// Location is one place in the generated world
type Location struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	Exits       map[string]string `json:"exits,omitempty"`
}

// Blueprint is the immutable generated-world data. It is set once,
// wholesale, when world generation completes.
type Blueprint struct {
	Name        string              `json:"name,omitempty"`
	Description string              `json:"description,omitempty"`
	Locations   map[string]Location `json:"locations,omitempty"`
}

// WorldState is the mutable now-ness of the world, patched as the
// narration advances.
type WorldState struct {
	CurrentLocation string            `json:"current_location,omitempty"`
	TimeOfDay       string            `json:"time_of_day,omitempty"`
	Weather         string            `json:"weather,omitempty"`
	NPCActivity     map[string]string `json:"npc_activity,omitempty"` // npc name -> current activity
}

// World pairs the immutable blueprint with the mutable state
type World struct {
	Blueprint *Blueprint  `json:"blueprint,omitempty"`
	State     *WorldState `json:"state,omitempty"`
}

// QuestStatus is the lifecycle position of a quest
type QuestStatus string

const (
	QuestActive    QuestStatus = "active"
	QuestCompleted QuestStatus = "completed"
	QuestFailed    QuestStatus = "failed"
	QuestRumored   QuestStatus = "rumored"
)

// Quest is a single quest entity
type Quest struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Status      QuestStatus `json:"status"`
	Objectives  []string    `json:"objectives,omitempty"`
	XPReward    int         `json:"xp_reward,omitempty"`
}

// Quests is the normalized quest aggregate: entities keyed by id plus
// ordered index lists. Every indexed id exists in ByID, and an id
// appears in at most one of ActiveIDs/CompletedIDs. A quest in neither
// list is unstarted or unresolved (failed, rumored).
type Quests struct {
	ByID         map[string]Quest `json:"by_id"`
	AllIDs       []string         `json:"all_ids"`
	ActiveIDs    []string         `json:"active_ids"`
	CompletedIDs []string         `json:"completed_ids"`
}

// NewQuests returns an empty normalized quest aggregate
func NewQuests() Quests {
	return Quests{
		ByID:         make(map[string]Quest),
		AllIDs:       make([]string, 0),
		ActiveIDs:    make([]string, 0),
		CompletedIDs: make([]string, 0),
	}
}

// Combatant is one participant in the active encounter
type Combatant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	HP         HP     `json:"hp"`
	Initiative int    `json:"initiative,omitempty"`
	IsPlayer   bool   `json:"is_player,omitempty"`
}

// Combat is the single optional active-encounter record. When an
// encounter ends, participants and turn state are cleared but Outcome
// is retained for one display cycle.
type Combat struct {
	IsActive         bool        `json:"is_active"`
	CombatID         string      `json:"combat_id,omitempty"`
	Participants     []Combatant `json:"participants,omitempty"`
	TurnOrder        []string    `json:"turn_order,omitempty"`
	CurrentTurnIndex int         `json:"current_turn_index"`
	RoundNumber      int         `json:"round_number"`
	Outcome          string      `json:"outcome,omitempty"`
}

// Check is an outstanding ability or skill check awaiting a dice roll
type Check struct {
	ID          string    `json:"id,omitempty"`
	Ability     string    `json:"ability"`
	Skill       string    `json:"skill,omitempty"`
	DC          int       `json:"dc"`
	Reason      string    `json:"reason,omitempty"`
	RequestedAt time.Time `json:"requested_at,omitzero"`
}

// CheckResult is a resolved check appended to history
type CheckResult struct {
	Check      Check     `json:"check"`
	Roll       int       `json:"roll"`
	Total      int       `json:"total"`
	Success    bool      `json:"success"`
	ResolvedAt time.Time `json:"resolved_at,omitzero"`
}

// Checks holds at most one pending check plus an append-only history
type Checks struct {
	Pending *Check        `json:"pending,omitempty"`
	History []CheckResult `json:"history,omitempty"`
}
