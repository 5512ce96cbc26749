package state

import (
	"encoding/json"
	"time"
)

// Message types mirror the speakers in the adventure log
const (
	MessageTypeDM     = "dm"
	MessageTypePlayer = "player"
	MessageTypeSystem = "system"
)

// Message is a single adventure-log entry
type Message struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"` // "dm", "player", "system"
	Text      string    `json:"text"`
	AudioURL  string    `json:"audio_url,omitempty"`
	Timestamp time.Time `json:"timestamp,omitzero"`
	Options   []string  `json:"options,omitempty"` // suggested player responses
}

// Messages is the normalized conversation log: entities keyed by id
// plus an insertion-ordered id ring. Count always equals the ring
// length and the map size, and the ring holds no duplicates.
type Messages struct {
	byID map[string]Message
	ring *idRing
}

// NewMessages returns an empty conversation log
func NewMessages() Messages {
	return Messages{
		byID: make(map[string]Message),
		ring: newIDRing(MessageLimit),
	}
}

// Count returns the number of stored messages
func (m Messages) Count() int {
	if m.ring == nil {
		return 0
	}
	return m.ring.len()
}

// IDs returns message ids oldest-first
func (m Messages) IDs() []string {
	if m.ring == nil {
		return nil
	}
	return m.ring.ids()
}

// Get returns a message by id
func (m Messages) Get(id string) (Message, bool) {
	msg, ok := m.byID[id]
	return msg, ok
}

// Has reports whether a message id is present
func (m Messages) Has(id string) bool {
	_, ok := m.byID[id]
	return ok
}

// All returns the messages in conversation order as a fresh slice
func (m Messages) All() []Message {
	if m.ring == nil {
		return nil
	}
	ids := m.ring.ids()
	out := make([]Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.byID[id])
	}
	return out
}

// add upserts a message. A new id is appended to the order; an existing
// id is replaced in place without changing ordering or count. When
// bounded is true and the log exceeds its ceiling, the oldest message
// is evicted. Returns the evicted id, if any.
func (m *Messages) add(msg Message, bounded bool) (evicted string, ok bool) {
	if m.byID == nil {
		*m = NewMessages()
	}
	if _, exists := m.byID[msg.ID]; exists {
		m.byID[msg.ID] = msg
		return "", false
	}

	m.byID[msg.ID] = msg
	if bounded {
		if evicted, ok = m.ring.push(msg.ID); ok {
			delete(m.byID, evicted)
		}
		return evicted, ok
	}
	m.ring.pushGrow(msg.ID)
	return "", false
}

// set replaces an existing message value. Returns false when the id is
// absent; set never creates.
func (m *Messages) set(id string, msg Message) bool {
	if _, ok := m.byID[id]; !ok {
		return false
	}
	m.byID[id] = msg
	return true
}

// truncated returns a copy holding only the newest limit messages
func (m Messages) truncated(limit int) Messages {
	all := m.All()
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := NewMessages()
	for _, msg := range all {
		out.add(msg, false)
	}
	return out
}

// AddMessagesUnbounded bulk-appends messages onto an aggregate that is
// not yet owned by a store. Hydration path only; no eviction.
func (gs *GameState) AddMessagesUnbounded(msgs []Message) {
	for _, msg := range msgs {
		gs.Messages.add(msg, false)
	}
}

// SetMessage replaces an existing message value on an aggregate that is
// not yet owned by a store. Returns false when the id is absent.
func (gs *GameState) SetMessage(msg Message) bool {
	return gs.Messages.set(msg.ID, msg)
}

type messagesJSON struct {
	ByID   map[string]Message `json:"by_id"`
	AllIDs []string           `json:"all_ids"`
	Count  int                `json:"count"`
}

// MarshalJSON writes the normalized {by_id, all_ids, count} shape
func (m Messages) MarshalJSON() ([]byte, error) {
	byID := m.byID
	if byID == nil {
		byID = map[string]Message{}
	}
	ids := m.IDs()
	if ids == nil {
		ids = []string{}
	}
	return json.Marshal(messagesJSON{
		ByID:   byID,
		AllIDs: ids,
		Count:  len(ids),
	})
}

// UnmarshalJSON rebuilds the log, enforcing the index invariant at the
// boundary: ids without an entity and duplicate ids are dropped.
func (m *Messages) UnmarshalJSON(data []byte) error {
	var raw messagesJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	rebuilt := NewMessages()
	seen := make(map[string]bool, len(raw.AllIDs))
	for _, id := range raw.AllIDs {
		msg, ok := raw.ByID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		rebuilt.add(msg, false)
	}
	*m = rebuilt
	return nil
}
