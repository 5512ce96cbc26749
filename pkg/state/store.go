package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/adventure-client/internal/storage"
)

// Store owns the root aggregate and its full mutation surface. All
// mutation goes through the action methods; slices handed out by State
// and the view layer must be treated as read-only.
//
// Every action applies atomically: the patch, the derived-state
// recomputation and the snapshot write all complete before the action
// returns, so no caller ever observes a half-updated aggregate.
// Actions are applied strictly in call order.
//
// Persistence failures surface as the returned error; the mutation
// itself still applies in memory.
type Store struct {
	mu      sync.Mutex
	logger  *slog.Logger
	adapter *storage.Adapter
	key     string

	gs     *GameState
	msgRev uint64

	subs      map[int]func()
	nextSubID int
}

// NewStore creates a store over empty defaults. namespace prefixes the
// snapshot key; the store is the only writer of that key.
func NewStore(adapter *storage.Adapter, namespace string, logger *slog.Logger) *Store {
	return &Store{
		logger:  logger,
		adapter: adapter,
		key:     namespace + ":state",
		gs:      NewGameState(),
		subs:    make(map[int]func()),
	}
}

// Load restores the aggregate from the persisted snapshot, when one
// exists. Missing or undecodable snapshots leave the defaults in place;
// a full reload never needs the legacy hydrator once a snapshot exists.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var snap snapshot
	found, err := s.adapter.GetJSON(ctx, s.key, &snap)
	if err != nil {
		s.logger.Warn("Discarding undecodable state snapshot", "key", s.key, "error", err)
		return nil
	}
	if !found {
		return nil
	}

	s.gs = snap.toGameState()
	computeDerived(s.gs)
	s.msgRev++
	return nil
}

// Subscribe registers a callback invoked after every mutation. The
// returned function unsubscribes.
func (s *Store) Subscribe(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// State returns the current aggregate. The copy shares slice and map
// backing with the store: read-only by contract.
func (s *Store) State() GameState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.gs
}

// messagesRevision identifies the current message-slice generation.
// The view layer compares it to decide whether a cached projection is
// still valid.
func (s *Store) messagesRevision() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.msgRev
}

// SetGlobalState replaces the aggregate wholesale. Used by the legacy
// hydration merge path; normal mutation goes through the named actions.
func (s *Store) SetGlobalState(ctx context.Context, gs *GameState) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		next := *gs
		if next.Version == "" {
			next.Version = SchemaVersion
		}
		*cur = &next
		s.msgRev++
	})
}

// UpdateSession shallow-merges a session patch. Replacing an already
// set session id is permitted but reported as PatchOverwrote and
// logged; callers that did not intend a rebind should treat it as a
// bug signal.
func (s *Store) UpdateSession(ctx context.Context, p SessionPatch) (PatchResult, error) {
	result := PatchApplied
	err := s.mutate(ctx, true, func(cur **GameState) {
		prev := (*cur).Session.SessionID
		if p.apply(&(*cur).Session) {
			result = PatchOverwrote
			s.logger.Warn("Session id overwritten",
				"previous", prev,
				"next", (*cur).Session.SessionID)
		}
	})
	return result, err
}

// UpdateUI shallow-merges ephemeral view state. No derived recompute.
func (s *Store) UpdateUI(ctx context.Context, p UIPatch) error {
	return s.mutate(ctx, false, func(cur **GameState) {
		p.apply(&(*cur).UI)
	})
}

// UpdateAudio shallow-merges the audio slice. No derived recompute.
func (s *Store) UpdateAudio(ctx context.Context, p AudioPatch) error {
	return s.mutate(ctx, false, func(cur **GameState) {
		p.apply(&(*cur).Audio)
	})
}

// EnqueueNarration appends a message id to the narration queue (FIFO)
func (s *Store) EnqueueNarration(ctx context.Context, messageID string) error {
	return s.mutate(ctx, false, func(cur **GameState) {
		(*cur).Audio.Queue = append((*cur).Audio.Queue, messageID)
	})
}

// DequeueNarration removes and returns the front of the narration queue
func (s *Store) DequeueNarration(ctx context.Context) (string, bool, error) {
	var id string
	var ok bool
	err := s.mutate(ctx, false, func(cur **GameState) {
		q := (*cur).Audio.Queue
		if len(q) == 0 {
			return
		}
		id, ok = q[0], true
		(*cur).Audio.Queue = append([]string(nil), q[1:]...)
	})
	return id, ok, err
}

// UpdatePersistence shallow-merges dirty-tracking state
func (s *Store) UpdatePersistence(ctx context.Context, p PersistencePatch) error {
	return s.mutate(ctx, false, func(cur **GameState) {
		p.apply(&(*cur).Persistence)
	})
}

// SetCharacter replaces the character wholesale
func (s *Store) SetCharacter(ctx context.Context, c *Character) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).Character = c
	})
}

// UpdateCharacter shallow-merges a character patch. Ignored when no
// character exists: a character cannot be created by patch.
func (s *Store) UpdateCharacter(ctx context.Context, p CharacterPatch) (PatchResult, error) {
	result := PatchIgnored
	err := s.mutate(ctx, true, func(cur **GameState) {
		if (*cur).Character == nil {
			return
		}
		p.apply((*cur).Character)
		result = PatchApplied
	})
	return result, err
}

// SetWorld replaces the world wholesale (blueprint and state)
func (s *Store) SetWorld(ctx context.Context, w World) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).World = w
	})
}

// UpdateWorldState shallow-merges a world-state patch. Ignored when no
// world state exists yet.
func (s *Store) UpdateWorldState(ctx context.Context, p WorldStatePatch) (PatchResult, error) {
	result := PatchIgnored
	err := s.mutate(ctx, true, func(cur **GameState) {
		if (*cur).World.State == nil {
			return
		}
		p.apply((*cur).World.State)
		result = PatchApplied
	})
	return result, err
}

// SetQuests replaces the normalized quest aggregate wholesale. Index
// lists are validated at this boundary: ids without an entity are
// dropped, and an id indexed both active and completed stays completed.
func (s *Store) SetQuests(ctx context.Context, q Quests) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).Quests = s.normalizeQuests(q)
	})
}

func (s *Store) normalizeQuests(q Quests) Quests {
	if q.ByID == nil {
		q.ByID = make(map[string]Quest)
	}

	known := func(ids []string) []string {
		out := make([]string, 0, len(ids))
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				continue
			}
			seen[id] = true
			if _, ok := q.ByID[id]; !ok {
				s.logger.Warn("Dropping quest index entry without entity", "quest_id", id)
				continue
			}
			out = append(out, id)
		}
		return out
	}

	q.AllIDs = known(q.AllIDs)
	q.CompletedIDs = known(q.CompletedIDs)

	completed := make(map[string]bool, len(q.CompletedIDs))
	for _, id := range q.CompletedIDs {
		completed[id] = true
	}

	active := known(q.ActiveIDs)
	q.ActiveIDs = make([]string, 0, len(active))
	for _, id := range active {
		if completed[id] {
			s.logger.Warn("Quest indexed both active and completed; keeping completed", "quest_id", id)
			continue
		}
		q.ActiveIDs = append(q.ActiveIDs, id)
	}
	return q
}

// UpdateCombat shallow-merges a combat patch
func (s *Store) UpdateCombat(ctx context.Context, p CombatPatch) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		p.apply(&(*cur).Combat)
	})
}

// StartCombat opens a new encounter record. A missing combat id is
// generated.
func (s *Store) StartCombat(ctx context.Context, combatID string, participants []Combatant, turnOrder []string) error {
	if combatID == "" {
		combatID = uuid.NewString()
	}
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).Combat = Combat{
			IsActive:     true,
			CombatID:     combatID,
			Participants: participants,
			TurnOrder:    turnOrder,
			RoundNumber:  1,
		}
	})
}

// EndCombat closes the encounter: participants and turn state clear,
// Outcome is retained for one display cycle.
func (s *Store) EndCombat(ctx context.Context, outcome string) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).Combat = Combat{Outcome: outcome}
	})
}

// ClearCombatOutcome resets the retained outcome after it has been shown
func (s *Store) ClearCombatOutcome(ctx context.Context) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).Combat.Outcome = ""
	})
}

// SetPendingCheck sets or clears (nil) the single outstanding check
func (s *Store) SetPendingCheck(ctx context.Context, c *Check) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).Checks.Pending = c
	})
}

// PushCheckHistory appends a resolved check. History is append-only.
func (s *Store) PushCheckHistory(ctx context.Context, r CheckResult) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).Checks.History = append((*cur).Checks.History, r)
	})
}

// ResolvePendingCheck clears the pending check and appends its result
// in one action
func (s *Store) ResolvePendingCheck(ctx context.Context, r CheckResult) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).Checks.Pending = nil
		(*cur).Checks.History = append((*cur).Checks.History, r)
	})
}

// AddMessage upserts one message by id. New ids append in conversation
// order; existing ids replace in place. Past the in-memory ceiling the
// oldest message is evicted.
func (s *Store) AddMessage(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return s.mutate(ctx, true, func(cur **GameState) {
		if evicted, ok := (*cur).Messages.add(msg, true); ok {
			s.logger.Debug("Evicted oldest message", "message_id", evicted)
		}
		s.msgRev++
	})
}

// AddMessages bulk-upserts with the same dedup semantics as AddMessage
// but without per-insert eviction. Once the whole batch has landed the
// log is clamped back to the in-memory ceiling, so a bulk load can
// neither exceed it nor raise the eviction point for later AddMessage
// calls.
func (s *Store) AddMessages(ctx context.Context, msgs []Message) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		for _, msg := range msgs {
			if msg.ID == "" {
				msg.ID = uuid.NewString()
			}
			(*cur).Messages.add(msg, false)
		}
		(*cur).Messages = (*cur).Messages.truncated(MessageLimit)
		s.msgRev++
	})
}

// UpdateMessage shallow-merges onto an existing message. Ignored when
// the id is absent.
func (s *Store) UpdateMessage(ctx context.Context, id string, p MessagePatch) (PatchResult, error) {
	result := PatchIgnored
	err := s.mutate(ctx, true, func(cur **GameState) {
		msg, ok := (*cur).Messages.Get(id)
		if !ok {
			return
		}
		p.apply(&msg)
		(*cur).Messages.set(id, msg)
		result = PatchApplied
		s.msgRev++
	})
	return result, err
}

// ClearMessages resets the conversation log to empty
func (s *Store) ClearMessages(ctx context.Context) error {
	return s.mutate(ctx, true, func(cur **GameState) {
		(*cur).Messages = NewMessages()
		s.msgRev++
	})
}

// MarkDirty flags unsaved changes
func (s *Store) MarkDirty(ctx context.Context) error {
	return s.mutate(ctx, false, func(cur **GameState) {
		(*cur).Persistence.HasUnsavedChanges = true
	})
}

// MarkSavedToLocal clears the dirty flag and stamps the local save time
func (s *Store) MarkSavedToLocal(ctx context.Context, at time.Time) error {
	return s.mutate(ctx, false, func(cur **GameState) {
		(*cur).Persistence.HasUnsavedChanges = false
		(*cur).Persistence.LastLocalSaveAt = at
		(*cur).Session.LastSavedAt = at
	})
}

// MarkSavedToDB clears the dirty flag and stamps the remote save time
func (s *Store) MarkSavedToDB(ctx context.Context, at time.Time) error {
	return s.mutate(ctx, false, func(cur **GameState) {
		(*cur).Persistence.HasUnsavedChanges = false
		(*cur).Persistence.LastDBSaveAt = at
		(*cur).Session.LastSavedAt = at
	})
}

// mutate applies one action: patch, timestamp, derived recompute for
// entity mutations, snapshot write, then subscriber notification. The
// persist error is returned after the in-memory mutation has applied.
func (s *Store) mutate(ctx context.Context, entity bool, fn func(**GameState)) error {
	s.mu.Lock()

	fn(&s.gs)
	s.gs.LastUpdated = time.Now()
	if entity {
		computeDerived(s.gs)
	}

	err := s.persistLocked(ctx)

	subs := make([]func(), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub()
	}
	return err
}

func (s *Store) persistLocked(ctx context.Context) error {
	snap := newSnapshot(s.gs)
	if err := s.adapter.Set(ctx, s.key, snap); err != nil {
		s.logger.Error("Failed to persist state snapshot", "key", s.key, "error", err)
		return err
	}
	return nil
}
