package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jwebster45206/adventure-client/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	adapter := storage.NewAdapter(storage.NewMemoryKV(), testLogger())
	return NewStore(adapter, "test", testLogger())
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func boolPtr(b bool) *bool    { return &b }

func TestStore_AddMessageCountInvariant(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		if err := s.AddMessage(ctx, Message{ID: fmt.Sprintf("m%d", i), Type: MessageTypeDM, Text: "x"}); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}
	// Re-add half of them: upserts, not appends
	for i := 0; i < 10; i++ {
		if err := s.AddMessage(ctx, Message{ID: fmt.Sprintf("m%d", i), Type: MessageTypeDM, Text: "revised"}); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	gs := s.State()
	if gs.Messages.Count() != 20 {
		t.Errorf("expected 20 messages, got %d", gs.Messages.Count())
	}
	if len(gs.Messages.IDs()) != 20 {
		t.Errorf("expected 20 ids, got %d", len(gs.Messages.IDs()))
	}
}

func TestStore_AddMessageEvictsOldestAtLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i <= MessageLimit; i++ {
		if err := s.AddMessage(ctx, Message{ID: fmt.Sprintf("m%d", i), Type: MessageTypeDM}); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}

	gs := s.State()
	if gs.Messages.Count() != MessageLimit {
		t.Fatalf("expected count %d, got %d", MessageLimit, gs.Messages.Count())
	}
	if gs.Messages.Has("m0") {
		t.Error("oldest message should have been evicted")
	}
	if !gs.Messages.Has(fmt.Sprintf("m%d", MessageLimit)) {
		t.Error("newest message should be present")
	}
}

func TestStore_BulkAddKeepsEvictionCeiling(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	total := MessageLimit + 100
	msgs := make([]Message, total)
	for i := range msgs {
		msgs[i] = Message{ID: fmt.Sprintf("m%d", i), Type: MessageTypeDM}
	}
	if err := s.AddMessages(ctx, msgs); err != nil {
		t.Fatalf("AddMessages failed: %v", err)
	}

	gs := s.State()
	if gs.Messages.Count() != MessageLimit {
		t.Fatalf("expected clamp to %d, got %d", MessageLimit, gs.Messages.Count())
	}
	if gs.Messages.Has("m99") {
		t.Error("oldest bulk messages should be dropped by the clamp")
	}
	if !gs.Messages.Has(fmt.Sprintf("m%d", total-1)) {
		t.Error("newest bulk message should survive the clamp")
	}

	// The very next single insert must evict at the normal ceiling, not
	// at whatever capacity the bulk load grew through
	if err := s.AddMessage(ctx, Message{ID: "extra", Type: MessageTypePlayer}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	gs = s.State()
	if gs.Messages.Count() != MessageLimit {
		t.Errorf("expected count to hold at %d after single insert, got %d", MessageLimit, gs.Messages.Count())
	}
	if gs.Messages.Has("m100") {
		t.Error("single insert after bulk load should evict the oldest survivor")
	}
	if !gs.Messages.Has("extra") {
		t.Error("new message should be present")
	}
}

func TestStore_UpdateMessagePreservesUnpatchedFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AddMessage(ctx, Message{ID: "m1", Type: MessageTypeDM, Text: "You enter the cave."}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	result, err := s.UpdateMessage(ctx, "m1", MessagePatch{AudioURL: strPtr("blob:abc")})
	if err != nil {
		t.Fatalf("UpdateMessage failed: %v", err)
	}
	if result != PatchApplied {
		t.Errorf("expected PatchApplied, got %v", result)
	}

	gs := s.State()
	if gs.Messages.Count() != 1 {
		t.Errorf("expected 1 message, got %d", gs.Messages.Count())
	}
	msg, ok := gs.Messages.Get("m1")
	if !ok {
		t.Fatal("m1 missing")
	}
	if msg.AudioURL != "blob:abc" {
		t.Errorf("expected audio url set, got %q", msg.AudioURL)
	}
	if msg.Text != "You enter the cave." {
		t.Errorf("text should be preserved, got %q", msg.Text)
	}
}

func TestStore_UpdateMessageUnknownIDIgnored(t *testing.T) {
	s := newTestStore(t)

	result, err := s.UpdateMessage(context.Background(), "ghost", MessagePatch{Text: strPtr("x")})
	if err != nil {
		t.Fatalf("UpdateMessage failed: %v", err)
	}
	if result != PatchIgnored {
		t.Errorf("expected PatchIgnored, got %v", result)
	}
}

func TestStore_UpdateCharacterWithoutCharacterIsNoOp(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	before := s.State()
	result, err := s.UpdateCharacter(ctx, CharacterPatch{Name: strPtr("Lyra")})
	if err != nil {
		t.Fatalf("UpdateCharacter failed: %v", err)
	}
	if result != PatchIgnored {
		t.Errorf("expected PatchIgnored, got %v", result)
	}

	after := s.State()
	if after.Character != nil {
		t.Error("patch must not create a character")
	}
	if after.Derived != before.Derived {
		t.Errorf("derived state changed on ignored patch: %+v -> %+v", before.Derived, after.Derived)
	}
}

func TestStore_XPProgress(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		toNext   int
		expected float64
	}{
		{"half way", 50, 100, 0.5},
		{"fresh character", 0, 100, 0},
		{"zero to next guards divide", 50, 0, 0},
		{"over the line", 150, 100, 1.5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()

			err := s.SetCharacter(ctx, &Character{
				Name:  "Lyra",
				Level: 1,
				XP:    XP{Current: tc.current, ToNext: tc.toNext},
			})
			if err != nil {
				t.Fatalf("SetCharacter failed: %v", err)
			}

			if got := s.State().Derived.XPProgress; got != tc.expected {
				t.Errorf("expected xp progress %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestStore_UpdateCharacterRecomputesProgress(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.SetCharacter(ctx, &Character{
		Name:  "Lyra",
		Level: 1,
		XP:    XP{Current: 0, ToNext: 100},
	})
	if err != nil {
		t.Fatalf("SetCharacter failed: %v", err)
	}

	result, err := s.UpdateCharacter(ctx, CharacterPatch{CurrentXP: intPtr(50)})
	if err != nil {
		t.Fatalf("UpdateCharacter failed: %v", err)
	}
	if result != PatchApplied {
		t.Errorf("expected PatchApplied, got %v", result)
	}

	d := s.State().Derived
	if d.XPProgress != 0.5 {
		t.Errorf("expected xp progress 0.5, got %v", d.XPProgress)
	}
	if d.CharacterLevel != 1 {
		t.Errorf("expected level 1, got %d", d.CharacterLevel)
	}
}

func TestStore_IsGameReady(t *testing.T) {
	tests := []struct {
		name       string
		sessionID  string
		campaignID string
		character  *Character
		blueprint  *Blueprint
		expected   bool
	}{
		{"all present", "s1", "c1", &Character{Name: "Lyra"}, &Blueprint{Name: "Vale"}, true},
		{"missing session", "", "c1", &Character{Name: "Lyra"}, &Blueprint{Name: "Vale"}, false},
		{"missing campaign", "s1", "", &Character{Name: "Lyra"}, &Blueprint{Name: "Vale"}, false},
		{"missing character", "s1", "c1", nil, &Blueprint{Name: "Vale"}, false},
		{"missing blueprint", "s1", "c1", &Character{Name: "Lyra"}, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx := context.Background()

			if _, err := s.UpdateSession(ctx, SessionPatch{
				SessionID:  strPtr(tc.sessionID),
				CampaignID: strPtr(tc.campaignID),
			}); err != nil {
				t.Fatalf("UpdateSession failed: %v", err)
			}
			if err := s.SetCharacter(ctx, tc.character); err != nil {
				t.Fatalf("SetCharacter failed: %v", err)
			}
			if err := s.SetWorld(ctx, World{Blueprint: tc.blueprint}); err != nil {
				t.Fatalf("SetWorld failed: %v", err)
			}

			if got := s.State().Derived.IsGameReady; got != tc.expected {
				t.Errorf("expected IsGameReady=%v, got %v", tc.expected, got)
			}
		})
	}
}

func TestStore_PersistenceCapabilities(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := s.State().Persistence
	if p.CanSave || p.CanContinue || p.CanLoadFromDB {
		t.Errorf("fresh store should have no capabilities: %+v", p)
	}

	if _, err := s.UpdateSession(ctx, SessionPatch{
		SessionID:  strPtr("s1"),
		CampaignID: strPtr("c1"),
	}); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if err := s.SetCharacter(ctx, &Character{Name: "Lyra"}); err != nil {
		t.Fatalf("SetCharacter failed: %v", err)
	}

	p = s.State().Persistence
	if !p.CanSave {
		t.Error("campaign + character should enable CanSave")
	}
	if !p.CanLoadFromDB {
		t.Error("campaign should enable CanLoadFromDB")
	}
	if p.CanContinue {
		t.Error("CanContinue requires a world")
	}

	// A hydrated world with state but no blueprint still counts
	if err := s.SetWorld(ctx, World{State: &WorldState{CurrentLocation: "tavern"}}); err != nil {
		t.Fatalf("SetWorld failed: %v", err)
	}
	if !s.State().Persistence.CanContinue {
		t.Error("session + character + world state should enable CanContinue")
	}
}

func TestNewSessionID(t *testing.T) {
	if got := NewSessionID("camp-1"); got != "sess-camp-1" {
		t.Errorf("campaign-bound id should derive from the campaign, got %q", got)
	}
	if got := NewSessionID("camp-1"); got != "sess-camp-1" {
		t.Errorf("campaign-bound derivation must be stable, got %q", got)
	}

	free := NewSessionID("")
	if !strings.HasPrefix(free, "sess-") || free == "sess-" {
		t.Errorf("free session id should carry a timestamp, got %q", free)
	}
}

func TestStore_SessionIDOverwriteReported(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result, err := s.UpdateSession(ctx, SessionPatch{SessionID: strPtr("s1")})
	if err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if result != PatchApplied {
		t.Errorf("first bind should be PatchApplied, got %v", result)
	}

	// Same value is not an overwrite
	result, err = s.UpdateSession(ctx, SessionPatch{SessionID: strPtr("s1")})
	if err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if result != PatchApplied {
		t.Errorf("rebind to same id should be PatchApplied, got %v", result)
	}

	result, err = s.UpdateSession(ctx, SessionPatch{SessionID: strPtr("s2")})
	if err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if result != PatchOverwrote {
		t.Errorf("expected PatchOverwrote, got %v", result)
	}
	if got := s.State().Session.SessionID; got != "s2" {
		t.Errorf("overwrite must still apply, got %q", got)
	}
}

func TestStore_SetQuestsNormalizesIndexes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.SetQuests(ctx, Quests{
		ByID: map[string]Quest{
			"q1": {ID: "q1", Title: "Find the amulet", Status: QuestActive},
			"q2": {ID: "q2", Title: "Clear the cellar", Status: QuestCompleted},
		},
		AllIDs:       []string{"q1", "q2", "ghost", "q1"},
		ActiveIDs:    []string{"q1", "q2", "ghost"},
		CompletedIDs: []string{"q2"},
	})
	if err != nil {
		t.Fatalf("SetQuests failed: %v", err)
	}

	q := s.State().Quests
	if len(q.AllIDs) != 2 {
		t.Errorf("expected 2 all ids, got %v", q.AllIDs)
	}
	if len(q.ActiveIDs) != 1 || q.ActiveIDs[0] != "q1" {
		t.Errorf("expected active [q1], got %v", q.ActiveIDs)
	}
	if len(q.CompletedIDs) != 1 || q.CompletedIDs[0] != "q2" {
		t.Errorf("expected completed [q2], got %v", q.CompletedIDs)
	}
	for _, id := range append(append([]string{}, q.ActiveIDs...), q.CompletedIDs...) {
		if _, ok := q.ByID[id]; !ok {
			t.Errorf("indexed id %q has no entity", id)
		}
	}
}

func TestStore_PendingCheckLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	check := &Check{ID: "chk1", Ability: "dexterity", Skill: "stealth", DC: 14}
	if err := s.SetPendingCheck(ctx, check); err != nil {
		t.Fatalf("SetPendingCheck failed: %v", err)
	}
	if !s.State().Derived.HasPendingCheck {
		t.Error("expected HasPendingCheck after set")
	}

	err := s.ResolvePendingCheck(ctx, CheckResult{
		Check:   *check,
		Roll:    15,
		Total:   18,
		Success: true,
	})
	if err != nil {
		t.Fatalf("ResolvePendingCheck failed: %v", err)
	}

	gs := s.State()
	if gs.Checks.Pending != nil {
		t.Error("pending check should be cleared")
	}
	if gs.Derived.HasPendingCheck {
		t.Error("HasPendingCheck should be false after resolve")
	}
	if len(gs.Checks.History) != 1 || !gs.Checks.History[0].Success {
		t.Errorf("expected one successful result in history, got %+v", gs.Checks.History)
	}
}

func TestStore_CombatLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	participants := []Combatant{
		{ID: "pc", Name: "Lyra", HP: HP{Current: 10, Max: 10}, IsPlayer: true},
		{ID: "gob1", Name: "Goblin", HP: HP{Current: 7, Max: 7}},
	}
	if err := s.StartCombat(ctx, "", participants, []string{"pc", "gob1"}); err != nil {
		t.Fatalf("StartCombat failed: %v", err)
	}

	gs := s.State()
	if !gs.Derived.IsInCombat {
		t.Error("expected IsInCombat after start")
	}
	if gs.Combat.CombatID == "" {
		t.Error("missing combat id should be generated")
	}
	if gs.Combat.RoundNumber != 1 {
		t.Errorf("expected round 1, got %d", gs.Combat.RoundNumber)
	}

	if err := s.EndCombat(ctx, "victory"); err != nil {
		t.Fatalf("EndCombat failed: %v", err)
	}
	gs = s.State()
	if gs.Derived.IsInCombat {
		t.Error("IsInCombat should clear on end")
	}
	if len(gs.Combat.Participants) != 0 {
		t.Error("participants should clear on end")
	}
	if gs.Combat.Outcome != "victory" {
		t.Errorf("outcome should be retained, got %q", gs.Combat.Outcome)
	}

	if err := s.ClearCombatOutcome(ctx); err != nil {
		t.Fatalf("ClearCombatOutcome failed: %v", err)
	}
	if got := s.State().Combat.Outcome; got != "" {
		t.Errorf("outcome should clear, got %q", got)
	}
}

func TestStore_NarrationQueueFIFO(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, id := range []string{"m1", "m2", "m3"} {
		if err := s.EnqueueNarration(ctx, id); err != nil {
			t.Fatalf("EnqueueNarration failed: %v", err)
		}
	}

	for _, want := range []string{"m1", "m2", "m3"} {
		id, ok, err := s.DequeueNarration(ctx)
		if err != nil {
			t.Fatalf("DequeueNarration failed: %v", err)
		}
		if !ok || id != want {
			t.Errorf("expected %s, got %q (ok=%v)", want, id, ok)
		}
	}

	if _, ok, _ := s.DequeueNarration(ctx); ok {
		t.Error("dequeue on empty queue should report not ok")
	}
}

func TestStore_MarkSavedClearsDirty(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.MarkDirty(ctx); err != nil {
		t.Fatalf("MarkDirty failed: %v", err)
	}
	if !s.State().Persistence.HasUnsavedChanges {
		t.Fatal("expected dirty after MarkDirty")
	}

	at := time.Now()
	if err := s.MarkSavedToLocal(ctx, at); err != nil {
		t.Fatalf("MarkSavedToLocal failed: %v", err)
	}

	gs := s.State()
	if gs.Persistence.HasUnsavedChanges {
		t.Error("dirty flag should clear on save")
	}
	if !gs.Persistence.LastLocalSaveAt.Equal(at) {
		t.Error("local save time should be stamped")
	}
	if !gs.Session.LastSavedAt.Equal(at) {
		t.Error("session save time should be stamped")
	}
}

func TestStore_SubscribersNotifiedPerMutation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var calls int
	unsubscribe := s.Subscribe(func() { calls++ })

	if err := s.AddMessage(ctx, Message{ID: "m1"}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if err := s.MarkDirty(ctx); err != nil {
		t.Fatalf("MarkDirty failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 notifications, got %d", calls)
	}

	unsubscribe()
	if err := s.AddMessage(ctx, Message{ID: "m2"}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected no notification after unsubscribe, got %d", calls)
	}
}

func TestStore_LoadRestoresSnapshot(t *testing.T) {
	adapter := storage.NewAdapter(storage.NewMemoryKV(), testLogger())
	ctx := context.Background()

	s := NewStore(adapter, "test", testLogger())
	if _, err := s.UpdateSession(ctx, SessionPatch{
		SessionID:  strPtr("s1"),
		CampaignID: strPtr("c1"),
	}); err != nil {
		t.Fatalf("UpdateSession failed: %v", err)
	}
	if err := s.SetCharacter(ctx, &Character{Name: "Lyra", Level: 3, XP: XP{Current: 10, ToNext: 100}}); err != nil {
		t.Fatalf("SetCharacter failed: %v", err)
	}
	if err := s.AddMessage(ctx, Message{ID: "m1", Type: MessageTypeDM, Text: "Welcome back."}); err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	// Fresh store over the same backend
	reloaded := NewStore(adapter, "test", testLogger())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	gs := reloaded.State()
	if gs.Session.SessionID != "s1" {
		t.Errorf("expected session s1, got %q", gs.Session.SessionID)
	}
	if gs.Character == nil || gs.Character.Name != "Lyra" {
		t.Errorf("character not restored: %+v", gs.Character)
	}
	if gs.Messages.Count() != 1 {
		t.Errorf("expected 1 message, got %d", gs.Messages.Count())
	}
	// Derived values come back via recompute, not the snapshot
	if gs.Derived.XPProgress != 0.1 {
		t.Errorf("expected xp progress 0.1, got %v", gs.Derived.XPProgress)
	}
}

func TestStore_SnapshotBoundsPersistedMessages(t *testing.T) {
	adapter := storage.NewAdapter(storage.NewMemoryKV(), testLogger())
	ctx := context.Background()

	s := NewStore(adapter, "test", testLogger())
	msgs := make([]Message, PersistedMessageLimit+50)
	for i := range msgs {
		msgs[i] = Message{ID: fmt.Sprintf("m%d", i), Type: MessageTypeDM}
	}
	if err := s.AddMessages(ctx, msgs); err != nil {
		t.Fatalf("AddMessages failed: %v", err)
	}
	if got := s.State().Messages.Count(); got != PersistedMessageLimit+50 {
		t.Fatalf("bulk add below the in-memory ceiling should keep everything, got %d", got)
	}

	reloaded := NewStore(adapter, "test", testLogger())
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	gs := reloaded.State()
	if gs.Messages.Count() != PersistedMessageLimit {
		t.Fatalf("expected persisted count %d, got %d", PersistedMessageLimit, gs.Messages.Count())
	}
	// Newest survive, oldest are dropped
	if gs.Messages.Has("m0") {
		t.Error("oldest message should not survive persistence")
	}
	if !gs.Messages.Has(fmt.Sprintf("m%d", PersistedMessageLimit+49)) {
		t.Error("newest message should survive persistence")
	}
}

func TestStore_LoadIgnoresCorruptSnapshot(t *testing.T) {
	kv := storage.NewMemoryKV()
	ctx := context.Background()
	if err := kv.Set(ctx, "test:state", `{"version": "2.0",`, 0); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	s := NewStore(storage.NewAdapter(kv, testLogger()), "test", testLogger())
	if err := s.Load(ctx); err != nil {
		t.Fatalf("Load should swallow corrupt snapshots, got %v", err)
	}
	if got := s.State().Version; got != SchemaVersion {
		t.Errorf("expected defaults after corrupt load, got version %q", got)
	}
}

// failingKV accepts reads but rejects writes, for exercising the
// persist-error path.
type failingKV struct {
	*storage.MemoryKV
}

func (f *failingKV) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	return errors.New("disk full")
}

func TestStore_PersistFailureStillMutatesMemory(t *testing.T) {
	adapter := storage.NewAdapter(&failingKV{storage.NewMemoryKV()}, testLogger())
	s := NewStore(adapter, "test", testLogger())

	err := s.AddMessage(context.Background(), Message{ID: "m1", Text: "hello"})
	if err == nil {
		t.Fatal("expected persist error")
	}
	if !s.State().Messages.Has("m1") {
		t.Error("mutation should apply in memory despite persist failure")
	}
}
