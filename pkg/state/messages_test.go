package state

import (
	"encoding/json"
	"fmt"
	"testing"
)

func TestMessages_CountMatchesIDsAndMap(t *testing.T) {
	m := NewMessages()

	for i := 0; i < 50; i++ {
		m.add(Message{ID: fmt.Sprintf("m%d", i), Type: MessageTypeDM, Text: "x"}, true)

		if m.Count() != len(m.IDs()) {
			t.Fatalf("count %d != len(ids) %d after insert %d", m.Count(), len(m.IDs()), i)
		}
		if m.Count() != len(m.byID) {
			t.Fatalf("count %d != map size %d after insert %d", m.Count(), len(m.byID), i)
		}
	}
}

func TestMessages_UpsertExistingKeepsOrderAndCount(t *testing.T) {
	m := NewMessages()
	m.add(Message{ID: "m1", Text: "first"}, true)
	m.add(Message{ID: "m2", Text: "second"}, true)
	m.add(Message{ID: "m1", Text: "revised"}, true)

	if m.Count() != 2 {
		t.Errorf("expected count 2, got %d", m.Count())
	}

	ids := m.IDs()
	if ids[0] != "m1" || ids[1] != "m2" {
		t.Errorf("expected order [m1 m2], got %v", ids)
	}

	got, _ := m.Get("m1")
	if got.Text != "revised" {
		t.Errorf("expected revised text, got %q", got.Text)
	}
}

func TestMessages_EvictsOldestPastLimit(t *testing.T) {
	m := NewMessages()

	for i := 0; i <= MessageLimit; i++ {
		m.add(Message{ID: fmt.Sprintf("m%d", i)}, true)
	}

	if m.Count() != MessageLimit {
		t.Fatalf("expected count %d, got %d", MessageLimit, m.Count())
	}
	if m.Has("m0") {
		t.Error("oldest message should have been evicted from byID")
	}
	ids := m.IDs()
	if ids[0] != "m1" {
		t.Errorf("expected oldest surviving id m1, got %s", ids[0])
	}
	if ids[len(ids)-1] != fmt.Sprintf("m%d", MessageLimit) {
		t.Errorf("expected newest id m%d, got %s", MessageLimit, ids[len(ids)-1])
	}
}

func TestMessages_UnboundedAddDoesNotEvict(t *testing.T) {
	m := NewMessages()

	total := MessageLimit + 10
	for i := 0; i < total; i++ {
		m.add(Message{ID: fmt.Sprintf("m%d", i)}, false)
	}

	if m.Count() != total {
		t.Errorf("expected count %d, got %d", total, m.Count())
	}
	if !m.Has("m0") {
		t.Error("bulk path must not evict")
	}
}

func TestMessages_JSONRoundTrip(t *testing.T) {
	m := NewMessages()
	m.add(Message{ID: "m1", Type: MessageTypeDM, Text: "Hello"}, true)
	m.add(Message{ID: "m2", Type: MessageTypePlayer, Text: "Hi"}, true)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded Messages
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Count() != 2 {
		t.Errorf("expected 2 messages, got %d", decoded.Count())
	}
	ids := decoded.IDs()
	if ids[0] != "m1" || ids[1] != "m2" {
		t.Errorf("expected order [m1 m2], got %v", ids)
	}
}

func TestMessages_UnmarshalDropsDanglingAndDuplicateIDs(t *testing.T) {
	raw := `{
		"by_id": {"m1": {"id": "m1", "type": "dm", "text": "a"}},
		"all_ids": ["m1", "ghost", "m1"],
		"count": 3
	}`

	var decoded Messages
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if decoded.Count() != 1 {
		t.Errorf("expected 1 message after boundary validation, got %d", decoded.Count())
	}
	if decoded.Has("ghost") {
		t.Error("dangling id must not survive decode")
	}
}

func TestIDRing_PushGrowPreservesOrder(t *testing.T) {
	r := newIDRing(4)

	// Wrap the head first so growth has to unroll the circle
	for i := 0; i < 6; i++ {
		r.push(fmt.Sprintf("a%d", i))
	}
	for i := 0; i < 6; i++ {
		r.pushGrow(fmt.Sprintf("b%d", i))
	}

	ids := r.ids()
	want := []string{"a2", "a3", "a4", "a5", "b0", "b1", "b2", "b3", "b4", "b5"}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d: %v", len(want), len(ids), ids)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], ids[i])
		}
	}
}

func TestIDRing_PopOldest(t *testing.T) {
	r := newIDRing(3)
	r.push("a")
	r.push("b")

	id, ok := r.popOldest()
	if !ok || id != "a" {
		t.Errorf("expected a, got %q (ok=%v)", id, ok)
	}
	if r.len() != 1 {
		t.Errorf("expected len 1, got %d", r.len())
	}

	r.popOldest()
	if _, ok := r.popOldest(); ok {
		t.Error("pop on empty ring should report not ok")
	}
}
