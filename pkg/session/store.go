package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jwebster45206/adventure-client/internal/storage"
)

// Store owns the session-core record. It is the only writer of its
// storage key.
type Store struct {
	mu      sync.Mutex
	logger  *slog.Logger
	adapter *storage.Adapter
	key     string
	s       Session
}

// NewStore creates a session-core store. namespace prefixes the
// storage key and must match the game state store's namespace.
func NewStore(adapter *storage.Adapter, namespace string, logger *slog.Logger) *Store {
	return &Store{
		logger:  logger,
		adapter: adapter,
		key:     namespace + ":session_core",
		s:       NewSession(),
	}
}

// Load restores the persisted record, keeping defaults when absent or
// undecodable
func (st *Store) Load(ctx context.Context) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	var s Session
	found, err := st.adapter.GetJSON(ctx, st.key, &s)
	if err != nil {
		st.logger.Warn("Discarding undecodable session-core record", "key", st.key, "error", err)
		return nil
	}
	if !found {
		return nil
	}
	if s.CampaignStatus == "" {
		s.CampaignStatus = StatusNone
	}
	st.s = s
	return nil
}

// Current returns the session record
func (st *Store) Current() Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.s
}

// Set replaces the record wholesale
func (st *Store) Set(ctx context.Context, s Session) error {
	return st.mutate(ctx, func(cur *Session) error {
		*cur = s
		return nil
	})
}

// Update shallow-merges a patch
func (st *Store) Update(ctx context.Context, p Patch) error {
	return st.mutate(ctx, func(cur *Session) error {
		p.apply(cur)
		return nil
	})
}

// Reset restores defaults
func (st *Store) Reset(ctx context.Context) error {
	return st.mutate(ctx, func(cur *Session) error {
		*cur = NewSession()
		return nil
	})
}

// BeginDraft enters the draft state with the server-created campaign id
func (st *Store) BeginDraft(ctx context.Context, campaignID string) error {
	return st.mutate(ctx, func(cur *Session) error {
		if err := transition(cur.CampaignStatus, StatusDraft); err != nil {
			return err
		}
		cur.CampaignStatus = StatusDraft
		cur.ActiveCampaignID = campaignID
		return nil
	})
}

// BeginGenerating marks world generation as running
func (st *Store) BeginGenerating(ctx context.Context) error {
	return st.mutate(ctx, func(cur *Session) error {
		if err := transition(cur.CampaignStatus, StatusGenerating); err != nil {
			return err
		}
		cur.CampaignStatus = StatusGenerating
		return nil
	})
}

// MarkReady marks the campaign playable
func (st *Store) MarkReady(ctx context.Context) error {
	return st.mutate(ctx, func(cur *Session) error {
		if err := transition(cur.CampaignStatus, StatusReady); err != nil {
			return err
		}
		cur.CampaignStatus = StatusReady
		return nil
	})
}

// Fail abandons an in-flight campaign: back to none, clearing the
// active campaign id
func (st *Store) Fail(ctx context.Context) error {
	return st.mutate(ctx, func(cur *Session) error {
		if err := transition(cur.CampaignStatus, StatusNone); err != nil {
			return err
		}
		cur.CampaignStatus = StatusNone
		cur.ActiveCampaignID = ""
		return nil
	})
}

func (st *Store) mutate(ctx context.Context, fn func(*Session) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := fn(&st.s); err != nil {
		return err
	}
	st.s.LastUpdatedAt = time.Now()

	if err := st.adapter.Set(ctx, st.key, st.s); err != nil {
		st.logger.Error("Failed to persist session-core record", "key", st.key, "error", err)
		return err
	}
	return nil
}
