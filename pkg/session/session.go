// Package session tracks which character and campaign are active
// across the creation flow: character wizard, campaign setup, world
// generation, adventure. It is persisted independently of the game
// state store under its own key.
package session

import (
	"fmt"
	"time"
)

// CampaignStatus is the position in the campaign creation flow
type CampaignStatus string

const (
	// StatusNone means no campaign is in progress
	StatusNone CampaignStatus = "none"
	// StatusDraft means the user submitted intent and a draft campaign
	// exists server-side
	StatusDraft CampaignStatus = "draft"
	// StatusGenerating means world generation is running
	StatusGenerating CampaignStatus = "generating"
	// StatusReady means the world is generated and the adventure can begin
	StatusReady CampaignStatus = "ready"
)

// Session is the small independently-persisted record of what is active
type Session struct {
	ActiveCharacterID string         `json:"active_character_id,omitempty"`
	ActiveCampaignID  string         `json:"active_campaign_id,omitempty"`
	CampaignStatus    CampaignStatus `json:"campaign_status"`
	LastUpdatedAt     time.Time      `json:"last_updated_at,omitzero"`
}

// NewSession returns the default (nothing active) session
func NewSession() Session {
	return Session{CampaignStatus: StatusNone}
}

// Patch is a partial update to the session record
type Patch struct {
	ActiveCharacterID *string
	ActiveCampaignID  *string
	CampaignStatus    *CampaignStatus
}

func (p Patch) apply(s *Session) {
	if p.ActiveCharacterID != nil {
		s.ActiveCharacterID = *p.ActiveCharacterID
	}
	if p.ActiveCampaignID != nil {
		s.ActiveCampaignID = *p.ActiveCampaignID
	}
	if p.CampaignStatus != nil {
		s.CampaignStatus = *p.CampaignStatus
	}
}

// transition validates one step of the campaign state machine
func transition(from, to CampaignStatus) error {
	allowed := false
	switch to {
	case StatusDraft:
		allowed = from == StatusNone
	case StatusGenerating:
		allowed = from == StatusDraft
	case StatusReady:
		allowed = from == StatusGenerating
	case StatusNone:
		// Error path: abandon from draft or generating
		allowed = from == StatusDraft || from == StatusGenerating
	}
	if !allowed {
		return fmt.Errorf("invalid campaign transition: %s -> %s", from, to)
	}
	return nil
}
