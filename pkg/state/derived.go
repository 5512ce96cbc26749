package state

// computeDerived recalculates the Derived slice and the persistence
// capability flags from current slice state. Pure: same slices in, same
// values out; never cached, never partially stale.
func computeDerived(gs *GameState) {
	d := Derived{
		IsInCombat:      gs.Combat.IsActive,
		HasPendingCheck: gs.Checks.Pending != nil,
	}

	d.IsGameReady = gs.Session.SessionID != "" &&
		gs.Session.CampaignID != "" &&
		gs.Character != nil &&
		gs.World.Blueprint != nil

	if gs.Character != nil {
		d.CharacterLevel = gs.Character.Level
		d.NextLevelXP = gs.Character.XP.ToNext
		if gs.Character.XP.ToNext > 0 {
			d.XPProgress = float64(gs.Character.XP.Current) / float64(gs.Character.XP.ToNext)
		}
	}

	gs.Derived = d

	// A legacy-hydrated world has state but no blueprint; either form
	// counts as a world worth continuing.
	hasWorld := gs.World.Blueprint != nil || gs.World.State != nil
	gs.Persistence.CanSave = gs.Session.CampaignID != "" && gs.Character != nil
	gs.Persistence.CanContinue = gs.Session.SessionID != "" &&
		gs.Character != nil && hasWorld
	gs.Persistence.CanLoadFromDB = gs.Session.CampaignID != ""
}
